package handlers

import (
	"log/slog"
	"net/http"

	"social-service/internal/api/middleware"
	"social-service/internal/config"
	"social-service/internal/models"
	"social-service/internal/services"
	"social-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService    *services.UserService
	sessionService *services.SessionService
	cookie         config.CookieConfig
}

func NewAuthHandler(userService *services.UserService, sessionService *services.SessionService, cookie config.CookieConfig) *AuthHandler {
	return &AuthHandler{
		userService:    userService,
		sessionService: sessionService,
		cookie:         cookie,
	}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(h.cookie.Name, token, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}

// Register godoc
// @Summary Register a new user
// @Description Register a new user with full name, username, email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "User registration data"
// @Success 201 {object} models.UserEnvelope "Registered successfully"
// @Failure 400 {object} models.ErrorResponse "Missing fields or email/username already in use"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Please provide all required fields")
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.UserEnvelope{
		Success: true,
		Message: "Registered successfully",
		User:    *user,
	})
}

// Login godoc
// @Summary User login
// @Description Authenticate with email and password. The session token is set as an httpOnly cookie and also returned in the body.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "User login credentials"
// @Success 200 {object} models.UserEnvelope "Login successful"
// @Failure 400 {object} models.ErrorResponse "Missing email or password"
// @Failure 401 {object} models.ErrorResponse "Invalid credentials"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Please enter email and password")
		return
	}

	result, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, result.Token, int(h.sessionService.TTL().Seconds()))
	c.JSON(http.StatusOK, models.UserEnvelope{
		Success: true,
		Message: "Login successful",
		User:    result.User,
		Token:   result.Token,
	})
}

// Logout godoc
// @Summary User logout
// @Description Clear the session cookie and revoke the presented token
// @Tags auth
// @Produce json
// @Success 200 {object} models.MessageResponse "Logged out"
// @Router /logout [get]
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := middleware.TokenFromRequest(c, h.cookie.Name); token != "" {
		if claims, err := h.sessionService.Verify(token); err == nil {
			// Revocation is best effort; the cookie is cleared regardless.
			if err := h.sessionService.Revoke(c.Request.Context(), claims); err != nil {
				slog.Warn("Failed to revoke session on logout", "userID", claims.UserID(), "jti", claims.ID, "error", err)
			}
		}
	}

	h.setSessionCookie(c, "", -1)
	response.Message(c, http.StatusOK, "Logged out successfully")
}
