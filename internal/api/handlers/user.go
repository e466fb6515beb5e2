package handlers

import (
	"net/http"

	"social-service/internal/api/middleware"
	"social-service/internal/models"
	"social-service/internal/services"
	"social-service/internal/storage"
	"social-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Search godoc
// @Summary Search users
// @Description Case-insensitive substring match on username, email or full name. The caller is never included.
// @Tags users
// @Produce json
// @Security CookieAuth
// @Param query query string true "Search text"
// @Success 200 {object} models.UsersEnvelope
// @Failure 400 {object} models.ErrorResponse "Empty query"
// @Failure 401 {object} models.ErrorResponse
// @Router /search [get]
func (h *UserHandler) Search(c *gin.Context) {
	users, err := h.userService.Search(c.Request.Context(), middleware.CurrentUserID(c), c.Query("query"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UsersEnvelope{Success: true, Users: users})
}

// Me godoc
// @Summary Current user profile
// @Tags users
// @Produce json
// @Security CookieAuth
// @Success 200 {object} models.UserEnvelope
// @Failure 401 {object} models.ErrorResponse
// @Router /me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Fail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	c.JSON(http.StatusOK, models.UserEnvelope{Success: true, Message: "OK", User: user.ToResponse()})
}

// UploadAvatar godoc
// @Summary Upload avatar
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security CookieAuth
// @Param avatar formData file true "Image (jpeg, png, gif or webp, max 5MB)"
// @Success 200 {object} models.UserEnvelope
// @Failure 400 {object} models.ErrorResponse "Missing, oversized or unsupported file"
// @Failure 401 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse "Object storage not configured"
// @Router /users/avatar [put]
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	file, err := c.FormFile("avatar")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "Avatar file is required")
		return
	}
	if file.Size > storage.MaxAvatarBytes {
		response.Fail(c, http.StatusBadRequest, "Avatar must be 5MB or smaller")
		return
	}
	contentType := file.Header.Get("Content-Type")
	if _, ok := storage.ExtensionFor(contentType); !ok {
		response.Fail(c, http.StatusBadRequest, "Avatar must be a JPEG, PNG, GIF or WebP image")
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "Avatar file could not be read")
		return
	}
	defer src.Close()

	user, err := h.userService.UpdateAvatar(c.Request.Context(), middleware.CurrentUserID(c), src, file.Size, contentType)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UserEnvelope{Success: true, Message: "Avatar updated", User: *user})
}
