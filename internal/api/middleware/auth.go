package middleware

import (
	"net/http"
	"strings"

	"social-service/internal/models"
	"social-service/internal/services"
	"social-service/pkg/response"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ContextUserID = "user_id"
	ContextUser   = "user"
	ContextClaims = "claims"
)

type AuthMiddleware struct {
	sessions   *services.SessionService
	users      *services.UserService
	cookieName string
}

func NewAuthMiddleware(sessions *services.SessionService, users *services.UserService, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		sessions:   sessions,
		users:      users,
		cookieName: cookieName,
	}
}

// TokenFromRequest reads the session cookie, falling back to a Bearer header.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}
	if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := TokenFromRequest(c, am.cookieName)
		if tokenString == "" {
			response.Fail(c, http.StatusUnauthorized, "Not authenticated")
			return
		}

		claims, err := am.sessions.Verify(tokenString)
		if err != nil || am.sessions.IsRevoked(c.Request.Context(), claims) {
			response.Fail(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID())
		if err != nil {
			response.Fail(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		user, err := am.users.GetUser(c.Request.Context(), userID)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUser, user)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// CurrentUser returns the user loaded by RequireAuth.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(ContextUser); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

func CurrentUserID(c *gin.Context) primitive.ObjectID {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(primitive.ObjectID); ok {
			return id
		}
	}
	return primitive.NilObjectID
}
