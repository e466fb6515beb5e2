// Package response writes the JSON envelopes shared by every endpoint.
package response

import (
	"errors"
	"log/slog"
	"net/http"

	"social-service/internal/models"

	"github.com/gin-gonic/gin"
)

// Error writes err as {"success": false, "message": ...}. Errors that are not
// *models.AppError are logged and reported as a generic 500.
func Error(c *gin.Context, err error) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = models.NewInternalError(err)
	}
	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"requestID", c.GetString(RequestIDKey),
			"error", appErr.Error(),
		)
		_ = c.Error(appErr)
	}
	Fail(c, status, appErr.Message)
}

// Fail aborts the chain with a failure envelope.
func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Success: false, Message: message})
}

func Message(c *gin.Context, status int, message string) {
	c.JSON(status, models.MessageResponse{Success: true, Message: message})
}

// RequestIDKey is the gin context key holding the request ID.
const RequestIDKey = "request_id"
