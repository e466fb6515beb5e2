package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"social-service/internal/metrics"
	"social-service/internal/services"
	"social-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type RateLimitMiddleware struct {
	redisService *services.RedisService
}

// NewRateLimitMiddleware returns a limiter backed by Redis. With a nil service
// every request is allowed.
func NewRateLimitMiddleware(redisService *services.RedisService) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		redisService: redisService,
	}
}

func (rm *RateLimitMiddleware) limit(c *gin.Context, scope, key string, requests int, window time.Duration) {
	if rm.redisService == nil || requests <= 0 {
		c.Next()
		return
	}

	allowed, err := rm.redisService.CheckRateLimit(c.Request.Context(), key, requests, window)
	if err != nil {
		// Fail open: a Redis outage must not take the API down with it.
		slog.Warn("Rate limit check failed", "scope", scope, "error", err)
		c.Next()
		return
	}

	if !allowed {
		metrics.RateLimitRejections.WithLabelValues(scope).Inc()
		c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
		response.Fail(c, http.StatusTooManyRequests,
			fmt.Sprintf("Too many requests. Limit: %d per %v", requests, window))
		return
	}

	c.Next()
}

// RateLimit limits authenticated callers per user and route. It must run after RequireAuth.
func (rm *RateLimitMiddleware) RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := CurrentUserID(c)
		if userID.IsZero() {
			response.Fail(c, http.StatusUnauthorized, "Not authenticated")
			return
		}
		key := fmt.Sprintf("rate_limit:%s:%s", userID.Hex(), c.FullPath())
		rm.limit(c, "user", key, requests, window)
	}
}

// RateLimitIP limits public routes per client IP and route.
func (rm *RateLimitMiddleware) RateLimitIP(requests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit_ip:%s:%s", c.ClientIP(), c.FullPath())
		rm.limit(c, "ip", key, requests, window)
	}
}
