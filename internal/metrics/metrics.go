package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by route template, method and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"route", "method", "status"})

	// HTTPRequestDuration records handler latency by route template and method.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "social_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	// FriendEventsTotal counts friend-graph state changes by event type.
	FriendEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_friend_events_total",
		Help: "Total friend requests sent and accepted",
	}, []string{"event_type"})

	// EventPublishFailures counts events that could not be handed to the publisher.
	EventPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_event_publish_failures_total",
		Help: "Total number of events that failed to publish",
	}, []string{"event_type"})

	// RateLimitRejections counts requests refused by the rate limiter per scope.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_rate_limit_rejections_total",
		Help: "Total number of requests rejected by rate limiting",
	}, []string{"scope"})

	// WebSocketConnections is the gauge of open notification streams.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "social_websocket_connections",
		Help: "Number of open notification WebSocket connections",
	})
)

// Middleware records request count and latency. Unmatched routes are grouped
// under "unmatched" to keep label cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
