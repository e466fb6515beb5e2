package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"social-service/internal/api/middleware"
	"social-service/internal/metrics"
	"social-service/internal/services"
	"social-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type WSHandler struct {
	redisService *services.RedisService
	upgrader     websocket.Upgrader
}

// NewWSHandler streams user notifications from Redis. checkOrigin decides which
// browser origins may open a stream.
func NewWSHandler(redisService *services.RedisService, checkOrigin func(r *http.Request) bool) *WSHandler {
	return &WSHandler{
		redisService: redisService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// HandleWebSocket godoc
// @Summary Notification stream
// @Description Upgrade to a WebSocket that receives the caller's friend-request notifications as JSON text frames
// @Tags websocket
// @Security CookieAuth
// @Success 101 "Switching Protocols"
// @Failure 401 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse "Redis not configured"
// @Router /ws [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	if h.redisService == nil {
		response.Fail(c, http.StatusServiceUnavailable, "Notifications are not available")
		return
	}
	userID := middleware.CurrentUserID(c).Hex()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "userID", userID, "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := h.redisService.Subscribe(ctx, services.UserNotificationChannel(userID))
	defer pubsub.Close()

	metrics.WebSocketConnections.Inc()
	defer metrics.WebSocketConnections.Dec()
	slog.Info("Notification stream opened", "userID", userID)

	go readPump(conn, cancel)
	writePump(ctx, conn, pubsub.Channel())

	slog.Info("Notification stream closed", "userID", userID)
}

// readPump discards client frames and cancels the stream when the peer goes away.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(ctx context.Context, conn *websocket.Conn, messages <-chan *redis.Message) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
