package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"social-service/internal/database"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisService struct {
	client *database.RedisClient
}

func NewRedisService(client *database.RedisClient) *RedisService {
	return &RedisService{
		client: client,
	}
}

func UserNotificationChannel(userID string) string {
	return fmt.Sprintf("user:%s:notifications", userID)
}

func revokedTokenKey(jti string) string {
	return fmt.Sprintf("session:revoked:%s", jti)
}

// =============================================================================
// PubSub Operations
// =============================================================================

func (r *RedisService) PublishUserNotification(ctx context.Context, userID string, notification interface{}) error {
	data, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	err = r.client.GetClient().Publish(ctx, UserNotificationChannel(userID), data).Err()
	if err != nil {
		slog.Error("Failed to publish user notification", "userID", userID, "error", err)
		return err
	}

	slog.Debug("Published user notification", "userID", userID)
	return nil
}

func (r *RedisService) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	pubsub := r.client.GetClient().Subscribe(ctx, channels...)
	slog.Debug("Subscribed to channels", "channels", channels)
	return pubsub
}

// =============================================================================
// Rate Limiting
// =============================================================================

// CheckRateLimit records a hit on key and reports whether fewer than limit hits
// were already recorded inside the sliding window.
func (r *RedisService) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window).UnixNano()

	pipe := r.client.GetClient().Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))
	count := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return count.Val() < int64(limit), nil
}

// =============================================================================
// Session Revocation
// =============================================================================

// RevokeToken stores jti until ttl elapses; an already-expired token needs no entry.
func (r *RedisService) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.GetClient().Set(ctx, revokedTokenKey(jti), 1, ttl).Err(); err != nil {
		slog.Error("Failed to revoke token", "jti", jti, "error", err)
		return err
	}
	return nil
}

func (r *RedisService) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.GetClient().Exists(ctx, revokedTokenKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}
