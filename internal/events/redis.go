package events

import "context"

// Notifier delivers a payload to a single user's notification channel.
type Notifier interface {
	PublishUserNotification(ctx context.Context, userID string, notification interface{}) error
}

// RedisPublisher fans events out over Redis pub/sub, one channel per recipient.
type RedisPublisher struct {
	notifier Notifier
}

func NewRedisPublisher(n Notifier) *RedisPublisher {
	return &RedisPublisher{notifier: n}
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	return p.notifier.PublishUserNotification(ctx, event.UserID, event)
}

func (p *RedisPublisher) Close() error {
	return nil
}
