package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"social-service/internal/config"
	"social-service/internal/database"
	"social-service/internal/events"
	"social-service/internal/models"
	"social-service/internal/repositories/memory"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestRedis(t *testing.T) (*RedisService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := database.NewRedisConnection(&config.RedisConfig{
		URL:         "redis://" + mr.Addr(),
		DialTimeout: time.Second,
		MaxRetries:  -1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	return NewRedisService(rc), mr
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

type fixture struct {
	repo     *memory.UserRepository
	sessions *SessionService
	users    *UserService
	friends  *FriendService
	events   *capturePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := memory.NewUserRepository()
	sessions := NewSessionService(testSecret, time.Hour, nil)
	pub := &capturePublisher{}
	return &fixture{
		repo:     repo,
		sessions: sessions,
		users:    NewUserService(repo, sessions, nil),
		friends:  NewFriendService(repo, pub),
		events:   pub,
	}
}

// register creates a user with a lowercase username and email derived from name.
func (f *fixture) register(t *testing.T, name string) *models.User {
	t.Helper()
	ctx := context.Background()
	_, err := f.users.Register(ctx, &models.RegisterRequest{
		FullName: name,
		Username: name,
		Email:    name + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	u, err := f.repo.FindByEmail(ctx, name+"@example.com")
	require.NoError(t, err)
	return u
}

// befriend runs the full send/accept workflow between two users.
func (f *fixture) befriend(t *testing.T, a, b *models.User) {
	t.Helper()
	ctx := context.Background()
	req, err := f.friends.SendFriendRequest(ctx, a.ID, b.ID.Hex())
	require.NoError(t, err)
	require.NoError(t, f.friends.AcceptFriendRequest(ctx, b.ID, req.ID.Hex()))
}
