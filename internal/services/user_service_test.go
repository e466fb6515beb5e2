package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"social-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.users.Register(ctx, &models.RegisterRequest{
		FullName: "Alice Liddell",
		Username: "alice",
		Email:    "  Alice@Example.com ",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", resp.Email)
	assert.NotEmpty(t, resp.ID)

	stored, err := f.repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.Password)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")

	tests := []struct {
		name    string
		req     models.RegisterRequest
		kind    models.ErrorKind
		message string
	}{
		{
			name:    "missing full name",
			req:     models.RegisterRequest{Username: "x", Email: "x@example.com", Password: "p"},
			kind:    models.KindInvalidArgument,
			message: "Please provide all required fields",
		},
		{
			name:    "blank username",
			req:     models.RegisterRequest{FullName: "X", Username: "  ", Email: "x@example.com", Password: "p"},
			kind:    models.KindInvalidArgument,
			message: "Please provide all required fields",
		},
		{
			name:    "duplicate email",
			req:     models.RegisterRequest{FullName: "X", Username: "other", Email: "ALICE@example.com", Password: "p"},
			kind:    models.KindConflict,
			message: "Email already registered",
		},
		{
			name:    "duplicate username",
			req:     models.RegisterRequest{FullName: "X", Username: "alice", Email: "new@example.com", Password: "p"},
			kind:    models.KindConflict,
			message: "Username already taken",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.Register(context.Background(), &tt.req)
			var appErr *models.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.kind, appErr.Kind)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	ctx := context.Background()

	res, err := f.users.Login(ctx, &models.LoginRequest{Email: "ALICE@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID.Hex(), res.User.ID)

	claims, err := f.sessions.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID.Hex(), claims.UserID())

	_, err = f.users.Login(ctx, &models.LoginRequest{Email: "alice@example.com", Password: "wrong"})
	assert.Equal(t, models.KindUnauthorized, models.KindOf(err))

	_, err = f.users.Login(ctx, &models.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.Equal(t, models.KindUnauthorized, models.KindOf(err))

	_, err = f.users.Login(ctx, &models.LoginRequest{Email: "alice@example.com"})
	assert.Equal(t, models.KindInvalidArgument, models.KindOf(err))
}

func TestGetProfile(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")

	resp, err := f.users.GetProfile(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Username)

	_, err = f.users.GetProfile(context.Background(), primitive.NewObjectID())
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	f.register(t, "alicia")
	f.register(t, "bob")
	ctx := context.Background()

	t.Run("never includes the requester", func(t *testing.T) {
		got, err := f.users.Search(ctx, alice.ID, "ALI")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "alicia", got[0].Username)
	})

	t.Run("matches email", func(t *testing.T) {
		got, err := f.users.Search(ctx, alice.ID, "bob@example")
		require.NoError(t, err)
		require.Len(t, got, 1)
	})

	t.Run("regex metacharacters are literal", func(t *testing.T) {
		got, err := f.users.Search(ctx, alice.ID, ".*")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("no match is an empty list", func(t *testing.T) {
		got, err := f.users.Search(ctx, alice.ID, "zzz")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("empty query", func(t *testing.T) {
		_, err := f.users.Search(ctx, alice.ID, "   ")
		assert.Equal(t, models.KindInvalidArgument, models.KindOf(err))
	})
}

func TestSearch_CapsResults(t *testing.T) {
	f := newFixture(t)
	me := f.register(t, "me")
	ctx := context.Background()
	for i := 0; i < SearchLimit+5; i++ {
		name := fmt.Sprintf("fan%02d", i)
		require.NoError(t, f.repo.Create(ctx, &models.User{
			FullName: name, Username: name, Email: name + "@example.com", Password: "x",
		}))
	}

	got, err := f.users.Search(ctx, me.ID, "fan")
	require.NoError(t, err)
	require.Len(t, got, SearchLimit)
	assert.Equal(t, "fan00", got[0].Username)
}

type stubUploader struct {
	url  string
	err  error
	body []byte
}

func (s *stubUploader) Upload(_ context.Context, _ string, r io.Reader, _ int64, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	b, err := io.ReadAll(r)
	s.body = b
	return s.url, err
}

func TestUpdateAvatar(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	ctx := context.Background()

	_, err := f.users.UpdateAvatar(ctx, alice.ID, bytes.NewReader(nil), 0, "image/png")
	assert.Equal(t, models.KindUnavailable, models.KindOf(err))

	up := &stubUploader{url: "http://minio/avatars/a.png"}
	svc := NewUserService(f.repo, f.sessions, up)
	resp, err := svc.UpdateAvatar(ctx, alice.ID, bytes.NewReader([]byte("png")), 3, "image/png")
	require.NoError(t, err)
	assert.Equal(t, up.url, resp.Avatar)
	assert.Equal(t, []byte("png"), up.body)

	failing := NewUserService(f.repo, f.sessions, &stubUploader{err: errors.New("bucket gone")})
	_, err = failing.UpdateAvatar(ctx, alice.ID, bytes.NewReader(nil), 0, "image/png")
	assert.Equal(t, models.KindInternal, models.KindOf(err))
}
