package services

import (
	"context"
	"testing"
	"time"

	"social-service/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSessionService_IssueAndVerify(t *testing.T) {
	svc := NewSessionService(testSecret, 15*24*time.Hour, nil)
	user := &models.User{ID: primitive.NewObjectID()}

	token, expiresAt, err := svc.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*24*time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID())
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, 15*24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestSessionService_TokensAreUnique(t *testing.T) {
	svc := NewSessionService(testSecret, time.Hour, nil)
	user := &models.User{ID: primitive.NewObjectID()}

	a, _, err := svc.Issue(user)
	require.NoError(t, err)
	b, _, err := svc.Issue(user)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSessionService_VerifyRejects(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID()}
	svc := NewSessionService(testSecret, time.Hour, nil)

	t.Run("wrong secret", func(t *testing.T) {
		token, _, err := NewSessionService("other", time.Hour, nil).Issue(user)
		require.NoError(t, err)
		_, err = svc.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := NewSessionService(testSecret, time.Hour, nil)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, _, err := past.Issue(user)
		require.NoError(t, err)
		_, err = svc.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS384, jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ID:        "jti",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		signed, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = svc.Verify(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ID:        "jti",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		signed, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = svc.Verify(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Verify("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestSessionService_Revocation(t *testing.T) {
	rs, mr := newTestRedis(t)
	svc := NewSessionService(testSecret, time.Hour, rs)
	ctx := context.Background()

	token, _, err := svc.Issue(&models.User{ID: primitive.NewObjectID()})
	require.NoError(t, err)
	claims, err := svc.Verify(token)
	require.NoError(t, err)

	assert.False(t, svc.IsRevoked(ctx, claims))
	require.NoError(t, svc.Revoke(ctx, claims))
	assert.True(t, svc.IsRevoked(ctx, claims))

	ttl := mr.TTL(revokedTokenKey(claims.ID))
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)

	mr.FastForward(time.Hour + time.Second)
	assert.False(t, svc.IsRevoked(ctx, claims))
}

func TestSessionService_RevocationFailsOpen(t *testing.T) {
	rs, mr := newTestRedis(t)
	svc := NewSessionService(testSecret, time.Hour, rs)

	token, _, err := svc.Issue(&models.User{ID: primitive.NewObjectID()})
	require.NoError(t, err)
	claims, err := svc.Verify(token)
	require.NoError(t, err)

	mr.Close()
	assert.False(t, svc.IsRevoked(context.Background(), claims))
}

func TestSessionService_NoStore(t *testing.T) {
	svc := NewSessionService(testSecret, time.Hour, nil)
	token, _, err := svc.Issue(&models.User{ID: primitive.NewObjectID()})
	require.NoError(t, err)
	claims, err := svc.Verify(token)
	require.NoError(t, err)

	assert.NoError(t, svc.Revoke(context.Background(), claims))
	assert.False(t, svc.IsRevoked(context.Background(), claims))
}
