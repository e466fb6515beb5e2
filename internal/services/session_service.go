package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"social-service/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// RevocationStore remembers revoked token IDs until they would have expired anyway.
type RevocationStore interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

type SessionClaims struct {
	jwt.RegisteredClaims
}

// UserID is the token subject.
func (c *SessionClaims) UserID() string {
	return c.Subject
}

type SessionService struct {
	secret  []byte
	ttl     time.Duration
	revoked RevocationStore
	now     func() time.Time
}

// NewSessionService signs tokens with secret. revoked may be nil, in which case
// logout only clears the cookie.
func NewSessionService(secret string, ttl time.Duration, revoked RevocationStore) *SessionService {
	return &SessionService{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: revoked,
		now:     time.Now,
	}
}

func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Issue signs an HS256 token for the user.
func (s *SessionService) Issue(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature, the algorithm and the expiry. It does not consult
// the revocation store.
func (s *SessionService) Verify(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Revoke denylists the token for the remainder of its lifetime.
func (s *SessionService) Revoke(ctx context.Context, claims *SessionClaims) error {
	if s.revoked == nil || claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	return s.revoked.RevokeToken(ctx, claims.ID, ttl)
}

// IsRevoked fails open when the store is unreachable so a Redis outage does not
// log every user out.
func (s *SessionService) IsRevoked(ctx context.Context, claims *SessionClaims) bool {
	if s.revoked == nil {
		return false
	}
	revoked, err := s.revoked.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		slog.Warn("Revocation check failed", "jti", claims.ID, "error", err)
		return false
	}
	return revoked
}
