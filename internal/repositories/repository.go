// Package repositories defines the user store contract shared by the MongoDB
// and in-memory implementations.
package repositories

import (
	"context"
	"errors"

	"social-service/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrConditionFailed means a conditional update matched nothing because the
	// document changed between the read and the write.
	ErrConditionFailed = errors.New("update condition not met")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	// Search matches query case-insensitively against username, email and full name.
	Search(ctx context.Context, excludeID primitive.ObjectID, query string, limit int) ([]models.User, error)
	// AppendFriendRequest pushes req onto the target's requests only if the sender is
	// not already a friend and has no request there yet.
	AppendFriendRequest(ctx context.Context, targetID primitive.ObjectID, req models.FriendRequest) error
	// AcceptFriendRequest marks req accepted on the accepter and links both users
	// as friends in a single atomic step.
	AcceptFriendRequest(ctx context.Context, accepterID primitive.ObjectID, req models.FriendRequest) error
	Recommend(ctx context.Context, userID primitive.ObjectID, friends []primitive.ObjectID, limit int) ([]models.Recommendation, error)
	UpdateAvatar(ctx context.Context, id primitive.ObjectID, url string) error
	Ping(ctx context.Context) error
}
