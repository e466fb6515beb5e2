package database

import (
	"context"
	"fmt"
	"log/slog"

	"social-service/internal/repositories/mongodb"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// userIndexes back the uniqueness rules and the friend-request lookups.
func userIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("username_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "friendRequests._id", Value: 1}},
			Options: options.Index().SetName("friend_requests_id"),
		},
		{
			Keys:    bson.D{{Key: "friends", Value: 1}},
			Options: options.Index().SetName("friends"),
		},
	}
}

// Migrate creates the indexes the user store relies on. It is idempotent.
func Migrate(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(mongodb.UsersCollection)
	names, err := coll.Indexes().CreateMany(ctx, userIndexes())
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	slog.Info("User indexes ensured", "indexes", names)
	return nil
}
