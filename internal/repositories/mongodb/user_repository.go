package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"social-service/internal/friendship"
	"social-service/internal/models"
	"social-service/internal/repositories"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const UsersCollection = "users"

// publicProjection strips fields that never leave the service.
var publicProjection = bson.M{"password": 0, "friendRequests": 0}

type UserRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

var _ repositories.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{db: db, coll: db.Collection(UsersCollection)}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Friends == nil {
		user.Friends = []primitive.ObjectID{}
	}
	if user.FriendRequests == nil {
		user.FriendRequests = []models.FriendRequest{}
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user %s: %w", user.Username, repositories.ErrDuplicateKey)
		}
		slog.Error("Failed to insert user", "username", user.Username, "error", err)
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, filter, opts...).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"username": username},
	}})
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	opts := options.Find().SetProjection(publicProjection).SetSort(bson.D{{Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
}

func (r *UserRepository) Search(ctx context.Context, excludeID primitive.ObjectID, query string, limit int) ([]models.User, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{
		"_id": bson.M{"$ne": excludeID},
		"$or": bson.A{
			bson.M{"username": pattern},
			bson.M{"email": pattern},
			bson.M{"fullName": pattern},
		},
	}
	opts := options.Find().SetProjection(publicProjection).SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, filter, opts)
}

func (r *UserRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.User, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// AppendFriendRequest is a compare-and-swap: the filter re-checks the duplicate
// and already-friends conditions so two concurrent sends cannot both push.
func (r *UserRepository) AppendFriendRequest(ctx context.Context, targetID primitive.ObjectID, req models.FriendRequest) error {
	filter := bson.M{
		"_id":                 targetID,
		"friends":             bson.M{"$ne": req.From},
		"friendRequests.from": bson.M{"$ne": req.From},
	}
	update := bson.M{
		"$push": bson.M{"friendRequests": req},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		slog.Error("Failed to append friend request", "target", targetID.Hex(), "from", req.From.Hex(), "error", err)
		return fmt.Errorf("failed to append friend request: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missingOrConflict(ctx, targetID)
	}
	return nil
}

func (r *UserRepository) missingOrConflict(ctx context.Context, id primitive.ObjectID) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("failed to check user existence: %w", err)
	}
	if n == 0 {
		return repositories.ErrNotFound
	}
	return repositories.ErrConditionFailed
}

// AcceptFriendRequest updates both users inside one transaction. The deployment
// must be a replica set (or sharded cluster) for transactions to be available.
func (r *UserRepository) AcceptFriendRequest(ctx context.Context, accepterID primitive.ObjectID, req models.FriendRequest) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, r.acceptInSession(sc, accepterID, req)
	}, txnOpts)
	if err != nil {
		if errors.Is(err, repositories.ErrConditionFailed) || errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		slog.Error("Accept friend request transaction failed",
			"accepter", accepterID.Hex(), "request", req.ID.Hex(), "error", err)
		return fmt.Errorf("failed to accept friend request: %w", err)
	}
	return nil
}

func (r *UserRepository) acceptInSession(ctx mongo.SessionContext, accepterID primitive.ObjectID, req models.FriendRequest) error {
	now := time.Now().UTC()

	accepterFilter := bson.M{
		"_id": accepterID,
		"friendRequests": bson.M{"$elemMatch": bson.M{
			"_id":    req.ID,
			"from":   req.From,
			"status": models.FriendRequestPending,
		}},
	}
	accepterUpdate := bson.M{
		"$set": bson.M{
			"friendRequests.$.status": models.FriendRequestAccepted,
			"updatedAt":               now,
		},
		"$addToSet": bson.M{"friends": req.From},
	}
	res, err := r.coll.UpdateOne(ctx, accepterFilter, accepterUpdate)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrConditionFailed
	}

	res, err = r.coll.UpdateOne(ctx,
		bson.M{"_id": req.From},
		bson.M{
			"$addToSet": bson.M{"friends": accepterID},
			"$set":      bson.M{"updatedAt": now},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

type recommendationDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	FullName    string             `bson:"fullName"`
	Username    string             `bson:"username"`
	Email       string             `bson:"email"`
	Avatar      string             `bson:"avatar"`
	MutualCount int                `bson:"mutualCount"`
}

// Recommend ranks non-friends by mutual friend count inside the database.
// Equal counts fall back to _id order, which follows insertion order.
func (r *UserRepository) Recommend(ctx context.Context, userID primitive.ObjectID, friends []primitive.ObjectID, limit int) ([]models.Recommendation, error) {
	if len(friends) == 0 {
		return []models.Recommendation{}, nil
	}
	excluded := append([]primitive.ObjectID{userID}, friends...)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": bson.M{"$nin": excluded}}}},
		{{Key: "$project", Value: bson.M{
			"fullName": 1,
			"username": 1,
			"email":    1,
			"avatar":   1,
			"mutualCount": bson.M{"$size": bson.M{"$setIntersection": bson.A{
				bson.M{"$ifNull": bson.A{"$friends", bson.A{}}},
				friends,
			}}},
		}}},
		{{Key: "$match", Value: bson.M{"mutualCount": bson.M{"$gt": 0}}}},
		{{Key: "$sort", Value: bson.D{{Key: "mutualCount", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate recommendations: %w", err)
	}
	var docs []recommendationDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode recommendations: %w", err)
	}

	recs := make([]models.Recommendation, len(docs))
	for i, d := range docs {
		recs[i] = models.Recommendation{
			UserResponse: models.UserResponse{
				ID:       d.ID.Hex(),
				FullName: d.FullName,
				Username: d.Username,
				Email:    d.Email,
				Avatar:   d.Avatar,
			},
			MutualCount: d.MutualCount,
			Reason:      friendship.Reason(d.MutualCount),
		}
	}
	return recs, nil
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id primitive.ObjectID, url string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"avatar": url, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, readpref.Primary())
}
