package mongodb

import (
	"context"
	"testing"
	"time"

	"social-service/internal/models"
	"social-service/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const ns = "test.users"

func TestUserRepository_Mock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("FindByID decodes the document", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		id := primitive.NewObjectID()
		friend := primitive.NewObjectID()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "fullName", Value: "Alice Liddell"},
			{Key: "username", Value: "alice"},
			{Key: "email", Value: "alice@x.com"},
			{Key: "password", Value: "hash"},
			{Key: "friends", Value: bson.A{friend}},
		}))

		user, err := repo.FindByID(ctx, id)
		require.NoError(mt, err)
		assert.Equal(mt, id, user.ID)
		assert.Equal(mt, "alice", user.Username)
		assert.Equal(mt, []primitive.ObjectID{friend}, user.Friends)
	})

	mt.Run("FindByID maps no documents to ErrNotFound", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindByID(ctx, primitive.NewObjectID())
		assert.ErrorIs(mt, err, repositories.ErrNotFound)
	})

	mt.Run("Create maps duplicate key errors", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: test.users index: email_1",
		}))

		err := repo.Create(ctx, &models.User{Username: "alice", Email: "alice@x.com"})
		assert.ErrorIs(mt, err, repositories.ErrDuplicateKey)
	})

	mt.Run("Create fills identity and empty relations", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		user := &models.User{Username: "bob", Email: "bob@x.com"}
		require.NoError(mt, repo.Create(ctx, user))
		assert.False(mt, user.ID.IsZero())
		assert.NotNil(mt, user.Friends)
		assert.NotNil(mt, user.FriendRequests)
		assert.False(mt, user.CreatedAt.IsZero())
	})

	mt.Run("AppendFriendRequest succeeds when the condition matches", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := repo.AppendFriendRequest(ctx, primitive.NewObjectID(), models.FriendRequest{
			ID: primitive.NewObjectID(), From: primitive.NewObjectID(),
			Status: models.FriendRequestPending, CreatedAt: time.Now(),
		})
		assert.NoError(mt, err)
	})

	mt.Run("AppendFriendRequest reports a lost race as ErrConditionFailed", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: 1},
				{Key: "n", Value: int32(1)},
			}),
		)

		err := repo.AppendFriendRequest(ctx, primitive.NewObjectID(), models.FriendRequest{
			ID: primitive.NewObjectID(), From: primitive.NewObjectID(), Status: models.FriendRequestPending,
		})
		assert.ErrorIs(mt, err, repositories.ErrConditionFailed)
	})

	mt.Run("AppendFriendRequest reports a missing target as ErrNotFound", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		err := repo.AppendFriendRequest(ctx, primitive.NewObjectID(), models.FriendRequest{
			ID: primitive.NewObjectID(), From: primitive.NewObjectID(), Status: models.FriendRequestPending,
		})
		assert.ErrorIs(mt, err, repositories.ErrNotFound)
	})

	pendingRequest := func() models.FriendRequest {
		return models.FriendRequest{
			ID: primitive.NewObjectID(), From: primitive.NewObjectID(), Status: models.FriendRequestPending,
		}
	}
	matched := func(n int) bson.D {
		return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
	}

	mt.Run("AcceptFriendRequest updates both users in one transaction", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(matched(1), matched(1), mtest.CreateSuccessResponse())

		accepter := primitive.NewObjectID()
		req := pendingRequest()
		require.NoError(mt, repo.AcceptFriendRequest(ctx, accepter, req))

		first := mt.GetStartedEvent()
		require.NotNil(mt, first)
		assert.Equal(mt, "update", first.CommandName)
		assert.True(mt, first.Command.Lookup("startTransaction").Boolean())
		filter := first.Command.Lookup("updates").Array().Index(0).Value().Document().Lookup("q")
		assert.Equal(mt, accepter, filter.Document().Lookup("_id").ObjectID())
		assert.Equal(mt, string(models.FriendRequestPending),
			filter.Document().Lookup("friendRequests", "$elemMatch", "status").StringValue())

		second := mt.GetStartedEvent()
		require.NotNil(mt, second)
		assert.Equal(mt, "update", second.CommandName)

		commit := mt.GetStartedEvent()
		require.NotNil(mt, commit)
		assert.Equal(mt, "commitTransaction", commit.CommandName)
	})

	mt.Run("AcceptFriendRequest reports a processed request as ErrConditionFailed", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(matched(0), mtest.CreateSuccessResponse())

		err := repo.AcceptFriendRequest(ctx, primitive.NewObjectID(), pendingRequest())
		assert.ErrorIs(mt, err, repositories.ErrConditionFailed)

		first := mt.GetStartedEvent()
		require.NotNil(mt, first)
		assert.Equal(mt, "update", first.CommandName)
		abort := mt.GetStartedEvent()
		require.NotNil(mt, abort)
		assert.Equal(mt, "abortTransaction", abort.CommandName)
	})

	mt.Run("AcceptFriendRequest aborts when the sender is gone", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(matched(1), matched(0), mtest.CreateSuccessResponse())

		err := repo.AcceptFriendRequest(ctx, primitive.NewObjectID(), pendingRequest())
		assert.ErrorIs(mt, err, repositories.ErrNotFound)

		var names []string
		for evt := mt.GetStartedEvent(); evt != nil; evt = mt.GetStartedEvent() {
			names = append(names, evt.CommandName)
		}
		assert.Equal(mt, []string{"update", "update", "abortTransaction"}, names)
	})

	mt.Run("Search excludes the requester", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		me := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "username", Value: "alice"}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "username", Value: "malice"}},
		))

		users, err := repo.Search(ctx, me, "ali.ce", 20)
		require.NoError(mt, err)
		assert.Len(mt, users, 2)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "find", evt.CommandName)
		assert.Equal(mt, me, evt.Command.Lookup("filter", "_id", "$ne").ObjectID())
	})

	mt.Run("Recommend decodes ranked documents", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		me, f1, f2 := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
		d := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: d},
			{Key: "fullName", Value: "Dora"},
			{Key: "username", Value: "dora"},
			{Key: "email", Value: "dora@x.com"},
			{Key: "mutualCount", Value: int32(2)},
		}))

		recs, err := repo.Recommend(ctx, me, []primitive.ObjectID{f1, f2}, 5)
		require.NoError(mt, err)
		require.Len(mt, recs, 1)
		assert.Equal(mt, d.Hex(), recs[0].ID)
		assert.Equal(mt, 2, recs[0].MutualCount)
		assert.Equal(mt, "2 mutual friends", recs[0].Reason)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "aggregate", evt.CommandName)
	})

	mt.Run("Recommend without friends skips the query", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)

		recs, err := repo.Recommend(ctx, primitive.NewObjectID(), nil, 5)
		require.NoError(mt, err)
		assert.Empty(mt, recs)
	})
}
