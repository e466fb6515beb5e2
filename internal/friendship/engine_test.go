package friendship

import (
	"testing"
	"time"

	"social-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newUser(username string) *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		Username: username,
		FullName: username,
		Email:    username + "@x.com",
	}
}

func befriend(a, b *models.User) {
	a.Friends = append(a.Friends, b.ID)
	b.Friends = append(b.Friends, a.ID)
}

func TestValidateSend(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	assert.NoError(t, ValidateSend(a, b))
	assert.Equal(t, models.KindInvalidArgument, models.KindOf(ValidateSend(a, primitive.NilObjectID)))
	assert.Equal(t, models.KindInvalidArgument, models.KindOf(ValidateSend(a, a)))
}

func TestPlanSend(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("creates pending request from requester", func(t *testing.T) {
		alice, bob := newUser("alice"), newUser("bob")

		req, err := PlanSend(alice, bob, now)
		require.NoError(t, err)
		assert.False(t, req.ID.IsZero())
		assert.Equal(t, alice.ID, req.From)
		assert.Equal(t, models.FriendRequestPending, req.Status)
		assert.Equal(t, now, req.CreatedAt)
		assert.Empty(t, bob.FriendRequests, "planning must not mutate the target")
	})

	t.Run("self request is invalid", func(t *testing.T) {
		alice := newUser("alice")
		_, err := PlanSend(alice, alice, now)
		assert.Equal(t, models.KindInvalidArgument, models.KindOf(err))
	})

	t.Run("already friends", func(t *testing.T) {
		alice, bob := newUser("alice"), newUser("bob")
		befriend(alice, bob)

		_, err := PlanSend(alice, bob, now)
		assert.Equal(t, models.KindConflict, models.KindOf(err))
	})

	t.Run("duplicate pending request", func(t *testing.T) {
		alice, bob := newUser("alice"), newUser("bob")
		req, err := PlanSend(alice, bob, now)
		require.NoError(t, err)
		bob.FriendRequests = append(bob.FriendRequests, req)

		_, err = PlanSend(alice, bob, now)
		assert.Equal(t, models.KindConflict, models.KindOf(err))
	})

	t.Run("accepted request still blocks a new one", func(t *testing.T) {
		alice, bob := newUser("alice"), newUser("bob")
		bob.FriendRequests = append(bob.FriendRequests, models.FriendRequest{
			ID: primitive.NewObjectID(), From: alice.ID, Status: models.FriendRequestAccepted,
		})

		_, err := PlanSend(alice, bob, now)
		assert.Equal(t, models.KindConflict, models.KindOf(err))
	})

	t.Run("request in the other direction does not block", func(t *testing.T) {
		alice, bob := newUser("alice"), newUser("bob")
		alice.FriendRequests = append(alice.FriendRequests, models.FriendRequest{
			ID: primitive.NewObjectID(), From: bob.ID, Status: models.FriendRequestPending,
		})

		_, err := PlanSend(alice, bob, now)
		assert.NoError(t, err)
	})
}

func TestPlanAccept(t *testing.T) {
	alice, bob := newUser("alice"), newUser("bob")
	pending := models.FriendRequest{ID: primitive.NewObjectID(), From: alice.ID, Status: models.FriendRequestPending}
	done := models.FriendRequest{ID: primitive.NewObjectID(), From: newUser("carol").ID, Status: models.FriendRequestAccepted}
	bob.FriendRequests = []models.FriendRequest{pending, done}

	got, err := PlanAccept(bob, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, pending, got)

	_, err = PlanAccept(bob, done.ID)
	assert.Equal(t, models.KindConflict, models.KindOf(err))

	_, err = PlanAccept(bob, primitive.NewObjectID())
	assert.Equal(t, models.KindNotFound, models.KindOf(err))

	// A request addressed to someone else is not visible to alice.
	_, err = PlanAccept(alice, pending.ID)
	assert.Equal(t, models.KindNotFound, models.KindOf(err))

	_, err = PlanAccept(bob, primitive.NilObjectID)
	assert.Equal(t, models.KindInvalidArgument, models.KindOf(err))
}

func TestApply_IsSymmetricAndTerminal(t *testing.T) {
	alice, bob := newUser("alice"), newUser("bob")
	req, err := PlanSend(alice, bob, time.Now())
	require.NoError(t, err)
	bob.FriendRequests = append(bob.FriendRequests, req)

	require.NoError(t, Apply(bob, alice, req.ID))

	assert.True(t, alice.IsFriend(bob.ID))
	assert.True(t, bob.IsFriend(alice.ID))
	assert.Equal(t, models.FriendRequestAccepted, bob.FriendRequests[0].Status)

	err = Apply(bob, alice, req.ID)
	assert.Equal(t, models.KindConflict, models.KindOf(err))
	assert.Equal(t, models.FriendRequestAccepted, bob.FriendRequests[0].Status)
	assert.Len(t, alice.Friends, 1)
	assert.Len(t, bob.Friends, 1)
}

func TestApply_SenderMismatch(t *testing.T) {
	alice, bob, carol := newUser("alice"), newUser("bob"), newUser("carol")
	req, err := PlanSend(alice, bob, time.Now())
	require.NoError(t, err)
	bob.FriendRequests = append(bob.FriendRequests, req)

	err = Apply(bob, carol, req.ID)
	assert.Equal(t, models.KindInvalidArgument, models.KindOf(err))
	assert.Empty(t, bob.Friends)
}

func TestReason(t *testing.T) {
	assert.Equal(t, "1 mutual friend", Reason(1))
	assert.Equal(t, "2 mutual friends", Reason(2))
	assert.Equal(t, "10 mutual friends", Reason(10))
}

func TestRank(t *testing.T) {
	// A is friends with B and C; D is friends with B, C and E; E is friends with D and B.
	a, b, c, d, e := newUser("a"), newUser("b"), newUser("c"), newUser("d"), newUser("e")
	befriend(a, b)
	befriend(a, c)
	befriend(d, b)
	befriend(d, c)
	befriend(d, e)
	befriend(e, b)

	all := []models.User{*a, *b, *c, *d, *e}
	recs := Rank(a.ID, a.Friends, all, MaxRecommendations)

	require.Len(t, recs, 2)
	assert.Equal(t, d.Username, recs[0].Username)
	assert.Equal(t, 2, recs[0].MutualCount)
	assert.Equal(t, "2 mutual friends", recs[0].Reason)
	assert.Equal(t, e.Username, recs[1].Username)
	assert.Equal(t, 1, recs[1].MutualCount)
	assert.Equal(t, "1 mutual friend", recs[1].Reason)

	for _, r := range recs {
		assert.NotEqual(t, a.ID.Hex(), r.ID, "requester is never recommended")
		assert.NotEqual(t, b.ID.Hex(), r.ID, "existing friends are never recommended")
		assert.NotEqual(t, c.ID.Hex(), r.ID, "existing friends are never recommended")
	}
}

func TestRank_TiesKeepInputOrderAndLimit(t *testing.T) {
	me, hub := newUser("me"), newUser("hub")
	befriend(me, hub)

	candidates := []models.User{*me, *hub}
	var order []string
	for _, name := range []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7"} {
		u := newUser(name)
		u.Friends = []primitive.ObjectID{hub.ID}
		candidates = append(candidates, *u)
		order = append(order, name)
	}

	recs := Rank(me.ID, me.Friends, candidates, MaxRecommendations)

	require.Len(t, recs, MaxRecommendations)
	for i, r := range recs {
		assert.Equal(t, order[i], r.Username)
		assert.Equal(t, 1, r.MutualCount)
	}
}

func TestRank_NoFriendsMeansNoRecommendations(t *testing.T) {
	me, other := newUser("me"), newUser("other")
	other.Friends = []primitive.ObjectID{primitive.NewObjectID()}

	assert.Empty(t, Rank(me.ID, nil, []models.User{*me, *other}, MaxRecommendations))
}
