// Package friendship holds the friend-request state machine and the
// mutual-friend recommendation ranking. Nothing here touches storage.
package friendship

import (
	"fmt"
	"sort"
	"time"

	"social-service/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxRecommendations is the number of candidates returned per call.
const MaxRecommendations = 5

// ValidateSend checks the request arguments before any lookup happens.
func ValidateSend(requesterID, targetID primitive.ObjectID) error {
	if targetID.IsZero() {
		return models.NewInvalidArgumentError("Friend ID is required")
	}
	if requesterID == targetID {
		return models.NewInvalidArgumentError("You cannot send a friend request to yourself")
	}
	return nil
}

// PlanSend returns the pending request to append to target's record.
// Any earlier request from requester blocks a new one, whatever its status.
func PlanSend(requester, target *models.User, now time.Time) (models.FriendRequest, error) {
	if err := ValidateSend(requester.ID, target.ID); err != nil {
		return models.FriendRequest{}, err
	}
	if target.IsFriend(requester.ID) {
		return models.FriendRequest{}, models.NewConflictError("You are already friends")
	}
	if target.HasRequestFrom(requester.ID) {
		return models.FriendRequest{}, models.NewConflictError("Friend request already sent")
	}
	return models.FriendRequest{
		ID:        primitive.NewObjectIDFromTimestamp(now),
		From:      requester.ID,
		Status:    models.FriendRequestPending,
		CreatedAt: now.UTC(),
	}, nil
}

// PlanAccept finds requestID on the accepter's own record and checks it is still pending.
func PlanAccept(accepter *models.User, requestID primitive.ObjectID) (models.FriendRequest, error) {
	if requestID.IsZero() {
		return models.FriendRequest{}, models.NewInvalidArgumentError("Request ID is required")
	}
	req, ok := accepter.FindRequest(requestID)
	if !ok {
		return models.FriendRequest{}, models.NewNotFoundError("Friend request not found")
	}
	if req.Status != models.FriendRequestPending {
		return models.FriendRequest{}, models.NewConflictError("Friend request already processed")
	}
	return *req, nil
}

// Apply performs an accepted request on in-memory records: the request is marked
// accepted and each user is added to the other's friends set.
func Apply(accepter, sender *models.User, requestID primitive.ObjectID) error {
	req, ok := accepter.FindRequest(requestID)
	if !ok {
		return models.NewNotFoundError("Friend request not found")
	}
	if req.Status != models.FriendRequestPending {
		return models.NewConflictError("Friend request already processed")
	}
	if req.From != sender.ID {
		return models.NewInvalidArgumentError("Friend request sender mismatch")
	}
	req.Status = models.FriendRequestAccepted
	if !accepter.IsFriend(sender.ID) {
		accepter.Friends = append(accepter.Friends, sender.ID)
	}
	if !sender.IsFriend(accepter.ID) {
		sender.Friends = append(sender.Friends, accepter.ID)
	}
	return nil
}

// Reason renders the human-readable explanation for a recommendation.
func Reason(mutual int) string {
	if mutual == 1 {
		return "1 mutual friend"
	}
	return fmt.Sprintf("%d mutual friends", mutual)
}

// Rank scores every candidate that is neither userID nor already in friends by
// the size of the overlap between its friends and friends. Candidates with no
// overlap are dropped. Order is by count descending; equal counts keep the
// order candidates were given in.
func Rank(userID primitive.ObjectID, friends []primitive.ObjectID, candidates []models.User, limit int) []models.Recommendation {
	friendSet := make(map[primitive.ObjectID]struct{}, len(friends))
	for _, f := range friends {
		friendSet[f] = struct{}{}
	}

	recs := make([]models.Recommendation, 0)
	for i := range candidates {
		c := &candidates[i]
		if c.ID == userID {
			continue
		}
		if _, ok := friendSet[c.ID]; ok {
			continue
		}
		mutual := 0
		seen := make(map[primitive.ObjectID]struct{}, len(c.Friends))
		for _, f := range c.Friends {
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			if _, ok := friendSet[f]; ok {
				mutual++
			}
		}
		if mutual == 0 {
			continue
		}
		recs = append(recs, models.Recommendation{
			UserResponse: c.ToResponse(),
			MutualCount:  mutual,
			Reason:       Reason(mutual),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].MutualCount > recs[j].MutualCount
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}
