package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted" // terminal
)

// FriendRequest is embedded in the recipient's friendRequests array.
type FriendRequest struct {
	ID        primitive.ObjectID  `bson:"_id" json:"id"`
	From      primitive.ObjectID  `bson:"from" json:"from"`
	Status    FriendRequestStatus `bson:"status" json:"status"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
}

// Recommendation is computed per call and never persisted.
type Recommendation struct {
	UserResponse
	MutualCount int    `json:"mutualCount"`
	Reason      string `json:"reason"`
}

/** -------------------- DTOs -------------------- */
type SendFriendRequestInput struct {
	FriendID string `json:"friendId"`
}

type AcceptFriendRequestInput struct {
	RequestID string `json:"requestId"`
}

// PendingRequestResponse is an incoming request with the sender's public profile.
type PendingRequestResponse struct {
	ID        string              `json:"id"`
	From      UserResponse        `json:"from"`
	Status    FriendRequestStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
}

type RecommendationsEnvelope struct {
	Success         bool             `json:"success"`
	Recommendations []Recommendation `json:"recommendations"`
}

type RequestsEnvelope struct {
	Success  bool                     `json:"success"`
	Requests []PendingRequestResponse `json:"requests"`
}

type FriendsEnvelope struct {
	Success bool           `json:"success"`
	Friends []UserResponse `json:"friends"`
}

type FriendRequestEnvelope struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Request FriendRequest `json:"request"`
}
