package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

/** --------------------ENTITIES-------------------- */
// User is the document stored in the users collection.
// Friends is symmetric: it is only ever changed together with the other user's list.
type User struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	FullName       string               `bson:"fullName" json:"fullName"`
	Username       string               `bson:"username" json:"username"`
	Email          string               `bson:"email" json:"email"`
	Password       string               `bson:"password" json:"-"` // bcrypt hash
	Avatar         string               `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Friends        []primitive.ObjectID `bson:"friends" json:"friends"`
	FriendRequests []FriendRequest      `bson:"friendRequests" json:"friendRequests"`
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// IsFriend reports whether id is in the user's friends set.
func (u *User) IsFriend(id primitive.ObjectID) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// HasRequestFrom reports whether any request from sender exists, whatever its status.
func (u *User) HasRequestFrom(sender primitive.ObjectID) bool {
	for _, r := range u.FriendRequests {
		if r.From == sender {
			return true
		}
	}
	return false
}

// FindRequest looks up an incoming request by its id.
func (u *User) FindRequest(id primitive.ObjectID) (*FriendRequest, bool) {
	for i := range u.FriendRequests {
		if u.FriendRequests[i].ID == id {
			return &u.FriendRequests[i], true
		}
	}
	return nil, false
}

// PendingRequests returns incoming requests that have not been accepted yet.
func (u *User) PendingRequests() []FriendRequest {
	pending := make([]FriendRequest, 0, len(u.FriendRequests))
	for _, r := range u.FriendRequests {
		if r.Status == FriendRequestPending {
			pending = append(pending, r)
		}
	}
	return pending
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:       u.ID.Hex(),
		FullName: u.FullName,
		Username: u.Username,
		Email:    u.Email,
		Avatar:   u.Avatar,
	}
}

/** -------------------- DTOs -------------------- */
// Request
type RegisterRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Response
type UserResponse struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
}

// LoginResult is what a successful login hands back to the transport layer.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      UserResponse
}

// UserEnvelope
// swagger:model
type UserEnvelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
	Token   string       `json:"token,omitempty"`
}

type UsersEnvelope struct {
	Success bool           `json:"success"`
	Users   []UserResponse `json:"users"`
}

func ToUserResponses(users []User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = users[i].ToResponse()
	}
	return out
}
