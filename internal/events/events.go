// Package events carries friend-graph notifications out of the request path.
package events

import (
	"context"
	"encoding/json"
	"time"
)

const (
	TypeFriendRequestSent     = "friend.request.sent"
	TypeFriendRequestAccepted = "friend.request.accepted"
)

// Event is addressed to UserID; ActorID is the user whose action produced it.
type Event struct {
	Type      string    `json:"type"`
	UserID    string    `json:"userId"`
	ActorID   string    `json:"actorId"`
	RequestID string    `json:"requestId"`
	At        time.Time `json:"at"`
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

func Decode(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }
