package presence

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusAway    PresenceStatus = "away"
	StatusOffline PresenceStatus = "offline"
)

func (s PresenceStatus) Valid() bool {
	switch s {
	case StatusOnline, StatusAway, StatusOffline:
		return true
	}
	return false
}

// PresenceEvent is one entry in an actor's append-only feed. Only the
// emitting actor may append to their own stream; the feed is never edited in
// place.
type PresenceEvent struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Actor        primitive.ObjectID `json:"actor" bson:"actor"`
	Organization primitive.ObjectID `json:"organization" bson:"organization"`
	Session      string             `json:"session" bson:"session"`
	Status       PresenceStatus     `json:"status" bson:"status"`
	At           time.Time          `json:"at" bson:"at"`
}

// StatusUpdate is what subscribers receive on each append.
type StatusUpdate struct {
	Actor  primitive.ObjectID `json:"actor"`
	Status PresenceStatus     `json:"status"`
}
