package team

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Team lives under an organization. Its owning group extends the
// organization's group, so organization members automatically satisfy
// team-level checks; the entities remain independently owned.
type Team struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Slug         string             `json:"slug" bson:"slug"`
	Icon         string             `json:"icon" bson:"icon"`
	Color        string             `json:"color" bson:"color"`
	OwnerGroup   primitive.ObjectID `json:"owner_group" bson:"owner_group"`
	Organization primitive.ObjectID `json:"organization" bson:"organization"`
	Deleted      bool               `json:"deleted" bson:"deleted"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

const (
	defaultIcon  = "\U0001F465"
	defaultColor = "#0ea5e9"
)
