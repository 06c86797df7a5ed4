package organization

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization is the top of the sharing hierarchy. Its owning group is
// extended by every team group underneath it.
type Organization struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name       string             `json:"name" bson:"name"`
	Slug       string             `json:"slug" bson:"slug"`
	OwnerGroup primitive.ObjectID `json:"owner_group" bson:"owner_group"`
	Deleted    bool               `json:"deleted" bson:"deleted"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

// Label is listed per organization and referenced (not owned) by issues.
type Label struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Color        string             `json:"color" bson:"color"`
	Organization primitive.ObjectID `json:"organization" bson:"organization"`
	Deleted      bool               `json:"deleted" bson:"deleted"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}

// Default labels seeded into every new organization.
var defaultLabels = []struct {
	Name  string
	Color string
}{
	{"Bug", "#f97316"},
	{"Feature", "#0ea5e9"},
	{"Documentation", "#8b5cf6"},
	{"Question", "#ec4899"},
}
