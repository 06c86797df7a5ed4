package comment

import (
	"time"

	"github.com/garden-co/locality/internal/features/issue"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReactionKind string

const (
	ReactionThumbUp   ReactionKind = "thumb-up"
	ReactionThumbDown ReactionKind = "thumb-down"
	ReactionLaugh     ReactionKind = "laugh"
	ReactionHeart     ReactionKind = "heart"
	ReactionSad       ReactionKind = "sad"
	ReactionAngry     ReactionKind = "angry"
	ReactionSurprised ReactionKind = "surprised"
	ReactionThinking  ReactionKind = "thinking"
	ReactionWink      ReactionKind = "wink"
	ReactionClap      ReactionKind = "clap"
	ReactionFire      ReactionKind = "fire"
	ReactionFireworks ReactionKind = "fireworks"
	ReactionParty     ReactionKind = "party"
)

var reactionKinds = map[ReactionKind]struct{}{
	ReactionThumbUp: {}, ReactionThumbDown: {}, ReactionLaugh: {},
	ReactionHeart: {}, ReactionSad: {}, ReactionAngry: {},
	ReactionSurprised: {}, ReactionThinking: {}, ReactionWink: {},
	ReactionClap: {}, ReactionFire: {}, ReactionFireworks: {},
	ReactionParty: {},
}

func (k ReactionKind) Valid() bool {
	_, ok := reactionKinds[k]
	return ok
}

type Comment struct {
	ID            primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Content       string              `json:"content" bson:"content"`
	ParentIssue   primitive.ObjectID  `json:"parent_issue" bson:"parent_issue"`
	ParentComment *primitive.ObjectID `json:"parent_comment,omitempty" bson:"parent_comment,omitempty"`
	// Reactions maps a reaction kind to the distinct actors holding it, so
	// per-kind counts are always distinct-actor counts.
	Reactions   map[string][]primitive.ObjectID `json:"reactions" bson:"reactions"`
	Attachments []issue.Attachment              `json:"attachments" bson:"attachments"`
	Deleted     bool                            `json:"deleted" bson:"deleted"`
	CreatedBy   primitive.ObjectID              `json:"created_by" bson:"created_by"`
	CreatedAt   time.Time                       `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time                       `json:"updated_at" bson:"updated_at"`
}

// Node is a comment with its replies resolved, children ordered by creation
// time.
type Node struct {
	Comment  Comment `json:"comment"`
	Children []*Node `json:"children"`
}
