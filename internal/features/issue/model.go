package issue

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status values mirror the board columns. Order matters for grouping.
type Status string

const (
	StatusBacklog         Status = "backlog"
	StatusToDo            Status = "to-do"
	StatusInProgress      Status = "in-progress"
	StatusTechnicalReview Status = "technical-review"
	StatusCompleted       Status = "completed"
	StatusPaused          Status = "paused"
	StatusArchived        Status = "archived"
)

// AllStatuses is the board order used when partitioning issues.
var AllStatuses = []Status{
	StatusBacklog,
	StatusToDo,
	StatusInProgress,
	StatusTechnicalReview,
	StatusCompleted,
	StatusPaused,
	StatusArchived,
}

func (s Status) Valid() bool {
	switch s {
	case StatusBacklog, StatusToDo, StatusInProgress, StatusTechnicalReview,
		StatusCompleted, StatusPaused, StatusArchived:
		return true
	}
	return false
}

type Priority string

const (
	PriorityNone   Priority = "no-priority"
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

var (
	// ErrCyclicIssue rejects a re-parent that would make an issue its own
	// ancestor.
	ErrCyclicIssue = errors.New("issue may not be its own ancestor")

	// ErrAssigneeNotMember rejects assignment to a user outside the issue's
	// owning group and its extension chain.
	ErrAssigneeNotMember = errors.New("assignee is not a member of the issue's group")
)

type Attachment struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	URL         string             `json:"url" bson:"url"`
	ContentType string             `json:"content_type" bson:"content_type"`
	UploadedBy  primitive.ObjectID `json:"uploaded_by" bson:"uploaded_by"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

// Issue carries its human identifier ("ACM-1", sub-issues "ACM-1-1").
// Parent and child references are stored as ids, never live pointers, so
// cycles are checked at write time and trees rebuilt by lookup.
type Issue struct {
	ID                 primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Identifier         string               `json:"identifier" bson:"identifier"`
	Title              string               `json:"title" bson:"title"`
	Description        string               `json:"description" bson:"description"`
	Status             Status               `json:"status" bson:"status"`
	Priority           Priority             `json:"priority" bson:"priority"`
	Assignee           *primitive.ObjectID  `json:"assignee,omitempty" bson:"assignee,omitempty"`
	Team               primitive.ObjectID   `json:"team" bson:"team"`
	ParentOrganization primitive.ObjectID   `json:"parent_organization" bson:"parent_organization"`
	ParentIssue        *primitive.ObjectID  `json:"parent_issue,omitempty" bson:"parent_issue,omitempty"`
	ChildIssues        []primitive.ObjectID `json:"child_issues" bson:"child_issues"`
	Labels             []primitive.ObjectID `json:"labels" bson:"labels"`
	Attachments        []Attachment         `json:"attachments" bson:"attachments"`
	// Reactions maps a reaction kind to the distinct actors holding it.
	Reactions map[string][]primitive.ObjectID `json:"reactions" bson:"reactions"`
	Estimate           int                  `json:"estimate" bson:"estimate"`
	DueDate            *time.Time           `json:"due_date,omitempty" bson:"due_date,omitempty"`
	Deleted            bool                 `json:"deleted" bson:"deleted"`
	CreatedBy          primitive.ObjectID   `json:"created_by" bson:"created_by"`
	CreatedAt          time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at" bson:"updated_at"`
}
