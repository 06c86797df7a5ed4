package issue

import (
	"context"
	"fmt"
	"time"

	"github.com/garden-co/locality/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const collection = "issues"

type IssueRepository interface {
	Create(ctx context.Context, issue *Issue) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Issue, error)
	FindByTeam(ctx context.Context, teamID primitive.ObjectID) ([]Issue, error)
	FindByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]Issue, error)
	Save(ctx context.Context, issue *Issue) error

	// NextSequence hands out the next identifier number under the given
	// scope (an organization for top-level issues, a parent issue for
	// sub-issues). Concurrent creators never receive the same value.
	NextSequence(ctx context.Context, scope primitive.ObjectID) (int64, error)
}

type IssueRepositoryImpl struct {
	store store.Store
}

func NewIssueRepository(st store.Store) IssueRepository {
	return &IssueRepositoryImpl{store: st}
}

func (r *IssueRepositoryImpl) Create(ctx context.Context, issue *Issue) error {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	if issue.ChildIssues == nil {
		issue.ChildIssues = []primitive.ObjectID{}
	}
	if issue.Labels == nil {
		issue.Labels = []primitive.ObjectID{}
	}
	if issue.Attachments == nil {
		issue.Attachments = []Attachment{}
	}
	if issue.Reactions == nil {
		issue.Reactions = map[string][]primitive.ObjectID{}
	}
	issue.CreatedAt = time.Now()
	issue.UpdatedAt = issue.CreatedAt
	return r.store.Create(ctx, collection, issue.ID, issue)
}

func (r *IssueRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Issue, error) {
	var issue Issue
	if err := r.store.Load(ctx, collection, id, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

func (r *IssueRepositoryImpl) FindByTeam(ctx context.Context, teamID primitive.ObjectID) ([]Issue, error) {
	var issues []Issue
	if err := r.store.Find(ctx, collection, bson.M{"team": teamID}, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

func (r *IssueRepositoryImpl) FindByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]Issue, error) {
	var issues []Issue
	if err := r.store.Find(ctx, collection, bson.M{"parent_organization": orgID}, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

func (r *IssueRepositoryImpl) Save(ctx context.Context, issue *Issue) error {
	issue.UpdatedAt = time.Now()
	return r.store.Replace(ctx, collection, issue.ID, issue)
}

func (r *IssueRepositoryImpl) NextSequence(ctx context.Context, scope primitive.ObjectID) (int64, error) {
	return r.store.NextCounter(ctx, fmt.Sprintf("issues/%s", scope.Hex()))
}
