package comment

import (
	"context"
	"time"

	"github.com/garden-co/locality/internal/features/issue"
	"github.com/garden-co/locality/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const collection = "comments"

type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Comment, error)
	FindByIssue(ctx context.Context, issueID primitive.ObjectID) ([]Comment, error)
	Save(ctx context.Context, comment *Comment) error
}

type CommentRepositoryImpl struct {
	store store.Store
}

func NewCommentRepository(st store.Store) CommentRepository {
	return &CommentRepositoryImpl{store: st}
}

func (r *CommentRepositoryImpl) Create(ctx context.Context, comment *Comment) error {
	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	if comment.Reactions == nil {
		comment.Reactions = map[string][]primitive.ObjectID{}
	}
	if comment.Attachments == nil {
		comment.Attachments = []issue.Attachment{}
	}
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = comment.CreatedAt
	return r.store.Create(ctx, collection, comment.ID, comment)
}

func (r *CommentRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Comment, error) {
	var comment Comment
	if err := r.store.Load(ctx, collection, id, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *CommentRepositoryImpl) FindByIssue(ctx context.Context, issueID primitive.ObjectID) ([]Comment, error) {
	var comments []Comment
	if err := r.store.Find(ctx, collection, bson.M{"parent_issue": issueID}, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *CommentRepositoryImpl) Save(ctx context.Context, comment *Comment) error {
	comment.UpdatedAt = time.Now()
	return r.store.Replace(ctx, collection, comment.ID, comment)
}
