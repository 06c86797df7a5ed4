package group

import (
	"context"
	"time"

	"github.com/garden-co/locality/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const collection = "groups"

type GroupRepository interface {
	Create(ctx context.Context, record *GroupRecord) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*GroupRecord, error)
	Save(ctx context.Context, record *GroupRecord) error
}

type GroupRepositoryImpl struct {
	store store.Store
}

func NewGroupRepository(st store.Store) GroupRepository {
	return &GroupRepositoryImpl{store: st}
}

func (r *GroupRepositoryImpl) Create(ctx context.Context, record *GroupRecord) error {
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt

	if record.Members == nil {
		record.Members = make(map[string]Role)
	}
	if record.Invites == nil {
		record.Invites = make(map[string]Invite)
	}
	if record.Extends == nil {
		record.Extends = []primitive.ObjectID{}
	}

	return r.store.Create(ctx, collection, record.ID, record)
}

func (r *GroupRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*GroupRecord, error) {
	var record GroupRecord
	if err := r.store.Load(ctx, collection, id, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *GroupRepositoryImpl) Save(ctx context.Context, record *GroupRecord) error {
	record.UpdatedAt = time.Now()
	return r.store.Replace(ctx, collection, record.ID, record)
}
