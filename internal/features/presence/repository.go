package presence

import (
	"context"

	"github.com/garden-co/locality/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const collection = "presence_events"

type PresenceRepository interface {
	Append(ctx context.Context, event *PresenceEvent) error
	FindByActor(ctx context.Context, orgID, actor primitive.ObjectID) ([]PresenceEvent, error)
	FindByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]PresenceEvent, error)
}

type PresenceRepositoryImpl struct {
	store store.Store
}

func NewPresenceRepository(st store.Store) PresenceRepository {
	return &PresenceRepositoryImpl{store: st}
}

func (r *PresenceRepositoryImpl) Append(ctx context.Context, event *PresenceEvent) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	return r.store.Create(ctx, collection, event.ID, event)
}

func (r *PresenceRepositoryImpl) FindByActor(ctx context.Context, orgID, actor primitive.ObjectID) ([]PresenceEvent, error) {
	var events []PresenceEvent
	if err := r.store.Find(ctx, collection, bson.M{"organization": orgID, "actor": actor}, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *PresenceRepositoryImpl) FindByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]PresenceEvent, error) {
	var events []PresenceEvent
	if err := r.store.Find(ctx, collection, bson.M{"organization": orgID}, &events); err != nil {
		return nil, err
	}
	return events, nil
}
