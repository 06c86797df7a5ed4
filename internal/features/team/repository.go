package team

import (
	"context"
	"time"

	"github.com/garden-co/locality/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const collection = "teams"

type TeamRepository interface {
	Create(ctx context.Context, team *Team) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Team, error)
	FindByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]Team, error)
	Save(ctx context.Context, team *Team) error
}

type TeamRepositoryImpl struct {
	store store.Store
}

func NewTeamRepository(st store.Store) TeamRepository {
	return &TeamRepositoryImpl{store: st}
}

func (r *TeamRepositoryImpl) Create(ctx context.Context, team *Team) error {
	if team.ID.IsZero() {
		team.ID = primitive.NewObjectID()
	}
	team.CreatedAt = time.Now()
	team.UpdatedAt = team.CreatedAt
	return r.store.Create(ctx, collection, team.ID, team)
}

func (r *TeamRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Team, error) {
	var team Team
	if err := r.store.Load(ctx, collection, id, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *TeamRepositoryImpl) FindByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]Team, error) {
	var teams []Team
	if err := r.store.Find(ctx, collection, bson.M{"organization": orgID}, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *TeamRepositoryImpl) Save(ctx context.Context, team *Team) error {
	team.UpdatedAt = time.Now()
	return r.store.Replace(ctx, collection, team.ID, team)
}
