package user

import (
	"context"
	"time"

	common_models "github.com/garden-co/locality/internal/common/models"
	"github.com/garden-co/locality/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const collection = "users"

type UserRepository interface {
	Create(ctx context.Context, profile *UserProfile) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*UserProfile, error)
	FindByEmail(ctx context.Context, email string) (*UserProfile, error)
	Save(ctx context.Context, profile *UserProfile) error
}

type UserRepositoryImpl struct {
	store store.Store
}

func NewUserRepository(st store.Store) UserRepository {
	return &UserRepositoryImpl{store: st}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, profile *UserProfile) error {
	if profile.ID.IsZero() {
		profile.ID = primitive.NewObjectID()
	}
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = profile.CreatedAt
	return r.store.Create(ctx, collection, profile.ID, profile)
}

func (r *UserRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*UserProfile, error) {
	var profile UserProfile
	if err := r.store.Load(ctx, collection, id, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*UserProfile, error) {
	var profiles []UserProfile
	if err := r.store.Find(ctx, collection, bson.M{"email": email}, &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, common_models.ErrNotFound
	}
	return &profiles[0], nil
}

func (r *UserRepositoryImpl) Save(ctx context.Context, profile *UserProfile) error {
	profile.UpdatedAt = time.Now()
	return r.store.Replace(ctx, collection, profile.ID, profile)
}
