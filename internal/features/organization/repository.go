package organization

import (
	"context"
	"time"

	"github.com/garden-co/locality/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	collection      = "organizations"
	labelCollection = "labels"
)

type OrganizationRepository interface {
	Create(ctx context.Context, org *Organization) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Organization, error)
	FindAll(ctx context.Context) ([]Organization, error)
	Save(ctx context.Context, org *Organization) error

	CreateLabel(ctx context.Context, label *Label) error
	FindLabel(ctx context.Context, id primitive.ObjectID) (*Label, error)
	FindLabels(ctx context.Context, orgID primitive.ObjectID) ([]Label, error)
	SaveLabel(ctx context.Context, label *Label) error
}

type OrganizationRepositoryImpl struct {
	store store.Store
}

func NewOrganizationRepository(st store.Store) OrganizationRepository {
	return &OrganizationRepositoryImpl{store: st}
}

func (r *OrganizationRepositoryImpl) Create(ctx context.Context, org *Organization) error {
	if org.ID.IsZero() {
		org.ID = primitive.NewObjectID()
	}
	org.CreatedAt = time.Now()
	org.UpdatedAt = org.CreatedAt
	return r.store.Create(ctx, collection, org.ID, org)
}

func (r *OrganizationRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Organization, error) {
	var org Organization
	if err := r.store.Load(ctx, collection, id, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepositoryImpl) FindAll(ctx context.Context) ([]Organization, error) {
	var orgs []Organization
	if err := r.store.Find(ctx, collection, bson.M{}, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

func (r *OrganizationRepositoryImpl) Save(ctx context.Context, org *Organization) error {
	org.UpdatedAt = time.Now()
	return r.store.Replace(ctx, collection, org.ID, org)
}

func (r *OrganizationRepositoryImpl) CreateLabel(ctx context.Context, label *Label) error {
	if label.ID.IsZero() {
		label.ID = primitive.NewObjectID()
	}
	label.CreatedAt = time.Now()
	return r.store.Create(ctx, labelCollection, label.ID, label)
}

func (r *OrganizationRepositoryImpl) FindLabel(ctx context.Context, id primitive.ObjectID) (*Label, error) {
	var label Label
	if err := r.store.Load(ctx, labelCollection, id, &label); err != nil {
		return nil, err
	}
	return &label, nil
}

func (r *OrganizationRepositoryImpl) FindLabels(ctx context.Context, orgID primitive.ObjectID) ([]Label, error) {
	var labels []Label
	if err := r.store.Find(ctx, labelCollection, bson.M{"organization": orgID}, &labels); err != nil {
		return nil, err
	}
	return labels, nil
}

func (r *OrganizationRepositoryImpl) SaveLabel(ctx context.Context, label *Label) error {
	return r.store.Replace(ctx, labelCollection, label.ID, label)
}
