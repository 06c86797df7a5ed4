package organization

import (
	"context"
	"errors"

	common_models "github.com/garden-co/locality/internal/common/models"
	"github.com/garden-co/locality/internal/features/audit"
	"github.com/garden-co/locality/internal/features/group"
	"github.com/garden-co/locality/internal/features/user"
	"github.com/garden-co/locality/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TeamSeeder creates the default team inside a fresh organization.
// Implemented by the team service; adapted in cmd/api.
type TeamSeeder interface {
	SeedTeam(ctx context.Context, actor, orgID primitive.ObjectID, name string) (primitive.ObjectID, error)
}

// Member is a group grant resolved to its public profile.
type Member struct {
	Profile *user.UserProfile `json:"profile"`
	Role    group.Role        `json:"role"`
}

type OrganizationService interface {
	CreateOrganization(ctx context.Context, actor primitive.ObjectID, name string) (*Organization, error)

	// CreateDefaultOrganization backs user registration: a fresh account gets
	// an organization with a default "Dev" team.
	CreateDefaultOrganization(ctx context.Context, owner primitive.ObjectID, name string) error

	Get(ctx context.Context, actor, orgID primitive.ObjectID) (*Organization, error)
	GetBySlug(ctx context.Context, actor primitive.ObjectID, slug string) (*Organization, error)
	ListForMember(ctx context.Context, actor primitive.ObjectID) ([]Organization, error)
	Delete(ctx context.Context, actor, orgID primitive.ObjectID) error

	Members(ctx context.Context, actor, orgID primitive.ObjectID) ([]Member, error)

	CreateLabel(ctx context.Context, actor, orgID primitive.ObjectID, name, color string) (*Label, error)
	ListLabels(ctx context.Context, actor, orgID primitive.ObjectID) ([]Label, error)
	DeleteLabel(ctx context.Context, actor, labelID primitive.ObjectID) error

	// OwnerGroupOf resolves an organization to its owning group for invite
	// issuance and redemption.
	OwnerGroupOf(ctx context.Context, orgID primitive.ObjectID) (primitive.ObjectID, error)
}

type OrganizationServiceImpl struct {
	Repo         OrganizationRepository
	Groups       group.GroupService
	Teams        TeamSeeder
	Users        user.UserRepository
	AuditService audit.AuditService
}

func NewOrganizationService(
	repo OrganizationRepository,
	groups group.GroupService,
	teams TeamSeeder,
	users user.UserRepository,
	auditService audit.AuditService,
) OrganizationService {
	return &OrganizationServiceImpl{
		Repo:         repo,
		Groups:       groups,
		Teams:        teams,
		Users:        users,
		AuditService: auditService,
	}
}

func (s *OrganizationServiceImpl) CreateOrganization(ctx context.Context, actor primitive.ObjectID, name string) (*Organization, error) {
	if name == "" {
		return nil, errors.New("organization name is required")
	}

	ownerGroup, err := s.Groups.CreateGroup(ctx, actor)
	if err != nil {
		return nil, err
	}

	org := &Organization{
		Name:       name,
		Slug:       utils.Slugify(name),
		OwnerGroup: ownerGroup.ID,
	}
	if err := s.Repo.Create(ctx, org); err != nil {
		return nil, err
	}

	for _, l := range defaultLabels {
		label := &Label{Name: l.Name, Color: l.Color, Organization: org.ID}
		if err := s.Repo.CreateLabel(ctx, label); err != nil {
			return nil, err
		}
	}

	if _, err := s.Teams.SeedTeam(ctx, actor, org.ID, "Dev"); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "organizations", org.ID.Hex(), map[string]common_models.Change{
		"organization": {New: org.Name},
	})
	return org, nil
}

func (s *OrganizationServiceImpl) CreateDefaultOrganization(ctx context.Context, owner primitive.ObjectID, name string) error {
	_, err := s.CreateOrganization(ctx, owner, name)
	return err
}

func (s *OrganizationServiceImpl) Get(ctx context.Context, actor, orgID primitive.ObjectID) (*Organization, error) {
	org, err := s.Repo.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, common_models.ErrNotFound) {
			return nil, common_models.ErrPermissionDenied
		}
		return nil, err
	}
	if org.Deleted {
		return nil, common_models.ErrPermissionDenied
	}
	if err := s.Groups.Authorize(ctx, actor, org.OwnerGroup, group.PermRead); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *OrganizationServiceImpl) GetBySlug(ctx context.Context, actor primitive.ObjectID, slug string) (*Organization, error) {
	orgs, err := s.Repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range orgs {
		if orgs[i].Slug == slug && !orgs[i].Deleted {
			return s.Get(ctx, actor, orgs[i].ID)
		}
	}
	return nil, common_models.ErrPermissionDenied
}

func (s *OrganizationServiceImpl) ListForMember(ctx context.Context, actor primitive.ObjectID) ([]Organization, error) {
	orgs, err := s.Repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	var visible []Organization
	for i := range orgs {
		if orgs[i].Deleted {
			continue
		}
		role, ok, err := s.Groups.RoleOf(ctx, orgs[i].OwnerGroup, actor)
		if err != nil {
			return nil, err
		}
		if ok && role.CanRead() {
			visible = append(visible, orgs[i])
		}
	}
	return visible, nil
}

func (s *OrganizationServiceImpl) Delete(ctx context.Context, actor, orgID primitive.ObjectID) error {
	org, err := s.Repo.FindByID(ctx, orgID)
	if err != nil {
		return denyOnMissing(err)
	}
	if err := s.Groups.Authorize(ctx, actor, org.OwnerGroup, group.PermAdmin); err != nil {
		return err
	}

	org.Deleted = true
	if err := s.Repo.Save(ctx, org); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "organizations", orgID.Hex(), nil)
	return nil
}

func (s *OrganizationServiceImpl) Members(ctx context.Context, actor, orgID primitive.ObjectID) ([]Member, error) {
	org, err := s.Get(ctx, actor, orgID)
	if err != nil {
		return nil, err
	}

	grants, err := s.Groups.Members(ctx, actor, org.OwnerGroup)
	if err != nil {
		return nil, err
	}

	members := make([]Member, 0, len(grants))
	for idHex, role := range grants {
		id, err := primitive.ObjectIDFromHex(idHex)
		if err != nil {
			continue
		}
		profile, err := s.Users.FindByID(ctx, id)
		if err != nil {
			continue
		}
		members = append(members, Member{Profile: profile, Role: role})
	}
	return members, nil
}

func (s *OrganizationServiceImpl) CreateLabel(ctx context.Context, actor, orgID primitive.ObjectID, name, color string) (*Label, error) {
	org, err := s.Repo.FindByID(ctx, orgID)
	if err != nil {
		return nil, denyOnMissing(err)
	}
	if err := s.Groups.Authorize(ctx, actor, org.OwnerGroup, group.PermWrite); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.New("label name is required")
	}

	label := &Label{Name: name, Color: color, Organization: orgID}
	if err := s.Repo.CreateLabel(ctx, label); err != nil {
		return nil, err
	}
	return label, nil
}

func (s *OrganizationServiceImpl) ListLabels(ctx context.Context, actor, orgID primitive.ObjectID) ([]Label, error) {
	org, err := s.Repo.FindByID(ctx, orgID)
	if err != nil {
		return nil, denyOnMissing(err)
	}
	if err := s.Groups.Authorize(ctx, actor, org.OwnerGroup, group.PermRead); err != nil {
		return nil, err
	}

	labels, err := s.Repo.FindLabels(ctx, orgID)
	if err != nil {
		return nil, err
	}

	visible := labels[:0]
	for _, l := range labels {
		if !l.Deleted {
			visible = append(visible, l)
		}
	}
	return visible, nil
}

func (s *OrganizationServiceImpl) DeleteLabel(ctx context.Context, actor, labelID primitive.ObjectID) error {
	label, err := s.Repo.FindLabel(ctx, labelID)
	if err != nil {
		return denyOnMissing(err)
	}
	org, err := s.Repo.FindByID(ctx, label.Organization)
	if err != nil {
		return denyOnMissing(err)
	}
	if err := s.Groups.Authorize(ctx, actor, org.OwnerGroup, group.PermWrite); err != nil {
		return err
	}

	label.Deleted = true
	return s.Repo.SaveLabel(ctx, label)
}

func (s *OrganizationServiceImpl) OwnerGroupOf(ctx context.Context, orgID primitive.ObjectID) (primitive.ObjectID, error) {
	org, err := s.Repo.FindByID(ctx, orgID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if org.Deleted {
		return primitive.NilObjectID, common_models.ErrNotFound
	}
	return org.OwnerGroup, nil
}

func denyOnMissing(err error) error {
	if errors.Is(err, common_models.ErrNotFound) {
		return common_models.ErrPermissionDenied
	}
	return err
}
