package team

import (
	"context"
	"errors"

	common_models "github.com/garden-co/locality/internal/common/models"
	"github.com/garden-co/locality/internal/features/audit"
	"github.com/garden-co/locality/internal/features/group"
	"github.com/garden-co/locality/internal/features/organization"
	"github.com/garden-co/locality/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TeamService interface {
	CreateTeam(ctx context.Context, actor, orgID primitive.ObjectID, name, icon, color string) (*Team, error)

	// SeedTeam backs organization creation: every fresh organization gets a
	// default team owned by its creator.
	SeedTeam(ctx context.Context, actor, orgID primitive.ObjectID, name string) (primitive.ObjectID, error)

	Get(ctx context.Context, actor, teamID primitive.ObjectID) (*Team, error)
	ListForMember(ctx context.Context, actor, orgID primitive.ObjectID) ([]Team, error)
	Delete(ctx context.Context, actor, teamID primitive.ObjectID) error

	// OwnerGroupOf resolves a team to its owning group for invite issuance
	// and redemption.
	OwnerGroupOf(ctx context.Context, teamID primitive.ObjectID) (primitive.ObjectID, error)
}

type TeamServiceImpl struct {
	Repo         TeamRepository
	Orgs         organization.OrganizationRepository
	Groups       group.GroupService
	AuditService audit.AuditService
}

func NewTeamService(
	repo TeamRepository,
	orgs organization.OrganizationRepository,
	groups group.GroupService,
	auditService audit.AuditService,
) TeamService {
	return &TeamServiceImpl{
		Repo:         repo,
		Orgs:         orgs,
		Groups:       groups,
		AuditService: auditService,
	}
}

func (s *TeamServiceImpl) CreateTeam(ctx context.Context, actor, orgID primitive.ObjectID, name, icon, color string) (*Team, error) {
	if name == "" {
		return nil, errors.New("team name is required")
	}

	org, err := s.Orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, denyOnMissing(err)
	}
	if org.Deleted {
		return nil, common_models.ErrPermissionDenied
	}
	if err := s.Groups.Authorize(ctx, actor, org.OwnerGroup, group.PermWrite); err != nil {
		return nil, err
	}

	ownerGroup, err := s.Groups.CreateGroup(ctx, actor)
	if err != nil {
		return nil, err
	}
	// Organization members inherit access to every team under it.
	if err := s.Groups.Extend(ctx, actor, ownerGroup.ID, org.OwnerGroup); err != nil {
		return nil, err
	}

	if icon == "" {
		icon = defaultIcon
	}
	if color == "" {
		color = defaultColor
	}
	team := &Team{
		Name:         name,
		Slug:         utils.Slugify(name),
		Icon:         icon,
		Color:        color,
		OwnerGroup:   ownerGroup.ID,
		Organization: orgID,
	}
	if err := s.Repo.Create(ctx, team); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "teams", team.ID.Hex(), map[string]common_models.Change{
		"team": {New: team.Name},
	})
	return team, nil
}

func (s *TeamServiceImpl) SeedTeam(ctx context.Context, actor, orgID primitive.ObjectID, name string) (primitive.ObjectID, error) {
	team, err := s.CreateTeam(ctx, actor, orgID, name, "", "")
	if err != nil {
		return primitive.NilObjectID, err
	}
	return team.ID, nil
}

func (s *TeamServiceImpl) Get(ctx context.Context, actor, teamID primitive.ObjectID) (*Team, error) {
	team, err := s.Repo.FindByID(ctx, teamID)
	if err != nil {
		return nil, denyOnMissing(err)
	}
	if team.Deleted {
		return nil, common_models.ErrPermissionDenied
	}
	if err := s.Groups.Authorize(ctx, actor, team.OwnerGroup, group.PermRead); err != nil {
		return nil, err
	}
	return team, nil
}

func (s *TeamServiceImpl) ListForMember(ctx context.Context, actor, orgID primitive.ObjectID) ([]Team, error) {
	teams, err := s.Repo.FindByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	var visible []Team
	for i := range teams {
		if teams[i].Deleted {
			continue
		}
		role, ok, err := s.Groups.RoleOf(ctx, teams[i].OwnerGroup, actor)
		if err != nil {
			return nil, err
		}
		if ok && role.CanRead() {
			visible = append(visible, teams[i])
		}
	}
	return visible, nil
}

func (s *TeamServiceImpl) Delete(ctx context.Context, actor, teamID primitive.ObjectID) error {
	team, err := s.Repo.FindByID(ctx, teamID)
	if err != nil {
		return denyOnMissing(err)
	}
	if err := s.Groups.Authorize(ctx, actor, team.OwnerGroup, group.PermAdmin); err != nil {
		return err
	}

	team.Deleted = true
	if err := s.Repo.Save(ctx, team); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "teams", teamID.Hex(), nil)
	return nil
}

func (s *TeamServiceImpl) OwnerGroupOf(ctx context.Context, teamID primitive.ObjectID) (primitive.ObjectID, error) {
	team, err := s.Repo.FindByID(ctx, teamID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if team.Deleted {
		return primitive.NilObjectID, common_models.ErrNotFound
	}
	return team.OwnerGroup, nil
}

func denyOnMissing(err error) error {
	if errors.Is(err, common_models.ErrNotFound) {
		return common_models.ErrPermissionDenied
	}
	return err
}
