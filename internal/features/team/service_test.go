package team

import (
	"context"
	"errors"
	"testing"

	common_models "github.com/garden-co/locality/internal/common/models"
	"github.com/garden-co/locality/internal/config"
	"github.com/garden-co/locality/internal/features/group"
	"github.com/garden-co/locality/internal/features/organization"
	"github.com/garden-co/locality/internal/features/user"
	"github.com/garden-co/locality/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type noopAudit struct{}

func (noopAudit) LogChange(ctx context.Context, action common_models.AuditAction, module, recordID string, changes map[string]common_models.Change) error {
	return nil
}

func (noopAudit) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

func newTestEnv(t *testing.T) (TeamService, group.GroupService, primitive.ObjectID, *organization.Organization) {
	t.Helper()
	ctx := context.Background()
	cfg := &config.Config{InviteTTLHours: 168}
	st := store.NewMemoryStore()

	groups := group.NewGroupService(group.NewGroupRepository(st), noopAudit{}, cfg)
	orgRepo := organization.NewOrganizationRepository(st)
	teams := NewTeamService(NewTeamRepository(st), orgRepo, groups, noopAudit{})
	orgs := organization.NewOrganizationService(orgRepo, groups, teams, user.NewUserRepository(st), noopAudit{})

	admin := primitive.NewObjectID()
	org, err := orgs.CreateOrganization(ctx, admin, "Acme")
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	return teams, groups, admin, org
}

func TestTeamGroupExtendsOrganizationGroup(t *testing.T) {
	ctx := context.Background()
	teams, groups, admin, org := newTestEnv(t)

	tm, err := teams.CreateTeam(ctx, admin, org.ID, "Platform", "", "")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}

	// an organization member never added to the team still reads it
	member := primitive.NewObjectID()
	if err := groups.AddMember(ctx, admin, org.OwnerGroup, member, group.RoleReader); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	role, ok, err := groups.RoleOf(ctx, tm.OwnerGroup, member)
	if err != nil {
		t.Fatalf("RoleOf: %v", err)
	}
	if !ok || role != group.RoleReader {
		t.Errorf("inherited role = %q (found=%v), want reader", role, ok)
	}
}

func TestCreateTeamDefaults(t *testing.T) {
	ctx := context.Background()
	teams, _, admin, org := newTestEnv(t)

	tm, err := teams.CreateTeam(ctx, admin, org.ID, "Design Systems", "", "")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if tm.Slug != "design-systems" {
		t.Errorf("slug = %q, want design-systems", tm.Slug)
	}
	if tm.Icon == "" || tm.Color == "" {
		t.Errorf("defaults missing: icon=%q color=%q", tm.Icon, tm.Color)
	}
}

func TestCreateTeamRequiresOrgWriter(t *testing.T) {
	ctx := context.Background()
	teams, _, _, org := newTestEnv(t)
	outsider := primitive.NewObjectID()

	_, err := teams.CreateTeam(ctx, outsider, org.ID, "Rogue", "", "")
	if !errors.Is(err, common_models.ErrPermissionDenied) {
		t.Errorf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestListForMemberHidesDeleted(t *testing.T) {
	ctx := context.Background()
	teams, _, admin, org := newTestEnv(t)

	tm, err := teams.CreateTeam(ctx, admin, org.ID, "Temp", "", "")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if err := teams.Delete(ctx, admin, tm.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	listed, err := teams.ListForMember(ctx, admin, org.ID)
	if err != nil {
		t.Fatalf("ListForMember: %v", err)
	}
	for _, got := range listed {
		if got.ID == tm.ID {
			t.Error("deleted team still listed")
		}
	}
}
