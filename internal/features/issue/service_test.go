package issue

import (
	"context"
	"errors"
	"testing"

	common_models "github.com/garden-co/locality/internal/common/models"
	"github.com/garden-co/locality/internal/config"
	"github.com/garden-co/locality/internal/features/group"
	"github.com/garden-co/locality/internal/features/organization"
	"github.com/garden-co/locality/internal/features/team"
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

type testEnv struct {
	issues IssueService
	groups group.GroupService
	teams  team.TeamService
	orgs   organization.OrganizationService

	admin primitive.ObjectID
	org   *organization.Organization
	team  *team.Team
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	cfg := &config.Config{InviteTTLHours: 168}
	st := store.NewMemoryStore()

	groups := group.NewGroupService(group.NewGroupRepository(st), noopAudit{}, cfg)
	orgRepo := organization.NewOrganizationRepository(st)
	teamRepo := team.NewTeamRepository(st)
	teams := team.NewTeamService(teamRepo, orgRepo, groups, noopAudit{})
	orgs := organization.NewOrganizationService(orgRepo, groups, teams, user.NewUserRepository(st), noopAudit{})
	issues := NewIssueService(NewIssueRepository(st), teamRepo, orgRepo, groups, noopAudit{})

	admin := primitive.NewObjectID()
	org, err := orgs.CreateOrganization(ctx, admin, "Acme")
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	memberTeams, err := teams.ListForMember(ctx, admin, org.ID)
	if err != nil || len(memberTeams) != 1 {
		t.Fatalf("expected one seeded team, got %d (err=%v)", len(memberTeams), err)
	}

	return &testEnv{
		issues: issues,
		groups: groups,
		teams:  teams,
		orgs:   orgs,
		admin:  admin,
		org:    org,
		team:   &memberTeams[0],
	}
}

func TestIdentifierSequence(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	first, err := env.issues.CreateIssue(ctx, env.admin, CreateIssueInput{Team: env.team.ID, Title: "first"})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	second, err := env.issues.CreateIssue(ctx, env.admin, CreateIssueInput{Team: env.team.ID, Title: "second"})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}

	if first.Identifier != "ACM-1" {
		t.Errorf("first identifier = %q, want ACM-1", first.Identifier)
	}
	if second.Identifier != "ACM-2" {
		t.Errorf("second identifier = %q, want ACM-2", second.Identifier)
	}
}

func TestSubIssueIdentifiers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	parent, err := env.issues.CreateIssue(ctx, env.admin, CreateIssueInput{Team: env.team.ID, Title: "parent"})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}

	subA, err := env.issues.CreateIssue(ctx, env.admin, CreateIssueInput{
		Team: env.team.ID, Title: "sub a", ParentIssue: &parent.ID,
	})
	if err != nil {
		t.Fatalf("CreateIssue sub: %v", err)
	}
	subB, err := env.issues.CreateIssue(ctx, env.admin, CreateIssueInput{
		Team: env.team.ID, Title: "sub b", ParentIssue: &parent.ID,
	})
	if err != nil {
		t.Fatalf("CreateIssue sub: %v", err)
	}

	if subA.Identifier != "ACM-1-1" || subB.Identifier != "ACM-1-2" {
		t.Errorf("sub identifiers = %q, %q, want ACM-1-1, ACM-1-2", subA.Identifier, subB.Identifier)
	}

	reloaded, err := env.issues.Get(ctx, env.admin, parent.ID)
	if err != nil {
		t.Fatalf("Get parent: %v", err)
	}
	if len(reloaded.ChildIssues) != 2 {
		t.Errorf("parent has %d children, want 2", len(reloaded.ChildIssues))
	}
}

func TestCreateIssueRequiresWriter(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	outsider := primitive.NewObjectID()

	_, err := env.issues.CreateIssue(ctx, outsider, CreateIssueInput{Team: env.team.ID, Title: "nope"})
	if !errors.Is(err, common_models.ErrPermissionDenied) {
		t.Errorf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestAssigneeMustBeMember(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	stranger := primitive.NewObjectID()

	_, err := env.issues.CreateIssue(ctx, env.admin, CreateIssueInput{
		Team: env.team.ID, Title: "x", Assignee: &stranger,
	})
	if !errors.Is(err, ErrAssigneeNotMember) {
		t.Errorf("stranger assignee: err = %v, want ErrAssigneeNotMember", err)
	}

	// members of the organization's group qualify through the extension chain
	orgMember := primitive.NewObjectID()
	if err := env.groups.AddMember(ctx, env.admin, env.org.OwnerGroup, orgMember, group.RoleWriter); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if _, err := env.issues.CreateIssue(ctx, env.admin, CreateIssueInput{
		Team: env.team.ID, Title: "x", Assignee: &orgMember,
	}); err != nil {
		t.Errorf("org-member assignee: err = %v, want nil", err)
	}
}

func TestReparentRejectsCycles(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	root, err := env.issues.CreateIssue(ctx, env.admin, CreateIssueInput{Team: env.team.ID, Title: "root"})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	child, err := env.issues.CreateIssue(ctx, env.admin, CreateIssueInput{
		Team: env.team.ID, Title: "child", ParentIssue: &root.ID,
	})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}

	if err := env.issues.Reparent(ctx, env.admin, root.ID, &child.ID); !errors.Is(err, ErrCyclicIssue) {
		t.Errorf("reparent under own child: err = %v, want ErrCyclicIssue", err)
	}
	if err := env.issues.Reparent(ctx, env.admin, root.ID, &root.ID); !errors.Is(err, ErrCyclicIssue) {
		t.Errorf("reparent under self: err = %v, want ErrCyclicIssue", err)
	}
}

func TestReparentMovesChildReferences(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	oldParent, _ := env.issues.CreateIssue(ctx, env.admin, CreateIssueInput{Team: env.team.ID, Title: "old"})
	newParent, _ := env.issues.CreateIssue(ctx, env.admin, CreateIssueInput{Team: env.team.ID, Title: "new"})
	child, err := env.issues.CreateIssue(ctx, env.admin, CreateIssueInput{
		Team: env.team.ID, Title: "child", ParentIssue: &oldParent.ID,
	})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}

	if err := env.issues.Reparent(ctx, env.admin, child.ID, &newParent.ID); err != nil {
		t.Fatalf("Reparent: %v", err)
	}

	oldReloaded, _ := env.issues.Get(ctx, env.admin, oldParent.ID)
	newReloaded, _ := env.issues.Get(ctx, env.admin, newParent.ID)
	if len(oldReloaded.ChildIssues) != 0 {
		t.Errorf("old parent still has %d children", len(oldReloaded.ChildIssues))
	}
	if len(newReloaded.ChildIssues) != 1 || newReloaded.ChildIssues[0] != child.ID {
		t.Errorf("new parent children = %v, want [%s]", newReloaded.ChildIssues, child.ID.Hex())
	}
}

func TestReparentOntoCurrentParentIsNoOp(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	parent, _ := env.issues.CreateIssue(ctx, env.admin, CreateIssueInput{Team: env.team.ID, Title: "parent"})
	child, err := env.issues.CreateIssue(ctx, env.admin, CreateIssueInput{
		Team: env.team.ID, Title: "child", ParentIssue: &parent.ID,
	})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}

	// a client retry resubmitting the current parent must not disturb the
	// back-references
	if err := env.issues.Reparent(ctx, env.admin, child.ID, &parent.ID); err != nil {
		t.Fatalf("Reparent: %v", err)
	}

	reloadedParent, _ := env.issues.Get(ctx, env.admin, parent.ID)
	reloadedChild, _ := env.issues.Get(ctx, env.admin, child.ID)
	if len(reloadedParent.ChildIssues) != 1 || reloadedParent.ChildIssues[0] != child.ID {
		t.Errorf("parent children = %v, want [%s]", reloadedParent.ChildIssues, child.ID.Hex())
	}
	if reloadedChild.ParentIssue == nil || *reloadedChild.ParentIssue != parent.ID {
		t.Error("child lost its parent reference")
	}

	top, _ := env.issues.CreateIssue(ctx, env.admin, CreateIssueInput{Team: env.team.ID, Title: "top"})
	if err := env.issues.Reparent(ctx, env.admin, top.ID, nil); err != nil {
		t.Fatalf("Reparent detached top-level issue: %v", err)
	}
}

func TestDeleteIsSoft(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	is, _ := env.issues.CreateIssue(ctx, env.admin, CreateIssueInput{Team: env.team.ID, Title: "gone"})
	if err := env.issues.Delete(ctx, env.admin, is.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := env.issues.Get(ctx, env.admin, is.ID); !errors.Is(err, common_models.ErrPermissionDenied) {
		t.Errorf("Get deleted: err = %v, want ErrPermissionDenied", err)
	}
	listed, err := env.issues.ListForTeam(ctx, env.admin, env.team.ID)
	if err != nil {
		t.Fatalf("ListForTeam: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("deleted issue still listed: %v", titles(listed))
	}
}

func TestUpdateValidatesStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	is, _ := env.issues.CreateIssue(ctx, env.admin, CreateIssueInput{Team: env.team.ID, Title: "x"})

	bad := Status("shipped")
	if _, err := env.issues.Update(ctx, env.admin, is.ID, UpdateIssueInput{Status: &bad}); err == nil {
		t.Error("unknown status accepted")
	}

	good := StatusInProgress
	updated, err := env.issues.Update(ctx, env.admin, is.ID, UpdateIssueInput{Status: &good})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != StatusInProgress {
		t.Errorf("status = %q, want in-progress", updated.Status)
	}
}

func TestExportForTeamProducesWorkbook(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if _, err := env.issues.CreateIssue(ctx, env.admin, CreateIssueInput{Team: env.team.ID, Title: "row"}); err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}

	data, filename, err := env.issues.ExportForTeam(ctx, env.admin, env.team.ID)
	if err != nil {
		t.Fatalf("ExportForTeam: %v", err)
	}
	if len(data) == 0 {
		t.Error("empty workbook")
	}
	if filename != "dev-issues.xlsx" {
		t.Errorf("filename = %q, want dev-issues.xlsx", filename)
	}
}
