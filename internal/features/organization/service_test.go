package organization

import (
	"context"
	"errors"
	"testing"

	common_models "github.com/garden-co/locality/internal/common/models"
	"github.com/garden-co/locality/internal/config"
	"github.com/garden-co/locality/internal/features/group"
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

type stubTeamSeeder struct {
	calls int
	names []string
}

func (s *stubTeamSeeder) SeedTeam(ctx context.Context, actor, orgID primitive.ObjectID, name string) (primitive.ObjectID, error) {
	s.calls++
	s.names = append(s.names, name)
	return primitive.NewObjectID(), nil
}

func newTestService() (OrganizationService, group.GroupService, *stubTeamSeeder) {
	cfg := &config.Config{InviteTTLHours: 168}
	st := store.NewMemoryStore()
	groups := group.NewGroupService(group.NewGroupRepository(st), noopAudit{}, cfg)
	seeder := &stubTeamSeeder{}
	svc := NewOrganizationService(NewOrganizationRepository(st), groups, seeder, user.NewUserRepository(st), noopAudit{})
	return svc, groups, seeder
}

func TestCreateOrganizationSeedsDefaults(t *testing.T) {
	ctx := context.Background()
	svc, groups, seeder := newTestService()
	owner := primitive.NewObjectID()

	org, err := svc.CreateOrganization(ctx, owner, "Acme Rockets")
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}

	if org.Slug != "acme-rockets" {
		t.Errorf("slug = %q, want acme-rockets", org.Slug)
	}
	if seeder.calls != 1 || seeder.names[0] != "Dev" {
		t.Errorf("seeded teams = %v, want [Dev]", seeder.names)
	}

	role, ok, err := groups.RoleOf(ctx, org.OwnerGroup, owner)
	if err != nil || !ok || role != group.RoleAdmin {
		t.Errorf("owner role = %q (found=%v, err=%v), want admin", role, ok, err)
	}

	labels, err := svc.ListLabels(ctx, owner, org.ID)
	if err != nil {
		t.Fatalf("ListLabels: %v", err)
	}
	want := map[string]string{
		"Bug":           "#f97316",
		"Feature":       "#0ea5e9",
		"Documentation": "#8b5cf6",
		"Question":      "#ec4899",
	}
	if len(labels) != len(want) {
		t.Fatalf("%d default labels, want %d", len(labels), len(want))
	}
	for _, l := range labels {
		if want[l.Name] != l.Color {
			t.Errorf("label %s color = %q, want %q", l.Name, l.Color, want[l.Name])
		}
	}
}

func TestGetDeniesOutsidersAndDeleted(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	owner := primitive.NewObjectID()
	outsider := primitive.NewObjectID()

	org, err := svc.CreateOrganization(ctx, owner, "Acme")
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}

	if _, err := svc.Get(ctx, outsider, org.ID); !errors.Is(err, common_models.ErrPermissionDenied) {
		t.Errorf("outsider Get: err = %v, want ErrPermissionDenied", err)
	}
	if _, err := svc.Get(ctx, owner, primitive.NewObjectID()); !errors.Is(err, common_models.ErrPermissionDenied) {
		t.Errorf("missing org Get: err = %v, want ErrPermissionDenied", err)
	}

	if err := svc.Delete(ctx, owner, org.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, owner, org.ID); !errors.Is(err, common_models.ErrPermissionDenied) {
		t.Errorf("deleted org Get: err = %v, want ErrPermissionDenied", err)
	}
}

func TestListForMemberShowsOnlyMemberships(t *testing.T) {
	ctx := context.Background()
	svc, groups, _ := newTestService()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	mine, err := svc.CreateOrganization(ctx, alice, "Mine")
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	if _, err := svc.CreateOrganization(ctx, bob, "Theirs"); err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}

	orgs, err := svc.ListForMember(ctx, alice)
	if err != nil {
		t.Fatalf("ListForMember: %v", err)
	}
	if len(orgs) != 1 || orgs[0].ID != mine.ID {
		t.Errorf("alice sees %d orgs, want only her own", len(orgs))
	}

	// write-only members hold a grant but cannot read the organization
	courier := primitive.NewObjectID()
	if err := groups.AddMember(ctx, alice, mine.OwnerGroup, courier, group.RoleWriteOnly); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	orgs, err = svc.ListForMember(ctx, courier)
	if err != nil {
		t.Fatalf("ListForMember: %v", err)
	}
	if len(orgs) != 0 {
		t.Errorf("writeOnly member sees %d orgs, want 0", len(orgs))
	}
}

func TestGetBySlug(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	owner := primitive.NewObjectID()

	org, err := svc.CreateOrganization(ctx, owner, "Acme Rockets")
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}

	got, err := svc.GetBySlug(ctx, owner, "acme-rockets")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if got.ID != org.ID {
		t.Errorf("resolved %s, want %s", got.ID.Hex(), org.ID.Hex())
	}

	if _, err := svc.GetBySlug(ctx, owner, "nope"); !errors.Is(err, common_models.ErrPermissionDenied) {
		t.Errorf("unknown slug: err = %v, want ErrPermissionDenied", err)
	}
}

func TestLabelLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	owner := primitive.NewObjectID()

	org, _ := svc.CreateOrganization(ctx, owner, "Acme")
	label, err := svc.CreateLabel(ctx, owner, org.ID, "Regression", "#ff0000")
	if err != nil {
		t.Fatalf("CreateLabel: %v", err)
	}

	if err := svc.DeleteLabel(ctx, owner, label.ID); err != nil {
		t.Fatalf("DeleteLabel: %v", err)
	}

	labels, err := svc.ListLabels(ctx, owner, org.ID)
	if err != nil {
		t.Fatalf("ListLabels: %v", err)
	}
	for _, l := range labels {
		if l.ID == label.ID {
			t.Error("deleted label still listed")
		}
	}
}
