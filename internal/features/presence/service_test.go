package presence

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
	presence PresenceService
	repo     PresenceRepository
	groups   group.GroupService

	admin primitive.ObjectID
	org   *organization.Organization
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
	repo := NewPresenceRepository(st)
	presence := NewPresenceService(repo, orgs, groups, NewHub())

	admin := primitive.NewObjectID()
	org, err := orgs.CreateOrganization(ctx, admin, "Acme")
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}

	return &testEnv{presence: presence, repo: repo, groups: groups, admin: admin, org: org}
}

func TestAppendDerivesStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if err := env.presence.Append(ctx, env.admin, env.org.ID, "tab-1", StatusOnline); err != nil {
		t.Fatalf("Append: %v", err)
	}

	status, err := env.presence.Current(ctx, env.admin, env.org.ID, env.admin)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if status != StatusOnline {
		t.Errorf("status = %q, want online", status)
	}
}

func TestAppendSkipsRedundantWrites(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	for i := 0; i < 5; i++ {
		if err := env.presence.Append(ctx, env.admin, env.org.ID, "tab-1", StatusOnline); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	events, err := env.repo.FindByActor(ctx, env.org.ID, env.admin)
	if err != nil {
		t.Fatalf("FindByActor: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("feed holds %d events, want 1 (idempotent appends)", len(events))
	}

	if err := env.presence.Append(ctx, env.admin, env.org.ID, "tab-1", StatusAway); err != nil {
		t.Fatalf("Append away: %v", err)
	}
	events, _ = env.repo.FindByActor(ctx, env.org.ID, env.admin)
	if len(events) != 2 {
		t.Errorf("feed holds %d events, want 2 after a real transition", len(events))
	}
}

func TestAppendRequiresMembership(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	outsider := primitive.NewObjectID()

	err := env.presence.Append(ctx, outsider, env.org.ID, "tab-1", StatusOnline)
	if !errors.Is(err, common_models.ErrPermissionDenied) {
		t.Errorf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestUnknownStatusRejected(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if err := env.presence.Append(ctx, env.admin, env.org.ID, "tab-1", PresenceStatus("busy")); err == nil {
		t.Error("unknown status accepted")
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	updates, unsubscribe, err := env.presence.Subscribe(ctx, env.admin, env.org.ID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer unsubscribe()

	if err := env.presence.Append(ctx, env.admin, env.org.ID, "tab-1", StatusOnline); err != nil {
		t.Fatalf("Append: %v", err)
	}

	select {
	case update := <-updates:
		if update.Actor != env.admin || update.Status != StatusOnline {
			t.Errorf("update = %+v, want admin online", update)
		}
	default:
		t.Fatal("no update delivered")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	updates, unsubscribe, err := env.presence.Subscribe(ctx, env.admin, env.org.ID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	unsubscribe()

	if err := env.presence.Append(ctx, env.admin, env.org.ID, "tab-1", StatusOnline); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if _, ok := <-updates; ok {
		t.Error("update delivered after unsubscribe")
	}
}

func TestSnapshotCoversAllMembers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	other := primitive.NewObjectID()
	if err := env.groups.AddMember(ctx, env.admin, env.org.OwnerGroup, other, group.RoleWriter); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	if err := env.presence.Append(ctx, env.admin, env.org.ID, "s1", StatusOnline); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := env.presence.Append(ctx, other, env.org.ID, "s1", StatusAway); err != nil {
		t.Fatalf("Append: %v", err)
	}

	snapshot, err := env.presence.Snapshot(ctx, env.admin, env.org.ID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snapshot[env.admin] != StatusOnline || snapshot[other] != StatusAway {
		t.Errorf("snapshot = %v", snapshot)
	}
}
