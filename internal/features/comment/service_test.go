package comment

import (
	"context"
	"errors"
	"testing"
	"time"

	common_models "github.com/garden-co/locality/internal/common/models"
	"github.com/garden-co/locality/internal/config"
	"github.com/garden-co/locality/internal/features/group"
	"github.com/garden-co/locality/internal/features/issue"
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
	comments CommentService
	issues   issue.IssueService
	groups   group.GroupService
	teams    team.TeamService
	orgs     organization.OrganizationService

	admin primitive.ObjectID
	org   *organization.Organization
	team  *team.Team
	issue *issue.Issue
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()
	ctx := context.Background()
	if cfg == nil {
		cfg = &config.Config{InviteTTLHours: 168, MaxCommentDepth: 64}
	}
	st := store.NewMemoryStore()

	groups := group.NewGroupService(group.NewGroupRepository(st), noopAudit{}, cfg)
	orgRepo := organization.NewOrganizationRepository(st)
	teamRepo := team.NewTeamRepository(st)
	teams := team.NewTeamService(teamRepo, orgRepo, groups, noopAudit{})
	orgs := organization.NewOrganizationService(orgRepo, groups, teams, user.NewUserRepository(st), noopAudit{})
	issueRepo := issue.NewIssueRepository(st)
	issues := issue.NewIssueService(issueRepo, teamRepo, orgRepo, groups, noopAudit{})
	comments := NewCommentService(NewCommentRepository(st), issues, issueRepo, groups, noopAudit{}, cfg)

	admin := primitive.NewObjectID()
	org, err := orgs.CreateOrganization(ctx, admin, "Acme")
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	memberTeams, err := teams.ListForMember(ctx, admin, org.ID)
	if err != nil || len(memberTeams) != 1 {
		t.Fatalf("expected one seeded team, got %d (err=%v)", len(memberTeams), err)
	}
	is, err := issues.CreateIssue(ctx, admin, issue.CreateIssueInput{Team: memberTeams[0].ID, Title: "discussion host"})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}

	return &testEnv{
		comments: comments,
		issues:   issues,
		groups:   groups,
		teams:    teams,
		orgs:     orgs,
		admin:    admin,
		org:      org,
		team:     &memberTeams[0],
		issue:    is,
	}
}

func TestReplyMayNotJumpIssues(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	other, err := env.issues.CreateIssue(ctx, env.admin, issue.CreateIssueInput{Team: env.team.ID, Title: "other"})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	root, err := env.comments.AddComment(ctx, env.admin, env.issue.ID, "root", nil)
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	_, err = env.comments.AddComment(ctx, env.admin, other.ID, "jumper", &root.ID)
	if !errors.Is(err, common_models.ErrCrossIssueReply) {
		t.Errorf("err = %v, want ErrCrossIssueReply", err)
	}
}

func TestReactionToggleIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	c, err := env.comments.AddComment(ctx, env.admin, env.issue.ID, "react to me", nil)
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	u1 := primitive.NewObjectID()
	u2 := primitive.NewObjectID()
	for _, u := range []primitive.ObjectID{u1, u2} {
		if err := env.groups.AddMember(ctx, env.admin, env.org.OwnerGroup, u, group.RoleWriter); err != nil {
			t.Fatalf("AddMember: %v", err)
		}
	}

	// repeated adds from the same actor never double-count
	for i := 0; i < 3; i++ {
		if _, err := env.comments.ToggleReaction(ctx, u1, c.ID, ReactionThumbUp, true); err != nil {
			t.Fatalf("ToggleReaction: %v", err)
		}
	}
	counts, err := env.comments.ToggleReaction(ctx, u2, c.ID, ReactionThumbUp, true)
	if err != nil {
		t.Fatalf("ToggleReaction: %v", err)
	}
	if counts["thumb-up"] != 2 {
		t.Errorf("thumb-up count = %d, want 2 distinct actors", counts["thumb-up"])
	}

	counts, err = env.comments.ToggleReaction(ctx, u1, c.ID, ReactionThumbUp, false)
	if err != nil {
		t.Fatalf("ToggleReaction remove: %v", err)
	}
	if counts["thumb-up"] != 1 {
		t.Errorf("after removal count = %d, want 1", counts["thumb-up"])
	}

	// removing a reaction the actor does not hold is a no-op
	counts, err = env.comments.ToggleReaction(ctx, u1, c.ID, ReactionFire, false)
	if err != nil {
		t.Fatalf("ToggleReaction: %v", err)
	}
	if counts["fire"] != 0 {
		t.Errorf("fire count = %d, want 0", counts["fire"])
	}
}

func TestUnknownReactionKindRejected(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	c, _ := env.comments.AddComment(ctx, env.admin, env.issue.ID, "x", nil)
	if _, err := env.comments.ToggleReaction(ctx, env.admin, c.ID, ReactionKind("sparkles"), true); err == nil {
		t.Error("unknown reaction kind accepted")
	}
}

func TestTreeOrdersChildrenByCreation(t *testing.T) {
	now := time.Now()
	issueID := primitive.NewObjectID()
	root := Comment{ID: primitive.NewObjectID(), Content: "root", ParentIssue: issueID, CreatedAt: now}
	late := Comment{ID: primitive.NewObjectID(), Content: "late", ParentIssue: issueID, ParentComment: &root.ID, CreatedAt: now.Add(2 * time.Second)}
	early := Comment{ID: primitive.NewObjectID(), Content: "early", ParentIssue: issueID, ParentComment: &root.ID, CreatedAt: now.Add(time.Second)}
	nested := Comment{ID: primitive.NewObjectID(), Content: "nested", ParentIssue: issueID, ParentComment: &early.ID, CreatedAt: now.Add(3 * time.Second)}

	// delivery order deliberately scrambled
	tree := BuildTree([]Comment{late, nested, root, early}, 64)

	if len(tree) != 1 || tree[0].Comment.Content != "root" {
		t.Fatalf("tree roots = %d, want single root", len(tree))
	}
	children := tree[0].Children
	if len(children) != 2 || children[0].Comment.Content != "early" || children[1].Comment.Content != "late" {
		t.Fatalf("children misordered")
	}
	if len(children[0].Children) != 1 || children[0].Children[0].Comment.Content != "nested" {
		t.Error("nested reply not attached under its parent")
	}
}

func TestTreeDropsDeletedSubtrees(t *testing.T) {
	issueID := primitive.NewObjectID()
	root := Comment{ID: primitive.NewObjectID(), ParentIssue: issueID, Deleted: true}
	reply := Comment{ID: primitive.NewObjectID(), ParentIssue: issueID, ParentComment: &root.ID}

	if tree := BuildTree([]Comment{root, reply}, 64); len(tree) != 0 {
		t.Errorf("tree has %d roots, want 0", len(tree))
	}
}

func TestDepthGuard(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, &config.Config{InviteTTLHours: 168, MaxCommentDepth: 2})

	parent, err := env.comments.AddComment(ctx, env.admin, env.issue.ID, "level 1", nil)
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	reply, err := env.comments.AddComment(ctx, env.admin, env.issue.ID, "level 2", &parent.ID)
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	_, err = env.comments.AddComment(ctx, env.admin, env.issue.ID, "level 3", &reply.ID)
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Errorf("err = %v, want ErrMaxDepthExceeded", err)
	}
}

func TestEditMutatesInPlace(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	c, _ := env.comments.AddComment(ctx, env.admin, env.issue.ID, "draft", nil)
	if _, err := env.comments.EditComment(ctx, env.admin, c.ID, "final"); err != nil {
		t.Fatalf("EditComment: %v", err)
	}

	tree, err := env.comments.Tree(ctx, env.admin, env.issue.ID)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if len(tree) != 1 || tree[0].Comment.Content != "final" {
		t.Errorf("content after edit = %q, want final", tree[0].Comment.Content)
	}
}

// TestAcmeWorkflow walks the full collaboration path: workspace setup,
// identifiers, a reaction, then revocation cutting off further writes.
func TestAcmeWorkflow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	if env.org.Slug != "acme" {
		t.Errorf("org slug = %q, want acme", env.org.Slug)
	}
	if env.team.Name != "Dev" {
		t.Errorf("seeded team = %q, want Dev", env.team.Name)
	}
	if env.issue.Identifier != "ACM-1" {
		t.Errorf("issue identifier = %q, want ACM-1", env.issue.Identifier)
	}

	sub, err := env.issues.CreateIssue(ctx, env.admin, issue.CreateIssueInput{
		Team: env.team.ID, Title: "sub", ParentIssue: &env.issue.ID,
	})
	if err != nil {
		t.Fatalf("CreateIssue sub: %v", err)
	}
	if sub.Identifier != "ACM-1-1" {
		t.Errorf("sub identifier = %q, want ACM-1-1", sub.Identifier)
	}

	// U1 joins via invite and reacts
	u1 := primitive.NewObjectID()
	secret, err := env.groups.IssueInvite(ctx, env.admin, env.org.OwnerGroup, group.RoleWriter, false)
	if err != nil {
		t.Fatalf("IssueInvite: %v", err)
	}
	if _, err := env.groups.RedeemInvite(ctx, env.org.OwnerGroup, secret, u1); err != nil {
		t.Fatalf("RedeemInvite: %v", err)
	}

	counts, err := env.comments.ToggleIssueReaction(ctx, u1, env.issue.ID, ReactionThumbUp, true)
	if err != nil {
		t.Fatalf("ToggleIssueReaction: %v", err)
	}
	if counts["thumb-up"] != 1 {
		t.Errorf("thumb-up count = %d, want 1", counts["thumb-up"])
	}

	// removal revokes everything downstream
	if err := env.groups.RemoveMember(ctx, env.admin, env.org.OwnerGroup, u1); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if _, ok, _ := env.groups.RoleOf(ctx, env.org.OwnerGroup, u1); ok {
		t.Error("removed member still has a role")
	}

	if _, err := env.comments.AddComment(ctx, u1, env.issue.ID, "still here?", nil); !errors.Is(err, common_models.ErrPermissionDenied) {
		t.Errorf("comment after removal: err = %v, want ErrPermissionDenied", err)
	}
	if _, err := env.comments.ToggleIssueReaction(ctx, u1, env.issue.ID, ReactionHeart, true); !errors.Is(err, common_models.ErrPermissionDenied) {
		t.Errorf("reaction after removal: err = %v, want ErrPermissionDenied", err)
	}
}
