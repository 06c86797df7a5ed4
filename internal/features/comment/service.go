package comment

import (
	"context"
	"errors"
	"fmt"
	"sort"

	common_models "github.com/garden-co/locality/internal/common/models"
	"github.com/garden-co/locality/internal/config"
	"github.com/garden-co/locality/internal/features/audit"
	"github.com/garden-co/locality/internal/features/group"
	"github.com/garden-co/locality/internal/features/issue"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrMaxDepthExceeded rejects a reply that would nest deeper than the
// configured limit.
var ErrMaxDepthExceeded = errors.New("comment thread too deep")

type CommentService interface {
	AddComment(ctx context.Context, actor, issueID primitive.ObjectID, content string, parent *primitive.ObjectID) (*Comment, error)
	EditComment(ctx context.Context, actor, commentID primitive.ObjectID, content string) (*Comment, error)
	DeleteComment(ctx context.Context, actor, commentID primitive.ObjectID) error

	// ToggleReaction is idempotent per (actor, kind): repeated add=true calls
	// never double-count. Returns the distinct-actor tally per kind.
	ToggleReaction(ctx context.Context, actor, commentID primitive.ObjectID, kind ReactionKind, add bool) (map[string]int, error)
	ToggleIssueReaction(ctx context.Context, actor, issueID primitive.ObjectID, kind ReactionKind, add bool) (map[string]int, error)

	// Tree rebuilds the reply hierarchy for an issue: depth-first, children
	// ordered by creation time.
	Tree(ctx context.Context, actor, issueID primitive.ObjectID) ([]*Node, error)
}

type CommentServiceImpl struct {
	Repo         CommentRepository
	Issues       issue.IssueService
	IssueRepo    issue.IssueRepository
	Groups       group.GroupService
	AuditService audit.AuditService
	Config       *config.Config
}

func NewCommentService(
	repo CommentRepository,
	issues issue.IssueService,
	issueRepo issue.IssueRepository,
	groups group.GroupService,
	auditService audit.AuditService,
	cfg *config.Config,
) CommentService {
	return &CommentServiceImpl{
		Repo:         repo,
		Issues:       issues,
		IssueRepo:    issueRepo,
		Groups:       groups,
		AuditService: auditService,
		Config:       cfg,
	}
}

func (s *CommentServiceImpl) AddComment(ctx context.Context, actor, issueID primitive.ObjectID, content string, parent *primitive.ObjectID) (*Comment, error) {
	if content == "" {
		return nil, errors.New("comment content is required")
	}

	ownerGroup, err := s.Issues.OwnerGroupOf(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if err := s.Groups.Authorize(ctx, actor, ownerGroup, group.PermWrite); err != nil {
		return nil, err
	}

	if parent != nil {
		parentComment, err := s.Repo.FindByID(ctx, *parent)
		if err != nil {
			return nil, denyOnMissing(err)
		}
		if parentComment.Deleted {
			return nil, common_models.ErrPermissionDenied
		}
		// A reply may not jump issues.
		if parentComment.ParentIssue != issueID {
			return nil, common_models.ErrCrossIssueReply
		}
		depth, err := s.chainDepth(ctx, parentComment)
		if err != nil {
			return nil, err
		}
		if depth+1 > s.maxDepth() {
			return nil, ErrMaxDepthExceeded
		}
	}

	comment := &Comment{
		Content:       content,
		ParentIssue:   issueID,
		ParentComment: parent,
		CreatedBy:     actor,
	}
	if err := s.Repo.Create(ctx, comment); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "comments", comment.ID.Hex(), nil)
	return comment, nil
}

func (s *CommentServiceImpl) maxDepth() int {
	if s.Config != nil && s.Config.MaxCommentDepth > 0 {
		return s.Config.MaxCommentDepth
	}
	return 64
}

// chainDepth walks the parent chain upward. The walk is bounded by the depth
// limit, so a corrupt cyclic chain terminates with ErrMaxDepthExceeded
// instead of looping.
func (s *CommentServiceImpl) chainDepth(ctx context.Context, c *Comment) (int, error) {
	depth := 1
	for c.ParentComment != nil {
		if depth >= s.maxDepth() {
			return depth, ErrMaxDepthExceeded
		}
		next, err := s.Repo.FindByID(ctx, *c.ParentComment)
		if err != nil {
			if errors.Is(err, common_models.ErrNotFound) {
				return depth, nil
			}
			return depth, err
		}
		c = next
		depth++
	}
	return depth, nil
}

func (s *CommentServiceImpl) EditComment(ctx context.Context, actor, commentID primitive.ObjectID, content string) (*Comment, error) {
	comment, ownerGroup, err := s.load(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.Groups.Authorize(ctx, actor, ownerGroup, group.PermWrite); err != nil {
		return nil, err
	}

	comment.Content = content
	if err := s.Repo.Save(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentServiceImpl) DeleteComment(ctx context.Context, actor, commentID primitive.ObjectID) error {
	comment, ownerGroup, err := s.load(ctx, commentID)
	if err != nil {
		return err
	}
	if err := s.Groups.Authorize(ctx, actor, ownerGroup, group.PermWrite); err != nil {
		return err
	}

	comment.Deleted = true
	if err := s.Repo.Save(ctx, comment); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "comments", commentID.Hex(), nil)
	return nil
}

func (s *CommentServiceImpl) ToggleReaction(ctx context.Context, actor, commentID primitive.ObjectID, kind ReactionKind, add bool) (map[string]int, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown reaction kind %q", kind)
	}

	comment, ownerGroup, err := s.load(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.Groups.Authorize(ctx, actor, ownerGroup, group.PermWrite); err != nil {
		return nil, err
	}

	if comment.Reactions == nil {
		comment.Reactions = map[string][]primitive.ObjectID{}
	}
	if toggleReaction(comment.Reactions, kind, actor, add) {
		if err := s.Repo.Save(ctx, comment); err != nil {
			return nil, err
		}
	}
	return ReactionCounts(comment.Reactions), nil
}

func (s *CommentServiceImpl) ToggleIssueReaction(ctx context.Context, actor, issueID primitive.ObjectID, kind ReactionKind, add bool) (map[string]int, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown reaction kind %q", kind)
	}

	ownerGroup, err := s.Issues.OwnerGroupOf(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if err := s.Groups.Authorize(ctx, actor, ownerGroup, group.PermWrite); err != nil {
		return nil, err
	}

	is, err := s.IssueRepo.FindByID(ctx, issueID)
	if err != nil {
		return nil, denyOnMissing(err)
	}
	if is.Reactions == nil {
		is.Reactions = map[string][]primitive.ObjectID{}
	}
	if toggleReaction(is.Reactions, kind, actor, add) {
		if err := s.IssueRepo.Save(ctx, is); err != nil {
			return nil, err
		}
	}
	return ReactionCounts(is.Reactions), nil
}

func (s *CommentServiceImpl) Tree(ctx context.Context, actor, issueID primitive.ObjectID) ([]*Node, error) {
	ownerGroup, err := s.Issues.OwnerGroupOf(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if err := s.Groups.Authorize(ctx, actor, ownerGroup, group.PermRead); err != nil {
		return nil, err
	}

	comments, err := s.Repo.FindByIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	return BuildTree(comments, s.maxDepth()), nil
}

// BuildTree groups comments by parent and reconstructs the reply hierarchy.
// Deleted comments are dropped along with their subtrees. Nesting past
// maxDepth is cut off rather than recursed into.
func BuildTree(comments []Comment, maxDepth int) []*Node {
	byParent := make(map[primitive.ObjectID][]Comment)
	var roots []Comment
	for _, c := range comments {
		if c.Deleted {
			continue
		}
		if c.ParentComment == nil {
			roots = append(roots, c)
			continue
		}
		byParent[*c.ParentComment] = append(byParent[*c.ParentComment], c)
	}

	sortByCreation(roots)
	nodes := make([]*Node, 0, len(roots))
	for _, c := range roots {
		nodes = append(nodes, buildNode(c, byParent, 1, maxDepth))
	}
	return nodes
}

func buildNode(c Comment, byParent map[primitive.ObjectID][]Comment, depth, maxDepth int) *Node {
	node := &Node{Comment: c, Children: []*Node{}}
	if depth >= maxDepth {
		return node
	}
	children := byParent[c.ID]
	sortByCreation(children)
	for _, child := range children {
		node.Children = append(node.Children, buildNode(child, byParent, depth+1, maxDepth))
	}
	return node
}

func sortByCreation(comments []Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID.Hex() < comments[j].ID.Hex()
		}
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
}

func (s *CommentServiceImpl) load(ctx context.Context, commentID primitive.ObjectID) (*Comment, primitive.ObjectID, error) {
	comment, err := s.Repo.FindByID(ctx, commentID)
	if err != nil {
		return nil, primitive.NilObjectID, denyOnMissing(err)
	}
	if comment.Deleted {
		return nil, primitive.NilObjectID, common_models.ErrPermissionDenied
	}
	ownerGroup, err := s.Issues.OwnerGroupOf(ctx, comment.ParentIssue)
	if err != nil {
		return nil, primitive.NilObjectID, err
	}
	return comment, ownerGroup, nil
}

func denyOnMissing(err error) error {
	if errors.Is(err, common_models.ErrNotFound) {
		return common_models.ErrPermissionDenied
	}
	return err
}
