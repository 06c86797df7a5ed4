package issue

import (
	"context"
	"errors"
	"fmt"
	"time"

	common_models "github.com/garden-co/locality/internal/common/models"
	"github.com/garden-co/locality/internal/features/audit"
	"github.com/garden-co/locality/internal/features/group"
	"github.com/garden-co/locality/internal/features/organization"
	"github.com/garden-co/locality/internal/features/team"
	"github.com/garden-co/locality/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateIssueInput struct {
	Team        primitive.ObjectID
	Title       string
	Description string
	Status      Status
	Priority    Priority
	Assignee    *primitive.ObjectID
	ParentIssue *primitive.ObjectID
	Labels      []primitive.ObjectID
	Estimate    int
	DueDate     *time.Time
}

// UpdateIssueInput patches only the fields that are set.
type UpdateIssueInput struct {
	Title         *string
	Description   *string
	Status        *Status
	Priority      *Priority
	Assignee      *primitive.ObjectID
	ClearAssignee bool
	Labels        *[]primitive.ObjectID
	Estimate      *int
	DueDate       *time.Time
}

type IssueService interface {
	CreateIssue(ctx context.Context, actor primitive.ObjectID, input CreateIssueInput) (*Issue, error)
	Get(ctx context.Context, actor, issueID primitive.ObjectID) (*Issue, error)
	ListForTeam(ctx context.Context, actor, teamID primitive.ObjectID) ([]Issue, error)
	QueryForTeam(ctx context.Context, actor, teamID primitive.ObjectID, opts FilterOptions, query string) ([]Issue, error)
	GroupedForTeam(ctx context.Context, actor, teamID primitive.ObjectID) (map[Status][]Issue, error)
	Update(ctx context.Context, actor, issueID primitive.ObjectID, input UpdateIssueInput) (*Issue, error)
	Reparent(ctx context.Context, actor, issueID primitive.ObjectID, newParent *primitive.ObjectID) error
	Delete(ctx context.Context, actor, issueID primitive.ObjectID) error
	AddAttachment(ctx context.Context, actor, issueID primitive.ObjectID, att Attachment) (*Issue, error)
	ExportForTeam(ctx context.Context, actor, teamID primitive.ObjectID) ([]byte, string, error)

	// OwnerGroupOf resolves an issue to its team's owning group so comment
	// and reaction writes can be gated on it.
	OwnerGroupOf(ctx context.Context, issueID primitive.ObjectID) (primitive.ObjectID, error)
}

type IssueServiceImpl struct {
	Repo         IssueRepository
	Teams        team.TeamRepository
	Orgs         organization.OrganizationRepository
	Groups       group.GroupService
	AuditService audit.AuditService
}

func NewIssueService(
	repo IssueRepository,
	teams team.TeamRepository,
	orgs organization.OrganizationRepository,
	groups group.GroupService,
	auditService audit.AuditService,
) IssueService {
	return &IssueServiceImpl{
		Repo:         repo,
		Teams:        teams,
		Orgs:         orgs,
		Groups:       groups,
		AuditService: auditService,
	}
}

func (s *IssueServiceImpl) CreateIssue(ctx context.Context, actor primitive.ObjectID, input CreateIssueInput) (*Issue, error) {
	if input.Title == "" {
		return nil, errors.New("issue title is required")
	}
	if input.Status == "" {
		input.Status = StatusBacklog
	}
	if !input.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q", input.Status)
	}
	if input.Priority == "" {
		input.Priority = PriorityNone
	}
	if !input.Priority.Valid() {
		return nil, fmt.Errorf("unknown priority %q", input.Priority)
	}

	tm, err := s.Teams.FindByID(ctx, input.Team)
	if err != nil {
		return nil, denyOnMissing(err)
	}
	if tm.Deleted {
		return nil, common_models.ErrPermissionDenied
	}
	if err := s.Groups.Authorize(ctx, actor, tm.OwnerGroup, group.PermWrite); err != nil {
		return nil, err
	}

	if input.Assignee != nil {
		if err := s.checkAssignee(ctx, tm.OwnerGroup, *input.Assignee); err != nil {
			return nil, err
		}
	}

	var parent *Issue
	if input.ParentIssue != nil {
		parent, err = s.Repo.FindByID(ctx, *input.ParentIssue)
		if err != nil {
			return nil, denyOnMissing(err)
		}
		if parent.Deleted {
			return nil, common_models.ErrPermissionDenied
		}
		// Sub-issues stay in the parent's team unless re-parented explicitly.
		if parent.Team != tm.ID {
			return nil, errors.New("sub-issue must share the parent's team")
		}
	}

	identifier, err := s.nextIdentifier(ctx, tm.Organization, parent)
	if err != nil {
		return nil, err
	}

	issue := &Issue{
		Identifier:         identifier,
		Title:              input.Title,
		Description:        input.Description,
		Status:             input.Status,
		Priority:           input.Priority,
		Assignee:           input.Assignee,
		Team:               tm.ID,
		ParentOrganization: tm.Organization,
		ParentIssue:        input.ParentIssue,
		Labels:             input.Labels,
		Estimate:           input.Estimate,
		DueDate:            input.DueDate,
		CreatedBy:          actor,
	}
	if err := s.Repo.Create(ctx, issue); err != nil {
		return nil, err
	}

	if parent != nil {
		parent.ChildIssues = append(parent.ChildIssues, issue.ID)
		if err := s.Repo.Save(ctx, parent); err != nil {
			return nil, err
		}
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "issues", issue.ID.Hex(), map[string]common_models.Change{
		"issue": {New: issue.Identifier},
	})
	return issue, nil
}

// nextIdentifier hands out "{orgInitials}-{n}" for top-level issues and
// "{parentIdentifier}-{n}" for sub-issues. The sequence comes from the store,
// so two concurrent creators can never mint the same identifier.
func (s *IssueServiceImpl) nextIdentifier(ctx context.Context, orgID primitive.ObjectID, parent *Issue) (string, error) {
	if parent != nil {
		n, err := s.Repo.NextSequence(ctx, parent.ID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s-%d", parent.Identifier, n), nil
	}

	org, err := s.Orgs.FindByID(ctx, orgID)
	if err != nil {
		return "", err
	}
	n, err := s.Repo.NextSequence(ctx, org.ID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d", utils.Initials(org.Name), n), nil
}

func (s *IssueServiceImpl) checkAssignee(ctx context.Context, ownerGroup, assignee primitive.ObjectID) error {
	_, ok, err := s.Groups.RoleOf(ctx, ownerGroup, assignee)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAssigneeNotMember
	}
	return nil
}

func (s *IssueServiceImpl) Get(ctx context.Context, actor, issueID primitive.ObjectID) (*Issue, error) {
	issue, ownerGroup, err := s.load(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if err := s.Groups.Authorize(ctx, actor, ownerGroup, group.PermRead); err != nil {
		return nil, err
	}
	return issue, nil
}

// load fetches an issue and its owning group, denying on anything missing or
// soft-deleted.
func (s *IssueServiceImpl) load(ctx context.Context, issueID primitive.ObjectID) (*Issue, primitive.ObjectID, error) {
	issue, err := s.Repo.FindByID(ctx, issueID)
	if err != nil {
		return nil, primitive.NilObjectID, denyOnMissing(err)
	}
	if issue.Deleted {
		return nil, primitive.NilObjectID, common_models.ErrPermissionDenied
	}
	tm, err := s.Teams.FindByID(ctx, issue.Team)
	if err != nil {
		return nil, primitive.NilObjectID, denyOnMissing(err)
	}
	return issue, tm.OwnerGroup, nil
}

func (s *IssueServiceImpl) ListForTeam(ctx context.Context, actor, teamID primitive.ObjectID) ([]Issue, error) {
	tm, err := s.Teams.FindByID(ctx, teamID)
	if err != nil {
		return nil, denyOnMissing(err)
	}
	if tm.Deleted {
		return nil, common_models.ErrPermissionDenied
	}
	if err := s.Groups.Authorize(ctx, actor, tm.OwnerGroup, group.PermRead); err != nil {
		return nil, err
	}

	issues, err := s.Repo.FindByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	visible := issues[:0]
	for _, is := range issues {
		if !is.Deleted {
			visible = append(visible, is)
		}
	}
	return visible, nil
}

func (s *IssueServiceImpl) QueryForTeam(ctx context.Context, actor, teamID primitive.ObjectID, opts FilterOptions, query string) ([]Issue, error) {
	issues, err := s.ListForTeam(ctx, actor, teamID)
	if err != nil {
		return nil, err
	}
	return Query(issues, opts, query), nil
}

func (s *IssueServiceImpl) GroupedForTeam(ctx context.Context, actor, teamID primitive.ObjectID) (map[Status][]Issue, error) {
	issues, err := s.ListForTeam(ctx, actor, teamID)
	if err != nil {
		return nil, err
	}
	return GroupByStatus(issues), nil
}

func (s *IssueServiceImpl) Update(ctx context.Context, actor, issueID primitive.ObjectID, input UpdateIssueInput) (*Issue, error) {
	issue, ownerGroup, err := s.load(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if err := s.Groups.Authorize(ctx, actor, ownerGroup, group.PermWrite); err != nil {
		return nil, err
	}

	changes := map[string]common_models.Change{}
	if input.Title != nil && *input.Title != issue.Title {
		changes["title"] = common_models.Change{Old: issue.Title, New: *input.Title}
		issue.Title = *input.Title
	}
	if input.Description != nil {
		issue.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, fmt.Errorf("unknown status %q", *input.Status)
		}
		changes["status"] = common_models.Change{Old: string(issue.Status), New: string(*input.Status)}
		issue.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, fmt.Errorf("unknown priority %q", *input.Priority)
		}
		issue.Priority = *input.Priority
	}
	if input.ClearAssignee {
		issue.Assignee = nil
	} else if input.Assignee != nil {
		if err := s.checkAssignee(ctx, ownerGroup, *input.Assignee); err != nil {
			return nil, err
		}
		issue.Assignee = input.Assignee
	}
	if input.Labels != nil {
		issue.Labels = *input.Labels
	}
	if input.Estimate != nil {
		issue.Estimate = *input.Estimate
	}
	if input.DueDate != nil {
		issue.DueDate = input.DueDate
	}

	if err := s.Repo.Save(ctx, issue); err != nil {
		return nil, err
	}
	if len(changes) > 0 {
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "issues", issueID.Hex(), changes)
	}
	return issue, nil
}

func (s *IssueServiceImpl) Reparent(ctx context.Context, actor, issueID primitive.ObjectID, newParent *primitive.ObjectID) error {
	issue, ownerGroup, err := s.load(ctx, issueID)
	if err != nil {
		return err
	}
	if err := s.Groups.Authorize(ctx, actor, ownerGroup, group.PermWrite); err != nil {
		return err
	}

	// Re-parenting onto the current parent is a no-op; detaching and
	// re-appending would leave the back-references inconsistent.
	if newParent == nil && issue.ParentIssue == nil {
		return nil
	}
	if newParent != nil && issue.ParentIssue != nil && *newParent == *issue.ParentIssue {
		return nil
	}

	var parent *Issue
	if newParent != nil {
		if *newParent == issueID {
			return ErrCyclicIssue
		}
		parent, err = s.Repo.FindByID(ctx, *newParent)
		if err != nil {
			return denyOnMissing(err)
		}
		if parent.Deleted {
			return common_models.ErrPermissionDenied
		}
		ancestor, err := s.isAncestor(ctx, issueID, parent)
		if err != nil {
			return err
		}
		if ancestor {
			return ErrCyclicIssue
		}
		if parent.Team != issue.Team || parent.ParentOrganization != issue.ParentOrganization {
			return errors.New("sub-issue must share the parent's team")
		}
	}

	if issue.ParentIssue != nil {
		if err := s.detachChild(ctx, *issue.ParentIssue, issueID); err != nil {
			return err
		}
	}

	if parent != nil {
		if !containsID(parent.ChildIssues, issueID) {
			parent.ChildIssues = append(parent.ChildIssues, issueID)
			if err := s.Repo.Save(ctx, parent); err != nil {
				return err
			}
		}
	}

	issue.ParentIssue = newParent
	return s.Repo.Save(ctx, issue)
}

// isAncestor walks the parent chain from node looking for candidate.
func (s *IssueServiceImpl) isAncestor(ctx context.Context, candidate primitive.ObjectID, node *Issue) (bool, error) {
	for node.ParentIssue != nil {
		if *node.ParentIssue == candidate {
			return true, nil
		}
		next, err := s.Repo.FindByID(ctx, *node.ParentIssue)
		if err != nil {
			if errors.Is(err, common_models.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		node = next
	}
	return false, nil
}

func (s *IssueServiceImpl) detachChild(ctx context.Context, parentID, childID primitive.ObjectID) error {
	parent, err := s.Repo.FindByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, common_models.ErrNotFound) {
			return nil
		}
		return err
	}
	kept := parent.ChildIssues[:0]
	for _, c := range parent.ChildIssues {
		if c != childID {
			kept = append(kept, c)
		}
	}
	parent.ChildIssues = kept
	return s.Repo.Save(ctx, parent)
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func (s *IssueServiceImpl) Delete(ctx context.Context, actor, issueID primitive.ObjectID) error {
	issue, ownerGroup, err := s.load(ctx, issueID)
	if err != nil {
		return err
	}
	if err := s.Groups.Authorize(ctx, actor, ownerGroup, group.PermWrite); err != nil {
		return err
	}

	issue.Deleted = true
	if err := s.Repo.Save(ctx, issue); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "issues", issueID.Hex(), nil)
	return nil
}

func (s *IssueServiceImpl) AddAttachment(ctx context.Context, actor, issueID primitive.ObjectID, att Attachment) (*Issue, error) {
	issue, ownerGroup, err := s.load(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if err := s.Groups.Authorize(ctx, actor, ownerGroup, group.PermWrite); err != nil {
		return nil, err
	}

	att.ID = primitive.NewObjectID()
	att.UploadedBy = actor
	att.CreatedAt = time.Now()
	issue.Attachments = append(issue.Attachments, att)

	if err := s.Repo.Save(ctx, issue); err != nil {
		return nil, err
	}
	return issue, nil
}

func (s *IssueServiceImpl) OwnerGroupOf(ctx context.Context, issueID primitive.ObjectID) (primitive.ObjectID, error) {
	_, ownerGroup, err := s.load(ctx, issueID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return ownerGroup, nil
}

func denyOnMissing(err error) error {
	if errors.Is(err, common_models.ErrNotFound) {
		return common_models.ErrPermissionDenied
	}
	return err
}
