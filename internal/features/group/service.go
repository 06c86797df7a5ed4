package group

import (
	"context"
	"errors"
	"sync"
	"time"

	common_models "github.com/garden-co/locality/internal/common/models"
	"github.com/garden-co/locality/internal/config"
	"github.com/garden-co/locality/internal/features/audit"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GroupService interface {
	// CreateGroup creates a new group with the creator as sole admin.
	CreateGroup(ctx context.Context, creator primitive.ObjectID) (*GroupRecord, error)

	// Extend makes child inherit parent's grants for present and future
	// members. Fails with ErrCyclicExtension if parent transitively extends
	// child.
	Extend(ctx context.Context, actor, childID, parentID primitive.ObjectID) error

	// RoleOf returns the member's effective role: the max over the direct
	// grant and every grant in the extension closure. ok is false when the
	// identity is absent everywhere in the closure.
	RoleOf(ctx context.Context, groupID, userID primitive.ObjectID) (role Role, ok bool, err error)

	// Authorize is the single entry-point permission check called by every
	// mutating operation. It returns the opaque ErrPermissionDenied both for
	// a missing group and for an insufficient role.
	Authorize(ctx context.Context, actor, groupID primitive.ObjectID, required Permission) error

	AddMember(ctx context.Context, actor, groupID, userID primitive.ObjectID, role Role) error

	// RemoveMember revokes the direct grant in this group only. Inherited
	// grants from parent groups are untouched. Subsequent capability checks
	// for the removed identity fail immediately; prior writes are not rolled
	// back.
	RemoveMember(ctx context.Context, actor, groupID, userID primitive.ObjectID) error

	IssueInvite(ctx context.Context, actor, groupID primitive.ObjectID, role Role, singleUse bool) (secret string, err error)
	RedeemInvite(ctx context.Context, groupID primitive.ObjectID, secret string, identity primitive.ObjectID) (Role, error)
	RevokeInvite(ctx context.Context, actor, groupID primitive.ObjectID, secret string) error

	Members(ctx context.Context, actor, groupID primitive.ObjectID) (map[string]Role, error)
}

type GroupServiceImpl struct {
	repo         GroupRepository
	auditService audit.AuditService
	cfg          *config.Config

	// The member and invite maps are the only structures requiring serialized
	// mutation; everything else is entity-local.
	mu    sync.Mutex
	locks map[primitive.ObjectID]*sync.Mutex
}

func NewGroupService(repo GroupRepository, auditService audit.AuditService, cfg *config.Config) GroupService {
	return &GroupServiceImpl{
		repo:         repo,
		auditService: auditService,
		cfg:          cfg,
		locks:        make(map[primitive.ObjectID]*sync.Mutex),
	}
}

func (s *GroupServiceImpl) lockFor(id primitive.ObjectID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[id] == nil {
		s.locks[id] = &sync.Mutex{}
	}
	return s.locks[id]
}

func (s *GroupServiceImpl) CreateGroup(ctx context.Context, creator primitive.ObjectID) (*GroupRecord, error) {
	record := &GroupRecord{
		Members: map[string]Role{creator.Hex(): RoleAdmin},
		Extends: []primitive.ObjectID{},
		Invites: map[string]Invite{},
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}
	_ = s.auditService.LogChange(ctx, common_models.AuditActionGroup, "groups", record.ID.Hex(), map[string]common_models.Change{
		"created": {New: creator.Hex()},
	})
	return record, nil
}

// closure walks the extension graph breadth-first, deduplicating shared
// ancestors so diamond-shaped graphs are visited once per group.
func (s *GroupServiceImpl) closure(ctx context.Context, groupID primitive.ObjectID) ([]*GroupRecord, error) {
	visited := map[primitive.ObjectID]bool{}
	queue := []primitive.ObjectID{groupID}
	var records []*GroupRecord

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		record, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, common_models.ErrNotFound) {
				continue
			}
			return nil, err
		}
		records = append(records, record)
		queue = append(queue, record.Extends...)
	}
	return records, nil
}

func (s *GroupServiceImpl) RoleOf(ctx context.Context, groupID, userID primitive.ObjectID) (Role, bool, error) {
	records, err := s.closure(ctx, groupID)
	if err != nil {
		return "", false, err
	}
	if len(records) == 0 || records[0].ID != groupID || records[0].Deleted {
		return "", false, nil
	}

	var effective Role
	found := false
	key := userID.Hex()
	for _, record := range records {
		if record.Deleted {
			continue
		}
		if role, ok := record.Members[key]; ok {
			effective = maxRole(effective, role)
			found = true
		}
	}
	return effective, found, nil
}

func (s *GroupServiceImpl) Authorize(ctx context.Context, actor, groupID primitive.ObjectID, required Permission) error {
	role, ok, err := s.RoleOf(ctx, groupID, actor)
	if err != nil {
		return err
	}
	if !ok || !role.Satisfies(required) {
		return common_models.ErrPermissionDenied
	}
	return nil
}

func (s *GroupServiceImpl) Extend(ctx context.Context, actor, childID, parentID primitive.ObjectID) error {
	lock := s.lockFor(childID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.Authorize(ctx, actor, childID, PermAdmin); err != nil {
		return err
	}

	child, err := s.repo.FindByID(ctx, childID)
	if err != nil {
		return denyOnMissing(err)
	}
	if _, err := s.repo.FindByID(ctx, parentID); err != nil {
		return denyOnMissing(err)
	}

	if childID == parentID {
		return common_models.ErrCyclicExtension
	}
	cyclic, err := s.reaches(ctx, parentID, childID)
	if err != nil {
		return err
	}
	if cyclic {
		return common_models.ErrCyclicExtension
	}

	for _, id := range child.Extends {
		if id == parentID {
			return nil // already extended
		}
	}
	child.Extends = append(child.Extends, parentID)
	if err := s.repo.Save(ctx, child); err != nil {
		return err
	}

	_ = s.auditService.LogChange(ctx, common_models.AuditActionGroup, "groups", childID.Hex(), map[string]common_models.Change{
		"extends": {New: parentID.Hex()},
	})
	return nil
}

// reaches reports whether `from` transitively extends `target`.
func (s *GroupServiceImpl) reaches(ctx context.Context, from, target primitive.ObjectID) (bool, error) {
	visited := map[primitive.ObjectID]bool{}
	stack := []primitive.ObjectID{from}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == target {
			return true, nil
		}
		if visited[id] {
			continue
		}
		visited[id] = true

		record, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, common_models.ErrNotFound) {
				continue
			}
			return false, err
		}
		stack = append(stack, record.Extends...)
	}
	return false, nil
}

func (s *GroupServiceImpl) AddMember(ctx context.Context, actor, groupID, userID primitive.ObjectID, role Role) error {
	if !role.Valid() {
		return common_models.ErrPermissionDenied
	}

	lock := s.lockFor(groupID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.Authorize(ctx, actor, groupID, PermAdmin); err != nil {
		return err
	}

	record, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return denyOnMissing(err)
	}

	record.Members[userID.Hex()] = role
	if err := s.repo.Save(ctx, record); err != nil {
		return err
	}

	_ = s.auditService.LogChange(ctx, common_models.AuditActionGroup, "groups", groupID.Hex(), map[string]common_models.Change{
		"member_added": {New: userID.Hex()},
	})
	return nil
}

func (s *GroupServiceImpl) RemoveMember(ctx context.Context, actor, groupID, userID primitive.ObjectID) error {
	lock := s.lockFor(groupID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.Authorize(ctx, actor, groupID, PermAdmin); err != nil {
		return err
	}

	record, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return denyOnMissing(err)
	}

	delete(record.Members, userID.Hex())
	if err := s.repo.Save(ctx, record); err != nil {
		return err
	}

	_ = s.auditService.LogChange(ctx, common_models.AuditActionGroup, "groups", groupID.Hex(), map[string]common_models.Change{
		"member_removed": {Old: userID.Hex()},
	})
	return nil
}

func (s *GroupServiceImpl) IssueInvite(ctx context.Context, actor, groupID primitive.ObjectID, role Role, singleUse bool) (string, error) {
	if !role.Valid() {
		return "", common_models.ErrPermissionDenied
	}

	lock := s.lockFor(groupID)
	lock.Lock()
	defer lock.Unlock()

	actorRole, ok, err := s.RoleOf(ctx, groupID, actor)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", common_models.ErrPermissionDenied
	}

	// Admins may mint any role. Writers may mint reader/writeOnly invites for
	// their own group when the policy allows it.
	if !actorRole.CanAdmin() {
		writerMintable := role == RoleReader || role == RoleWriteOnly
		if !s.cfg.AllowWriterInvites || !actorRole.CanWrite() || !writerMintable {
			return "", common_models.ErrPermissionDenied
		}
	}

	record, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return "", denyOnMissing(err)
	}

	secret, err := NewInviteSecret()
	if err != nil {
		return "", err
	}
	hash := HashSecret(secret)

	record.Invites[hash] = Invite{
		SecretHash: hash,
		Role:       role,
		SingleUse:  singleUse,
		ExpiresAt:  time.Now().Add(time.Duration(s.cfg.InviteTTLHours) * time.Hour),
		CreatedBy:  actor,
		CreatedAt:  time.Now(),
	}
	if err := s.repo.Save(ctx, record); err != nil {
		return "", err
	}

	_ = s.auditService.LogChange(ctx, common_models.AuditActionInvite, "groups", groupID.Hex(), map[string]common_models.Change{
		"invite_issued": {New: string(role)},
	})
	return secret, nil
}

func (s *GroupServiceImpl) RedeemInvite(ctx context.Context, groupID primitive.ObjectID, secret string, identity primitive.ObjectID) (Role, error) {
	lock := s.lockFor(groupID)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, common_models.ErrNotFound) {
			return "", common_models.ErrInvalidInvite
		}
		return "", err
	}

	hash := HashSecret(secret)
	invite, ok := record.Invites[hash]
	if !ok || invite.Revoked || time.Now().After(invite.ExpiresAt) {
		return "", common_models.ErrInvalidInvite
	}
	if invite.SingleUse && invite.Consumed {
		return "", common_models.ErrInvalidInvite
	}

	key := identity.Hex()
	record.Members[key] = maxRole(record.Members[key], invite.Role)

	invite.Consumed = true
	record.Invites[hash] = invite

	if err := s.repo.Save(ctx, record); err != nil {
		return "", err
	}

	_ = s.auditService.LogChange(ctx, common_models.AuditActionInvite, "groups", groupID.Hex(), map[string]common_models.Change{
		"invite_redeemed": {New: key},
	})
	return record.Members[key], nil
}

func (s *GroupServiceImpl) RevokeInvite(ctx context.Context, actor, groupID primitive.ObjectID, secret string) error {
	lock := s.lockFor(groupID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.Authorize(ctx, actor, groupID, PermAdmin); err != nil {
		return err
	}

	record, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return denyOnMissing(err)
	}

	hash := HashSecret(secret)
	invite, ok := record.Invites[hash]
	if !ok {
		return common_models.ErrInvalidInvite
	}
	invite.Revoked = true
	record.Invites[hash] = invite

	return s.repo.Save(ctx, record)
}

func (s *GroupServiceImpl) Members(ctx context.Context, actor, groupID primitive.ObjectID) (map[string]Role, error) {
	if err := s.Authorize(ctx, actor, groupID, PermRead); err != nil {
		return nil, err
	}

	record, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return nil, denyOnMissing(err)
	}

	members := make(map[string]Role, len(record.Members))
	for k, v := range record.Members {
		members[k] = v
	}
	return members, nil
}

// denyOnMissing collapses a store-level absence into the opaque denial so a
// caller cannot probe which groups exist.
func denyOnMissing(err error) error {
	if errors.Is(err, common_models.ErrNotFound) {
		return common_models.ErrPermissionDenied
	}
	return err
}
