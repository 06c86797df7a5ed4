package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	common_models "github.com/garden-co/locality/internal/common/models"
	"github.com/garden-co/locality/internal/features/group"
	"github.com/garden-co/locality/internal/features/organization"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PresenceService interface {
	// Append records a status signal for the calling actor's session. The
	// write is skipped when the actor's derived status would not change, so
	// repeated signals never grow the feed.
	Append(ctx context.Context, actor, orgID primitive.ObjectID, session string, status PresenceStatus) error

	// Current derives one actor's status from their feed; offline when the
	// feed is empty.
	Current(ctx context.Context, actor, orgID, subject primitive.ObjectID) (PresenceStatus, error)

	// Snapshot derives every actor's status in the organization.
	Snapshot(ctx context.Context, actor, orgID primitive.ObjectID) (map[primitive.ObjectID]PresenceStatus, error)

	// Subscribe streams status updates for the organization until the
	// returned unsubscribe function is called.
	Subscribe(ctx context.Context, actor, orgID primitive.ObjectID) (<-chan StatusUpdate, func(), error)
}

type PresenceServiceImpl struct {
	Repo   PresenceRepository
	Orgs   organization.OrganizationService
	Groups group.GroupService
	Hub    *Hub
}

func NewPresenceService(
	repo PresenceRepository,
	orgs organization.OrganizationService,
	groups group.GroupService,
	hub *Hub,
) PresenceService {
	return &PresenceServiceImpl{
		Repo:   repo,
		Orgs:   orgs,
		Groups: groups,
		Hub:    hub,
	}
}

func (s *PresenceServiceImpl) authorize(ctx context.Context, actor, orgID primitive.ObjectID, perm group.Permission) error {
	ownerGroup, err := s.Orgs.OwnerGroupOf(ctx, orgID)
	if err != nil {
		if errors.Is(err, common_models.ErrNotFound) {
			return common_models.ErrPermissionDenied
		}
		return err
	}
	return s.Groups.Authorize(ctx, actor, ownerGroup, perm)
}

// member admits any grant on the organization's group, including write-only
// ones: every member may emit their own presence signals.
func (s *PresenceServiceImpl) member(ctx context.Context, actor, orgID primitive.ObjectID) error {
	ownerGroup, err := s.Orgs.OwnerGroupOf(ctx, orgID)
	if err != nil {
		if errors.Is(err, common_models.ErrNotFound) {
			return common_models.ErrPermissionDenied
		}
		return err
	}
	_, ok, err := s.Groups.RoleOf(ctx, ownerGroup, actor)
	if err != nil {
		return err
	}
	if !ok {
		return common_models.ErrPermissionDenied
	}
	return nil
}

func (s *PresenceServiceImpl) Append(ctx context.Context, actor, orgID primitive.ObjectID, session string, status PresenceStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown presence status %q", status)
	}
	if session == "" {
		return errors.New("session identifier is required")
	}
	if err := s.member(ctx, actor, orgID); err != nil {
		return err
	}

	events, err := s.Repo.FindByActor(ctx, orgID, actor)
	if err != nil {
		return err
	}
	if Derive(events) == status {
		return nil
	}

	event := &PresenceEvent{
		Actor:        actor,
		Organization: orgID,
		Session:      session,
		Status:       status,
		At:           time.Now(),
	}
	if err := s.Repo.Append(ctx, event); err != nil {
		return err
	}

	// Recompute only the affected actor, never the whole organization.
	events = append(events, *event)
	s.Hub.Publish(orgID, StatusUpdate{Actor: actor, Status: Derive(events)})
	return nil
}

func (s *PresenceServiceImpl) Current(ctx context.Context, actor, orgID, subject primitive.ObjectID) (PresenceStatus, error) {
	if err := s.authorize(ctx, actor, orgID, group.PermRead); err != nil {
		return "", err
	}
	events, err := s.Repo.FindByActor(ctx, orgID, subject)
	if err != nil {
		return "", err
	}
	return Derive(events), nil
}

func (s *PresenceServiceImpl) Snapshot(ctx context.Context, actor, orgID primitive.ObjectID) (map[primitive.ObjectID]PresenceStatus, error) {
	if err := s.authorize(ctx, actor, orgID, group.PermRead); err != nil {
		return nil, err
	}
	events, err := s.Repo.FindByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return DeriveAll(events), nil
}

func (s *PresenceServiceImpl) Subscribe(ctx context.Context, actor, orgID primitive.ObjectID) (<-chan StatusUpdate, func(), error) {
	if err := s.authorize(ctx, actor, orgID, group.PermRead); err != nil {
		return nil, nil, err
	}
	ch, unsubscribe := s.Hub.Subscribe(orgID)
	return ch, unsubscribe, nil
}
