package group

import (
	"context"

	common_api "github.com/garden-co/locality/internal/common/api"
	common_models "github.com/garden-co/locality/internal/common/models"
	"github.com/garden-co/locality/internal/config"
	"github.com/garden-co/locality/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EntityResolver maps an invite link's entity reference to the owning group.
// Implemented over the organization and team services in cmd/api.
type EntityResolver interface {
	OwnerGroup(ctx context.Context, entityType string, entityID primitive.ObjectID) (primitive.ObjectID, error)
}

type GroupController struct {
	Service  GroupService
	Resolver EntityResolver
	Config   *config.Config
}

func NewGroupController(service GroupService, resolver EntityResolver, cfg *config.Config) *GroupController {
	return &GroupController{
		Service:  service,
		Resolver: resolver,
		Config:   cfg,
	}
}

func actorID(c *fiber.Ctx) (primitive.ObjectID, error) {
	idStr, ok := middleware.ActorID(c)
	if !ok {
		return primitive.NilObjectID, fiber.NewError(fiber.StatusUnauthorized, "missing credentials")
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		return primitive.NilObjectID, fiber.NewError(fiber.StatusUnauthorized, "invalid user id")
	}
	return id, nil
}

// GetMembers godoc
func (ctrl *GroupController) GetMembers(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	groupID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	members, err := ctrl.Service.Members(c.Context(), actor, groupID)
	if err != nil {
		return common_api.Fail(c, err)
	}
	return c.JSON(fiber.Map{"data": members})
}

// AddMember godoc
func (ctrl *GroupController) AddMember(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	groupID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	var body struct {
		UserID string `json:"user_id"`
		Role   Role   `json:"role"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	userID, err := primitive.ObjectIDFromHex(body.UserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	if err := ctrl.Service.AddMember(c.Context(), actor, groupID, userID, body.Role); err != nil {
		return common_api.Fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Member added"})
}

// RemoveMember godoc
func (ctrl *GroupController) RemoveMember(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	groupID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}
	userID, err := primitive.ObjectIDFromHex(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	if err := ctrl.Service.RemoveMember(c.Context(), actor, groupID, userID); err != nil {
		return common_api.Fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Member removed"})
}

// Extend godoc
func (ctrl *GroupController) Extend(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	childID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	var body struct {
		ParentID string `json:"parent_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	parentID, err := primitive.ObjectIDFromHex(body.ParentID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid parent group ID"})
	}

	if err := ctrl.Service.Extend(c.Context(), actor, childID, parentID); err != nil {
		return common_api.Fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Group extended"})
}

// IssueInvite godoc
func (ctrl *GroupController) IssueInvite(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	var body struct {
		EntityType string `json:"entity_type"`
		EntityID   string `json:"entity_id"`
		Role       Role   `json:"role"`
		SingleUse  bool   `json:"single_use"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	entityID, err := primitive.ObjectIDFromHex(body.EntityID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid entity ID"})
	}

	groupID, err := ctrl.Resolver.OwnerGroup(c.Context(), body.EntityType, entityID)
	if err != nil {
		return common_api.Fail(c, err)
	}

	secret, err := ctrl.Service.IssueInvite(c.Context(), actor, groupID, body.Role, body.SingleUse)
	if err != nil {
		return common_api.Fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"secret": secret,
		"link":   EncodeInviteLink(ctrl.Config.BaseURL, body.EntityType, entityID, secret),
	})
}

// RedeemInvite handles the positional redemption path. The '#' was already
// stripped by the client; the three segments arrive as route params.
func (ctrl *GroupController) RedeemInvite(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	entityType := c.Params("entityType")
	entityID, parseErr := primitive.ObjectIDFromHex(c.Params("entityId"))
	secret := c.Params("secret")
	if parseErr != nil || (entityType != InviteEntityOrganization && entityType != InviteEntityTeam) || secret == "" {
		return common_api.Fail(c, common_models.ErrInvalidInvite)
	}

	groupID, err := ctrl.Resolver.OwnerGroup(c.Context(), entityType, entityID)
	if err != nil {
		return common_api.Fail(c, err)
	}

	role, err := ctrl.Service.RedeemInvite(c.Context(), groupID, secret, actor)
	if err != nil {
		return common_api.Fail(c, err)
	}
	return c.JSON(fiber.Map{"role": role})
}
