package organization

import (
	common_api "github.com/garden-co/locality/internal/common/api"
	"github.com/garden-co/locality/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrganizationController struct {
	Service OrganizationService
}

func NewOrganizationController(service OrganizationService) *OrganizationController {
	return &OrganizationController{Service: service}
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

// CreateOrganization godoc
func (ctrl *OrganizationController) CreateOrganization(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	org, err := ctrl.Service.CreateOrganization(c.Context(), actor, body.Name)
	if err != nil {
		return common_api.Fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": org})
}

// ListOrganizations godoc
func (ctrl *OrganizationController) ListOrganizations(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	orgs, err := ctrl.Service.ListForMember(c.Context(), actor)
	if err != nil {
		return common_api.Fail(c, err)
	}
	return c.JSON(fiber.Map{"data": orgs})
}

// GetOrganization godoc
func (ctrl *OrganizationController) GetOrganization(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	orgID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		// Fall back to slug routing, matching the client's /{orgSlug} paths
		org, serr := ctrl.Service.GetBySlug(c.Context(), actor, c.Params("id"))
		if serr != nil {
			return common_api.Fail(c, serr)
		}
		return c.JSON(fiber.Map{"data": org})
	}

	org, err := ctrl.Service.Get(c.Context(), actor, orgID)
	if err != nil {
		return common_api.Fail(c, err)
	}
	return c.JSON(fiber.Map{"data": org})
}

// DeleteOrganization godoc
func (ctrl *OrganizationController) DeleteOrganization(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	orgID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid organization ID"})
	}

	if err := ctrl.Service.Delete(c.Context(), actor, orgID); err != nil {
		return common_api.Fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Organization deleted"})
}

// ListMembers godoc
func (ctrl *OrganizationController) ListMembers(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	orgID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid organization ID"})
	}

	members, err := ctrl.Service.Members(c.Context(), actor, orgID)
	if err != nil {
		return common_api.Fail(c, err)
	}
	return c.JSON(fiber.Map{"data": members})
}

// CreateLabel godoc
func (ctrl *OrganizationController) CreateLabel(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	orgID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid organization ID"})
	}

	var body struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	label, err := ctrl.Service.CreateLabel(c.Context(), actor, orgID, body.Name, body.Color)
	if err != nil {
		return common_api.Fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": label})
}

// ListLabels godoc
func (ctrl *OrganizationController) ListLabels(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	orgID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid organization ID"})
	}

	labels, err := ctrl.Service.ListLabels(c.Context(), actor, orgID)
	if err != nil {
		return common_api.Fail(c, err)
	}
	return c.JSON(fiber.Map{"data": labels})
}

// DeleteLabel godoc
func (ctrl *OrganizationController) DeleteLabel(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	labelID, err := primitive.ObjectIDFromHex(c.Params("labelId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid label ID"})
	}

	if err := ctrl.Service.DeleteLabel(c.Context(), actor, labelID); err != nil {
		return common_api.Fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Label deleted"})
}
