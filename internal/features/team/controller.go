package team

import (
	common_api "github.com/garden-co/locality/internal/common/api"
	"github.com/garden-co/locality/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TeamController struct {
	Service TeamService
}

func NewTeamController(service TeamService) *TeamController {
	return &TeamController{Service: service}
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

// CreateTeam godoc
func (ctrl *TeamController) CreateTeam(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	orgID, err := primitive.ObjectIDFromHex(c.Params("orgId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid organization ID"})
	}

	var body struct {
		Name  string `json:"name"`
		Icon  string `json:"icon"`
		Color string `json:"color"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	team, err := ctrl.Service.CreateTeam(c.Context(), actor, orgID, body.Name, body.Icon, body.Color)
	if err != nil {
		return common_api.Fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": team})
}

// ListTeams godoc
func (ctrl *TeamController) ListTeams(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	orgID, err := primitive.ObjectIDFromHex(c.Params("orgId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid organization ID"})
	}

	teams, err := ctrl.Service.ListForMember(c.Context(), actor, orgID)
	if err != nil {
		return common_api.Fail(c, err)
	}
	return c.JSON(fiber.Map{"data": teams})
}

// GetTeam godoc
func (ctrl *TeamController) GetTeam(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	teamID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid team ID"})
	}

	team, err := ctrl.Service.Get(c.Context(), actor, teamID)
	if err != nil {
		return common_api.Fail(c, err)
	}
	return c.JSON(fiber.Map{"data": team})
}

// DeleteTeam godoc
func (ctrl *TeamController) DeleteTeam(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	teamID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid team ID"})
	}

	if err := ctrl.Service.Delete(c.Context(), actor, teamID); err != nil {
		return common_api.Fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Team deleted"})
}
