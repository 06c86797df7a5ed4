package team

import (
	"github.com/garden-co/locality/internal/config"
	"github.com/garden-co/locality/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type TeamApi struct {
	controller *TeamController
	config     *config.Config
}

func NewTeamApi(controller *TeamController, config *config.Config) *TeamApi {
	return &TeamApi{
		controller: controller,
		config:     config,
	}
}

func (h *TeamApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)

	app.Post("/api/organizations/:orgId/teams", auth, h.controller.CreateTeam)
	app.Get("/api/organizations/:orgId/teams", auth, h.controller.ListTeams)

	teams := app.Group("/api/teams", auth)
	teams.Get("/:id", h.controller.GetTeam)
	teams.Delete("/:id", h.controller.DeleteTeam)
}
