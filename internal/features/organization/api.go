package organization

import (
	"github.com/garden-co/locality/internal/config"
	"github.com/garden-co/locality/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type OrganizationApi struct {
	controller *OrganizationController
	config     *config.Config
}

func NewOrganizationApi(controller *OrganizationController, config *config.Config) *OrganizationApi {
	return &OrganizationApi{
		controller: controller,
		config:     config,
	}
}

func (h *OrganizationApi) Setup(app *fiber.App) {
	orgs := app.Group("/api/organizations", middleware.AuthMiddleware(h.config.SkipAuth))

	orgs.Post("/", h.controller.CreateOrganization)
	orgs.Get("/", h.controller.ListOrganizations)
	orgs.Get("/:id", h.controller.GetOrganization)
	orgs.Delete("/:id", h.controller.DeleteOrganization)
	orgs.Get("/:id/members", h.controller.ListMembers)
	orgs.Post("/:id/labels", h.controller.CreateLabel)
	orgs.Get("/:id/labels", h.controller.ListLabels)
	orgs.Delete("/:id/labels/:labelId", h.controller.DeleteLabel)
}
