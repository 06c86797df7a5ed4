package issue

import (
	"github.com/garden-co/locality/internal/config"
	"github.com/garden-co/locality/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type IssueApi struct {
	controller *IssueController
	config     *config.Config
}

func NewIssueApi(controller *IssueController, config *config.Config) *IssueApi {
	return &IssueApi{
		controller: controller,
		config:     config,
	}
}

func (h *IssueApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)

	app.Post("/api/teams/:teamId/issues", auth, h.controller.CreateIssue)
	app.Get("/api/teams/:teamId/issues", auth, h.controller.ListIssues)
	app.Get("/api/teams/:teamId/issues/grouped", auth, h.controller.GroupedIssues)
	app.Get("/api/teams/:teamId/issues/export", auth, h.controller.ExportIssues)

	issues := app.Group("/api/issues", auth)
	issues.Get("/:id", h.controller.GetIssue)
	issues.Put("/:id", h.controller.UpdateIssue)
	issues.Put("/:id/parent", h.controller.ReparentIssue)
	issues.Delete("/:id", h.controller.DeleteIssue)
	issues.Post("/:id/attachments", h.controller.AddAttachment)
}
