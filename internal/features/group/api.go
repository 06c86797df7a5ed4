package group

import (
	"github.com/garden-co/locality/internal/config"
	"github.com/garden-co/locality/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type GroupApi struct {
	controller *GroupController
	config     *config.Config
}

func NewGroupApi(controller *GroupController, config *config.Config) *GroupApi {
	return &GroupApi{
		controller: controller,
		config:     config,
	}
}

func (h *GroupApi) Setup(app *fiber.App) {
	groups := app.Group("/api/groups", middleware.AuthMiddleware(h.config.SkipAuth))

	groups.Get("/:id/members", h.controller.GetMembers)
	groups.Post("/:id/members", h.controller.AddMember)
	groups.Delete("/:id/members/:userId", h.controller.RemoveMember)
	groups.Post("/:id/extend", h.controller.Extend)

	invites := app.Group("/api/invites", middleware.AuthMiddleware(h.config.SkipAuth))
	invites.Post("/", h.controller.IssueInvite)

	// Redemption path mirrors the invite link fragment with the '#' stripped.
	app.Post("/invite/:entityType/:entityId/:secret", middleware.AuthMiddleware(h.config.SkipAuth), h.controller.RedeemInvite)
}
