package presence

import (
	"github.com/garden-co/locality/internal/config"
	"github.com/garden-co/locality/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type PresenceApi struct {
	controller *PresenceController
	config     *config.Config
}

func NewPresenceApi(controller *PresenceController, config *config.Config) *PresenceApi {
	return &PresenceApi{
		controller: controller,
		config:     config,
	}
}

func (h *PresenceApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)

	app.Post("/api/organizations/:orgId/presence", auth, h.controller.AppendEvent)
	app.Get("/api/organizations/:orgId/presence", auth, h.controller.GetSnapshot)
	app.Get("/api/organizations/:orgId/presence/:userId", auth, h.controller.GetActorStatus)

	app.Get("/ws/organizations/:orgId/presence", websocket.New(h.controller.HandleWebSocket))
}
