package user

import (
	"github.com/garden-co/locality/internal/config"
	"github.com/garden-co/locality/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type UserApi struct {
	controller *UserController
	config     *config.Config
}

func NewUserApi(controller *UserController, config *config.Config) *UserApi {
	return &UserApi{
		controller: controller,
		config:     config,
	}
}

func (h *UserApi) Setup(app *fiber.App) {
	app.Post("/api/auth/register", h.controller.Register)
	app.Post("/api/auth/login", h.controller.Login)

	users := app.Group("/api/users", middleware.AuthMiddleware(h.config.SkipAuth))
	users.Get("/me", h.controller.Me)
	users.Put("/me", h.controller.UpdateProfile)
	users.Get("/:id", h.controller.GetProfile)
}
