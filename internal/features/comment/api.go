package comment

import (
	"github.com/garden-co/locality/internal/config"
	"github.com/garden-co/locality/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type CommentApi struct {
	controller *CommentController
	config     *config.Config
}

func NewCommentApi(controller *CommentController, config *config.Config) *CommentApi {
	return &CommentApi{
		controller: controller,
		config:     config,
	}
}

func (h *CommentApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)

	app.Post("/api/issues/:issueId/comments", auth, h.controller.AddComment)
	app.Get("/api/issues/:issueId/comments", auth, h.controller.GetTree)
	app.Post("/api/issues/:issueId/reactions", auth, h.controller.ToggleIssueReaction)

	comments := app.Group("/api/comments", auth)
	comments.Put("/:id", h.controller.EditComment)
	comments.Delete("/:id", h.controller.DeleteComment)
	comments.Post("/:id/reactions", h.controller.ToggleReaction)
}
