package api

import (
	"errors"

	common_models "github.com/garden-co/locality/internal/common/models"

	"github.com/gofiber/fiber/v2"
)

// Fail maps domain error kinds to HTTP statuses in one place so controllers
// stay uniform.
func Fail(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, common_models.ErrPermissionDenied):
		code = fiber.StatusForbidden
	case errors.Is(err, common_models.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, common_models.ErrCyclicExtension),
		errors.Is(err, common_models.ErrCrossIssueReply):
		code = fiber.StatusUnprocessableEntity
	case errors.Is(err, common_models.ErrInvalidInvite):
		code = fiber.StatusBadRequest
	case errors.Is(err, common_models.ErrTransientStore):
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
