package comment

import (
	"errors"

	common_api "github.com/garden-co/locality/internal/common/api"
	"github.com/garden-co/locality/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommentController struct {
	Service CommentService
}

func NewCommentController(service CommentService) *CommentController {
	return &CommentController{Service: service}
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

func fail(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrMaxDepthExceeded) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	return common_api.Fail(c, err)
}

// AddComment godoc
func (ctrl *CommentController) AddComment(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	issueID, err := primitive.ObjectIDFromHex(c.Params("issueId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid issue ID"})
	}

	var body struct {
		Content string `json:"content"`
		Parent  string `json:"parent"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	var parent *primitive.ObjectID
	if body.Parent != "" {
		id, err := primitive.ObjectIDFromHex(body.Parent)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid parent comment ID"})
		}
		parent = &id
	}

	comment, err := ctrl.Service.AddComment(c.Context(), actor, issueID, body.Content, parent)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": comment})
}

// GetTree godoc
func (ctrl *CommentController) GetTree(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	issueID, err := primitive.ObjectIDFromHex(c.Params("issueId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid issue ID"})
	}

	tree, err := ctrl.Service.Tree(c.Context(), actor, issueID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"data": tree})
}

// EditComment godoc
func (ctrl *CommentController) EditComment(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	commentID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid comment ID"})
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	comment, err := ctrl.Service.EditComment(c.Context(), actor, commentID, body.Content)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"data": comment})
}

// DeleteComment godoc
func (ctrl *CommentController) DeleteComment(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	commentID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid comment ID"})
	}

	if err := ctrl.Service.DeleteComment(c.Context(), actor, commentID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}

type reactionBody struct {
	Kind string `json:"kind"`
	Add  *bool  `json:"add"`
}

func (b reactionBody) add() bool {
	return b.Add == nil || *b.Add
}

// ToggleReaction godoc
func (ctrl *CommentController) ToggleReaction(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	commentID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid comment ID"})
	}

	var body reactionBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	counts, err := ctrl.Service.ToggleReaction(c.Context(), actor, commentID, ReactionKind(body.Kind), body.add())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"data": counts})
}

// ToggleIssueReaction godoc
func (ctrl *CommentController) ToggleIssueReaction(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	issueID, err := primitive.ObjectIDFromHex(c.Params("issueId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid issue ID"})
	}

	var body reactionBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	counts, err := ctrl.Service.ToggleIssueReaction(c.Context(), actor, issueID, ReactionKind(body.Kind), body.add())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"data": counts})
}
