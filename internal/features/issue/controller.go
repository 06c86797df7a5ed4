package issue

import (
	"errors"
	"fmt"
	"time"

	common_api "github.com/garden-co/locality/internal/common/api"
	"github.com/garden-co/locality/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IssueController struct {
	Service IssueService
}

func NewIssueController(service IssueService) *IssueController {
	return &IssueController{Service: service}
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
	if errors.Is(err, ErrCyclicIssue) || errors.Is(err, ErrAssigneeNotMember) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	return common_api.Fail(c, err)
}

type issueBody struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Assignee    string     `json:"assignee"`
	ParentIssue string     `json:"parent_issue"`
	Labels      []string   `json:"labels"`
	Estimate    int        `json:"estimate"`
	DueDate     *time.Time `json:"due_date"`
}

func parseOptionalID(hex string) (*primitive.ObjectID, error) {
	if hex == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseIDs(hexes []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CreateIssue godoc
func (ctrl *IssueController) CreateIssue(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	teamID, err := primitive.ObjectIDFromHex(c.Params("teamId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid team ID"})
	}

	var body issueBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	assignee, err := parseOptionalID(body.Assignee)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assignee ID"})
	}
	parent, err := parseOptionalID(body.ParentIssue)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid parent issue ID"})
	}
	labels, err := parseIDs(body.Labels)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid label ID"})
	}

	issue, err := ctrl.Service.CreateIssue(c.Context(), actor, CreateIssueInput{
		Team:        teamID,
		Title:       body.Title,
		Description: body.Description,
		Status:      Status(body.Status),
		Priority:    Priority(body.Priority),
		Assignee:    assignee,
		ParentIssue: parent,
		Labels:      labels,
		Estimate:    body.Estimate,
		DueDate:     body.DueDate,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": issue})
}

// ListIssues godoc
//
// Supports ?status=&priority=&assignee=&labels=a,b&q= query filtering; filters
// apply before the search term.
func (ctrl *IssueController) ListIssues(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	teamID, err := primitive.ObjectIDFromHex(c.Params("teamId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid team ID"})
	}

	var opts FilterOptions
	if v := c.Query("status"); v != "" {
		st := Status(v)
		opts.Status = &st
	}
	if v := c.Query("priority"); v != "" {
		p := Priority(v)
		opts.Priority = &p
	}
	if v := c.Query("assignee"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assignee ID"})
		}
		opts.Assignee = &id
	}
	for _, v := range c.Context().QueryArgs().PeekMulti("labels") {
		id, err := primitive.ObjectIDFromHex(string(v))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid label ID"})
		}
		opts.Labels = append(opts.Labels, id)
	}

	issues, err := ctrl.Service.QueryForTeam(c.Context(), actor, teamID, opts, c.Query("q"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"data": issues})
}

// GroupedIssues godoc
func (ctrl *IssueController) GroupedIssues(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	teamID, err := primitive.ObjectIDFromHex(c.Params("teamId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid team ID"})
	}

	grouped, err := ctrl.Service.GroupedForTeam(c.Context(), actor, teamID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"data": grouped})
}

// GetIssue godoc
func (ctrl *IssueController) GetIssue(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	issueID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid issue ID"})
	}

	issue, err := ctrl.Service.Get(c.Context(), actor, issueID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"data": issue})
}

// UpdateIssue godoc
func (ctrl *IssueController) UpdateIssue(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	issueID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid issue ID"})
	}

	var body struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		Status      *string    `json:"status"`
		Priority    *string    `json:"priority"`
		Assignee    *string    `json:"assignee"`
		Labels      *[]string  `json:"labels"`
		Estimate    *int       `json:"estimate"`
		DueDate     *time.Time `json:"due_date"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	input := UpdateIssueInput{
		Title:       body.Title,
		Description: body.Description,
		Estimate:    body.Estimate,
		DueDate:     body.DueDate,
	}
	if body.Status != nil {
		st := Status(*body.Status)
		input.Status = &st
	}
	if body.Priority != nil {
		p := Priority(*body.Priority)
		input.Priority = &p
	}
	if body.Assignee != nil {
		if *body.Assignee == "" {
			input.ClearAssignee = true
		} else {
			id, err := primitive.ObjectIDFromHex(*body.Assignee)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assignee ID"})
			}
			input.Assignee = &id
		}
	}
	if body.Labels != nil {
		labels, err := parseIDs(*body.Labels)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid label ID"})
		}
		input.Labels = &labels
	}

	issue, err := ctrl.Service.Update(c.Context(), actor, issueID, input)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"data": issue})
}

// ReparentIssue godoc
func (ctrl *IssueController) ReparentIssue(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	issueID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid issue ID"})
	}

	var body struct {
		Parent string `json:"parent"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	parent, err := parseOptionalID(body.Parent)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid parent issue ID"})
	}

	if err := ctrl.Service.Reparent(c.Context(), actor, issueID, parent); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Issue re-parented"})
}

// DeleteIssue godoc
func (ctrl *IssueController) DeleteIssue(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	issueID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid issue ID"})
	}

	if err := ctrl.Service.Delete(c.Context(), actor, issueID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Issue deleted"})
}

// AddAttachment godoc
func (ctrl *IssueController) AddAttachment(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	issueID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid issue ID"})
	}

	var body struct {
		Name        string `json:"name"`
		URL         string `json:"url"`
		ContentType string `json:"content_type"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	issue, err := ctrl.Service.AddAttachment(c.Context(), actor, issueID, Attachment{
		Name:        body.Name,
		URL:         body.URL,
		ContentType: body.ContentType,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": issue})
}

// ExportIssues godoc
func (ctrl *IssueController) ExportIssues(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	teamID, err := primitive.ObjectIDFromHex(c.Params("teamId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid team ID"})
	}

	data, filename, err := ctrl.Service.ExportForTeam(c.Context(), actor, teamID)
	if err != nil {
		return fail(c, err)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	return c.Send(data)
}
