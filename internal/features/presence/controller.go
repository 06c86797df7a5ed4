package presence

import (
	"context"
	"encoding/json"

	common_api "github.com/garden-co/locality/internal/common/api"
	"github.com/garden-co/locality/internal/middleware"
	"github.com/garden-co/locality/pkg/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type PresenceController struct {
	Service PresenceService
	Logger  *zap.Logger
}

func NewPresenceController(service PresenceService, logger *zap.Logger) *PresenceController {
	return &PresenceController{Service: service, Logger: logger}
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

// AppendEvent godoc
func (ctrl *PresenceController) AppendEvent(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	orgID, err := primitive.ObjectIDFromHex(c.Params("orgId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid organization ID"})
	}

	var body struct {
		Session string `json:"session"`
		Status  string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := ctrl.Service.Append(c.Context(), actor, orgID, body.Session, PresenceStatus(body.Status)); err != nil {
		return common_api.Fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Presence recorded"})
}

// GetSnapshot godoc
func (ctrl *PresenceController) GetSnapshot(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	orgID, err := primitive.ObjectIDFromHex(c.Params("orgId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid organization ID"})
	}

	snapshot, err := ctrl.Service.Snapshot(c.Context(), actor, orgID)
	if err != nil {
		return common_api.Fail(c, err)
	}

	statuses := make(map[string]PresenceStatus, len(snapshot))
	for id, st := range snapshot {
		statuses[id.Hex()] = st
	}
	return c.JSON(fiber.Map{"data": statuses})
}

// GetActorStatus godoc
func (ctrl *PresenceController) GetActorStatus(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	orgID, err := primitive.ObjectIDFromHex(c.Params("orgId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid organization ID"})
	}
	subject, err := primitive.ObjectIDFromHex(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	status, err := ctrl.Service.Current(c.Context(), actor, orgID, subject)
	if err != nil {
		return common_api.Fail(c, err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"actor": subject.Hex(), "status": status}})
}

// HandleWebSocket streams presence updates for an organization. The client
// authenticates with a token query parameter since browsers cannot set
// headers on websocket upgrades.
func (ctrl *PresenceController) HandleWebSocket(c *websocket.Conn) {
	claims, err := utils.ValidateToken(c.Query("token"))
	if err != nil {
		ctrl.closeWith(c, "invalid token")
		return
	}
	actor, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		ctrl.closeWith(c, "invalid user id")
		return
	}
	orgID, err := primitive.ObjectIDFromHex(c.Params("orgId"))
	if err != nil {
		ctrl.closeWith(c, "invalid organization id")
		return
	}

	updates, unsubscribe, err := ctrl.Service.Subscribe(context.Background(), actor, orgID)
	if err != nil {
		ctrl.closeWith(c, "forbidden")
		return
	}
	defer unsubscribe()

	// Reader goroutine: its only job is to notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(fiber.Map{"actor": update.Actor.Hex(), "status": update.Status})
			if err != nil {
				continue
			}
			if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
				ctrl.Logger.Debug("presence subscriber write failed", zap.Error(err))
				return
			}
		case <-done:
			return
		}
	}
}

func (ctrl *PresenceController) closeWith(c *websocket.Conn, reason string) {
	_ = c.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason))
	_ = c.Close()
}
