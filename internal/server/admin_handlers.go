package server

import (
	"context"
	"strings"

	"pharmalink/internal/models"
	"pharmalink/internal/notifications"

	"github.com/gofiber/fiber/v2"
)

// ListUsers returns a page of active accounts for the operator console.
func (s *Server) ListUsers(c *fiber.Ctx) error {
	page := parsePagination(c, 50)

	users, err := s.userRepo.List(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"users":  users,
		"count":  len(users),
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

// GetPresence returns the set of users with a live notification socket,
// across all instances when Redis-backed presence is available.
func (s *Server) GetPresence(c *fiber.Ctx) error {
	if s.connections == nil {
		return c.JSON(fiber.Map{
			"online_user_ids": []uint{},
			"count":           0,
		})
	}

	ids := s.connections.GetOnlineUserIDs(c.Context())
	return c.JSON(fiber.Map{
		"online_user_ids": ids,
		"count":           len(ids),
	})
}

// BroadcastNotice pushes an operator announcement to every connected client.
func (s *Server) BroadcastNotice(c *fiber.Ctx) error {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid request body"))
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("message is required"))
	}

	payload := notifications.SystemNoticeEvent(req.Message)

	// With Redis the pattern subscriber fans out to this instance too;
	// without it, fall back to the local hub only.
	if s.notifier != nil {
		if err := s.notifier.PublishBroadcast(context.Background(), payload); err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}
	} else if s.hub != nil {
		s.hub.BroadcastAll(payload)
	}

	return c.JSON(fiber.Map{"status": "sent"})
}
