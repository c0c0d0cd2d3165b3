package server

import (
	"pharmalink/internal/middleware"
	"pharmalink/internal/models"
	"pharmalink/internal/notifications"
	"pharmalink/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetInbox handles GET /api/conversations.  It lists the caller's visible
// conversations, most recent activity first.
func (s *Server) GetInbox(c *fiber.Ctx) error {
	userID := currentUserID(c)

	entries, err := s.messagingService.Inbox(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"conversations": entries,
		"count":         len(entries),
	})
}

// GetWidgetSummary handles GET /api/conversations/widget: the compact
// projection polled by the site-wide messaging widget.
func (s *Server) GetWidgetSummary(c *fiber.Ctx) error {
	userID := currentUserID(c)

	summary, err := s.messagingService.Widget(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(summary)
}

// GetUnreadCount handles GET /api/conversations/unread-count.
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	userID := currentUserID(c)

	count, err := s.messagingService.UnreadCount(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"unread_count": count,
	})
}

// GetThread handles GET /api/conversations/:id.  Fetching a thread marks
// its visible incoming messages as read.
func (s *Server) GetThread(c *fiber.Ctx) error {
	userID := currentUserID(c)
	conversationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	thread, svcErr := s.messagingService.GetThread(c.Context(), conversationID, userID)
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}

	// Read receipts only matter to the counterparty when something changed.
	if thread.MarkedRead > 0 {
		s.notifyCounterparty(thread.Conversation,
			notifications.ReasonNewMessage, userID)
	}

	return c.JSON(thread)
}

// SendMessage handles POST /api/conversations/:id/messages.
func (s *Server) SendMessage(c *fiber.Ctx) error {
	userID := currentUserID(c)
	conversationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	msg, conv, svcErr := s.messagingService.SendMessage(c.Context(), service.SendMessageInput{
		SenderID:       userID,
		ConversationID: conversationID,
		Content:        req.Content,
	})
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}

	fanout := s.notifyConversation(conv, notifications.ReasonNewMessage)
	middleware.MessagesSent.WithLabelValues(fanout).Inc()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": msg,
	})
}

// DeleteMessage handles DELETE /api/messages/:id.  Deletion is per-side:
// the message disappears for the caller only.
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	userID := currentUserID(c)
	messageID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if svcErr := s.messagingService.DeleteMessage(c.Context(), messageID, userID); svcErr != nil {
		return respondServiceError(c, svcErr)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RecallMessage handles POST /api/messages/:id/recall.  A recall replaces
// the content with a placeholder for both sides.
func (s *Server) RecallMessage(c *fiber.Ctx) error {
	userID := currentUserID(c)
	messageID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	msg, conv, svcErr := s.messagingService.RecallMessage(c.Context(), messageID, userID)
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}

	s.notifyConversation(conv, notifications.ReasonMessageRecalled)

	return c.JSON(fiber.Map{
		"message": msg,
	})
}

// HideConversation handles POST /api/conversations/:id/hide.  Hiding removes
// the conversation from the caller's inbox only; no event reaches the
// counterparty.
func (s *Server) HideConversation(c *fiber.Ctx) error {
	userID := currentUserID(c)
	conversationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if svcErr := s.messagingService.HideConversation(c.Context(), conversationID, userID); svcErr != nil {
		return respondServiceError(c, svcErr)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// EndConversation handles POST /api/conversations/:id/end.
func (s *Server) EndConversation(c *fiber.Ctx) error {
	userID := currentUserID(c)
	conversationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	conv, svcErr := s.messagingService.EndConversation(c.Context(), conversationID, userID)
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}

	s.notifyConversation(conv, notifications.ReasonConversationEnded)

	return c.JSON(fiber.Map{
		"conversation": conv,
	})
}
