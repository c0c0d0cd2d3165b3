package server

import (
	"pharmalink/internal/models"
	"pharmalink/internal/notifications"

	"github.com/gofiber/fiber/v2"
)

// StartContact handles POST /api/contacts.  It initiates contact with
// another user: the response carries either the live conversation for the
// pair or the (possibly pre-existing) pending request.
func (s *Server) StartContact(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		UserID uint `json:"user_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Target user_id is required"))
	}

	result, err := s.contactService.StartContact(c.Context(), userID, req.UserID)
	if err != nil {
		return respondServiceError(c, err)
	}

	status := fiber.StatusCreated
	switch {
	case result.Conversation != nil:
		// Existing conversation reused; nothing new was created.
		status = fiber.StatusOK
		s.notifyConversation(result.Conversation,
			notifications.ReasonConversationStarted)
	case result.AlreadyPending:
		status = fiber.StatusOK
	default:
		s.notifyRequest(result.Request.ToUserID,
			notifications.ReasonRequestReceived, result.Request.ID)
	}

	return c.Status(status).JSON(result)
}

// GetPendingRequests handles GET /api/contacts/requests.  It lists pending
// contact requests addressed to the caller, newest first.
func (s *Server) GetPendingRequests(c *fiber.Ctx) error {
	userID := currentUserID(c)

	requests, err := s.contactService.PendingRequests(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"requests": requests,
		"count":    len(requests),
	})
}

// AcceptContactRequest handles POST /api/contacts/requests/:requestId/accept.
// Accepting opens (or revives) the conversation between the pair.
func (s *Server) AcceptContactRequest(c *fiber.Ctx) error {
	userID := currentUserID(c)
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	conv, svcErr := s.contactService.AcceptRequest(c.Context(), requestID, userID)
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}

	s.notifyRequest(conv.OtherParticipant(userID),
		notifications.ReasonRequestAccepted, requestID)
	s.notifyConversation(conv, notifications.ReasonConversationStarted)

	return c.JSON(fiber.Map{
		"conversation": conv,
	})
}

// DeclineContactRequest handles DELETE /api/contacts/requests/:requestId.
// Declining is silent; the sender is not notified.
func (s *Server) DeclineContactRequest(c *fiber.Ctx) error {
	userID := currentUserID(c)
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	if svcErr := s.contactService.DeclineRequest(c.Context(), requestID, userID); svcErr != nil {
		return respondServiceError(c, svcErr)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
