package server

import (
	"context"
	"log"

	"pharmalink/internal/models"
	"pharmalink/internal/notifications"
)

// Fan-out outcome labels for the messages-sent metric.
const (
	fanoutDelivered     = "delivered"
	fanoutPublishFailed = "publish_failed"
	fanoutSkipped       = "skipped"
)

// publishUserEvent delivers an event payload to one user: locally through the
// hub, and via Redis pub/sub so other instances can reach their own sockets.
// Fan-out is best effort and never fails the triggering request.
func (s *Server) publishUserEvent(userID uint, payload string) string {
	outcome := fanoutSkipped
	if s.hub != nil {
		s.hub.Broadcast(userID, payload)
		outcome = fanoutDelivered
	}
	if s.notifier != nil {
		if err := s.notifier.PublishUser(context.Background(), userID, payload); err != nil {
			log.Printf("failed to publish event to user %d: %v", userID, err)
			return fanoutPublishFailed
		}
		outcome = fanoutDelivered
	}
	return outcome
}

// notifyConversation tells both participants to refresh their view of the
// conversation. The actor is included so their other sessions (widget,
// second tab) pick up their own writes. Returns the worst fan-out outcome
// so callers can record it.
func (s *Server) notifyConversation(conv *models.Conversation, reason string) string {
	payload := notifications.RefreshMessagesEvent(reason, conv.ID)
	outcome := fanoutSkipped
	for _, userID := range []uint{conv.UserLowID, conv.UserHighID} {
		res := s.publishUserEvent(userID, payload)
		if outcome == fanoutSkipped || res == fanoutPublishFailed {
			outcome = res
		}
	}
	return outcome
}

// notifyCounterparty refreshes only the side opposite actorID. Used for
// read receipts, which the actor already observes directly.
func (s *Server) notifyCounterparty(conv *models.Conversation, reason string, actorID uint) {
	payload := notifications.RefreshMessagesEvent(reason, conv.ID)
	s.publishUserEvent(conv.OtherParticipant(actorID), payload)
}

// notifyRequest tells a user to refresh their pending-request inbox.
func (s *Server) notifyRequest(userID uint, reason string, requestID uint) {
	s.publishUserEvent(userID, notifications.RefreshRequestsEvent(reason, requestID))
}
