package notifications

import "encoding/json"

// Event types pushed to clients. The frontend treats every refresh event the
// same way: re-fetch the affected projections (thread, inbox, widget).
const (
	EventRefreshMessages = "refresh_messages"
	EventRefreshRequests = "refresh_requests"
	EventSystemNotice    = "system_notice"
)

// Refresh reasons carried in the event payload.
const (
	ReasonNewMessage          = "new_message"
	ReasonMessageRecalled     = "message_recalled"
	ReasonConversationEnded   = "conversation_ended"
	ReasonConversationStarted = "conversation_started"
	ReasonRequestReceived     = "request_received"
	ReasonRequestAccepted     = "request_accepted"
)

// Event is the JSON envelope for every websocket push.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// RefreshPayload identifies what changed and where.
type RefreshPayload struct {
	Reason         string `json:"reason"`
	ConversationID uint   `json:"conversation_id,omitempty"`
	RequestID      uint   `json:"request_id,omitempty"`
}

// RefreshMessagesEvent builds the serialized refresh event for message and
// conversation changes. Marshaling a flat struct cannot fail, so errors are
// swallowed here to keep call sites simple.
func RefreshMessagesEvent(reason string, conversationID uint) string {
	raw, _ := json.Marshal(Event{
		Type:    EventRefreshMessages,
		Payload: RefreshPayload{Reason: reason, ConversationID: conversationID},
	})
	return string(raw)
}

// RefreshRequestsEvent builds the serialized refresh event for contact
// request changes.
func RefreshRequestsEvent(reason string, requestID uint) string {
	raw, _ := json.Marshal(Event{
		Type:    EventRefreshRequests,
		Payload: RefreshPayload{Reason: reason, RequestID: requestID},
	})
	return string(raw)
}

// SystemNoticeEvent builds the serialized operator announcement pushed to
// every connected client.
func SystemNoticeEvent(message string) string {
	raw, _ := json.Marshal(Event{
		Type:    EventSystemNotice,
		Payload: map[string]string{"message": message},
	})
	return string(raw)
}
