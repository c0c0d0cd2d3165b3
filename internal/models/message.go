package models

import (
	"time"
)

// RecalledPlaceholder is rendered instead of content for recalled messages.
const RecalledPlaceholder = "This message was recalled"

// Message is a single unit of communication inside a conversation.
//
// A per-user "delete" never removes the row; it only flips the visibility
// flag for that side. Recall is a separate, irreversible flag that replaces
// the rendered content with a placeholder for both participants.
type Message struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	ConversationID    uint       `gorm:"not null;index" json:"conversation_id"`
	SenderID          uint       `gorm:"not null;index" json:"sender_id"`
	Content           string     `gorm:"type:text;not null" json:"content"`
	SentAt            time.Time  `gorm:"not null;index" json:"sent_at"`
	IsRead            bool       `gorm:"default:false" json:"is_read"`
	IsRecalled        bool       `gorm:"default:false" json:"is_recalled"`
	RecalledAt        *time.Time `json:"recalled_at,omitempty"`
	DeletedBySender   bool       `gorm:"default:false" json:"-"`
	DeletedByReceiver bool       `gorm:"default:false" json:"-"`
}

// TableName specifies the table name for GORM
func (Message) TableName() string {
	return "messages"
}

// VisibleTo reports whether viewerID still sees this message.
// The sender's delete flag hides it from the sender only; the receiver's
// flag hides it from the receiver only.
func (m *Message) VisibleTo(viewerID uint) bool {
	if m.SenderID == viewerID {
		return !m.DeletedBySender
	}
	return !m.DeletedByReceiver
}

// RenderedContent returns the content as shown to viewers: recalled
// messages render the placeholder regardless of who asks.
func (m *Message) RenderedContent() string {
	if m.IsRecalled {
		return RecalledPlaceholder
	}
	return m.Content
}
