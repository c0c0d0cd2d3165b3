package models

import (
	"time"
)

// ConversationRequest is the first-contact handshake preceding a conversation.
//
// At most one unaccepted request may exist per pair of users, in either
// direction. Accepted requests are kept as audit records and superseded by
// the conversation they produced.
type ConversationRequest struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FromUserID uint      `gorm:"not null;index" json:"from_user_id"`
	ToUserID   uint      `gorm:"not null;index" json:"to_user_id"`
	IsAccepted bool      `gorm:"default:false;index" json:"is_accepted"`
	CreatedAt  time.Time `json:"created_at"`

	From *User `gorm:"foreignKey:FromUserID" json:"from,omitempty"`
}

// TableName specifies the table name for GORM
func (ConversationRequest) TableName() string {
	return "conversation_requests"
}
