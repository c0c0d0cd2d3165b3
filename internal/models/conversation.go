package models

import (
	"time"
)

// Conversation is a two-party dialogue between a pharmacy and a worker.
//
// The participant pair is stored in canonical order (UserLowID < UserHighID)
// so a partial unique index on (user_low_id, user_high_id) WHERE ended_at IS
// NULL can enforce at most one active conversation per pair at the store
// level. Per-side hide flags follow the same low/high orientation.
type Conversation struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserLowID       uint       `gorm:"not null;index:idx_conversations_pair" json:"user_low_id"`
	UserHighID      uint       `gorm:"not null;index:idx_conversations_pair" json:"user_high_id"`
	CreatedAt       time.Time  `json:"created_at"`
	EndedAt         *time.Time `gorm:"index" json:"ended_at,omitempty"`
	EndedByUserID   *uint      `json:"ended_by_user_id,omitempty"`
	UserLowDeleted  bool       `gorm:"default:false" json:"-"`
	UserHighDeleted bool       `gorm:"default:false" json:"-"`
}

// TableName specifies the table name for GORM
func (Conversation) TableName() string {
	return "conversations"
}

// CanonicalPair returns the two user ids in storage order (low, high).
func CanonicalPair(a, b uint) (uint, uint) {
	if a < b {
		return a, b
	}
	return b, a
}

// HasParticipant reports whether userID is one of the two parties.
func (c *Conversation) HasParticipant(userID uint) bool {
	return c.UserLowID == userID || c.UserHighID == userID
}

// OtherParticipant returns the id of the counterparty for userID.
// Callers must have verified participation first.
func (c *Conversation) OtherParticipant(userID uint) uint {
	if c.UserLowID == userID {
		return c.UserHighID
	}
	return c.UserLowID
}

// Ended reports whether the conversation reached its terminal state.
func (c *Conversation) Ended() bool {
	return c.EndedAt != nil
}

// HiddenFor reports whether userID has hidden the conversation from their inbox.
func (c *Conversation) HiddenFor(userID uint) bool {
	if c.UserLowID == userID {
		return c.UserLowDeleted
	}
	if c.UserHighID == userID {
		return c.UserHighDeleted
	}
	return false
}

// SideColumn returns the per-side hide column name for userID.
// The bool result is false when userID is not a participant.
func (c *Conversation) SideColumn(userID uint) (string, bool) {
	switch userID {
	case c.UserLowID:
		return "user_low_deleted", true
	case c.UserHighID:
		return "user_high_deleted", true
	}
	return "", false
}
