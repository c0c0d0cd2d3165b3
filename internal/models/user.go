// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// UserRole distinguishes pharmacy owners from workers and platform admins.
type UserRole string

const (
	// RolePharmacy is a pharmacy-owner account that posts jobs.
	RolePharmacy UserRole = "pharmacy"
	// RoleWorker is a worker account that applies to jobs.
	RoleWorker UserRole = "worker"
	// RoleAdmin is a platform moderation account.
	RoleAdmin UserRole = "admin"
)

// User represents a marketplace account (pharmacy owner, worker or admin).
// Messaging only needs identity, display name and the soft-delete flag; the
// rest of the profile lives outside this service's scope.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	FirstName    string     `gorm:"not null" json:"first_name"`
	LastName     string     `gorm:"not null" json:"last_name"`
	Email        string     `gorm:"unique;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Role         UserRole   `gorm:"type:varchar(20);not null;default:'worker'" json:"role"`
	IsDeleted    bool       `gorm:"default:false;index" json:"is_deleted"`
	DeletedAt    *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// DisplayName is the label used for conversation headers and inbox rows.
// Soft-deleted users stay resolvable for historical messages.
func (u *User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// IsAdmin reports whether the user has platform admin privileges.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
