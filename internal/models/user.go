// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's permission level in the system.
type Role string

const (
	RoleStudent        Role = "student"
	RoleContentManager Role = "content_manager"
	RoleAdmin          Role = "admin"
	RoleSuperAdmin     Role = "super_admin"
)

// ValidRole reports whether r is one of the known role values.
func ValidRole(r Role) bool {
	switch r {
	case RoleStudent, RoleContentManager, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// User represents an account with authentication and 2FA fields.
// The role is fixed for the lifetime of a session; reassignment happens
// only through account administration.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	TOTPSecret   *string   `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool      `json:"totp_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Needs2FASetup returns true if the user has not completed 2FA enrollment.
// Staff accounts must set up 2FA before reaching the admin area.
func (u *User) Needs2FASetup() bool {
	return !u.TOTPEnabled
}
