// Package model defines domain models and types used throughout the
// application including User, GeneratedImage, and event structures.
package model

import (
	"database/sql"
	"time"
)

// User roles.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is the local identity record mirroring an externally authenticated
// identity. Created on first successful sign-in and refreshed on subsequent
// sign-ins; never deleted.
type User struct {
	ID        string         `db:"id" json:"id"`
	Email     string         `db:"email" json:"email"`
	Name      string         `db:"name" json:"name"`
	Image     string         `db:"image" json:"image"`
	Role      string         `db:"role" json:"role"`
	HasAccess bool           `db:"has_access" json:"hasAccess"`
	Location  sql.NullString `db:"location" json:"-"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// IsAdmin returns true if the user has the admin role. The flag is always
// derived from Role and never stored.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
