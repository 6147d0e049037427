package session

import "github.com/thecoachmanuel/presentmax/internal/model"

// Session is the user projection handed to handlers and templates.
type Session struct {
	UserID    string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Image     string `json:"image,omitempty"`
	Role      string `json:"role"`
	HasAccess bool   `json:"hasAccess"`
	IsAdmin   bool   `json:"isAdmin"`
	Location  string `json:"location,omitempty"`
}

// FromClaims builds the session projection from verified token claims.
// isAdmin is derived from the role claim so a stale flag in an old token
// cannot outlive a role change past re-issue.
func FromClaims(c Claims) Session {
	return Session{
		UserID:    c.Subject,
		Email:     c.Email,
		Name:      c.Name,
		Image:     c.Image,
		Role:      c.Role,
		HasAccess: c.HasAccess,
		IsAdmin:   c.Role == model.RoleAdmin,
		Location:  c.Location,
	}
}
