package model

import "time"

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth    = "auth"
	EventCategorySession = "session"
	EventCategoryImage   = "image"
	EventCategoryUser    = "user"
	EventCategorySystem  = "system"
)

// Event represents a system event log entry.
type Event struct {
	ID        int64     `db:"id"`
	Level     string    `db:"level"`
	Category  string    `db:"category"`
	Message   string    `db:"message"`
	Metadata  string    `db:"metadata"` // JSON string
	CreatedAt time.Time `db:"created_at"`
}
