package model

import "time"

// GeneratedImage is a persisted record of a generated image. The URL points
// at permanent storage, never at the short-lived generator URL. Rows are
// insert-only.
type GeneratedImage struct {
	ID        string    `db:"id" json:"id"`
	URL       string    `db:"url" json:"url"`
	Prompt    string    `db:"prompt" json:"prompt"`
	UserID    string    `db:"user_id" json:"userId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
