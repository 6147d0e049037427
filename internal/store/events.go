package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
)

// CreateEventParams holds the fields for a new event log entry.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	Metadata  string // JSON string
	CreatedAt time.Time
}

// CreateEvent inserts an event log entry.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) error {
	metadata := arg.Metadata
	if metadata == "" {
		metadata = "{}"
	}
	query, args, err := squirrel.Insert("events").
		Columns("level", "category", "message", "metadata", "created_at").
		Values(arg.Level, arg.Category, arg.Message, metadata, arg.CreatedAt).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert query: %w", err)
	}
	if _, err := q.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}
