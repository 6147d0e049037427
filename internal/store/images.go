package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/thecoachmanuel/presentmax/internal/model"
)

const imageColumns = "id, url, prompt, user_id, created_at"

// CreateGeneratedImageParams holds the fields for a new generated image row.
type CreateGeneratedImageParams struct {
	ID     string
	URL    string
	Prompt string
	UserID string
}

// CreateGeneratedImage inserts a generated image record. The URL must be the
// permanent storage URL, never the generator's short-lived one.
func (q *Queries) CreateGeneratedImage(ctx context.Context, arg CreateGeneratedImageParams) (model.GeneratedImage, error) {
	query, args, err := squirrel.Insert("generated_images").
		Columns("id", "url", "prompt", "user_id", "created_at").
		Values(arg.ID, arg.URL, arg.Prompt, arg.UserID, time.Now().UTC()).
		Suffix("RETURNING " + imageColumns).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return model.GeneratedImage{}, fmt.Errorf("building insert query: %w", err)
	}

	var image model.GeneratedImage
	if err := pgxscan.Get(ctx, q.db, &image, query, args...); err != nil {
		return model.GeneratedImage{}, fmt.Errorf("inserting generated image: %w", err)
	}
	return image, nil
}

// ListImagesByUser retrieves a user's generated images, newest first.
func (q *Queries) ListImagesByUser(ctx context.Context, userID string) ([]model.GeneratedImage, error) {
	query, args, err := squirrel.Select(imageColumns).
		From("generated_images").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var images []model.GeneratedImage
	if err := pgxscan.Select(ctx, q.db, &images, query, args...); err != nil {
		return nil, fmt.Errorf("scanning generated images: %w", err)
	}
	return images, nil
}
