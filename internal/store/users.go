package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/thecoachmanuel/presentmax/internal/model"
)

const userColumns = "id, email, name, image, role, has_access, location, created_at, updated_at"

// GetUserByID retrieves a user by ID.
func (q *Queries) GetUserByID(ctx context.Context, id string) (model.User, error) {
	query, args, err := squirrel.Select(userColumns).
		From("users").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return model.User{}, fmt.Errorf("building select query: %w", err)
	}

	var user model.User
	if err := pgxscan.Get(ctx, q.db, &user, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("scanning user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email (case-insensitive).
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	query, args, err := squirrel.Select(userColumns).
		From("users").
		Where("lower(email) = lower(?)", email).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return model.User{}, fmt.Errorf("building select query: %w", err)
	}

	var user model.User
	if err := pgxscan.Get(ctx, q.db, &user, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("scanning user: %w", err)
	}
	return user, nil
}

// UpsertUserParams holds the identity fields carried over from the external
// provider on sign-in.
type UpsertUserParams struct {
	ID    string // used only when the email is not yet known
	Email string
	Name  string
	Image string
}

// UpsertUserByEmail creates a user on first sign-in or refreshes profile
// fields on subsequent sign-ins. New rows default to role USER without
// access; role and has_access on existing rows are never touched here, they
// are managed locally. Empty provider values never overwrite stored ones.
func (q *Queries) UpsertUserByEmail(ctx context.Context, arg UpsertUserParams) (model.User, error) {
	now := time.Now().UTC()
	query, args, err := squirrel.Insert("users").
		Columns("id", "email", "name", "image", "role", "has_access", "created_at", "updated_at").
		Values(arg.ID, arg.Email, arg.Name, arg.Image, model.RoleUser, false, now, now).
		Suffix(`ON CONFLICT (email) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
			image = COALESCE(NULLIF(EXCLUDED.image, ''), users.image),
			updated_at = EXCLUDED.updated_at
			RETURNING ` + userColumns).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return model.User{}, fmt.Errorf("building upsert query: %w", err)
	}

	var user model.User
	if err := pgxscan.Get(ctx, q.db, &user, query, args...); err != nil {
		return model.User{}, fmt.Errorf("upserting user: %w", err)
	}
	return user, nil
}
