package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a query matches no rows.
var ErrNotFound = errors.New("store: not found")

// DB is the minimal interface the query layer needs. Both *pgxpool.Pool and
// the pgxmock pool satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries provides typed access to the database.
type Queries struct {
	db DB
}

// New creates a Queries instance backed by db.
func New(db DB) *Queries {
	return &Queries{db: db}
}
