// Package identity adapts the external identity providers (the hosted
// credentials service and Google OAuth) into local user records. Providers
// authenticate; the local users table owns role and access flags.
package identity

import (
	"context"
	"errors"

	"github.com/thecoachmanuel/presentmax/internal/model"
	"github.com/thecoachmanuel/presentmax/internal/store"
)

// ErrInvalidCredentials is returned for any credentials failure. The cause
// is wrapped for logging but callers must show only the generic message.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Identity is the profile a provider vouches for.
type Identity struct {
	ID    string
	Email string
	Name  string
	Image string
}

// UserStore is the subset of the store used during sign-in.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	UpsertUserByEmail(ctx context.Context, arg store.UpsertUserParams) (model.User, error)
}
