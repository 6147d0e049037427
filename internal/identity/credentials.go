package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thecoachmanuel/presentmax/internal/auth"
	"github.com/thecoachmanuel/presentmax/internal/model"
	"github.com/thecoachmanuel/presentmax/internal/store"
)

const verifierTimeout = 10 * time.Second

// Verifier checks email/password pairs against the hosted identity service.
type Verifier struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewVerifier creates a verifier for the hosted identity service at baseURL.
// apiKey is sent as the service's public API key header.
func NewVerifier(baseURL, apiKey string) *Verifier {
	return &Verifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: verifierTimeout},
	}
}

type verifierUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Metadata struct {
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	} `json:"user_metadata"`
}

// Verify authenticates an email/password pair against the hosted service.
// Every failure mode collapses to ErrInvalidCredentials; the wrapped cause
// is for server-side logs only.
func (v *Verifier) Verify(ctx context.Context, email, password string) (Identity, error) {
	body, err := v.post(ctx, "/auth/v1/token?grant_type=password", email, password)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	var payload struct {
		Data struct {
			User *verifierUser `json:"user"`
		} `json:"data"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Identity{}, fmt.Errorf("%w: decoding response: %v", ErrInvalidCredentials, err)
	}
	if payload.Error != nil {
		return Identity{}, fmt.Errorf("%w: %s", ErrInvalidCredentials, payload.Error.Message)
	}
	if payload.Data.User == nil || payload.Data.User.Email == "" {
		return Identity{}, fmt.Errorf("%w: response carried no user", ErrInvalidCredentials)
	}

	u := payload.Data.User
	return Identity{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Metadata.Name,
		Image: u.Metadata.AvatarURL,
	}, nil
}

// Signup registers an email/password pair with the hosted service. The
// account becomes usable after the user confirms the emailed link; no local
// row is created until the first successful sign-in.
func (v *Verifier) Signup(ctx context.Context, email, password string) error {
	body, err := v.post(ctx, "/auth/v1/signup", email, password)
	if err != nil {
		return fmt.Errorf("signing up: %w", err)
	}

	var payload struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("signing up: decoding response: %w", err)
	}
	if payload.Error != nil {
		return fmt.Errorf("signing up: %s", payload.Error.Message)
	}
	return nil
}

func (v *Verifier) post(ctx context.Context, path, email, password string) ([]byte, error) {
	reqBody, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", v.apiKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity service returned status %d", resp.StatusCode)
	}
	return body, nil
}

// DemoAccount is the optional demo sign-in bypass. When enabled, the demo
// email plus a password matching the stored argon2id hash signs in without
// contacting the hosted service.
type DemoAccount struct {
	Enabled      bool
	Email        string
	PasswordHash string
}

// Matches reports whether the pair hits the demo bypass.
func (d DemoAccount) Matches(email, password string) bool {
	if !d.Enabled || !strings.EqualFold(email, d.Email) {
		return false
	}
	ok, err := auth.CheckPassword(password, d.PasswordHash)
	return err == nil && ok
}

// PasswordVerifier authenticates an email/password pair with an external
// service.
type PasswordVerifier interface {
	Verify(ctx context.Context, email, password string) (Identity, error)
}

// CredentialsAuthenticator runs the full credentials sign-in: demo bypass,
// remote verification, then the local user upsert.
type CredentialsAuthenticator struct {
	verifier PasswordVerifier
	users    UserStore
	demo     DemoAccount
	log      *slog.Logger
}

// NewCredentialsAuthenticator wires the credentials sign-in flow.
func NewCredentialsAuthenticator(verifier PasswordVerifier, users UserStore, demo DemoAccount, log *slog.Logger) *CredentialsAuthenticator {
	return &CredentialsAuthenticator{verifier: verifier, users: users, demo: demo, log: log}
}

// Authenticate verifies the pair and returns the local user row. The demo
// pair always succeeds with the demo identity, independent of the store's
// state.
func (a *CredentialsAuthenticator) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	// Blank fields never reach the hosted service.
	if email == "" || password == "" {
		return model.User{}, ErrInvalidCredentials
	}

	if a.demo.Matches(email, password) {
		a.log.Info("demo sign-in", "email", a.demo.Email)
		demo := Identity{ID: uuid.NewString(), Email: a.demo.Email, Name: "Demo User"}
		user, err := a.upsert(ctx, demo)
		if err != nil {
			// The demo account must keep working through database
			// outages; serve the session from the identity alone.
			a.log.Warn("demo sign-in proceeding without store", "error", err)
			return model.User{
				ID:    demo.ID,
				Email: demo.Email,
				Name:  demo.Name,
				Role:  model.RoleUser,
			}, nil
		}
		return user, nil
	}

	ident, err := a.verifier.Verify(ctx, email, password)
	if err != nil {
		a.log.Warn("credentials sign-in rejected", "error", err)
		return model.User{}, ErrInvalidCredentials
	}
	user, err := a.upsert(ctx, ident)
	if err != nil {
		return model.User{}, fmt.Errorf("recording sign-in: %w", err)
	}
	return user, nil
}

func (a *CredentialsAuthenticator) upsert(ctx context.Context, ident Identity) (model.User, error) {
	if ident.ID == "" {
		ident.ID = uuid.NewString()
	}
	return a.users.UpsertUserByEmail(ctx, store.UpsertUserParams{
		ID:    ident.ID,
		Email: ident.Email,
		Name:  ident.Name,
		Image: ident.Image,
	})
}
