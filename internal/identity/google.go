package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thecoachmanuel/presentmax/internal/model"
	"github.com/thecoachmanuel/presentmax/internal/store"
)

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

	googleTimeout = 10 * time.Second
)

// ErrNoEmail is returned when Google vouches for a profile without an
// email; such sign-ins are rejected.
var ErrNoEmail = errors.New("provider profile carries no email")

// GoogleProvider implements the Google authorization-code sign-in flow.
type GoogleProvider struct {
	clientID     string
	clientSecret string
	redirectURI  string
	users        UserStore
	log          *slog.Logger
	client       *http.Client

	// Endpoint overrides for tests.
	authURL     string
	tokenURL    string
	userInfoURL string
}

// NewGoogleProvider creates the Google sign-in flow. redirectURI is this
// deployment's callback URL registered with Google.
func NewGoogleProvider(clientID, clientSecret, redirectURI string, users UserStore, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		users:        users,
		log:          log,
		client:       &http.Client{Timeout: googleTimeout},
		authURL:      googleAuthURL,
		tokenURL:     googleTokenURL,
		userInfoURL:  googleUserInfoURL,
	}
}

// NewState returns a random value binding the authorization round trip.
func NewState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// AuthCodeURL builds the Google consent page URL for the given state.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", p.clientID)
	query.Set("redirect_uri", p.redirectURI)
	query.Set("scope", "openid email profile")
	query.Set("state", state)
	return p.authURL + "?" + query.Encode()
}

// SignIn exchanges the authorization code, fetches the Google profile and
// resolves it to a local user. A database failure during the lookup does
// not block the sign-in: the session is served from the provider profile
// and the flags default to a fresh user's.
func (p *GoogleProvider) SignIn(ctx context.Context, code string) (model.User, error) {
	accessToken, err := p.exchange(ctx, code)
	if err != nil {
		return model.User{}, fmt.Errorf("exchanging authorization code: %w", err)
	}

	ident, err := p.fetchProfile(ctx, accessToken)
	if err != nil {
		return model.User{}, err
	}

	user, err := p.users.UpsertUserByEmail(ctx, store.UpsertUserParams{
		ID:    ident.ID,
		Email: ident.Email,
		Name:  ident.Name,
		Image: ident.Image,
	})
	if err != nil {
		p.log.Warn("google sign-in proceeding without store", "error", err)
		return model.User{
			ID:    ident.ID,
			Email: ident.Email,
			Name:  ident.Name,
			Image: ident.Image,
			Role:  model.RoleUser,
		}, nil
	}
	return user, nil
}

func (p *GoogleProvider) exchange(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", p.redirectURI)
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.AccessToken == "" {
		return "", errors.New("missing access token")
	}
	return payload.AccessToken, nil
}

func (p *GoogleProvider) fetchProfile(ctx context.Context, accessToken string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Identity{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}

	var payload struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Identity{}, err
	}
	if payload.Email == "" {
		return Identity{}, ErrNoEmail
	}

	id := payload.Sub
	if id == "" {
		id = uuid.NewString()
	}
	return Identity{
		ID:    id,
		Email: payload.Email,
		Name:  payload.Name,
		Image: payload.Picture,
	}, nil
}
