// Package session implements stateless browser sessions backed by signed
// JWTs. The token carries the full user projection so request handling
// never needs a database round trip; the refresh endpoint re-reads the
// user and re-issues the cookie when the projection goes stale.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/thecoachmanuel/presentmax/internal/model"
)

// CookieName is the browser cookie holding the session token.
const CookieName = "presentmax_session"

// DefaultTTL matches the 30-day session lifetime of the hosted frontend.
const DefaultTTL = 30 * 24 * time.Hour

var (
	// ErrNoSession is returned when the request carries no session cookie.
	ErrNoSession = errors.New("session: no session cookie")
	// ErrInvalidToken is returned for expired, tampered or malformed tokens.
	ErrInvalidToken = errors.New("session: invalid token")
)

// Claims is the JWT payload. Subject holds the user ID.
type Claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Image     string `json:"image,omitempty"`
	Role      string `json:"role"`
	HasAccess bool   `json:"hasAccess"`
	IsAdmin   bool   `json:"isAdmin"`
	Location  string `json:"location,omitempty"`
}

// Manager issues and verifies session tokens and manages the cookie.
type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewManager creates a session manager. secure controls the cookie's
// Secure attribute and should be true outside development.
func NewManager(secret string, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

// Issue signs a token projecting the user's current state. isAdmin is
// always recomputed from the role, never trusted from a previous token.
func (m *Manager) Issue(user model.User) (string, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Email:     user.Email,
		Name:      user.Name,
		Image:     user.Image,
		Role:      user.Role,
		HasAccess: user.HasAccess,
		IsAdmin:   user.IsAdmin(),
	}
	if user.Location.Valid {
		claims.Location = user.Location.String
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token's signature and expiry and returns its claims.
func (m *Manager) Parse(tokenString string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// FromRequest extracts and verifies the session from the request cookie.
func (m *Manager) FromRequest(r *http.Request) (Claims, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return Claims{}, ErrNoSession
	}
	return m.Parse(cookie.Value)
}

// SetCookie writes the session cookie on the response.
func (m *Manager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
