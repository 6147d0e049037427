package session

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/thecoachmanuel/presentmax/internal/model"
)

func testUser() model.User {
	return model.User{
		ID:        "u-1",
		Email:     "ana@example.com",
		Name:      "Ana",
		Image:     "https://example.com/a.png",
		Role:      model.RoleUser,
		HasAccess: false,
	}
}

func TestManager_IssueAndParse(t *testing.T) {
	m := NewManager("0123456789abcdef0123456789abcdef", time.Hour, false)

	token, err := m.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if claims.Subject != "u-1" {
		t.Errorf("subject = %q, want u-1", claims.Subject)
	}
	if claims.Email != "ana@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
	if claims.IsAdmin {
		t.Error("USER role must not yield isAdmin")
	}
}

func TestManager_IsAdminDerivedFromRole(t *testing.T) {
	m := NewManager("0123456789abcdef0123456789abcdef", time.Hour, false)

	cases := []struct {
		role    string
		isAdmin bool
	}{
		{model.RoleAdmin, true},
		{model.RoleUser, false},
		{"admin", false},
		{"", false},
	}
	for _, tc := range cases {
		u := testUser()
		u.Role = tc.role
		token, err := m.Issue(u)
		if err != nil {
			t.Fatalf("Issue error: %v", err)
		}
		claims, err := m.Parse(token)
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if claims.IsAdmin != tc.isAdmin {
			t.Errorf("role %q: isAdmin = %v, want %v", tc.role, claims.IsAdmin, tc.isAdmin)
		}
		if got := FromClaims(claims); got.IsAdmin != tc.isAdmin {
			t.Errorf("role %q: session isAdmin = %v, want %v", tc.role, got.IsAdmin, tc.isAdmin)
		}
	}
}

func TestManager_ReissueReflectsAccessChange(t *testing.T) {
	m := NewManager("0123456789abcdef0123456789abcdef", time.Hour, false)

	u := testUser()
	token, err := m.Issue(u)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if claims.HasAccess {
		t.Fatal("fresh user should not have access")
	}

	u.HasAccess = true
	u.Location = sql.NullString{String: "Lisbon", Valid: true}
	token, err = m.Issue(u)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	claims, err = m.Parse(token)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !claims.HasAccess {
		t.Error("re-issued token should carry the new access flag")
	}
	if claims.Location != "Lisbon" {
		t.Errorf("location = %q, want Lisbon", claims.Location)
	}
}

func TestManager_RejectsTamperedToken(t *testing.T) {
	m := NewManager("0123456789abcdef0123456789abcdef", time.Hour, false)
	other := NewManager("ffffffffffffffffffffffffffffffff", time.Hour, false)

	token, err := m.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := other.Parse(token); err == nil {
		t.Fatal("token signed with a different secret must be rejected")
	}
}

func TestManager_RejectsExpiredToken(t *testing.T) {
	m := NewManager("0123456789abcdef0123456789abcdef", time.Hour, false)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := m.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	m.now = time.Now
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expired token must be rejected")
	}
}

func TestManager_FromRequest(t *testing.T) {
	m := NewManager("0123456789abcdef0123456789abcdef", time.Hour, false)

	t.Run("no cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if _, err := m.FromRequest(r); err != ErrNoSession {
			t.Fatalf("err = %v, want ErrNoSession", err)
		}
	})

	t.Run("valid cookie", func(t *testing.T) {
		token, err := m.Issue(testUser())
		if err != nil {
			t.Fatalf("Issue error: %v", err)
		}
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: CookieName, Value: token})

		claims, err := m.FromRequest(r)
		if err != nil {
			t.Fatalf("FromRequest error: %v", err)
		}
		if claims.Subject != "u-1" {
			t.Errorf("subject = %q", claims.Subject)
		}
	})
}

func TestManager_Cookies(t *testing.T) {
	m := NewManager("0123456789abcdef0123456789abcdef", time.Hour, true)

	w := httptest.NewRecorder()
	m.SetCookie(w, "tok")
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies", len(cookies))
	}
	c := cookies[0]
	if c.Name != CookieName || c.Value != "tok" {
		t.Errorf("cookie = %s=%s", c.Name, c.Value)
	}
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Error("cookie must be HttpOnly, Secure and SameSite=Lax")
	}

	w = httptest.NewRecorder()
	m.ClearCookie(w)
	c = w.Result().Cookies()[0]
	if c.MaxAge != -1 {
		t.Errorf("clear cookie MaxAge = %d, want -1", c.MaxAge)
	}
}
