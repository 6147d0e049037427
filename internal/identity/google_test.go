package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/thecoachmanuel/presentmax/internal/model"
)

func googleTestServer(t *testing.T, userinfo string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "authorization_code" {
			t.Errorf("grant_type = %q", r.PostForm.Get("grant_type"))
		}
		if r.PostForm.Get("code") == "bad-code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"access_token":"at-123"}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-123" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(userinfo))
	})
	return httptest.NewServer(mux)
}

func newTestGoogleProvider(srv *httptest.Server, users UserStore) *GoogleProvider {
	p := NewGoogleProvider("client-id", "client-secret", "https://presentmax.app/auth/google/callback", users, discardLogger())
	p.authURL = srv.URL + "/auth"
	p.tokenURL = srv.URL + "/token"
	p.userInfoURL = srv.URL + "/userinfo"
	return p
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	p := NewGoogleProvider("client-id", "secret", "https://presentmax.app/cb", nil, discardLogger())
	u, err := url.Parse(p.AuthCodeURL("state-1"))
	if err != nil {
		t.Fatalf("parsing auth URL: %v", err)
	}
	q := u.Query()
	if q.Get("client_id") != "client-id" || q.Get("state") != "state-1" {
		t.Errorf("query = %v", q)
	}
	if q.Get("response_type") != "code" {
		t.Errorf("response_type = %q", q.Get("response_type"))
	}
}

func TestGoogleProvider_SignIn(t *testing.T) {
	t.Run("new user gets default role and no access", func(t *testing.T) {
		srv := googleTestServer(t, `{"sub":"g-1","email":"ana@example.com","name":"Ana","picture":"https://example.com/a.png"}`)
		defer srv.Close()

		users := newFakeUserStore()
		p := newTestGoogleProvider(srv, users)

		user, err := p.SignIn(context.Background(), "good-code")
		if err != nil {
			t.Fatalf("SignIn error: %v", err)
		}
		if user.Email != "ana@example.com" || user.Role != model.RoleUser || user.HasAccess {
			t.Errorf("user = %+v", user)
		}
	})

	t.Run("existing user keeps local flags", func(t *testing.T) {
		srv := googleTestServer(t, `{"sub":"g-2","email":"paid@example.com","name":"Paid"}`)
		defer srv.Close()

		users := newFakeUserStore()
		users.users["paid@example.com"] = model.User{
			ID: "u-2", Email: "paid@example.com", Role: model.RoleAdmin, HasAccess: true,
		}
		p := newTestGoogleProvider(srv, users)

		user, err := p.SignIn(context.Background(), "good-code")
		if err != nil {
			t.Fatalf("SignIn error: %v", err)
		}
		if user.ID != "u-2" || !user.HasAccess || user.Role != model.RoleAdmin {
			t.Errorf("user = %+v", user)
		}
	})

	t.Run("profile without email is rejected", func(t *testing.T) {
		srv := googleTestServer(t, `{"sub":"g-3","name":"No Mail"}`)
		defer srv.Close()

		p := newTestGoogleProvider(srv, newFakeUserStore())
		if _, err := p.SignIn(context.Background(), "good-code"); !errors.Is(err, ErrNoEmail) {
			t.Fatalf("err = %v, want ErrNoEmail", err)
		}
	})

	t.Run("failed code exchange is rejected", func(t *testing.T) {
		srv := googleTestServer(t, `{}`)
		defer srv.Close()

		p := newTestGoogleProvider(srv, newFakeUserStore())
		if _, err := p.SignIn(context.Background(), "bad-code"); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("store failure does not block sign-in", func(t *testing.T) {
		srv := googleTestServer(t, `{"sub":"g-4","email":"bo@example.com","name":"Bo"}`)
		defer srv.Close()

		users := newFakeUserStore()
		users.failWith = errors.New("connection refused")
		p := newTestGoogleProvider(srv, users)

		user, err := p.SignIn(context.Background(), "good-code")
		if err != nil {
			t.Fatalf("SignIn error: %v", err)
		}
		if user.Email != "bo@example.com" || user.Role != model.RoleUser || user.HasAccess {
			t.Errorf("user = %+v", user)
		}
	})
}

func TestNewState(t *testing.T) {
	a, err := NewState()
	if err != nil {
		t.Fatalf("NewState error: %v", err)
	}
	b, err := NewState()
	if err != nil {
		t.Fatalf("NewState error: %v", err)
	}
	if a == "" || a == b {
		t.Errorf("states must be non-empty and unique: %q %q", a, b)
	}
}
