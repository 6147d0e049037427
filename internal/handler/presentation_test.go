package handler

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/thecoachmanuel/presentmax/internal/middleware"
	"github.com/thecoachmanuel/presentmax/internal/session"
)

func TestPresentationHandler_Page(t *testing.T) {
	t.Run("renders the app shell for a session", func(t *testing.T) {
		h := NewPresentationHandler(slog.New(slog.DiscardHandler))

		r := httptest.NewRequest(http.MethodGet, "/presentation", nil)
		r = r.WithContext(middleware.WithSession(r.Context(), session.Session{
			UserID: "u-1", Email: "ana@example.com", Name: "Ana",
		}))
		w := httptest.NewRecorder()
		h.Page(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		body := w.Body.String()
		if !strings.Contains(body, "Ana") {
			t.Error("user name missing")
		}
		if !strings.Contains(body, `data-user-id="u-1"`) {
			t.Error("user id attribute missing")
		}
		if !strings.Contains(body, "Free plan") {
			t.Error("free plan badge missing for a user without access")
		}
	})

	t.Run("paying user sees no free plan badge", func(t *testing.T) {
		h := NewPresentationHandler(slog.New(slog.DiscardHandler))

		r := httptest.NewRequest(http.MethodGet, "/presentation", nil)
		r = r.WithContext(middleware.WithSession(r.Context(), session.Session{
			UserID: "u-1", Email: "ana@example.com", HasAccess: true,
		}))
		w := httptest.NewRecorder()
		h.Page(w, r)

		if strings.Contains(w.Body.String(), "Free plan") {
			t.Error("free plan badge shown for a paying user")
		}
	})

	t.Run("direct hit without a session redirects to sign-in", func(t *testing.T) {
		h := NewPresentationHandler(slog.New(slog.DiscardHandler))

		r := httptest.NewRequest(http.MethodGet, "/presentation/42?tab=theme", nil)
		w := httptest.NewRecorder()
		h.Page(w, r)

		if w.Code != http.StatusFound {
			t.Fatalf("status = %d, want 302", w.Code)
		}
		loc := w.Header().Get("Location")
		if !strings.HasPrefix(loc, middleware.PathSignIn) {
			t.Errorf("location = %q", loc)
		}
		if !strings.Contains(loc, "callbackUrl=") {
			t.Error("redirect must carry the original URL")
		}
	})
}
