package handler

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/thecoachmanuel/presentmax/internal/middleware"
	"github.com/thecoachmanuel/presentmax/internal/session"
)

var presentationTmpl = template.Must(template.New("presentation").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8">
	<title>PresentMax</title>
</head>
<body>
	<header>
		<span>{{.Name}}{{if not .Name}}{{.Email}}{{end}}</span>
		{{if not .HasAccess}}<span class="badge">Free plan</span>{{end}}
		<form method="post" action="/auth/signout"><button type="submit">Sign out</button></form>
	</header>
	<main id="app" data-user-id="{{.UserID}}" data-has-access="{{.HasAccess}}"></main>
</body>
</html>
`))

// PresentationHandler serves the main application page. The route gate
// guarantees a session is present.
type PresentationHandler struct {
	log *slog.Logger
}

// NewPresentationHandler creates the presentation page handler.
func NewPresentationHandler(log *slog.Logger) *PresentationHandler {
	return &PresentationHandler{log: log}
}

// Page handles GET /presentation.
func (h *PresentationHandler) Page(w http.ResponseWriter, r *http.Request) {
	s, ok := middleware.SessionFrom(r.Context())
	if !ok {
		// The gate redirects unauthenticated page requests before this
		// handler runs; direct hits without it still get the redirect.
		http.Redirect(w, r, middleware.SignInRedirectURL(r.URL), http.StatusFound)
		return
	}
	h.render(w, s)
}

func (h *PresentationHandler) render(w http.ResponseWriter, s session.Session) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := presentationTmpl.Execute(w, s); err != nil {
		h.log.Error("rendering presentation page", "error", err)
	}
}
