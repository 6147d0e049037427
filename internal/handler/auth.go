package handler

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/thecoachmanuel/presentmax/internal/identity"
	"github.com/thecoachmanuel/presentmax/internal/middleware"
	"github.com/thecoachmanuel/presentmax/internal/model"
	"github.com/thecoachmanuel/presentmax/internal/session"
)

const stateCookieName = "presentmax_oauth_state"

var signInTmpl = template.Must(template.New("signin").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8">
	<title>Sign in - PresentMax</title>
</head>
<body>
	<h1>Sign in</h1>
	{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
	{{if .Notice}}<p class="notice">{{.Notice}}</p>{{end}}
	<form method="post" action="/auth/signin">
		<input type="hidden" name="callbackUrl" value="{{.CallbackURL}}">
		<label>Email <input type="email" name="email" required></label>
		<label>Password <input type="password" name="password" required></label>
		<button type="submit">Sign in</button>
	</form>
	<form method="post" action="/auth/signup">
		<input type="hidden" name="callbackUrl" value="{{.CallbackURL}}">
		<label>Email <input type="email" name="email" required></label>
		<label>Password <input type="password" name="password" required minlength="6"></label>
		<button type="submit">Create account</button>
	</form>
	{{if .GoogleEnabled}}<p><a href="/auth/google">Continue with Google</a></p>{{end}}
</body>
</html>
`))

type signInPage struct {
	Error         string
	Notice        string
	CallbackURL   string
	GoogleEnabled bool
}

// CredentialsAuthenticator verifies an email/password pair and returns the
// local user.
type CredentialsAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (model.User, error)
}

// SignupService registers a new account with the hosted identity service.
type SignupService interface {
	Signup(ctx context.Context, email, password string) error
}

// GoogleSignIn completes the Google authorization-code flow.
type GoogleSignIn interface {
	AuthCodeURL(state string) string
	SignIn(ctx context.Context, code string) (model.User, error)
}

// UserReader loads users for session refresh.
type UserReader interface {
	GetUserByID(ctx context.Context, id string) (model.User, error)
}

// LoginGuard tracks failed sign-in attempts per account.
type LoginGuard interface {
	IsAccountLocked(email string) (bool, time.Duration)
	RecordFailedAttempt(email string) (bool, time.Duration)
	RecordSuccessfulLogin(email string)
}

// AuthHandler serves the sign-in flow: credentials, sign-up, Google OAuth,
// sign-out and session refresh.
type AuthHandler struct {
	credentials CredentialsAuthenticator
	signup      SignupService
	google      GoogleSignIn // nil when Google is not configured
	users       UserReader
	sessions    *session.Manager
	guard       LoginGuard
	secure      bool
	log         *slog.Logger
}

// NewAuthHandler creates the auth handler. google may be nil.
func NewAuthHandler(
	credentials CredentialsAuthenticator,
	signup SignupService,
	google GoogleSignIn,
	users UserReader,
	sessions *session.Manager,
	guard LoginGuard,
	secure bool,
	log *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		signup:      signup,
		google:      google,
		users:       users,
		sessions:    sessions,
		guard:       guard,
		secure:      secure,
		log:         log,
	}
}

// SignInForm handles GET /auth/signin.
func (h *AuthHandler) SignInForm(w http.ResponseWriter, r *http.Request) {
	h.renderSignIn(w, r, signInPage{
		Error:       r.URL.Query().Get("error"),
		Notice:      r.URL.Query().Get("notice"),
		CallbackURL: safeCallbackURL(r.URL.Query().Get("callbackUrl"), middleware.PathApp),
	})
}

func (h *AuthHandler) renderSignIn(w http.ResponseWriter, _ *http.Request, page signInPage) {
	page.GoogleEnabled = h.google != nil
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := signInTmpl.Execute(w, page); err != nil {
		h.log.Error("rendering sign-in page", "error", err)
	}
}

// SignIn handles POST /auth/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	callback := safeCallbackURL(r.PostFormValue("callbackUrl"), middleware.PathApp)

	if locked, remaining := h.guard.IsAccountLocked(email); locked {
		h.log.Warn("sign-in attempt on locked account", "email", email, "remaining", remaining)
		http.Error(w, "Too many attempts, please try again later", http.StatusTooManyRequests)
		return
	}

	user, err := h.credentials.Authenticate(r.Context(), email, password)
	if err != nil {
		if !errors.Is(err, identity.ErrInvalidCredentials) {
			h.log.Error("credentials sign-in failed", "error", err)
		}
		h.guard.RecordFailedAttempt(email)
		h.renderSignIn(w, r, signInPage{Error: "Invalid credentials", CallbackURL: callback})
		return
	}

	h.guard.RecordSuccessfulLogin(email)
	if !h.issueSession(w, user) {
		return
	}
	http.Redirect(w, r, callback, http.StatusSeeOther)
}

// SignUp handles POST /auth/signup.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	callback := safeCallbackURL(r.PostFormValue("callbackUrl"), middleware.PathApp)

	if email == "" || len(password) < 6 {
		h.renderSignIn(w, r, signInPage{Error: "Password must be at least 6 characters", CallbackURL: callback})
		return
	}

	if err := h.signup.Signup(r.Context(), email, password); err != nil {
		h.log.Warn("sign-up rejected", "error", err)
		h.renderSignIn(w, r, signInPage{Error: "Could not create the account", CallbackURL: callback})
		return
	}
	h.renderSignIn(w, r, signInPage{
		Notice:      "Check your email to confirm the account, then sign in.",
		CallbackURL: callback,
	})
}

// SignOut handles POST /auth/signout.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	http.Redirect(w, r, middleware.PathSignIn, http.StatusSeeOther)
}

// GoogleStart handles GET /auth/google.
func (h *AuthHandler) GoogleStart(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		http.NotFound(w, r)
		return
	}
	state, err := identity.NewState()
	if err != nil {
		h.log.Error("starting google sign-in", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusFound)
}

// GoogleCallback handles GET /auth/google/callback.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		http.NotFound(w, r)
		return
	}

	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		h.log.Warn("google callback with bad state")
		http.Redirect(w, r, middleware.PathSignIn+"?error=Sign-in+failed", http.StatusFound)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/auth", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, middleware.PathSignIn+"?error=Sign-in+failed", http.StatusFound)
		return
	}

	user, err := h.google.SignIn(r.Context(), code)
	if err != nil {
		h.log.Warn("google sign-in failed", "error", err)
		http.Redirect(w, r, middleware.PathSignIn+"?error=Sign-in+failed", http.StatusFound)
		return
	}

	if !h.issueSession(w, user) {
		return
	}
	http.Redirect(w, r, middleware.PathApp, http.StatusFound)
}

// Refresh handles POST /api/session/refresh. It re-reads the user and
// re-issues the token so role and access changes reach the session without
// a new sign-in.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	s, ok := middleware.Authorized(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetUserByID(r.Context(), s.UserID)
	if err != nil {
		h.log.Error("session refresh lookup failed", "user_id", s.UserID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if !h.issueSession(w, user) {
		return
	}
	writeJSON(w, http.StatusOK, session.Session{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Image:     user.Image,
		Role:      user.Role,
		HasAccess: user.HasAccess,
		IsAdmin:   user.IsAdmin(),
		Location:  user.Location.String,
	})
}

// issueSession signs a token for the user and sets the cookie. Returns
// false when the response has already been written with an error.
func (h *AuthHandler) issueSession(w http.ResponseWriter, user model.User) bool {
	token, err := h.sessions.Issue(user)
	if err != nil {
		h.log.Error("issuing session token", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return false
	}
	h.sessions.SetCookie(w, token)
	return true
}
