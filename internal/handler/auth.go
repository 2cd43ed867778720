package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/aurabetz/internal/auth"
	"github.com/sakif/aurabetz/internal/flow"
	"github.com/sakif/aurabetz/internal/service"
)

// stateCookie holds the OAuth state between login and callback.
const stateCookie = "oauth_state"

// AuthHandler runs the Google sign-in round trip and sign-out.
//
// ROUTES:
//   - GET  /auth/google/login    → redirect to Google's consent screen
//   - GET  /auth/google/callback → exchange the code, sign in, set the session cookie
//   - POST /auth/logout          → revoke the session, clear the cookie
//   - GET  /api/me               → the identity snapshot of the current session
//
// Every failure in the round trip lands back on the landing page with a
// sign-in notice; there is no error page for it.
type AuthHandler struct {
	provider auth.IdentityProvider
	auth     *service.AuthService
	ttl      time.Duration
	secure   bool
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler. secure marks cookies HTTPS-only and
// should be true whenever the callback URL is https.
func NewAuthHandler(
	provider auth.IdentityProvider,
	authService *service.AuthService,
	ttl time.Duration,
	secure bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		auth:     authService,
		ttl:      ttl,
		secure:   secure,
		logger:   logger,
	}
}

// HandleGoogleLogin stores a fresh state value in a short-lived cookie and
// sends the browser to the provider. The callback must echo the same state.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes sign-in.
//
// HTTP: GET /auth/google/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Check the state against the cookie (single use, cleared either way)
//  2. Exchange the code for an identity
//  3. Upsert the profile and issue the session token (AuthService.SignIn)
//  4. Set the session cookie and redirect to onboarding or the dashboard
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	c, err := r.Cookie(stateCookie)
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})
	if err != nil || c.Value == "" || q.Get("state") != c.Value {
		h.logger.Warn("auth callback: state mismatch")
		h.signInFailed(w, r)
		return
	}

	if errParam := q.Get("error"); errParam != "" {
		h.logger.Info("auth callback: provider returned an error",
			slog.String("error", errParam),
		)
		h.signInFailed(w, r)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.logger.Warn("auth callback: missing code")
		h.signInFailed(w, r)
		return
	}

	id, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: exchange failed", slog.String("error", err.Error()))
		h.signInFailed(w, r)
		return
	}

	res, err := h.auth.SignIn(r.Context(), id)
	if err != nil {
		h.logger.Error("auth callback: sign-in failed", slog.String("error", err.Error()))
		h.signInFailed(w, r)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    res.Token,
		Path:     "/",
		MaxAge:   int(h.ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, flow.NextRoute(res.Profile), http.StatusSeeOther)
}

func (h *AuthHandler) signInFailed(w http.ResponseWriter, r *http.Request) {
	setNotice(w, flow.SignInFailed())
	http.Redirect(w, r, flow.RouteLanding, http.StatusSeeOther)
}

// HandleLogout revokes the session and clears the cookie.
//
// HTTP: POST /auth/logout
//
// The cookie is cleared even when revocation fails, so the browser is signed
// out either way; the user is told the server could not record it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.SessionCookie); err == nil {
		if err := h.auth.SignOut(r.Context(), c.Value); err != nil {
			h.logger.Error("logout: revoking session failed", slog.String("error", err.Error()))
			setNotice(w, flow.LogoutFailed())
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, flow.RouteLanding, http.StatusSeeOther)
}

// HandleMe returns the identity snapshot of the current session.
//
// HTTP: GET /api/me
// Auth: Required
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "sign in required",
		})
		return
	}
	writeJSON(w, http.StatusOK, id)
}
