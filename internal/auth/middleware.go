package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/aurabetz/internal/model"
)

// SessionCookie holds the session JWT.
const SessionCookie = "session"

// contextKey is unexported so only this package can read or write the
// identity stored in a request context.
type contextKey string

const (
	identityKey contextKey = "identity"
	claimsKey   contextKey = "claims"
)

// Authenticator resolves the session cookie into an identity snapshot.
type Authenticator struct {
	tokens      *TokenService
	revocations Revocations
	logger      *slog.Logger
}

func NewAuthenticator(tokens *TokenService, revocations Revocations, logger *slog.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, revocations: revocations, logger: logger}
}

// RequireAuth rejects requests without a valid session with a 401 JSON body.
// Used on /api routes; page routes use OptionalAuth and redirect instead.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := a.resolve(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized","message":"sign in required"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), c)))
	})
}

// OptionalAuth attaches the identity when a valid session is present and
// continues anonymously otherwise.
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := a.resolve(r); err == nil {
			r = r.WithContext(withClaims(r.Context(), c))
		}
		next.ServeHTTP(w, r)
	})
}

var errRevoked = errors.New("auth: session revoked")

// resolve validates the cookie and checks the revocation store. A store
// failure is treated as "not signed in" and logged.
func (a *Authenticator) resolve(r *http.Request) (*Claims, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, err
	}
	c, err := a.tokens.Validate(cookie.Value)
	if err != nil {
		return nil, err
	}
	revoked, err := a.revocations.IsRevoked(r.Context(), c.ID)
	if err != nil {
		a.logger.Error("checking session revocation",
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	if revoked {
		return nil, errRevoked
	}
	return c, nil
}

func withClaims(ctx context.Context, c *Claims) context.Context {
	id := c.Identity()
	ctx = context.WithValue(ctx, claimsKey, c)
	return context.WithValue(ctx, identityKey, &id)
}

// WithIdentity returns a context carrying id. Used by tests of packages that
// read identities without going through the cookie middleware.
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, &id)
}

// IdentityFromContext returns the signed-in identity, or (nil, false) for
// an anonymous request.
func IdentityFromContext(ctx context.Context) (*model.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*model.Identity)
	return id, ok && id != nil && id.ID != ""
}

// SessionFromContext returns the session state a page renders from. On the
// server the session is resolved before any handler runs, so it is never
// Resolving here.
func SessionFromContext(ctx context.Context) model.Session {
	id, _ := IdentityFromContext(ctx)
	return model.Session{Identity: id}
}

// ClaimsFromContext returns the validated token claims (for sign-out).
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}
