// Package auth provides sign-in with Google, signed session tokens, and the
// middleware that turns a session cookie into a model.Identity.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. User clicks "Sign in" → /auth/google/login redirects to Google
//  2. Google calls back /auth/google/callback with a code
//  3. Server exchanges the code for the Google profile and upserts the user
//  4. Server issues a session JWT and stores it in an HttpOnly cookie
//  5. On each request, middleware validates the JWT, checks it has not been
//     revoked, and puts the identity snapshot in the request context
//
// IDENTITY SNAPSHOT:
// The token carries the identity (uid, email, display name, photo) captured at
// sign-in time. Handlers read it from the context; they never re-query the
// provider mid-request, so every function sees the same identity.
//
// SIGN-OUT:
// JWTs are stateless, so signing out cannot "delete" one. Each token has a
// unique id (jti); sign-out records it in a Revocations store until the token
// would have expired anyway.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"

	"github.com/sakif/aurabetz/internal/model"
)

const issuer = "aurabetz"

// DefaultSessionTTL is used when no TTL is configured.
const DefaultSessionTTL = 7 * 24 * time.Hour

// TokenService handles session JWT creation and validation.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. ttl <= 0 selects DefaultSessionTTL.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL reports how long issued sessions live. The cookie max-age follows it.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Claims is the session payload: registered claims plus the identity snapshot.
// "sub" is the provider's stable uid, "jti" the revocable session id.
type Claims struct {
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	PhotoURL string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the snapshot the token was issued for.
func (c *Claims) Identity() model.Identity {
	return model.Identity{
		ID:       c.Subject,
		Email:    c.Email,
		Name:     c.Name,
		PhotoURL: c.PhotoURL,
	}
}

// Generate signs a session token for id, valid for the configured TTL.
func (s *TokenService) Generate(id model.Identity) (string, *Claims, error) {
	return s.GenerateWithDuration(id, s.ttl)
}

// GenerateWithDuration is Generate with an explicit lifetime. Tests use it
// to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(id model.Identity, d time.Duration) (string, *Claims, error) {
	if id.ID == "" {
		return "", nil, errors.New("auth: identity has no uid")
	}
	now := s.now()

	c := &Claims{
		Email:    id.Email,
		Name:     id.Name,
		PhotoURL: id.PhotoURL,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, c, nil
}

// Validate parses and verifies a session token and returns its claims.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid and the algorithm is HS256 (no "none" tokens)
//   - Token is not expired
//   - Issuer matches
//
// Revocation is checked separately by the middleware, since it needs a store.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("auth: token has no subject")
	}
	if c.ID == "" {
		return nil, fmt.Errorf("auth: token has no session id")
	}

	return c, nil
}
