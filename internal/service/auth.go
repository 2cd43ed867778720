package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/aurabetz/internal/auth"
	"github.com/sakif/aurabetz/internal/model"
)

// AuthService handles sign-in and sign-out.
//
//	AuthHandler (HTTP) → AuthService → ProfileService (upsert)
//	                               ↘ TokenService (JWT), Revocations
//
// It does not touch cookies or requests; that is the handler's job.
type AuthService struct {
	profiles    *ProfileService
	tokens      *auth.TokenService
	revocations auth.Revocations
	logger      *slog.Logger
}

func NewAuthService(
	profiles *ProfileService,
	tokens *auth.TokenService,
	revocations auth.Revocations,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		profiles:    profiles,
		tokens:      tokens,
		revocations: revocations,
		logger:      logger,
	}
}

// AuthResult bundles what the callback handler needs to finish sign-in.
type AuthResult struct {
	Profile *model.UserProfile
	Token   string
	Claims  *auth.Claims
}

// SignIn runs after the provider has returned an identity:
//
//  1. Upsert the profile (create on first sign-in, merge afterwards)
//  2. Issue a session token carrying the identity snapshot
//
// A failed upsert fails the sign-in; the user sees a notice and can retry.
func (s *AuthService) SignIn(ctx context.Context, id *model.Identity) (*AuthResult, error) {
	if id == nil || id.ID == "" {
		return nil, fmt.Errorf("service/auth: identity must have a uid")
	}

	profile, err := s.profiles.Upsert(ctx, id.ID, model.FieldsFromIdentity(*id))
	if err != nil {
		return nil, fmt.Errorf("service/auth: signing in %s: %w", id.ID, err)
	}

	token, claims, err := s.tokens.Generate(*id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for %s: %w", id.ID, err)
	}

	s.logger.Info("user signed in",
		slog.String("userID", id.ID),
		slog.String("email", id.Email),
	)

	return &AuthResult{Profile: profile, Token: token, Claims: claims}, nil
}

// SignOut revokes the session token until it would have expired. A token
// that is already invalid or expired has nothing to revoke.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	c, err := s.tokens.Validate(token)
	if err != nil {
		return nil
	}
	if err := s.revocations.Revoke(ctx, c.ID, c.ExpiresAt.Time); err != nil {
		return fmt.Errorf("service/auth: revoking session: %w", err)
	}
	s.logger.Info("user signed out", slog.String("userID", c.Subject))
	return nil
}
