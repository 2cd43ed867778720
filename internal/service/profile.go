// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the document store
//
// Services take repository interfaces, never *sqlite.DB, so tests pass
// in-memory fakes and the handlers never see SQL.
//
// ONE ERROR POLICY PER OPERATION:
// Each operation documents whether it propagates store errors or absorbs
// them into an empty result. Absorbed errors are always logged.
//
//	ProfileService.Upsert          propagates
//	ProfileService.Profile         absorbs → nil
//	ProfileService.SavePreferences propagates
//	PickService.ListToday          absorbs → empty list
//	PickService.ListWithStatus     absorbs → empty list / zero fields
//	PickService.AddPick            propagates
//	FollowService.Follow/Unfollow  propagates, with a {false, 0} result
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/aurabetz/internal/apperror"
	"github.com/sakif/aurabetz/internal/flow"
	"github.com/sakif/aurabetz/internal/model"
	"github.com/sakif/aurabetz/internal/repository"
)

// ProfileService reads and writes the per-user profile document.
type ProfileService struct {
	repo   repository.ProfileRepository
	logger *slog.Logger
}

func NewProfileService(repo repository.ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{repo: repo, logger: logger}
}

// Upsert creates the profile on first sign-in or merges fields into it.
// Store errors are logged and returned.
func (s *ProfileService) Upsert(ctx context.Context, userID string, fields model.ProfileFields) (*model.UserProfile, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	p, err := s.repo.Upsert(ctx, userID, fields)
	if err != nil {
		s.logger.Error("failed to upsert profile",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("upserting profile: %w", err)
	}
	return p, nil
}

// Profile returns the stored profile, or nil when it is absent or cannot be
// read. Callers treat nil as "not onboarded".
func (s *ProfileService) Profile(ctx context.Context, userID string) *model.UserProfile {
	if userID == "" {
		return nil
	}
	p, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		// Absent is normal for a user who has never signed in here.
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to read profile",
				slog.String("userID", userID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
	return p
}

// SavePreferences validates and merge-writes the onboarding preferences.
//
// Rules:
//   - every code must be a selectable catalog sport, without duplicates
//   - at most flow.MaxSelectedSports codes
//   - wantsAll stores an empty sport list, whatever was passed
//
// Codes are upper-cased before validation. Store errors propagate.
func (s *ProfileService) SavePreferences(ctx context.Context, userID string, sports []string, wantsAll bool) error {
	if strings.TrimSpace(userID) == "" {
		return apperror.ValidationFailed("id", "user ID is required")
	}

	clean := []string{}
	if !wantsAll {
		seen := make(map[string]bool, len(sports))
		for _, raw := range sports {
			code := strings.ToUpper(strings.TrimSpace(raw))
			if !flow.Selectable(code) {
				return apperror.ValidationFailed("preferredSports",
					fmt.Sprintf("%q is not an available sport", raw))
			}
			if seen[code] {
				continue
			}
			seen[code] = true
			clean = append(clean, code)
		}
		if len(clean) > flow.MaxSelectedSports {
			return apperror.ValidationFailed("preferredSports",
				fmt.Sprintf("choose at most %d sports", flow.MaxSelectedSports))
		}
	}

	if err := s.repo.SavePreferences(ctx, userID, clean, wantsAll); err != nil {
		s.logger.Error("failed to save preferences",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("saving preferences: %w", err)
	}

	s.logger.Info("preferences saved",
		slog.String("userID", userID),
		slog.Int("sports", len(clean)),
		slog.Bool("wantsAll", wantsAll),
	)
	return nil
}
