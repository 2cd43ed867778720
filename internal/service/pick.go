package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sourcegraph/conc/iter"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/aurabetz/internal/apperror"
	"github.com/sakif/aurabetz/internal/flow"
	"github.com/sakif/aurabetz/internal/model"
	"github.com/sakif/aurabetz/internal/repository"
)

// PickService lists picks and decorates them with follow status.
type PickService struct {
	picks   repository.PickRepository
	follows repository.FollowRepository
	logger  *slog.Logger
}

func NewPickService(picks repository.PickRepository, follows repository.FollowRepository, logger *slog.Logger) *PickService {
	return &PickService{picks: picks, follows: follows, logger: logger}
}

// ListToday returns every pick, newest first.
// A store error is logged and reads as an empty list.
func (s *PickService) ListToday(ctx context.Context) []model.Pick {
	picks, err := s.picks.List(ctx)
	if err != nil {
		s.logger.Error("failed to list picks", slog.String("error", err.Error()))
		return []model.Pick{}
	}
	return picks
}

// ListWithStatus returns today's picks with each pick's follower count and
// whether userID follows it.
//
// FAN-OUT:
// Picks are decorated in parallel, and for each pick the count query and
// the membership lookup run in parallel too, so a dashboard load costs
// O(picks) concurrent round-trips but only about two round-trips of latency.
// There is no caching. A failed sub-read leaves that field at its zero value
// (0 followers / not following); it never fails the list. Each pick logs at
// most one warning, carrying the first failure.
//
// An empty userID (anonymous) yields IsFollowing=false everywhere.
func (s *PickService) ListWithStatus(ctx context.Context, userID string) []model.PickWithStatus {
	picks := s.ListToday(ctx)
	return iter.Map(picks, func(p *model.Pick) model.PickWithStatus {
		return s.withStatus(ctx, *p, userID)
	})
}

func (s *PickService) withStatus(ctx context.Context, p model.Pick, userID string) model.PickWithStatus {
	out := model.PickWithStatus{Pick: p}

	// Each goroutine writes a different field of out, and only on success.
	var g errgroup.Group
	g.Go(func() error {
		n, err := s.follows.CountByPick(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("counting followers: %w", err)
		}
		out.FollowerCount = n
		return nil
	})
	g.Go(func() error {
		if userID == "" {
			return nil
		}
		_, err := s.follows.Get(ctx, userID, p.ID)
		switch {
		case err == nil:
			out.IsFollowing = true
		case !errors.Is(err, apperror.ErrNotFound):
			return fmt.Errorf("reading follow membership: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("failed to read pick status",
			slog.String("pickID", p.ID),
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
	}

	return out
}

// AddPick validates and publishes a new pick. Used by the admin API.
// The sport must be a catalog code (disabled ones included); store errors
// propagate.
func (s *PickService) AddPick(ctx context.Context, in model.NewPick) (*model.Pick, error) {
	in = in.Normalize()
	if field, msg := in.Validate(); field != "" {
		return nil, apperror.ValidationFailed(field, msg)
	}
	if _, ok := flow.LookupSport(in.Sport); !ok {
		return nil, apperror.ValidationFailed("sport", fmt.Sprintf("unknown sport %q", in.Sport))
	}

	p, err := s.picks.Create(ctx, in)
	if err != nil {
		s.logger.Error("failed to create pick",
			slog.String("sport", in.Sport),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating pick: %w", err)
	}

	s.logger.Info("pick published",
		slog.String("id", p.ID),
		slog.String("sport", p.Sport),
		slog.String("matchup", p.Matchup),
	)
	return p, nil
}

// Exists reports whether pickID names a stored pick.
func (s *PickService) Exists(ctx context.Context, pickID string) (bool, error) {
	_, err := s.picks.GetByID(ctx, pickID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperror.ErrNotFound):
		return false, nil
	}
	return false, fmt.Errorf("looking up pick %s: %w", pickID, err)
}
