package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/aurabetz/internal/apperror"
	"github.com/sakif/aurabetz/internal/model"
	"github.com/sakif/aurabetz/internal/repository"
)

// FollowService creates and deletes follow memberships.
//
// RELAXED COUNT:
// The membership write and the follower recount are two separate store
// calls with no transaction around them. The returned FollowerCount is
// correct as of the recount and may already be off by the follows and
// unfollows other users made in between.
type FollowService struct {
	follows  repository.FollowRepository
	picks    *PickService
	inflight *InFlight
	logger   *slog.Logger
}

func NewFollowService(follows repository.FollowRepository, picks *PickService, inflight *InFlight, logger *slog.Logger) *FollowService {
	return &FollowService{follows: follows, picks: picks, inflight: inflight, logger: logger}
}

// failed is the result reported alongside every error.
var failed = model.FollowResult{Success: false, FollowerCount: 0}

// Follow makes userID follow pickID.
//
// Following an already-followed pick is a no-op: Success=false with the
// current count and no error. Any store error returns failed and the error.
func (s *FollowService) Follow(ctx context.Context, pickID, userID string) (model.FollowResult, error) {
	if err := s.begin(ctx, pickID, userID); err != nil {
		return failed, err
	}
	defer s.inflight.End(userID, pickID)

	_, err := s.follows.Get(ctx, userID, pickID)
	switch {
	case err == nil:
		return s.recount(ctx, pickID, false)
	case !errors.Is(err, apperror.ErrNotFound):
		return s.fail("follow", pickID, userID, err)
	}

	if _, err := s.follows.Create(ctx, userID, pickID); err != nil {
		// Another request for the same pair won the insert.
		if errors.Is(err, apperror.ErrConflict) {
			return s.recount(ctx, pickID, false)
		}
		return s.fail("follow", pickID, userID, err)
	}

	res, err := s.recount(ctx, pickID, true)
	if err != nil {
		return res, err
	}
	s.logger.Info("pick followed",
		slog.String("pickID", pickID),
		slog.String("userID", userID),
		slog.Int("followers", res.FollowerCount),
	)
	return res, nil
}

// Unfollow deletes the membership and recounts. Unfollowing a pick the user
// does not follow succeeds.
func (s *FollowService) Unfollow(ctx context.Context, pickID, userID string) (model.FollowResult, error) {
	if err := s.begin(ctx, pickID, userID); err != nil {
		return failed, err
	}
	defer s.inflight.End(userID, pickID)

	if err := s.follows.Delete(ctx, userID, pickID); err != nil {
		return s.fail("unfollow", pickID, userID, err)
	}

	res, err := s.recount(ctx, pickID, true)
	if err != nil {
		return res, err
	}
	s.logger.Info("pick unfollowed",
		slog.String("pickID", pickID),
		slog.String("userID", userID),
		slog.Int("followers", res.FollowerCount),
	)
	return res, nil
}

// InFlight returns the pick whose mutation is being processed for userID.
func (s *FollowService) InFlight(userID string) (string, bool) {
	return s.inflight.Current(userID)
}

// begin validates the pair, checks the pick exists, and claims the in-flight
// slot. The slot is claimed last so a rejected request never holds it.
func (s *FollowService) begin(ctx context.Context, pickID, userID string) error {
	if userID == "" {
		return apperror.Unauthorized("sign in to follow picks")
	}
	if pickID == "" {
		return apperror.ValidationFailed("pickId", "pick ID is required")
	}
	ok, err := s.picks.Exists(ctx, pickID)
	if err != nil {
		s.logger.Error("failed to look up pick",
			slog.String("pickID", pickID),
			slog.String("error", err.Error()),
		)
		return err
	}
	if !ok {
		return apperror.NotFound("pick", pickID)
	}
	return s.inflight.Begin(userID, pickID)
}

func (s *FollowService) recount(ctx context.Context, pickID string, success bool) (model.FollowResult, error) {
	n, err := s.follows.CountByPick(ctx, pickID)
	if err != nil {
		s.logger.Error("failed to count followers",
			slog.String("pickID", pickID),
			slog.String("error", err.Error()),
		)
		return failed, fmt.Errorf("counting followers: %w", err)
	}
	return model.FollowResult{Success: success, FollowerCount: n}, nil
}

func (s *FollowService) fail(op, pickID, userID string, err error) (model.FollowResult, error) {
	s.logger.Error("failed to "+op+" pick",
		slog.String("pickID", pickID),
		slog.String("userID", userID),
		slog.String("error", err.Error()),
	)
	return failed, fmt.Errorf("%s pick %s: %w", op, pickID, err)
}
