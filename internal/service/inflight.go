package service

import (
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/sakif/aurabetz/internal/apperror"
	"github.com/sakif/aurabetz/internal/model"
)

// InFlight tracks, per user, the one pick whose follow or unfollow is
// currently being processed. The dashboard disables that pick's button.
//
// Only one id is tracked per user. Starting a mutation on another pick while
// one is outstanding is allowed and replaces the tracked id; starting a second
// mutation on the same pick is rejected.
type InFlight struct {
	byUser cmap.ConcurrentMap[string, string]
}

func NewInFlight() *InFlight {
	return &InFlight{byUser: cmap.New[string]()}
}

// Begin marks pickID as in flight for userID. It returns apperror.ErrConflict
// if that exact pick is already in flight for the user.
func (f *InFlight) Begin(userID, pickID string) error {
	rejected := false
	// The callback runs under the shard lock, so check-and-set is atomic.
	f.byUser.Upsert(userID, pickID, func(exists bool, current, next string) string {
		if exists && current == next {
			rejected = true
		}
		return next
	})
	if rejected {
		return apperror.Conflict("follow request", model.MembershipID(userID, pickID))
	}
	return nil
}

// End clears the user's in-flight pick if it is still pickID. A newer Begin
// for a different pick is left alone.
func (f *InFlight) End(userID, pickID string) {
	f.byUser.RemoveCb(userID, func(_ string, current string, exists bool) bool {
		return exists && current == pickID
	})
}

// Current returns the user's in-flight pick, if any.
func (f *InFlight) Current(userID string) (string, bool) {
	return f.byUser.Get(userID)
}
