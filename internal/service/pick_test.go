package service

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/aurabetz/internal/apperror"
	"github.com/sakif/aurabetz/internal/model"
)

func newTestPickService() (*PickService, *fakePickRepo, *fakeFollowRepo) {
	picks := newFakePickRepo()
	follows := newFakeFollowRepo()
	return NewPickService(picks, follows, discardLogger()), picks, follows
}

func TestListToday_NewestFirst(t *testing.T) {
	svc, picks, _ := newTestPickService()
	first := picks.mustCreate("NBA", "first")
	second := picks.mustCreate("NFL", "second")

	got := svc.ListToday(context.Background())
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
}

func TestListToday_ErrorReadsAsEmpty(t *testing.T) {
	svc, picks, _ := newTestPickService()
	picks.mustCreate("NBA", "hidden")
	picks.listErr = errStoreDown

	got := svc.ListToday(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListWithStatus(t *testing.T) {
	svc, picks, follows := newTestPickService()
	ctx := context.Background()
	p1 := picks.mustCreate("NBA", "p1")
	p2 := picks.mustCreate("NFL", "p2")

	_, _ = follows.Create(ctx, "u1", p1.ID)
	_, _ = follows.Create(ctx, "u2", p1.ID)
	_, _ = follows.Create(ctx, "u2", p2.ID)

	got := svc.ListWithStatus(ctx, "u1")
	require.Len(t, got, 2)

	byID := map[string]model.PickWithStatus{}
	for _, p := range got {
		byID[p.ID] = p
	}
	assert.Equal(t, 2, byID[p1.ID].FollowerCount)
	assert.True(t, byID[p1.ID].IsFollowing)
	assert.Equal(t, 1, byID[p2.ID].FollowerCount)
	assert.False(t, byID[p2.ID].IsFollowing)

	// Order is preserved through the parallel map.
	assert.Equal(t, p2.ID, got[0].ID)
}

func TestListWithStatus_Anonymous(t *testing.T) {
	svc, picks, follows := newTestPickService()
	p := picks.mustCreate("NBA", "p1")
	_, _ = follows.Create(context.Background(), "u1", p.ID)

	got := svc.ListWithStatus(context.Background(), "")
	require.Len(t, got, 1)
	assert.False(t, got[0].IsFollowing)
	assert.Equal(t, 1, got[0].FollowerCount)
}

func TestListWithStatus_SubReadFailuresDegrade(t *testing.T) {
	svc, picks, follows := newTestPickService()
	p := picks.mustCreate("NBA", "p1")
	_, _ = follows.Create(context.Background(), "u1", p.ID)
	follows.countErr = errStoreDown
	follows.getErr = errStoreDown

	got := svc.ListWithStatus(context.Background(), "u1")
	require.Len(t, got, 1)
	assert.Equal(t, p.ID, got[0].ID)
	assert.Zero(t, got[0].FollowerCount)
	assert.False(t, got[0].IsFollowing)
}

// A failing sub-read only zeroes its own field, and each pick logs one
// warning however many of its reads failed.
func TestListWithStatus_OneSubReadFails(t *testing.T) {
	tests := []struct {
		name          string
		countErr      error
		getErr        error
		wantCount     int
		wantFollowing bool
	}{
		{name: "count fails", countErr: errStoreDown, wantCount: 0, wantFollowing: true},
		{name: "membership fails", getErr: errStoreDown, wantCount: 1, wantFollowing: false},
		{name: "both fail", countErr: errStoreDown, getErr: errStoreDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			picks := newFakePickRepo()
			follows := newFakeFollowRepo()
			svc := NewPickService(picks, follows, slog.New(slog.NewJSONHandler(&logs, nil)))

			p := picks.mustCreate("NBA", "p1")
			_, _ = follows.Create(context.Background(), "u1", p.ID)
			follows.countErr = tt.countErr
			follows.getErr = tt.getErr

			got := svc.ListWithStatus(context.Background(), "u1")
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantCount, got[0].FollowerCount)
			assert.Equal(t, tt.wantFollowing, got[0].IsFollowing)
			assert.Equal(t, 1, strings.Count(logs.String(), "failed to read pick status"))
		})
	}
}

func TestListWithStatus_Empty(t *testing.T) {
	svc, _, _ := newTestPickService()

	got := svc.ListWithStatus(context.Background(), "u1")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAddPick(t *testing.T) {
	svc, picks, _ := newTestPickService()

	p, err := svc.AddPick(context.Background(), model.NewPick{
		Sport:      " nba ",
		Matchup:    " Lakers @ Celtics ",
		Pick:       "Celtics -4.5",
		Odds:       "-110",
		Confidence: 72,
	})
	require.NoError(t, err)
	assert.Equal(t, "NBA", p.Sport)
	assert.Equal(t, "Lakers @ Celtics", p.Matchup)
	assert.Contains(t, picks.picks, p.ID)
}

func TestAddPick_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    model.NewPick
		field string
	}{
		{"missing sport", model.NewPick{Matchup: "A @ B", Pick: "A"}, "sport"},
		{"missing matchup", model.NewPick{Sport: "NBA", Pick: "A"}, "matchup"},
		{"missing pick", model.NewPick{Sport: "NBA", Matchup: "A @ B"}, "pick"},
		{"confidence too high", model.NewPick{Sport: "NBA", Matchup: "A @ B", Pick: "A", Confidence: 101}, "confidence"},
		{"unknown sport", model.NewPick{Sport: "CRICKET", Matchup: "A @ B", Pick: "A"}, "sport"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestPickService()

			_, err := svc.AddPick(context.Background(), tt.in)
			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestAddPick_PropagatesErrors(t *testing.T) {
	svc, picks, _ := newTestPickService()
	picks.createErr = errStoreDown

	_, err := svc.AddPick(context.Background(), model.NewPick{Sport: "NBA", Matchup: "A @ B", Pick: "A"})
	assert.ErrorIs(t, err, errStoreDown)
}
