package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sakif/aurabetz/internal/apperror"
	"github.com/sakif/aurabetz/internal/model"
	"github.com/sakif/aurabetz/internal/repository"
)

// =========================================================================
// FAKES
// =========================================================================
//
// In-memory implementations of the repository interfaces. Each has an error
// field per method to simulate a store failure. The fakes are safe for
// concurrent use because PickService reads them from several goroutines.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock returns strictly increasing times.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	clock    *fakeClock
	profiles map[string]model.UserProfile

	upsertErr error
	getErr    error
	saveErr   error
}

var _ repository.ProfileRepository = (*fakeProfileRepo)(nil)

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{clock: newFakeClock(), profiles: map[string]model.UserProfile{}}
}

func (f *fakeProfileRepo) Upsert(_ context.Context, userID string, fields model.ProfileFields) (*model.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	now := f.clock.now()
	p, ok := f.profiles[userID]
	if !ok {
		p = model.UserProfile{ID: userID, CreatedAt: now, PreferredSports: []string{}}
	}
	if fields.Email != nil {
		p.Email = *fields.Email
	}
	if fields.Name != nil {
		p.Name = *fields.Name
	}
	if fields.PhotoURL != nil {
		p.PhotoURL = *fields.PhotoURL
	}
	p.LastSignedIn = now
	f.profiles[userID] = p
	return &p, nil
}

func (f *fakeProfileRepo) GetByID(_ context.Context, userID string) (*model.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, apperror.NotFound("profile", userID)
	}
	return &p, nil
}

func (f *fakeProfileRepo) SavePreferences(_ context.Context, userID string, sports []string, wantsAll bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	now := f.clock.now()
	p, ok := f.profiles[userID]
	if !ok {
		p = model.UserProfile{ID: userID, CreatedAt: now, LastSignedIn: now}
	}
	p.PreferredSports = append([]string{}, sports...)
	p.WantsAllPicks = wantsAll
	p.PreferencesSet = true
	p.UpdatedAt = &now
	f.profiles[userID] = p
	return nil
}

type fakePickRepo struct {
	mu     sync.Mutex
	clock  *fakeClock
	picks  map[string]model.Pick
	nextID int

	listErr   error
	getErr    error
	createErr error
}

var _ repository.PickRepository = (*fakePickRepo)(nil)

func newFakePickRepo() *fakePickRepo {
	return &fakePickRepo{clock: newFakeClock(), picks: map[string]model.Pick{}}
}

func (f *fakePickRepo) Create(_ context.Context, in model.NewPick) (*model.Pick, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	now := f.clock.now()
	p := model.Pick{
		ID:         fmt.Sprintf("pick-%d", f.nextID),
		Sport:      in.Sport,
		Matchup:    in.Matchup,
		Pick:       in.Pick,
		Odds:       in.Odds,
		Confidence: in.Confidence,
		Analysis:   in.Analysis,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.picks[p.ID] = p
	return &p, nil
}

func (f *fakePickRepo) GetByID(_ context.Context, id string) (*model.Pick, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.picks[id]
	if !ok {
		return nil, apperror.NotFound("pick", id)
	}
	return &p, nil
}

func (f *fakePickRepo) List(_ context.Context) ([]model.Pick, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Pick, 0, len(f.picks))
	for _, p := range f.picks {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// mustCreate is a test shortcut that publishes a pick directly in the fake.
func (f *fakePickRepo) mustCreate(sport, matchup string) model.Pick {
	p, err := f.Create(context.Background(), model.NewPick{Sport: sport, Matchup: matchup, Pick: "ML"})
	if err != nil {
		panic(err)
	}
	return *p
}

type fakeFollowRepo struct {
	mu          sync.Mutex
	memberships map[string]model.FollowMembership

	getErr    error
	createErr error
	deleteErr error
	countErr  error
}

var _ repository.FollowRepository = (*fakeFollowRepo)(nil)

func newFakeFollowRepo() *fakeFollowRepo {
	return &fakeFollowRepo{memberships: map[string]model.FollowMembership{}}
}

func (f *fakeFollowRepo) Get(_ context.Context, userID, pickID string) (*model.FollowMembership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	id := model.MembershipID(userID, pickID)
	m, ok := f.memberships[id]
	if !ok {
		return nil, apperror.NotFound("follow", id)
	}
	return &m, nil
}

func (f *fakeFollowRepo) Create(_ context.Context, userID, pickID string) (*model.FollowMembership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	id := model.MembershipID(userID, pickID)
	if _, ok := f.memberships[id]; ok {
		return nil, apperror.Conflict("follow", id)
	}
	m := model.FollowMembership{ID: id, PickID: pickID, UserID: userID, FollowedAt: time.Now()}
	f.memberships[id] = m
	return &m, nil
}

func (f *fakeFollowRepo) Delete(_ context.Context, userID, pickID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.memberships, model.MembershipID(userID, pickID))
	return nil
}

func (f *fakeFollowRepo) CountByPick(_ context.Context, pickID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	n := 0
	for _, m := range f.memberships {
		if m.PickID == pickID {
			n++
		}
	}
	return n, nil
}
