package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/aurabetz/internal/auth"
	"github.com/sakif/aurabetz/internal/flow"
	"github.com/sakif/aurabetz/internal/model"
	sqliteRepo "github.com/sakif/aurabetz/internal/repository/sqlite"
	"github.com/sakif/aurabetz/internal/service"
)

// =========================================================================
// TEST HELPERS
// =========================================================================

// testEnv wires the real services onto an in-memory database. Requests are
// signed in by putting an identity on the context, skipping the cookie.
type testEnv struct {
	profiles *service.ProfileService
	picks    *service.PickService
	follows  *service.FollowService
	pages    *PageHandler
	router   chi.Router
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := discardLogger()
	profiles := service.NewProfileService(db.Profiles(), logger)
	picks := service.NewPickService(db.Picks(), db.Follows(), logger)
	follows := service.NewFollowService(db.Follows(), picks, service.NewInFlight(), logger)

	pages, err := NewPageHandler(profiles, picks, follows, logger)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Get("/", pages.HandleLanding)
	r.Get("/preview-landing", pages.HandleLanding)
	r.Get("/onboarding", pages.HandleOnboarding)
	r.Post("/onboarding", pages.HandleOnboardingSubmit)
	r.Get("/dashboard", pages.HandleDashboard)
	r.Post("/dashboard/picks/{id}/follow", pages.HandleFollow)
	r.Post("/dashboard/picks/{id}/unfollow", pages.HandleUnfollow)
	r.Get("/profile", pages.HandleProfile)
	r.NotFound(pages.HandleNotFound)

	return &testEnv{profiles: profiles, picks: picks, follows: follows, pages: pages, router: r}
}

var grace = model.Identity{ID: "google-7", Email: "grace@example.com", Name: "Grace"}

func (e *testEnv) signUp(t *testing.T, id model.Identity) {
	t.Helper()
	_, err := e.profiles.Upsert(context.Background(), id.ID, model.FieldsFromIdentity(id))
	require.NoError(t, err)
}

func (e *testEnv) publish(t *testing.T, sport, matchup string) *model.Pick {
	t.Helper()
	p, err := e.picks.AddPick(context.Background(), model.NewPick{
		Sport: sport, Matchup: matchup, Pick: "home", Odds: "-110", Confidence: 60,
	})
	require.NoError(t, err)
	return p
}

// do runs a request through the router. A nil id sends it anonymously.
func (e *testEnv) do(id *model.Identity, method, target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if id != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), *id))
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// noticeFrom decodes the notice cookie set on a response.
func noticeFrom(t *testing.T, rec *httptest.ResponseRecorder) flow.Notice {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == noticeCookie && c.MaxAge > 0 {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(c)
			return popNotice(httptest.NewRecorder(), req)
		}
	}
	return flow.Notice{}
}

// =========================================================================
// LANDING
// =========================================================================

func TestLanding_Anonymous(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(nil, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sign in with Google")
}

func TestLanding_Redirects(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, grace)

	rec := env.do(&grace, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/onboarding", rec.Header().Get("Location"))

	require.NoError(t, env.profiles.SavePreferences(context.Background(), grace.ID, nil, true))
	rec = env.do(&grace, http.MethodGet, "/", nil)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestLanding_PreviewNeverRedirects(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, grace)

	rec := env.do(&grace, http.MethodGet, "/preview-landing", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Go to your dashboard")
}

// =========================================================================
// GATED PAGES
// =========================================================================

func TestGatedPages_AnonymousGoesHome(t *testing.T) {
	env := newTestEnv(t)

	for _, target := range []string{"/onboarding", "/dashboard", "/profile"} {
		rec := env.do(nil, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code, target)
		assert.Equal(t, "/", rec.Header().Get("Location"), target)
	}
}

// =========================================================================
// ONBOARDING
// =========================================================================

func TestOnboarding_Toggle(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, grace)

	rec := env.do(&grace, http.MethodPost, "/onboarding", url.Values{
		"selected": {"NBA"},
		"toggle":   {"NFL"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `name="selected" value="NBA"`)
	assert.Contains(t, body, `name="selected" value="NFL"`)
	assert.Contains(t, body, "2/5 selected")
}

func TestOnboarding_SixthSportRejected(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, grace)

	rec := env.do(&grace, http.MethodPost, "/onboarding", url.Values{
		"selected": {"UFC", "NBA", "NFL", "MLB", "NHL"},
		"toggle":   {"TENNIS"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Max 5 reached")
	assert.NotContains(t, body, `name="selected" value="TENNIS"`)
}

func TestOnboarding_SaveEmptySelection(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, grace)

	rec := env.do(&grace, http.MethodPost, "/onboarding", url.Values{"action": {"save"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), flow.TextSelectOne)
}

func TestOnboarding_Actions(t *testing.T) {
	tests := []struct {
		name        string
		form        url.Values
		wantSports  []string
		wantAll     bool
		wantNotice  string
		wantWritten bool
	}{
		{
			name:        "save",
			form:        url.Values{"selected": {"NBA", "NFL"}, "action": {"save"}},
			wantSports:  []string{"NBA", "NFL"},
			wantNotice:  flow.TextPreferencesSaved,
			wantWritten: true,
		},
		{
			name:        "all picks ignores the selection",
			form:        url.Values{"selected": {"NBA"}, "action": {"all"}},
			wantSports:  []string{},
			wantAll:     true,
			wantNotice:  flow.TextPreferencesSaved,
			wantWritten: true,
		},
		{
			name: "skip writes nothing",
			form: url.Values{"selected": {"NBA"}, "action": {"skip"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.signUp(t, grace)

			rec := env.do(&grace, http.MethodPost, "/onboarding", tt.form)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
			assert.Equal(t, tt.wantNotice, noticeFrom(t, rec).Text)

			p := env.profiles.Profile(context.Background(), grace.ID)
			require.NotNil(t, p)
			assert.Equal(t, tt.wantWritten, p.PreferencesSet)
			if tt.wantWritten {
				assert.Equal(t, tt.wantSports, p.PreferredSports)
				assert.Equal(t, tt.wantAll, p.WantsAllPicks)
			}
		})
	}
}

func TestOnboarding_UnknownAction(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, grace)

	rec := env.do(&grace, http.MethodPost, "/onboarding", url.Values{"action": {"launch"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =========================================================================
// DASHBOARD
// =========================================================================

func TestDashboard_FollowAndUnfollow(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, grace)
	p := env.publish(t, "NBA", "Lakers @ Celtics")

	rec := env.do(&grace, http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Lakers @ Celtics")
	assert.Contains(t, body, "0 following")
	assert.Contains(t, body, "/dashboard/picks/"+p.ID+"/follow")

	rec = env.do(&grace, http.MethodPost, "/dashboard/picks/"+p.ID+"/follow", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	assert.Equal(t, flow.TextPickFollowed, noticeFrom(t, rec).Text)

	rec = env.do(&grace, http.MethodGet, "/dashboard", nil)
	body = rec.Body.String()
	assert.Contains(t, body, "1 following")
	assert.Contains(t, body, "/dashboard/picks/"+p.ID+"/unfollow")

	rec = env.do(&grace, http.MethodPost, "/dashboard/picks/"+p.ID+"/unfollow", url.Values{})
	assert.Equal(t, flow.TextPickUnfollowed, noticeFrom(t, rec).Text)
}

func TestDashboard_FollowUnknownPick(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, grace)

	rec := env.do(&grace, http.MethodPost, "/dashboard/picks/missing/follow", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, flow.TextFollowFailed, noticeFrom(t, rec).Text)
}

func TestDashboard_Empty(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, grace)

	rec := env.do(&grace, http.MethodGet, "/dashboard", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No picks yet today")
}

// =========================================================================
// PROFILE & NOT FOUND
// =========================================================================

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, grace)
	require.NoError(t, env.profiles.SavePreferences(context.Background(), grace.ID, []string{"NHL"}, false))

	rec := env.do(&grace, http.MethodGet, "/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Grace")
	assert.Contains(t, body, "grace@example.com")
	assert.Contains(t, body, "NHL")
	assert.Contains(t, body, "Member since")
}

// A missing profile still renders from the identity.
func TestProfile_Missing(t *testing.T) {
	env := newTestEnv(t)
	nameless := model.Identity{ID: "google-9"}

	rec := env.do(&nameless, http.MethodGet, "/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No email")
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(nil, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "404")
}
