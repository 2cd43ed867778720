// Package handler contains the HTTP handlers: server-rendered pages, the
// Google sign-in round trip, and the JSON API.
//
// Handlers parse the request, call a service, and write the response. The
// navigation rules themselves live in internal/flow, so a handler only
// turns a flow decision into a redirect or a render.
package handler

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/aurabetz/internal/auth"
	"github.com/sakif/aurabetz/internal/flow"
	"github.com/sakif/aurabetz/internal/model"
	"github.com/sakif/aurabetz/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page template names. Each is parsed together with base.html and fills its
// {{define "content"}} block.
const (
	pageLanding    = "landing"
	pageOnboarding = "onboarding"
	pageDashboard  = "dashboard"
	pageProfile    = "profile"
	pageNotFound   = "notfound"
)

// PageHandler serves the server-rendered pages.
//
// TEMPLATES:
// Every page gets its own template set (base + page), parsed once at
// startup. Parsing all pages into one set would make the "content" blocks
// overwrite each other.
type PageHandler struct {
	pages    map[string]*template.Template
	profiles *service.ProfileService
	picks    *service.PickService
	follows  *service.FollowService
	logger   *slog.Logger
}

func NewPageHandler(
	profiles *service.ProfileService,
	picks *service.PickService,
	follows *service.FollowService,
	logger *slog.Logger,
) (*PageHandler, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{pageLanding, pageOnboarding, pageDashboard, pageProfile, pageNotFound} {
		tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &PageHandler{
		pages:    pages,
		profiles: profiles,
		picks:    picks,
		follows:  follows,
		logger:   logger,
	}, nil
}

// pageData is what base.html renders from. View is the page-specific part.
type pageData struct {
	Title   string
	Session model.Session
	Notice  flow.Notice
	View    any
}

// render executes the "base" template of page. A notice passed in wins over
// one carried by the notice cookie; the cookie is cleared either way.
func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	pending := popNotice(w, r)
	if data.Notice.Empty() {
		data.Notice = pending
	}
	data.Session = auth.SessionFromContext(r.Context())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.pages[page].ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
	}
}

// =========================================================================
// LANDING
// =========================================================================

type landingView struct {
	State flow.Landing
}

// HandleLanding serves / and /preview-landing.
//
// A signed-in visitor on / is redirected to onboarding or the dashboard.
// The preview route never redirects.
func (h *PageHandler) HandleLanding(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())

	var profile *model.UserProfile
	if session.Authenticated() && r.URL.Path == flow.RouteLanding {
		profile = h.profiles.Profile(r.Context(), session.Identity.ID)
	}
	if to, ok := flow.EntryRedirect(session, profile, r.URL.Path); ok {
		http.Redirect(w, r, to, http.StatusSeeOther)
		return
	}

	h.render(w, r, http.StatusOK, pageLanding, pageData{
		Title: "AuraBetz",
		View:  landingView{State: flow.LandingState(session, r.URL.Path)},
	})
}

// =========================================================================
// ONBOARDING
// =========================================================================

type sportOption struct {
	flow.Sport
	Selected bool
}

type onboardingView struct {
	Options  []sportOption
	Selected []string
	Count    int
	Max      int
	CanSave  bool
}

func newOnboardingView(sel flow.Selection) onboardingView {
	v := onboardingView{
		Selected: sel.Codes(),
		Count:    sel.Len(),
		Max:      flow.MaxSelectedSports,
		CanSave:  sel.CanSave(),
	}
	for _, s := range flow.Sports {
		v.Options = append(v.Options, sportOption{Sport: s, Selected: sel.Contains(s.Code)})
	}
	return v
}

func (h *PageHandler) renderOnboarding(w http.ResponseWriter, r *http.Request, sel flow.Selection, n flow.Notice) {
	h.render(w, r, http.StatusOK, pageOnboarding, pageData{
		Title:  "Pick your sports",
		Notice: n,
		View:   newOnboardingView(sel),
	})
}

// HandleOnboarding shows the sport selection, starting from whatever the
// user saved last time.
func (h *PageHandler) HandleOnboarding(w http.ResponseWriter, r *http.Request) {
	id, ok := h.gate(w, r)
	if !ok {
		return
	}

	var saved []string
	if p := h.profiles.Profile(r.Context(), id.ID); p != nil {
		saved = p.PreferredSports
	}
	h.renderOnboarding(w, r, flow.RestoreSelection(saved), flow.Notice{})
}

// HandleOnboardingSubmit handles the onboarding form.
//
// HTTP: POST /onboarding
//
// FORM FIELDS:
//   - selected: the current selection (repeated)
//   - toggle:   a sport code to add or remove; re-renders the page
//   - action:   save | all | skip; writes (unless skip) and leaves
func (h *PageHandler) HandleOnboardingSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.gate(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	sel := flow.RestoreSelection(r.PostForm["selected"])

	if code := r.PostForm.Get("toggle"); code != "" {
		h.renderOnboarding(w, r, sel, sel.Toggle(code))
		return
	}

	out, err := flow.Decide(flow.Action(r.PostForm.Get("action")), sel)
	switch {
	case errors.Is(err, flow.ErrEmptySelection):
		h.renderOnboarding(w, r, sel, flow.EmptySelection())
		return
	case err != nil:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	if out.Write {
		if err := h.profiles.SavePreferences(r.Context(), id.ID, out.Sports, out.WantsAll); err != nil {
			// Stay on the page with the selection intact so the user can retry.
			h.renderOnboarding(w, r, sel, flow.SaveFailed())
			return
		}
	}

	setNotice(w, out.Notice)
	http.Redirect(w, r, out.Next, http.StatusSeeOther)
}

// =========================================================================
// DASHBOARD
// =========================================================================

type pickRow struct {
	model.PickWithStatus
	Sport flow.Sport
	Busy  bool // a follow or unfollow for this pick is being processed
}

type dashboardView struct {
	Picks []pickRow
}

// HandleDashboard lists today's picks with follow status for the viewer.
func (h *PageHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := h.gate(w, r)
	if !ok {
		return
	}

	busyPick, busy := h.follows.InFlight(id.ID)
	picks := h.picks.ListWithStatus(r.Context(), id.ID)

	rows := make([]pickRow, 0, len(picks))
	for _, p := range picks {
		sport, found := flow.LookupSport(p.Sport)
		if !found {
			sport = flow.Sport{Code: p.Sport, Name: p.Sport}
		}
		rows = append(rows, pickRow{
			PickWithStatus: p,
			Sport:          sport,
			Busy:           busy && busyPick == p.ID,
		})
	}

	h.render(w, r, http.StatusOK, pageDashboard, pageData{
		Title: "Today's picks",
		View:  dashboardView{Picks: rows},
	})
}

// HandleFollow handles POST /dashboard/picks/{id}/follow.
func (h *PageHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	h.mutateFollow(w, r, true)
}

// HandleUnfollow handles POST /dashboard/picks/{id}/unfollow.
func (h *PageHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	h.mutateFollow(w, r, false)
}

func (h *PageHandler) mutateFollow(w http.ResponseWriter, r *http.Request, follow bool) {
	id, ok := h.gate(w, r)
	if !ok {
		return
	}
	pickID := chi.URLParam(r, "id")

	var (
		res model.FollowResult
		err error
	)
	if follow {
		res, err = h.follows.Follow(r.Context(), pickID, id.ID)
	} else {
		res, err = h.follows.Unfollow(r.Context(), pickID, id.ID)
	}

	setNotice(w, flow.FollowNotice(follow, res, err))
	http.Redirect(w, r, flow.RouteDashboard, http.StatusSeeOther)
}

// =========================================================================
// PROFILE & NOT FOUND
// =========================================================================

// HandleProfile shows the identity and saved preferences. An unreadable
// profile still renders from the identity alone.
func (h *PageHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.gate(w, r)
	if !ok {
		return
	}
	p := h.profiles.Profile(r.Context(), id.ID)

	h.render(w, r, http.StatusOK, pageProfile, pageData{
		Title: "Profile",
		View:  flow.BuildProfileView(*id, p),
	})
}

func (h *PageHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, pageNotFound, pageData{Title: "Not found"})
}

// gate applies flow.DashboardGate. When it returns false the response has
// already been written.
func (h *PageHandler) gate(w http.ResponseWriter, r *http.Request) (*model.Identity, bool) {
	session := auth.SessionFromContext(r.Context())
	if to, ok := flow.DashboardGate(session); !ok {
		http.Redirect(w, r, to, http.StatusSeeOther)
		return nil, false
	}
	return session.Identity, true
}
