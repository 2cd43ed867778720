package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/aurabetz/internal/apperror"
	"github.com/sakif/aurabetz/internal/auth"
	"github.com/sakif/aurabetz/internal/model"
	"github.com/sakif/aurabetz/internal/service"
)

// APIHandler serves the JSON API.
//
// ROUTES:
//
//	GET    /api/profile              → stored profile (404 until first sign-in)
//	PUT    /api/profile/preferences  → save onboarding preferences
//	GET    /api/picks                → picks with follow status (anonymous allowed)
//	POST   /api/picks/{id}/follow    → follow
//	DELETE /api/picks/{id}/follow    → unfollow
//	POST   /api/admin/picks          → publish a pick (X-Admin-Key)
type APIHandler struct {
	profiles *service.ProfileService
	picks    *service.PickService
	follows  *service.FollowService
	adminKey *auth.AdminKey // nil disables publishing
	logger   *slog.Logger
}

func NewAPIHandler(
	profiles *service.ProfileService,
	picks *service.PickService,
	follows *service.FollowService,
	adminKey *auth.AdminKey,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		profiles: profiles,
		picks:    picks,
		follows:  follows,
		adminKey: adminKey,
		logger:   logger,
	}
}

// HandleGetProfile returns the caller's profile.
//
// HTTP: GET /api/profile
// Auth: Required
func (h *APIHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	p := h.profiles.Profile(r.Context(), id.ID)
	if p == nil {
		writeError(w, apperror.NotFound("profile", id.ID))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PreferencesRequest is the body of PUT /api/profile/preferences.
type PreferencesRequest struct {
	PreferredSports []string `json:"preferredSports"`
	WantsAllPicks   bool     `json:"wantsAllPicks"`
}

// HandleSavePreferences writes the caller's preferences and returns the
// updated profile.
//
// HTTP: PUT /api/profile/preferences
// Auth: Required
func (h *APIHandler) HandleSavePreferences(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	var req PreferencesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.profiles.SavePreferences(r.Context(), id.ID, req.PreferredSports, req.WantsAllPicks); err != nil {
		writeError(w, err)
		return
	}

	p := h.profiles.Profile(r.Context(), id.ID)
	if p == nil {
		// Written but not readable back; the write itself succeeded.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleListPicks returns today's picks. Signed-in callers get their own
// follow status; anonymous callers see isFollowing=false everywhere.
//
// HTTP: GET /api/picks
// Auth: Optional
func (h *APIHandler) HandleListPicks(w http.ResponseWriter, r *http.Request) {
	var userID string
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		userID = id.ID
	}
	writeJSON(w, http.StatusOK, h.picks.ListWithStatus(r.Context(), userID))
}

// HandleFollow handles POST /api/picks/{id}/follow. A failure is sent as
// FollowErrorResponse, with success=false and the best-effort count.
func (h *APIHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	res, err := h.follows.Follow(r.Context(), chi.URLParam(r, "id"), id.ID)
	if err != nil {
		writeFollowError(w, err, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleUnfollow handles DELETE /api/picks/{id}/follow.
func (h *APIHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	res, err := h.follows.Unfollow(r.Context(), chi.URLParam(r, "id"), id.ID)
	if err != nil {
		writeFollowError(w, err, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandlePublishPick publishes a pick.
//
// HTTP: POST /api/admin/picks
// Auth: X-Admin-Key header, checked against the configured bcrypt hash
func (h *APIHandler) HandlePublishPick(w http.ResponseWriter, r *http.Request) {
	if h.adminKey == nil {
		writeError(w, apperror.Forbidden("publishing is disabled"))
		return
	}
	if err := h.adminKey.Verify(r.Header.Get(auth.AdminKeyHeader)); err != nil {
		h.logger.Warn("rejected admin request", slog.String("remoteAddr", r.RemoteAddr))
		writeError(w, apperror.Forbidden("invalid admin key"))
		return
	}

	var req model.NewPick
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.picks.AddPick(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}
