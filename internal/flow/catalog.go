// Package flow holds the page-level state machines: where a visitor is sent
// from the landing page, how the onboarding sport selection behaves, and who
// may see the dashboard.
//
// Everything here is pure: no I/O, no clocks, no context. Handlers feed in the
// session snapshot and the stored profile and act on the result. That keeps
// the navigation rules testable without HTTP.
package flow

// Route paths the state machines navigate between.
const (
	RouteLanding        = "/"
	RoutePreviewLanding = "/preview-landing"
	RouteOnboarding     = "/onboarding"
	RouteDashboard      = "/dashboard"
	RouteProfile        = "/profile"
)

// Sport is one entry of the onboarding catalog.
type Sport struct {
	Code     string
	Name     string
	Icon     string
	Disabled bool // shown but not selectable yet
}

// Sports is the onboarding catalog, in display order.
var Sports = []Sport{
	{Code: "UFC", Name: "UFC", Icon: "🥊"},
	{Code: "NBA", Name: "NBA", Icon: "🏀"},
	{Code: "NFL", Name: "NFL", Icon: "🏈"},
	{Code: "MLB", Name: "MLB", Icon: "⚾"},
	{Code: "NHL", Name: "NHL", Icon: "🏒"},
	{Code: "BOXING", Name: "Boxing", Icon: "🥊"},
	{Code: "TENNIS", Name: "Tennis", Icon: "🎾"},
	{Code: "SOCCER", Name: "Soccer", Icon: "⚽"},
	{Code: "ESPORTS", Name: "ESports", Icon: "🎮"},
	{Code: "+EV", Name: "+EV Picks", Icon: "💰", Disabled: true},
}

// LookupSport finds a catalog entry by code.
func LookupSport(code string) (Sport, bool) {
	for _, s := range Sports {
		if s.Code == code {
			return s, true
		}
	}
	return Sport{}, false
}

// Selectable reports whether code is in the catalog and enabled.
func Selectable(code string) bool {
	s, ok := LookupSport(code)
	return ok && !s.Disabled
}
