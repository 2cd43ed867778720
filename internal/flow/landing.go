package flow

import "github.com/sakif/aurabetz/internal/model"

// Landing is the state of the landing page.
type Landing int

const (
	// LandingResolving: identity resolution has not finished.
	LandingResolving Landing = iota
	// LandingAnonymous: nobody is signed in; show the sign-in call to action.
	LandingAnonymous
	// LandingRedirecting: signed in on the entry route; navigate away.
	LandingRedirecting
	// LandingPreview: signed in on /preview-landing; show the page anyway.
	LandingPreview
)

func (l Landing) String() string {
	switch l {
	case LandingResolving:
		return "resolving"
	case LandingAnonymous:
		return "anonymous"
	case LandingRedirecting:
		return "redirecting"
	case LandingPreview:
		return "preview"
	}
	return "unknown"
}

// LandingState classifies a landing-page visit.
func LandingState(s model.Session, path string) Landing {
	switch {
	case s.Resolving:
		return LandingResolving
	case s.Identity == nil:
		return LandingAnonymous
	case path == RoutePreviewLanding:
		return LandingPreview
	}
	return LandingRedirecting
}

// NextRoute is where a signed-in user belongs: onboarding until they have
// chosen sports or asked for all picks, the dashboard afterwards. A missing
// profile counts as not onboarded.
func NextRoute(p *model.UserProfile) string {
	if p.OnboardingComplete() {
		return RouteDashboard
	}
	return RouteOnboarding
}

// EntryRedirect returns the redirect target for a visit to path, if any.
// Only the entry route redirects, and only once identity is resolved to a
// signed-in user.
func EntryRedirect(s model.Session, p *model.UserProfile, path string) (string, bool) {
	if path != RouteLanding || LandingState(s, path) != LandingRedirecting {
		return "", false
	}
	return NextRoute(p), true
}
