package flow

import "github.com/sakif/aurabetz/internal/model"

// DashboardGate decides whether a signed-in-only page may render. Once
// identity is resolved and nobody is signed in, it redirects to the landing
// page. While resolution is pending it lets the page render its loading state.
//
// Onboarding and profile pages use the same gate.
func DashboardGate(s model.Session) (redirect string, ok bool) {
	if s.Anonymous() {
		return RouteLanding, false
	}
	return "", true
}

// FollowNotice is the toast for a finished follow or unfollow.
//
// A call that failed shows an error. A call that succeeded without changing
// anything (following an already-followed pick) shows nothing.
func FollowNotice(follow bool, res model.FollowResult, err error) Notice {
	if err != nil {
		if follow {
			return failure(TextFollowFailed)
		}
		return failure(TextUnfollowFailed)
	}
	if !res.Success {
		return Notice{}
	}
	if follow {
		return success(TextPickFollowed)
	}
	return success(TextPickUnfollowed)
}

// ProfileView is what the profile page shows. Identity fields from the
// session win over the stored profile; both missing fall back to placeholders.
type ProfileView struct {
	DisplayName     string
	DisplayEmail    string
	PhotoURL        string
	PreferredSports []Sport
	WantsAllPicks   bool
	MemberSince     string
}

const (
	fallbackName  = "User"
	fallbackEmail = "No email"
)

// BuildProfileView merges the identity snapshot with the stored profile.
// p may be nil (profile missing or unreadable).
func BuildProfileView(id model.Identity, p *model.UserProfile) ProfileView {
	v := ProfileView{
		DisplayName:  firstNonEmpty(id.Name, nameOf(p), fallbackName),
		DisplayEmail: firstNonEmpty(id.Email, emailOf(p), fallbackEmail),
		PhotoURL:     id.PhotoURL,
	}
	if p == nil {
		return v
	}
	if v.PhotoURL == "" {
		v.PhotoURL = p.PhotoURL
	}
	for _, code := range p.PreferredSports {
		if s, ok := LookupSport(code); ok {
			v.PreferredSports = append(v.PreferredSports, s)
		}
	}
	v.WantsAllPicks = p.WantsAllPicks
	if !p.CreatedAt.IsZero() {
		v.MemberSince = p.CreatedAt.Format("January 2006")
	}
	return v
}

func nameOf(p *model.UserProfile) string {
	if p == nil {
		return ""
	}
	return p.Name
}

func emailOf(p *model.UserProfile) string {
	if p == nil {
		return ""
	}
	return p.Email
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
