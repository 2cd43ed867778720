// Package model defines the data structures used throughout the application.
package model

import "time"

// Identity is the signed-in user as reported by the identity provider.
//
// It is an immutable snapshot: the auth middleware builds one per request
// from the session token and hands it down through the request context.
// Nothing mutates it after that, so handlers can pass it around freely.
//
// ID is the provider's stable subject identifier (Google "sub"). It is also
// the primary key of the user's profile document.
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
}

// Session is what views consume: who the user is, and whether we are still
// working that out.
//
// On the server the identity is resolved synchronously from the cookie, so
// Resolving is only true for flows that have not consulted the middleware
// yet. The view state machines in internal/flow still honour it.
type Session struct {
	Identity  *Identity `json:"identity"`
	Resolving bool      `json:"resolving"`
}

// Authenticated reports whether identity resolution finished with a user.
func (s Session) Authenticated() bool {
	return !s.Resolving && s.Identity != nil
}

// Anonymous reports whether identity resolution finished without a user.
func (s Session) Anonymous() bool {
	return !s.Resolving && s.Identity == nil
}

// UserProfile is the per-user document keyed by Identity.ID.
//
// PROFILE FIELDS vs PREFERENCE FIELDS:
// The profile fields (email, name, photo, timestamps) are written on every
// sign-in. The preference fields stay absent until onboarding writes them;
// PreferencesSet tells the two states apart ("never onboarded" vs "chose
// nothing").
type UserProfile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PhotoURL     string    `json:"photoURL"`
	CreatedAt    time.Time `json:"createdAt"`
	LastSignedIn time.Time `json:"lastSignedIn"`

	PreferredSports []string   `json:"preferredSports"`
	WantsAllPicks   bool       `json:"wantsAllPicks"`
	PreferencesSet  bool       `json:"preferencesSet"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"` // last preferences write
}

// OnboardingComplete reports whether the user has either picked at least one
// sport or asked for all picks. Dashboard routing sends everyone else to
// onboarding.
func (p *UserProfile) OnboardingComplete() bool {
	if p == nil {
		return false
	}
	return len(p.PreferredSports) > 0 || p.WantsAllPicks
}

// ProfileFields is a partial profile used by upsert.
// A nil field means "not provided": the stored value is kept.
type ProfileFields struct {
	Email    *string
	Name     *string
	PhotoURL *string
}

// FieldsFromIdentity builds the upsert payload written on every sign-in.
func FieldsFromIdentity(id Identity) ProfileFields {
	return ProfileFields{
		Email:    &id.Email,
		Name:     &id.Name,
		PhotoURL: &id.PhotoURL,
	}
}
