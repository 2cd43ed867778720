package flow

import (
	"errors"
	"slices"
)

// MaxSelectedSports bounds the onboarding selection.
const MaxSelectedSports = 5

var (
	ErrEmptySelection = errors.New("flow: select at least one sport")
	ErrUnknownAction  = errors.New("flow: unknown onboarding action")
)

// Selection is the onboarding sport selection, in the order sports were
// picked. It never holds more than MaxSelectedSports codes, never holds a
// duplicate, and never holds a code that is not selectable.
type Selection struct {
	codes []string
}

// RestoreSelection rebuilds a selection from submitted codes. Invalid codes
// and duplicates are dropped and only the first MaxSelectedSports survive,
// so a tampered form can't push the selection past its bounds.
func RestoreSelection(codes []string) Selection {
	var s Selection
	for _, c := range codes {
		if len(s.codes) == MaxSelectedSports {
			break
		}
		if Selectable(c) && !s.Contains(c) {
			s.codes = append(s.codes, c)
		}
	}
	return s
}

// Toggle adds or removes code.
//
// Removing always works. Adding a 6th sport, a disabled sport, or a code
// outside the catalog leaves the selection unchanged and returns a notice
// explaining why; these are not errors.
func (s *Selection) Toggle(code string) Notice {
	sport, ok := LookupSport(code)
	if !ok {
		return failure(TextUnknownSport)
	}
	if sport.Disabled {
		return info(sport.Name + TextComingSoon)
	}
	if i := slices.Index(s.codes, code); i >= 0 {
		s.codes = slices.Delete(s.codes, i, i+1)
		return Notice{}
	}
	if len(s.codes) >= MaxSelectedSports {
		return info(TextMaxReached)
	}
	s.codes = append(s.codes, code)
	return Notice{}
}

func (s Selection) Contains(code string) bool {
	return slices.Contains(s.codes, code)
}

func (s Selection) Len() int {
	return len(s.codes)
}

// Codes returns a copy of the selected codes. Never nil.
func (s Selection) Codes() []string {
	out := make([]string, len(s.codes))
	copy(out, s.codes)
	return out
}

// CanSave reports whether the save action is enabled.
func (s Selection) CanSave() bool {
	return len(s.codes) > 0
}

// Action is a terminal onboarding action.
type Action string

const (
	ActionSave     Action = "save" // write the explicit selection
	ActionAllPicks Action = "all"  // write "wants all picks"
	ActionSkip     Action = "skip" // write nothing
)

// Outcome is what an onboarding action asks the caller to do.
type Outcome struct {
	// Write is false when no preferences should be stored (skip).
	Write    bool
	Sports   []string
	WantsAll bool
	Next     string
	Notice   Notice
}

// Decide maps a terminal action on the current selection to its outcome.
// Every action lands on the dashboard; only save and all-picks write.
func Decide(a Action, s Selection) (Outcome, error) {
	switch a {
	case ActionSave:
		if !s.CanSave() {
			return Outcome{}, ErrEmptySelection
		}
		return Outcome{
			Write:  true,
			Sports: s.Codes(),
			Next:   RouteDashboard,
			Notice: success(TextPreferencesSaved),
		}, nil
	case ActionAllPicks:
		return Outcome{
			Write:    true,
			Sports:   []string{},
			WantsAll: true,
			Next:     RouteDashboard,
			Notice:   success(TextPreferencesSaved),
		}, nil
	case ActionSkip:
		return Outcome{Next: RouteDashboard}, nil
	}
	return Outcome{}, ErrUnknownAction
}
