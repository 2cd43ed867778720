package flow

// NoticeKind is the tone of a transient notice.
type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a short message shown once to the user (a toast).
// The zero Notice means "nothing to show".
type Notice struct {
	Kind NoticeKind `json:"kind"`
	Text string     `json:"text"`
}

// Empty reports whether there is nothing to show.
func (n Notice) Empty() bool {
	return n.Text == ""
}

func info(text string) Notice    { return Notice{Kind: NoticeInfo, Text: text} }
func success(text string) Notice { return Notice{Kind: NoticeSuccess, Text: text} }
func failure(text string) Notice { return Notice{Kind: NoticeError, Text: text} }

// Notice texts.
const (
	TextMaxReached       = "Max 5 reached — remove one to add another"
	TextComingSoon       = " coming soon!"
	TextUnknownSport     = "That sport isn't available"
	TextSelectOne        = "Select at least one sport"
	TextPreferencesSaved = "Preferences saved!"
	TextPreferencesError = "Failed to save preferences"
	TextPickFollowed     = "Pick followed!"
	TextPickUnfollowed   = "Pick unfollowed"
	TextFollowFailed     = "Failed to follow pick"
	TextUnfollowFailed   = "Failed to unfollow pick"
	TextSignInFailed     = "Sign-in failed, please try again"
	TextLogoutFailed     = "Failed to logout"
)

// SaveFailed is the notice for a preferences write that did not go through.
func SaveFailed() Notice { return failure(TextPreferencesError) }

// EmptySelection is the notice for saving with nothing selected.
func EmptySelection() Notice { return failure(TextSelectOne) }

// SignInFailed is the notice for a provider or callback error.
func SignInFailed() Notice { return failure(TextSignInFailed) }

// LogoutFailed is the notice for a sign-out that could not be recorded.
func LogoutFailed() Notice { return failure(TextLogoutFailed) }
