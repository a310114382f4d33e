package ux

// Progress describes how far a user has got in setting up the client.
type Progress struct {
	LoggedIn        bool
	HasProfiles     bool
	ProfileSelected bool
}

// SuggestNextSteps returns the command a user should run next.
func SuggestNextSteps(p Progress) string {
	switch {
	case !p.LoggedIn:
		return "Sign in with 'vedic auth login' or create an account with 'vedic auth register'"
	case !p.HasProfiles:
		return "Create a birth profile with 'vedic profile create'"
	case !p.ProfileSelected:
		return "Select a profile with 'vedic profile select <id>'"
	default:
		return "Try 'vedic chart', 'vedic dasha' or 'vedic ask'"
	}
}
