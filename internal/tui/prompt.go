package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/vedic/internal/api"
	"github.com/felixgeelhaar/vedic/internal/profiles"
)

// ErrAborted is returned when the user leaves a prompt with ctrl+c.
var ErrAborted = errors.New("prompt aborted")

func run(form *huh.Form) error {
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

// PromptForString asks for one line of text.
func PromptForString(title, placeholder string, validate func(string) error) (string, error) {
	var value string
	input := huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(&value)
	if validate != nil {
		input = input.Validate(validate)
	}
	if err := run(huh.NewForm(huh.NewGroup(input))); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// PromptForPassword asks for a secret without echoing it.
func PromptForPassword(title string) (string, error) {
	var value string
	input := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Validate(ValidateRequired("password")).
		Value(&value)
	if err := run(huh.NewForm(huh.NewGroup(input))); err != nil {
		return "", err
	}
	return value, nil
}

// PromptForConfirmation displays a yes/no confirmation prompt
func PromptForConfirmation(message string, defaultValue bool) (bool, error) {
	confirmed := defaultValue
	confirm := huh.NewConfirm().
		Title(message).
		Value(&confirmed)
	if err := run(huh.NewForm(huh.NewGroup(confirm))); err != nil {
		return false, err
	}
	return confirmed, nil
}

// Credentials are collected by the login and register forms.
type Credentials struct {
	Username string
	Email    string
	Password string
}

// RunCredentialsForm prompts for the fields still empty in c. The email is
// only asked for when registering.
func RunCredentialsForm(c *Credentials, register bool) error {
	var fields []huh.Field
	if c.Username == "" {
		fields = append(fields, huh.NewInput().Title("Username").Value(&c.Username).Validate(ValidateRequired("username")))
	}
	if register && c.Email == "" {
		fields = append(fields, huh.NewInput().Title("Email").Value(&c.Email).Validate(ValidateEmail))
	}
	if c.Password == "" {
		fields = append(fields, huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).
			Value(&c.Password).Validate(ValidateRequired("password")))
	}
	if len(fields) == 0 {
		return nil
	}
	return run(huh.NewForm(huh.NewGroup(fields...)))
}

// RunProfileForm fills f interactively. placeQuery receives the location to
// search for; it may stay empty when f already has a location.
func RunProfileForm(f *profiles.Form, placeQuery *string) error {
	placeTitle := "Birth place"
	placeCheck := ValidateRequired("birth place")
	if f.Ready() {
		placeTitle = fmt.Sprintf("Birth place (enter to keep %s)", f.Place())
		placeCheck = nil
	}
	place := huh.NewInput().Title(placeTitle).Placeholder("Chennai, India").Value(placeQuery)
	if placeCheck != nil {
		place = place.Validate(placeCheck)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Profile name").Placeholder("Me").
				Value(&f.ProfileName).Validate(ValidateRequired("profile name")),
			huh.NewInput().Title("Person name").Description("Optional; shown as Anonymous when empty").
				Value(&f.PersonName),
			huh.NewInput().Title("Date of birth").Placeholder("YYYY-MM-DD").
				Value(&f.DOB).Validate(ValidateDate),
			huh.NewInput().Title("Time of birth").Placeholder("HH:MM").
				Value(&f.TOB).Validate(ValidateTime),
			place,
		),
	)
	return run(form)
}

// PickProfile lets the user choose one of list and returns its id.
func PickProfile(title string, list []api.Profile, selectedID string) (string, error) {
	if len(list) == 0 {
		return "", errors.New("no profiles to choose from")
	}
	options := make([]huh.Option[string], 0, len(list))
	for _, p := range list {
		options = append(options, huh.NewOption(ProfileLabel(p), p.ID).Selected(p.ID == selectedID))
	}
	id := selectedID
	field := huh.NewSelect[string]().Title(title).Options(options...).Value(&id)
	if err := run(huh.NewForm(huh.NewGroup(field))); err != nil {
		return "", err
	}
	return id, nil
}

// ProfileLabel is the one-line description of a profile in pickers.
func ProfileLabel(p api.Profile) string {
	d := p.BirthDetails
	return fmt.Sprintf("%s · %s · %s %s · %s", p.ProfileName, d.DisplayName(), d.Date(), d.TOB, d.Place)
}

// ValidateRequired rejects blank input.
func ValidateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// ValidateDate accepts YYYY-MM-DD calendar dates.
func ValidateDate(s string) error {
	if _, err := time.Parse(time.DateOnly, strings.TrimSpace(s)); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

// ValidateTime accepts HH:MM or HH:MM:SS.
func ValidateTime(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", time.TimeOnly} {
		if _, err := time.Parse(layout, s); err == nil {
			return nil
		}
	}
	return errors.New("use HH:MM")
}

// ValidateEmail does a shape check; the backend has the final word.
func ValidateEmail(s string) error {
	at := strings.Index(s, "@")
	if at < 1 || at == len(s)-1 || strings.ContainsAny(s, " \t") {
		return errors.New("enter a valid email address")
	}
	return nil
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ShouldPrompt reports whether interactive prompts may be shown. They are
// disabled in CI, with VEDIC_NO_PROMPT set, or when stdin is not a terminal.
func ShouldPrompt() bool {
	for _, env := range []string{"VEDIC_NO_PROMPT", "CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "BUILDKITE"} {
		if os.Getenv(env) != "" {
			return false
		}
	}
	return IsInteractive()
}
