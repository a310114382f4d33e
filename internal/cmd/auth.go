package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vedic/internal/api"
	vedicerrors "github.com/felixgeelhaar/vedic/internal/errors"
	"github.com/felixgeelhaar/vedic/internal/pages"
	"github.com/felixgeelhaar/vedic/internal/tui"
	"github.com/felixgeelhaar/vedic/internal/ux"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in, sign out and inspect the session",
	Long: `Manage your session with the backend.

The access token is stored in the state directory and reused by every
command until you log out or the backend rejects it.

Examples:
  vedic auth login -u asha
  vedic auth register -u asha -e asha@example.com
  vedic auth status`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with username and password",
	Args:  cobra.NoArgs,
	RunE:  runE(runAuthLogin),
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Args:  cobra.NoArgs,
	RunE:  runE(runAuthRegister),
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the session and the selected profile",
	Args:  cobra.NoArgs,
	RunE:  runE(runAuthLogout),
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who is signed in and what to do next",
	Args:  cobra.NoArgs,
	RunE:  runE(runAuthStatus),
}

var (
	authUsername string
	authEmail    string
	authPassword string
)

func init() {
	for _, c := range []*cobra.Command{authLoginCmd, authRegisterCmd} {
		c.Flags().StringVarP(&authUsername, "username", "u", "", "account username")
		c.Flags().StringVarP(&authPassword, "password", "p", "", "account password (env VEDIC_PASSWORD; prompted when omitted)")
	}
	authRegisterCmd.Flags().StringVarP(&authEmail, "email", "e", "", "account email")

	authCmd.AddCommand(authLoginCmd, authRegisterCmd, authLogoutCmd, authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

// credentials collects what flags and the environment left out, prompting
// when a terminal is attached.
func credentials(register bool) (tui.Credentials, error) {
	c := tui.Credentials{Username: authUsername, Email: authEmail, Password: authPassword}
	if c.Password == "" {
		c.Password = os.Getenv("VEDIC_PASSWORD")
	}
	complete := c.Username != "" && c.Password != "" && (!register || c.Email != "")
	if complete {
		return c, nil
	}
	if !tui.ShouldPrompt() {
		expected := "--username and --password"
		if register {
			expected = "--username, --email and --password"
		}
		return c, vedicerrors.NewInputInvalidError("credentials", expected)
	}
	if err := tui.RunCredentialsForm(&c, register); err != nil {
		return c, err
	}
	return c, nil
}

func runAuthLogin(cmd *cobra.Command, _ []string, a *App) error {
	c, err := credentials(false)
	if err != nil {
		return err
	}
	if !a.Session.Login(cmd.Context(), c.Username, c.Password) {
		return vedicerrors.NewAuthFailedError(a.Session.Err())
	}
	return a.showUser("Logged in as")
}

func runAuthRegister(cmd *cobra.Command, _ []string, a *App) error {
	c, err := credentials(true)
	if err != nil {
		return err
	}
	if err := tui.ValidateEmail(c.Email); err != nil {
		return vedicerrors.NewInputInvalidError("email", "an address like name@example.com")
	}
	if !a.Session.Register(cmd.Context(), c.Username, c.Email, c.Password) {
		return vedicerrors.NewAuthFailedError(a.Session.Err())
	}
	return a.showUser("Registered and logged in as")
}

func (a *App) showUser(prefix string) error {
	u := a.Session.User()
	return a.show(u, func() string {
		return prefix + " " + u.Username + "\n\n" +
			ux.SuggestNextSteps(ux.Progress{LoggedIn: true})
	})
}

func runAuthLogout(_ *cobra.Command, _ []string, a *App) error {
	pages.NewDashboard(a.Session, a.Profiles, a.Client).Logout()
	return a.show(map[string]bool{"logged_in": false}, func() string { return "Logged out" })
}

// authStatus is the outcome of auth status.
type authStatus struct {
	LoggedIn bool         `json:"logged_in" yaml:"logged_in"`
	User     *api.User    `json:"user,omitempty" yaml:"user,omitempty"`
	Profile  *api.Profile `json:"profile,omitempty" yaml:"profile,omitempty"`
	Profiles int          `json:"profiles" yaml:"profiles"`
	Backend  string       `json:"backend" yaml:"backend"`
	NextStep string       `json:"next_step" yaml:"next_step"`
}

func (s authStatus) Text() string {
	user := "not logged in"
	if s.User != nil {
		user = s.User.Username
		if s.User.Email != "" {
			user += " <" + s.User.Email + ">"
		}
	}
	profile := "none"
	if s.Profile != nil {
		profile = tui.ProfileLabel(*s.Profile)
	}
	return kv("User", user, "Profile", profile, "Backend", s.Backend) + "\n\n" + s.NextStep
}

func runAuthStatus(cmd *cobra.Command, _ []string, a *App) error {
	st := authStatus{
		LoggedIn: a.Session.Authenticated(),
		User:     a.Session.User(),
		Profile:  a.Profiles.Selected(),
		Backend:  a.Client.BaseURL(),
	}
	if st.LoggedIn {
		a.Profiles.Load(cmd.Context())
		st.Profiles = len(a.Profiles.List())
	}
	st.NextStep = ux.SuggestNextSteps(ux.Progress{
		LoggedIn:        st.LoggedIn,
		HasProfiles:     st.Profiles > 0,
		ProfileSelected: st.Profile != nil,
	})
	return a.show(st, nil)
}
