package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vedic/internal/api"
	"github.com/felixgeelhaar/vedic/internal/pages"
	"github.com/felixgeelhaar/vedic/internal/tui"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"home"},
	Short:   "Overview of the session, the selected profile and the backend",
	Args:    cobra.NoArgs,
	RunE:    runE(runDashboard),
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

// dashboardView is the outcome of dashboard.
type dashboardView struct {
	User     *api.User       `json:"user" yaml:"user"`
	Profile  *api.Profile    `json:"profile" yaml:"profile"`
	Health   *api.Health     `json:"health,omitempty" yaml:"health,omitempty"`
	Backend  string          `json:"backend_error,omitempty" yaml:"backend_error,omitempty"`
	Features []pages.Feature `json:"features" yaml:"features"`
}

func (v dashboardView) Text() string {
	s := tui.DefaultStyles()
	var b strings.Builder
	name := ""
	if v.User != nil {
		name = v.User.Username
	}
	b.WriteString(s.Title.Render("Welcome, " + name))
	b.WriteString("\n")
	if v.Profile != nil {
		b.WriteString(s.Subtitle.Render(tui.ProfileLabel(*v.Profile)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case v.Health != nil:
		b.WriteString(kv(
			"Backend", v.Health.Status,
			"Calculations", availability(v.Health.PyJHoraAvailable),
			"AI astrologer", availability(v.Health.QwenEnabled),
		))
	default:
		b.WriteString(s.Error.Render("Backend: " + v.Backend))
	}

	b.WriteString("\n\n")
	for _, f := range v.Features {
		fmt.Fprintf(&b, "%s  %s\n   %s\n", s.Key.Render(fmt.Sprintf("vedic %-8s", f.Command)), f.Title, s.Muted.Render(f.Description))
	}
	return strings.TrimRight(b.String(), "\n")
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "unavailable"
}

func runDashboard(cmd *cobra.Command, _ []string, a *App) error {
	if _, err := a.requireProfile(); err != nil {
		return err
	}
	page := pages.NewDashboard(a.Session, a.Profiles, a.Client)
	if err := page.Mount(cmd.Context()); err != nil {
		return err
	}
	snap := page.Health.Snapshot()
	view := dashboardView{
		User:     page.User(),
		Profile:  page.Profile(),
		Health:   snap.Data,
		Features: pages.Features,
	}
	if snap.State == pages.Error {
		view.Health = nil
		view.Backend = snap.Message
	}
	return a.show(view, nil)
}
