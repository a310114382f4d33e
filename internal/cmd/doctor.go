package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vedic/internal/api"
	"github.com/felixgeelhaar/vedic/internal/contract"
	vedicerrors "github.com/felixgeelhaar/vedic/internal/errors"
	"github.com/felixgeelhaar/vedic/internal/health"
	"github.com/felixgeelhaar/vedic/internal/ux"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, backend and session",
	Long: `Run diagnostics to check that vedic can work with the backend.

Checks include:
  • Configuration file and state directory
  • Backend reachability and health
  • The backend's OpenAPI document lists every route the client calls
  • Session and selected profile

Examples:
  vedic doctor
  vedic doctor --format json`,
	Args: cobra.NoArgs,
	RunE: runE(runDoctor),
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// DoctorReport is the complete report
type DoctorReport struct {
	Checks    []*health.Result `json:"checks" yaml:"checks"`
	Contract  *contract.Report `json:"contract,omitempty" yaml:"contract,omitempty"`
	Status    health.Status    `json:"status" yaml:"status"`
	NextSteps []string         `json:"next_steps" yaml:"next_steps"`
	Healthy   bool             `json:"healthy" yaml:"healthy"`
}

func (r *DoctorReport) Text() string {
	var b strings.Builder
	for _, c := range r.Checks {
		icon := "✓"
		switch c.Status {
		case health.StatusDegraded:
			icon = "!"
		case health.StatusUnhealthy:
			icon = "✗"
		}
		fmt.Fprintf(&b, "%s %-10s %s\n", icon, c.Name, c.Message)
	}
	if r.Contract != nil {
		for _, f := range r.Contract.Findings {
			fmt.Fprintf(&b, "    %s\n", f.Message)
		}
	}
	if len(r.NextSteps) > 0 {
		b.WriteString("\nNext steps:\n")
		for _, s := range r.NextSteps {
			fmt.Fprintf(&b, "  • %s\n", s)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func runDoctor(cmd *cobra.Command, _ []string, a *App) error {
	routes := health.NewContractChecker(&http.Client{Timeout: a.Config.API.Timeout}, a.Client.BaseURL(), api.Endpoints)

	m := health.NewManager().WithTimeout(a.Config.API.Timeout)
	m.AddChecker(health.CheckFunc("Config", a.checkConfig))
	m.AddChecker(health.NewBackendChecker(a.Client))
	m.AddChecker(routes)
	m.AddChecker(health.CheckFunc("Session", a.checkSession))
	m.AddChecker(health.CheckFunc("Profile", a.checkProfile))

	results := m.Check(cmd.Context())
	report := &DoctorReport{
		Checks:   results,
		Contract: routes.Report(),
		Status:   health.OverallStatus(results),
	}
	report.Healthy = report.Status != health.StatusUnhealthy

	for _, c := range results {
		a.Logger.Debug("doctor check", "name", c.Name, "status", c.Status, "latency", c.Latency)
		if c.Status == health.StatusUnhealthy {
			report.NextSteps = append(report.NextSteps, nextStep(c, a))
		}
	}
	if len(report.NextSteps) == 0 {
		report.NextSteps = append(report.NextSteps, ux.SuggestNextSteps(ux.Progress{
			LoggedIn:        a.Session.Authenticated(),
			HasProfiles:     true,
			ProfileSelected: a.Profiles.Selected() != nil,
		}))
	}

	if err := a.show(report, nil); err != nil {
		return err
	}
	if !report.Healthy {
		return vedicerrors.New(vedicerrors.ErrCodeNetBackend, "doctor found problems")
	}
	return nil
}

func (a *App) checkConfig(context.Context) *health.Result {
	var res *health.Result
	if a.Config.File != "" {
		res = health.Healthy("loaded " + a.Config.File)
	} else {
		res = health.Healthy("no config file, using defaults and environment")
	}
	return res.WithDetail("api_url", a.Config.API.URL).WithDetail("state_dir", a.Config.State.Dir)
}

func (a *App) checkSession(context.Context) *health.Result {
	switch u := a.Session.User(); {
	case u != nil:
		return health.Healthy("logged in as " + u.Username)
	case a.Session.Authenticated():
		return health.Degraded("token stored but the user could not be loaded")
	default:
		return health.Degraded("not logged in")
	}
}

func (a *App) checkProfile(context.Context) *health.Result {
	p := a.Profiles.Selected()
	switch {
	case p == nil:
		return health.Degraded("none selected")
	case !p.BirthDetails.Located():
		return health.Unhealthy(p.ProfileName + " has no resolved birth place")
	default:
		return health.Healthy(p.ProfileName)
	}
}

func nextStep(c *health.Result, a *App) string {
	switch c.Name {
	case "Backend":
		return fmt.Sprintf("Start the backend or point --api-url / VEDIC_API_URL at it (now %s)", a.Client.BaseURL())
	case "API":
		return "Upgrade the backend; this client needs the routes listed above"
	case "Profile":
		return "Update the profile's place: 'vedic profile update <id> --place <city>'"
	default:
		return "Re-run with --log-level debug for details"
	}
}
