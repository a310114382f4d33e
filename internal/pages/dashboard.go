package pages

import (
	"context"

	"github.com/felixgeelhaar/vedic/internal/api"
)

// Session is the part of the session store the dashboard uses.
type Session interface {
	User() *api.User
	Logout()
}

// Selector is the selection half of the profile store.
type Selector interface {
	Selection
	Clear()
}

// HealthChecker reports backend health.
type HealthChecker interface {
	Health(ctx context.Context) (*api.Health, error)
}

// Feature is an entry of the dashboard menu.
type Feature struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Command     string `json:"command" yaml:"command"`
}

// Features are the pages reachable from the dashboard.
var Features = []Feature{
	{"Birth Chart", "Explore your Rasi chart with detailed planetary positions", "chart"},
	{"Ask AI Astrologer", "Chat with AI to get personalized Vedic astrology insights and guidance", "ask"},
	{"Compatibility", "Check marriage compatibility and relationship harmony analysis", "compat"},
	{"Dasha Periods", "Explore your planetary periods and life timing predictions", "dasha"},
}

// Dashboard is the landing page after a profile is chosen.
type Dashboard struct {
	session  Session
	profiles Selector
	health   HealthChecker

	Health *Loader[*api.Health]
}

// NewDashboard creates the dashboard.
func NewDashboard(session Session, profiles Selector, health HealthChecker) *Dashboard {
	return &Dashboard{
		session:  session,
		profiles: profiles,
		health:   health,
		Health:   NewLoader[*api.Health]("Backend unavailable"),
	}
}

// Mount checks the backend. It needs a selected profile.
func (p *Dashboard) Mount(ctx context.Context) error {
	if _, err := selected(p.profiles); err != nil {
		return err
	}
	p.Health.Run(ctx, p.health.Health)
	return nil
}

// User returns the logged-in user, or nil.
func (p *Dashboard) User() *api.User { return p.session.User() }

// Profile returns the selected profile, or nil.
func (p *Dashboard) Profile() *api.Profile { return p.profiles.Selected() }

// ChangeProfile drops the selection so another can be picked.
func (p *Dashboard) ChangeProfile() { p.profiles.Clear() }

// Logout ends the session and drops the selection.
func (p *Dashboard) Logout() {
	p.session.Logout()
	p.profiles.Clear()
}
