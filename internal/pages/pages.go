package pages

import (
	"context"
	"time"

	"github.com/felixgeelhaar/vedic/internal/api"
)

// Astrology is the part of the API the chart pages call.
type Astrology interface {
	BirthChart(ctx context.Context, d api.BirthDetails) (*api.ChartResult, error)
	Dhasa(ctx context.Context, d api.BirthDetails, system api.DashaSystem) (*api.DashaResult, error)
	Horoscope(ctx context.Context, d api.BirthDetails, useAI bool) (*api.HoroscopeResult, error)
	Transit(ctx context.Context, d api.BirthDetails, date *time.Time) (map[string]any, error)
	Compatibility(ctx context.Context, male, female api.BirthDetails, useAI bool) (*api.CompatibilityResult, error)
	Ask(ctx context.Context, d api.BirthDetails, question string, provider api.LLMProvider) (*api.AskResponse, error)
}

// Selection gives access to the selected profile.
type Selection interface {
	Selected() *api.Profile
}

// selected returns the selected profile or ErrNoProfile.
func selected(sel Selection) (*api.Profile, error) {
	p := sel.Selected()
	if p == nil {
		return nil, ErrNoProfile
	}
	return p, nil
}

// subjectName is the name a chart is addressed by: the person's name, or the
// profile's name when the person has none.
func subjectName(p *api.Profile) string {
	if p.BirthDetails.Name != "" {
		return p.BirthDetails.Name
	}
	return p.ProfileName
}
