package pages

import (
	"context"
	"strconv"

	"github.com/felixgeelhaar/vedic/internal/api"
)

// ProfileList is the part of the profile store the compatibility and profile
// pages read.
type ProfileList interface {
	Selection
	Load(ctx context.Context)
	List() []api.Profile
}

// ErrSecondProfile is shown when a match is requested without a partner.
const ErrSecondProfile = "Please select a second profile for compatibility check"

// Compatibility matches the selected profile against a second one.
type Compatibility struct {
	profiles ProfileList
	client   Astrology

	second *api.Profile
	UseAI  bool
	Result *Loader[*api.CompatibilityResult]
}

// NewCompatibility creates the compatibility page.
func NewCompatibility(profiles ProfileList, client Astrology) *Compatibility {
	return &Compatibility{
		profiles: profiles,
		client:   client,
		Result:   NewLoader[*api.CompatibilityResult]("Failed to calculate compatibility"),
	}
}

// Mount refreshes the profile list the partner is picked from.
func (p *Compatibility) Mount(ctx context.Context) error {
	if _, err := selected(p.profiles); err != nil {
		return err
	}
	p.profiles.Load(ctx)
	return nil
}

// Candidates lists the profiles that can be matched against the selected one.
func (p *Compatibility) Candidates() []api.Profile {
	self := p.profiles.Selected()
	var out []api.Profile
	for _, prof := range p.profiles.List() {
		if self != nil && prof.ID == self.ID {
			continue
		}
		out = append(out, prof)
	}
	return out
}

// SelectSecond picks the partner by id. It reports whether the id is a candidate.
func (p *Compatibility) SelectSecond(id string) bool {
	for _, prof := range p.Candidates() {
		if prof.ID == id {
			p.second = &prof
			return true
		}
	}
	return false
}

// Second returns the chosen partner, or nil.
func (p *Compatibility) Second() *api.Profile { return p.second }

// Calculate runs the match. Without a partner it fails without a request.
func (p *Compatibility) Calculate(ctx context.Context) Snapshot[*api.CompatibilityResult] {
	self, err := selected(p.profiles)
	if err != nil {
		return p.Result.Fail(err.Error())
	}
	if p.second == nil {
		return p.Result.Fail(ErrSecondProfile)
	}
	second := *p.second
	return p.Result.Run(ctx, func(ctx context.Context) (*api.CompatibilityResult, error) {
		return p.client.Compatibility(ctx, self.BirthDetails, second.BirthDetails, p.UseAI)
	})
}

// ScoreLine is one row of a score card.
type ScoreLine struct {
	Name  string
	Score float64
	Max   float64
}

// Text renders the line as "<score>/<max>".
func (l ScoreLine) Text() string {
	return formatScore(l.Score) + "/" + formatScore(l.Max)
}

// ScoreCard is a compatibility result ready for display.
type ScoreCard struct {
	Total  ScoreLine
	Kootas []ScoreLine
	Status string
	// AIAnalysis is empty when the backend sent none; it is then not shown.
	AIAnalysis string
}

// ShowAI reports whether the AI analysis section is displayed.
func (c ScoreCard) ShowAI() bool { return c.AIAnalysis != "" }

// Score maxima. The total is out of 36; the six kootas shown are a subset of
// the full matching.
const (
	MaxTotal = 36
	MaxDina  = 6
	MaxGana  = 6
	MaxYoni  = 6
	MaxRasi  = 7
	MaxRajju = 3
	MaxVedha = 3
)

// NewScoreCard builds the card for r.
func NewScoreCard(r *api.CompatibilityResult) ScoreCard {
	return ScoreCard{
		Total: ScoreLine{Name: "Total", Score: r.TotalScore, Max: MaxTotal},
		Kootas: []ScoreLine{
			{Name: "Dina", Score: r.Dinam, Max: MaxDina},
			{Name: "Gana", Score: r.Ganam, Max: MaxGana},
			{Name: "Yoni", Score: r.Yoni, Max: MaxYoni},
			{Name: "Rasi", Score: r.Rasi, Max: MaxRasi},
			{Name: "Rajju", Score: r.Rajju, Max: MaxRajju},
			{Name: "Vedha", Score: r.Vedha, Max: MaxVedha},
		},
		Status:     r.Status,
		AIAnalysis: r.AIAnalysis,
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
