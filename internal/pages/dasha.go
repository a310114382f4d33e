package pages

import (
	"context"
	"time"

	"github.com/felixgeelhaar/vedic/internal/api"
	"github.com/felixgeelhaar/vedic/internal/dasha"
)

// Dasha loads the planetary periods of the selected profile.
type Dasha struct {
	sel    Selection
	client Astrology
	now    func() time.Time

	System   api.DashaSystem
	Periods  *Loader[*api.DashaResult]
	Expanded dasha.Expanded
}

// NewDasha creates the dasha page using the vimsottari system.
func NewDasha(sel Selection, client Astrology) *Dasha {
	return &Dasha{
		sel:     sel,
		client:  client,
		now:     time.Now,
		System:  api.Vimsottari,
		Periods: NewLoader[*api.DashaResult]("Failed to calculate Dasha"),
	}
}

// Mount calculates the periods with the current system.
func (p *Dasha) Mount(ctx context.Context) error {
	prof, err := selected(p.sel)
	if err != nil {
		return err
	}
	snap := p.Periods.Run(ctx, func(ctx context.Context) (*api.DashaResult, error) {
		return p.client.Dhasa(ctx, prof.BirthDetails, p.System)
	})
	if snap.State == Success && snap.Data != nil && snap.Data.CurrentDasha != nil {
		p.Expanded.ExpandOnly(snap.Data.CurrentDasha.Lord)
	}
	return nil
}

// SetSystem switches the dasha system and recalculates.
func (p *Dasha) SetSystem(ctx context.Context, system api.DashaSystem) error {
	p.System = system
	return p.Mount(ctx)
}

// Current returns the major period and sub-period running now, found by
// scanning the loaded sequence. Either may be nil.
func (p *Dasha) Current() (*api.MajorPeriod, *api.SubPeriod) {
	snap := p.Periods.Snapshot()
	if snap.Data == nil {
		return nil, nil
	}
	now := p.now()
	major, ok := dasha.Current(snap.Data.Sequence, now)
	if !ok {
		return nil, nil
	}
	sub, _ := dasha.CurrentSub(major, now)
	return major, sub
}
