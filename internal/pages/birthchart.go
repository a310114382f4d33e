package pages

import (
	"context"

	"github.com/felixgeelhaar/vedic/internal/api"
	"github.com/felixgeelhaar/vedic/internal/chart"
)

// BirthChart loads the rasi chart of the selected profile.
type BirthChart struct {
	sel    Selection
	client Astrology

	Chart *Loader[*api.ChartResult]
}

// NewBirthChart creates the birth chart page.
func NewBirthChart(sel Selection, client Astrology) *BirthChart {
	return &BirthChart{
		sel:    sel,
		client: client,
		Chart:  NewLoader[*api.ChartResult]("Failed to calculate chart"),
	}
}

// Mount calculates the chart of the selected profile.
func (p *BirthChart) Mount(ctx context.Context) error {
	prof, err := selected(p.sel)
	if err != nil {
		return err
	}
	p.Chart.Run(ctx, func(ctx context.Context) (*api.ChartResult, error) {
		return p.client.BirthChart(ctx, prof.BirthDetails)
	})
	return nil
}

// Layout returns the laid-out chart, or nil before a successful load.
func (p *BirthChart) Layout() *chart.Chart {
	snap := p.Chart.Snapshot()
	if snap.Data == nil {
		return nil
	}
	return chart.New(snap.Data)
}
