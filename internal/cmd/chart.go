package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vedic/internal/api"
	"github.com/felixgeelhaar/vedic/internal/chart"
	vedicerrors "github.com/felixgeelhaar/vedic/internal/errors"
	"github.com/felixgeelhaar/vedic/internal/pages"
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Show the rasi chart of the selected profile",
	Long: `Calculate the rasi (D1) chart of the selected profile and print it as a
table of houses. With --svg the South Indian square chart is also written
to a file.`,
	Example: `  vedic chart
  vedic chart --svg chart.svg
  vedic chart -f json`,
	Args: cobra.NoArgs,
	RunE: runE(runChart),
}

var chartDoshasCmd = &cobra.Command{
	Use:   "doshas",
	Short: "Show the doshas found in the selected chart",
	Args:  cobra.NoArgs,
	RunE: runE(func(cmd *cobra.Command, _ []string, a *App) error {
		return a.chartExtra(cmd.Context(), "doshas", a.Client.Doshas)
	}),
}

var chartYogasCmd = &cobra.Command{
	Use:   "yogas",
	Short: "Show the yogas formed in the selected chart",
	Args:  cobra.NoArgs,
	RunE: runE(func(cmd *cobra.Command, _ []string, a *App) error {
		return a.chartExtra(cmd.Context(), "yogas", a.Client.Yogas)
	}),
}

var chartSVG string

func init() {
	chartCmd.Flags().StringVar(&chartSVG, "svg", "", "also write the chart as SVG to this file")
	chartCmd.AddCommand(chartDoshasCmd, chartYogasCmd)
	rootCmd.AddCommand(chartCmd)
}

func runChart(cmd *cobra.Command, _ []string, a *App) error {
	if _, err := a.requireProfile(); err != nil {
		return err
	}
	page := pages.NewBirthChart(a.Profiles, a.Client)
	if err := page.Mount(cmd.Context()); err != nil {
		return err
	}
	snap := page.Chart.Snapshot()
	if err := failure(snap); err != nil {
		return err
	}
	layout := page.Layout()

	if chartSVG != "" {
		if err := writeSVG(chartSVG, layout); err != nil {
			return err
		}
		a.note("Chart written to %s", chartSVG)
	}
	return a.show(snap.Data, func() string {
		return strings.TrimRight(chart.RenderText(layout), "\n")
	})
}

func writeSVG(path string, c *chart.Chart) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return vedicerrors.Wrap(vedicerrors.ErrCodeChartRenderFailed, fmt.Sprintf("cannot create %s", path), err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = vedicerrors.Wrap(vedicerrors.ErrCodeChartRenderFailed, fmt.Sprintf("cannot write %s", path), cerr)
		}
	}()
	if err := chart.RenderSVG(f, c, chart.SVGOptions{}); err != nil {
		return vedicerrors.Wrap(vedicerrors.ErrCodeChartRenderFailed, "failed to render chart", err)
	}
	return nil
}

// chartExtra prints one of the chart analyses that have no fixed shape.
func (a *App) chartExtra(ctx context.Context, what string, fetch func(context.Context, api.BirthDetails) (map[string]any, error)) error {
	p, err := a.requireProfile()
	if err != nil {
		return err
	}
	res, err := fetch(ctx, p.BirthDetails)
	if err != nil {
		return err
	}
	return a.show(res, func() string {
		if len(res) == 0 {
			return "No " + what + " reported"
		}
		return yamlText(res)
	})
}
