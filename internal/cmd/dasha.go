package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vedic/internal/api"
	"github.com/felixgeelhaar/vedic/internal/dasha"
	vedicerrors "github.com/felixgeelhaar/vedic/internal/errors"
	"github.com/felixgeelhaar/vedic/internal/pages"
)

var dashaCmd = &cobra.Command{
	Use:   "dasha",
	Short: "Show the planetary periods of the selected profile",
	Long: `List the major periods (mahadashas) of the selected profile. The period
running today is marked and its sub-periods (bhuktis) are listed below it.`,
	Example: `  vedic dasha
  vedic dasha --type yogini
  vedic dasha --all`,
	Args: cobra.NoArgs,
	RunE: runE(runDasha),
}

var (
	dashaType string
	dashaAll  bool
)

func init() {
	names := make([]string, len(api.DashaSystems))
	for i, s := range api.DashaSystems {
		names[i] = string(s)
	}
	dashaCmd.Flags().StringVarP(&dashaType, "type", "t", string(api.Vimsottari), "dasha system: "+strings.Join(names, ", "))
	dashaCmd.Flags().BoolVar(&dashaAll, "all", false, "list the sub-periods of every major period")
	rootCmd.AddCommand(dashaCmd)
}

// dashaView is the outcome of dasha.
type dashaView struct {
	System     api.DashaSystem  `json:"system" yaml:"system"`
	Result     *api.DashaResult `json:"result" yaml:"result"`
	CurrentSub *api.SubPeriod   `json:"current_bhukthi,omitempty" yaml:"current_bhukthi,omitempty"`

	current  *api.MajorPeriod
	expanded func(lord string) bool
}

var (
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func (v dashaView) Text() string {
	rows := [][]string{}
	for i := range v.Result.Sequence {
		mp := &v.Result.Sequence[i]
		mark := ""
		if v.current != nil && mp.Lord == v.current.Lord && mp.StartDate == v.current.StartDate {
			mark = "▶"
		}
		rows = append(rows, []string{mark, mp.Lord, periodSpan(mp.StartDate, mp.EndDate), years(mp.DurationYears)})
		if !v.expanded(mp.Lord) {
			continue
		}
		for j := range mp.SubPeriods {
			sp := &mp.SubPeriods[j]
			subMark := ""
			if v.CurrentSub != nil && sp == v.CurrentSub {
				subMark = "•"
			}
			rows = append(rows, []string{subMark, "  " + mp.Lord + "/" + sp.Lord,
				periodSpan(sp.StartDate, sp.EndDate), months(sp.DurationMonths)})
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("", "Period", "From – To", "Length").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row >= 0 && row < len(rows) && rows[row][0] == "▶" {
				return currentStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	var b strings.Builder
	fmt.Fprintf(&b, "%s dasha", titleCase(string(v.System)))
	if v.current != nil {
		fmt.Fprintf(&b, " · running %s", v.current.Lord)
		if v.CurrentSub != nil {
			fmt.Fprintf(&b, "/%s until %s", v.CurrentSub.Lord, dasha.FormatDate(v.CurrentSub.EndDate))
		}
	}
	b.WriteString("\n")
	b.WriteString(t.String())
	if v.Result.Note != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(v.Result.Note))
	}
	return b.String()
}

func periodSpan(start, end string) string {
	return dasha.FormatDate(start) + " – " + dasha.FormatDate(end)
}

func years(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + " y"
}

func months(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + " m"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func runDasha(cmd *cobra.Command, _ []string, a *App) error {
	system, err := api.ParseDashaSystem(dashaType)
	if err != nil {
		return vedicerrors.NewInputInvalidError("--type", "vimsottari, ashtottari, yogini or shodasottari")
	}
	if _, err := a.requireProfile(); err != nil {
		return err
	}

	page := pages.NewDasha(a.Profiles, a.Client)
	if err := page.SetSystem(cmd.Context(), system); err != nil {
		return err
	}
	snap := page.Periods.Snapshot()
	if err := failure(snap); err != nil {
		return err
	}

	major, sub := page.Current()
	if major != nil && !dashaAll {
		page.Expanded.ExpandOnly(major.Lord)
	}
	view := dashaView{
		System:     system,
		Result:     snap.Data,
		CurrentSub: sub,
		current:    major,
		expanded: func(lord string) bool {
			return dashaAll || page.Expanded.IsExpanded(lord)
		},
	}
	return a.show(view, nil)
}
