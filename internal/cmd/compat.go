package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vedic/internal/api"
	vedicerrors "github.com/felixgeelhaar/vedic/internal/errors"
	"github.com/felixgeelhaar/vedic/internal/pages"
	"github.com/felixgeelhaar/vedic/internal/tui"
)

var compatCmd = &cobra.Command{
	Use:     "compat [profile-id]",
	Aliases: []string{"compatibility", "match"},
	Short:   "Match the selected profile against another",
	Long: `Calculate the marriage compatibility (porutham) between the selected
profile and a second one. The total is out of 36; the six kootas shown are
part of the full matching.

Without a profile id the partner is picked interactively.`,
	Example: `  vedic compat 65f1c2
  vedic compat 65f1c2 --ai
  vedic compat 65f1c2 --analysis gemini`,
	Args: cobra.MaximumNArgs(1),
	RunE: runE(runCompat),
}

var (
	compatAI       bool
	compatAnalysis string
)

func init() {
	compatCmd.Flags().BoolVar(&compatAI, "ai", false, "include the AI analysis of the match")
	compatCmd.Flags().StringVar(&compatAnalysis, "analysis", "", "ask an LLM provider (qwen, gemini, chatgpt) for a detailed analysis")
	rootCmd.AddCommand(compatCmd)
}

// compatView is the outcome of compat.
type compatView struct {
	Partner  string                     `json:"partner" yaml:"partner"`
	Result   *api.CompatibilityResult   `json:"result" yaml:"result"`
	Analysis *api.CompatibilityAnalysis `json:"analysis,omitempty" yaml:"analysis,omitempty"`

	self string
}

func (v compatView) Text() string {
	card := pages.NewScoreCard(v.Result)
	var b strings.Builder
	fmt.Fprintf(&b, "%s ♥ %s\n\n", v.self, v.Partner)
	pairs := []string{card.Total.Name, card.Total.Text()}
	for _, k := range card.Kootas {
		pairs = append(pairs, k.Name, k.Text())
	}
	pairs = append(pairs, "Status", card.Status)
	b.WriteString(kv(pairs...))
	if card.ShowAI() {
		b.WriteString("\n\nAI analysis\n")
		b.WriteString(card.AIAnalysis)
	}
	if v.Analysis != nil && v.Analysis.AIAnalysis != "" {
		fmt.Fprintf(&b, "\n\nDetailed analysis (%s)\n%s", v.Analysis.Provider, v.Analysis.AIAnalysis)
	}
	return b.String()
}

func runCompat(cmd *cobra.Command, args []string, a *App) error {
	ctx := cmd.Context()
	var provider api.LLMProvider
	if compatAnalysis != "" {
		p, err := api.ParseLLMProvider(compatAnalysis)
		if err != nil {
			return vedicerrors.NewInputInvalidError("--analysis", "qwen, gemini or chatgpt")
		}
		provider = p
	}
	self, err := a.requireProfile()
	if err != nil {
		return err
	}

	page := pages.NewCompatibility(a.Profiles, a.Client)
	if err := page.Mount(ctx); err != nil {
		return err
	}

	var id string
	switch {
	case len(args) == 1:
		id = args[0]
	case tui.ShouldPrompt():
		id, err = tui.PickProfile("Match "+self.ProfileName+" with", page.Candidates(), "")
		if err != nil {
			return err
		}
	default:
		return vedicerrors.NewInputInvalidError("partner", "vedic compat <profile-id>")
	}
	if !page.SelectSecond(id) {
		if id == self.ID {
			return vedicerrors.NewInputInvalidError("partner", "a profile other than the selected one")
		}
		return vedicerrors.NewProfileNotFoundError(id)
	}

	page.UseAI = compatAI
	snap := page.Calculate(ctx)
	if err := failure(snap); err != nil {
		return err
	}

	second := page.Second()
	view := compatView{Partner: second.ProfileName, Result: snap.Data, self: self.ProfileName}
	if provider != "" {
		analysis, err := a.Client.CompatibilityAnalysis(ctx, self.BirthDetails, second.BirthDetails, provider)
		if err != nil {
			return err
		}
		view.Analysis = analysis
	}
	return a.show(view, nil)
}
