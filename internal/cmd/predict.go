package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vedic/internal/api"
	vedicerrors "github.com/felixgeelhaar/vedic/internal/errors"
	"github.com/felixgeelhaar/vedic/internal/pages"
	"github.com/felixgeelhaar/vedic/internal/profiles"
	"github.com/felixgeelhaar/vedic/internal/tui"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Get horoscope or transit predictions",
	Long: `Request predictions for the selected profile, or for any birth details
given with --dob, --tob and --place.

Kinds: horoscope (default), health, career, transit. With --llm the
prediction is written by the chosen language model instead.`,
	Example: `  vedic predict
  vedic predict --kind transit
  vedic predict --ai
  vedic predict --kind career --llm gemini
  vedic predict --dob 1990-05-14 --tob 06:30 --place Chennai`,
	Args: cobra.NoArgs,
	RunE: runE(runPredict),
}

var (
	predictKind  string
	predictAI    bool
	predictLLM   string
	predictName  string
	predictDOB   string
	predictTOB   string
	predictPlace string
)

func init() {
	f := predictCmd.Flags()
	f.StringVarP(&predictKind, "kind", "k", string(pages.KindHoroscope), "horoscope, health, career or transit")
	f.BoolVar(&predictAI, "ai", false, "add the AI interpretation to the horoscope")
	f.StringVar(&predictLLM, "llm", "", "have an LLM provider (qwen, gemini, chatgpt) write the prediction")
	f.StringVar(&predictName, "name", "", "name for ad-hoc birth details")
	f.StringVar(&predictDOB, "dob", "", "date of birth for ad-hoc details, YYYY-MM-DD")
	f.StringVar(&predictTOB, "tob", "", "time of birth for ad-hoc details, HH:MM")
	f.StringVar(&predictPlace, "place", "", "birth place for ad-hoc details")
	rootCmd.AddCommand(predictCmd)
}

// birthDetails returns the ad-hoc details from flags, or those of the
// selected profile.
func (a *App) birthDetails(ctx context.Context) (api.BirthDetails, error) {
	if predictDOB == "" && predictTOB == "" && predictPlace == "" {
		p, err := a.requireProfile()
		if err != nil {
			return api.BirthDetails{}, err
		}
		return p.BirthDetails, nil
	}
	if err := a.requireSession(); err != nil {
		return api.BirthDetails{}, err
	}
	if tui.ValidateDate(predictDOB) != nil || tui.ValidateTime(predictTOB) != nil || predictPlace == "" {
		return api.BirthDetails{}, vedicerrors.NewInputInvalidError("birth details", "--dob YYYY-MM-DD, --tob HH:MM and --place together")
	}
	form := &profiles.Form{PersonName: predictName, DOB: predictDOB, TOB: predictTOB}
	msg, err := form.Locate(ctx, a.Client, predictPlace)
	if err != nil {
		return api.BirthDetails{}, err
	}
	a.note("%s", msg)
	return form.Details(), nil
}

// predictionView is the outcome of predict.
type predictionView struct {
	Kind      pages.PredictionKind `json:"kind" yaml:"kind"`
	Horoscope *api.HoroscopeResult `json:"horoscope,omitempty" yaml:"horoscope,omitempty"`
	Transit   map[string]any       `json:"transit,omitempty" yaml:"transit,omitempty"`
	LLM       *api.PredictResponse `json:"llm,omitempty" yaml:"llm,omitempty"`
}

func newPredictionView(p *pages.Prediction) predictionView {
	return predictionView{Kind: p.Kind, Horoscope: p.Horoscope, Transit: p.Transit}
}

func (v predictionView) Text() string {
	if v.LLM != nil {
		return fmt.Sprintf("%s prediction (%s)\n\n%s", titleCase(v.LLM.PredictionType), v.LLM.Provider, v.LLM.Prediction)
	}
	if v.Kind == pages.KindTransit {
		return "Transits\n\n" + yamlText(v.Transit)
	}
	return horoscopeText(v.Kind, v.Horoscope)
}

func signText(s *api.SignRef) string {
	if s == nil {
		return ""
	}
	return s.SignName
}

func horoscopeText(kind pages.PredictionKind, h *api.HoroscopeResult) string {
	var b strings.Builder
	lagna := ""
	if h.Lagna != nil {
		lagna = h.Lagna.SignName
	}
	b.WriteString(kv("Lagna", lagna, "Sun sign", signText(h.SunSign), "Moon sign", signText(h.MoonSign)))

	if len(h.PlanetaryPositions) > 0 {
		names := make([]string, 0, len(h.PlanetaryPositions))
		for n := range h.PlanetaryPositions {
			names = append(names, n)
		}
		sort.Strings(names)
		b.WriteString("\n\nPlanets\n")
		pairs := make([]string, 0, 2*len(names))
		for _, n := range names {
			pos := h.PlanetaryPositions[n]
			desc := fmt.Sprintf("%s, house %d", pos.SignName, pos.House)
			if pos.Nakshatra != "" {
				desc += ", " + pos.Nakshatra
			}
			pairs = append(pairs, n, desc)
		}
		b.WriteString(kv(pairs...))
	}

	if preds := predictionsFor(kind, h.Predictions); len(preds) > 0 {
		b.WriteString("\n\nPredictions\n")
		b.WriteString(yamlText(preds))
	}
	if h.AIPrediction != "" {
		b.WriteString("\n\nAI interpretation\n")
		b.WriteString(h.AIPrediction)
	}
	return b.String()
}

// predictionsFor narrows the horoscope predictions to the asked topic when
// the backend keyed them by topic.
func predictionsFor(kind pages.PredictionKind, preds map[string]any) map[string]any {
	if kind == pages.KindHoroscope {
		return preds
	}
	for k, v := range preds {
		if strings.EqualFold(k, string(kind)) {
			return map[string]any{k: v}
		}
	}
	return preds
}

func runPredict(cmd *cobra.Command, _ []string, a *App) error {
	ctx := cmd.Context()
	kind, err := pages.ParsePredictionKind(predictKind)
	if err != nil {
		return vedicerrors.NewInputInvalidError("--kind", "horoscope, health, career or transit")
	}
	var provider api.LLMProvider
	if predictLLM != "" {
		if provider, err = api.ParseLLMProvider(predictLLM); err != nil {
			return vedicerrors.NewInputInvalidError("--llm", "qwen, gemini or chatgpt")
		}
	}
	details, err := a.birthDetails(ctx)
	if err != nil {
		return err
	}

	if provider != "" {
		res, err := a.Client.Predict(ctx, details, string(kind), provider)
		if err != nil {
			return err
		}
		return a.show(predictionView{Kind: kind, LLM: res}, nil)
	}

	page := pages.NewPredictions(a.Client)
	page.Kind = kind
	page.UseAI = predictAI
	snap := page.Submit(ctx, details)
	if err := failure(snap); err != nil {
		if snap.Err == nil {
			return vedicerrors.NewProfileNoLocationError()
		}
		return err
	}
	return a.show(newPredictionView(snap.Data), nil)
}
