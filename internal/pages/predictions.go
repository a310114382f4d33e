package pages

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/vedic/internal/api"
)

// PredictionKind selects what the predictions page asks for.
type PredictionKind string

// Prediction kinds. Health and career are answered by the horoscope endpoint.
const (
	KindHoroscope PredictionKind = "horoscope"
	KindHealth    PredictionKind = "health"
	KindCareer    PredictionKind = "career"
	KindTransit   PredictionKind = "transit"
)

// PredictionKinds lists the kinds offered, default first.
var PredictionKinds = []PredictionKind{KindHoroscope, KindHealth, KindCareer, KindTransit}

// ParsePredictionKind validates a kind name. Empty means horoscope.
func ParsePredictionKind(s string) (PredictionKind, error) {
	if s == "" {
		return KindHoroscope, nil
	}
	for _, k := range PredictionKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown prediction type %q", s)
}

// errNoLocation is shown when the birth place was never resolved.
const errNoLocation = "Please search for a location using the location search above"

// Prediction is the outcome of one request; only the field matching Kind is set.
type Prediction struct {
	Kind      PredictionKind
	Horoscope *api.HoroscopeResult
	Transit   map[string]any
}

// Predictions runs horoscope and transit requests for arbitrary birth details.
type Predictions struct {
	client Astrology

	Kind   PredictionKind
	UseAI  bool
	Result *Loader[*Prediction]
}

// NewPredictions creates the predictions page.
func NewPredictions(client Astrology) *Predictions {
	return &Predictions{
		client: client,
		Kind:   KindHoroscope,
		Result: NewLoader[*Prediction]("Failed to get predictions"),
	}
}

// Submit requests a prediction for d. Details without a resolved location are
// refused without a request.
func (p *Predictions) Submit(ctx context.Context, d api.BirthDetails) Snapshot[*Prediction] {
	if !d.Located() {
		return p.Result.Fail(errNoLocation)
	}
	kind := p.Kind
	useAI := p.UseAI
	return p.Result.Run(ctx, func(ctx context.Context) (*Prediction, error) {
		if kind == KindTransit {
			res, err := p.client.Transit(ctx, d, nil)
			if err != nil {
				return nil, err
			}
			return &Prediction{Kind: kind, Transit: res}, nil
		}
		res, err := p.client.Horoscope(ctx, d, useAI)
		if err != nil {
			return nil, err
		}
		return &Prediction{Kind: kind, Horoscope: res}, nil
	})
}
