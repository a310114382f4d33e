package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DashaSystem names a dasha calculation scheme.
type DashaSystem string

// Supported dasha systems
const (
	Vimsottari   DashaSystem = "vimsottari"
	Ashtottari   DashaSystem = "ashtottari"
	Yogini       DashaSystem = "yogini"
	Shodasottari DashaSystem = "shodasottari"
)

// DashaSystems lists the systems offered to users, default first.
var DashaSystems = []DashaSystem{Vimsottari, Ashtottari, Yogini, Shodasottari}

// ParseDashaSystem validates a dasha system name. Empty means Vimsottari.
func ParseDashaSystem(s string) (DashaSystem, error) {
	if s == "" {
		return Vimsottari, nil
	}
	for _, ds := range DashaSystems {
		if string(ds) == s {
			return ds, nil
		}
	}
	return "", &ValidationError{Fields: []string{"dhasa_type"}, Message: fmt.Sprintf("unknown dasha system %q", s)}
}

// LLMProvider names the language model answering chart questions.
type LLMProvider string

// Supported LLM providers
const (
	ProviderQwen    LLMProvider = "qwen"
	ProviderGemini  LLMProvider = "gemini"
	ProviderChatGPT LLMProvider = "chatgpt"
)

// LLMProviders lists the providers offered to users, default first.
var LLMProviders = []LLMProvider{ProviderQwen, ProviderGemini, ProviderChatGPT}

// ParseLLMProvider validates a provider name. Empty means qwen.
func ParseLLMProvider(s string) (LLMProvider, error) {
	if s == "" {
		return ProviderQwen, nil
	}
	for _, p := range LLMProviders {
		if string(p) == s {
			return p, nil
		}
	}
	return "", &ValidationError{Fields: []string{"llm_provider"}, Message: fmt.Sprintf("unknown LLM provider %q", s)}
}

// BirthChart calculates the rasi chart.
func (c *Client) BirthChart(ctx context.Context, d BirthDetails) (*ChartResult, error) {
	if err := c.ValidateBirthDetails(d); err != nil {
		return nil, err
	}
	var res ChartResult
	if err := c.Do(ctx, http.MethodPost, "/api/astrology/birth-chart", nil, d, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Horoscope returns sign placements and predictions, optionally with an AI reading.
func (c *Client) Horoscope(ctx context.Context, d BirthDetails, useAI bool) (*HoroscopeResult, error) {
	if err := c.ValidateBirthDetails(d); err != nil {
		return nil, err
	}
	q := url.Values{"use_qwen": {strconv.FormatBool(useAI)}}
	var res HoroscopeResult
	if err := c.Do(ctx, http.MethodPost, "/api/astrology/horoscope", q, d, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type dhasaRequest struct {
	BirthDetails
	DhasaType DashaSystem `json:"dhasa_type"`
}

// Dhasa returns the dasha sequence for the given system.
func (c *Client) Dhasa(ctx context.Context, d BirthDetails, system DashaSystem) (*DashaResult, error) {
	if err := c.ValidateBirthDetails(d); err != nil {
		return nil, err
	}
	if system == "" {
		system = Vimsottari
	}
	var res DashaResult
	if err := c.Do(ctx, http.MethodPost, "/api/astrology/dhasa", nil, dhasaRequest{BirthDetails: d, DhasaType: system}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type transitRequest struct {
	BirthDetails
	CurrentDate *string `json:"current_date"`
}

// Transit returns current planetary transits over the natal chart. A nil
// date lets the backend use today.
func (c *Client) Transit(ctx context.Context, d BirthDetails, date *time.Time) (map[string]any, error) {
	if err := c.ValidateBirthDetails(d); err != nil {
		return nil, err
	}
	req := transitRequest{BirthDetails: d}
	if date != nil {
		s := date.Format("2006-01-02")
		req.CurrentDate = &s
	}
	var res map[string]any
	if err := c.Do(ctx, http.MethodPost, "/api/astrology/transit", nil, req, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Doshas returns the doshas present in the chart.
func (c *Client) Doshas(ctx context.Context, d BirthDetails) (map[string]any, error) {
	return c.opaque(ctx, "/api/astrology/doshas", d)
}

// Yogas returns the yogas present in the chart.
func (c *Client) Yogas(ctx context.Context, d BirthDetails) (map[string]any, error) {
	return c.opaque(ctx, "/api/astrology/yogas", d)
}

func (c *Client) opaque(ctx context.Context, path string, d BirthDetails) (map[string]any, error) {
	if err := c.ValidateBirthDetails(d); err != nil {
		return nil, err
	}
	var res map[string]any
	if err := c.Do(ctx, http.MethodPost, path, nil, d, &res); err != nil {
		return nil, err
	}
	return res, nil
}

type compatibilityRequest struct {
	MaleDOB         string   `json:"male_dob"`
	MaleTOB         string   `json:"male_tob"`
	MalePlace       string   `json:"male_place"`
	MaleLatitude    *float64 `json:"male_latitude"`
	MaleLongitude   *float64 `json:"male_longitude"`
	MaleTimezone    *float64 `json:"male_timezone"`
	FemaleDOB       string   `json:"female_dob"`
	FemaleTOB       string   `json:"female_tob"`
	FemalePlace     string   `json:"female_place"`
	FemaleLatitude  *float64 `json:"female_latitude"`
	FemaleLongitude *float64 `json:"female_longitude"`
	FemaleTimezone  *float64 `json:"female_timezone"`
	UseQwen         bool     `json:"use_qwen"`
}

// Compatibility scores two charts with koota matching.
func (c *Client) Compatibility(ctx context.Context, male, female BirthDetails, useAI bool) (*CompatibilityResult, error) {
	for _, d := range []BirthDetails{male, female} {
		if err := c.ValidateBirthDetails(d); err != nil {
			return nil, err
		}
	}
	req := compatibilityRequest{
		MaleDOB:         male.DOB,
		MaleTOB:         male.TOB,
		MalePlace:       male.Place,
		MaleLatitude:    male.Latitude,
		MaleLongitude:   male.Longitude,
		MaleTimezone:    male.Timezone,
		FemaleDOB:       female.DOB,
		FemaleTOB:       female.TOB,
		FemalePlace:     female.Place,
		FemaleLatitude:  female.Latitude,
		FemaleLongitude: female.Longitude,
		FemaleTimezone:  female.Timezone,
		UseQwen:         useAI,
	}
	var res CompatibilityResult
	if err := c.Do(ctx, http.MethodPost, "/api/astrology/compatibility", nil, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CompatibilityAnalysis asks an LLM for a narrative compatibility reading.
func (c *Client) CompatibilityAnalysis(ctx context.Context, male, female BirthDetails, provider LLMProvider) (*CompatibilityAnalysis, error) {
	for _, d := range []BirthDetails{male, female} {
		if err := c.ValidateBirthDetails(d); err != nil {
			return nil, err
		}
	}
	req := struct {
		Male     BirthDetails `json:"male_details"`
		Female   BirthDetails `json:"female_details"`
		Provider LLMProvider  `json:"llm_provider"`
	}{male, female, provider}
	var res CompatibilityAnalysis
	if err := c.Do(ctx, http.MethodPost, "/api/astrology/compatibility-analysis", nil, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Ask puts a free-form question about a chart to an LLM.
func (c *Client) Ask(ctx context.Context, d BirthDetails, question string, provider LLMProvider) (*AskResponse, error) {
	if err := c.ValidateBirthDetails(d); err != nil {
		return nil, err
	}
	if provider == "" {
		provider = ProviderQwen
	}
	req := struct {
		BirthDetails BirthDetails `json:"birth_details"`
		Question     string       `json:"question"`
		Provider     LLMProvider  `json:"llm_provider"`
	}{d, question, provider}
	var res AskResponse
	if err := c.Do(ctx, http.MethodPost, "/api/astrology/ask", nil, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Predict generates an AI prediction of the given type (general, health, career, relationships).
func (c *Client) Predict(ctx context.Context, d BirthDetails, predictionType string, provider LLMProvider) (*PredictResponse, error) {
	if err := c.ValidateBirthDetails(d); err != nil {
		return nil, err
	}
	if predictionType == "" {
		predictionType = "general"
	}
	if provider == "" {
		provider = ProviderQwen
	}
	req := struct {
		BirthDetails   BirthDetails `json:"birth_details"`
		PredictionType string       `json:"prediction_type"`
		Provider       LLMProvider  `json:"llm_provider"`
	}{d, predictionType, provider}
	var res PredictResponse
	if err := c.Do(ctx, http.MethodPost, "/api/astrology/predict", nil, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
