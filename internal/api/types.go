package api

import (
	"encoding/json"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// BirthDetails identifies the subject of a chart.
type BirthDetails struct {
	Name      string   `json:"name,omitempty"`
	DOB       string   `json:"dob" validate:"required,dob"`
	TOB       string   `json:"tob" validate:"required,tob"`
	Place     string   `json:"place" validate:"required"`
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Timezone  *float64 `json:"timezone" validate:"required,gte=-14,lte=14"`
}

// Date returns the date of birth without any time suffix ("1990-05-17T00:00:00" → "1990-05-17").
func (b BirthDetails) Date() string {
	date, _, _ := strings.Cut(b.DOB, "T")
	return date
}

// DisplayName returns the person's name, or "Anonymous".
func (b BirthDetails) DisplayName() string {
	if strings.TrimSpace(b.Name) == "" {
		return "Anonymous"
	}
	return b.Name
}

// Located reports whether latitude, longitude and timezone are all set.
func (b BirthDetails) Located() bool {
	return b.Latitude != nil && b.Longitude != nil && b.Timezone != nil
}

// Float returns a pointer to v, for filling BirthDetails coordinates.
func Float(v float64) *float64 {
	return &v
}

var (
	dobPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T.*)?$`)
	tobPattern = regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("dob", func(fl validator.FieldLevel) bool {
		return dobPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("tob", func(fl validator.FieldLevel) bool {
		return tobPattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidateBirthDetails checks birth details before they are sent.
func (c *Client) ValidateBirthDetails(d BirthDetails) error {
	if err := c.validate.Struct(d); err != nil {
		return newValidationError(err)
	}
	return nil
}

// Profile is a saved birth-chart subject.
type Profile struct {
	ID           string       `json:"_id"`
	ProfileName  string       `json:"profile_name"`
	BirthDetails BirthDetails `json:"birth_details"`
	IsDefault    bool         `json:"is_default,omitempty"`
	CreatedAt    string       `json:"created_at,omitempty"`
}

// ProfileList is the response of the profile listing endpoint.
type ProfileList struct {
	Success  bool      `json:"success"`
	Profiles []Profile `json:"profiles"`
	Message  string    `json:"message,omitempty"`
}

// StatusResponse is the success/message envelope of profile mutations.
type StatusResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	ProfileID string `json:"profile_id,omitempty"`
}

// TokenResponse is returned by login and register.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// User is the authenticated identity. Fields holds every field the backend sent.
type User struct {
	ID       string         `json:"_id,omitempty"`
	Username string         `json:"username"`
	Email    string         `json:"email,omitempty"`
	Fields   map[string]any `json:"-"`
}

// UnmarshalJSON keeps the opaque profile fields alongside the known ones.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*u = User(p)
	u.Fields = fields
	return nil
}

// LocationResult is the response of the location search endpoint.
type LocationResult struct {
	Success   bool     `json:"success"`
	Place     string   `json:"place,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Timezone  *float64 `json:"timezone,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// Located reports whether the search succeeded with all three coordinates.
func (r *LocationResult) Located() bool {
	return r != nil && r.Success && r.Latitude != nil && r.Longitude != nil && r.Timezone != nil
}

// Position is a body's placement in the chart.
type Position struct {
	House         int      `json:"house"`
	SignName      string   `json:"sign_name"`
	Degrees       *float64 `json:"degrees,omitempty"`
	Nakshatra     string   `json:"nakshatra,omitempty"`
	NakshatraPada int      `json:"nakshatra_pada,omitempty"`
}

// ChartResult is the birth chart: ascendant plus planet positions.
type ChartResult struct {
	ID     string              `json:"_id,omitempty"`
	Lagna  *Position           `json:"lagna,omitempty"`
	D1     map[string]Position `json:"d1_chart,omitempty"`
	Place  string              `json:"place,omitempty"`
	DOB    string              `json:"dob,omitempty"`
	TOB    string              `json:"tob,omitempty"`
	Status string              `json:"status,omitempty"`
}

// SignRef accepts a sign given either as a plain string or as a position object.
type SignRef struct {
	Position
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *SignRef) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		s.SignName = name
		return nil
	}
	return json.Unmarshal(data, &s.Position)
}

// HoroscopeResult is the response of the horoscope endpoint.
type HoroscopeResult struct {
	Lagna              *Position           `json:"lagna,omitempty"`
	SunSign            *SignRef            `json:"sun_sign,omitempty"`
	MoonSign           *SignRef            `json:"moon_sign,omitempty"`
	PlanetaryPositions map[string]Position `json:"planetary_positions,omitempty"`
	Predictions        map[string]any      `json:"predictions,omitempty"`
	AIPrediction       string              `json:"ai_prediction,omitempty"`
}

// SubPeriod is a dasha sub-period (bhukthi).
type SubPeriod struct {
	Lord           string  `json:"lord"`
	DurationMonths float64 `json:"duration_months"`
	StartDate      string  `json:"start_date,omitempty"`
	EndDate        string  `json:"end_date,omitempty"`
}

// MajorPeriod is a dasha major period.
type MajorPeriod struct {
	Order         int         `json:"order,omitempty"`
	Lord          string      `json:"lord"`
	DurationYears float64     `json:"duration_years"`
	StartDate     string      `json:"start_date,omitempty"`
	EndDate       string      `json:"end_date,omitempty"`
	Description   string      `json:"description,omitempty"`
	SubPeriods    []SubPeriod `json:"sub_periods,omitempty"`
}

// Bhukthi is the sub-period breakdown of the running dasha.
type Bhukthi struct {
	Description string      `json:"description,omitempty"`
	Periods     []SubPeriod `json:"periods,omitempty"`
}

// DashaResult is the response of the dasha endpoint.
type DashaResult struct {
	Status         string        `json:"status,omitempty"`
	CurrentDasha   *MajorPeriod  `json:"current_dasha,omitempty"`
	NextDasha      *MajorPeriod  `json:"next_dasha,omitempty"`
	CurrentBhukthi *Bhukthi      `json:"current_bhukthi,omitempty"`
	Sequence       []MajorPeriod `json:"dasha_sequence,omitempty"`
	Note           string        `json:"note,omitempty"`
}

// CompatibilityResult is the koota matching score.
type CompatibilityResult struct {
	TotalScore float64 `json:"total_score"`
	Dinam      float64 `json:"dinam"`
	Ganam      float64 `json:"ganam"`
	Yoni       float64 `json:"yoni"`
	Rasi       float64 `json:"rasi"`
	Rajju      float64 `json:"rajju"`
	Vedha      float64 `json:"vedha"`
	Status     string  `json:"status"`
	AIAnalysis string  `json:"ai_analysis,omitempty"`
}

// CompatibilityAnalysis is the response of the AI compatibility analysis endpoint.
type CompatibilityAnalysis struct {
	Score      CompatibilityResult `json:"compatibility_score"`
	AIAnalysis string              `json:"ai_analysis"`
	Provider   string              `json:"provider"`
}

// ChartSummary is the short chart description returned with AI answers.
type ChartSummary struct {
	Lagna    *SignRef `json:"lagna,omitempty"`
	MoonSign *SignRef `json:"moon_sign,omitempty"`
	SunSign  *SignRef `json:"sun_sign,omitempty"`
}

// AskResponse is the AI answer to a question about a chart.
type AskResponse struct {
	Question     string        `json:"question"`
	Answer       string        `json:"answer"`
	Provider     string        `json:"provider"`
	ChartSummary *ChartSummary `json:"chart_summary,omitempty"`
}

// PredictResponse is an AI prediction of a given type.
type PredictResponse struct {
	PredictionType string         `json:"prediction_type"`
	Prediction     string         `json:"prediction"`
	Provider       string         `json:"provider"`
	ChartData      map[string]any `json:"chart_data,omitempty"`
}

// Health is the backend health report.
type Health struct {
	Status           string `json:"status"`
	PyJHoraAvailable bool   `json:"pyjhora_available"`
	QwenEnabled      bool   `json:"qwen_enabled"`
}
