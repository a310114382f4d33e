package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureServer records the last request body and path and replies with reply.
func captureServer(t *testing.T, reply any) (*Client, *map[string]any, *string) {
	t.Helper()
	body := map[string]any{}
	path := ""
	server := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.Method + " " + r.URL.RequestURI()
		data, _ := io.ReadAll(r.Body)
		body = map[string]any{}
		if len(data) > 0 {
			_ = json.Unmarshal(data, &body)
		}
		writeJSON(w, http.StatusOK, reply)
	}))
	return NewClient(Config{BaseURL: server.URL}), &body, &path
}

func TestValidationBlocksRequest(t *testing.T) {
	var hits int32
	server := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, http.StatusOK, map[string]any{})
	}))
	c := NewClient(Config{BaseURL: server.URL})

	tests := []struct {
		name   string
		mutate func(*BirthDetails)
		field  string
	}{
		{"missing latitude", func(d *BirthDetails) { d.Latitude = nil }, "latitude"},
		{"missing timezone", func(d *BirthDetails) { d.Timezone = nil }, "timezone"},
		{"bad date", func(d *BirthDetails) { d.DOB = "17/05/1990" }, "dob"},
		{"bad time", func(d *BirthDetails) { d.TOB = "6.30am" }, "tob"},
		{"empty place", func(d *BirthDetails) { d.Place = "" }, "place"},
		{"latitude out of range", func(d *BirthDetails) { d.Latitude = Float(91) }, "latitude"},
		{"longitude out of range", func(d *BirthDetails) { d.Longitude = Float(-181) }, "longitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := sampleDetails()
			tt.mutate(&d)

			_, err := c.BirthChart(context.Background(), d)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var valErr *ValidationError
			require.True(t, errors.As(err, &valErr))
			assert.Contains(t, valErr.Fields, tt.field)
		})
	}

	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestValidateBirthDetails_AcceptsTimestampDOB(t *testing.T) {
	c := NewClient(Config{})
	d := sampleDetails()
	d.DOB = "1990-05-17T00:00:00"
	d.TOB = "06:30:00"

	assert.NoError(t, c.ValidateBirthDetails(d))
	assert.Equal(t, "1990-05-17", d.Date())
}

func TestBirthDetails_DisplayName(t *testing.T) {
	assert.Equal(t, "Anonymous", BirthDetails{}.DisplayName())
	assert.Equal(t, "Anonymous", BirthDetails{Name: "  "}.DisplayName())
	assert.Equal(t, "Ravi", BirthDetails{Name: "Ravi"}.DisplayName())
}

func TestBirthChart_DecodesPositions(t *testing.T) {
	c, body, path := captureServer(t, map[string]any{
		"lagna": map[string]any{"house": 1, "sign_name": "Leo", "degrees": 12.5},
		"d1_chart": map[string]any{
			"Sun":  map[string]any{"house": 10, "sign_name": "Taurus", "degrees": 2.25},
			"Moon": map[string]any{"house": 4, "sign_name": "Scorpio"},
		},
	})

	res, err := c.BirthChart(context.Background(), sampleDetails())
	require.NoError(t, err)

	assert.Equal(t, "POST /api/astrology/birth-chart", *path)
	assert.Equal(t, "1990-05-17", (*body)["dob"])
	assert.Equal(t, 5.5, (*body)["timezone"])
	require.NotNil(t, res.Lagna)
	assert.Equal(t, "Leo", res.Lagna.SignName)
	assert.Equal(t, 10, res.D1["Sun"].House)
	assert.Nil(t, res.D1["Moon"].Degrees)
}

func TestDhasa_SendsSystem(t *testing.T) {
	c, body, _ := captureServer(t, map[string]any{
		"current_dasha": map[string]any{"lord": "Venus", "duration_years": 20},
		"dasha_sequence": []map[string]any{
			{"lord": "Venus", "duration_years": 20, "start_date": "2010-01-01", "end_date": "2030-01-01"},
		},
	})

	res, err := c.Dhasa(context.Background(), sampleDetails(), "")
	require.NoError(t, err)
	assert.Equal(t, "vimsottari", (*body)["dhasa_type"])
	assert.Equal(t, "Chennai, India", (*body)["place"])
	require.NotNil(t, res.CurrentDasha)
	assert.Equal(t, "Venus", res.CurrentDasha.Lord)
	require.Len(t, res.Sequence, 1)

	_, err = c.Dhasa(context.Background(), sampleDetails(), Yogini)
	require.NoError(t, err)
	assert.Equal(t, "yogini", (*body)["dhasa_type"])
}

func TestParseDashaSystem(t *testing.T) {
	ds, err := ParseDashaSystem("")
	require.NoError(t, err)
	assert.Equal(t, Vimsottari, ds)

	ds, err = ParseDashaSystem("shodasottari")
	require.NoError(t, err)
	assert.Equal(t, Shodasottari, ds)

	_, err = ParseDashaSystem("kalachakra")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestParseLLMProvider(t *testing.T) {
	p, err := ParseLLMProvider("")
	require.NoError(t, err)
	assert.Equal(t, ProviderQwen, p)

	p, err = ParseLLMProvider("gemini")
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, p)

	_, err = ParseLLMProvider("claude")
	assert.Error(t, err)
}

func TestCompatibility_FlattensBothCharts(t *testing.T) {
	c, body, path := captureServer(t, map[string]any{
		"total_score": 24, "dinam": 6, "ganam": 6, "yoni": 4, "rasi": 5, "rajju": 3, "vedha": 0,
		"status": "Good",
	})

	female := sampleDetails()
	female.DOB = "1992-11-02"
	female.Place = "Madurai, India"

	res, err := c.Compatibility(context.Background(), sampleDetails(), female, false)
	require.NoError(t, err)

	assert.Equal(t, "POST /api/astrology/compatibility", *path)
	assert.Equal(t, "1990-05-17", (*body)["male_dob"])
	assert.Equal(t, "1992-11-02", (*body)["female_dob"])
	assert.Equal(t, "Madurai, India", (*body)["female_place"])
	assert.Equal(t, false, (*body)["use_qwen"])
	assert.Equal(t, 24.0, res.TotalScore)
	assert.Equal(t, "Good", res.Status)
}

func TestCompatibility_ValidatesSecondChart(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	female := sampleDetails()
	female.Latitude = nil

	_, err := c.Compatibility(context.Background(), sampleDetails(), female, false)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestHoroscope_UseQwenQuery(t *testing.T) {
	c, _, path := captureServer(t, map[string]any{
		"sun_sign":  "Taurus",
		"moon_sign": map[string]any{"sign_name": "Scorpio", "house": 4},
	})

	res, err := c.Horoscope(context.Background(), sampleDetails(), true)
	require.NoError(t, err)
	assert.Equal(t, "POST /api/astrology/horoscope?use_qwen=true", *path)
	assert.Equal(t, "Taurus", res.SunSign.SignName)
	assert.Equal(t, "Scorpio", res.MoonSign.SignName)
	assert.Equal(t, 4, res.MoonSign.House)
}

func TestAsk_DefaultsProvider(t *testing.T) {
	c, body, _ := captureServer(t, map[string]any{
		"question": "When will I travel?", "answer": "Soon.", "provider": "qwen",
	})

	res, err := c.Ask(context.Background(), sampleDetails(), "When will I travel?", "")
	require.NoError(t, err)
	assert.Equal(t, "qwen", (*body)["llm_provider"])
	assert.Equal(t, "When will I travel?", (*body)["question"])
	details, ok := (*body)["birth_details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "06:30", details["tob"])
	assert.Equal(t, "Soon.", res.Answer)
}

func TestPredict_DefaultsType(t *testing.T) {
	c, body, _ := captureServer(t, map[string]any{"prediction_type": "general", "prediction": "Good year."})

	res, err := c.Predict(context.Background(), sampleDetails(), "", ProviderChatGPT)
	require.NoError(t, err)
	assert.Equal(t, "general", (*body)["prediction_type"])
	assert.Equal(t, "chatgpt", (*body)["llm_provider"])
	assert.Equal(t, "Good year.", res.Prediction)
}

func TestTransit_NullDate(t *testing.T) {
	c, body, _ := captureServer(t, map[string]any{"transits": map[string]any{}})

	_, err := c.Transit(context.Background(), sampleDetails(), nil)
	require.NoError(t, err)
	v, present := (*body)["current_date"]
	assert.True(t, present)
	assert.Nil(t, v)

	date := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	_, err = c.Transit(context.Background(), sampleDetails(), &date)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-16", (*body)["current_date"])
}

func TestSearchLocation(t *testing.T) {
	t.Run("empty query is refused", func(t *testing.T) {
		c := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
		_, err := c.SearchLocation(context.Background(), "   ")
		require.Error(t, err)
		assert.Equal(t, "Please enter a location", Message(err, ""))
	})

	t.Run("found", func(t *testing.T) {
		c, body, _ := captureServer(t, map[string]any{
			"success": true, "place": "Chennai, Tamil Nadu, India",
			"latitude": 13.0827, "longitude": 80.2707, "timezone": 5.5,
		})
		res, err := c.SearchLocation(context.Background(), " Chennai ")
		require.NoError(t, err)
		assert.Equal(t, "Chennai", (*body)["query"])
		assert.True(t, res.Success)
		require.NotNil(t, res.Timezone)
		assert.Equal(t, 5.5, *res.Timezone)
		assert.True(t, res.Located())
	})

	t.Run("not found", func(t *testing.T) {
		c, _, _ := captureServer(t, map[string]any{"success": false})
		res, err := c.SearchLocation(context.Background(), "Atlantis")
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "Location not found", res.Message)
	})
}

func TestProfiles_Endpoints(t *testing.T) {
	c, body, path := captureServer(t, map[string]any{"success": true, "profile_id": "p1"})

	res, err := c.SaveProfile(context.Background(), "Me", sampleDetails())
	require.NoError(t, err)
	assert.Equal(t, "POST /api/profiles/save", *path)
	assert.Equal(t, "Me", (*body)["profile_name"])
	assert.Equal(t, "p1", res.ProfileID)

	_, err = c.UpdateProfile(context.Background(), "a/b", "Me too", sampleDetails())
	require.NoError(t, err)
	assert.Equal(t, "PUT /api/profiles/a%2Fb", *path)

	_, err = c.DeleteProfile(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "DELETE /api/profiles/p1", *path)
}

func TestListProfiles_DecodesIDs(t *testing.T) {
	c, _, _ := captureServer(t, map[string]any{
		"success": true,
		"profiles": []map[string]any{
			{"_id": "p1", "profile_name": "Me", "birth_details": map[string]any{"dob": "1990-05-17T00:00:00", "tob": "06:30"}},
		},
	})

	list, err := c.ListProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, list.Profiles, 1)
	assert.Equal(t, "p1", list.Profiles[0].ID)
	assert.Equal(t, "1990-05-17", list.Profiles[0].BirthDetails.Date())
}

func TestGetUser_KeepsOpaqueFields(t *testing.T) {
	c, _, _ := captureServer(t, map[string]any{"username": "asha", "email": "a@example.com", "plan": "free"})

	user, err := c.GetUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "asha", user.Username)
	assert.Equal(t, "free", user.Fields["plan"])
}
