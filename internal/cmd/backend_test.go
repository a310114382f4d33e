package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/vedic/internal/api"
)

// fakeBackend serves the routes the client calls from memory.
type fakeBackend struct {
	mu       sync.Mutex
	users    map[string]string // username → password
	emails   map[string]string
	tokens   map[string]string // token → username
	profiles map[string][]api.Profile
	seq      int

	// rejectChart answers the chart route with 401 as if the token expired.
	rejectChart bool
	// openapi is served at /openapi.json when set.
	openapi []byte
	asked   []string
}

var places = map[string]api.LocationResult{
	"chennai": {Success: true, Place: "Chennai, Tamil Nadu, India", Latitude: api.Float(13.0827), Longitude: api.Float(80.2707), Timezone: api.Float(5.5)},
	"madurai": {Success: true, Place: "Madurai, Tamil Nadu, India", Latitude: api.Float(9.9252), Longitude: api.Float(78.1198), Timezone: api.Float(5.5)},
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	b := &fakeBackend{
		users:    map[string]string{},
		emails:   map[string]string{},
		tokens:   map[string]string{},
		profiles: map[string][]api.Profile{},
	}
	srv := httptest.NewServer(b.routes())
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *fakeBackend) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, api.Health{Status: "healthy", PyJHoraAvailable: true, QwenEnabled: true})
	})
	mux.HandleFunc("GET /openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		doc := b.openapi
		b.mu.Unlock()
		if doc == nil {
			http.NotFound(w, nil)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(doc)
	})
	mux.HandleFunc("POST /api/auth/register", b.register)
	mux.HandleFunc("POST /api/auth/login", b.login)
	mux.HandleFunc("GET /api/user/profile", b.authed(func(w http.ResponseWriter, _ *http.Request, user string) {
		b.mu.Lock()
		email := b.emails[user]
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"_id": "u-" + user, "username": user, "email": email})
	}))
	mux.HandleFunc("GET /api/profiles/list", b.authed(func(w http.ResponseWriter, _ *http.Request, user string) {
		b.mu.Lock()
		list := append([]api.Profile{}, b.profiles[user]...)
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, api.ProfileList{Success: true, Profiles: list})
	}))
	mux.HandleFunc("POST /api/profiles/save", b.authed(b.saveProfile))
	mux.HandleFunc("PUT /api/profiles/{id}", b.authed(b.updateProfile))
	mux.HandleFunc("DELETE /api/profiles/{id}", b.authed(b.deleteProfile))
	mux.HandleFunc("POST /api/location/search", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		res, ok := places[strings.ToLower(strings.TrimSpace(req.Query))]
		if !ok {
			res = api.LocationResult{Success: false, Message: "Location not found"}
		}
		writeJSON(w, http.StatusOK, res)
	})
	mux.HandleFunc("POST /api/astrology/birth-chart", b.authed(func(w http.ResponseWriter, _ *http.Request, _ string) {
		b.mu.Lock()
		reject := b.rejectChart
		b.mu.Unlock()
		if reject {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		writeJSON(w, http.StatusOK, sampleChart())
	}))
	mux.HandleFunc("POST /api/astrology/dhasa", b.authed(func(w http.ResponseWriter, _ *http.Request, _ string) {
		writeJSON(w, http.StatusOK, sampleDasha(time.Now()))
	}))
	mux.HandleFunc("POST /api/astrology/horoscope", b.authed(func(w http.ResponseWriter, r *http.Request, _ string) {
		res := api.HoroscopeResult{
			Lagna:       &api.Position{House: 1, SignName: "Aries"},
			SunSign:     &api.SignRef{Position: api.Position{SignName: "Taurus"}},
			MoonSign:    &api.SignRef{Position: api.Position{SignName: "Cancer"}},
			Predictions: map[string]any{"career": "Steady growth", "health": "Rest more"},
		}
		if r.URL.Query().Get("use_qwen") == "true" {
			res.AIPrediction = "A year of learning."
		}
		writeJSON(w, http.StatusOK, res)
	}))
	mux.HandleFunc("POST /api/astrology/transit", b.authed(func(w http.ResponseWriter, _ *http.Request, _ string) {
		writeJSON(w, http.StatusOK, map[string]any{"saturn": "Aquarius", "jupiter": "Gemini"})
	}))
	mux.HandleFunc("POST /api/astrology/doshas", b.authed(func(w http.ResponseWriter, _ *http.Request, _ string) {
		writeJSON(w, http.StatusOK, map[string]any{"manglik": false})
	}))
	mux.HandleFunc("POST /api/astrology/yogas", b.authed(func(w http.ResponseWriter, _ *http.Request, _ string) {
		writeJSON(w, http.StatusOK, map[string]any{"gaja_kesari": true})
	}))
	mux.HandleFunc("POST /api/astrology/compatibility", b.authed(func(w http.ResponseWriter, _ *http.Request, _ string) {
		writeJSON(w, http.StatusOK, api.CompatibilityResult{
			TotalScore: 24.5, Dinam: 3, Ganam: 6, Yoni: 2, Rasi: 7, Rajju: 0, Vedha: 1, Status: "Good Match",
		})
	}))
	mux.HandleFunc("POST /api/astrology/compatibility-analysis", b.authed(func(w http.ResponseWriter, _ *http.Request, _ string) {
		writeJSON(w, http.StatusOK, api.CompatibilityAnalysis{AIAnalysis: "Complementary temperaments.", Provider: "gemini"})
	}))
	mux.HandleFunc("POST /api/astrology/ask", b.authed(func(w http.ResponseWriter, r *http.Request, _ string) {
		var req struct {
			Question string `json:"question"`
			Provider string `json:"llm_provider"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.asked = append(b.asked, req.Question)
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, api.AskResponse{Question: req.Question, Answer: "Teaching suits you.", Provider: req.Provider})
	}))
	mux.HandleFunc("POST /api/astrology/predict", b.authed(func(w http.ResponseWriter, r *http.Request, _ string) {
		var req struct {
			Type     string `json:"prediction_type"`
			Provider string `json:"llm_provider"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, http.StatusOK, api.PredictResponse{PredictionType: req.Type, Prediction: "Promotion ahead.", Provider: req.Provider})
	}))
	return mux
}

func (b *fakeBackend) register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid body"})
		return
	}
	b.mu.Lock()
	_, taken := b.users[req.Username]
	if !taken {
		b.users[req.Username] = req.Password
		b.emails[req.Username] = req.Email
	}
	b.mu.Unlock()
	if taken {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Username already registered"})
		return
	}
	writeJSON(w, http.StatusOK, b.issue(req.Username))
}

func (b *fakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	b.mu.Lock()
	pw, ok := b.users[req.Username]
	b.mu.Unlock()
	if !ok || pw != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect username or password"})
		return
	}
	writeJSON(w, http.StatusOK, b.issue(req.Username))
}

func (b *fakeBackend) issue(user string) api.TokenResponse {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	tok := fmt.Sprintf("tok-%d", b.seq)
	b.tokens[tok] = user
	return api.TokenResponse{AccessToken: tok, TokenType: "bearer"}
}

func (b *fakeBackend) authed(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		b.mu.Lock()
		user, ok := b.tokens[tok]
		b.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		next(w, r, user)
	}
}

func (b *fakeBackend) saveProfile(w http.ResponseWriter, r *http.Request, user string) {
	var req api.SaveProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid body"})
		return
	}
	b.mu.Lock()
	b.seq++
	id := fmt.Sprintf("p%d", b.seq)
	b.profiles[user] = append(b.profiles[user], api.Profile{ID: id, ProfileName: req.ProfileName, BirthDetails: req.BirthDetails})
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, api.StatusResponse{Success: true, Message: "Profile saved", ProfileID: id})
}

func (b *fakeBackend) updateProfile(w http.ResponseWriter, r *http.Request, user string) {
	var req api.SaveProfileRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	id := r.PathValue("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, p := range b.profiles[user] {
		if p.ID == id {
			b.profiles[user][i] = api.Profile{ID: id, ProfileName: req.ProfileName, BirthDetails: req.BirthDetails}
			writeJSON(w, http.StatusOK, api.StatusResponse{Success: true})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Profile not found"})
}

func (b *fakeBackend) deleteProfile(w http.ResponseWriter, r *http.Request, user string) {
	id := r.PathValue("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.profiles[user]
	for i, p := range list {
		if p.ID == id {
			b.profiles[user] = append(list[:i:i], list[i+1:]...)
			writeJSON(w, http.StatusOK, api.StatusResponse{Success: true})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Profile not found"})
}

func (b *fakeBackend) setRejectChart(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejectChart = v
}

func (b *fakeBackend) serveOpenAPI(endpoints []api.Endpoint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.openapi = openAPIDocument(endpoints)
}

func (b *fakeBackend) questions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.asked...)
}

// openAPIDocument describes endpoints the way the backend's generator does.
func openAPIDocument(endpoints []api.Endpoint) []byte {
	paths := map[string]map[string]any{}
	for _, e := range endpoints {
		op := map[string]any{
			"responses": map[string]any{"200": map[string]any{"description": "Successful Response"}},
		}
		if strings.Contains(e.Path, "{id}") {
			op["parameters"] = []any{map[string]any{
				"name": "id", "in": "path", "required": true,
				"schema": map[string]any{"type": "string"},
			}}
		}
		if paths[e.Path] == nil {
			paths[e.Path] = map[string]any{}
		}
		paths[e.Path][strings.ToLower(e.Method)] = op
	}
	data, _ := json.Marshal(map[string]any{
		"openapi": "3.0.2",
		"info":    map[string]any{"title": "Vedic Astrology API", "version": "1.0.0"},
		"paths":   paths,
	})
	return data
}

func sampleChart() api.ChartResult {
	deg := 12.5
	return api.ChartResult{
		Lagna: &api.Position{House: 1, SignName: "Aries", Degrees: &deg},
		D1: map[string]api.Position{
			"Sun":     {House: 2, SignName: "Taurus"},
			"Moon":    {House: 4, SignName: "Cancer"},
			"Jupiter": {House: 4, SignName: "Cancer"},
			"Saturn":  {House: 10, SignName: "Capricorn"},
		},
		Place: "Chennai",
		DOB:   "1990-05-14",
		TOB:   "06:30",
	}
}

// sampleDasha returns a sequence whose Jupiter period, Saturn sub-period,
// runs at now.
func sampleDasha(now time.Time) api.DashaResult {
	day := func(years, months int) string {
		return now.AddDate(years, months, 0).Format("2006-01-02")
	}
	return api.DashaResult{
		Sequence: []api.MajorPeriod{
			{Lord: "Rahu", DurationYears: 18, StartDate: day(-20, 0), EndDate: day(-2, 0)},
			{
				Lord: "Jupiter", DurationYears: 16, StartDate: day(-2, 0), EndDate: day(14, 0),
				SubPeriods: []api.SubPeriod{
					{Lord: "Jupiter", DurationMonths: 12, StartDate: day(-2, 0), EndDate: day(-1, 0)},
					{Lord: "Saturn", DurationMonths: 24, StartDate: day(-1, 0), EndDate: day(1, 0)},
					{Lord: "Mercury", DurationMonths: 30, StartDate: day(1, 0), EndDate: day(3, 6)},
				},
			},
			{Lord: "Saturn", DurationYears: 19, StartDate: day(14, 0), EndDate: day(33, 0)},
		},
		Note: "Dates are approximate",
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
