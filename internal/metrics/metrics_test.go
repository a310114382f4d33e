package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/felixgeelhaar/vedic/internal/api"
	vedicerrors "github.com/felixgeelhaar/vedic/internal/errors"
)

func TestObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveRequest("/api/profiles/list", "GET", 200, 120*time.Millisecond, nil)
	m.ObserveRequest("/api/profiles/list", "GET", 200, 80*time.Millisecond, nil)
	m.ObserveRequest("/api/profiles/{id}", "DELETE", 401, time.Millisecond, &api.APIError{StatusCode: 401})
	m.ObserveRequest("/api/astrology/ask", "POST", 0, time.Second, &api.NetworkError{Op: "POST", Err: errors.New("timeout")})

	if got := testutil.ToFloat64(m.APIRequests.WithLabelValues("/api/profiles/list", "GET", "200")); got != 2 {
		t.Errorf("list requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.APIRequests.WithLabelValues("/api/astrology/ask", "POST", "none")); got != 1 {
		t.Errorf("requests without a response = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.APIErrors.WithLabelValues("/api/profiles/{id}", "auth_expired")); got != 1 {
		t.Errorf("auth errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.APIErrors.WithLabelValues("/api/astrology/ask", "network")); got != 1 {
		t.Errorf("network errors = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.APILatency); got != 3 {
		t.Errorf("latency series = %d, want 3", got)
	}
}

func TestObserverInterface(t *testing.T) {
	var _ api.Observer = NewMetrics(prometheus.NewRegistry())
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&api.APIError{StatusCode: 401}, "auth_expired"},
		{&api.APIError{StatusCode: 422}, "http_422"},
		{&api.NetworkError{Op: "GET", Err: errors.New("refused")}, "network"},
		{&api.ValidationError{Fields: []string{"dob"}}, "validation"},
		{errors.New("decode"), "other"},
	}
	for _, tt := range tests {
		if got := ErrorType(tt.err); got != tt.want {
			t.Errorf("ErrorType(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestRecordCommand(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordCommand("chart", time.Second, nil)
	m.RecordCommand("chart", time.Second, vedicerrors.NewProfileNotSelectedError())
	m.RecordCommand("chart", time.Second, errors.New("plain"))

	if got := testutil.ToFloat64(m.CommandExecutions.WithLabelValues("chart", "true")); got != 1 {
		t.Errorf("successful runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CommandExecutions.WithLabelValues("chart", "false")); got != 2 {
		t.Errorf("failed runs = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CommandErrors.WithLabelValues("chart", string(vedicerrors.ErrCodeProfileNotSelected))); got != 1 {
		t.Errorf("coded errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CommandErrors.WithLabelValues("chart", "unknown")); got != 1 {
		t.Errorf("uncoded errors = %v, want 1", got)
	}
}

func TestRecordHelpers(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordAuthExpired()
	m.RecordProfileMutation("save", true)
	m.RecordProfileMutation("delete", false)
	m.RecordChatMessage("ai")
	m.RecordChatMessage("ai")
	m.RecordError(nil, "session")
	m.RecordError(vedicerrors.NewAuthRequiredError(), "session")

	if got := testutil.ToFloat64(m.AuthExpirations); got != 1 {
		t.Errorf("auth expirations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ProfileMutations.WithLabelValues("delete", "false")); got != 1 {
		t.Errorf("failed deletes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ChatMessages.WithLabelValues("ai")); got != 2 {
		t.Errorf("ai messages = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(m.Errors); got != 1 {
		t.Errorf("error series = %d, want 1", got)
	}
}

func TestMetricsExposition(t *testing.T) {
	reg, m := NewRegistry()
	m.ObserveRequest("/api/user/profile", "GET", 200, 10*time.Millisecond, nil)

	rec := httptest.NewRecorder()
	HandlerFor(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`vedic_api_requests_total{endpoint="/api/user/profile",method="GET",status="200"} 1`,
		"vedic_api_latency_seconds_bucket",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func BenchmarkObserveRequest(b *testing.B) {
	m := NewMetrics(prometheus.NewRegistry())

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		m.ObserveRequest("/api/astrology/birth-chart", "POST", 200, 50*time.Millisecond, nil)
	}
}
