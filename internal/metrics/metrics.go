package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/felixgeelhaar/vedic/internal/api"
	vedicerrors "github.com/felixgeelhaar/vedic/internal/errors"
)

// Metrics holds all Prometheus metrics for vedic
type Metrics struct {
	// Command execution metrics
	CommandExecutions *prometheus.CounterVec
	CommandDuration   *prometheus.HistogramVec
	CommandErrors     *prometheus.CounterVec

	// Backend API metrics
	APIRequests     *prometheus.CounterVec
	APILatency      *prometheus.HistogramVec
	APIErrors       *prometheus.CounterVec
	AuthExpirations prometheus.Counter

	// Store metrics
	ProfileMutations *prometheus.CounterVec
	ChatMessages     *prometheus.CounterVec

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		CommandExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vedic_command_executions_total",
				Help: "Total number of command executions",
			},
			[]string{"command", "success"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vedic_command_duration_seconds",
				Help:    "Command execution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		CommandErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vedic_command_errors_total",
				Help: "Total number of command errors",
			},
			[]string{"command", "error_code"},
		),

		APIRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vedic_api_requests_total",
				Help: "Total number of backend API requests",
			},
			[]string{"endpoint", "method", "status"},
		),
		APILatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vedic_api_latency_seconds",
				Help:    "Backend API request latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"endpoint", "method"},
		),
		APIErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vedic_api_errors_total",
				Help: "Total number of failed backend API requests",
			},
			[]string{"endpoint", "error_type"},
		),
		AuthExpirations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "vedic_auth_expirations_total",
				Help: "Total number of sessions ended by an authentication rejection",
			},
		),

		ProfileMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vedic_profile_mutations_total",
				Help: "Total number of profile save, update and delete operations",
			},
			[]string{"op", "success"},
		),
		ChatMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vedic_chat_messages_total",
				Help: "Total number of chat messages by kind",
			},
			[]string{"kind"},
		),

		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vedic_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code", "component"},
		),
	}
}

// ObserveRequest implements api.Observer.
func (m *Metrics) ObserveRequest(endpoint, method string, status int, duration time.Duration, err error) {
	m.APIRequests.WithLabelValues(endpoint, method, statusLabel(status)).Inc()
	m.APILatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
	if err != nil {
		m.APIErrors.WithLabelValues(endpoint, ErrorType(err)).Inc()
	}
}

// RecordAuthExpired counts a session ended by a 401.
func (m *Metrics) RecordAuthExpired() {
	m.AuthExpirations.Inc()
}

// RecordCommand records one command execution.
func (m *Metrics) RecordCommand(command string, duration time.Duration, err error) {
	m.CommandExecutions.WithLabelValues(command, strconv.FormatBool(err == nil)).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
	if err != nil {
		m.CommandErrors.WithLabelValues(command, errorCode(err)).Inc()
	}
}

// RecordProfileMutation records a profile save, update or delete.
func (m *Metrics) RecordProfileMutation(op string, success bool) {
	m.ProfileMutations.WithLabelValues(op, strconv.FormatBool(success)).Inc()
}

// RecordChatMessage counts a chat log entry.
func (m *Metrics) RecordChatMessage(kind string) {
	m.ChatMessages.WithLabelValues(kind).Inc()
}

// RecordError counts err under its structured code.
func (m *Metrics) RecordError(err error, component string) {
	if err == nil {
		return
	}
	m.Errors.WithLabelValues(errorCode(err), component).Inc()
}

// ErrorType classifies an API error for the error_type label.
func ErrorType(err error) string {
	var apiErr *api.APIError
	switch {
	case errors.Is(err, api.ErrAuthExpired):
		return "auth_expired"
	case errors.Is(err, api.ErrNetwork):
		return "network"
	case errors.Is(err, api.ErrValidation):
		return "validation"
	case errors.As(err, &apiErr):
		return "http_" + strconv.Itoa(apiErr.StatusCode)
	default:
		return "other"
	}
}

func errorCode(err error) string {
	if ve, ok := vedicerrors.As(err); ok {
		return string(ve.Code)
	}
	return "unknown"
}

func statusLabel(status int) string {
	if status == 0 {
		return "none"
	}
	return strconv.Itoa(status)
}
