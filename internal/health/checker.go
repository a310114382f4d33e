// Package health runs the diagnostics behind vedic doctor.
//
// A Checker verifies one thing vedic depends on: the configuration, the
// backend, its OpenAPI contract, the session or the selected profile. The
// Manager runs its checkers in parallel, each under a timeout, and returns
// the results in registration order.
//
//	m := health.NewManager()
//	m.AddChecker(health.NewBackendChecker(client))
//	m.AddChecker(health.CheckFunc("Session", checkSession))
//
//	for _, r := range m.Check(ctx) {
//	    fmt.Println(r.Name, r.Status, r.Message)
//	}
package health

import (
	"context"
	"time"
)

// Checker verifies a single dependency.
type Checker interface {
	// Name labels the check in reports, e.g. "Backend".
	Name() string

	// Check must respect the context deadline.
	Check(ctx context.Context) *Result
}

// Status is the outcome of a check.
type Status string

const (
	// StatusHealthy means the dependency works.
	StatusHealthy Status = "healthy"

	// StatusDegraded means vedic works with reduced functionality, or the
	// user has a step left to take.
	StatusDegraded Status = "degraded"

	// StatusUnhealthy means commands depending on it will fail.
	StatusUnhealthy Status = "unhealthy"
)

func (s Status) String() string {
	return string(s)
}

// Result is the outcome of one check.
type Result struct {
	Name    string         `json:"name" yaml:"name"`
	Status  Status         `json:"status" yaml:"status"`
	Message string         `json:"message" yaml:"message"`
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	Latency time.Duration  `json:"latency_ns" yaml:"latency"`
}

// NewResult creates a result with the given status and message.
func NewResult(status Status, message string) *Result {
	return &Result{
		Status:  status,
		Message: message,
		Details: make(map[string]any),
	}
}

// WithDetail adds a detail and returns r for chaining.
func (r *Result) WithDetail(key string, value any) *Result {
	r.Details[key] = value
	return r
}

// WithLatency sets the latency and returns r for chaining.
func (r *Result) WithLatency(latency time.Duration) *Result {
	r.Latency = latency
	return r
}

// Healthy creates a healthy result.
func Healthy(message string) *Result {
	return NewResult(StatusHealthy, message)
}

// Degraded creates a degraded result.
func Degraded(message string) *Result {
	return NewResult(StatusDegraded, message)
}

// Unhealthy creates an unhealthy result.
func Unhealthy(message string) *Result {
	return NewResult(StatusUnhealthy, message)
}

type funcChecker struct {
	name string
	fn   func(ctx context.Context) *Result
}

func (f funcChecker) Name() string                      { return f.name }
func (f funcChecker) Check(ctx context.Context) *Result { return f.fn(ctx) }

// CheckFunc turns fn into a Checker named name.
func CheckFunc(name string, fn func(ctx context.Context) *Result) Checker {
	return funcChecker{name: name, fn: fn}
}
