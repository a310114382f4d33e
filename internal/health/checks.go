package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/felixgeelhaar/vedic/internal/api"
	"github.com/felixgeelhaar/vedic/internal/contract"
)

// Backend is the part of the API client the backend checks use.
type Backend interface {
	Health(ctx context.Context) (*api.Health, error)
	BaseURL() string
}

// BackendChecker reads the backend's health report. A backend without its
// calculation engine or its AI model is degraded.
type BackendChecker struct {
	backend Backend
}

// NewBackendChecker creates a BackendChecker.
func NewBackendChecker(backend Backend) *BackendChecker {
	return &BackendChecker{backend: backend}
}

// Name implements Checker.
func (c *BackendChecker) Name() string { return "Backend" }

// Check implements Checker.
func (c *BackendChecker) Check(ctx context.Context) *Result {
	url := c.backend.BaseURL()
	h, err := c.backend.Health(ctx)
	if err != nil {
		return Unhealthy(fmt.Sprintf("%s: %s", url, api.Message(err, "unreachable"))).
			WithDetail("url", url)
	}

	res := Healthy(fmt.Sprintf("%s is %s", url, h.Status)).
		WithDetail("url", url).
		WithDetail("status", h.Status).
		WithDetail("pyjhora_available", h.PyJHoraAvailable).
		WithDetail("qwen_enabled", h.QwenEnabled)
	switch {
	case !h.PyJHoraAvailable:
		res.Status = StatusDegraded
		res.Message += ", chart calculations unavailable"
	case !h.QwenEnabled:
		res.Status = StatusDegraded
		res.Message += ", AI astrologer unavailable"
	}
	return res
}

// ContractChecker compares the backend's OpenAPI document with the routes
// the client calls. A backend that serves no document is degraded; one
// missing routes is unhealthy.
type ContractChecker struct {
	client    *http.Client
	baseURL   string
	endpoints []api.Endpoint

	mu     sync.Mutex
	report *contract.Report
}

// NewContractChecker creates a ContractChecker. A nil client uses
// http.DefaultClient.
func NewContractChecker(client *http.Client, baseURL string, endpoints []api.Endpoint) *ContractChecker {
	return &ContractChecker{client: client, baseURL: baseURL, endpoints: endpoints}
}

// Name implements Checker.
func (c *ContractChecker) Name() string { return "API" }

// Check implements Checker.
func (c *ContractChecker) Check(ctx context.Context) *Result {
	checker, err := contract.Fetch(ctx, c.client, c.baseURL)
	if err != nil {
		return Degraded("no OpenAPI document to compare with: " + err.Error())
	}
	report := checker.Check(c.endpoints)
	c.mu.Lock()
	c.report = report
	c.mu.Unlock()

	if report.OK() {
		return Healthy(fmt.Sprintf("all %d routes present in %s %s", report.Checked, report.Title, report.Version))
	}
	missing := make([]string, len(report.Findings))
	for i, f := range report.Findings {
		missing[i] = f.Endpoint
	}
	return Unhealthy(fmt.Sprintf("%d of %d routes missing from the backend", len(report.Findings), report.Checked)).
		WithDetail("missing", missing)
}

// Report returns the report of the last successful fetch, or nil.
func (c *ContractChecker) Report() *contract.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report
}
