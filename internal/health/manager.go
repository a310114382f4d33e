package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// Manager coordinates health checks and aggregates results.
type Manager struct {
	checkers []Checker
	timeout  time.Duration
	mu       sync.RWMutex
}

// NewManager creates a manager with a 5-second timeout per check.
func NewManager() *Manager {
	return &Manager{
		checkers: make([]Checker, 0),
		timeout:  5 * time.Second,
	}
}

// WithTimeout sets the per-check timeout.
func (m *Manager) WithTimeout(timeout time.Duration) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return m
}

// AddChecker registers a checker. Results are reported in registration order.
func (m *Manager) AddChecker(checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, checker)
}

// Check runs all checkers in parallel, each under the timeout. A checker
// that panics is reported unhealthy.
func (m *Manager) Check(ctx context.Context) []*Result {
	m.mu.RLock()
	checkers := make([]Checker, len(m.checkers))
	copy(checkers, m.checkers)
	timeout := m.timeout
	m.mu.RUnlock()

	results := make([]*Result, len(checkers))
	var wg conc.WaitGroup
	for i, c := range checkers {
		wg.Go(func() {
			results[i] = run(ctx, c, timeout)
		})
	}
	wg.Wait()
	return results
}

func run(ctx context.Context, c Checker, timeout time.Duration) *Result {
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var res *Result
	var pc panics.Catcher
	pc.Try(func() { res = c.Check(checkCtx) })
	if r := pc.Recovered(); r != nil {
		res = Unhealthy(fmt.Sprintf("check failed: %v", r.Value))
	}
	if res == nil {
		res = Unhealthy("check returned no result")
	}
	if res.Latency == 0 {
		res.Latency = time.Since(start)
	}
	res.Name = c.Name()
	return res
}

// OverallStatus is unhealthy if any result is, else degraded if any result
// is, else healthy.
func OverallStatus(results []*Result) Status {
	hasDegraded := false
	for _, result := range results {
		if result.Status == StatusUnhealthy {
			return StatusUnhealthy
		}
		if result.Status == StatusDegraded {
			hasDegraded = true
		}
	}

	if hasDegraded {
		return StatusDegraded
	}

	return StatusHealthy
}

// CheckNames returns the names of all registered checkers.
func (m *Manager) CheckNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.checkers))
	for i, checker := range m.checkers {
		names[i] = checker.Name()
	}
	return names
}

// Count returns the number of registered checkers.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.checkers)
}
