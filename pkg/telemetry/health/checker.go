package health

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// Overall and per-check statuses.
const (
	StatusOK        = "ok"
	StatusReady     = "ready"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc performs a health check for a component. It returns nil if the
// component is healthy.
type CheckFunc func(ctx context.Context) error

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Status     string  `json:"status"`
	Message    string  `json:"message,omitempty"`
	Critical   bool    `json:"critical"`
	DurationMS float64 `json:"duration_ms"`
}

// HealthStatus represents the overall health status of the process.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Ready reports whether the status allows serving traffic. A failing
// optional check degrades the process but keeps it ready.
func (s HealthStatus) Ready() bool {
	return s.Status == StatusReady || s.Status == StatusDegraded
}

type registeredCheck struct {
	fn       CheckFunc
	critical bool
}

// Checker manages readiness checks for components.
type Checker struct {
	mu           sync.RWMutex
	checks       map[string]registeredCheck
	checkTimeout time.Duration
}

// ErrCheckTimeout is reported when a check does not finish in time.
var ErrCheckTimeout = errors.New("health check timeout")

// New creates a checker. A zero timeout defaults to 5 seconds per check.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout == 0 {
		checkTimeout = 5 * time.Second
	}
	return &Checker{
		checks:       make(map[string]registeredCheck),
		checkTimeout: checkTimeout,
	}
}

// RegisterCheck registers a critical check: when it fails the process is
// unhealthy. A check with the same name is replaced.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.register(name, check, true)
}

// RegisterOptionalCheck registers a check whose failure only degrades.
func (c *Checker) RegisterOptionalCheck(name string, check CheckFunc) {
	c.register(name, check, false)
}

func (c *Checker) register(name string, check CheckFunc, critical bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = registeredCheck{fn: check, critical: critical}
}

// UnregisterCheck removes a named check.
func (c *Checker) UnregisterCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// CheckLiveness reports that the process is running.
func (c *Checker) CheckLiveness(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now(),
	}
}

// CheckReadiness runs every registered check concurrently and aggregates
// them: any critical failure is unhealthy, any optional failure is degraded.
func (c *Checker) CheckReadiness(ctx context.Context) HealthStatus {
	c.mu.RLock()
	checks := make(map[string]registeredCheck, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	var resultMu sync.Mutex
	var wg sync.WaitGroup

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check registeredCheck) {
			defer wg.Done()

			result := c.runCheck(ctx, check.fn)
			result.Critical = check.critical

			resultMu.Lock()
			results[name] = result
			resultMu.Unlock()
		}(name, check)
	}
	wg.Wait()

	status := StatusReady
	for _, result := range results {
		if result.Status != StatusUnhealthy {
			continue
		}
		if result.Critical {
			status = StatusUnhealthy
			break
		}
		status = StatusDegraded
	}

	return HealthStatus{
		Status:    status,
		Checks:    results,
		Timestamp: time.Now(),
	}
}

// runCheck executes a single check with the configured timeout.
func (c *Checker) runCheck(ctx context.Context, check CheckFunc) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()
	errChan := make(chan error, 1)
	go func() {
		errChan <- check(checkCtx)
	}()

	var err error
	select {
	case err = <-errChan:
	case <-checkCtx.Done():
		err = ErrCheckTimeout
	}

	result := CheckResult{
		Status:     StatusOK,
		DurationMS: float64(time.Since(start).Microseconds()) / 1000,
	}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = err.Error()
	}
	return result
}

// ListChecks returns the sorted names of all registered checks.
func (c *Checker) ListChecks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
