package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/turtacn/SynthonScope/pkg/types/common"
)

// HealthChecker reports the health of one dependency.  The redis client and
// the postgres connection implement it.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// HealthObserver receives every component result, typically to export it as
// a gauge.
type HealthObserver func(component string, up bool)

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checkers []HealthChecker
	version  string
	startAt  time.Time
	observe  HealthObserver
	timeout  time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(version string, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{
		checkers: checkers,
		version:  version,
		startAt:  time.Now(),
		timeout:  5 * time.Second,
	}
}

// WithObserver sets the callback run after each readiness check.
func (h *HealthHandler) WithObserver(fn HealthObserver) *HealthHandler {
	h.observe = fn
	return h
}

// LivenessResponse is the response for liveness probe.
type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the response for readiness probe.
type ReadinessResponse struct {
	Status     common.HealthStatus      `json:"status"`
	Version    string                   `json:"version"`
	Components []common.ComponentHealth `json:"components"`
}

// Liveness handles GET /healthz.  It never touches a dependency.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// Readiness handles GET /readyz.  Any unhealthy component yields 503.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	components := h.checkAll(ctx)
	resp := ReadinessResponse{
		Status:     common.HealthUp,
		Version:    h.version,
		Components: components,
	}
	code := http.StatusOK
	for _, c := range components {
		if c.Status != common.HealthUp {
			resp.Status = common.HealthDown
			code = http.StatusServiceUnavailable
			break
		}
	}
	writeJSON(w, code, resp)
}

// checkAll runs all health checkers concurrently.  Results keep checker
// order.
func (h *HealthHandler) checkAll(ctx context.Context) []common.ComponentHealth {
	results := make([]common.ComponentHealth, len(h.checkers))
	var wg sync.WaitGroup

	for i, checker := range h.checkers {
		wg.Add(1)
		go func(i int, c HealthChecker) {
			defer wg.Done()

			start := time.Now()
			err := c.Check(ctx)
			ch := common.ComponentHealth{
				Name:    c.Name(),
				Status:  common.HealthUp,
				Latency: time.Since(start),
			}
			if err != nil {
				ch.Status = common.HealthDown
				ch.Message = err.Error()
			}
			results[i] = ch
		}(i, checker)
	}
	wg.Wait()

	if h.observe != nil {
		for _, c := range results {
			h.observe(c.Name, c.Status == common.HealthUp)
		}
	}
	return results
}

//Personal.AI order the ending
