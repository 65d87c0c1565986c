// Package health serves liveness and readiness probes for the arena
// driver. Readiness aggregates named checks; the simulation check fails
// when the tick loop stalls or bodies hold non-finite state.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

// HealthCheck is one named probe
type HealthCheck interface {
	Name() string
	// Check returns nil when the component is healthy
	Check(ctx context.Context) error
}

// HealthStatus represents the overall health status of the application.
type HealthStatus struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents the health status of an individual component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// HealthChecker manages and executes health checks for the application.
type HealthChecker struct {
	checks  map[string]HealthCheck
	timeout time.Duration
	mu      sync.RWMutex
}

// NewHealthChecker creates a checker whose readiness probe gives all
// checks five seconds
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks:  make(map[string]HealthCheck),
		timeout: 5 * time.Second,
	}
}

// AddCheck registers a check, replacing any check of the same name
func (hc *HealthChecker) AddCheck(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[check.Name()] = check
}

// RemoveCheck removes a health check by name.
func (hc *HealthChecker) RemoveCheck(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	delete(hc.checks, name)
}

// Names returns the registered check names in sorted order
func (hc *HealthChecker) Names() []string {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckHealth runs every check. The result is healthy only if all pass.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	status := HealthStatus{
		Status: statusHealthy,
		Checks: make(map[string]ComponentHealth, len(hc.checks)),
	}
	for name, check := range hc.checks {
		if err := check.Check(ctx); err != nil {
			status.Status = statusUnhealthy
			status.Checks[name] = ComponentHealth{Status: statusUnhealthy, Message: err.Error()}
			continue
		}
		status.Checks[name] = ComponentHealth{Status: statusHealthy}
	}
	return status
}

// LivenessHandler answers 200 while the process can serve HTTP at all
func (hc *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessHandler answers 200 when every check passes and 503 otherwise
func (hc *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), hc.timeout)
	defer cancel()

	health := hc.CheckHealth(ctx)
	code := http.StatusOK
	if health.Status != statusHealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, health)
}

// Handler routes /health to liveness and /ready to readiness
func (hc *HealthChecker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", hc.LivenessHandler)
	mux.HandleFunc("/ready", hc.ReadinessHandler)
	return mux
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// Progress is written by the tick loop and read by SimulationHealthCheck.
// It is safe for concurrent use.
type Progress struct {
	mu        sync.Mutex
	tick      uint64
	alive     int
	nonFinite int
	at        time.Time
}

// Observe records the state after a tick
func (p *Progress) Observe(tick uint64, alive, nonFinite int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tick, p.alive, p.nonFinite = tick, alive, nonFinite
	p.at = time.Now()
}

// Last returns the most recent observation; at is zero before the first
func (p *Progress) Last() (tick uint64, alive, nonFinite int, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tick, p.alive, p.nonFinite, p.at
}

// SimulationHealthCheck fails before the first tick, when no tick was
// observed within the stall window, or when any body went non-finite
type SimulationHealthCheck struct {
	progress *Progress
	stall    time.Duration
	now      func() time.Time
}

// NewSimulationHealthCheck watches progress. A zero stall disables the
// stall test.
func NewSimulationHealthCheck(progress *Progress, stall time.Duration) *SimulationHealthCheck {
	return &SimulationHealthCheck{progress: progress, stall: stall, now: time.Now}
}

// Name returns the name of this health check.
func (s *SimulationHealthCheck) Name() string {
	return "simulation"
}

// Check inspects the last observation
func (s *SimulationHealthCheck) Check(ctx context.Context) error {
	tick, _, nonFinite, at := s.progress.Last()
	if at.IsZero() {
		return fmt.Errorf("simulation has not ticked yet")
	}
	if nonFinite > 0 {
		return fmt.Errorf("%d bodies hold non-finite state at tick %d", nonFinite, tick)
	}
	if s.stall > 0 {
		if idle := s.now().Sub(at); idle > s.stall {
			return fmt.Errorf("no tick for %s (last tick %d)", idle.Round(time.Millisecond), tick)
		}
	}
	return nil
}

// StreamHealthCheck verifies the snapshot stream listener is up
type StreamHealthCheck struct {
	listenerAddr func() string
}

// NewStreamHealthCheck creates a check over the listener's address
// getter, which returns "" while not listening
func NewStreamHealthCheck(listenerAddr func() string) *StreamHealthCheck {
	return &StreamHealthCheck{listenerAddr: listenerAddr}
}

// Name returns the name of this health check.
func (n *StreamHealthCheck) Name() string {
	return "stream"
}

// Check fails while the listener is not active
func (n *StreamHealthCheck) Check(ctx context.Context) error {
	if n.listenerAddr() == "" {
		return fmt.Errorf("stream listener is not active")
	}
	return nil
}
