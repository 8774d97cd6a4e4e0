// Package health exposes liveness and readiness probes for a running
// simulation, plus a JSON snapshot endpoint.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"
)

// Check is one named probe. Check returns nil when the component is healthy.
type Check interface {
	Name() string
	Check(ctx context.Context) error
}

// Status is the aggregated result of every registered check
type Status struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentStatus `json:"checks"`
}

// ComponentStatus is the result of a single check
type ComponentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Checker holds the registered checks
type Checker struct {
	checks map[string]Check
	mu     sync.RWMutex
}

// NewChecker creates an empty checker
func NewChecker() *Checker {
	return &Checker{
		checks: make(map[string]Check),
	}
}

// AddCheck registers check, replacing any check with the same name
func (c *Checker) AddCheck(check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[check.Name()] = check
}

// RemoveCheck removes a check by name
func (c *Checker) RemoveCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// Names returns the registered check names in sorted order
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckHealth runs every check. The overall status is healthy only if all
// checks pass.
func (c *Checker) CheckHealth(ctx context.Context) Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := Status{
		Status: StatusHealthy,
		Checks: make(map[string]ComponentStatus, len(c.checks)),
	}
	for name, check := range c.checks {
		if err := check.Check(ctx); err != nil {
			status.Status = StatusUnhealthy
			status.Checks[name] = ComponentStatus{Status: StatusUnhealthy, Message: err.Error()}
			continue
		}
		status.Checks[name] = ComponentStatus{Status: StatusHealthy}
	}
	return status
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// LivenessHandler always answers 200 while the process can serve requests
func (c *Checker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessHandler runs every check with a five second budget and answers
// 503 if any of them fails
func (c *Checker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := c.CheckHealth(ctx)
	code := http.StatusOK
	if status.Status != StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// StateHandler serves whatever snapshot returns as JSON
func StateHandler(snapshot func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, snapshot())
	}
}

// NewServeMux mounts /health, /ready and, when snapshot is non-nil, /state
func (c *Checker) NewServeMux(snapshot func() any) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", c.LivenessHandler)
	mux.HandleFunc("/ready", c.ReadinessHandler)
	if snapshot != nil {
		mux.HandleFunc("/state", StateHandler(snapshot))
	}
	return mux
}

// SimulationCheck fails while the simulation loop is not running
type SimulationCheck struct {
	running func() bool
}

func NewSimulationCheck(running func() bool) *SimulationCheck {
	return &SimulationCheck{running: running}
}

func (s *SimulationCheck) Name() string { return "simulation" }

func (s *SimulationCheck) Check(ctx context.Context) error {
	if !s.running() {
		return fmt.Errorf("simulation is not running")
	}
	return nil
}

// TickProgressCheck fails when the tick counter has not moved for longer
// than maxStall. A stalled loop usually means a tick hook or event handler
// is blocking.
type TickProgressCheck struct {
	tick     func() uint64
	maxStall time.Duration
	now      func() time.Time

	mu       sync.Mutex
	last     uint64
	lastSeen time.Time
}

func NewTickProgressCheck(tick func() uint64, maxStall time.Duration) *TickProgressCheck {
	return &TickProgressCheck{
		tick:     tick,
		maxStall: maxStall,
		now:      time.Now,
	}
}

func (p *TickProgressCheck) Name() string { return "tick_progress" }

func (p *TickProgressCheck) Check(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	current := p.tick()
	if p.lastSeen.IsZero() || current != p.last {
		p.last = current
		p.lastSeen = now
		return nil
	}
	if stalled := now.Sub(p.lastSeen); stalled > p.maxStall {
		return fmt.Errorf("tick %d has not advanced for %s", current, stalled.Round(time.Millisecond))
	}
	return nil
}

// MemoryCheck fails when heap allocation exceeds maxMB
type MemoryCheck struct {
	maxMB int64
	usage func() int64
}

// NewMemoryCheck reads runtime.MemStats when usage is nil
func NewMemoryCheck(maxMB int64, usage func() int64) *MemoryCheck {
	if usage == nil {
		usage = func() int64 {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			return int64(m.Alloc / 1024 / 1024)
		}
	}
	return &MemoryCheck{maxMB: maxMB, usage: usage}
}

func (m *MemoryCheck) Name() string { return "memory" }

func (m *MemoryCheck) Check(ctx context.Context) error {
	if current := m.usage(); current > m.maxMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", current, m.maxMB)
	}
	return nil
}
