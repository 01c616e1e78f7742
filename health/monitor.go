package health

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"
)

// Check reports the current status of one component
type Check func() Status

// MonitorOption configures a Monitor
type MonitorOption func(*Monitor)

// WithLogger logs every change of a component's state
func WithLogger(logger *slog.Logger) MonitorOption {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Monitor tracks health of multiple components in a thread-safe manner.
// Statuses arrive either pushed through Update or pulled from registered
// checks by Poll and Run.
type Monitor struct {
	mu       sync.RWMutex
	statuses map[string]Status
	checks   map[string]Check
	logger   *slog.Logger // nil: transitions are not logged
}

// NewMonitor creates a new health monitor
func NewMonitor(opts ...MonitorOption) *Monitor {
	m := &Monitor{
		statuses: make(map[string]Status),
		checks:   make(map[string]Check),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds a check that Poll evaluates under name, replacing any
// earlier check of that name.
func (m *Monitor) Register(name string, check Check) {
	m.mu.Lock()
	m.checks[name] = check
	m.mu.Unlock()
}

// Poll evaluates every registered check once and stores the results.
// Checks run without the monitor lock held.
func (m *Monitor) Poll() {
	m.mu.RLock()
	checks := maps.Clone(m.checks)
	m.mu.RUnlock()

	for name, check := range checks {
		m.Update(name, check())
	}
}

// Run polls immediately, then every interval until ctx is done
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m.Poll()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Update stores status under name. The component name is forced to name
// and a zero timestamp is set to now.
func (m *Monitor) Update(name string, status Status) {
	status.Component = name
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}

	m.mu.Lock()
	prev, seen := m.statuses[name]
	m.statuses[name] = status
	m.mu.Unlock()

	if m.logger != nil && (!seen || prev.Status != status.Status) {
		from := "none"
		if seen {
			from = prev.Status
		}
		m.logger.Info("Health changed",
			"component", name, "from", from, "to", status.Status, "message", status.Message)
	}
}

// UpdateHealthy marks name healthy
func (m *Monitor) UpdateHealthy(name, message string) {
	m.Update(name, NewHealthy(name, message))
}

// UpdateUnhealthy marks name unhealthy
func (m *Monitor) UpdateUnhealthy(name, message string) {
	m.Update(name, NewUnhealthy(name, message))
}

// UpdateDegraded marks name degraded
func (m *Monitor) UpdateDegraded(name, message string) {
	m.Update(name, NewDegraded(name, message))
}

// Get retrieves the health status for a named component
func (m *Monitor) Get(name string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status, exists := m.statuses[name]
	return status, exists
}

// GetAll returns a copy of all current health statuses
func (m *Monitor) GetAll() map[string]Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return maps.Clone(m.statuses)
}

// Remove drops a component's status and check
func (m *Monitor) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.statuses, name)
	delete(m.checks, name)
}

// AggregateHealth returns the worst status across all components
func (m *Monitor) AggregateHealth(systemName string) Status {
	m.mu.RLock()
	subStatuses := slices.Collect(maps.Values(m.statuses))
	m.mu.RUnlock()

	return Aggregate(systemName, subStatuses)
}

// ListComponents returns the names of components with a status, sorted
func (m *Monitor) ListComponents() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Sorted(maps.Keys(m.statuses))
}

// Count returns the number of components with a status
func (m *Monitor) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.statuses)
}

// Clear removes every status and check
func (m *Monitor) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.statuses)
	clear(m.checks)
}
