package health

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	urlRegex         = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*://[^\s]+`)
	unixPathRegex    = regexp.MustCompile(`/[a-zA-Z0-9/_.-]+`)
	windowsPathRegex = regexp.MustCompile(`[A-Z]:\\[^:\s]+`)
	ipAddrRegex      = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	portRegex        = regexp.MustCompile(`:\d{2,5}\b`)
	credentialRegex  = regexp.MustCompile(`(?i)(password|token|key|secret|credential)[^a-zA-Z]*[:=][^,\s}]+`)
)

// Status represents the health state of a component or system
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"` // true if status is "healthy"
	Status      string    `json:"status"`  // "healthy", "unhealthy", "degraded"
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
	Metrics     *Metrics  `json:"metrics,omitempty"`
}

// Metrics contains health-related metrics
type Metrics struct {
	Uptime         time.Duration `json:"uptime"`
	ErrorCount     int           `json:"error_count"`
	ItemsProcessed int64         `json:"items_processed,omitempty"`
	Utilization    float64       `json:"utilization,omitempty"`
	OverflowRate   float64       `json:"overflow_rate,omitempty"`
	UnderflowRate  float64       `json:"underflow_rate,omitempty"`
	LastActivity   time.Time     `json:"last_activity,omitempty"`
}

// IsHealthy returns true if the status is healthy
func (s Status) IsHealthy() bool {
	return s.Status == StateHealthy
}

// IsDegraded returns true if the status is degraded
func (s Status) IsDegraded() bool {
	return s.Status == StateDegraded
}

// IsUnhealthy returns true if the status is unhealthy
func (s Status) IsUnhealthy() bool {
	return s.Status == StateUnhealthy
}

// WithMetrics returns a copy of the status with metrics attached
func (s Status) WithMetrics(metrics *Metrics) Status {
	s.Metrics = metrics
	return s
}

// WithSubStatus adds a sub-status and returns a copy
func (s Status) WithSubStatus(subStatus Status) Status {
	// Create a new slice to avoid sharing the underlying array
	newSubStatuses := make([]Status, len(s.SubStatuses), len(s.SubStatuses)+1)
	copy(newSubStatuses, s.SubStatuses)
	s.SubStatuses = append(newSubStatuses, subStatus)
	return s
}

// sanitizeErrorMessage strips URLs, paths, addresses, ports and credentials
// from an error message before it is published on /health.
func sanitizeErrorMessage(err string) string {
	if err == "" {
		return ""
	}

	// URLs first, they contain paths
	sanitized := urlRegex.ReplaceAllString(err, "[URL]")
	sanitized = unixPathRegex.ReplaceAllString(sanitized, "[PATH]")
	sanitized = windowsPathRegex.ReplaceAllString(sanitized, "[PATH]")
	sanitized = ipAddrRegex.ReplaceAllString(sanitized, "[IP]")
	sanitized = portRegex.ReplaceAllString(sanitized, "[PORT]")

	lower := strings.ToLower(sanitized)
	for _, word := range []string{"password", "token", "key", "secret", "credential"} {
		if strings.Contains(lower, word) {
			sanitized = credentialRegex.ReplaceAllString(sanitized, "[REDACTED]")
			break
		}
	}

	return sanitized
}

// FromError returns a healthy status for a nil error and an unhealthy one
// carrying the sanitized error message otherwise.
func FromError(name string, err error) Status {
	if err == nil {
		return NewHealthy(name, "OK")
	}
	return NewUnhealthy(name, sanitizeErrorMessage(err.Error()))
}

// BufferStats is the read side of buffer statistics that health checks need.
// *buffer.Statistics satisfies it.
type BufferStats interface {
	Utilization(capacity int64) float64
	OverflowRate() float64
	UnderflowRate() float64
}

// Thresholds sets the rates at which a buffer is reported degraded or
// unhealthy. Zero values disable the corresponding check.
type Thresholds struct {
	DegradedUtilization  float64 `json:"degraded_utilization" yaml:"degraded_utilization"`
	UnhealthyUtilization float64 `json:"unhealthy_utilization" yaml:"unhealthy_utilization"`
	DegradedOverflow     float64 `json:"degraded_overflow" yaml:"degraded_overflow"`
	UnhealthyOverflow    float64 `json:"unhealthy_overflow" yaml:"unhealthy_overflow"`

	// DegradedUnderflow flags a starved buffer. Off by default, since
	// polling consumers underflow routinely.
	DegradedUnderflow float64 `json:"degraded_underflow" yaml:"degraded_underflow"`
}

// DefaultThresholds returns thresholds suited to a bounded work queue
func DefaultThresholds() Thresholds {
	return Thresholds{
		DegradedUtilization:  0.8,
		UnhealthyUtilization: 0.99,
		DegradedOverflow:     0.05,
		UnhealthyOverflow:    0.25,
	}
}

// FromBufferStats grades a buffer by its fill level, overflow rate and,
// when enabled, underflow rate. Starvation only ever degrades.
// capacity <= 0 means the buffer is unbounded and utilization is not checked.
func FromBufferStats(name string, stats BufferStats, capacity int, th Thresholds) Status {
	metrics := &Metrics{
		OverflowRate:  stats.OverflowRate(),
		UnderflowRate: stats.UnderflowRate(),
	}
	if capacity > 0 {
		metrics.Utilization = stats.Utilization(int64(capacity))
	}

	var status Status
	switch {
	case exceeds(metrics.Utilization, th.UnhealthyUtilization):
		status = NewUnhealthy(name, fmt.Sprintf("buffer %.0f%% full", metrics.Utilization*100))
	case exceeds(metrics.OverflowRate, th.UnhealthyOverflow):
		status = NewUnhealthy(name, fmt.Sprintf("%.1f%% of adds overflowed", metrics.OverflowRate*100))
	case exceeds(metrics.Utilization, th.DegradedUtilization):
		status = NewDegraded(name, fmt.Sprintf("buffer %.0f%% full", metrics.Utilization*100))
	case exceeds(metrics.OverflowRate, th.DegradedOverflow):
		status = NewDegraded(name, fmt.Sprintf("%.1f%% of adds overflowed", metrics.OverflowRate*100))
	case exceeds(metrics.UnderflowRate, th.DegradedUnderflow):
		status = NewDegraded(name, fmt.Sprintf("%.1f%% of takes underflowed", metrics.UnderflowRate*100))
	default:
		status = NewHealthy(name, "Buffer healthy")
	}

	return status.WithMetrics(metrics)
}

func exceeds(value, limit float64) bool {
	return limit > 0 && value >= limit
}
