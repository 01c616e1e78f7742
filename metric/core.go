package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/streambuf/errors"
)

// Component status values for RecordComponentStatus
const (
	StatusStopped  = 0
	StatusStarting = 1
	StatusRunning  = 2
	StatusDraining = 3
	StatusFailed   = 4
)

// Metrics contains process-level metrics shared by every pipeline. Per-buffer
// metrics are registered by the buffers themselves.
type Metrics struct {
	ComponentStatus   *prometheus.GaugeVec
	ItemsProduced     *prometheus.CounterVec
	ItemsConsumed     *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	ErrorsTotal       *prometheus.CounterVec
	RetriesTotal      *prometheus.CounterVec
	HealthCheckStatus *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		ComponentStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "streambuf",
				Subsystem: "component",
				Name:      "status",
				Help:      "Component status (0=stopped, 1=starting, 2=running, 3=draining, 4=failed)",
			},
			[]string{"component"},
		),

		ItemsProduced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streambuf",
				Subsystem: "pipeline",
				Name:      "items_produced_total",
				Help:      "Total number of items accepted into a pipeline",
			},
			[]string{"pipeline"},
		),

		ItemsConsumed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streambuf",
				Subsystem: "pipeline",
				Name:      "items_consumed_total",
				Help:      "Total number of items taken out of a pipeline",
			},
			[]string{"pipeline"},
		),

		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "streambuf",
				Subsystem: "pipeline",
				Name:      "operation_duration_seconds",
				Help:      "Latency of pipeline operations as seen by callers",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"pipeline", "operation"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streambuf",
				Name:      "errors_total",
				Help:      "Total number of errors by component and class",
			},
			[]string{"component", "class"},
		),

		RetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streambuf",
				Name:      "retries_total",
				Help:      "Total number of caller-side retries",
			},
			[]string{"component"},
		),

		HealthCheckStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "streambuf",
				Name:      "health_status",
				Help:      "Health check status (0=unhealthy, 1=healthy)",
			},
			[]string{"component"},
		),
	}
}

func (c *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.ComponentStatus,
		c.ItemsProduced,
		c.ItemsConsumed,
		c.OperationDuration,
		c.ErrorsTotal,
		c.RetriesTotal,
		c.HealthCheckStatus,
	}
}

// RecordComponentStatus updates component status metric
func (c *Metrics) RecordComponentStatus(component string, status int) {
	c.ComponentStatus.WithLabelValues(component).Set(float64(status))
}

// RecordProduced adds n to the produced counter
func (c *Metrics) RecordProduced(pipeline string, n int) {
	c.ItemsProduced.WithLabelValues(pipeline).Add(float64(n))
}

// RecordConsumed adds n to the consumed counter
func (c *Metrics) RecordConsumed(pipeline string, n int) {
	c.ItemsConsumed.WithLabelValues(pipeline).Add(float64(n))
}

// RecordOperationDuration records operation latency
func (c *Metrics) RecordOperationDuration(pipeline, operation string, duration time.Duration) {
	c.OperationDuration.WithLabelValues(pipeline, operation).Observe(duration.Seconds())
}

// RecordError increments the error counter under the error's classification
func (c *Metrics) RecordError(component string, err error) {
	if err == nil {
		return
	}
	c.ErrorsTotal.WithLabelValues(component, errors.Classify(err).String()).Inc()
}

// RecordRetry increments the retry counter
func (c *Metrics) RecordRetry(component string) {
	c.RetriesTotal.WithLabelValues(component).Inc()
}

// RecordHealthStatus updates health check status
func (c *Metrics) RecordHealthStatus(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	c.HealthCheckStatus.WithLabelValues(component).Set(value)
}
