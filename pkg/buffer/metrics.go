package buffer

import (
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/streambuf/errors"
	"github.com/c360/streambuf/metric"
)

// bufferMetrics holds Prometheus metrics for buffer operations.
type bufferMetrics struct {
	adds          prometheus.Counter
	removes       prometheus.Counter
	peeks         prometheus.Counter
	overflows     prometheus.Counter
	underflows    prometheus.Counter
	evictions     prometheus.Counter
	waits         prometheus.Counter
	timeouts      prometheus.Counter
	cancellations prometheus.Counter

	size         prometheus.Gauge
	waitDuration prometheus.Histogram
}

func newBufferCounter(prefix, name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "streambuf",
		Subsystem:   "buffer",
		Name:        name,
		ConstLabels: prometheus.Labels{"component": prefix},
		Help:        help,
	})
}

// newBufferMetrics creates and registers buffer metrics with the provided registry.
func newBufferMetrics(registry *metric.MetricsRegistry, prefix string) (*bufferMetrics, error) {
	m := &bufferMetrics{
		adds:          newBufferCounter(prefix, "adds_total", "Total number of elements added"),
		removes:       newBufferCounter(prefix, "removes_total", "Total number of elements removed"),
		peeks:         newBufferCounter(prefix, "peeks_total", "Total number of successful Get calls"),
		overflows:     newBufferCounter(prefix, "overflows_total", "Total number of rejected adds"),
		underflows:    newBufferCounter(prefix, "underflows_total", "Total number of failed takes"),
		evictions:     newBufferCounter(prefix, "evictions_total", "Total number of elements evicted by overwrite"),
		waits:         newBufferCounter(prefix, "waits_total", "Total number of blocking waits entered"),
		timeouts:      newBufferCounter(prefix, "wait_timeouts_total", "Total number of waits that reached their deadline"),
		cancellations: newBufferCounter(prefix, "wait_cancellations_total", "Total number of waits ended by cancellation"),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "streambuf",
			Subsystem:   "buffer",
			Name:        "size",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Current number of items in buffer",
		}),
		waitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "streambuf",
			Subsystem:   "buffer",
			Name:        "wait_duration_seconds",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Time callers spent blocked waiting for room or elements",
			Buckets:     prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}

	counters := []struct {
		name    string
		counter prometheus.Counter
	}{
		{"buffer_adds", m.adds},
		{"buffer_removes", m.removes},
		{"buffer_peeks", m.peeks},
		{"buffer_overflows", m.overflows},
		{"buffer_underflows", m.underflows},
		{"buffer_evictions", m.evictions},
		{"buffer_waits", m.waits},
		{"buffer_wait_timeouts", m.timeouts},
		{"buffer_wait_cancellations", m.cancellations},
	}
	for _, c := range counters {
		if err := registry.RegisterCounter(prefix, c.name, c.counter); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterGauge(prefix, "buffer_size", m.size); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogram(prefix, "buffer_wait_duration", m.waitDuration); err != nil {
		return nil, err
	}

	return m, nil
}

// recorder fans buffer events out to the always-on Statistics, the optional
// Prometheus metrics and the logger.
type recorder struct {
	component string
	stats     *Statistics
	metrics   *bufferMetrics
	logger    *slog.Logger
}

func newRecorder[T any](component string, opts *bufferOptions[T]) (*recorder, error) {
	r := &recorder{
		component: component,
		stats:     NewStatistics(),
		logger:    opts.logger.With("component", component),
	}

	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		m, err := newBufferMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, component, "New", "metrics registration")
		}
		r.metrics = m
		r.logger = r.logger.With("buffer", opts.metricsPrefix)
	}

	return r, nil
}

func (r *recorder) added(n, size int) {
	r.stats.Added(n)
	r.stats.UpdateSize(int64(size))
	if r.metrics != nil {
		r.metrics.adds.Add(float64(n))
		r.metrics.size.Set(float64(size))
	}
}

func (r *recorder) removed(n, size int) {
	r.stats.Removed(n)
	r.stats.UpdateSize(int64(size))
	if r.metrics != nil {
		r.metrics.removes.Add(float64(n))
		r.metrics.size.Set(float64(size))
	}
}

func (r *recorder) peeked() {
	r.stats.Peeked()
	if r.metrics != nil {
		r.metrics.peeks.Inc()
	}
}

func (r *recorder) overflowed() {
	r.stats.Overflowed()
	if r.metrics != nil {
		r.metrics.overflows.Inc()
	}
}

func (r *recorder) underflowed() {
	r.stats.Underflowed()
	if r.metrics != nil {
		r.metrics.underflows.Inc()
	}
}

func (r *recorder) evicted() {
	r.stats.Evicted()
	if r.metrics != nil {
		r.metrics.evictions.Inc()
	}
	r.logger.Debug("Buffer element evicted", "evictions", r.stats.Evictions())
}

func (r *recorder) resized(size int) {
	r.stats.UpdateSize(int64(size))
	if r.metrics != nil {
		r.metrics.size.Set(float64(size))
	}
}

func (r *recorder) waitStarted() {
	r.stats.WaitStarted()
	if r.metrics != nil {
		r.metrics.waits.Inc()
	}
}

// waitEnded records how a wait finished. A nil cause means the predicate
// was satisfied.
func (r *recorder) waitEnded(method string, waited time.Duration, cause error) {
	if r.metrics != nil {
		r.metrics.waitDuration.Observe(waited.Seconds())
	}
	switch {
	case cause == nil:
		return
	case stderrors.Is(cause, ErrTimeout):
		r.stats.TimedOut()
		if r.metrics != nil {
			r.metrics.timeouts.Inc()
		}
		r.logger.Debug("Buffer wait timed out", "method", method, "waited", waited)
	default:
		r.stats.Cancelled()
		if r.metrics != nil {
			r.metrics.cancellations.Inc()
		}
		r.logger.Debug("Buffer wait cancelled", "method", method, "waited", waited, "error", cause)
	}
}
