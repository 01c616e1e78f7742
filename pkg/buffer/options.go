package buffer

import (
	"log/slog"

	"github.com/c360/streambuf/metric"
)

// Option configures a store or decorator using the functional options pattern.
type Option[T any] func(*bufferOptions[T])

// bufferOptions holds internal configuration for buffer instances.
// Statistics are ALWAYS collected - they are not optional.
// Metrics are optional and exposed via WithMetrics().
type bufferOptions[T any] struct {
	// metricsReg is optional - if provided, buffer stats are also exposed as Prometheus metrics
	metricsReg *metric.MetricsRegistry

	// metricsPrefix is used as the component label for Prometheus metrics
	metricsPrefix string

	logger        *slog.Logger
	evictCallback EvictCallback[T]

	// maxSize bounds a TimeoutBuffer; 0 means derive it from the inner buffer
	maxSize int
}

// EvictCallback is called when an OverwritingRingStore discards its oldest
// element to make room. It runs after the store is consistent again.
type EvictCallback[T any] func(item T)

// WithMetrics enables Prometheus metrics export for buffer statistics.
// If registry is nil or prefix is empty, this option is ignored.
func WithMetrics[T any](registry *metric.MetricsRegistry, prefix string) Option[T] {
	return func(opts *bufferOptions[T]) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// WithLogger sets the logger used for wait expiry, cancellation and eviction
// events. Defaults to slog.Default().
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(opts *bufferOptions[T]) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithEvictCallback sets a callback invoked with every element an
// OverwritingRingStore evicts. Other buffers ignore it.
func WithEvictCallback[T any](callback EvictCallback[T]) Option[T] {
	return func(opts *bufferOptions[T]) {
		opts.evictCallback = callback
	}
}

// WithMaxSize sets the capacity a TimeoutBuffer waits on when adding.
// Other buffers take their bound from the constructor and ignore it.
func WithMaxSize[T any](maxSize int) Option[T] {
	return func(opts *bufferOptions[T]) {
		opts.maxSize = maxSize
	}
}

// applyOptions applies functional options to create final buffer configuration.
func applyOptions[T any](options ...Option[T]) *bufferOptions[T] {
	opts := &bufferOptions[T]{
		logger: slog.Default(),
	}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}
