// Package streambuf is a family of generic, in-memory buffers with a shared
// queue-like contract, and the tooling to observe and exercise them.
//
// # Architecture
//
// A buffer is assembled from two orthogonal layers:
//
// Storage strategies (single-owner, no internal locking):
//   - RingStore: growable FIFO ring, never rejects an add
//   - BoundedRingStore: fixed-size FIFO ring, rejects adds when full
//   - OverwritingRingStore: fixed-size FIFO ring, evicts the oldest element
//   - HeapStore: binary heap ordered by a comparator, ascending or descending
//
// Concurrency decorators (own their inner buffer, serialize all access):
//   - BlockingBuffer: removals wait for an element
//   - BoundedBuffer: imposes a maximum size, adds optionally wait for room
//   - TimeoutBuffer: adds and removals wait up to a deadline
//
// A decorator exposes the same Buffer contract as a store, so pipelines are
// built by composition:
//
//	store, _ := buffer.NewRingStore[Job](64)
//	queue, _ := buffer.NewTimeout[Job](store, 250*time.Millisecond,
//	    buffer.WithMaxSize[Job](1024))
//
//	if err := queue.AddContext(ctx, job); errors.Is(err, buffer.ErrOverflow) {
//	    // still full after 250ms
//	}
//
// # Packages
//
//   - pkg/buffer: stores, decorators, iterators, statistics
//   - pkg/retry: caller-side exponential backoff for rejected operations
//   - pkg/worker: a generic worker pool draining a TimeoutBuffer queue
//   - errors: error classification (transient, invalid, fatal) and wrapping
//   - metric: Prometheus registry, core metrics, HTTP endpoint
//   - health: health status, buffer health evaluation, monitor
//   - config: layered YAML/JSON configuration with environment overrides
//   - cmd/streambuf: CLI that builds a pipeline from config and drives load
//
// # Error Handling
//
// Every failure is a returned error. Overflow and underflow are transient,
// configuration problems are invalid:
//
//	if errors.IsTransient(err) {
//	    // retry with backoff via pkg/retry
//	}
//
// # Observability
//
// Every buffer keeps Statistics. Passing buffer.WithMetrics exports them as
// Prometheus metrics labelled by component:
//
//	registry := metric.NewMetricsRegistry()
//	b, _ := buffer.NewBoundedRingStore[int](1024,
//	    buffer.WithMetrics[int](registry, "ingest"))
//
// health.FromBufferStats turns those statistics into a health.Status using
// utilization and overflow thresholds.
package streambuf
