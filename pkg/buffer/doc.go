// Package buffer provides queue-like buffers with interchangeable storage
// strategies and composable concurrency decorators, with built-in statistics
// and optional Prometheus metrics.
//
// # Overview
//
// Every type implements Buffer: Add, AddAll, Get (peek), Remove (pop),
// RemoveFunc, Size, IsEmpty, Clear, Iterator and Stats.
//
// Storage strategies (not safe for concurrent use on their own):
//
//   - RingStore: growable FIFO ring; Add never fails
//   - BoundedRingStore: fixed FIFO ring; Add fails with ErrOverflow when full
//   - OverwritingRingStore: fixed FIFO ring; Add evicts the oldest element when full
//   - HeapStore: binary heap; Remove yields the smallest (ascending) or
//     largest (descending) element
//
// Concurrency decorators wrap any Buffer, including another decorator, and
// guard every access with one lock:
//
//   - BlockingBuffer: Get/Remove wait while empty, optionally up to a timeout
//   - BoundedBuffer: caps the size; Add/AddAll fail at once or wait up to a timeout
//   - TimeoutBuffer: one timeout for both waits, under a single lock
//
// # Quick Start
//
//	store, err := buffer.NewBoundedRingStore[*Event](1000)
//	if err != nil {
//		return err
//	}
//	queue, err := buffer.NewTimeout[*Event](store, 500*time.Millisecond,
//		buffer.WithMetrics[*Event](registry, "ingest_queue"),
//	)
//	if err != nil {
//		return err
//	}
//
//	// Producer: waits up to 500ms for room
//	if err := queue.Add(event); errors.Is(err, buffer.ErrOverflow) {
//		...
//	}
//
//	// Consumer: waits until an event arrives or ctx is done
//	event, err := queue.RemoveContext(ctx)
//
// # Errors
//
// Failures wrap ErrOverflow, ErrUnderflow or ErrInvalidConfig and carry the
// errors package classification: Overflow and Underflow are transient,
// configuration errors are invalid. A wait that ends without its predicate
// holding reports the same Overflow/Underflow as the non-waiting case, with
// the reason joined in, so errors.Is(err, buffer.ErrTimeout) or
// errors.Is(err, context.Canceled) tells them apart.
//
// Nothing retries internally; see pkg/retry for caller-side backoff.
//
// # Waiting
//
// A wait computes its deadline once on entry and re-checks its predicate
// after every wakeup, so it never exceeds the timeout. Waiters are woken
// together and race for the lock; there is no fairness between them.
//
// Nesting decorators is legal. An outer decorator checks its own predicate
// before delegating, so a BoundedBuffer, which never waits on empty, fails
// Get and Remove with ErrUnderflow without reaching an inner BlockingBuffer.
// When the outer predicate passes but the inner one does not, the inner
// decorator waits while the outer lock is held. Prefer a single
// TimeoutBuffer when both bounded and blocking behaviour are needed.
//
// # Observability
//
// Statistics are always collected through atomic counters and are available
// from Stats(). WithMetrics additionally exports them as Prometheus counters,
// a size gauge and a wait duration histogram labelled with the given
// component name. Decorators log expired and cancelled waits at debug level
// through WithLogger (default slog.Default()).
package buffer
