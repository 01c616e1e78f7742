// Package retry provides exponential backoff retry for transient failures.
//
// Buffers report Overflow and Underflow immediately and never retry on
// their own; producers and consumers that want to ride out backpressure
// wrap the call here instead.
//
// # Functions
//
//   - Do: run a function with retry and exponential backoff
//   - DoWithResult: same, returning a value
//
// # Configuration Presets
//
//   - DefaultConfig(): 3 attempts, 100ms-5s delay
//   - Backpressure(): 8 attempts, 1ms-50ms delay, for a full or empty buffer
//     that another goroutine is expected to drain or fill soon
//
// # Usage
//
//	err := retry.Do(ctx, retry.Backpressure(), func() error {
//	    return queue.TryAdd(item)
//	})
//
//	item, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (Job, error) {
//	    return queue.TryRemove()
//	})
//
// Config.Retryable narrows what is retried. Errors it rejects, and errors
// wrapped with NonRetryable, are returned at once:
//
//	cfg := retry.Backpressure()
//	cfg.Retryable = func(err error) bool { return errors.Is(err, buffer.ErrOverflow) }
//
// Config.OnRetry observes each retry before its backoff sleep, for
// counting or logging:
//
//	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
//	    retries.Inc()
//	}
//
// # Context Cancellation
//
// Do stops as soon as the context is cancelled, whether during the operation
// or during a backoff delay.
//
// # Thread Safety
//
// All functions are safe for concurrent use. Jitter draws from the
// goroutine-safe math/rand/v2 source.
package retry
