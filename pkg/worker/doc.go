// Package worker runs a fixed set of goroutines over a streambuf queue.
//
// # Overview
//
// A Pool holds submitted work in a buffer.TimeoutBuffer. By default the queue
// is a BoundedRingStore and work is processed in arrival order; WithPriority
// swaps in a HeapStore so the smallest item by the given comparator is
// processed first. Either way the queue is bounded by queueSize.
//
//	pool, err := worker.NewPool[Job](
//	    8,    // workers
//	    1024, // queue size
//	    func(ctx context.Context, job Job) error {
//	        return job.Run(ctx)
//	    },
//	    worker.WithName[Job]("jobs"),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := pool.Start(ctx); err != nil {
//	    return err
//	}
//	defer pool.Stop(10 * time.Second)
//
// # Submitting
//
// Submit never blocks. A full queue returns an error matching both
// ErrQueueFull and buffer.ErrOverflow; it is classified transient, so
// callers can back off and retry:
//
//	err := retry.Do(ctx, retry.Backpressure(), func() error {
//	    return pool.Submit(job)
//	})
//
// SubmitWait instead waits for room, up to the queue timeout
// (WithQueueTimeout, one second by default) or until ctx is done.
//
// # Workers and Shutdown
//
// Workers block in RemoveContext. An idle worker wakes at least once per
// queue timeout. Stop rejects new work, wakes every worker, lets them drain
// the queue and waits up to its timeout for them to exit, returning
// ErrStopTimeout otherwise. Cancelling the context given to Start stops the
// workers without draining.
//
// WithRetry retries a failing item with retry.Do before counting it as
// failed.
//
// # Observability
//
// Stats is always available. WithMetricsRegistry registers
// streambuf_worker_* series labelled with the prefix, and the queue
// registers its own streambuf_buffer_* series as "<prefix>_queue". Failed
// items are also counted in the registry's core error metric by class.
//
// Health grades the pool from its queue statistics with
// health.FromBufferStats; register it with a health.Monitor:
//
//	monitor.Register("jobs", pool.Health)
//
// # Errors
//
// Lifecycle errors (ErrPoolNotStarted, ErrPoolStopped,
// ErrPoolAlreadyStarted, ErrStopTimeout) are returned as bare sentinels.
// NewPool returns ErrNilProcessor wrapped as an invalid-class error.
package worker
