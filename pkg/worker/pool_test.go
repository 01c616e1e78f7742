package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/streambuf/metric"
	"github.com/c360/streambuf/pkg/retry"
)

// Test data structure for worker pool tests
type testWork struct {
	id    int
	delay time.Duration
	fail  bool
}

func mustPool(t *testing.T, workers, queueSize int, processor func(context.Context, testWork) error, opts ...Option[testWork]) *Pool[testWork] {
	t.Helper()
	pool, err := NewPool(workers, queueSize, processor, opts...)
	require.NoError(t, err)
	return pool
}

func noop(context.Context, testWork) error { return nil }

func TestNewPool(t *testing.T) {
	pool := mustPool(t, 5, 100, noop)
	assert.Equal(t, 5, pool.workers)
	assert.Equal(t, 100, pool.queueSize)
	assert.Equal(t, 100, pool.queue.MaxSize())

	pool = mustPool(t, 0, 100, noop)
	assert.Equal(t, defaultWorkers, pool.workers)

	pool = mustPool(t, 5, 0, noop)
	assert.Equal(t, defaultQueueSize, pool.queueSize)
}

func TestNewPool_NilProcessor(t *testing.T) {
	pool, err := NewPool[testWork](5, 100, nil)
	require.Error(t, err)
	assert.Nil(t, pool)
	assert.ErrorIs(t, err, ErrNilProcessor)
}

func TestPool_StartStop(t *testing.T) {
	var processedCount int64
	pool := mustPool(t, 2, 10, func(_ context.Context, _ testWork) error {
		atomic.AddInt64(&processedCount, 1)
		return nil
	})

	ctx := context.Background()
	require.NoError(t, pool.Start(ctx))
	assert.ErrorIs(t, pool.Start(ctx), ErrPoolAlreadyStarted)

	for i := 0; i < 5; i++ {
		require.NoError(t, pool.Submit(testWork{id: i}))
	}

	require.NoError(t, pool.Stop(5*time.Second))
	assert.Equal(t, int64(5), atomic.LoadInt64(&processedCount), "Stop drains queued work")

	assert.ErrorIs(t, pool.Submit(testWork{id: 999}), ErrPoolStopped)
	assert.NoError(t, pool.Stop(time.Second), "Stop is idempotent")
}

func TestPool_StopDrainsQueue(t *testing.T) {
	release := make(chan struct{})
	var processed atomic.Int64

	pool := mustPool(t, 1, 20, func(_ context.Context, w testWork) error {
		if w.id == 0 {
			<-release
		}
		processed.Add(1)
		return nil
	})
	require.NoError(t, pool.Start(context.Background()))

	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(testWork{id: i}))
	}

	stopped := make(chan error, 1)
	go func() { stopped <- pool.Stop(5 * time.Second) }()

	time.Sleep(20 * time.Millisecond)
	close(release)

	require.NoError(t, <-stopped)
	assert.Equal(t, int64(10), processed.Load())
	assert.Equal(t, 0, pool.Stats().QueueDepth)
}

func TestPool_QueueFull(t *testing.T) {
	block := make(chan struct{})
	pool := mustPool(t, 1, 2, func(_ context.Context, _ testWork) error {
		<-block
		return nil
	})

	require.NoError(t, pool.Start(context.Background()))
	defer func() {
		close(block)
		_ = pool.Stop(5 * time.Second)
	}()

	submitted, dropped := 0, 0
	for i := 0; i < 6; i++ {
		if err := pool.Submit(testWork{id: i}); err != nil {
			assert.ErrorIs(t, err, ErrQueueFull)
			dropped++
		} else {
			submitted++
		}
	}

	assert.Positive(t, dropped, "Expected some work to be dropped due to full queue")
	assert.Positive(t, submitted)
	assert.Equal(t, int64(dropped), pool.Stats().Dropped)
}

func TestPool_SubmitWait(t *testing.T) {
	release := make(chan struct{})
	pool := mustPool(t, 1, 1, func(_ context.Context, _ testWork) error {
		<-release
		return nil
	}, WithQueueTimeout[testWork](2*time.Second))

	require.NoError(t, pool.Start(context.Background()))
	defer func() { _ = pool.Stop(5 * time.Second) }()

	require.NoError(t, pool.Submit(testWork{id: 0}))
	// wait for the worker to pick it up, then fill the single slot
	require.Eventually(t, func() bool { return pool.Stats().QueueDepth == 0 }, time.Second, time.Millisecond)
	require.NoError(t, pool.Submit(testWork{id: 1}))

	go func() {
		time.Sleep(30 * time.Millisecond)
		close(release)
	}()

	start := time.Now()
	require.NoError(t, pool.SubmitWait(context.Background(), testWork{id: 2}))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond, "SubmitWait blocks until room")
}

func TestPool_SubmitWaitCancelled(t *testing.T) {
	block := make(chan struct{})
	pool := mustPool(t, 1, 1, func(_ context.Context, _ testWork) error {
		<-block
		return nil
	}, WithQueueTimeout[testWork](5*time.Second))

	require.NoError(t, pool.Start(context.Background()))
	defer func() {
		close(block)
		_ = pool.Stop(5 * time.Second)
	}()

	require.NoError(t, pool.Submit(testWork{id: 0}))
	require.Eventually(t, func() bool { return pool.Stats().QueueDepth == 0 }, time.Second, time.Millisecond)
	require.NoError(t, pool.Submit(testWork{id: 1}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := pool.SubmitWait(ctx, testWork{id: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPool_Priority(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var order []int

	pool := mustPool(t, 1, 10, func(_ context.Context, w testWork) error {
		if w.id == -1 {
			<-release
			return nil
		}
		mu.Lock()
		order = append(order, w.id)
		mu.Unlock()
		return nil
	}, WithPriority(func(a, b testWork) int { return a.id - b.id }))

	require.NoError(t, pool.Start(context.Background()))

	// occupy the only worker so the rest queue up
	require.NoError(t, pool.Submit(testWork{id: -1}))
	require.Eventually(t, func() bool { return pool.Stats().QueueDepth == 0 }, time.Second, time.Millisecond)

	for _, id := range []int{5, 1, 4, 2, 3} {
		require.NoError(t, pool.Submit(testWork{id: id}))
	}
	close(release)

	require.NoError(t, pool.Stop(5*time.Second))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, order)
}

func TestPool_ProcessingErrors(t *testing.T) {
	var successCount, errorCount int64

	pool := mustPool(t, 2, 10, func(_ context.Context, work testWork) error {
		if work.fail {
			atomic.AddInt64(&errorCount, 1)
			return errors.New("simulated error")
		}
		atomic.AddInt64(&successCount, 1)
		return nil
	})

	require.NoError(t, pool.Start(context.Background()))

	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(testWork{id: i, fail: i%2 == 0}))
	}

	require.NoError(t, pool.Stop(5*time.Second))

	assert.Equal(t, int64(5), atomic.LoadInt64(&successCount))
	assert.Equal(t, int64(5), atomic.LoadInt64(&errorCount))

	stats := pool.Stats()
	assert.Equal(t, int64(10), stats.Processed)
	assert.Equal(t, int64(5), stats.Failed)
}

func TestPool_Retry(t *testing.T) {
	var attempts atomic.Int32
	pool := mustPool(t, 1, 4, func(_ context.Context, _ testWork) error {
		if attempts.Add(1) < 3 {
			return errors.New("temporary failure")
		}
		return nil
	}, WithRetry[testWork](retry.Config{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}))

	require.NoError(t, pool.Start(context.Background()))
	require.NoError(t, pool.Submit(testWork{id: 1}))
	require.NoError(t, pool.Stop(5*time.Second))

	stats := pool.Stats()
	assert.Equal(t, int64(1), stats.Processed)
	assert.Equal(t, int64(0), stats.Failed)
	assert.Equal(t, int64(2), stats.Retried)
}

func TestPool_ContextCancellation(t *testing.T) {
	var processedCount int64

	pool := mustPool(t, 2, 10, func(ctx context.Context, work testWork) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(work.delay):
			atomic.AddInt64(&processedCount, 1)
			return nil
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, pool.Start(ctx))

	for i := 0; i < 5; i++ {
		require.NoError(t, pool.Submit(testWork{id: i, delay: 50 * time.Millisecond}))
	}

	time.Sleep(10 * time.Millisecond)
	cancel()

	require.NoError(t, pool.Stop(5*time.Second))
	assert.Less(t, atomic.LoadInt64(&processedCount), int64(5), "cancellation skips the drain")
}

func TestPool_ConcurrentSubmissions(t *testing.T) {
	var processedCount int64

	pool := mustPool(t, 5, 100, func(_ context.Context, _ testWork) error {
		atomic.AddInt64(&processedCount, 1)
		return nil
	})
	require.NoError(t, pool.Start(context.Background()))

	var wg sync.WaitGroup
	submitters := 10
	workPerSubmitter := 10

	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func(submitterID int) {
			defer wg.Done()
			for j := 0; j < workPerSubmitter; j++ {
				err := pool.Submit(testWork{id: submitterID*workPerSubmitter + j})
				assert.NoError(t, err)
			}
		}(i)
	}

	wg.Wait()
	require.NoError(t, pool.Stop(5*time.Second))

	assert.Equal(t, int64(submitters*workPerSubmitter), atomic.LoadInt64(&processedCount))
}

func TestPool_Stats(t *testing.T) {
	pool := mustPool(t, 3, 50, func(ctx context.Context, _ testWork) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
			return nil
		}
	})

	stats := pool.Stats()
	assert.Equal(t, 3, stats.Workers)
	assert.Equal(t, 50, stats.QueueSize)
	assert.Zero(t, stats.Submitted)

	require.NoError(t, pool.Start(context.Background()))
	defer func() { _ = pool.Stop(5 * time.Second) }()

	for i := 0; i < 10; i++ {
		_ = pool.Submit(testWork{id: i})
	}

	time.Sleep(50 * time.Millisecond)
	stats = pool.Stats()

	assert.Equal(t, int64(10), stats.Submitted)
	assert.Positive(t, stats.Processed)
	assert.LessOrEqual(t, stats.Processed, stats.Submitted)
	assert.Equal(t, int64(10), pool.QueueStats().Adds())
}

func TestPool_Health(t *testing.T) {
	block := make(chan struct{})
	pool := mustPool(t, 1, 4, func(_ context.Context, _ testWork) error {
		<-block
		return nil
	}, WithName[testWork]("ingest"))

	require.NoError(t, pool.Start(context.Background()))

	assert.True(t, pool.Health().IsHealthy())

	require.NoError(t, pool.Submit(testWork{id: 0}))
	require.Eventually(t, func() bool { return pool.Stats().QueueDepth == 0 }, time.Second, time.Millisecond)
	for i := 1; i <= 4; i++ {
		require.NoError(t, pool.Submit(testWork{id: i}))
	}

	status := pool.Health()
	assert.Equal(t, "ingest", status.Component)
	assert.True(t, status.IsUnhealthy(), "a full queue is unhealthy")
	require.NotNil(t, status.Metrics)
	assert.Equal(t, 1.0, status.Metrics.Utilization)

	close(block)
	require.NoError(t, pool.Stop(5*time.Second))
	assert.True(t, pool.Health().IsUnhealthy(), "a stopped pool is unhealthy")
}

func TestPool_Metrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	pool := mustPool(t, 2, 8, func(_ context.Context, w testWork) error {
		if w.fail {
			return errors.New("boom")
		}
		return nil
	}, WithMetricsRegistry[testWork](registry, "jobs"), WithName[testWork]("jobs"))

	require.NoError(t, pool.Start(context.Background()))
	for i := 0; i < 4; i++ {
		require.NoError(t, pool.Submit(testWork{id: i, fail: i == 0}))
	}
	require.NoError(t, pool.Stop(5*time.Second))

	assert.Equal(t, 4.0, testutil.ToFloat64(pool.metrics.submitted))
	assert.Equal(t, 4.0, testutil.ToFloat64(pool.metrics.processed))
	assert.Equal(t, 1.0, testutil.ToFloat64(pool.metrics.failed))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		registry.CoreMetrics().ErrorsTotal.WithLabelValues("jobs", "transient")))

	// the queue registers its own buffer metrics
	assert.Equal(t, 1, testutil.CollectAndCount(registry.PrometheusRegistry(), "streambuf_buffer_adds_total"))

	_, err := NewPool(1, 1, noop, WithMetricsRegistry[testWork](registry, "jobs"))
	assert.Error(t, err, "a second pool cannot reuse the metrics prefix")
}
