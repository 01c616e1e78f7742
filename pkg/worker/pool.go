package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/streambuf/errors"
	"github.com/c360/streambuf/health"
	"github.com/c360/streambuf/metric"
	"github.com/c360/streambuf/pkg/buffer"
	"github.com/c360/streambuf/pkg/retry"
)

const (
	defaultWorkers      = 10
	defaultQueueSize    = 1000
	defaultQueueTimeout = time.Second
)

// Pool represents a generic worker pool that can process any work type T.
// Work waits in a TimeoutBuffer; workers take from it with RemoveContext.
type Pool[T any] struct {
	// Configuration
	name         string
	workers      int
	queueSize    int
	queueTimeout time.Duration
	processor    func(context.Context, T) error
	compare      func(a, b T) int
	retryCfg     *retry.Config
	thresholds   health.Thresholds
	logger       *slog.Logger

	// Runtime state
	queue         *buffer.TimeoutBuffer[T]
	metrics       *Metrics
	wg            *sync.WaitGroup
	cancelWorkers context.CancelFunc

	// Lifecycle management. Submitters hold the read lock so Stop cannot
	// drain while an add is in flight.
	lifecycleMu sync.RWMutex
	started     bool
	stopped     bool

	// Statistics (atomic)
	submitted int64
	processed int64
	failed    int64
	dropped   int64
	retried   int64

	// Metrics configuration
	metricsRegistry *metric.MetricsRegistry
	metricsPrefix   string
}

// Metrics holds Prometheus metrics for worker pool monitoring. Queue depth
// and wait metrics come from the queue's own buffer metrics.
type Metrics struct {
	submitted      prometheus.Counter
	processed      prometheus.Counter
	failed         prometheus.Counter
	dropped        prometheus.Counter
	retried        prometheus.Counter
	processingTime *prometheus.HistogramVec
}

// Option represents a configuration option for the worker pool
type Option[T any] func(*Pool[T])

// WithMetricsRegistry registers pool and queue metrics under prefix
func WithMetricsRegistry[T any](registry *metric.MetricsRegistry, prefix string) Option[T] {
	return func(p *Pool[T]) {
		p.metricsRegistry = registry
		p.metricsPrefix = prefix
	}
}

// WithName sets the name used in logs and health statuses. Defaults to "worker_pool".
func WithName[T any](name string) Option[T] {
	return func(p *Pool[T]) {
		if name != "" {
			p.name = name
		}
	}
}

// WithPriority orders the queue by compare instead of arrival: the smallest
// item is processed first.
func WithPriority[T any](compare func(a, b T) int) Option[T] {
	return func(p *Pool[T]) {
		p.compare = compare
	}
}

// WithQueueTimeout bounds how long SubmitWait waits for room and how long an
// idle worker waits before re-checking for shutdown. Defaults to one second.
func WithQueueTimeout[T any](timeout time.Duration) Option[T] {
	return func(p *Pool[T]) {
		if timeout > 0 {
			p.queueTimeout = timeout
		}
	}
}

// WithRetry retries failed work items using cfg. Only the final failure is
// counted as failed.
func WithRetry[T any](cfg retry.Config) Option[T] {
	return func(p *Pool[T]) {
		p.retryCfg = &cfg
	}
}

// WithHealthThresholds sets the thresholds Health grades the queue with
func WithHealthThresholds[T any](th health.Thresholds) Option[T] {
	return func(p *Pool[T]) {
		p.thresholds = th
	}
}

// WithLogger sets the pool logger. Defaults to slog.Default().
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(p *Pool[T]) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPool creates a new generic worker pool with optional configuration.
// Non-positive workers or queueSize fall back to defaults.
func NewPool[T any](workers, queueSize int, processor func(context.Context, T) error, opts ...Option[T]) (*Pool[T], error) {
	if processor == nil {
		return nil, errors.WrapInvalid(ErrNilProcessor, "Pool", "New", "validate processor")
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	pool := &Pool[T]{
		name:         "worker_pool",
		workers:      workers,
		queueSize:    queueSize,
		queueTimeout: defaultQueueTimeout,
		processor:    processor,
		thresholds:   health.DefaultThresholds(),
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		opt(pool)
	}
	pool.logger = pool.logger.With("component", "worker", "pool", pool.name)

	if pool.metricsRegistry != nil && pool.metricsPrefix != "" {
		if err := pool.initializeMetrics(); err != nil {
			return nil, err
		}
	}

	queue, err := pool.newQueue()
	if err != nil {
		return nil, err
	}
	pool.queue = queue

	return pool, nil
}

func (p *Pool[T]) newQueue() (*buffer.TimeoutBuffer[T], error) {
	storeOpts := []buffer.Option[T]{buffer.WithLogger[T](p.logger)}
	queueOpts := []buffer.Option[T]{
		buffer.WithLogger[T](p.logger),
		buffer.WithMaxSize[T](p.queueSize),
	}
	if p.metricsRegistry != nil && p.metricsPrefix != "" {
		queueOpts = append(queueOpts, buffer.WithMetrics[T](p.metricsRegistry, p.metricsPrefix+"_queue"))
	}

	var store buffer.Buffer[T]
	var err error
	if p.compare != nil {
		store, err = buffer.NewHeapStore(p.compare, true, storeOpts...)
	} else {
		store, err = buffer.NewBoundedRingStore(p.queueSize, storeOpts...)
	}
	if err != nil {
		return nil, errors.Wrap(err, "Pool", "New", "create queue store")
	}

	return buffer.NewTimeout(store, p.queueTimeout, queueOpts...)
}

// initializeMetrics creates and registers metrics with the framework's registry
func (p *Pool[T]) initializeMetrics() error {
	prefix := p.metricsPrefix
	labels := prometheus.Labels{"pool": prefix}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "streambuf",
			Subsystem:   "worker",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}

	m := &Metrics{
		submitted: counter("submitted_total", "Total work items submitted"),
		processed: counter("processed_total", "Total work items processed"),
		failed:    counter("failed_total", "Total work items that failed processing"),
		dropped:   counter("dropped_total", "Total work items rejected because the queue was full"),
		retried:   counter("retries_total", "Total processing retries"),
		processingTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "streambuf",
			Subsystem:   "worker",
			Name:        "processing_duration_seconds",
			Help:        "Time spent processing work items",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			ConstLabels: labels,
		}, []string{"status"}),
	}

	for name, c := range map[string]prometheus.Counter{
		"worker_submitted": m.submitted,
		"worker_processed": m.processed,
		"worker_failed":    m.failed,
		"worker_dropped":   m.dropped,
		"worker_retries":   m.retried,
	} {
		if err := p.metricsRegistry.RegisterCounter(prefix, name, c); err != nil {
			return err
		}
	}
	if err := p.metricsRegistry.RegisterHistogramVec(prefix, "worker_processing_duration", m.processingTime); err != nil {
		return err
	}

	p.metrics = m
	return nil
}

func (p *Pool[T]) checkRunning() error {
	if !p.started {
		return ErrPoolNotStarted
	}
	if p.stopped {
		return ErrPoolStopped
	}
	return nil
}

// Submit submits work to the pool without waiting. Returns an error
// matching ErrQueueFull if the queue is at capacity.
func (p *Pool[T]) Submit(work T) error {
	p.lifecycleMu.RLock()
	defer p.lifecycleMu.RUnlock()

	if err := p.checkRunning(); err != nil {
		return err
	}
	return p.accepted(p.queue.TryAdd(work))
}

// SubmitWait submits work, waiting up to the queue timeout for room.
// Stop waits for in-flight SubmitWait calls before draining.
func (p *Pool[T]) SubmitWait(ctx context.Context, work T) error {
	p.lifecycleMu.RLock()
	defer p.lifecycleMu.RUnlock()

	if err := p.checkRunning(); err != nil {
		return err
	}
	return p.accepted(p.queue.AddContext(ctx, work))
}

func (p *Pool[T]) accepted(err error) error {
	if err != nil {
		atomic.AddInt64(&p.dropped, 1)
		if p.metrics != nil {
			p.metrics.dropped.Inc()
		}
		return queueFull(err)
	}

	atomic.AddInt64(&p.submitted, 1)
	if p.metrics != nil {
		p.metrics.submitted.Inc()
	}
	return nil
}

// Start starts the worker pool. Cancelling ctx stops workers without
// draining the queue.
func (p *Pool[T]) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.started {
		return ErrPoolAlreadyStarted
	}

	p.wg = &sync.WaitGroup{}
	workerCtx, cancel := context.WithCancel(ctx)
	p.cancelWorkers = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, workerCtx, i)
	}

	p.started = true
	p.logger.Debug("Worker pool started", "workers", p.workers, "queue_size", p.queueSize)
	return nil
}

// Stop rejects new work, lets workers drain the queue and waits up to
// timeout for them to exit.
func (p *Pool[T]) Stop(timeout time.Duration) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if !p.started || p.stopped {
		return nil
	}
	p.stopped = true

	// wake idle workers; they drain and exit
	p.cancelWorkers()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		p.logger.Debug("Worker pool stopped", "processed", atomic.LoadInt64(&p.processed))
		return nil
	case <-timer.C:
		p.logger.Warn("Worker pool stop timed out", "remaining", p.queue.Size())
		return ErrStopTimeout
	}
}

// Stats returns current pool statistics
func (p *Pool[T]) Stats() PoolStats {
	return PoolStats{
		Workers:    p.workers,
		QueueSize:  p.queueSize,
		QueueDepth: p.queue.Size(),
		Submitted:  atomic.LoadInt64(&p.submitted),
		Processed:  atomic.LoadInt64(&p.processed),
		Failed:     atomic.LoadInt64(&p.failed),
		Dropped:    atomic.LoadInt64(&p.dropped),
		Retried:    atomic.LoadInt64(&p.retried),
	}
}

// QueueStats returns the statistics of the underlying queue
func (p *Pool[T]) QueueStats() *buffer.Statistics {
	return p.queue.Stats()
}

// Health grades the pool by its queue. A stopped pool is unhealthy.
func (p *Pool[T]) Health() health.Status {
	p.lifecycleMu.RLock()
	stopped := p.stopped
	p.lifecycleMu.RUnlock()

	if stopped {
		return health.NewUnhealthy(p.name, "Worker pool stopped")
	}

	s := p.Stats()
	status := health.FromBufferStats(p.name, p.queue.Stats(), p.queueSize, p.thresholds)
	status.Metrics.ErrorCount = int(s.Failed)
	status.Metrics.ItemsProcessed = s.Processed
	status.Metrics.Uptime = p.queue.Stats().Uptime()
	return status
}

// PoolStats represents worker pool statistics
type PoolStats struct {
	Workers    int   `json:"workers"`
	QueueSize  int   `json:"queue_size"`
	QueueDepth int   `json:"queue_depth"`
	Submitted  int64 `json:"submitted"`
	Processed  int64 `json:"processed"`
	Failed     int64 `json:"failed"`
	Dropped    int64 `json:"dropped"`
	Retried    int64 `json:"retried"`
}

// worker takes work until Stop or ctx cancellation. After Stop it drains
// what is left without waiting.
func (p *Pool[T]) worker(ctx, workerCtx context.Context, _ int) {
	defer p.wg.Done()

	for ctx.Err() == nil {
		work, err := p.queue.RemoveContext(workerCtx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if workerCtx.Err() != nil {
				p.drain(ctx)
				return
			}
			// idle timeout
			continue
		}
		p.process(ctx, work)
	}
}

func (p *Pool[T]) drain(ctx context.Context) {
	for ctx.Err() == nil {
		work, err := p.queue.TryRemove()
		if err != nil {
			return
		}
		p.process(ctx, work)
	}
}

func (p *Pool[T]) process(ctx context.Context, work T) {
	start := time.Now()
	err := p.run(ctx, work)
	duration := time.Since(start)

	atomic.AddInt64(&p.processed, 1)
	if err != nil {
		atomic.AddInt64(&p.failed, 1)
		p.logger.Debug("Work item failed", "error", err, "class", errors.Classify(err).String())
		if p.metricsRegistry != nil {
			p.metricsRegistry.CoreMetrics().RecordError(p.name, err)
		}
	}

	if p.metrics != nil {
		p.metrics.processed.Inc()
		status := "success"
		if err != nil {
			p.metrics.failed.Inc()
			status = "error"
		}
		p.metrics.processingTime.WithLabelValues(status).Observe(duration.Seconds())
	}
}

func (p *Pool[T]) run(ctx context.Context, work T) error {
	if p.retryCfg == nil {
		return p.processor(ctx, work)
	}

	cfg := *p.retryCfg
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		atomic.AddInt64(&p.retried, 1)
		if p.metrics != nil {
			p.metrics.retried.Inc()
		}
		p.logger.Debug("Retrying work item", "attempt", attempt, "delay", delay, "error", err)
	}
	return retry.Do(ctx, cfg, func() error {
		return p.processor(ctx, work)
	})
}
