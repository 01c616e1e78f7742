package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/c360/streambuf/config"
	"github.com/c360/streambuf/errors"
	"github.com/c360/streambuf/health"
	"github.com/c360/streambuf/metric"
	"github.com/c360/streambuf/pkg/buffer"
	"github.com/c360/streambuf/pkg/retry"
)

const (
	healthInterval = time.Second
	idlePoll       = 200 * time.Microsecond
)

// benchResult is printed as JSON when a run completes.
type benchResult struct {
	RunID     string              `json:"run_id"`
	Pipeline  string              `json:"pipeline"`
	Store     string              `json:"store"`
	Decorator string              `json:"decorator"`
	Produced  int64               `json:"produced"`
	Consumed  int64               `json:"consumed"`
	Dropped   int64               `json:"dropped"`
	Retries   int64               `json:"retries"`
	Elapsed   string              `json:"elapsed"`
	Buffer    buffer.StatsSummary `json:"buffer"`
	Health    health.Status       `json:"health"`
}

func newBenchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Drive the configured pipeline with producers and consumers",
		Long: `Build the configured pipeline and push load.items items through it from
load.producers goroutines while load.consumers goroutines drain it.
Rejected adds are retried with the load.retry policy and counted as
dropped once it gives up. The run ends when every item is produced and
the pipeline is drained, when load.duration elapses, or on SIGINT/SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger := setupLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := runBench(ctx, cfg, logger)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}

type bench struct {
	cfg     *config.Config
	logger  *slog.Logger
	core    *metric.Metrics
	pipe    *pipeline
	retries retry.Config

	produced atomic.Int64
	consumed atomic.Int64
	dropped  atomic.Int64
	retried  atomic.Int64
}

// runBench executes one run and returns its summary. Cancelling ctx stops
// the producers; whatever is already buffered is still drained.
func runBench(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*benchResult, error) {
	runID := uuid.NewString()
	logger = logger.With("run_id", runID, "pipeline", cfg.Pipeline.Name)

	registry := metric.NewMetricsRegistry()
	pipe, err := buildPipeline(cfg.Pipeline, registry, logger)
	if err != nil {
		return nil, err
	}

	b := &bench{
		cfg:     cfg,
		logger:  logger,
		core:    registry.CoreMetrics(),
		pipe:    pipe,
		retries: cfg.Load.Retry.Policy().ToRetryConfig(),
	}
	b.retries.OnRetry = func(int, error, time.Duration) {
		b.retried.Add(1)
		b.core.RecordRetry(pipe.name)
	}

	monitor := health.NewMonitor(health.WithLogger(logger))
	monitor.Register(pipe.name, b.health)

	if cfg.Metrics.Enabled {
		server := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry,
			metric.WithHealthMonitor(monitor, appName))
		go func() {
			if err := server.Start(); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() { _ = server.Stop() }()
		logger.Info("Serving metrics", "address", server.Address())
	}

	if cfg.Load.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Load.Duration)
		defer cancel()
	}

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	go monitor.Run(monitorCtx, healthInterval)

	logger.Info("Starting bench",
		"store", cfg.Pipeline.Store,
		"decorator", cfg.Pipeline.Decorator,
		"producers", cfg.Load.Producers,
		"consumers", cfg.Load.Consumers,
		"items", cfg.Load.Items)

	start := time.Now()
	b.core.RecordComponentStatus(pipe.name, metric.StatusRunning)

	consumerCtx, stopConsumers := context.WithCancel(context.WithoutCancel(ctx))
	defer stopConsumers()
	consumers, cctx := errgroup.WithContext(consumerCtx)
	for range cfg.Load.Consumers {
		consumers.Go(func() error { return b.consume(cctx) })
	}

	producers, pctx := errgroup.WithContext(ctx)
	for id := range cfg.Load.Producers {
		producers.Go(func() error { return b.produce(pctx, id) })
	}

	perr := producers.Wait()
	b.core.RecordComponentStatus(pipe.name, metric.StatusDraining)
	logger.Debug("Producers finished, draining", "remaining", pipe.size())

	stopConsumers()
	cerr := consumers.Wait()

	elapsed := time.Since(start)
	b.core.RecordOperationDuration(pipe.name, "run", elapsed)

	if err := stderrors.Join(perr, cerr); err != nil {
		b.core.RecordComponentStatus(pipe.name, metric.StatusFailed)
		b.core.RecordError(pipe.name, err)
		return nil, errors.Wrap(err, "bench", "run", "drive pipeline")
	}
	b.core.RecordComponentStatus(pipe.name, metric.StatusStopped)

	status := b.health()
	b.core.RecordHealthStatus(pipe.name, status.IsHealthy())

	result := &benchResult{
		RunID:     runID,
		Pipeline:  pipe.name,
		Store:     cfg.Pipeline.Store,
		Decorator: cfg.Pipeline.Decorator,
		Produced:  b.produced.Load(),
		Consumed:  b.consumed.Load(),
		Dropped:   b.dropped.Load(),
		Retries:   b.retried.Load(),
		Elapsed:   elapsed.String(),
		Buffer:    pipe.buf.Stats().Summary(),
		Health:    status,
	}

	logger.Info("Bench complete",
		"produced", result.Produced,
		"consumed", result.Consumed,
		"dropped", result.Dropped,
		"elapsed", elapsed)

	return result, nil
}

func (b *bench) health() health.Status {
	return health.FromBufferStats(b.pipe.name, b.pipe.buf.Stats(), b.pipe.capacity, b.cfg.Health)
}

// produce adds this producer's share of items, retrying rejected adds.
// Running out of retries drops the item; only non-transient errors fail
// the run.
func (b *bench) produce(ctx context.Context, id int) error {
	var limiter *rate.Limiter
	if b.cfg.Load.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(b.cfg.Load.Rate), b.cfg.Load.Burst)
	}

	items := b.cfg.Load.Items
	base := int64(id) * int64(items)

	for i := range items {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
		}
		if ctx.Err() != nil {
			return nil
		}

		item := base + int64(i)
		started := time.Now()
		err := retry.Do(ctx, b.retries, func() error {
			return b.pipe.add(ctx, item)
		})
		b.core.RecordOperationDuration(b.pipe.name, "add", time.Since(started))

		if err == nil {
			b.produced.Add(1)
			b.core.RecordProduced(b.pipe.name, 1)
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		if !errors.IsTransient(err) {
			return err
		}

		b.dropped.Add(1)
		b.core.RecordError(b.pipe.name, err)
		b.logger.Debug("Dropped item", "producer", id, "item", item, "error", err)
	}
	return nil
}

// consume removes items until ctx is cancelled and the pipeline is empty.
func (b *bench) consume(ctx context.Context) error {
	for {
		_, err := b.pipe.remove(ctx)
		if err == nil {
			b.consumed.Add(1)
			b.core.RecordConsumed(b.pipe.name, 1)
			continue
		}
		if !stderrors.Is(err, buffer.ErrUnderflow) {
			return err
		}
		if ctx.Err() != nil {
			if b.pipe.size() == 0 {
				return nil
			}
			continue
		}
		if !b.pipe.waitsOnEmpty {
			select {
			case <-ctx.Done():
			case <-time.After(idlePoll):
			}
		}
	}
}
