package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/c360/streambuf/config"
	"github.com/c360/streambuf/errors"
	"github.com/c360/streambuf/metric"
	"github.com/c360/streambuf/pkg/buffer"
)

// waitingBuffer is implemented by the decorators that can wait.
type waitingBuffer[T any] interface {
	buffer.Buffer[T]
	AddContext(ctx context.Context, item T) error
	RemoveContext(ctx context.Context) (T, error)
}

// pipeline is the buffer under test plus how to drive it. A bare store is
// single-owner, so without a decorator every access goes through mu.
type pipeline struct {
	name     string
	buf      buffer.Buffer[int64]
	waiting  waitingBuffer[int64] // nil for a bare store
	capacity int                  // 0 when unbounded

	// waitsOnEmpty is set when remove blocks until an element arrives.
	// A bounded decorator fails fast on empty and must be polled.
	waitsOnEmpty bool

	mu sync.Mutex
}

func (p *pipeline) add(ctx context.Context, item int64) error {
	if p.waiting != nil {
		return p.waiting.AddContext(ctx, item)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Add(item)
}

func (p *pipeline) remove(ctx context.Context) (int64, error) {
	if p.waiting != nil {
		return p.waiting.RemoveContext(ctx)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Remove()
}

func (p *pipeline) size() int {
	if p.waiting != nil {
		return p.waiting.Size()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Size()
}

// buildPipeline constructs the configured store and wraps it in the
// configured decorator. Only the outermost buffer exports metrics.
func buildPipeline(cfg config.PipelineConfig, registry *metric.MetricsRegistry, logger *slog.Logger) (*pipeline, error) {
	decorated := cfg.Decorator != "" && cfg.Decorator != config.DecoratorNone

	var storeOpts []buffer.Option[int64]
	if logger != nil {
		storeOpts = append(storeOpts, buffer.WithLogger[int64](logger))
	}
	outerOpts := append([]buffer.Option[int64]{}, storeOpts...)
	if registry != nil {
		if decorated {
			outerOpts = append(outerOpts, buffer.WithMetrics[int64](registry, cfg.Name))
		} else {
			storeOpts = append(storeOpts, buffer.WithMetrics[int64](registry, cfg.Name))
		}
	}

	store, err := buildStore(cfg, storeOpts)
	if err != nil {
		return nil, err
	}

	p := &pipeline{name: cfg.Name, buf: store}

	switch cfg.Decorator {
	case "", config.DecoratorNone:
	case config.DecoratorBlocking:
		b, err := buffer.NewBlocking(store, cfg.Timeout, outerOpts...)
		if err != nil {
			return nil, err
		}
		p.buf, p.waiting, p.waitsOnEmpty = b, b, true
	case config.DecoratorBounded:
		b, err := buffer.NewBounded(store, cfg.MaxSize, cfg.Timeout, outerOpts...)
		if err != nil {
			return nil, err
		}
		p.buf, p.waiting = b, b
	case config.DecoratorTimeout:
		if cfg.MaxSize > 0 {
			outerOpts = append(outerOpts, buffer.WithMaxSize[int64](cfg.MaxSize))
		}
		b, err := buffer.NewTimeout(store, cfg.Timeout, outerOpts...)
		if err != nil {
			return nil, err
		}
		p.buf, p.waiting, p.waitsOnEmpty = b, b, true
	default:
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "pipeline", "build",
			fmt.Sprintf("select decorator %q", cfg.Decorator))
	}

	if bc, ok := p.buf.(buffer.BoundedCollection); ok {
		p.capacity = bc.MaxSize()
	}
	return p, nil
}

func buildStore(cfg config.PipelineConfig, opts []buffer.Option[int64]) (buffer.Buffer[int64], error) {
	switch cfg.Store {
	case config.StoreRing:
		return buffer.NewRingStore(cfg.Capacity, opts...)
	case config.StoreBounded:
		return buffer.NewBoundedRingStore(cfg.Capacity, opts...)
	case config.StoreOverwriting:
		return buffer.NewOverwritingRingStore(cfg.Capacity, opts...)
	case config.StoreHeap:
		return buffer.NewOrderedHeapStore(cfg.Ascending, opts...)
	default:
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "pipeline", "build",
			fmt.Sprintf("select store %q", cfg.Store))
	}
}
