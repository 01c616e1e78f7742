package buffer

import (
	"time"
)

// TimeoutBuffer applies one timeout to both directions: Add and AddAll wait
// up to it for room, Get and Remove wait up to it for an element. It does
// the work of a BoundedBuffer over a BlockingBuffer under a single lock.
//
// The bound is WithMaxSize when given, else the inner buffer's own bound if
// it implements BoundedCollection and rejects when full. Without either,
// adds never wait.
type TimeoutBuffer[T any] struct {
	*guard[T]
}

// NewTimeout wraps inner. The timeout must be positive. The decorator
// becomes the sole owner of inner.
func NewTimeout[T any](inner Buffer[T], timeout time.Duration, options ...Option[T]) (*TimeoutBuffer[T], error) {
	if inner == nil {
		return nil, invalidConfig("TimeoutBuffer", "validate inner buffer: nil")
	}
	if timeout <= 0 {
		return nil, invalidConfig("TimeoutBuffer", "validate timeout %s", timeout)
	}

	opts := applyOptions(options...)
	if opts.maxSize < 0 {
		return nil, invalidConfig("TimeoutBuffer", "validate maxSize %d", opts.maxSize)
	}

	maxSize := opts.maxSize
	if maxSize == 0 {
		maxSize = innerBound(inner)
	}

	g, err := newGuard("TimeoutBuffer", inner, maxSize, timeout, waitDeadline, waitDeadline, opts)
	if err != nil {
		return nil, err
	}
	return &TimeoutBuffer[T]{guard: g}, nil
}

// innerBound returns the bound of a buffer that rejects adds when full, or 0.
func innerBound[T any](inner Buffer[T]) int {
	if _, ok := inner.(interface{ overwrites() }); ok {
		return 0
	}
	if bc, ok := inner.(BoundedCollection); ok {
		return bc.MaxSize()
	}
	return 0
}

// MaxSize returns the bound adds wait on, or 0 when unbounded.
func (b *TimeoutBuffer[T]) MaxSize() int {
	return b.maxSize
}

// IsFull reports whether an Add would have to wait.
func (b *TimeoutBuffer[T]) IsFull() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.hasRoom(1)
}
