package buffer

import (
	"time"
)

// BoundedBuffer caps the inner buffer at maxSize elements. With a timeout
// of 0, Add and AddAll on a full buffer fail with ErrOverflow at once;
// otherwise they wait up to the timeout for room. A batch larger than
// maxSize always fails immediately.
//
// Get and Remove never wait: an empty buffer fails with ErrUnderflow, even
// when inner is itself a waiting decorator.
//
// Get, Remove, RemoveFunc, Clear and iterator removal wake waiting producers.
type BoundedBuffer[T any] struct {
	*guard[T]
}

// NewBounded wraps inner with a maximum size. The decorator becomes the
// sole owner of inner.
func NewBounded[T any](inner Buffer[T], maxSize int, timeout time.Duration, options ...Option[T]) (*BoundedBuffer[T], error) {
	if inner == nil {
		return nil, invalidConfig("BoundedBuffer", "validate inner buffer: nil")
	}
	if maxSize <= 0 {
		return nil, invalidConfig("BoundedBuffer", "validate maxSize %d", maxSize)
	}
	if timeout < 0 {
		return nil, invalidConfig("BoundedBuffer", "validate timeout %s", timeout)
	}

	onFull := failFast
	if timeout > 0 {
		onFull = waitDeadline
	}

	g, err := newGuard("BoundedBuffer", inner, maxSize, timeout, onFull, failFast, applyOptions(options...))
	if err != nil {
		return nil, err
	}
	return &BoundedBuffer[T]{guard: g}, nil
}

// MaxSize returns the configured bound.
func (b *BoundedBuffer[T]) MaxSize() int {
	return b.maxSize
}

// IsFull reports whether the buffer holds MaxSize elements.
func (b *BoundedBuffer[T]) IsFull() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.hasRoom(1)
}
