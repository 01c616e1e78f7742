package buffer

import (
	"time"
)

// BlockingBuffer makes Get and Remove wait while the inner buffer is empty.
// Add and AddAll delegate immediately and wake waiting consumers.
//
// A wait ends when an element arrives, when the timeout elapses, or when
// the context passed to GetContext/RemoveContext is done. The last two fail
// with ErrUnderflow joined with ErrTimeout or the context error.
type BlockingBuffer[T any] struct {
	*guard[T]
}

// NewBlocking wraps inner. A timeout of 0 waits indefinitely. The
// decorator becomes the sole owner of inner.
func NewBlocking[T any](inner Buffer[T], timeout time.Duration, options ...Option[T]) (*BlockingBuffer[T], error) {
	if inner == nil {
		return nil, invalidConfig("BlockingBuffer", "validate inner buffer: nil")
	}
	if timeout < 0 {
		return nil, invalidConfig("BlockingBuffer", "validate timeout %s", timeout)
	}

	onEmpty := waitForever
	if timeout > 0 {
		onEmpty = waitDeadline
	}

	g, err := newGuard("BlockingBuffer", inner, 0, timeout, failFast, onEmpty, applyOptions(options...))
	if err != nil {
		return nil, err
	}
	return &BlockingBuffer[T]{guard: g}, nil
}
