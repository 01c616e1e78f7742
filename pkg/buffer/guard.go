package buffer

import (
	"context"
	"sync"
	"time"
)

// waitMode says what a guarded operation does when its predicate fails.
type waitMode int

const (
	// failFast reports Overflow/Underflow immediately.
	failFast waitMode = iota
	// waitForever waits until the predicate holds or the context ends.
	waitForever
	// waitDeadline waits at most the configured timeout.
	waitDeadline
)

// guard is the monitor shared by the decorators: one mutex covering every
// access to the inner buffer, and a broadcast channel closed and replaced
// on each state change. Waiters drop the lock, select on the channel, a
// deadline timer and their context, then take the lock and re-check.
type guard[T any] struct {
	mu      sync.Mutex
	changed chan struct{}

	inner     Buffer[T]
	component string
	maxSize   int // 0: no bound of its own
	timeout   time.Duration
	onFull    waitMode
	onEmpty   waitMode
	rec       *recorder
}

func newGuard[T any](component string, inner Buffer[T], maxSize int, timeout time.Duration,
	onFull, onEmpty waitMode, opts *bufferOptions[T],
) (*guard[T], error) {
	rec, err := newRecorder(component, opts)
	if err != nil {
		return nil, err
	}
	rec.resized(inner.Size())

	return &guard[T]{
		changed:   make(chan struct{}),
		inner:     inner,
		component: component,
		maxSize:   maxSize,
		timeout:   timeout,
		onFull:    onFull,
		onEmpty:   onEmpty,
		rec:       rec,
	}, nil
}

// broadcast wakes every waiter. Callers hold g.mu.
func (g *guard[T]) broadcast() {
	close(g.changed)
	g.changed = make(chan struct{})
}

func (g *guard[T]) hasRoom(n int) bool {
	return g.maxSize <= 0 || g.inner.Size()+n <= g.maxSize
}

func (g *guard[T]) hasItems() bool {
	return g.inner.Size() > 0
}

// await blocks until ready holds. The deadline is fixed on entry, so the
// total wait never exceeds the timeout however often the waiter wakes.
// Callers hold g.mu; it is released while waiting.
func (g *guard[T]) await(ctx context.Context, mode waitMode, ready func() bool, sentinel error, method string) error {
	if ready() {
		return nil
	}
	if mode == failFast {
		return errorsFor(sentinel, g.component, method)
	}

	var deadline time.Time
	if mode == waitDeadline {
		deadline = time.Now().Add(g.timeout)
	}

	g.rec.waitStarted()
	start := time.Now()
	for !ready() {
		if err := g.wait(ctx, deadline); err != nil {
			if ready() {
				break
			}
			g.rec.waitEnded(method, time.Since(start), err)
			return waitError(sentinel, err, g.component, method)
		}
	}
	g.rec.waitEnded(method, time.Since(start), nil)
	return nil
}

// wait sleeps until the next state change, the deadline or cancellation.
func (g *guard[T]) wait(ctx context.Context, deadline time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var expired <-chan time.Time
	if !deadline.IsZero() {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ErrTimeout
		}
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		expired = timer.C
	}

	changed := g.changed
	g.mu.Unlock()
	defer g.mu.Lock()

	select {
	case <-changed:
		return nil
	case <-expired:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func errorsFor(sentinel error, component, method string) error {
	if sentinel == ErrOverflow {
		return overflowError(component, method)
	}
	return underflowError(component, method)
}

func (g *guard[T]) add(ctx context.Context, mode waitMode, method string, items []T, insert func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := len(items)
	if g.maxSize > 0 && n > g.maxSize {
		g.rec.overflowed()
		return overflowError(g.component, method)
	}

	if err := g.await(ctx, mode, func() bool { return g.hasRoom(n) }, ErrOverflow, method); err != nil {
		g.rec.overflowed()
		return err
	}

	if err := insert(); err != nil {
		g.rec.overflowed()
		return err
	}
	if n > 0 {
		g.rec.added(n, g.inner.Size())
		g.broadcast()
	}
	return nil
}

func (g *guard[T]) take(ctx context.Context, mode waitMode, method string, remove bool) (T, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.await(ctx, mode, g.hasItems, ErrUnderflow, method); err != nil {
		var zero T
		g.rec.underflowed()
		return zero, err
	}

	if !remove {
		item, err := g.inner.Get()
		if err == nil {
			g.rec.peeked()
		}
		return item, err
	}

	item, err := g.inner.Remove()
	if err != nil {
		return item, err
	}
	g.rec.removed(1, g.inner.Size())
	g.broadcast()
	return item, nil
}

// Add inserts item, waiting for room as configured.
func (g *guard[T]) Add(item T) error {
	return g.AddContext(context.Background(), item)
}

// AddContext is Add with cancellation.
func (g *guard[T]) AddContext(ctx context.Context, item T) error {
	return g.add(ctx, g.onFull, "Add", []T{item}, func() error {
		return g.inner.Add(item)
	})
}

// AddAll inserts items together, waiting until all of them fit.
func (g *guard[T]) AddAll(items ...T) error {
	return g.AddAllContext(context.Background(), items...)
}

// AddAllContext is AddAll with cancellation.
func (g *guard[T]) AddAllContext(ctx context.Context, items ...T) error {
	return g.add(ctx, g.onFull, "AddAll", items, func() error {
		return g.inner.AddAll(items...)
	})
}

// TryAdd inserts item without waiting.
func (g *guard[T]) TryAdd(item T) error {
	return g.add(context.Background(), failFast, "TryAdd", []T{item}, func() error {
		return g.inner.Add(item)
	})
}

// Get returns the head element, waiting for one as configured.
func (g *guard[T]) Get() (T, error) {
	return g.take(context.Background(), g.onEmpty, "Get", false)
}

// GetContext is Get with cancellation.
func (g *guard[T]) GetContext(ctx context.Context) (T, error) {
	return g.take(ctx, g.onEmpty, "Get", false)
}

// Remove removes and returns the head element, waiting for one as configured.
func (g *guard[T]) Remove() (T, error) {
	return g.take(context.Background(), g.onEmpty, "Remove", true)
}

// RemoveContext is Remove with cancellation.
func (g *guard[T]) RemoveContext(ctx context.Context) (T, error) {
	return g.take(ctx, g.onEmpty, "Remove", true)
}

// TryRemove removes the head element without waiting.
func (g *guard[T]) TryRemove() (T, error) {
	return g.take(context.Background(), failFast, "TryRemove", true)
}

// RemoveFunc removes the first element matching match.
func (g *guard[T]) RemoveFunc(match func(T) bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.inner.RemoveFunc(match) {
		return false
	}
	g.rec.removed(1, g.inner.Size())
	g.broadcast()
	return true
}

// Size returns the number of elements.
func (g *guard[T]) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inner.Size()
}

// IsEmpty reports whether the buffer holds no elements.
func (g *guard[T]) IsEmpty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inner.IsEmpty()
}

// Clear removes all elements and wakes waiting producers.
func (g *guard[T]) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inner.Clear()
	g.rec.resized(0)
	g.broadcast()
}

// Iterator returns an iterator whose every call takes the decorator's lock.
// Iterator.Remove wakes waiting producers.
func (g *guard[T]) Iterator() Iterator[T] {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &guardedIterator[T]{g: g, it: g.inner.Iterator()}
}

// Stats returns the decorator's statistics, including wait outcomes.
// The inner buffer keeps its own.
func (g *guard[T]) Stats() *Statistics {
	return g.rec.stats
}

// Timeout returns the configured wait timeout.
func (g *guard[T]) Timeout() time.Duration {
	return g.timeout
}

// Unwrap returns the decorated buffer. It must not be used directly while
// the decorator is shared.
func (g *guard[T]) Unwrap() Buffer[T] {
	return g.inner
}

type guardedIterator[T any] struct {
	g  *guard[T]
	it Iterator[T]
}

func (gi *guardedIterator[T]) Next() bool {
	gi.g.mu.Lock()
	defer gi.g.mu.Unlock()
	return gi.it.Next()
}

func (gi *guardedIterator[T]) Value() T {
	gi.g.mu.Lock()
	defer gi.g.mu.Unlock()
	return gi.it.Value()
}

func (gi *guardedIterator[T]) Remove() error {
	gi.g.mu.Lock()
	defer gi.g.mu.Unlock()
	if err := gi.it.Remove(); err != nil {
		return err
	}
	gi.g.rec.removed(1, gi.g.inner.Size())
	gi.g.broadcast()
	return nil
}

func (gi *guardedIterator[T]) Err() error {
	gi.g.mu.Lock()
	defer gi.g.mu.Unlock()
	return gi.it.Err()
}
