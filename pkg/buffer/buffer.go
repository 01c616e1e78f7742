package buffer

import (
	"iter"
)

// DefaultCapacity is the initial capacity of NewDefaultRingStore and the
// starting tree size of a HeapStore.
const DefaultCapacity = 32

// Buffer is the queue-like contract shared by every store and decorator.
// The buffer is parameterized by item type T for type safety.
type Buffer[T any] interface {
	// Add inserts an item. Returns an error wrapping ErrOverflow when the
	// buffer is full and its policy does not resolve it.
	Add(item T) error

	// AddAll inserts items in order. Bounded buffers accept all or none.
	AddAll(items ...T) error

	// Get returns the head (ring stores) or extremum (heap) without removing it.
	// Returns an error wrapping ErrUnderflow when empty.
	Get() (T, error)

	// Remove removes and returns the head or extremum.
	// Returns an error wrapping ErrUnderflow when empty.
	Remove() (T, error)

	// RemoveFunc removes the first element, in structural order, for which
	// match returns true. It reports whether an element was removed.
	RemoveFunc(match func(T) bool) bool

	// Size returns the current number of items in the buffer.
	Size() int

	// IsEmpty returns true if the buffer contains no items.
	IsEmpty() bool

	// Clear removes all items from the buffer.
	Clear()

	// Iterator returns an iterator over the buffer in structural order.
	Iterator() Iterator[T]

	// Stats returns buffer statistics (always available for observability).
	Stats() *Statistics
}

// Iterator walks a buffer and supports removal of the current element.
//
//	it := b.Iterator()
//	for it.Next() {
//	    if stale(it.Value()) {
//	        _ = it.Remove()
//	    }
//	}
//	if err := it.Err(); err != nil {
//	    ...
//	}
type Iterator[T any] interface {
	// Next advances to the next element and reports whether there is one.
	// It returns false once the buffer was modified other than through
	// this iterator; Err then reports ErrConcurrentModification.
	Next() bool

	// Value returns the current element.
	Value() T

	// Remove removes the current element. Calling it twice, or before Next,
	// returns ErrIteratorState.
	Remove() error

	// Err returns the error that stopped iteration, if any.
	Err() error
}

// BoundedCollection is implemented by buffers with a fixed maximum size.
type BoundedCollection interface {
	MaxSize() int
	IsFull() bool
}

// Values returns the buffer's elements in iteration order.
func Values[T any](b Buffer[T]) ([]T, error) {
	values := make([]T, 0, b.Size())
	it := b.Iterator()
	for it.Next() {
		values = append(values, it.Value())
	}
	return values, it.Err()
}

// All returns a range-over-func sequence of the buffer's elements.
// Iteration stops early if the buffer is modified concurrently.
func All[T any](b Buffer[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		it := b.Iterator()
		for it.Next() {
			if !yield(it.Value()) {
				return
			}
		}
	}
}

// RemoveValue removes the first element equal to v.
func RemoveValue[T comparable](b Buffer[T], v T) bool {
	return b.RemoveFunc(func(item T) bool { return item == v })
}

var (
	_ Buffer[int] = (*RingStore[int])(nil)
	_ Buffer[int] = (*BoundedRingStore[int])(nil)
	_ Buffer[int] = (*OverwritingRingStore[int])(nil)
	_ Buffer[int] = (*HeapStore[int])(nil)
	_ Buffer[int] = (*BlockingBuffer[int])(nil)
	_ Buffer[int] = (*BoundedBuffer[int])(nil)
	_ Buffer[int] = (*TimeoutBuffer[int])(nil)

	_ BoundedCollection = (*BoundedRingStore[int])(nil)
	_ BoundedCollection = (*OverwritingRingStore[int])(nil)
	_ BoundedCollection = (*BoundedBuffer[int])(nil)
	_ BoundedCollection = (*TimeoutBuffer[int])(nil)
)
