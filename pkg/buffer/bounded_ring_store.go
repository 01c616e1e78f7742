package buffer

// BoundedRingStore is a fixed-capacity FIFO ring. Adding to a full store
// fails with ErrOverflow; nothing blocks.
//
// BoundedRingStore is not safe for concurrent use; wrap it in a decorator.
type BoundedRingStore[T any] struct {
	ring ring[T]
	rec  *recorder
}

// NewBoundedRingStore creates a store holding at most maxSize elements.
func NewBoundedRingStore[T any](maxSize int, options ...Option[T]) (*BoundedRingStore[T], error) {
	if maxSize <= 0 {
		return nil, invalidConfig("BoundedRingStore", "validate maxSize %d", maxSize)
	}

	opts := applyOptions(options...)
	rec, err := newRecorder("BoundedRingStore", opts)
	if err != nil {
		return nil, err
	}

	return &BoundedRingStore[T]{
		ring: newRing[T](maxSize),
		rec:  rec,
	}, nil
}

// Add appends item, or fails with ErrOverflow at capacity.
func (s *BoundedRingStore[T]) Add(item T) error {
	if s.ring.full() {
		s.rec.overflowed()
		return overflowError("BoundedRingStore", "Add")
	}
	s.ring.push(item)
	s.rec.added(1, s.ring.size())
	return nil
}

// AddAll appends all items, or none if they do not all fit.
func (s *BoundedRingStore[T]) AddAll(items ...T) error {
	if len(items) > s.ring.capacity()-s.ring.size() {
		s.rec.overflowed()
		return overflowError("BoundedRingStore", "AddAll")
	}
	for _, item := range items {
		s.ring.push(item)
	}
	if len(items) > 0 {
		s.rec.added(len(items), s.ring.size())
	}
	return nil
}

// Get returns the oldest element.
func (s *BoundedRingStore[T]) Get() (T, error) {
	if s.ring.size() == 0 {
		var zero T
		s.rec.underflowed()
		return zero, underflowError("BoundedRingStore", "Get")
	}
	s.rec.peeked()
	return s.ring.peek(), nil
}

// Remove removes and returns the oldest element.
func (s *BoundedRingStore[T]) Remove() (T, error) {
	if s.ring.size() == 0 {
		var zero T
		s.rec.underflowed()
		return zero, underflowError("BoundedRingStore", "Remove")
	}
	item := s.ring.pop()
	s.rec.removed(1, s.ring.size())
	return item, nil
}

// RemoveFunc removes the first element, oldest first, matching match.
func (s *BoundedRingStore[T]) RemoveFunc(match func(T) bool) bool {
	return ringRemoveFunc(&s.ring, s.rec, match)
}

// Size returns the number of elements.
func (s *BoundedRingStore[T]) Size() int {
	return s.ring.size()
}

// IsEmpty reports whether the store holds no elements.
func (s *BoundedRingStore[T]) IsEmpty() bool {
	return s.ring.size() == 0
}

// MaxSize returns the fixed capacity.
func (s *BoundedRingStore[T]) MaxSize() int {
	return s.ring.capacity()
}

// IsFull reports whether the next Add would overflow.
func (s *BoundedRingStore[T]) IsFull() bool {
	return s.ring.full()
}

// Clear removes all elements.
func (s *BoundedRingStore[T]) Clear() {
	s.ring.clear()
	s.rec.resized(0)
}

// Iterator returns an iterator from oldest to newest.
func (s *BoundedRingStore[T]) Iterator() Iterator[T] {
	return newRingIterator(&s.ring, "BoundedRingStore", func(T) {
		s.rec.removed(1, s.ring.size())
	})
}

// Stats returns the store's statistics.
func (s *BoundedRingStore[T]) Stats() *Statistics {
	return s.rec.stats
}
