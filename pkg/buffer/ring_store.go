package buffer

// RingStore is a growable FIFO ring. When full it reallocates to roughly
// twice its capacity, so Add never overflows.
//
// RingStore is not safe for concurrent use; wrap it in a decorator.
type RingStore[T any] struct {
	ring ring[T]
	rec  *recorder
}

// NewRingStore creates a RingStore with room for initialCapacity elements
// before its first growth.
func NewRingStore[T any](initialCapacity int, options ...Option[T]) (*RingStore[T], error) {
	if initialCapacity <= 0 {
		return nil, invalidConfig("RingStore", "validate initial capacity %d", initialCapacity)
	}

	opts := applyOptions(options...)
	rec, err := newRecorder("RingStore", opts)
	if err != nil {
		return nil, err
	}

	return &RingStore[T]{
		ring: newRing[T](initialCapacity),
		rec:  rec,
	}, nil
}

// NewDefaultRingStore creates a RingStore with DefaultCapacity.
func NewDefaultRingStore[T any](options ...Option[T]) (*RingStore[T], error) {
	return NewRingStore(DefaultCapacity, options...)
}

// Add appends item, growing the ring when it is full.
func (s *RingStore[T]) Add(item T) error {
	if s.ring.full() {
		s.ring.grow()
	}
	s.ring.push(item)
	s.rec.added(1, s.ring.size())
	return nil
}

// AddAll appends items in order.
func (s *RingStore[T]) AddAll(items ...T) error {
	for _, item := range items {
		if s.ring.full() {
			s.ring.grow()
		}
		s.ring.push(item)
	}
	if len(items) > 0 {
		s.rec.added(len(items), s.ring.size())
	}
	return nil
}

// Get returns the oldest element.
func (s *RingStore[T]) Get() (T, error) {
	if s.ring.size() == 0 {
		var zero T
		s.rec.underflowed()
		return zero, underflowError("RingStore", "Get")
	}
	s.rec.peeked()
	return s.ring.peek(), nil
}

// Remove removes and returns the oldest element.
func (s *RingStore[T]) Remove() (T, error) {
	if s.ring.size() == 0 {
		var zero T
		s.rec.underflowed()
		return zero, underflowError("RingStore", "Remove")
	}
	item := s.ring.pop()
	s.rec.removed(1, s.ring.size())
	return item, nil
}

// RemoveFunc removes the first element, oldest first, matching match.
func (s *RingStore[T]) RemoveFunc(match func(T) bool) bool {
	return ringRemoveFunc(&s.ring, s.rec, match)
}

// Size returns the number of elements.
func (s *RingStore[T]) Size() int {
	return s.ring.size()
}

// IsEmpty reports whether the store holds no elements.
func (s *RingStore[T]) IsEmpty() bool {
	return s.ring.size() == 0
}

// Capacity returns how many elements fit before the next growth.
func (s *RingStore[T]) Capacity() int {
	return s.ring.capacity()
}

// Clear removes all elements. The current capacity is kept.
func (s *RingStore[T]) Clear() {
	s.ring.clear()
	s.rec.resized(0)
}

// Iterator returns an iterator from oldest to newest.
func (s *RingStore[T]) Iterator() Iterator[T] {
	return newRingIterator(&s.ring, "RingStore", func(T) {
		s.rec.removed(1, s.ring.size())
	})
}

// Stats returns the store's statistics.
func (s *RingStore[T]) Stats() *Statistics {
	return s.rec.stats
}

func ringRemoveFunc[T any](r *ring[T], rec *recorder, match func(T) bool) bool {
	k := r.find(match)
	if k < 0 {
		return false
	}
	r.removeAt(k)
	rec.removed(1, r.size())
	return true
}
