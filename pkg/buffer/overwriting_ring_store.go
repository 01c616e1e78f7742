package buffer

// OverwritingRingStore is a fixed-capacity FIFO ring that keeps the most
// recent elements. Adding to a full store evicts the oldest element first,
// so Add never overflows.
//
// OverwritingRingStore is not safe for concurrent use; wrap it in a decorator.
type OverwritingRingStore[T any] struct {
	ring    ring[T]
	rec     *recorder
	onEvict EvictCallback[T]
}

// NewOverwritingRingStore creates a store retaining the last maxSize elements.
func NewOverwritingRingStore[T any](maxSize int, options ...Option[T]) (*OverwritingRingStore[T], error) {
	if maxSize <= 0 {
		return nil, invalidConfig("OverwritingRingStore", "validate maxSize %d", maxSize)
	}

	opts := applyOptions(options...)
	rec, err := newRecorder("OverwritingRingStore", opts)
	if err != nil {
		return nil, err
	}

	return &OverwritingRingStore[T]{
		ring:    newRing[T](maxSize),
		rec:     rec,
		onEvict: opts.evictCallback,
	}, nil
}

// Add appends item, evicting the oldest element when full.
func (s *OverwritingRingStore[T]) Add(item T) error {
	evicted, ok := s.push(item)
	s.rec.added(1, s.ring.size())
	if ok && s.onEvict != nil {
		s.onEvict(evicted)
	}
	return nil
}

// AddAll appends items in order. When the batch exceeds the capacity only
// its last MaxSize elements are retained.
func (s *OverwritingRingStore[T]) AddAll(items ...T) error {
	var evicted []T
	for _, item := range items {
		if old, ok := s.push(item); ok && s.onEvict != nil {
			evicted = append(evicted, old)
		}
	}
	if len(items) > 0 {
		s.rec.added(len(items), s.ring.size())
	}
	for _, old := range evicted {
		s.onEvict(old)
	}
	return nil
}

func (s *OverwritingRingStore[T]) push(item T) (T, bool) {
	var evicted T
	full := s.ring.full()
	if full {
		evicted = s.ring.pop()
		s.rec.evicted()
	}
	s.ring.push(item)
	return evicted, full
}

// Get returns the oldest retained element.
func (s *OverwritingRingStore[T]) Get() (T, error) {
	if s.ring.size() == 0 {
		var zero T
		s.rec.underflowed()
		return zero, underflowError("OverwritingRingStore", "Get")
	}
	s.rec.peeked()
	return s.ring.peek(), nil
}

// Remove removes and returns the oldest retained element.
func (s *OverwritingRingStore[T]) Remove() (T, error) {
	if s.ring.size() == 0 {
		var zero T
		s.rec.underflowed()
		return zero, underflowError("OverwritingRingStore", "Remove")
	}
	item := s.ring.pop()
	s.rec.removed(1, s.ring.size())
	return item, nil
}

// RemoveFunc removes the first element, oldest first, matching match.
func (s *OverwritingRingStore[T]) RemoveFunc(match func(T) bool) bool {
	return ringRemoveFunc(&s.ring, s.rec, match)
}

// Size returns the number of elements.
func (s *OverwritingRingStore[T]) Size() int {
	return s.ring.size()
}

// IsEmpty reports whether the store holds no elements.
func (s *OverwritingRingStore[T]) IsEmpty() bool {
	return s.ring.size() == 0
}

// MaxSize returns the retention window.
func (s *OverwritingRingStore[T]) MaxSize() int {
	return s.ring.capacity()
}

// IsFull reports whether the next Add will evict.
func (s *OverwritingRingStore[T]) IsFull() bool {
	return s.ring.full()
}

// overwrites marks a bound that never rejects; TimeoutBuffer does not wait on it.
func (s *OverwritingRingStore[T]) overwrites() {}

// Clear removes all elements without reporting them as evicted.
func (s *OverwritingRingStore[T]) Clear() {
	s.ring.clear()
	s.rec.resized(0)
}

// Iterator returns an iterator from oldest to newest.
func (s *OverwritingRingStore[T]) Iterator() Iterator[T] {
	return newRingIterator(&s.ring, "OverwritingRingStore", func(T) {
		s.rec.removed(1, s.ring.size())
	})
}

// Stats returns the store's statistics.
func (s *OverwritingRingStore[T]) Stats() *Statistics {
	return s.rec.stats
}
