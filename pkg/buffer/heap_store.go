package buffer

import (
	"cmp"
)

// HeapStore is a binary heap ordered by a comparator. Get and Remove return
// the smallest element when ascending and the largest otherwise. Elements
// that compare equal come out in no particular order.
//
// The tree is 1-indexed: the children of position i are 2i and 2i+1 and
// slot 0 is unused. It grows like RingStore when full.
//
// HeapStore is not safe for concurrent use; wrap it in a decorator.
type HeapStore[T any] struct {
	tree      []T
	size      int
	compare   func(a, b T) int
	ascending bool
	mods      int
	rec       *recorder

	// observe is set while an iterator removes, to follow elements
	// through the swaps of the repair.
	observe func(i, j int)
}

// NewHeapStore creates a heap ordered by compare, which returns a negative
// number when a sorts before b, zero when equal and positive otherwise.
func NewHeapStore[T any](compare func(a, b T) int, ascending bool, options ...Option[T]) (*HeapStore[T], error) {
	if compare == nil {
		return nil, invalidConfig("HeapStore", "validate comparator: nil")
	}

	opts := applyOptions(options...)
	rec, err := newRecorder("HeapStore", opts)
	if err != nil {
		return nil, err
	}

	return &HeapStore[T]{
		tree:      make([]T, DefaultCapacity+1),
		compare:   compare,
		ascending: ascending,
		rec:       rec,
	}, nil
}

// NewOrderedHeapStore creates a heap using the natural order of T.
func NewOrderedHeapStore[T cmp.Ordered](ascending bool, options ...Option[T]) (*HeapStore[T], error) {
	return NewHeapStore(cmp.Compare[T], ascending, options...)
}

// before reports whether a belongs nearer the root than b.
func (h *HeapStore[T]) before(a, b T) bool {
	c := h.compare(a, b)
	if h.ascending {
		return c < 0
	}
	return c > 0
}

func (h *HeapStore[T]) swap(i, j int) {
	h.tree[i], h.tree[j] = h.tree[j], h.tree[i]
	if h.observe != nil {
		h.observe(i, j)
	}
}

func (h *HeapStore[T]) siftUp(i int) int {
	for i > 1 && h.before(h.tree[i], h.tree[i/2]) {
		h.swap(i, i/2)
		i /= 2
	}
	return i
}

func (h *HeapStore[T]) siftDown(i int) int {
	for {
		best := 2 * i
		if best > h.size {
			return i
		}
		if right := best + 1; right <= h.size && h.before(h.tree[right], h.tree[best]) {
			best = right
		}
		if !h.before(h.tree[best], h.tree[i]) {
			return i
		}
		h.swap(i, best)
		i = best
	}
}

func (h *HeapStore[T]) push(item T) {
	if h.size == len(h.tree)-1 {
		tree := make([]T, 2*len(h.tree)-1)
		copy(tree, h.tree[:h.size+1])
		h.tree = tree
	}
	h.size++
	h.tree[h.size] = item
	h.siftUp(h.size)
	h.mods++
}

// removeAt swaps position i with the last element, drops the last slot and
// sifts the moved element whichever way restores the heap.
func (h *HeapStore[T]) removeAt(i int) T {
	var zero T
	item := h.tree[i]
	last := h.size
	if i != last {
		h.swap(i, last)
	}
	h.tree[last] = zero
	h.size--
	if i <= h.size {
		if h.siftDown(i) == i {
			h.siftUp(i)
		}
	}
	h.mods++
	return item
}

// Add inserts item.
func (h *HeapStore[T]) Add(item T) error {
	h.push(item)
	h.rec.added(1, h.size)
	return nil
}

// AddAll inserts items.
func (h *HeapStore[T]) AddAll(items ...T) error {
	for _, item := range items {
		h.push(item)
	}
	if len(items) > 0 {
		h.rec.added(len(items), h.size)
	}
	return nil
}

// Get returns the extremum without removing it.
func (h *HeapStore[T]) Get() (T, error) {
	if h.size == 0 {
		var zero T
		h.rec.underflowed()
		return zero, underflowError("HeapStore", "Get")
	}
	h.rec.peeked()
	return h.tree[1], nil
}

// Remove removes and returns the extremum.
func (h *HeapStore[T]) Remove() (T, error) {
	if h.size == 0 {
		var zero T
		h.rec.underflowed()
		return zero, underflowError("HeapStore", "Remove")
	}
	item := h.removeAt(1)
	h.rec.removed(1, h.size)
	return item, nil
}

// RemoveFunc removes the first element in tree order matching match.
func (h *HeapStore[T]) RemoveFunc(match func(T) bool) bool {
	for i := 1; i <= h.size; i++ {
		if match(h.tree[i]) {
			h.removeAt(i)
			h.rec.removed(1, h.size)
			return true
		}
	}
	return false
}

// Size returns the number of elements.
func (h *HeapStore[T]) Size() int {
	return h.size
}

// IsEmpty reports whether the heap holds no elements.
func (h *HeapStore[T]) IsEmpty() bool {
	return h.size == 0
}

// Ascending reports whether Remove yields the smallest element first.
func (h *HeapStore[T]) Ascending() bool {
	return h.ascending
}

// Clear removes all elements.
func (h *HeapStore[T]) Clear() {
	clear(h.tree)
	h.size = 0
	h.mods++
	h.rec.resized(0)
}

// Iterator returns an iterator in tree order, not priority order.
func (h *HeapStore[T]) Iterator() Iterator[T] {
	return &heapIterator[T]{
		h:        h,
		visited:  make([]bool, h.size+1),
		scan:     1,
		expected: h.mods,
	}
}

// Stats returns the heap's statistics.
func (h *HeapStore[T]) Stats() *Statistics {
	return h.rec.stats
}

// heapIterator yields the lowest unvisited position each step. Removal
// repairs the heap by swapping, so visited flags move with their elements;
// every element present when iteration started is yielded exactly once.
type heapIterator[T any] struct {
	h        *HeapStore[T]
	visited  []bool
	scan     int // every position below scan is visited
	current  int
	expected int
	err      error
}

func (it *heapIterator[T]) Next() bool {
	if it.err != nil {
		return false
	}
	if it.h.mods != it.expected {
		it.err = iteratorModified("HeapStore")
		return false
	}
	for it.scan <= it.h.size && it.visited[it.scan] {
		it.scan++
	}
	if it.scan > it.h.size {
		it.current = 0
		return false
	}
	it.current = it.scan
	it.visited[it.current] = true
	return true
}

func (it *heapIterator[T]) Value() T {
	if it.current == 0 {
		var zero T
		return zero
	}
	return it.h.tree[it.current]
}

func (it *heapIterator[T]) swapped(i, j int) {
	it.visited[i], it.visited[j] = it.visited[j], it.visited[i]
	for _, p := range [2]int{i, j} {
		if !it.visited[p] && p < it.scan {
			it.scan = p
		}
	}
}

func (it *heapIterator[T]) Remove() error {
	if it.h.mods != it.expected {
		it.err = iteratorModified("HeapStore")
		return it.err
	}
	if it.current == 0 {
		return iteratorState("HeapStore")
	}

	it.h.observe = it.swapped
	it.h.removeAt(it.current)
	it.h.observe = nil

	it.current = 0
	it.expected = it.h.mods
	it.h.rec.removed(1, it.h.size)
	return nil
}

func (it *heapIterator[T]) Err() error {
	return it.err
}
