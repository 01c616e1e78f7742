package buffer

// ring is the circular array behind the three ring stores. One slot is
// always empty, so head == tail means empty and the size is derived from
// the indices. Its methods are the only way head and tail change.
type ring[T any] struct {
	buf  []T
	head int // index of the first element
	tail int // index one past the last element

	// mods counts structural changes for fail-fast iterators
	mods int
}

func newRing[T any](capacity int) ring[T] {
	return ring[T]{buf: make([]T, capacity+1)}
}

func (r *ring[T]) size() int {
	return (r.tail - r.head + len(r.buf)) % len(r.buf)
}

func (r *ring[T]) capacity() int {
	return len(r.buf) - 1
}

func (r *ring[T]) full() bool {
	return r.size() == len(r.buf)-1
}

// index maps logical position k (0 = head) to a slot.
func (r *ring[T]) index(k int) int {
	return (r.head + k) % len(r.buf)
}

func (r *ring[T]) at(k int) T {
	return r.buf[r.index(k)]
}

func (r *ring[T]) push(item T) {
	r.buf[r.tail] = item
	r.tail = (r.tail + 1) % len(r.buf)
	r.mods++
}

func (r *ring[T]) pop() T {
	var zero T
	item := r.buf[r.head]
	r.buf[r.head] = zero
	r.head = (r.head + 1) % len(r.buf)
	r.mods++
	return item
}

func (r *ring[T]) peek() T {
	return r.buf[r.head]
}

// grow reallocates to 2*len-1 slots, rebasing the window to start at 0.
func (r *ring[T]) grow() {
	n := r.size()
	buf := make([]T, 2*len(r.buf)-1)
	for k := 0; k < n; k++ {
		buf[k] = r.at(k)
	}
	r.buf = buf
	r.head = 0
	r.tail = n
}

func (r *ring[T]) clear() {
	clear(r.buf)
	r.head = 0
	r.tail = 0
	r.mods++
}

// removeAt removes logical position k by shifting whichever side of it is
// shorter, then moving head forward or tail back by one slot.
func (r *ring[T]) removeAt(k int) T {
	var zero T
	n := r.size()
	item := r.at(k)

	if k < n-1-k {
		for i := k; i > 0; i-- {
			r.buf[r.index(i)] = r.buf[r.index(i-1)]
		}
		r.buf[r.head] = zero
		r.head = (r.head + 1) % len(r.buf)
	} else {
		for i := k; i < n-1; i++ {
			r.buf[r.index(i)] = r.buf[r.index(i+1)]
		}
		r.tail = (r.tail - 1 + len(r.buf)) % len(r.buf)
		r.buf[r.tail] = zero
	}

	r.mods++
	return item
}

// find returns the logical position of the first match, or -1.
func (r *ring[T]) find(match func(T) bool) int {
	n := r.size()
	for k := 0; k < n; k++ {
		if match(r.at(k)) {
			return k
		}
	}
	return -1
}

// ringIterator walks logical positions from head to tail. After Remove the
// cursor stays on the same position, which now holds the next element.
type ringIterator[T any] struct {
	r         *ring[T]
	component string
	next      int
	current   int
	expected  int
	err       error
	onRemove  func(item T)
}

func newRingIterator[T any](r *ring[T], component string, onRemove func(T)) *ringIterator[T] {
	return &ringIterator[T]{
		r:         r,
		component: component,
		current:   -1,
		expected:  r.mods,
		onRemove:  onRemove,
	}
}

func (it *ringIterator[T]) Next() bool {
	if it.err != nil {
		return false
	}
	if it.r.mods != it.expected {
		it.err = iteratorModified(it.component)
		return false
	}
	if it.next >= it.r.size() {
		it.current = -1
		return false
	}
	it.current = it.next
	it.next++
	return true
}

func (it *ringIterator[T]) Value() T {
	if it.current < 0 {
		var zero T
		return zero
	}
	return it.r.at(it.current)
}

func (it *ringIterator[T]) Remove() error {
	if it.r.mods != it.expected {
		it.err = iteratorModified(it.component)
		return it.err
	}
	if it.current < 0 {
		return iteratorState(it.component)
	}
	item := it.r.removeAt(it.current)
	it.next = it.current
	it.current = -1
	it.expected = it.r.mods
	if it.onRemove != nil {
		it.onRemove(item)
	}
	return nil
}

func (it *ringIterator[T]) Err() error {
	return it.err
}
