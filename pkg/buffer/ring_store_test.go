package buffer

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/c360/streambuf/errors"
)

func drain[T any](t *testing.T, b Buffer[T]) []T {
	t.Helper()
	var out []T
	for !b.IsEmpty() {
		item, err := b.Remove()
		require.NoError(t, err)
		out = append(out, item)
	}
	return out
}

func values[T any](t *testing.T, b Buffer[T]) []T {
	t.Helper()
	v, err := Values(b)
	require.NoError(t, err)
	return v
}

func TestRingStore_GrowsFromCapacityOne(t *testing.T) {
	store, err := NewRingStore[string](1)
	require.NoError(t, err)
	require.Equal(t, 1, store.Capacity())

	for _, s := range []string{"A", "B", "C"} {
		require.NoError(t, store.Add(s))
	}

	assert.Greater(t, store.Capacity(), 1, "ring should have grown")
	assert.Equal(t, 3, store.Size())
	assert.Equal(t, []string{"A", "B", "C"}, drain[string](t, store))
}

func TestRingStore_FIFOAcrossWraparound(t *testing.T) {
	store, err := NewRingStore[int](4)
	require.NoError(t, err)

	// Move head forward so later adds wrap and growth copies a split window.
	require.NoError(t, store.AddAll(1, 2, 3))
	for i := 0; i < 2; i++ {
		_, err := store.Remove()
		require.NoError(t, err)
	}
	require.NoError(t, store.AddAll(4, 5, 6, 7, 8, 9))

	assert.Equal(t, []int{3, 4, 5, 6, 7, 8, 9}, values[int](t, store))
	assert.Equal(t, []int{3, 4, 5, 6, 7, 8, 9}, drain[int](t, store))
}

func TestRingStore_Underflow(t *testing.T) {
	store, err := NewDefaultRingStore[int]()
	require.NoError(t, err)
	assert.Equal(t, DefaultCapacity, store.Capacity())

	_, err = store.Get()
	require.ErrorIs(t, err, ErrUnderflow)
	assert.True(t, cerrors.IsTransient(err))

	_, err = store.Remove()
	require.ErrorIs(t, err, ErrUnderflow)

	assert.Equal(t, int64(2), store.Stats().Underflows())
}

func TestRingStore_GetDoesNotRemove(t *testing.T) {
	store, err := NewRingStore[int](2)
	require.NoError(t, err)
	require.NoError(t, store.Add(7))

	v, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, store.Size())
}

func TestRingStore_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		_, err := NewRingStore[int](capacity)
		require.ErrorIs(t, err, ErrInvalidConfig)
		assert.True(t, cerrors.IsInvalid(err))
	}
}

func TestRingStore_Clear(t *testing.T) {
	store, err := NewRingStore[int](2)
	require.NoError(t, err)
	require.NoError(t, store.AddAll(1, 2, 3))
	capacity := store.Capacity()

	store.Clear()
	assert.True(t, store.IsEmpty())
	assert.Equal(t, capacity, store.Capacity())

	require.NoError(t, store.Add(4))
	assert.Equal(t, []int{4}, drain[int](t, store))
}

func TestRingStore_RemoveFunc(t *testing.T) {
	store, err := NewRingStore[int](8)
	require.NoError(t, err)
	require.NoError(t, store.AddAll(1, 2, 3, 2))

	assert.True(t, RemoveValue[int](store, 2))
	assert.Equal(t, []int{1, 3, 2}, values[int](t, store))
	assert.False(t, RemoveValue[int](store, 9))
}

func TestRingIterator_RemoveEveryPosition(t *testing.T) {
	const n = 7
	// Each head offset puts the window across index 0 differently.
	for offset := 0; offset < n+1; offset++ {
		for target := 0; target < n; target++ {
			store, err := NewBoundedRingStore[int](n)
			require.NoError(t, err)
			for i := 0; i < offset; i++ {
				require.NoError(t, store.Add(-1))
				_, err := store.Remove()
				require.NoError(t, err)
			}
			for i := 0; i < n; i++ {
				require.NoError(t, store.Add(i))
			}

			it := store.Iterator()
			for it.Next() {
				if it.Value() == target {
					require.NoError(t, it.Remove())
				}
			}
			require.NoError(t, it.Err())

			var want []int
			for i := 0; i < n; i++ {
				if i != target {
					want = append(want, i)
				}
			}
			require.Equal(t, want, values[int](t, store), "offset %d target %d", offset, target)
			require.NoError(t, store.Add(100))
			require.Equal(t, append(want, 100), drain[int](t, store), "offset %d target %d", offset, target)
		}
	}
}

func TestRingIterator_RemoveAllVisitsEach(t *testing.T) {
	store, err := NewRingStore[int](3)
	require.NoError(t, err)
	require.NoError(t, store.AddAll(1, 2, 3, 4, 5))

	var seen []int
	it := store.Iterator()
	for it.Next() {
		seen = append(seen, it.Value())
		if it.Value()%2 == 1 {
			require.NoError(t, it.Remove())
		}
	}
	require.NoError(t, it.Err())

	assert.Equal(t, []int{1, 2, 3, 4, 5}, seen)
	assert.Equal(t, []int{2, 4}, values[int](t, store))
	assert.Equal(t, int64(3), store.Stats().Removes())
}

func TestRingIterator_RemoveState(t *testing.T) {
	store, err := NewRingStore[int](3)
	require.NoError(t, err)
	require.NoError(t, store.AddAll(1, 2))

	it := store.Iterator()
	require.ErrorIs(t, it.Remove(), ErrIteratorState)

	require.True(t, it.Next())
	require.NoError(t, it.Remove())
	require.ErrorIs(t, it.Remove(), ErrIteratorState)
}

func TestRingIterator_FailFast(t *testing.T) {
	store, err := NewRingStore[int](3)
	require.NoError(t, err)
	require.NoError(t, store.AddAll(1, 2, 3))

	it := store.Iterator()
	require.True(t, it.Next())
	require.NoError(t, store.Add(4))

	assert.False(t, it.Next())
	assert.True(t, errors.Is(it.Err(), ErrConcurrentModification))
	assert.ErrorIs(t, it.Remove(), ErrConcurrentModification)
}

func TestBoundedRingStore_RejectsWhenFull(t *testing.T) {
	store, err := NewBoundedRingStore[string](3)
	require.NoError(t, err)

	for _, s := range []string{"a", "b", "c"} {
		require.NoError(t, store.Add(s))
	}
	assert.True(t, store.IsFull())

	err = store.Add("d")
	require.ErrorIs(t, err, ErrOverflow)
	assert.True(t, cerrors.IsTransient(err))

	v, err := store.Remove()
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	require.NoError(t, store.Add("d"))
	assert.Equal(t, []string{"b", "c", "d"}, drain[string](t, store))
	assert.Equal(t, int64(1), store.Stats().Overflows())
}

func TestBoundedRingStore_AddAllAllOrNothing(t *testing.T) {
	store, err := NewBoundedRingStore[int](4)
	require.NoError(t, err)
	require.NoError(t, store.AddAll(1, 2))

	require.ErrorIs(t, store.AddAll(3, 4, 5), ErrOverflow)
	assert.Equal(t, []int{1, 2}, values[int](t, store))

	require.NoError(t, store.AddAll(3, 4))
	assert.Equal(t, 4, store.Size())
	assert.Equal(t, 4, store.MaxSize())
}

func TestBoundedRingStore_InvalidMaxSize(t *testing.T) {
	_, err := NewBoundedRingStore[int](0)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestOverwritingRingStore_EvictsOldest(t *testing.T) {
	var evicted []string
	store, err := NewOverwritingRingStore[string](3,
		WithEvictCallback[string](func(item string) { evicted = append(evicted, item) }))
	require.NoError(t, err)

	require.NoError(t, store.AddAll("A", "B", "C"))
	require.NoError(t, store.Add("D"))

	assert.Equal(t, []string{"B", "C", "D"}, values[string](t, store))
	assert.Equal(t, []string{"A"}, evicted)
	assert.Equal(t, int64(1), store.Stats().Evictions())
}

func TestOverwritingRingStore_Window(t *testing.T) {
	const capacity = 5
	for k := 0; k < 12; k++ {
		store, err := NewOverwritingRingStore[int](capacity)
		require.NoError(t, err)

		var all []int
		for i := 0; i < capacity+k; i++ {
			require.NoError(t, store.Add(i))
			all = append(all, i)
		}

		assert.Equal(t, all[k:], values[int](t, store), "k=%d", k)
		assert.Equal(t, int64(k), store.Stats().Evictions())
	}
}

func TestOverwritingRingStore_AddAllLargerThanWindow(t *testing.T) {
	var evicted []int
	store, err := NewOverwritingRingStore[int](2,
		WithEvictCallback[int](func(item int) { evicted = append(evicted, item) }))
	require.NoError(t, err)

	require.NoError(t, store.AddAll(1, 2, 3, 4))
	assert.Equal(t, []int{3, 4}, values[int](t, store))
	assert.Equal(t, []int{1, 2}, evicted)
}

func TestOverwritingRingStore_LogsEvictions(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store, err := NewOverwritingRingStore[int](2, WithLogger[int](logger))
	require.NoError(t, err)

	require.NoError(t, store.AddAll(1, 2))
	assert.NotContains(t, out.String(), "evicted")

	require.NoError(t, store.Add(3))
	assert.Contains(t, out.String(), "Buffer element evicted")
	assert.Contains(t, out.String(), "component=OverwritingRingStore")
	assert.Contains(t, out.String(), "evictions=1")
}

func TestOverwritingRingStore_InvalidMaxSize(t *testing.T) {
	_, err := NewOverwritingRingStore[int](-3)
	require.ErrorIs(t, err, ErrInvalidConfig)
}
