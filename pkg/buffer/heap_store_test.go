package buffer

import (
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkHeap verifies the parent/child ordering for every node.
func checkHeap[T any](t *testing.T, h *HeapStore[T]) {
	t.Helper()
	for i := 1; i <= h.size; i++ {
		for _, c := range []int{2 * i, 2*i + 1} {
			if c <= h.size {
				require.False(t, h.before(h.tree[c], h.tree[i]), "child %d sorts before parent %d", c, i)
			}
		}
	}
}

func TestHeapStore_AscendingOrder(t *testing.T) {
	heap, err := NewOrderedHeapStore[int](true)
	require.NoError(t, err)

	for _, v := range []int{5, 3, 8, 1} {
		require.NoError(t, heap.Add(v))
	}

	head, err := heap.Get()
	require.NoError(t, err)
	assert.Equal(t, 1, head)
	assert.Equal(t, []int{1, 3, 5, 8}, drain[int](t, heap))
}

func TestHeapStore_DescendingOrder(t *testing.T) {
	heap, err := NewOrderedHeapStore[int](false)
	require.NoError(t, err)
	require.NoError(t, heap.AddAll(5, 3, 8, 1, 8))

	assert.Equal(t, []int{8, 8, 5, 3, 1}, drain[int](t, heap))
}

func TestHeapStore_RandomizedOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, ascending := range []bool{true, false} {
		heap, err := NewOrderedHeapStore[int](ascending)
		require.NoError(t, err)

		var want []int
		for i := 0; i < 500; i++ {
			v := rng.Intn(100)
			want = append(want, v)
			require.NoError(t, heap.Add(v))
			checkHeap(t, heap)
		}

		sort.Ints(want)
		if !ascending {
			sort.Sort(sort.Reverse(sort.IntSlice(want)))
		}
		assert.Equal(t, want, drain[int](t, heap))
	}
}

func TestHeapStore_CustomComparator(t *testing.T) {
	type job struct {
		name     string
		priority int
	}
	heap, err := NewHeapStore(func(a, b job) int { return a.priority - b.priority }, false)
	require.NoError(t, err)

	require.NoError(t, heap.AddAll(job{"low", 1}, job{"high", 9}, job{"mid", 5}))

	first, err := heap.Remove()
	require.NoError(t, err)
	assert.Equal(t, "high", first.name)
}

func TestHeapStore_NilComparator(t *testing.T) {
	_, err := NewHeapStore[int](nil, true)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestHeapStore_Underflow(t *testing.T) {
	heap, err := NewOrderedHeapStore[string](true)
	require.NoError(t, err)

	_, err = heap.Get()
	require.ErrorIs(t, err, ErrUnderflow)
	_, err = heap.Remove()
	require.ErrorIs(t, err, ErrUnderflow)
}

func TestHeapStore_Grows(t *testing.T) {
	heap, err := NewOrderedHeapStore[int](true)
	require.NoError(t, err)

	for i := DefaultCapacity * 3; i > 0; i-- {
		require.NoError(t, heap.Add(i))
	}
	assert.Equal(t, DefaultCapacity*3, heap.Size())
	checkHeap(t, heap)

	v, err := heap.Remove()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestHeapStore_RemoveFuncKeepsHeap(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		heap, err := NewOrderedHeapStore[int](true)
		require.NoError(t, err)

		var remaining []int
		for i := 0; i < 40; i++ {
			v := rng.Intn(1000)
			remaining = append(remaining, v)
			require.NoError(t, heap.Add(v))
		}

		for i := 0; i < 15; i++ {
			target := remaining[rng.Intn(len(remaining))]
			require.True(t, RemoveValue[int](heap, target))
			checkHeap(t, heap)
			for j, v := range remaining {
				if v == target {
					remaining = append(remaining[:j], remaining[j+1:]...)
					break
				}
			}
		}

		sort.Ints(remaining)
		require.Equal(t, remaining, drain[int](t, heap))
	}
}

func TestHeapStore_RemoveFuncMissing(t *testing.T) {
	heap, err := NewOrderedHeapStore[int](true)
	require.NoError(t, err)
	require.NoError(t, heap.AddAll(1, 2, 3))

	assert.False(t, RemoveValue[int](heap, 4))
	assert.Equal(t, 3, heap.Size())
}

func TestHeapIterator_VisitsEachOnceWhileRemoving(t *testing.T) {
	rng := rand.New(rand.NewSource(99))

	for round := 0; round < 100; round++ {
		heap, err := NewOrderedHeapStore[int](round%2 == 0)
		require.NoError(t, err)

		n := 1 + rng.Intn(60)
		for i := 0; i < n; i++ {
			// Distinct values so visits can be counted by value.
			require.NoError(t, heap.Add(i*7%n+i*n))
		}

		seen := map[int]int{}
		var kept []int
		it := heap.Iterator()
		for it.Next() {
			v := it.Value()
			seen[v]++
			if rng.Intn(2) == 0 {
				require.NoError(t, it.Remove())
				checkHeap(t, heap)
			} else {
				kept = append(kept, v)
			}
		}
		require.NoError(t, it.Err())

		require.Len(t, seen, n)
		for v, count := range seen {
			require.Equal(t, 1, count, "value %d visited %d times", v, count)
		}
		assert.Equal(t, len(kept), heap.Size())

		got := values[int](t, heap)
		sort.Ints(got)
		sort.Ints(kept)
		assert.Equal(t, kept, got)
	}
}

func TestHeapIterator_FailFast(t *testing.T) {
	heap, err := NewOrderedHeapStore[string](true)
	require.NoError(t, err)
	require.NoError(t, heap.AddAll("b", "a"))

	it := heap.Iterator()
	require.True(t, it.Next())
	_, err = heap.Remove()
	require.NoError(t, err)

	assert.False(t, it.Next())
	assert.ErrorIs(t, it.Err(), ErrConcurrentModification)
}

func TestHeapStore_Clear(t *testing.T) {
	heap, err := NewHeapStore(strings.Compare, true)
	require.NoError(t, err)
	require.NoError(t, heap.AddAll("x", "y"))

	heap.Clear()
	assert.True(t, heap.IsEmpty())
	require.NoError(t, heap.Add("z"))
	assert.Equal(t, []string{"z"}, drain[string](t, heap))
}
