package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopologicalOrder(t *testing.T) {
	t.Run("fifo from declaration order", func(t *testing.T) {
		// 0 -> 2, 1 -> 2, 2 -> 3, 1 -> 3
		deps := [][]int{{2}, {2, 3}, {3}, nil}
		order, remaining := TopologicalOrder(4, deps)
		assert.Equal(t, []int{0, 1, 2, 3}, order)
		assert.Empty(t, remaining)
	})

	t.Run("independent nodes keep declaration order", func(t *testing.T) {
		deps := [][]int{nil, {0}, nil}
		order, _ := TopologicalOrder(3, deps)
		assert.Equal(t, []int{1, 2, 0}, order)
	})

	t.Run("cycle leaves nodes behind", func(t *testing.T) {
		// 0 -> 1 -> 2 -> 1, 2 -> 3
		deps := [][]int{{1}, {2}, {1, 3}, nil}
		order, remaining := TopologicalOrder(4, deps)
		assert.Equal(t, []int{0}, order)
		assert.Equal(t, []int{1, 2, 3}, remaining)
	})

	t.Run("self loop", func(t *testing.T) {
		order, remaining := TopologicalOrder(1, [][]int{{0}})
		assert.Empty(t, order)
		assert.Equal(t, []int{0}, remaining)
	})

	t.Run("empty graph", func(t *testing.T) {
		order, remaining := TopologicalOrder(0, nil)
		assert.Empty(t, order)
		assert.Empty(t, remaining)
	})
}

func TestPositions(t *testing.T) {
	assert.Equal(t, []int{2, 0, 1}, Positions([]int{1, 2, 0}))
}

func TestQueue(t *testing.T) {
	// Node i has topological index topo[i].
	topo := []int{3, 0, 2, 1}
	ids := []string{"d", "a", "c", "b"}

	t.Run("pops in topological order regardless of push order", func(t *testing.T) {
		q := NewQueue(topo, ids)
		for _, n := range []int{0, 2, 1, 3} {
			assert.True(t, q.Push(n))
		}
		assert.Equal(t, []int{1, 3, 2, 0}, q.Items())

		var got []int
		for {
			n, ok := q.Pop()
			if !ok {
				break
			}
			got = append(got, n)
		}
		assert.Equal(t, []int{1, 3, 2, 0}, got)
	})

	t.Run("push is idempotent while pending", func(t *testing.T) {
		q := NewQueue(topo, ids)
		require.True(t, q.Push(2))
		assert.False(t, q.Push(2))
		assert.Equal(t, 1, q.Len())
		assert.True(t, q.Pending(2))

		n, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, 2, n)
		assert.False(t, q.Pending(2))
		assert.True(t, q.Push(2), "a popped node can be scheduled again")
	})

	t.Run("ties break on node id", func(t *testing.T) {
		q := NewQueue([]int{0, 0, 0}, []string{"z", "m", "a"})
		q.Push(0)
		q.Push(1)
		q.Push(2)
		assert.Equal(t, []int{2, 1, 0}, q.Items())
	})

	t.Run("clear", func(t *testing.T) {
		q := NewQueue(topo, ids)
		q.Push(0)
		q.Push(1)
		q.Clear()
		assert.Equal(t, 0, q.Len())
		assert.False(t, q.Pending(0))
		_, ok := q.Pop()
		assert.False(t, ok)
	})
}

func TestGenerations(t *testing.T) {
	var g Generations
	g.Reset(3, 2)
	assert.Equal(t, uint64(0), g.Current())
	assert.Equal(t, uint64(1), g.Pending())

	g.StampPort(1)
	g.StampNode(0)
	assert.Equal(t, uint64(1), g.Advance())
	assert.Equal(t, uint64(1), g.Port(1))
	assert.Equal(t, uint64(0), g.Port(0))
	assert.Equal(t, uint64(1), g.Node(0))

	g.Reset(1, 1)
	assert.Equal(t, uint64(1), g.Current(), "counter survives a reset")
	assert.Equal(t, uint64(0), g.Port(0))
	g.StampPort(0)
	assert.Equal(t, uint64(2), g.Port(0))
}
