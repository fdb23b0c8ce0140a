package scheduler

import "sort"

// Queue is the ready queue of a warm pass. Items are node indices kept in
// ascending (topological index, node id) order.
type Queue struct {
	topo    []int
	ids     []string
	items   []int
	pending []bool
}

// NewQueue creates a queue for nodes whose topological indices and ids are
// given by topo and ids, both indexed by node.
func NewQueue(topo []int, ids []string) *Queue {
	return &Queue{
		topo:    topo,
		ids:     ids,
		pending: make([]bool, len(topo)),
	}
}

func (q *Queue) less(a, b int) bool {
	if q.topo[a] != q.topo[b] {
		return q.topo[a] < q.topo[b]
	}
	return q.ids[a] < q.ids[b]
}

// Push schedules node n. A node that is already waiting is not added twice;
// the return value reports whether n was added.
func (q *Queue) Push(n int) bool {
	if q.pending[n] {
		return false
	}
	q.pending[n] = true
	i := sort.Search(len(q.items), func(i int) bool { return q.less(n, q.items[i]) })
	q.items = append(q.items, 0)
	copy(q.items[i+1:], q.items[i:])
	q.items[i] = n
	return true
}

// Pop removes and returns the node with the lowest topological index.
func (q *Queue) Pop() (int, bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	n := q.items[0]
	q.items = q.items[1:]
	q.pending[n] = false
	return n, true
}

// Len returns the number of waiting nodes.
func (q *Queue) Len() int { return len(q.items) }

// Pending reports whether node n is waiting.
func (q *Queue) Pending(n int) bool { return q.pending[n] }

// Items returns a copy of the waiting nodes in execution order.
func (q *Queue) Items() []int {
	return append([]int(nil), q.items...)
}

// Clear drops every waiting node.
func (q *Queue) Clear() {
	for _, n := range q.items {
		q.pending[n] = false
	}
	q.items = q.items[:0]
}
