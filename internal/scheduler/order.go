package scheduler

// TopologicalOrder runs Kahn's algorithm over n nodes, where dependents[i]
// lists the nodes that consume node i's outputs with duplicate edges
// already collapsed. The initial queue holds the zero in-degree nodes in
// index order and is drained first-in first-out, so the result is fully
// determined by declaration and connection order.
//
// When the graph has a cycle, order is shorter than n and remaining lists
// the nodes that were never released, in index order.
func TopologicalOrder(n int, dependents [][]int) (order []int, remaining []int) {
	indegree := make([]int, n)
	for _, deps := range dependents {
		for _, d := range deps {
			indegree[d]++
		}
	}

	queue := make([]int, 0, n)
	for i := range n {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order = make([]int, 0, n)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)
		for _, d := range dependents[cur] {
			indegree[d]--
			if indegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	if len(order) < n {
		for i := range n {
			if indegree[i] > 0 {
				remaining = append(remaining, i)
			}
		}
	}
	return order, remaining
}

// Positions inverts an order: positions[node] is the node's topological
// index.
func Positions(order []int) []int {
	pos := make([]int, len(order))
	for i, n := range order {
		pos[n] = i
	}
	return pos
}
