// Package scheduler provides the ordering primitives of the evaluation
// engine: the load-time topological order, the ready queue used by warm
// passes, and the generation stamps that record when each port and node
// last changed.
//
// # Why Scheduler Exists
//
// A flow graph is evaluated many times over its lifetime, usually after a
// single input changed. Re-running every node on every pass would be
// correct but wasteful. The scheduler lets the engine run only the nodes
// downstream of a change while still producing exactly the values a full
// re-evaluation would:
//   - **Topological order:** computed once per load with Kahn's algorithm.
//     Every node gets a topological index.
//   - **Ready queue:** dirty nodes are kept sorted by topological index (node
//     id breaks ties), never by insertion order. A warm pass therefore runs
//     nodes in an order consistent with the full order, even when they were
//     enqueued out of order.
//   - **Generations:** a counter advanced once per completed pass. Ports and
//     nodes carry the generation at which they last changed, which is the
//     only history kept. "What changed since G" is a scan, not a replay.
//
// # Relationship with Other Components
//
//   - **Graph store:** calls TopologicalOrder while building and rejects
//     cyclic graphs.
//   - **Engine:** owns one Queue and one Generations per loaded graph and
//     drives node execution from them.
//
// Nothing in this package locks. Callers serialize access.
package scheduler
