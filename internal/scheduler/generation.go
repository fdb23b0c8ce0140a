package scheduler

// Generations tracks the pass counter and the last-changed stamps of every
// port and node. The counter survives Reset, so stamps taken before a
// reload never look newer than stamps taken after it.
type Generations struct {
	current uint64
	ports   []uint64
	nodes   []uint64
}

// Reset resizes the stamp tables for a newly loaded graph and zeroes them.
func (g *Generations) Reset(numPorts, numNodes int) {
	g.ports = make([]uint64, numPorts)
	g.nodes = make([]uint64, numNodes)
}

// Current is the generation of the last completed pass.
func (g *Generations) Current() uint64 { return g.current }

// Pending is the generation the pass in progress will complete as.
func (g *Generations) Pending() uint64 { return g.current + 1 }

// Advance completes a pass.
func (g *Generations) Advance() uint64 {
	g.current++
	return g.current
}

// StampPort records that port h changed in the pending pass.
func (g *Generations) StampPort(h int) { g.ports[h] = g.Pending() }

// StampNode records that node n's primary output changed in the pending
// pass.
func (g *Generations) StampNode(n int) { g.nodes[n] = g.Pending() }

// Port returns the generation at which port h last changed, zero if never.
func (g *Generations) Port(h int) uint64 { return g.ports[h] }

// Node returns the generation at which node n last changed, zero if never.
func (g *Generations) Node(n int) uint64 { return g.nodes[n] }
