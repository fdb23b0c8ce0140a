package engine

import (
	"fmt"

	"github.com/vk/nodeflowgo/internal/node"
	"github.com/vk/nodeflowgo/internal/value"
)

// NodeOutput is a node's primary output as reported by OutputsChangedSince.
type NodeOutput struct {
	NodeID     string
	PortID     string
	Value      value.Value
	Generation uint64
}

// PortDelta is one port as reported by PortDeltasSince.
type PortDelta struct {
	Handle     node.Handle
	NodeID     string
	PortID     string
	Dir        node.Direction
	Value      value.Value
	Generation uint64
}

// Generation is the generation of the last completed pass.
func (e *Engine) Generation() uint64 { return e.gens.Current() }

// BeginSnapshot returns the current generation, to be handed to
// OutputsChangedSince or PortDeltasSince after later passes.
func (e *Engine) BeginSnapshot() uint64 { return e.gens.Current() }

// OutputsChangedSince lists, in topological order, every node whose primary
// output changed in a pass completed after generation g.
func (e *Engine) OutputsChangedSince(g uint64) []NodeOutput {
	if e.store == nil {
		return nil
	}
	var out []NodeOutput
	for _, i := range e.store.Order() {
		gen := e.gens.Node(i)
		if gen <= g {
			continue
		}
		n := e.store.Node(i)
		h, _ := n.Primary()
		out = append(out, NodeOutput{
			NodeID:     n.ID,
			PortID:     e.store.Port(h).ID,
			Value:      e.values[h],
			Generation: gen,
		})
	}
	return out
}

// PrimaryOutputs lists the primary output of every node that has one, in
// topological order, whether or not it ever changed.
func (e *Engine) PrimaryOutputs() []NodeOutput {
	if e.store == nil {
		return nil
	}
	out := make([]NodeOutput, 0, e.store.NumNodes())
	for _, i := range e.store.Order() {
		n := e.store.Node(i)
		h, ok := n.Primary()
		if !ok {
			continue
		}
		out = append(out, NodeOutput{
			NodeID:     n.ID,
			PortID:     e.store.Port(h).ID,
			Value:      e.values[h],
			Generation: e.gens.Node(i),
		})
	}
	return out
}

// PortDeltasSince lists, in handle order, every port whose value changed in
// a pass completed after generation g.
func (e *Engine) PortDeltasSince(g uint64) []PortDelta {
	if e.store == nil {
		return nil
	}
	var out []PortDelta
	for i, p := range e.store.Ports() {
		gen := e.gens.Port(i)
		if gen <= g {
			continue
		}
		out = append(out, PortDelta{
			Handle:     p.Handle,
			NodeID:     e.store.Node(p.Node).ID,
			PortID:     p.ID,
			Dir:        p.Dir,
			Value:      e.values[i],
			Generation: gen,
		})
	}
	return out
}

// PortValue returns the current value of handle h.
func (e *Engine) PortValue(h node.Handle) (value.Value, error) {
	if e.store == nil {
		return value.Value{}, ErrNotLoaded
	}
	if h < 0 || int(h) >= len(e.values) {
		return value.Value{}, fmt.Errorf("%w: handle %d", ErrInvalidArgument, h)
	}
	return e.values[h], nil
}

// Handle resolves a port of the loaded graph.
func (e *Engine) Handle(nodeID, portID string, dir node.Direction) (node.Handle, error) {
	if e.store == nil {
		return node.NoHandle, ErrNotLoaded
	}
	h, ok := e.store.Handle(nodeID, portID, dir)
	if !ok {
		return node.NoHandle, fmt.Errorf("%w: %s %s.%s", ErrUnknownNode, dir, nodeID, portID)
	}
	return h, nil
}

// Output returns the current value of an output port.
func (e *Engine) Output(nodeID, portID string) (value.Value, error) {
	h, err := e.Handle(nodeID, portID, node.Output)
	if err != nil {
		return value.Value{}, err
	}
	return e.values[h], nil
}

// Outputs returns every output port value keyed by node id, then port id.
func (e *Engine) Outputs() map[string]map[string]value.Value {
	if e.store == nil {
		return nil
	}
	out := make(map[string]map[string]value.Value, e.store.NumNodes())
	for _, i := range e.store.Order() {
		n := e.store.Node(i)
		if len(n.Outputs) == 0 {
			continue
		}
		ports := make(map[string]value.Value, len(n.Outputs))
		for _, h := range n.Outputs {
			ports[e.store.Port(h).ID] = e.values[h]
		}
		out[n.ID] = ports
	}
	return out
}

// Order returns node ids in topological order.
func (e *Engine) Order() []string {
	if e.store == nil {
		return nil
	}
	ids := make([]string, 0, e.store.NumNodes())
	for _, i := range e.store.Order() {
		ids = append(ids, e.store.Node(i).ID)
	}
	return ids
}

// NodeGeneration returns the generation at which node id's primary output
// last changed.
func (e *Engine) NodeGeneration(id string) (uint64, error) {
	n, err := e.lookup(id)
	if err != nil {
		return 0, err
	}
	return e.gens.Node(n.Index), nil
}

// PortGeneration returns the generation at which handle h last changed.
func (e *Engine) PortGeneration(h node.Handle) (uint64, error) {
	if _, err := e.PortValue(h); err != nil {
		return 0, err
	}
	return e.gens.Port(int(h)), nil
}

// TimerAccumulator returns the elapsed milliseconds a Timer has carried
// since its last pulse.
func (e *Engine) TimerAccumulator(id string) (float64, error) {
	n, err := e.lookup(id)
	if err != nil {
		return 0, err
	}
	if n.Kind != node.KindTimer {
		return 0, fmt.Errorf("%w: %q is a %s node", ErrInvalidArgument, id, n.Kind)
	}
	return e.state.Timers[n.Index].Accumulated, nil
}

// CounterValue returns a Counter's running total.
func (e *Engine) CounterValue(id string) (int64, error) {
	n, err := e.lookup(id)
	if err != nil {
		return 0, err
	}
	if n.Kind != node.KindCounter {
		return 0, fmt.Errorf("%w: %q is a %s node", ErrInvalidArgument, id, n.Kind)
	}
	return e.state.Counters[n.Index].Count, nil
}

// QueueDepth returns the number of nodes waiting for the next pass.
func (e *Engine) QueueDepth() int {
	if e.queue == nil {
		return 0
	}
	return e.queue.Len()
}

// Ports returns the port table of the loaded graph, indexed by handle.
func (e *Engine) Ports() []node.Port {
	if e.store == nil {
		return nil
	}
	return e.store.Ports()
}
