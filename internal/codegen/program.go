package codegen

import (
	"errors"
	"fmt"

	"github.com/vk/nodeflowgo/internal/graph"
	"github.com/vk/nodeflowgo/internal/node"
	"github.com/vk/nodeflowgo/internal/value"
)

// ErrUnsupported is returned when a backend cannot express a graph.
var ErrUnsupported = errors.New("graph not supported by backend")

// PortDesc describes one port of the lowered graph.
type PortDesc struct {
	Handle node.Handle
	NodeID string
	PortID string
	Output bool
	Type   value.Type
}

// Field is a member of the generated input or output struct.
type Field struct {
	// Name is the C identifier of the member.
	Name   string
	NodeID string
	// Handle is the node's primary output.
	Handle node.Handle
	Kind   value.Kind
	// Init is the initial value of an input field.
	Init value.Value
}

// Slot is the persistent state of one Timer or Counter.
type Slot struct {
	Name   string
	NodeID string
	// IntervalMS is the period of a timer slot.
	IntervalMS float64
}

// Operand is one port of an operation.
type Operand struct {
	Handle node.Handle
	Kind   value.Kind
	// Source is the output feeding an input, or node.NoHandle.
	Source     node.Handle
	SourceKind value.Kind
}

// Op computes one node.
type Op struct {
	Node    int
	NodeID  string
	Kind    node.Kind
	Inputs  []Operand
	Outputs []Operand
	// Const is the value parameter of a Value node, when HasConst.
	Const    value.Value
	HasConst bool
	// Field indexes Program.Inputs for a DeviceTrigger and Slot indexes
	// Program.Timers or Program.Counters; both are -1 otherwise.
	Field int
	Slot  int
}

// Program is a graph lowered for code generation.
type Program struct {
	Ports    []PortDesc
	Order    []int
	Inputs   []Field
	Outputs  []Field
	Timers   []Slot
	Counters []Slot
	// Ops are in topological order.
	Ops []Op
}

// Lower builds the Program of s. Add and Counter nodes without the ports
// they need fail here instead of at run time.
func Lower(s *graph.Store) (*Program, error) {
	p := &Program{Order: s.Order()}

	for _, port := range s.Ports() {
		p.Ports = append(p.Ports, PortDesc{
			Handle: port.Handle,
			NodeID: s.Node(port.Node).ID,
			PortID: port.ID,
			Output: port.Dir == node.Output,
			Type:   port.Type,
		})
	}

	inputs, state := newNamer(), newNamer()
	for _, i := range s.Order() {
		n := s.Node(i)
		op := Op{Node: i, NodeID: n.ID, Kind: n.Kind, Field: -1, Slot: -1}
		for _, h := range n.Inputs {
			o := Operand{Handle: h, Kind: s.Type(h).Kind, Source: s.Source(h)}
			if o.Source != node.NoHandle {
				o.SourceKind = s.Type(o.Source).Kind
			}
			op.Inputs = append(op.Inputs, o)
		}
		for _, h := range n.Outputs {
			op.Outputs = append(op.Outputs, Operand{Handle: h, Kind: s.Type(h).Kind, Source: node.NoHandle})
		}

		switch n.Kind {
		case node.KindValue:
			op.Const, op.HasConst = n.Param(node.ParamValue)
		case node.KindDeviceTrigger:
			if len(n.Outputs) == 0 {
				break
			}
			k := s.Type(n.Outputs[0]).Kind
			init := value.Zero(k)
			if v, ok := n.Param(node.ParamValue); ok {
				init = value.Coerce(v, k)
			}
			op.Field = len(p.Inputs)
			p.Inputs = append(p.Inputs, Field{
				Name:   inputs.name(n.ID),
				NodeID: n.ID,
				Handle: n.Outputs[0],
				Kind:   k,
				Init:   init,
			})
		case node.KindAdd:
			if len(n.Inputs) == 0 || len(n.Outputs) == 0 {
				return nil, fmt.Errorf("%w: Add node %q needs at least one input and one output", node.ErrMisconfigured, n.ID)
			}
		case node.KindTimer:
			op.Slot = len(p.Timers)
			p.Timers = append(p.Timers, Slot{Name: state.name(n.ID), NodeID: n.ID, IntervalMS: n.IntervalMS()})
		case node.KindCounter:
			if len(n.Inputs) == 0 || len(n.Outputs) == 0 {
				return nil, fmt.Errorf("%w: Counter node %q needs at least one input and one output", node.ErrMisconfigured, n.ID)
			}
			op.Slot = len(p.Counters)
			p.Counters = append(p.Counters, Slot{Name: state.name(n.ID), NodeID: n.ID})
		case node.KindUnknown:
		}
		p.Ops = append(p.Ops, op)
	}

	outputs := newNamer()
	for _, i := range s.Sinks() {
		n := s.Node(i)
		h := n.Outputs[0]
		p.Outputs = append(p.Outputs, Field{
			Name:   outputs.name(n.ID),
			NodeID: n.ID,
			Handle: h,
			Kind:   s.Type(h).Kind,
		})
	}
	return p, nil
}

// Kinds returns every value kind used by a port of p.
func (p *Program) Kinds() map[value.Kind]bool {
	kinds := make(map[value.Kind]bool)
	for _, d := range p.Ports {
		kinds[d.Type.Kind] = true
	}
	return kinds
}

// NodeKinds returns every node kind present in p.
func (p *Program) NodeKinds() map[node.Kind]bool {
	kinds := make(map[node.Kind]bool)
	for _, op := range p.Ops {
		kinds[op.Kind] = true
	}
	return kinds
}
