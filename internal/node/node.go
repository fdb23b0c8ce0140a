package node

import (
	"fmt"

	"github.com/vk/nodeflowgo/internal/value"
)

// Handle addresses one (node, port, direction) triple of a loaded graph.
// Handles are dense, start at zero and are only valid for the load that
// assigned them.
type Handle int32

// NoHandle marks an absent port, e.g. the source of an unconnected input.
const NoHandle Handle = -1

// Direction of a port.
type Direction uint8

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Port is one entry of the handle table.
type Port struct {
	Handle Handle
	Node   int
	ID     string
	Dir    Direction
	Type   value.Type
}

// Key renders the port the way diagnostics name it: node.port.
func (p *Port) Key(nodeID string) string {
	return fmt.Sprintf("%s.%s", nodeID, p.ID)
}

// Parameter names understood by the built-in kinds.
const (
	ParamValue       = "value"
	ParamKey         = "key"
	ParamMinInterval = "min_interval"
	ParamMaxInterval = "max_interval"
	ParamIntervalMS  = "interval_ms"
)

// DefaultIntervalMS applies to Timer nodes without an interval_ms parameter.
const DefaultIntervalMS = 1000

// Node is one vertex of a loaded graph.
type Node struct {
	// Index is the node's position in document order.
	Index    int
	ID       string
	TypeName string
	Kind     Kind
	Inputs   []Handle
	Outputs  []Handle
	Params   map[string]value.Value
}

// Primary returns the node's first declared output, the port whose changes
// define the node-level generation stamp.
func (n *Node) Primary() (Handle, bool) {
	if len(n.Outputs) == 0 {
		return NoHandle, false
	}
	return n.Outputs[0], true
}

// Param returns a parameter by name.
func (n *Node) Param(name string) (value.Value, bool) {
	v, ok := n.Params[name]
	return v, ok
}

// SetParam replaces a parameter, allocating the bag on first use.
func (n *Node) SetParam(name string, v value.Value) {
	if n.Params == nil {
		n.Params = make(map[string]value.Value)
	}
	n.Params[name] = v
}

// IntervalMS is the Timer period. A missing parameter means
// DefaultIntervalMS; a string parameter reads as zero, which never fires.
func (n *Node) IntervalMS() float64 {
	v, ok := n.Params[ParamIntervalMS]
	if !ok {
		return DefaultIntervalMS
	}
	return v.Number()
}
