package testutil

import (
	"fmt"
	"strings"

	"github.com/vk/nodeflowgo/internal/config"
	"github.com/vk/nodeflowgo/internal/value"
)

// DocBuilder assembles a config.Document fluently. Port methods apply to
// the most recently added node.
type DocBuilder struct {
	doc config.Document
}

// NewDoc starts an empty document.
func NewDoc() *DocBuilder {
	return &DocBuilder{}
}

// Node appends a node.
func (b *DocBuilder) Node(id, typ string) *DocBuilder {
	b.doc.Nodes = append(b.doc.Nodes, config.NodeSpec{ID: id, Type: typ})
	return b
}

func (b *DocBuilder) last() *config.NodeSpec {
	if len(b.doc.Nodes) == 0 {
		panic("testutil: port or parameter added before any node")
	}
	return &b.doc.Nodes[len(b.doc.Nodes)-1]
}

// In adds an input port to the current node.
func (b *DocBuilder) In(id, typ string) *DocBuilder {
	n := b.last()
	n.Inputs = append(n.Inputs, config.PortSpec{ID: id, Type: typ})
	return b
}

// Out adds an output port to the current node.
func (b *DocBuilder) Out(id, typ string) *DocBuilder {
	n := b.last()
	n.Outputs = append(n.Outputs, config.PortSpec{ID: id, Type: typ})
	return b
}

// Param sets a parameter on the current node.
func (b *DocBuilder) Param(name string, v value.Value) *DocBuilder {
	n := b.last()
	if n.Parameters == nil {
		n.Parameters = make(map[string]value.Value)
	}
	n.Parameters[name] = v
	return b
}

// Connect wires "node.port" to "node.port".
func (b *DocBuilder) Connect(from, to string) *DocBuilder {
	fn, fp := splitEndpoint(from)
	tn, tp := splitEndpoint(to)
	b.doc.Connections = append(b.doc.Connections, config.ConnectionSpec{
		FromNode: fn, FromPort: fp, ToNode: tn, ToPort: tp,
	})
	return b
}

// Build returns a copy of the assembled document.
func (b *DocBuilder) Build() *config.Document {
	return b.doc.Clone()
}

func splitEndpoint(s string) (string, string) {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		panic(fmt.Sprintf("testutil: endpoint %q is not node.port", s))
	}
	return s[:i], s[i+1:]
}

// TimerCounterDoc is a timer with the given interval feeding a counter,
// both int-typed.
func TimerCounterDoc(intervalMS int32) *config.Document {
	return NewDoc().
		Node("timer", "Timer").Out("out", "int").Param("interval_ms", value.IntValue(intervalMS)).
		Node("counter", "Counter").In("in", "int").Out("count", "int").
		Connect("timer.out", "counter.in").
		Build()
}

// BranchesDoc has two independent adder branches joined by a final adder:
//
//	a, c -> left  (a + c)  -+
//	b, k -> right (b + k)  -+-> total (left + right)
//
// a, b and c are device triggers, k is a Value node. Every port is double.
func BranchesDoc() *config.Document {
	return NewDoc().
		Node("a", "DeviceTrigger").Out("out", "double").Param("value", value.DoubleValue(1)).
		Node("b", "DeviceTrigger").Out("out", "double").Param("value", value.DoubleValue(2)).
		Node("c", "DeviceTrigger").Out("out", "double").Param("value", value.DoubleValue(3)).
		Node("k", "Value").Out("out", "double").Param("value", value.DoubleValue(10)).
		Node("left", "Add").In("x", "double").In("y", "double").Out("out", "double").
		Node("right", "Add").In("x", "double").In("y", "double").Out("out", "double").
		Node("total", "Add").In("l", "double").In("r", "double").Out("out", "double").
		Connect("a.out", "left.x").
		Connect("c.out", "left.y").
		Connect("b.out", "right.x").
		Connect("k.out", "right.y").
		Connect("left.out", "total.l").
		Connect("right.out", "total.r").
		Build()
}
