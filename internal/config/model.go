package config

import (
	"errors"
	"fmt"
	"maps"

	"github.com/go-playground/validator/v10"
	"github.com/vk/nodeflowgo/internal/value"
)

// ErrInvalidDocument wraps every structural validation failure.
var ErrInvalidDocument = errors.New("invalid graph document")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Document is the resolved shape of a graph description.
type Document struct {
	Nodes       []NodeSpec       `validate:"dive"`
	Connections []ConnectionSpec `validate:"dive"`
}

// NodeSpec declares one node. Port order is significant: the first output
// is the node's primary output and handles are assigned in declaration
// order.
type NodeSpec struct {
	ID         string     `validate:"required"`
	Type       string     `validate:"required"`
	Inputs     []PortSpec `validate:"dive"`
	Outputs    []PortSpec `validate:"dive"`
	Parameters map[string]value.Value
}

// PortSpec declares one port and its type name, e.g. "int" or "async_double".
type PortSpec struct {
	ID   string `validate:"required"`
	Type string `validate:"required"`
}

// ConnectionSpec wires an output port to an input port.
type ConnectionSpec struct {
	FromNode string `validate:"required"`
	FromPort string `validate:"required"`
	ToNode   string `validate:"required"`
	ToPort   string `validate:"required"`
}

// Validate reports missing required fields anywhere in the document.
func (d *Document) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}

// Node returns the declaration with the given id.
func (d *Document) Node(id string) (*NodeSpec, bool) {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy, so callers can edit parameters without
// touching a document that an engine was loaded from.
func (d *Document) Clone() *Document {
	out := &Document{
		Nodes:       make([]NodeSpec, len(d.Nodes)),
		Connections: append([]ConnectionSpec(nil), d.Connections...),
	}
	for i, n := range d.Nodes {
		n.Inputs = append([]PortSpec(nil), n.Inputs...)
		n.Outputs = append([]PortSpec(nil), n.Outputs...)
		n.Parameters = maps.Clone(n.Parameters)
		out.Nodes[i] = n
	}
	return out
}

// Merge concatenates documents in order. Duplicate node ids are not
// detected here; the graph store rejects them.
func Merge(docs ...*Document) *Document {
	out := &Document{}
	for _, d := range docs {
		if d == nil {
			continue
		}
		out.Nodes = append(out.Nodes, d.Nodes...)
		out.Connections = append(out.Connections, d.Connections...)
	}
	return out
}
