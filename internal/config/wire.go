package config

import (
	"fmt"

	"github.com/vk/nodeflowgo/internal/value"
)

// wireDocument is the on-disk shape shared by the JSON and YAML encodings.
// Unknown keys (editor layout, comments) are ignored.
type wireDocument struct {
	Nodes       []wireNode       `json:"nodes" yaml:"nodes"`
	Connections []wireConnection `json:"connections" yaml:"connections"`
}

type wireNode struct {
	ID         string         `json:"id" yaml:"id"`
	Type       string         `json:"type" yaml:"type"`
	Inputs     []wirePort     `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs    []wirePort     `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

type wirePort struct {
	ID   string `json:"id" yaml:"id"`
	Type string `json:"type" yaml:"type"`
}

type wireConnection struct {
	FromNode string `json:"fromNode" yaml:"fromNode"`
	FromPort string `json:"fromPort" yaml:"fromPort"`
	ToNode   string `json:"toNode" yaml:"toNode"`
	ToPort   string `json:"toPort" yaml:"toPort"`
}

func (w *wireDocument) translate() (*Document, error) {
	doc := &Document{Nodes: make([]NodeSpec, 0, len(w.Nodes))}
	for _, wn := range w.Nodes {
		n := NodeSpec{
			ID:      wn.ID,
			Type:    wn.Type,
			Inputs:  translatePorts(wn.Inputs),
			Outputs: translatePorts(wn.Outputs),
		}
		if len(wn.Parameters) > 0 {
			n.Parameters = make(map[string]value.Value, len(wn.Parameters))
			for k, raw := range wn.Parameters {
				v, err := value.FromAny(raw)
				if err != nil {
					return nil, fmt.Errorf("node %q parameter %q: %w", wn.ID, k, err)
				}
				n.Parameters[k] = v
			}
		}
		doc.Nodes = append(doc.Nodes, n)
	}
	for _, wc := range w.Connections {
		doc.Connections = append(doc.Connections, ConnectionSpec(wc))
	}
	return doc, nil
}

func translatePorts(in []wirePort) []PortSpec {
	if len(in) == 0 {
		return nil
	}
	out := make([]PortSpec, len(in))
	for i, p := range in {
		out[i] = PortSpec(p)
	}
	return out
}

func toWire(d *Document) *wireDocument {
	w := &wireDocument{
		Nodes:       make([]wireNode, 0, len(d.Nodes)),
		Connections: make([]wireConnection, 0, len(d.Connections)),
	}
	for _, n := range d.Nodes {
		wn := wireNode{ID: n.ID, Type: n.Type}
		for _, p := range n.Inputs {
			wn.Inputs = append(wn.Inputs, wirePort(p))
		}
		for _, p := range n.Outputs {
			wn.Outputs = append(wn.Outputs, wirePort(p))
		}
		if len(n.Parameters) > 0 {
			wn.Parameters = make(map[string]any, len(n.Parameters))
			for k, v := range n.Parameters {
				wn.Parameters[k] = value.ToAny(v)
			}
		}
		w.Nodes = append(w.Nodes, wn)
	}
	for _, c := range d.Connections {
		w.Connections = append(w.Connections, wireConnection(c))
	}
	return w
}
