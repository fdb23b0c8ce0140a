package hcl

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/nodeflowgo/internal/config"
	"github.com/vk/nodeflowgo/internal/ctxlog"
	"github.com/vk/nodeflowgo/internal/value"
)

// translate converts the HCL-specific schema into the agnostic document.
func translate(ctx context.Context, root *fileRoot) (*config.Document, error) {
	doc := &config.Document{Nodes: make([]config.NodeSpec, 0, len(root.Nodes))}
	for _, nb := range root.Nodes {
		n := config.NodeSpec{
			ID:      nb.ID,
			Type:    nb.Type,
			Inputs:  translatePorts(nb.Inputs),
			Outputs: translatePorts(nb.Outputs),
		}
		params, err := translateParameters(ctx, nb.Parameters, nb.ID)
		if err != nil {
			return nil, err
		}
		n.Parameters = params
		doc.Nodes = append(doc.Nodes, n)
	}
	for _, cb := range root.Connections {
		doc.Connections = append(doc.Connections, config.ConnectionSpec(*cb))
	}
	return doc, nil
}

func translatePorts(blocks []*portBlock) []config.PortSpec {
	if len(blocks) == 0 {
		return nil
	}
	out := make([]config.PortSpec, len(blocks))
	for i, b := range blocks {
		out[i] = config.PortSpec(*b)
	}
	return out
}

// translateParameters evaluates the `parameters` object of a node.
func translateParameters(ctx context.Context, expr hcl.Expression, nodeID string) (map[string]value.Value, error) {
	if !isExprDefined(ctx, expr, "parameters") {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("node %q: invalid parameters: %w", nodeID, diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("node %q: parameters must be an object, got %s", nodeID, ty.FriendlyName())
	}

	raw := val.AsValueMap()
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make(map[string]value.Value, len(raw))
	for _, k := range keys {
		v, err := value.FromCty(raw[k])
		if err != nil {
			return nil, fmt.Errorf("node %q parameter %q: %w", nodeID, k, err)
		}
		params[k] = v
	}
	return params, nil
}

// isExprDefined reports whether an optional attribute was actually written
// in the source. gohcl fills omitted optional expressions with a zero-width
// placeholder, so a nil check is not enough.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	rng := expr.Range()
	defined := rng.End.Byte > rng.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checked optional HCL attribute.", "attribute", attrName, "hcl_range", rng.String(), "is_defined", defined)
	return defined
}
