package hcl

import (
	"io"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/nodeflowgo/internal/config"
	"github.com/vk/nodeflowgo/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// Write renders d as HCL that Loader reads back into an equivalent
// document. Parameters of kind Double that hold whole numbers come back as
// Int; consumers coerce them to the declared port type anyway.
func Write(w io.Writer, d *config.Document) error {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	for i, n := range d.Nodes {
		if i > 0 {
			body.AppendNewline()
		}
		block := body.AppendNewBlock("node", []string{n.Type, n.ID})
		nb := block.Body()
		for _, p := range n.Inputs {
			nb.AppendNewBlock("input", []string{p.ID}).Body().SetAttributeValue("type", cty.StringVal(p.Type))
		}
		for _, p := range n.Outputs {
			nb.AppendNewBlock("output", []string{p.ID}).Body().SetAttributeValue("type", cty.StringVal(p.Type))
		}
		if len(n.Parameters) > 0 {
			attrs := make(map[string]cty.Value, len(n.Parameters))
			for k, v := range n.Parameters {
				attrs[k] = value.ToCty(v)
			}
			nb.SetAttributeValue("parameters", cty.ObjectVal(attrs))
		}
	}

	for _, c := range d.Connections {
		body.AppendNewline()
		cb := body.AppendNewBlock("connection", nil).Body()
		cb.SetAttributeValue("from_node", cty.StringVal(c.FromNode))
		cb.SetAttributeValue("from_port", cty.StringVal(c.FromPort))
		cb.SetAttributeValue("to_node", cty.StringVal(c.ToNode))
		cb.SetAttributeValue("to_port", cty.StringVal(c.ToPort))
	}

	_, err := w.Write(f.Bytes())
	return err
}
