package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes all top-level blocks of a graph file. Anything else is
// left in Remain and ignored.
type fileRoot struct {
	Nodes       []*nodeBlock       `hcl:"node,block"`
	Connections []*connectionBlock `hcl:"connection,block"`
	Remain      hcl.Body           `hcl:",remain"`
}

type nodeBlock struct {
	Type       string         `hcl:"type,label"`
	ID         string         `hcl:"id,label"`
	Inputs     []*portBlock   `hcl:"input,block"`
	Outputs    []*portBlock   `hcl:"output,block"`
	Parameters hcl.Expression `hcl:"parameters,optional"`
}

type portBlock struct {
	ID   string `hcl:"id,label"`
	Type string `hcl:"type"`
}

type connectionBlock struct {
	FromNode string `hcl:"from_node"`
	FromPort string `hcl:"from_port"`
	ToNode   string `hcl:"to_node"`
	ToPort   string `hcl:"to_port"`
}
