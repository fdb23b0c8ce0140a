// Package config defines the format-agnostic graph document, the Loader
// interface implemented by every document encoding, and the JSON and YAML
// encodings themselves.
//
// A `config.Document` is the single input of `graph.Build`. It carries node
// declarations (id, type, typed input and output ports, scalar parameters)
// and connections between output and input ports, already converted into
// `value.Value` parameters. Structural problems that only need the document
// itself (missing ids, missing types) are reported here; everything that
// needs cross-references (unresolved ports, type mismatches, cycles) is the
// graph store's job.
//
// The HCL encoding lives in the `hcl` package.
package config
