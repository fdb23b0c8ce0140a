// Package hcl provides the HCL encoding of graph documents: a config.Loader
// that parses `.hcl` files (or directories of them) into the
// format-agnostic config.Document, and a writer that renders a document back
// to HCL.
//
// A node is declared with its type and id as labels:
//
//	node "Add" "sum" {
//	  input "a" { type = "int" }
//	  input "b" { type = "int" }
//	  output "out" { type = "int" }
//	}
//
//	node "Timer" "tick" {
//	  output "out" { type = "int" }
//	  parameters = { interval_ms = 100 }
//	}
//
//	connection {
//	  from_node = "tick"
//	  from_port = "out"
//	  to_node   = "sum"
//	  to_port   = "a"
//	}
//
// Parameters are evaluated without variables or functions; each entry must
// be a number, bool or string.
package hcl
