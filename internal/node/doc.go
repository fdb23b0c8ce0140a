// Package node defines the arena entities of a loaded flow graph (nodes and
// ports addressed by dense integer handles) and the execution semantics of
// every node kind.
//
// Nodes never reference each other by name at run time. A Node lists the
// Handles of its input and output ports; the engine owns the handle-indexed
// value table and exposes it to Execute through the Env interface. Per-node
// mutable state for Timer and Counter nodes lives in a State, indexed by the
// node's position in the store.
package node
