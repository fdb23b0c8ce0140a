// Package codegen lowers a built graph into a standalone stepping artifact
// that reproduces the engine's evaluation without the engine.
//
// # Why Codegen Exists
//
// Some hosts cannot embed the interpreter: a microcontroller loop, a plugin
// with a fixed C ABI, or a build that wants the graph frozen at compile
// time. For those, the graph is compiled ahead of time:
//   - **Lowering:** Lower turns a graph.Store into a Program, a flat,
//     backend-neutral list of operations in topological order plus the
//     input, output and state slots a host binds against.
//   - **Portable backend:** renders the Program as a C99 header and source
//     pair. Inputs, outputs and timer/counter state are plain structs; the
//     step function recomputes every node into locals and writes the sinks.
//     Descriptor tables let a generic host bind fields by node id.
//   - **Host backend:** renders a small stdin-driven main for the portable
//     artifact, used to compare the artifact with the interpreter.
//   - **IR backend:** renders the stateless float/double subset of a graph
//     as a single-block LLVM IR function. Graphs outside that subset are
//     rejected with ErrUnsupported and callers keep the portable artifact.
//
// # Semantics
//
// Generated code follows the engine bit for bit: int sums wrap, float sums
// accumulate in single precision from zero, conversions truncate toward
// zero and saturate where C would be undefined, and a tick advances every
// timer before the step runs so counters see the edge in the same cycle.
package codegen
