// Package engine is the interpreter of a loaded flow graph. It owns the
// handle-indexed port-value table, the per-node runtime state and the
// scheduler bookkeeping, and exposes the control surface a host drives:
// Load, Evaluate, Tick, parameter updates and change queries.
//
// # Passes
//
// The first Evaluate after a Load is a cold pass. Every output is copied to
// the inputs it feeds, then every node runs exactly once in topological
// order and its outputs are propagated right after it runs.
//
// Later calls are warm passes. Only nodes in the ready queue run, lowest
// topological index first. When a node's output changes, the new value is
// copied to its consumers and the consumers are queued. Values are copied
// with coercion to the consumer's declared type, and an input that did not
// change does not wake its node. Which outputs count as a change is set by
// the engine's PropagationMode.
//
// Every completed pass advances the generation by one. Ports and nodes
// are stamped with the generation of the pass that changed them, so
// BeginSnapshot followed by OutputsChangedSince or PortDeltasSince gives
// the values that changed in between.
//
// # Concurrency
//
// An Engine performs no locking and spawns no goroutines. Calls must be
// serialized by the caller; see the host package for a mutex-guarded
// runner.
package engine
