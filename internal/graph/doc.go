// Package graph builds the immutable, handle-indexed Graph Store of a flow
// graph from a config.Document.
//
// # Why Graph Package Exists
//
// Documents name everything with strings: nodes by id, ports by id and
// direction. Evaluation must not hash strings on its hot path, so the store
// resolves every name exactly once, at load time, into dense integers:
//   - **Node index:** position in document order.
//   - **Port handle:** one per (node, port, direction), assigned in discovery
//     order: for each node, its inputs then its outputs.
//   - **Adjacency:** a handle-indexed fan-out table (output handle to the
//     input handles it feeds), the single source of each input, and the
//     node-level dependents with multi-edges collapsed.
//   - **Order:** the topological order and each node's position in it.
//
// # Lifecycle
//
//  1. **Build:** parse types, assign handles, resolve and type-check
//     connections, check each node kind's type contract, compute the order.
//  2. **Use:** the engine reads the store by handle; only node parameters
//     change after Build, through the engine's control surface.
//  3. **Disposal:** a reload builds a new store and drops the old one whole.
//     Handles are never stable across loads.
//
// Any failure during Build is fatal: no partially valid store is returned.
//
// # Key Types
//
// **Store** (store.go): the built graph and its lookups.
//
// **CycleError** (errors.go): names the nodes Kahn's algorithm could not
// release.
package graph
