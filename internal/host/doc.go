// Package host runs an engine on behalf of several concurrent callers.
//
// # Why Host Exists
//
// The engine is single-threaded by contract. A running process has more
// than one producer (the wall-clock tick loop, the remote control bridge,
// the graph-file watcher) and more than one consumer (output subscribers,
// snapshot readers). Runner serializes all of them behind one mutex and
// fans out the outputs each pass changed.
//
// Subscribers are called outside the lock, in subscription order, on the
// goroutine that produced the change. A subscriber may call back into the
// Runner.
package host
