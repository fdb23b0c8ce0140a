// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle, decoupled
// from any specific entrypoint like a CLI or server.
//
// # Why App Exists
//
// A running nodeflow process is more than an engine: a tick loop, a file
// watcher, a remote bridge and an HTTP server all share one graph. App owns
// their wiring and lifetime so that entrypoints only parse arguments.
package app
