package config

import "context"

// Loader is the interface for a format-specific document loader.
type Loader interface {
	// Load reads every given path, translates the content into the
	// format-agnostic document, and merges the results in path order.
	Load(ctx context.Context, paths ...string) (*Document, error)
}
