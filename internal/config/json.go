package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/vk/nodeflowgo/internal/ctxlog"
)

// JSONLoader loads graph documents encoded as JSON.
type JSONLoader struct{}

// NewJSONLoader creates a new JSON document loader.
func NewJSONLoader() *JSONLoader {
	return &JSONLoader{}
}

// Load implements Loader.
func (l *JSONLoader) Load(ctx context.Context, paths ...string) (*Document, error) {
	return loadFiles(ctx, "json", DecodeJSON, paths)
}

// DecodeJSON reads one JSON document. Numbers are decoded losslessly so
// integers and non-integers map onto Int and Double parameters.
func DecodeJSON(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var w wireDocument
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("failed to decode JSON document: %w", err)
	}
	return w.translate()
}

// WriteJSON encodes d as indented JSON.
func WriteJSON(out io.Writer, d *Document) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toWire(d)); err != nil {
		return fmt.Errorf("failed to encode JSON document: %w", err)
	}
	_, err := out.Write(buf.Bytes())
	return err
}

type decodeFunc func(io.Reader) (*Document, error)

// loadFiles decodes each path with decode, merges the results and validates
// the merged document.
func loadFiles(ctx context.Context, format string, decode decodeFunc, paths []string) (*Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Document loader started.", "format", format, "path_count", len(paths))

	docs := make([]*Document, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		doc, err := decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		logger.Debug("Document file decoded.", "path", path, "nodes", len(doc.Nodes), "connections", len(doc.Connections))
		docs = append(docs, doc)
	}

	merged := Merge(docs...)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("Document loading complete.", "nodes", len(merged.Nodes), "connections", len(merged.Connections))
	return merged, nil
}
