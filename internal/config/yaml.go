package config

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLLoader loads graph documents encoded as YAML, using the same keys as
// the JSON encoding.
type YAMLLoader struct{}

// NewYAMLLoader creates a new YAML document loader.
func NewYAMLLoader() *YAMLLoader {
	return &YAMLLoader{}
}

// Load implements Loader.
func (l *YAMLLoader) Load(ctx context.Context, paths ...string) (*Document, error) {
	return loadFiles(ctx, "yaml", DecodeYAML, paths)
}

// DecodeYAML reads one YAML document. An empty stream is an empty document.
func DecodeYAML(r io.Reader) (*Document, error) {
	var w wireDocument
	if err := yaml.NewDecoder(r).Decode(&w); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode YAML document: %w", err)
	}
	return w.translate()
}

// WriteYAML encodes d as YAML.
func WriteYAML(out io.Writer, d *Document) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(toWire(d)); err != nil {
		return fmt.Errorf("failed to encode YAML document: %w", err)
	}
	return enc.Close()
}
