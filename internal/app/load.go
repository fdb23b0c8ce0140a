package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/nodeflowgo/internal/config"
	"github.com/vk/nodeflowgo/internal/ctxlog"
	"github.com/vk/nodeflowgo/internal/fsutil"
	"github.com/vk/nodeflowgo/internal/hcl"
)

// loaders maps a graph file extension to the loader for its format.
var loaders = map[string]config.Loader{
	".hcl":  hcl.NewLoader(),
	".json": config.NewJSONLoader(),
	".yaml": config.NewYAMLLoader(),
	".yml":  config.NewYAMLLoader(),
}

// LoaderFor returns the loader matching path's extension.
func LoaderFor(path string) (config.Loader, error) {
	l, ok := loaders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("unsupported graph file %q: want .hcl, .json, .yaml or .yml", path)
	}
	return l, nil
}

// LoadDocument reads the graph document at path. A directory is walked
// for graph files of every supported format, which are merged in the
// order hcl, json, yaml.
func LoadDocument(ctx context.Context, path string) (*config.Document, error) {
	logger := ctxlog.FromContext(ctx)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	if !info.IsDir() {
		l, err := LoaderFor(path)
		if err != nil {
			return nil, err
		}
		return l.Load(ctx, path)
	}

	groups := []struct {
		loader config.Loader
		exts   []string
	}{
		{loaders[".hcl"], []string{".hcl"}},
		{loaders[".json"], []string{".json"}},
		{loaders[".yaml"], []string{".yaml", ".yml"}},
	}
	var docs []*config.Document
	for _, g := range groups {
		files, err := fsutil.FindFilesByExtension(path, g.exts...)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", path, err)
		}
		if len(files) == 0 {
			continue
		}
		doc, err := g.loader.Load(ctx, files...)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no graph files found in %s", path)
	}

	merged := config.Merge(docs...)
	logger.Debug("Graph directory loaded.", "path", path, "nodes", len(merged.Nodes), "connections", len(merged.Connections))
	return merged, nil
}
