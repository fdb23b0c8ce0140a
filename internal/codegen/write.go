package codegen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/nodeflowgo/internal/ctxlog"
	"github.com/vk/nodeflowgo/internal/graph"
)

// File is one generated artifact file.
type File struct {
	Name    string
	Content []byte
}

// Backend renders a Program into files named after base.
type Backend interface {
	Name() string
	Render(base string, p *Program) ([]File, error)
}

// Generate lowers s, renders it with backends and writes the files into
// dir. It returns the names of the files it rendered.
func Generate(ctx context.Context, s *graph.Store, dir, base string, backends ...Backend) ([]string, error) {
	p, err := Lower(s)
	if err != nil {
		return nil, fmt.Errorf("failed to lower graph: %w", err)
	}
	files, err := Render(ctx, base, p, backends...)
	if err != nil {
		return nil, err
	}
	if err := WriteFiles(ctx, dir, files); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return names, nil
}

// Render runs every backend over p. A backend that returns ErrUnsupported
// is skipped with a log line; any other error aborts.
func Render(ctx context.Context, base string, p *Program, backends ...Backend) ([]File, error) {
	logger := ctxlog.FromContext(ctx)
	var files []File
	for _, b := range backends {
		out, err := b.Render(base, p)
		if errors.Is(err, ErrUnsupported) {
			logger.Info("Backend skipped.", "backend", b.Name(), "reason", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("backend %s: %w", b.Name(), err)
		}
		logger.Debug("Backend rendered.", "backend", b.Name(), "files", len(out))
		files = append(files, out...)
	}
	return files, nil
}

// WriteFiles writes files into dir. Each file is staged next to its target
// and renamed into place once every file has been staged. If a target
// cannot be opened for writing, a warning is logged, nothing is written and
// the returned error is nil.
func WriteFiles(ctx context.Context, dir string, files []File) error {
	logger := ctxlog.FromContext(ctx)

	staged := make([]string, 0, len(files))
	cleanup := func() {
		for _, name := range staged {
			_ = os.Remove(name)
		}
	}

	for _, f := range files {
		tmp, err := os.CreateTemp(dir, "."+f.Name+".*")
		if err != nil {
			cleanup()
			logger.Warn("Cannot open artifact for writing, nothing written.", "dir", dir, "file", f.Name, "error", err)
			return nil
		}
		staged = append(staged, tmp.Name())
		if _, err := tmp.Write(f.Content); err != nil {
			_ = tmp.Close()
			cleanup()
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
		if err := tmp.Close(); err != nil {
			cleanup()
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}

	for i, f := range files {
		target := filepath.Join(dir, f.Name)
		if err := os.Rename(staged[i], target); err != nil {
			cleanup()
			logger.Warn("Cannot move artifact into place.", "file", target, "error", err)
			return nil
		}
		_ = os.Chmod(target, 0o644)
		logger.Debug("Artifact written.", "file", target, "bytes", len(f.Content))
	}
	logger.Info("Artifacts written.", "dir", dir, "files", len(files))
	return nil
}
