// Package watch reloads a graph when its source files change on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vk/nodeflowgo/internal/ctxlog"
	"github.com/vk/nodeflowgo/internal/fsutil"
)

// DefaultDebounce collapses the burst of events a single editor save
// produces into one reload.
const DefaultDebounce = 100 * time.Millisecond

// DefaultExtensions are the graph document extensions watched inside a
// directory.
var DefaultExtensions = []string{".hcl", ".json", ".yaml", ".yml"}

// ReloadFunc is called once per settled batch of changes.
type ReloadFunc func(ctx context.Context, changed []string) error

// Options tunes a Watcher.
type Options struct {
	Debounce   time.Duration
	Extensions []string
}

// Watcher observes graph files and calls a ReloadFunc after they change.
//
// A file path is watched through its parent directory so that editors
// that save by rename are still seen. A directory path is watched for
// files with one of the configured extensions.
type Watcher struct {
	fs       *fsnotify.Watcher
	reload   ReloadFunc
	debounce time.Duration
	exts     []string

	// files holds explicitly watched files; dirs holds watched directories
	// whose matching files all count.
	files map[string]bool
	dirs  map[string]bool

	pending map[string]bool
}

// New sets up watches for paths. Close releases them if Run is never
// called.
func New(paths []string, reload ReloadFunc, opts *Options) (*Watcher, error) {
	if opts == nil {
		opts = &Options{}
	}
	w := &Watcher{
		reload:   reload,
		debounce: opts.Debounce,
		exts:     opts.Extensions,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		pending:  make(map[string]bool),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if len(w.exts) == 0 {
		w.exts = DefaultExtensions
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fs = fsw

	for _, p := range paths {
		if err := w.add(p); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	dir := abs
	if info.IsDir() {
		w.dirs[abs] = true
	} else {
		w.files[abs] = true
		dir = filepath.Dir(abs)
	}
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return nil
}

// relevant reports whether an event on name should trigger a reload.
func (w *Watcher) relevant(name string) bool {
	if w.files[name] {
		return true
	}
	return w.dirs[filepath.Dir(name)] && fsutil.HasExtension(name, w.exts...)
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run delivers debounced reloads until ctx is done, then closes the
// watcher. A failing reload is logged and watching goes on.
func (w *Watcher) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("component", "watch")
	defer w.fs.Close()

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			name := filepath.Clean(event.Name)
			if !w.relevant(name) {
				continue
			}
			logger.Debug("Graph file changed.", "path", name, "op", event.Op.String())

			w.pending[name] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer, timerC = nil, nil
			changed := w.drain()
			logger.Info("Reloading graph.", "changed", changed)
			if err := w.reload(ctx, changed); err != nil {
				logger.Warn("Reload failed, keeping the running graph.", "error", err)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error.", "error", err)
		}
	}
}

func (w *Watcher) drain() []string {
	out := make([]string, 0, len(w.pending))
	for p := range w.pending {
		out = append(out, p)
	}
	clear(w.pending)
	slices.Sort(out)
	return out
}
