package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/vk/nodeflowgo/internal/codegen"
	"github.com/vk/nodeflowgo/internal/ctxlog"
	"github.com/vk/nodeflowgo/internal/engine"
	"github.com/vk/nodeflowgo/internal/graph"
	"github.com/vk/nodeflowgo/internal/host"
	"github.com/vk/nodeflowgo/internal/metrics"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	runner   *host.Runner
	metrics  *metrics.Registry
	backends []codegen.Backend

	mu         sync.Mutex
	httpServer *http.Server
	httpAddr   string
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, metrics
// registry and engine. No graph is loaded until Run.
func NewApp(outW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	mode, err := engine.ParsePropagationMode(cfg.Propagation)
	if err != nil {
		return nil, err
	}
	backends, err := Backends(cfg.CodegenBackends)
	if err != nil {
		return nil, err
	}

	reg := metrics.NewRegistry()
	e := engine.New(engine.WithPropagation(mode), engine.WithObserver(metrics.NewObserver(reg)))
	runner := host.New(e, host.WithTickInterval(cfg.TickInterval))
	logger.Debug("Engine created.", "propagation", mode.String(), "tick_interval", cfg.TickInterval)

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		runner:   runner,
		metrics:  reg,
		backends: backends,
	}, nil
}

// Runner returns the application's host runner. This is primarily for testing.
func (a *App) Runner() *host.Runner { return a.runner }

// Metrics returns the application's metrics registry.
func (a *App) Metrics() *metrics.Registry { return a.metrics }

// Context returns ctx carrying the application's logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Reload reads the configured graph and swaps it into the runner. A graph
// that fails to build or whose first pass fails leaves the running one in
// place. Artifacts are regenerated from the same store when a codegen
// directory is configured.
func (a *App) Reload(ctx context.Context, changed []string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading graph.", "path", a.config.GraphPath, "changed", changed)

	doc, err := LoadDocument(ctx, a.config.GraphPath)
	if err != nil {
		return err
	}
	store, err := graph.Build(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}
	if err := a.runner.LoadStore(ctx, store); err != nil {
		return err
	}

	if a.config.CodegenDir != "" {
		names, err := codegen.Generate(ctx, store, a.config.CodegenDir, a.config.CodegenBase, a.backends...)
		if err != nil {
			logger.Warn("Code generation failed.", "error", err)
		} else {
			logger.Debug("Artifacts regenerated.", "files", names)
		}
	}
	return nil
}
