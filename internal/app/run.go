package app

import (
	"context"
	"fmt"

	"github.com/vk/nodeflowgo/internal/remote"
	"github.com/vk/nodeflowgo/internal/watch"
	"golang.org/x/sync/errgroup"
)

// Run loads the graph and drives it until ctx is cancelled or a component
// fails: the tick loop always, plus the file watcher, the remote bridge and
// the health server when configured.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(a.Context(ctx))
	defer cancel()
	a.logger.Debug("App.Run method started.")

	if err := a.Reload(ctx, nil); err != nil {
		return fmt.Errorf("failed to load graph: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.runner.Run(gctx) })

	if a.config.Watch {
		w, err := watch.New([]string{a.config.GraphPath}, a.Reload, nil)
		if err != nil {
			return fmt.Errorf("failed to watch graph: %w", err)
		}
		a.logger.Info("Watching graph for changes.", "path", a.config.GraphPath)
		g.Go(func() error { return w.Run(gctx) })
	}

	if a.config.Remote.URL != "" {
		conn, err := remote.Dial(gctx, a.config.Remote)
		if err != nil {
			return fmt.Errorf("failed to connect remote bridge: %w", err)
		}
		bridge := remote.NewBridge(a.runner, conn)
		g.Go(func() error { return bridge.Run(gctx) })
	}

	if addr := a.listenAddr(); addr != "" {
		if err := a.startHTTPServer(addr); err != nil {
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			return a.closeHTTPServer()
		})
	} else {
		a.logger.Debug("Health check server not started: disabled.")
	}

	a.logger.Info("Application running.", "path", a.config.GraphPath, "tick_interval", a.config.TickInterval)
	err := g.Wait()
	a.logger.Debug("App.Run method finished.")
	return err
}
