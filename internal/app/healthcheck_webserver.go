package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// healthHandler answers liveness probes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// listenAddr picks the HTTP address: MetricsAddr wins over HealthcheckPort.
// An empty result disables the server.
func (a *App) listenAddr() string {
	if a.config.MetricsAddr != "" {
		return a.config.MetricsAddr
	}
	if a.config.HealthcheckPort > 0 {
		return fmt.Sprintf(":%d", a.config.HealthcheckPort)
	}
	return ""
}

// startHTTPServer binds the health and metrics server and serves it in
// the background.
func (a *App) startHTTPServer(addr string) error {
	a.logger.Debug("Configuring health check server.")
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle("/metrics", a.metrics.Handler())

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	a.mu.Lock()
	a.httpServer = srv
	a.httpAddr = ln.Addr().String()
	a.mu.Unlock()

	go func() {
		a.logger.Info("Health check server starting.", "address", fmt.Sprintf("http://%s/health", ln.Addr()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Health check server failed unexpectedly.", "error", err)
		}
	}()
	return nil
}

// HTTPAddr returns the bound address of the health server, or "" when it
// is not running.
func (a *App) HTTPAddr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.httpAddr
}

func (a *App) closeHTTPServer() error {
	a.mu.Lock()
	srv := a.httpServer
	a.httpServer = nil
	a.httpAddr = ""
	a.mu.Unlock()

	if srv == nil {
		a.logger.Debug("Health check server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.logger.Info("Shutting down health check server.")
	if err := srv.Shutdown(ctx); err != nil {
		a.logger.Error("Health check server shutdown failed.", "error", err)
		return err
	}
	a.logger.Debug("Health check server shut down gracefully.")
	return nil
}
