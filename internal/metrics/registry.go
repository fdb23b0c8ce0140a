// Package metrics exposes engine activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the metrics of one engine instance on a private
// Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	PassesTotal       *prometheus.CounterVec
	PassFailuresTotal prometheus.Counter
	NodesExecuted     *prometheus.CounterVec
	PortsChanged      *prometheus.CounterVec
	PassDuration      *prometheus.HistogramVec
	Generation        prometheus.Gauge
	QueueDepth        prometheus.Gauge

	GraphNodes       prometheus.Gauge
	GraphPorts       prometheus.Gauge
	LoadsTotal       *prometheus.CounterVec
	TicksTotal       prometheus.Counter
	TimerPulsesTotal prometheus.Counter
	TickMilliseconds prometheus.Counter
}

// NewRegistry creates a registry with every metric initialized.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initPassMetrics()
	r.initGraphMetrics()
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer returns the underlying registry for inspection.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
