package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPassMetrics() {
	r.PassesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodeflow_passes_total",
			Help: "Completed evaluation passes",
		},
		[]string{"mode"},
	)

	r.PassFailuresTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "nodeflow_pass_failures_total",
			Help: "Evaluation passes aborted by an execution error",
		},
	)

	r.NodesExecuted = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodeflow_nodes_executed_total",
			Help: "Node executions by pass mode",
		},
		[]string{"mode"},
	)

	r.PortsChanged = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodeflow_ports_changed_total",
			Help: "Port value changes by pass mode",
		},
		[]string{"mode"},
	)

	r.PassDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nodeflow_pass_duration_seconds",
			Help:    "Evaluation pass duration in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		},
		[]string{"mode"},
	)

	r.Generation = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "nodeflow_generation",
			Help: "Generation of the last completed pass",
		},
	)

	r.QueueDepth = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "nodeflow_ready_queue_depth",
			Help: "Nodes waiting for the next warm pass",
		},
	)
}

func (r *Registry) initGraphMetrics() {
	r.GraphNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "nodeflow_graph_nodes",
			Help: "Nodes in the loaded graph",
		},
	)

	r.GraphPorts = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "nodeflow_graph_ports",
			Help: "Ports in the loaded graph",
		},
	)

	r.LoadsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodeflow_loads_total",
			Help: "Graph loads by outcome",
		},
		[]string{"status"},
	)

	r.TicksTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "nodeflow_ticks_total",
			Help: "Timer ticks applied",
		},
	)

	r.TimerPulsesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "nodeflow_timer_pulses_total",
			Help: "Timer pulses produced by ticks",
		},
	)

	r.TickMilliseconds = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "nodeflow_tick_milliseconds_total",
			Help: "Simulated milliseconds applied by ticks",
		},
	)
}
