package metrics

import (
	"github.com/vk/nodeflowgo/internal/engine"
)

// Observer records engine events into a Registry.
type Observer struct {
	r *Registry
}

var _ engine.Observer = (*Observer)(nil)

// NewObserver returns an engine.Observer backed by r.
func NewObserver(r *Registry) *Observer {
	return &Observer{r: r}
}

func passMode(cold bool) string {
	if cold {
		return "cold"
	}
	return "warm"
}

func (o *Observer) Loaded(nodes, ports int) {
	o.r.LoadsTotal.WithLabelValues("ok").Inc()
	o.r.GraphNodes.Set(float64(nodes))
	o.r.GraphPorts.Set(float64(ports))
	o.r.QueueDepth.Set(0)
}

func (o *Observer) LoadFailed(error) {
	o.r.LoadsTotal.WithLabelValues("error").Inc()
	o.r.GraphNodes.Set(0)
	o.r.GraphPorts.Set(0)
	o.r.QueueDepth.Set(0)
}

func (o *Observer) PassCompleted(s engine.PassStats) {
	mode := passMode(s.Cold)
	o.r.PassesTotal.WithLabelValues(mode).Inc()
	o.r.NodesExecuted.WithLabelValues(mode).Add(float64(s.Executed))
	o.r.PortsChanged.WithLabelValues(mode).Add(float64(s.Changed))
	o.r.PassDuration.WithLabelValues(mode).Observe(s.Duration.Seconds())
	o.r.Generation.Set(float64(s.Generation))
	o.r.QueueDepth.Set(0)
}

func (o *Observer) PassFailed(error) {
	o.r.PassFailuresTotal.Inc()
}

func (o *Observer) Ticked(dtMS float64, pulses int) {
	o.r.TicksTotal.Inc()
	o.r.TickMilliseconds.Add(dtMS)
	o.r.TimerPulsesTotal.Add(float64(pulses))
}

func (o *Observer) Enqueued(depth int) {
	o.r.QueueDepth.Set(float64(depth))
}
