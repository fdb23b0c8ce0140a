package engine

import (
	"fmt"
	"math"

	"github.com/vk/nodeflowgo/internal/node"
	"github.com/vk/nodeflowgo/internal/value"
)

// SetParameter replaces a parameter of node id and queues the node, so
// the next Evaluate re-runs it and propagates any change.
func (e *Engine) SetParameter(id, name string, v value.Value) error {
	n, err := e.lookup(id)
	if err != nil {
		return err
	}
	n.SetParam(name, v)
	e.enqueue(n.Index)
	e.logger.Debug("Node parameter set.", "node_id", id, "parameter", name, "value", v.String())
	return nil
}

// SetNodeValue pushes a new scalar into a DeviceTrigger-like node.
func (e *Engine) SetNodeValue(id string, v value.Value) error {
	return e.SetParameter(id, node.ParamValue, v)
}

// SetNodeInterval stores the min_interval and max_interval parameters of a
// randomized trigger. Nothing in the engine polls on them, so the node is
// not queued.
func (e *Engine) SetNodeInterval(id string, minMS, maxMS int32) error {
	n, err := e.lookup(id)
	if err != nil {
		return err
	}
	if minMS < 0 || maxMS < minMS {
		return fmt.Errorf("%w: interval [%d, %d]", ErrInvalidArgument, minMS, maxMS)
	}
	n.SetParam(node.ParamMinInterval, value.IntValue(minMS))
	n.SetParam(node.ParamMaxInterval, value.IntValue(maxMS))
	e.logger.Debug("Node interval set.", "node_id", id, "min_interval", minMS, "max_interval", maxMS)
	return nil
}

// Tick advances every Timer by dtMS milliseconds. A timer whose output must
// change, on a pulse or on the falling edge after one, is queued; the
// change itself happens in the next Evaluate.
func (e *Engine) Tick(dtMS float64) error {
	if e.store == nil {
		return ErrNotLoaded
	}
	if math.IsNaN(dtMS) || math.IsInf(dtMS, 0) || dtMS < 0 {
		return fmt.Errorf("%w: tick of %v ms", ErrInvalidArgument, dtMS)
	}

	pulses := 0
	for _, i := range e.timers {
		n := e.store.Node(i)
		ts := &e.state.Timers[i]
		ts.Advance(dtMS, n.IntervalMS())
		if ts.Pulse {
			pulses++
		}
		for _, h := range n.Outputs {
			if !node.TimerOutput(ts.Pulse, e.store.Type(h).Kind).Equal(e.values[h]) {
				e.enqueue(i)
				break
			}
		}
	}
	e.observer.Ticked(dtMS, pulses)
	return nil
}
