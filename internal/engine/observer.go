package engine

import "time"

// PassStats describes one completed evaluation pass.
type PassStats struct {
	Cold       bool
	Generation uint64
	// Executed counts node executions.
	Executed int
	// Changed counts ports whose value changed, inputs included.
	Changed  int
	Duration time.Duration
}

// Observer receives engine events. Calls happen synchronously on the
// goroutine driving the engine.
type Observer interface {
	Loaded(nodes, ports int)
	LoadFailed(err error)
	PassCompleted(stats PassStats)
	PassFailed(err error)
	Ticked(dtMS float64, pulses int)
	Enqueued(depth int)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) Loaded(int, int)         {}
func (NopObserver) LoadFailed(error)        {}
func (NopObserver) PassCompleted(PassStats) {}
func (NopObserver) PassFailed(error)        {}
func (NopObserver) Ticked(float64, int)     {}
func (NopObserver) Enqueued(int)            {}
