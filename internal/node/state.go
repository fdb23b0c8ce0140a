package node

// TimerState is the persistent state of a Timer node.
type TimerState struct {
	// Accumulated is elapsed time in milliseconds since the last pulse,
	// carried over rather than reset so the period does not drift.
	Accumulated float64
	// Pulse is true for exactly the tick that crossed the interval.
	Pulse bool
}

// Advance moves the timer forward by dt milliseconds. At most one pulse is
// produced per call; an interval <= 0 never fires.
func (s *TimerState) Advance(dt, interval float64) {
	s.Accumulated += dt
	s.Pulse = false
	if interval > 0 && s.Accumulated >= interval {
		s.Accumulated -= interval
		s.Pulse = true
	}
}

// CounterState is the persistent state of a Counter node.
type CounterState struct {
	Last  bool
	Count int64
}

// Observe feeds one level sample and counts 0->1 transitions.
func (s *CounterState) Observe(level bool) {
	if level && !s.Last {
		s.Count++
	}
	s.Last = level
}

// State holds the per-node runtime state of a graph instance. Both slices
// are indexed by Node.Index and sized once per load; entries of nodes of
// other kinds stay zero.
type State struct {
	Timers   []TimerState
	Counters []CounterState
}

// NewState allocates state for n nodes.
func NewState(n int) *State {
	return &State{
		Timers:   make([]TimerState, n),
		Counters: make([]CounterState, n),
	}
}
