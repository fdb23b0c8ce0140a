package node

import (
	"errors"
	"fmt"

	"github.com/vk/nodeflowgo/internal/value"
)

var (
	// ErrMisconfigured is returned when an operator node lacks the ports it
	// needs to run. It aborts the evaluation pass.
	ErrMisconfigured = errors.New("misconfigured node")
	// ErrTypeContract is returned when declared port types violate a node
	// kind's typing rules.
	ErrTypeContract = errors.New("node type contract violated")
)

// CounterThreshold is the level above which a Counter input reads as high.
const CounterThreshold = 0.5

// Env is the port-value table as seen by a single node execution.
type Env interface {
	Get(h Handle) value.Value
	Type(h Handle) value.Type
	Set(h Handle, v value.Value)
}

// Execute runs one node. Missing or wrong-typed input values are never an
// error; they read as the zero of the expected type.
func Execute(n *Node, env Env, st *State) error {
	switch n.Kind {
	case KindValue, KindDeviceTrigger:
		executeSource(n, env)
		return nil
	case KindAdd:
		return executeAdd(n, env)
	case KindTimer:
		executeTimer(n, env, st)
		return nil
	case KindCounter:
		return executeCounter(n, env, st)
	case KindUnknown:
		return nil
	}
	panic(fmt.Sprintf("node: unhandled kind %d", n.Kind))
}

// executeSource writes the `value` parameter to every output, or holds the
// outputs when the parameter is absent. A DeviceTrigger stores its value
// at the type of its first output, and the other outputs are converted
// from that stored value.
func executeSource(n *Node, env Env) {
	v, ok := n.Params[ParamValue]
	if !ok {
		return
	}
	if n.Kind == KindDeviceTrigger && len(n.Outputs) > 0 {
		v = value.Coerce(v, env.Type(n.Outputs[0]).Kind)
	}
	writeAll(n, env, v)
}

func executeAdd(n *Node, env Env) error {
	if len(n.Inputs) == 0 || len(n.Outputs) == 0 {
		return fmt.Errorf("%w: Add node %q needs at least one input and one output", ErrMisconfigured, n.ID)
	}
	writeAll(n, env, Sum(env.Type(n.Outputs[0]).Kind, n.Inputs, env))
	return nil
}

// Sum adds the values on inputs in the arithmetic of kind k. Integer sums
// wrap like two's complement int32. Float and double sums accumulate from
// zero in their own width. Strings concatenate in input order.
func Sum(k value.Kind, inputs []Handle, env Env) value.Value {
	switch k {
	case value.Int:
		var s int32
		for _, h := range inputs {
			s += env.Get(h).Int()
		}
		return value.IntValue(s)
	case value.Float:
		var s float32
		for _, h := range inputs {
			s += env.Get(h).Float()
		}
		return value.FloatValue(s)
	case value.Double:
		var s float64
		for _, h := range inputs {
			s += env.Get(h).Double()
		}
		return value.DoubleValue(s)
	default:
		var s string
		for _, h := range inputs {
			s += env.Get(h).Str()
		}
		return value.StringValue(s)
	}
}

func executeTimer(n *Node, env Env, st *State) {
	writeAll(n, env, value.Bool(st.Timers[n.Index].Pulse))
}

// TimerOutput is the value a timer currently drives onto a port of type k.
func TimerOutput(pulse bool, k value.Kind) value.Value {
	return value.Coerce(value.Bool(pulse), k)
}

func executeCounter(n *Node, env Env, st *State) error {
	if len(n.Inputs) == 0 || len(n.Outputs) == 0 {
		return fmt.Errorf("%w: Counter node %q needs at least one input and one output", ErrMisconfigured, n.ID)
	}
	c := &st.Counters[n.Index]
	c.Observe(env.Get(n.Inputs[0]).Number() > CounterThreshold)
	for _, h := range n.Outputs {
		env.Set(h, CountValue(c.Count, env.Type(h).Kind))
	}
	return nil
}

// CountValue casts a counter total to kind k the way a C cast would.
func CountValue(count int64, k value.Kind) value.Value {
	switch k {
	case value.Int:
		return value.IntValue(int32(count))
	case value.Float:
		return value.FloatValue(float32(count))
	case value.Double:
		return value.DoubleValue(float64(count))
	}
	return value.Zero(k)
}

// writeAll coerces v to each output's declared kind and stores it.
func writeAll(n *Node, env Env, v value.Value) {
	for _, h := range n.Outputs {
		env.Set(h, value.Coerce(v, env.Type(h).Kind))
	}
}
