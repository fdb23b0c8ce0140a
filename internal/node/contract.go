package node

import (
	"fmt"

	"github.com/vk/nodeflowgo/internal/value"
)

// CheckContract validates the declared port types of n against its kind.
// It runs once at load time so that a mistyped graph never starts.
//
// Port counts are not checked here: an Add or Counter node
// without ports loads, and fails the first pass that executes it.
func CheckContract(n *Node, typeOf func(Handle) value.Type) error {
	switch n.Kind {
	case KindAdd:
		if len(n.Inputs) == 0 || len(n.Outputs) == 0 {
			return nil
		}
		base := typeOf(n.Inputs[0])
		for _, h := range n.Inputs[1:] {
			if t := typeOf(h); !t.SameBase(base) {
				return fmt.Errorf("%w: Add node %q mixes input types %s and %s", ErrTypeContract, n.ID, base, t)
			}
		}
		if out := typeOf(n.Outputs[0]); !out.SameBase(base) {
			return fmt.Errorf("%w: Add node %q sums %s inputs into a %s output", ErrTypeContract, n.ID, base, out)
		}
	case KindTimer:
		return requireNumericOutputs(n, typeOf)
	case KindCounter:
		for _, h := range n.Inputs[:min(1, len(n.Inputs))] {
			if t := typeOf(h); !t.Kind.Numeric() {
				return fmt.Errorf("%w: Counter node %q reads a %s input", ErrTypeContract, n.ID, t)
			}
		}
		return requireNumericOutputs(n, typeOf)
	case KindValue, KindDeviceTrigger, KindUnknown:
	}
	return nil
}

func requireNumericOutputs(n *Node, typeOf func(Handle) value.Type) error {
	for _, h := range n.Outputs {
		if t := typeOf(h); !t.Kind.Numeric() {
			return fmt.Errorf("%w: %s node %q cannot drive a %s output", ErrTypeContract, n.Kind, n.ID, t)
		}
	}
	return nil
}
