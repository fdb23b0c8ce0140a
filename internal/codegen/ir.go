package codegen

import (
	"fmt"
	"math"
	"strings"

	"github.com/vk/nodeflowgo/internal/node"
	"github.com/vk/nodeflowgo/internal/value"
)

// IR renders <base>_step.ll, the step function of a stateless float/double
// graph as one straight-line LLVM function:
//
//	void nodeflow_step_ir(const NodeFlowInputs* in, NodeFlowOutputs* out);
//
// The struct types match the portable header's layout. Only Value,
// DeviceTrigger and Add nodes are accepted.
type IR struct{}

// Name implements Backend.
func (IR) Name() string { return "ir" }

// Render implements Backend.
func (IR) Render(base string, p *Program) ([]File, error) {
	if err := checkIR(p); err != nil {
		return nil, err
	}
	w := &irWriter{operands: make(map[node.Handle]string)}
	w.emit(p)
	return []File{{Name: base + "_step.ll", Content: []byte(w.b.String())}}, nil
}

func checkIR(p *Program) error {
	for _, op := range p.Ops {
		switch op.Kind {
		case node.KindValue, node.KindDeviceTrigger, node.KindAdd:
		default:
			return fmt.Errorf("%w: IR cannot lower %s node %q", ErrUnsupported, op.Kind, op.NodeID)
		}
	}
	for _, d := range p.Ports {
		if k := d.Type.Kind; k != value.Float && k != value.Double {
			return fmt.Errorf("%w: IR cannot lower %s port %s.%s", ErrUnsupported, d.Type, d.NodeID, d.PortID)
		}
	}
	return nil
}

type irWriter struct {
	b        strings.Builder
	operands map[node.Handle]string
}

func (w *irWriter) line(format string, args ...any) {
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteByte('\n')
}

func (w *irWriter) emit(p *Program) {
	w.line("; Generated by nodeflow. Do not edit.")
	w.line("")
	w.line("%%NodeFlowInputs = type { %s }", irStructBody(p.Inputs))
	w.line("%%NodeFlowOutputs = type { %s }", irStructBody(p.Outputs))
	w.line("")
	w.line("define void @nodeflow_step_ir(ptr %%in, ptr %%out) {")
	w.line("entry:")

	for _, op := range p.Ops {
		w.line("  ; %s %s", op.Kind, irComment(op.NodeID))
		for _, in := range op.Inputs {
			if in.Source == node.NoHandle {
				w.operands[in.Handle] = irLiteral(value.Zero(in.Kind))
				continue
			}
			w.convert(in.Handle, w.operands[in.Source], in.SourceKind, in.Kind)
		}

		switch op.Kind {
		case node.KindValue:
			for _, out := range op.Outputs {
				v := value.Zero(out.Kind)
				if op.HasConst {
					v = value.Coerce(op.Const, out.Kind)
				}
				w.operands[out.Handle] = irLiteral(v)
			}
		case node.KindDeviceTrigger:
			if op.Field < 0 {
				break
			}
			f := p.Inputs[op.Field]
			t := irType(f.Kind)
			w.line("  %%in.%d = getelementptr inbounds %%NodeFlowInputs, ptr %%in, i32 0, i32 %d", op.Field, op.Field)
			w.line("  %%field.%d = load %s, ptr %%in.%d, align %d", op.Field, t, op.Field, irAlign(f.Kind))
			src := fmt.Sprintf("%%field.%d", op.Field)
			for _, out := range op.Outputs {
				w.convert(out.Handle, src, f.Kind, out.Kind)
			}
		case node.KindAdd:
			k := op.Outputs[0].Kind
			t := irType(k)
			acc := irLiteral(value.Zero(k))
			for i, in := range op.Inputs {
				reg := fmt.Sprintf("%%sum.%d.%d", op.Node, i)
				w.line("  %s = fadd %s %s, %s", reg, t, acc, w.operands[in.Handle])
				acc = reg
			}
			for _, out := range op.Outputs {
				w.convert(out.Handle, acc, k, out.Kind)
			}
		}
	}

	for i, f := range p.Outputs {
		w.line("  %%out.%d = getelementptr inbounds %%NodeFlowOutputs, ptr %%out, i32 0, i32 %d", i, i)
		w.line("  store %s %s, ptr %%out.%d, align %d", irType(f.Kind), w.operands[f.Handle], i, irAlign(f.Kind))
	}
	w.line("  ret void")
	w.line("}")
}

// convert binds handle h to src converted from kind from to kind to.
func (w *irWriter) convert(h node.Handle, src string, from, to value.Kind) {
	if from == to {
		w.operands[h] = src
		return
	}
	reg := fmt.Sprintf("%%p%d", h)
	op := "fpext"
	if to == value.Float {
		op = "fptrunc"
	}
	w.line("  %s = %s %s %s to %s", reg, op, irType(from), src, irType(to))
	w.operands[h] = reg
}

func irStructBody(fields []Field) string {
	types := make([]string, 0, len(fields))
	for _, f := range fields {
		types = append(types, irType(f.Kind))
	}
	if len(types) == 0 {
		return "i8"
	}
	return strings.Join(types, ", ")
}

func irType(k value.Kind) string {
	if k == value.Float {
		return "float"
	}
	return "double"
}

func irAlign(k value.Kind) int {
	if k == value.Float {
		return 4
	}
	return 8
}

// irLiteral renders a float or double constant as the hex image of its
// double value, which LLVM requires for both types.
func irLiteral(v value.Value) string {
	return fmt.Sprintf("0x%016X", math.Float64bits(v.Number()))
}

func irComment(s string) string {
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}
