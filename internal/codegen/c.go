package codegen

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/vk/nodeflowgo/internal/node"
	"github.com/vk/nodeflowgo/internal/value"
)

// Portable renders the C99 header and source of a Program.
type Portable struct{}

// Name implements Backend.
func (Portable) Name() string { return "c" }

// Render implements Backend.
func (Portable) Render(base string, p *Program) ([]File, error) {
	if err := checkPortable(p); err != nil {
		return nil, err
	}
	data := newCData(base, p)

	var header, source bytes.Buffer
	if err := cTemplates.ExecuteTemplate(&header, "header", data); err != nil {
		return nil, fmt.Errorf("failed to render header: %w", err)
	}
	if err := cTemplates.ExecuteTemplate(&source, "source", data); err != nil {
		return nil, fmt.Errorf("failed to render source: %w", err)
	}
	return []File{
		{Name: data.Header, Content: header.Bytes()},
		{Name: base + "_step.c", Content: source.Bytes()},
	}, nil
}

func checkPortable(p *Program) error {
	for _, d := range p.Ports {
		if !d.Type.Kind.Numeric() {
			return fmt.Errorf("%w: port %s.%s is %s", ErrUnsupported, d.NodeID, d.PortID, d.Type)
		}
	}
	return nil
}

type cMember struct {
	Type, Name string
}

type cPort struct {
	Handle int
	NodeID string
	PortID string
	Output int
	DType  string
}

type cField struct {
	Field
	CType   string
	NodeIDC string
	DType   string
	Initial string
	// FromDouble converts the double `value` to the field's type.
	FromDouble string
}

type cData struct {
	Guard    string
	Header   string
	Inputs   []cMember
	Outputs  []cMember
	State    []cMember
	Ports    []cPort
	Order    []int
	Fields   []cField
	Sinks    []cField
	Locals   []cMember
	Body     []string
	Timers   []cTimer
	Counters []Slot
}

type cTimer struct {
	Slot
	Fires    bool
	Interval string
}

func newCData(base string, p *Program) *cData {
	d := &cData{
		Guard:  "NODEFLOW_" + strings.ToUpper(cIdent(base)) + "_STEP_H",
		Header: base + "_step.h",
		Order:  p.Order,
	}
	for _, f := range p.Inputs {
		d.Inputs = append(d.Inputs, cMember{Type: cType(f.Kind), Name: f.Name})
		d.Fields = append(d.Fields, cField{
			Field:      f,
			CType:      cType(f.Kind),
			NodeIDC:    cString(f.NodeID),
			DType:      cString(f.Kind.String()),
			Initial:    cLiteral(f.Init),
			FromDouble: cConvert("value", value.Double, f.Kind),
		})
	}
	for _, f := range p.Outputs {
		d.Outputs = append(d.Outputs, cMember{Type: cType(f.Kind), Name: f.Name})
		d.Sinks = append(d.Sinks, cField{Field: f, CType: cType(f.Kind), NodeIDC: cString(f.NodeID), DType: cString(f.Kind.String())})
	}
	for _, t := range p.Timers {
		d.State = append(d.State,
			cMember{Type: "double", Name: "acc_" + t.Name},
			cMember{Type: "int32_t", Name: "pulse_" + t.Name})
		d.Timers = append(d.Timers, cTimer{
			Slot:     t,
			Fires:    t.IntervalMS > 0,
			Interval: cLiteral(value.DoubleValue(t.IntervalMS)),
		})
	}
	for _, c := range p.Counters {
		d.State = append(d.State,
			cMember{Type: "int32_t", Name: "last_" + c.Name},
			cMember{Type: "int64_t", Name: "count_" + c.Name})
	}
	d.Counters = p.Counters

	for _, pd := range p.Ports {
		out := 0
		if pd.Output {
			out = 1
		}
		d.Ports = append(d.Ports, cPort{
			Handle: int(pd.Handle),
			NodeID: cString(pd.NodeID),
			PortID: cString(pd.PortID),
			Output: out,
			DType:  cString(pd.Type.String()),
		})
		d.Locals = append(d.Locals, cMember{Type: cType(pd.Type.Kind), Name: local(pd.Handle)})
	}

	for _, op := range p.Ops {
		d.Body = append(d.Body, cStatements(p, op)...)
	}
	return d
}

func local(h node.Handle) string { return fmt.Sprintf("p%d", h) }

// cStatements renders the step code of one operation: inputs are read from
// their sources, then the outputs are computed.
func cStatements(p *Program, op Op) []string {
	lines := []string{fmt.Sprintf("/* %s %s */", op.Kind, strings.ReplaceAll(op.NodeID, "*/", "* /"))}
	for _, in := range op.Inputs {
		if in.Source == node.NoHandle {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s = %s;", local(in.Handle), cConvert(local(in.Source), in.SourceKind, in.Kind)))
	}

	switch op.Kind {
	case node.KindValue:
		if !op.HasConst {
			break
		}
		for _, out := range op.Outputs {
			lines = append(lines, fmt.Sprintf("%s = %s;", local(out.Handle), cLiteral(value.Coerce(op.Const, out.Kind))))
		}
	case node.KindDeviceTrigger:
		if op.Field < 0 {
			break
		}
		f := p.Inputs[op.Field]
		for _, out := range op.Outputs {
			lines = append(lines, fmt.Sprintf("%s = %s;", local(out.Handle), cConvert("in->"+f.Name, f.Kind, out.Kind)))
		}
	case node.KindAdd:
		k := op.Outputs[0].Kind
		lines = append(lines, fmt.Sprintf("{ %s sum = 0;", cType(k)))
		for _, in := range op.Inputs {
			// Inputs share the sum's base type.
			if k == value.Int {
				lines = append(lines, fmt.Sprintf("  sum = (int32_t)((uint32_t)sum + (uint32_t)%s);", local(in.Handle)))
			} else {
				lines = append(lines, fmt.Sprintf("  sum = sum + %s;", local(in.Handle)))
			}
		}
		for _, out := range op.Outputs {
			lines = append(lines, fmt.Sprintf("  %s = %s;", local(out.Handle), cConvert("sum", k, out.Kind)))
		}
		lines = append(lines, "}")
	case node.KindTimer:
		t := p.Timers[op.Slot]
		for _, out := range op.Outputs {
			lines = append(lines, fmt.Sprintf("%s = %s;", local(out.Handle), cConvert("s->pulse_"+t.Name, value.Int, out.Kind)))
		}
	case node.KindCounter:
		c := p.Counters[op.Slot]
		in := op.Inputs[0]
		lines = append(lines,
			fmt.Sprintf("{ int32_t level = (double)%s > 0.5;", local(in.Handle)),
			fmt.Sprintf("  if (level && !s->last_%s) s->count_%s++;", c.Name, c.Name),
			fmt.Sprintf("  s->last_%s = level; }", c.Name))
		for _, out := range op.Outputs {
			lines = append(lines, fmt.Sprintf("%s = (%s)s->count_%s;", local(out.Handle), cType(out.Kind), c.Name))
		}
	case node.KindUnknown:
	}
	return lines
}

var cTemplates = template.Must(template.New("c").Parse(`
{{- define "header" -}}
/* Generated by nodeflow. Do not edit. */
#ifndef {{.Guard}}
#define {{.Guard}}

#include <stddef.h>
#include <stdint.h>

#ifdef __cplusplus
extern "C" {
#endif

typedef struct {
{{- range .Inputs}}
  {{.Type}} {{.Name}};
{{- else}}
  char unused_;
{{- end}}
} NodeFlowInputs;

typedef struct {
{{- range .Outputs}}
  {{.Type}} {{.Name}};
{{- else}}
  char unused_;
{{- end}}
} NodeFlowOutputs;

typedef struct {
{{- range .State}}
  {{.Type}} {{.Name}};
{{- else}}
  char unused_;
{{- end}}
} NodeFlowState;

typedef struct {
  int handle;
  const char* node_id;
  const char* port_id;
  int is_output;
  const char* dtype;
} NodeFlowPortDesc;

typedef struct {
  int handle;
  const char* node_id;
  size_t offset;
  const char* dtype;
} NodeFlowInputField;

extern const int NODEFLOW_NUM_PORTS;
extern const NodeFlowPortDesc NODEFLOW_PORTS[];
extern const int NODEFLOW_NUM_TOPO;
extern const int NODEFLOW_TOPO_ORDER[];
extern const int NODEFLOW_NUM_INPUT_FIELDS;
extern const NodeFlowInputField NODEFLOW_INPUT_FIELDS[];

void nodeflow_init(NodeFlowState* s);
void nodeflow_reset(NodeFlowState* s);
void nodeflow_init_inputs(NodeFlowInputs* in);
void nodeflow_set_input(int handle, double value, NodeFlowInputs* in);
double nodeflow_get_output(int handle, const NodeFlowOutputs* out);
void nodeflow_step(const NodeFlowInputs* in, NodeFlowOutputs* out, NodeFlowState* s);
void nodeflow_tick(double dt_ms, const NodeFlowInputs* in, NodeFlowOutputs* out, NodeFlowState* s);

#ifdef __cplusplus
}
#endif

#endif
{{end}}

{{- define "source" -}}
/* Generated by nodeflow. Do not edit. */
#include "{{.Header}}"

#include <string.h>

const int NODEFLOW_NUM_PORTS = {{len .Ports}};
const NodeFlowPortDesc NODEFLOW_PORTS[] = {
{{- range .Ports}}
  { {{.Handle}}, {{.NodeID}}, {{.PortID}}, {{.Output}}, {{.DType}} },
{{- else}}
  { -1, "", "", 0, "" },
{{- end}}
};

const int NODEFLOW_NUM_TOPO = {{len .Order}};
const int NODEFLOW_TOPO_ORDER[] = {
{{- range .Order}}
  {{.}},
{{- else}}
  -1,
{{- end}}
};

const int NODEFLOW_NUM_INPUT_FIELDS = {{len .Fields}};
const NodeFlowInputField NODEFLOW_INPUT_FIELDS[] = {
{{- range .Fields}}
  { {{.Handle}}, {{.NodeIDC}}, offsetof(NodeFlowInputs, {{.Name}}), {{.DType}} },
{{- else}}
  { -1, "", 0, "" },
{{- end}}
};

static int32_t nf_i32(double v) {
  if (v != v) return 0;
  if (v >= 2147483647.0) return INT32_MAX;
  if (v <= -2147483648.0) return INT32_MIN;
  return (int32_t)v;
}

void nodeflow_init(NodeFlowState* s) {
  memset(s, 0, sizeof *s);
}

void nodeflow_reset(NodeFlowState* s) {
  nodeflow_init(s);
}

void nodeflow_init_inputs(NodeFlowInputs* in) {
  memset(in, 0, sizeof *in);
{{- range .Fields}}
  in->{{.Name}} = {{.Initial}};
{{- end}}
}

void nodeflow_set_input(int handle, double value, NodeFlowInputs* in) {
  switch (handle) {
{{- range .Fields}}
  case {{.Handle}}: in->{{.Name}} = {{.FromDouble}}; break;
{{- end}}
  default: break;
  }
  (void)value;
  (void)in;
}

double nodeflow_get_output(int handle, const NodeFlowOutputs* out) {
  switch (handle) {
{{- range .Sinks}}
  case {{.Handle}}: return (double)out->{{.Name}};
{{- end}}
  default: break;
  }
  (void)out;
  return 0.0;
}

void nodeflow_step(const NodeFlowInputs* in, NodeFlowOutputs* out, NodeFlowState* s) {
{{- range .Locals}}
  {{.Type}} {{.Name}} = 0;
{{- end}}
{{range .Body}}
  {{.}}
{{- end}}
{{range .Sinks}}
  out->{{.Name}} = p{{.Handle}};
{{- end}}
  (void)in;
  (void)out;
  (void)s;
}

void nodeflow_tick(double dt_ms, const NodeFlowInputs* in, NodeFlowOutputs* out, NodeFlowState* s) {
{{- range .Timers}}
  s->acc_{{.Name}} += dt_ms;
  s->pulse_{{.Name}} = 0;
{{- if .Fires}}
  if (s->acc_{{.Name}} >= {{.Interval}}) {
    s->acc_{{.Name}} -= {{.Interval}};
    s->pulse_{{.Name}} = 1;
  }
{{- end}}
{{- end}}
  (void)dt_ms;
  nodeflow_step(in, out, s);
}
{{end}}
`))
