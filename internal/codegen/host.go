package codegen

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/vk/nodeflowgo/internal/value"
)

// Host renders <base>_host.c, a driver for the portable artifact. It reads
// lines of the form
//
//	<dt_ms> [<input>...]
//
// from stdin, one value per input field in NODEFLOW_INPUT_FIELDS order.
// Each line sets the given inputs, ticks by dt_ms and prints the outputs.
// The outputs of the initial step are printed before the first line is
// read. Ints print in decimal, floats and doubles as the hex digits of
// their IEEE bits, so the output compares bit for bit.
type Host struct{}

// Name implements Backend.
func (Host) Name() string { return "host" }

// Render implements Backend.
func (Host) Render(base string, p *Program) ([]File, error) {
	if err := checkPortable(p); err != nil {
		return nil, err
	}
	data := struct {
		Header string
		Prints []string
	}{Header: base + "_step.h"}
	for _, f := range p.Outputs {
		data.Prints = append(data.Prints, hostPrint(f))
	}

	var buf bytes.Buffer
	if err := hostTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render host: %w", err)
	}
	return []File{{Name: base + "_host.c", Content: buf.Bytes()}}, nil
}

func hostPrint(f Field) string {
	switch f.Kind {
	case value.Int:
		return fmt.Sprintf(`printf(" %%ld", (long)out->%s);`, f.Name)
	case value.Float:
		return fmt.Sprintf(`{ uint32_t b; memcpy(&b, &out->%s, sizeof b); printf(" %%08lx", (unsigned long)b); }`, f.Name)
	default:
		return fmt.Sprintf(`{ uint64_t b; memcpy(&b, &out->%s, sizeof b); printf(" %%016llx", (unsigned long long)b); }`, f.Name)
	}
}

var hostTemplate = template.Must(template.New("host").Parse(`/* Generated by nodeflow. Do not edit. */
#include <stdint.h>
#include <stdio.h>
#include <stdlib.h>
#include <string.h>

#include "{{.Header}}"

static void print_outputs(const NodeFlowOutputs* out) {
{{- range .Prints}}
  {{.}}
{{- end}}
  putchar('\n');
  (void)out;
}

int main(void) {
  NodeFlowInputs in;
  NodeFlowOutputs out;
  NodeFlowState state;
  char line[8192];

  memset(&out, 0, sizeof out);
  nodeflow_init(&state);
  nodeflow_init_inputs(&in);
  nodeflow_step(&in, &out, &state);
  print_outputs(&out);
  fflush(stdout);

  while (fgets(line, sizeof line, stdin) != NULL) {
    char* p = line;
    char* end;
    double dt = strtod(p, &end);
    int i;
    if (end == p) continue;
    p = end;
    for (i = 0; i < NODEFLOW_NUM_INPUT_FIELDS; i++) {
      double v = strtod(p, &end);
      if (end == p) break;
      p = end;
      nodeflow_set_input(NODEFLOW_INPUT_FIELDS[i].handle, v, &in);
    }
    nodeflow_tick(dt, &in, &out, &state);
    print_outputs(&out);
    fflush(stdout);
  }
  return 0;
}
`))
