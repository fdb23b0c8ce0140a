package hcl

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nodeflowgo/internal/config"
	"github.com/vk/nodeflowgo/internal/ctxlog"
	"github.com/vk/nodeflowgo/internal/value"
)

const timerGraph = `
node "Timer" "tick" {
  output "out" { type = "int" }
  parameters = {
    interval_ms = 100
  }
}

node "Counter" "count" {
  input "in" { type = "int" }
  output "count" { type = "double" }
}

node "DeviceTrigger" "button" {
  output "out" { type = "async_float" }
  parameters = {
    value   = 0.5
    key     = "b"
    enabled = true
  }
}

connection {
  from_node = "tick"
  from_port = "out"
  to_node   = "count"
  to_port   = "in"
}

layout "editor" {
  zoom = 2
}
`

func testContext() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var valueComparer = cmp.Comparer(func(a, b value.Value) bool { return a.Equal(b) })

func expectedTimerGraph() *config.Document {
	return &config.Document{
		Nodes: []config.NodeSpec{
			{
				ID: "tick", Type: "Timer",
				Outputs:    []config.PortSpec{{ID: "out", Type: "int"}},
				Parameters: map[string]value.Value{"interval_ms": value.IntValue(100)},
			},
			{
				ID: "count", Type: "Counter",
				Inputs:  []config.PortSpec{{ID: "in", Type: "int"}},
				Outputs: []config.PortSpec{{ID: "count", Type: "double"}},
			},
			{
				ID: "button", Type: "DeviceTrigger",
				Outputs: []config.PortSpec{{ID: "out", Type: "async_float"}},
				Parameters: map[string]value.Value{
					"value":   value.DoubleValue(0.5),
					"key":     value.StringValue("b"),
					"enabled": value.IntValue(1),
				},
			},
		},
		Connections: []config.ConnectionSpec{{FromNode: "tick", FromPort: "out", ToNode: "count", ToPort: "in"}},
	}
}

func TestParse(t *testing.T) {
	doc, err := NewLoader().Parse(testContext(), []byte(timerGraph), "timer.hcl")
	require.NoError(t, err)
	if diff := cmp.Diff(expectedTimerGraph(), doc, valueComparer); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"syntax":             `node "Add" {`,
		"missing port type":  `node "Add" "a" { input "x" {} }`,
		"parameters not map": `node "Value" "v" { parameters = 3 }`,
		"nested parameter":   `node "Value" "v" { parameters = { value = [1, 2] } }`,
		"null parameter":     `node "Value" "v" { parameters = { value = null } }`,
		"variable reference": `node "Value" "v" { parameters = { value = var.x } }`,
		"missing connection": `connection { from_node = "a" }`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewLoader().Parse(testContext(), []byte(src), name+".hcl")
			assert.Error(t, err)
		})
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.hcl"), []byte(`
node "Value" "one" {
  output "out" { type = "int" }
  parameters = { value = 1 }
}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.hcl"), []byte(`
node "Value" "two" {
  output "out" { type = "int" }
}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	doc, err := NewLoader().Load(testContext(), dir)
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, "one", doc.Nodes[0].ID)
	assert.Equal(t, "two", doc.Nodes[1].ID)
	assert.Nil(t, doc.Nodes[1].Parameters)

	t.Run("missing path is an error", func(t *testing.T) {
		_, err := NewLoader().Load(testContext(), filepath.Join(dir, "missing.hcl"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("same file twice is read once", func(t *testing.T) {
		p := filepath.Join(dir, "a.hcl")
		doc, err := NewLoader().Load(testContext(), p, p)
		require.NoError(t, err)
		assert.Len(t, doc.Nodes, 1)
	})
}

func TestWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, expectedTimerGraph()))
	assert.Contains(t, buf.String(), `node "Timer" "tick" {`)

	doc, err := NewLoader().Parse(testContext(), buf.Bytes(), "written.hcl")
	require.NoError(t, err)
	if diff := cmp.Diff(expectedTimerGraph(), doc, valueComparer); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
