package app

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nodeflowgo/internal/engine"
	"github.com/vk/nodeflowgo/internal/node"
	"github.com/vk/nodeflowgo/internal/testutil"
	"github.com/vk/nodeflowgo/internal/value"
)

const jsonGraph = `{
  "nodes": [
    {"id": "a", "type": "DeviceTrigger", "outputs": [{"id": "out", "type": "double"}], "parameters": {"value": 2}},
    {"id": "k", "type": "Value", "outputs": [{"id": "out", "type": "double"}], "parameters": {"value": 0.5}},
    {"id": "sum", "type": "Add", "inputs": [{"id": "x", "type": "double"}, {"id": "y", "type": "double"}], "outputs": [{"id": "out", "type": "double"}]}
  ],
  "connections": [
    {"fromNode": "a", "fromPort": "out", "toNode": "sum", "toPort": "x"},
    {"fromNode": "k", "fromPort": "out", "toNode": "sum", "toPort": "y"}
  ]
}`

const yamlGraph = `
nodes:
  - id: extra
    type: Value
    outputs: [{id: out, type: int}]
    parameters: {value: 7}
`

const hclGraph = `
node "Timer" "tick" {
  output "out" { type = "int" }
  parameters = { interval_ms = 50 }
}
`

const cyclicGraph = `{
  "nodes": [
    {"id": "p", "type": "Add", "inputs": [{"id": "x", "type": "int"}], "outputs": [{"id": "out", "type": "int"}]},
    {"id": "q", "type": "Add", "inputs": [{"id": "x", "type": "int"}], "outputs": [{"id": "out", "type": "int"}]}
  ],
  "connections": [
    {"fromNode": "p", "fromPort": "out", "toNode": "q", "toPort": "x"},
    {"fromNode": "q", "fromPort": "out", "toNode": "p", "toPort": "x"}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(graph string) Config {
	cfg := DefaultConfig()
	cfg.GraphPath = graph
	return cfg
}

func TestNewConfig(t *testing.T) {
	_, err := NewConfig(DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidConfig, "graph path is required")

	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }},
		{"bad propagation", func(c *Config) { c.Propagation = "some" }},
		{"negative tick", func(c *Config) { c.TickInterval = -time.Second }},
		{"bad port", func(c *Config) { c.HealthcheckPort = 70000 }},
		{"bad metrics addr", func(c *Config) { c.MetricsAddr = "nope" }},
		{"bad remote url", func(c *Config) { c.Remote.URL = "::" }},
		{"bad backend", func(c *Config) { c.CodegenBackends = []string{"wasm"} }},
		{"base with slash", func(c *Config) { c.CodegenBase = "a/b" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig("graph.json")
			tc.mutate(&cfg)
			_, err := NewConfig(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	cfg, err := NewConfig(testConfig("graph.json"))
	require.NoError(t, err)
	assert.Equal(t, "graph.json", cfg.GraphPath)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "nodeflow.yaml", `
graph: flows/main.hcl
log_level: debug
tick_interval: 40ms
remote:
  url: http://localhost:3000/socket.io/
  namespace: /flows
`)
	cfg := DefaultConfig()
	require.NoError(t, LoadConfigFile(path, &cfg))
	assert.Equal(t, "flows/main.hcl", cfg.GraphPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat, "absent keys keep defaults")
	assert.Equal(t, 40*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, "/flows", cfg.Remote.Namespace)

	bad := writeFile(t, dir, "bad.yaml", "graph: x\nunknown_key: 1\n")
	assert.ErrorIs(t, LoadConfigFile(bad, &cfg), ErrInvalidConfig)

	empty := writeFile(t, dir, "empty.yaml", "\n")
	require.NoError(t, LoadConfigFile(empty, &cfg))
}

func TestLoadDocument(t *testing.T) {
	ctx := testutil.Context(t)
	dir := t.TempDir()
	jsonPath := writeFile(t, dir, "main.json", jsonGraph)
	writeFile(t, dir, "extra.yml", yamlGraph)
	writeFile(t, dir, "timer.hcl", hclGraph)
	writeFile(t, dir, "README.md", "ignored")

	doc, err := LoadDocument(ctx, jsonPath)
	require.NoError(t, err)
	assert.Len(t, doc.Nodes, 3)

	doc, err = LoadDocument(ctx, dir)
	require.NoError(t, err)
	var ids []string
	for _, n := range doc.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"tick", "a", "k", "sum", "extra"}, ids)

	_, err = LoadDocument(ctx, filepath.Join(dir, "README.md"))
	assert.ErrorContains(t, err, "unsupported graph file")
	_, err = LoadDocument(ctx, filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
	_, err = LoadDocument(ctx, t.TempDir())
	assert.ErrorContains(t, err, "no graph files")
}

func TestApp_ReloadKeepsRunningGraphOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "graph.json", jsonGraph)
	a, logs := SetupAppTest(t, testConfig(path))
	ctx := a.Context(context.Background())

	require.NoError(t, a.Reload(ctx, nil))
	snap, err := a.Runner().Snapshot()
	require.NoError(t, err)
	assert.Equal(t, value.DoubleValue(2.5), snap.Outputs["sum"]["out"])

	writeFile(t, dir, "graph.json", cyclicGraph)
	assert.Error(t, a.Reload(ctx, []string{path}))
	snap, err = a.Runner().Snapshot()
	require.NoError(t, err, "previous graph still loaded")
	assert.Equal(t, value.DoubleValue(2.5), snap.Outputs["sum"]["out"])
	assert.Contains(t, logs.String(), "Graph running.")
}

func TestApp_ReloadKeepsRunningGraphWhenFirstPassFails(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "graph.json", jsonGraph)
	a, logs := SetupAppTest(t, testConfig(path))
	ctx := a.Context(context.Background())
	require.NoError(t, a.Reload(ctx, nil))

	writeFile(t, dir, "graph.json", `{"nodes": [{"id": "lonely", "type": "Add", "outputs": [{"id": "out", "type": "int"}]}]}`)
	err := a.Reload(ctx, []string{path})
	require.ErrorIs(t, err, node.ErrMisconfigured)
	assert.Contains(t, logs.String(), "Graph replacement rolled back.")

	snap, err := a.Runner().Snapshot()
	require.NoError(t, err)
	assert.Equal(t, value.DoubleValue(2.5), snap.Outputs["sum"]["out"])
	assert.NotContains(t, snap.Outputs, "lonely")
	require.NoError(t, a.Runner().Step(16))
}

func TestApp_ReloadGeneratesArtifacts(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	cfg := testConfig(writeFile(t, dir, "graph.json", jsonGraph))
	cfg.CodegenDir = out
	cfg.CodegenBase = "demo"
	a, _ := SetupAppTest(t, cfg)

	require.NoError(t, a.Reload(a.Context(context.Background()), nil))
	for _, name := range []string{"demo_step.h", "demo_step.c", "demo_host.c", "demo_step.ll"} {
		assert.FileExists(t, filepath.Join(out, name))
	}
}

func TestApp_RunServesHealthAndMetrics(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(writeFile(t, dir, "graph.hcl", hclGraph))
	cfg.MetricsAddr = "127.0.0.1:0"
	cfg.TickInterval = 5 * time.Millisecond
	a, _ := SetupAppTest(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return a.HTTPAddr() != "" }, 2*time.Second, time.Millisecond)
	base := "http://" + a.HTTPAddr()

	get := func(path string) string {
		resp, err := http.Get(base + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(b)
	}
	assert.Equal(t, "OK\n", get("/health"))
	assert.Eventually(t, func() bool {
		var acc float64
		_ = a.Runner().Do(func(e *engine.Engine) error {
			acc, _ = e.TimerAccumulator("tick")
			return nil
		})
		return acc > 0
	}, 2*time.Second, time.Millisecond, "tick loop is running")
	assert.Contains(t, get("/metrics"), "nodeflow_ticks_total")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Empty(t, a.HTTPAddr())
}

func TestApp_RunFailsOnBadGraph(t *testing.T) {
	dir := t.TempDir()
	a, _ := SetupAppTest(t, testConfig(writeFile(t, dir, "graph.json", cyclicGraph)))
	err := a.Run(context.Background())
	assert.ErrorContains(t, err, "failed to load graph")
}

func TestBackends(t *testing.T) {
	bs, err := Backends([]string{"ir", "c"})
	require.NoError(t, err)
	require.Len(t, bs, 2)
	assert.Equal(t, "ir", bs[0].Name())
	assert.Equal(t, "c", bs[1].Name())

	_, err = Backends([]string{"c", "wasm"})
	assert.ErrorContains(t, err, "wasm")
}

func TestNewLogger(t *testing.T) {
	var buf testutil.SafeBuffer
	l := NewLogger("warn", "json", &buf)
	l.Info("hidden")
	l.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
