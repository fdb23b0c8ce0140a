package codegen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nodeflowgo/internal/graph"
	"github.com/vk/nodeflowgo/internal/testutil"
)

func TestGenerate_WritesEveryBackend(t *testing.T) {
	ctx := testutil.Context(t)
	s, err := graph.Build(ctx, testutil.BranchesDoc())
	require.NoError(t, err)
	dir := t.TempDir()

	names, err := Generate(ctx, s, dir, "branches", Portable{}, Host{}, IR{})
	require.NoError(t, err)
	assert.Equal(t, []string{"branches_step.h", "branches_step.c", "branches_host.c", "branches_step.ll"}, names)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4, "no staging files left behind")
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.NotEmpty(t, b)
	}
}

func TestGenerate_SkipsUnsupportedBackend(t *testing.T) {
	ctx, logs := testutil.ContextWithLogs(t)
	s, err := graph.Build(ctx, testutil.TimerCounterDoc(100))
	require.NoError(t, err)

	names, err := Generate(ctx, s, t.TempDir(), "timer", Portable{}, IR{})
	require.NoError(t, err)
	assert.Equal(t, []string{"timer_step.h", "timer_step.c"}, names)
	assert.Contains(t, logs.String(), "Backend skipped.")
}

func TestWriteFiles_UnwritableTargetIsNoOp(t *testing.T) {
	ctx, logs := testutil.ContextWithLogs(t)
	dir := filepath.Join(t.TempDir(), "missing", "dir")

	err := WriteFiles(ctx, dir, []File{{Name: "a_step.h", Content: []byte("x")}, {Name: "a_step.c", Content: []byte("y")}})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "Cannot open artifact for writing")
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteFiles_Overwrites(t *testing.T) {
	ctx := testutil.Context(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "a_step.c")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o644))

	require.NoError(t, WriteFiles(ctx, dir, []File{{Name: "a_step.c", Content: []byte("new")}}))
	b, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "new", string(b))
}
