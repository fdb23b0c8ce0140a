package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	for _, name := range []string{"a.yaml", "b.YML", "c.json", "nested/d.yml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	files, err := FindFilesByExtension(dir, ".yaml", ".yml")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "b.YML"),
		filepath.Join(dir, "nested", "d.yml"),
	}, files)

	_, err = FindFilesByExtension(filepath.Join(dir, "missing"), ".json")
	assert.Error(t, err)

	assert.Panics(t, func() { _, _ = FindFilesByExtension(dir) })
}

func TestHasExtension(t *testing.T) {
	assert.True(t, HasExtension("graph.HCL", ".hcl"))
	assert.False(t, HasExtension("graph.hcl.bak", ".hcl"))
	assert.Panics(t, func() { HasExtension("x", "") })
}
