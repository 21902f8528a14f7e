package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.block.hcl"))
	writeFile(t, filepath.Join(root, "nested", "a.block.hcl"))
	writeFile(t, filepath.Join(root, "nested", "ignored.yml"))

	files, err := FindFilesByExtension(root, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "b.block.hcl"),
		filepath.Join(root, "nested", "a.block.hcl"),
	}, files)

	t.Run("single file path", func(t *testing.T) {
		files, err := FindFilesByExtension(filepath.Join(root, "b.block.hcl"), ".hcl")
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := FindFilesByExtension(filepath.Join(root, "nope"), ".hcl")
		assert.Error(t, err)
	})
}
