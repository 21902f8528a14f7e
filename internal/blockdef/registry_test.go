package blockdef

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin(t *testing.T) {
	r, err := Builtin(context.Background())
	require.NoError(t, err)

	for _, key := range []string{OptionsKey, "variable", "parameter", "import", "blocks_add_xx", "blocks_null_sink", "blocks_message_debug"} {
		_, ok := r.Lookup(key)
		assert.True(t, ok, "builtin library must define %s", key)
	}

	opts, _ := r.Lookup(OptionsKey)
	assert.Equal(t, KindOptions, opts.Kind)

	add, _ := r.Lookup("blocks_add_xx")
	require.Len(t, add.Sinks, 1)
	assert.Equal(t, "num_inputs", add.Sinks[0].Multiplicity)

	keys := r.Keys()
	assert.IsIncreasing(t, keys)
	assert.Equal(t, r.Len(), len(keys))
}

func TestRegister_Duplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Definition{Key: "a", FilePath: "one.hcl"}))
	err := r.Register(&Definition{Key: "a", FilePath: "two.hcl"})
	assert.ErrorContains(t, err, "block 'a' is defined twice: in one.hcl and in two.hcl")
	assert.Error(t, r.Register(nil))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "extra")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "custom.hcl"), []byte(`
block "custom_gain" {
  param "gain" {
    dtype   = "real"
    default = 2
  }
  sink {}
  source {}
}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	r := NewRegistry()
	require.NoError(t, r.LoadDir(context.Background(), dir))
	def, ok := r.Lookup("custom_gain")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(sub, "custom.hcl"), def.FilePath)

	t.Run("broken manifest", func(t *testing.T) {
		bad := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(bad, "bad.hcl"), []byte(`block "x" {`), 0o644))
		err := NewRegistry().LoadDir(context.Background(), bad)
		assert.ErrorContains(t, err, "failed to parse HCL file")
	})

	t.Run("empty dir", func(t *testing.T) {
		assert.NoError(t, NewRegistry().LoadDir(context.Background(), t.TempDir()))
	})
}
