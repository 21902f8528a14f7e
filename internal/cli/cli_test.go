package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/flowgraph/internal/persist"
	"github.com/specialistvlad/flowgraph/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const design = `
format: 1
block:
  - {key: options, name: top_block}
  - key: variable
    name: samp_rate
    param:
      - {key: value, value: "32000"}
  - key: variable
    name: half
    param:
      - {key: value, value: samp_rate / 2}
  - {key: analog_sig_source_x, name: sig}
  - {key: blocks_throttle, name: thr}
  - {key: blocks_null_sink, name: dst}
connection:
  - {source_block_id: sig, source_key: "0", sink_block_id: thr, sink_key: "0"}
  - {source_block_id: thr, source_key: "0", sink_block_id: dst, sink_key: "0"}
`

const brokenDesign = `
format: 1
block:
  - {key: options, name: top_block}
  - key: variable
    name: a
    param:
      - {key: value, value: b + 1}
  - key: variable
    name: b
    param:
      - {key: value, value: a + 1}
  - {key: blocks_throttle, name: thr}
`

const legacyDesign = `
block:
  - key: blocks_message_strobe
    name: strobe
    param:
      - {key: _enabled, value: "True"}
      - {key: _coordinate, value: "(10, 20)"}
  - key: blocks_message_debug
    name: dbg
connection:
  - {source_block_id: strobe, source_key: "0", sink_block_id: dbg, sink_key: "2"}
`

func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "expected an *ExitError, got %T", err)
	return exitErr.Code
}

func TestValidateCommand(t *testing.T) {
	t.Run("valid design", func(t *testing.T) {
		res := testutil.RunCommand(t, Execute, map[string]string{"fg.yml": design}, "validate", "fg.yml")
		require.NoError(t, res.Err)
		assert.Contains(t, res.Output, "is valid")
	})

	t.Run("broken design", func(t *testing.T) {
		res := testutil.RunCommand(t, Execute, map[string]string{"fg.yml": brokenDesign}, "validate", "fg.yml")
		assert.Equal(t, 1, exitCode(t, res.Err))
		assert.Contains(t, res.Output, "dependency cycle")
		assert.Contains(t, res.Output, "block 'thr' port '0': sink port is not connected")
		assert.Contains(t, res.Err.Error(), "error(s) found")
	})

	t.Run("missing file", func(t *testing.T) {
		res := testutil.RunCommand(t, Execute, nil, "validate", "does-not-exist.yml")
		assert.Equal(t, 1, exitCode(t, res.Err))
		assert.Contains(t, res.Err.Error(), "failed to open design")
	})

	t.Run("warnings on request", func(t *testing.T) {
		files := map[string]string{"fg.yml": `
format: 1
block:
  - {key: options, name: top_block}
  - {key: blocks_null_source, name: src}
  - {key: blocks_head, name: head}
  - {key: blocks_null_sink, name: dst}
connection:
  - {source_block_id: src, source_key: "0", sink_block_id: head, sink_key: "0"}
  - {source_block_id: head, source_key: "0", sink_block_id: dst, sink_key: "0"}
`}
		res := testutil.RunCommand(t, Execute, files, "validate", "fg.yml")
		require.NoError(t, res.Err)
		assert.NotContains(t, res.Output, "deprecated")

		res = testutil.RunCommand(t, Execute, files, "validate", "--warnings", "fg.yml")
		require.NoError(t, res.Err)
		assert.Contains(t, res.Output, "block 'blocks_head' is deprecated")
	})
}

func TestOrderCommand(t *testing.T) {
	res := testutil.RunCommand(t, Execute, map[string]string{"fg.yml": design}, "order", "fg.yml")
	require.NoError(t, res.Err)
	assert.Equal(t, "samp_rate\nhalf\n", res.Output)

	res = testutil.RunCommand(t, Execute, map[string]string{"fg.yml": design}, "order", "fg.yml", "samp_rate")
	require.NoError(t, res.Err)
	assert.Equal(t, "depends on: \naffects: half\n", res.Output)

	res = testutil.RunCommand(t, Execute, map[string]string{"fg.yml": design}, "order", "fg.yml", "nope")
	assert.Equal(t, 1, exitCode(t, res.Err))
	assert.Contains(t, res.Err.Error(), "variable 'nope' not found")

	res = testutil.RunCommand(t, Execute, map[string]string{"fg.yml": brokenDesign}, "order", "fg.yml")
	assert.Equal(t, 1, exitCode(t, res.Err))
	assert.Contains(t, res.Err.Error(), "dependency cycle")
}

func TestEvalCommand(t *testing.T) {
	files := map[string]string{"fg.yml": design}

	res := testutil.RunCommand(t, Execute, files, "eval", "fg.yml")
	require.NoError(t, res.Err)
	assert.Equal(t, "samp_rate = 32000\nhalf = 16000\n", res.Output)

	res = testutil.RunCommand(t, Execute, files, "eval", "fg.yml", "thr.samples_per_second", "-e", "half * 2", "-e", `"${samp_rate}"`)
	require.NoError(t, res.Err)
	assert.Equal(t, "thr.samples_per_second = 32000\nhalf * 2 = 32000\n\"${samp_rate}\" = \"32000\"\n", res.Output)

	res = testutil.RunCommand(t, Execute, files, "eval", "fg.yml", "nope", "-e", "half +")
	assert.Equal(t, 1, exitCode(t, res.Err))
	assert.Contains(t, res.Output, "nope: variable 'nope' not found")
	assert.Contains(t, res.Err.Error(), "2 evaluation(s) failed")

	res = testutil.RunCommand(t, Execute, files, "eval", "--stats", "fg.yml", "half")
	require.NoError(t, res.Err)
	assert.Contains(t, res.Output, "namespace builds:")
	assert.Contains(t, res.Output, "# TYPE flowgraph_namespace_builds_total counter")
	assert.Contains(t, res.Output, "flowgraph_eval_cache_lookups_total{result=")
	assert.Contains(t, res.Output, "flowgraph_namespace_size_bucket{le=")
}

func TestUpgradeCommand(t *testing.T) {
	files := map[string]string{"old.yml": legacyDesign}

	res := testutil.RunCommand(t, Execute, files, "upgrade", "old.yml")
	require.NoError(t, res.Err)

	doc, err := persist.Unmarshal([]byte(res.Output))
	require.NoError(t, err)
	assert.Equal(t, persist.FormatVersion, doc.Format)
	require.Len(t, doc.Connections, 1)
	assert.Equal(t, "strobe:strobe->dbg:print_pdu", doc.Connections[0].String())

	out := filepath.Join(t.TempDir(), "new.yml")
	res = testutil.RunCommand(t, Execute, files, "upgrade", "old.yml", "-o", out)
	require.NoError(t, res.Err)
	assert.Empty(t, res.Output)
	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(written), "format: 1")
	assert.Contains(t, string(written), "coordinate: [10, 20]")
}

func TestBlocksCommand(t *testing.T) {
	res := testutil.RunCommand(t, Execute, nil, "blocks")
	require.NoError(t, res.Err)
	assert.Contains(t, res.Output, "KEY")
	assert.Contains(t, res.Output, "blocks_throttle")
	assert.Contains(t, res.Output, "Head (deprecated)")

	files := map[string]string{"blocks/custom.hcl": `
block "custom_gain" {
  label    = "Custom Gain"
  category = "Custom"

  param "gain" {
    dtype   = "real"
    default = 1
  }

  sink {
    domain = "stream"
    dtype  = "float"
  }
  source {
    domain = "stream"
    dtype  = "float"
  }
}
`}
	dir := testutil.WriteFiles(t, files)
	res = testutil.RunCommand(t, Execute, nil, "--blocks", filepath.Join(dir, "blocks"), "blocks")
	require.NoError(t, res.Err)
	assert.Contains(t, res.Output, "custom_gain")
	assert.Contains(t, res.Output, "Custom Gain")
}

func TestFlags(t *testing.T) {
	res := testutil.RunCommand(t, Execute, nil, "--log-format", "xml", "blocks")
	assert.Equal(t, 2, exitCode(t, res.Err))
	assert.Contains(t, res.Err.Error(), "invalid log format")

	res = testutil.RunCommand(t, Execute, nil, "--log-level", "loud", "blocks")
	assert.Equal(t, 2, exitCode(t, res.Err))

	res = testutil.RunCommand(t, Execute, map[string]string{"fg.yml": design}, "--log-level", "debug", "--log-format", "json", "order", "fg.yml")
	require.NoError(t, res.Err)
	assert.Contains(t, res.LogOutput, `"msg":"Design loaded."`)
}
