package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/specialistvlad/flowgraph/internal/flowgraph"
	fgtest "github.com/specialistvlad/flowgraph/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		in      Config
		want    Config
		wantErr string
	}{
		{name: "defaults", in: Config{}, want: Config{LogFormat: "text", LogLevel: "info"}},
		{name: "normalized", in: Config{LogFormat: "JSON", LogLevel: "Debug"}, want: Config{LogFormat: "json", LogLevel: "debug"}},
		{name: "bad format", in: Config{LogFormat: "xml"}, wantErr: "invalid log format"},
		{name: "bad level", in: Config{LogLevel: "verbose"}, wantErr: "invalid log level"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewConfig(tc.in)
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func newTestApp(t *testing.T, cfg Config) (*App, *fgtest.SafeBuffer) {
	t.Helper()
	cfg.LogLevel = "debug"
	c, err := NewConfig(cfg)
	require.NoError(t, err)
	logs := &fgtest.SafeBuffer{}
	a, err := NewApp(logs, c)
	require.NoError(t, err)
	return a, logs
}

func TestNewApp_ExtraBlocks(t *testing.T) {
	dir := fgtest.WriteFiles(t, map[string]string{
		"lib/gain.hcl": `
block "custom_gain" {
  param "gain" {
    dtype   = "real"
    default = 2
  }
}
`,
	})
	a, logs := newTestApp(t, Config{BlocksPath: filepath.Join(dir, "lib")})
	_, ok := a.Registry().Lookup("custom_gain")
	assert.True(t, ok)
	assert.Contains(t, logs.String(), "Block registry ready.")

	_, err := NewApp(&fgtest.SafeBuffer{}, &Config{BlocksPath: filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestLoadAndSave(t *testing.T) {
	dir := fgtest.WriteFiles(t, map[string]string{
		"in.yml": `
format: 1
block:
  - {key: options, name: top_block}
  - key: variable
    name: n
    param:
      - {key: value, value: "3"}
  - key: blocks_null_sink
    name: dst
    param:
      - {key: num_inputs, value: n}
  - {key: not_a_block, name: mystery}
`,
	})
	a, _ := newTestApp(t, Config{})

	fg, diags, err := a.Load(filepath.Join(dir, "in.yml"))
	require.NoError(t, err)
	fgtest.AssertDiagnostic(t, diags, "mystery", "unknown key 'not_a_block'")

	dst, ok := fg.Block("dst")
	require.True(t, ok)
	assert.Len(t, dst.Ports(flowgraph.Sink), 3, "load rewrites ports")

	out := filepath.Join(dir, "out.yml")
	require.NoError(t, a.Save(out, fg))
	reloaded, _, err := a.Load(out)
	require.NoError(t, err)
	assert.Len(t, reloaded.Blocks(), len(fg.Blocks()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "key: not_a_block")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temporary files are left behind")
}

func TestLoad_Errors(t *testing.T) {
	a, _ := newTestApp(t, Config{})
	dir := fgtest.WriteFiles(t, map[string]string{"bad.yml": "format: [\n"})

	_, _, err := a.Load(filepath.Join(dir, "missing.yml"))
	assert.ErrorContains(t, err, "failed to open design")

	_, _, err = a.Load(filepath.Join(dir, "bad.yml"))
	assert.ErrorContains(t, err, "failed to read design")
}

func TestNewFlowGraph_RecordsMetrics(t *testing.T) {
	a, _ := newTestApp(t, Config{})
	fg, err := a.NewFlowGraph()
	require.NoError(t, err)
	_, err = fg.AddBlockNamed("variable", "x")
	require.NoError(t, err)
	_, err = fg.Value("x")
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(a.Gatherer(), "flowgraph_namespace_builds_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
