package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/specialistvlad/flowgraph/internal/blockdef"
	"github.com/specialistvlad/flowgraph/internal/ctxlog"
	"github.com/specialistvlad/flowgraph/internal/flowgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Registry returns the builtin block registry extended with the given HCL
// manifests.
func Registry(t *testing.T, manifests ...string) *blockdef.Registry {
	t.Helper()
	reg, err := blockdef.Builtin(context.Background())
	require.NoError(t, err)
	if len(manifests) == 0 {
		return reg
	}

	fsys := fstest.MapFS{}
	for i, src := range manifests {
		fsys[fmt.Sprintf("extra/%02d.hcl", i)] = &fstest.MapFile{Data: []byte(src)}
	}
	require.NoError(t, reg.LoadFS(context.Background(), fsys, "extra"))
	return reg
}

// NewFlowGraph returns an empty flowgraph over the builtin blocks plus the
// given manifests.
func NewFlowGraph(t *testing.T, manifests ...string) *flowgraph.FlowGraph {
	t.Helper()
	fg, err := flowgraph.New(Registry(t, manifests...))
	require.NoError(t, err)
	return fg
}

// Logger returns a debug logger writing to a buffer, and a context carrying
// it. The buffer is printed when FLOWGRAPH_TEST_LOGS=true.
func Logger(t *testing.T) (context.Context, *slog.Logger, *SafeBuffer) {
	t.Helper()
	buf := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	t.Cleanup(func() {
		if os.Getenv("FLOWGRAPH_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), buf.String())
		}
	})
	return ctxlog.WithLogger(context.Background(), logger), logger, buf
}

// AssertDiagnostic checks that ds holds a diagnostic on block whose message
// contains substr.
func AssertDiagnostic(t *testing.T, ds flowgraph.Diagnostics, block, substr string) bool {
	t.Helper()
	for _, d := range ds.For(block) {
		if strings.Contains(d.Error(), substr) {
			return true
		}
	}
	return assert.Fail(t, "diagnostic not found",
		"no diagnostic on block %q containing %q in:\n%v", block, substr, ds)
}
