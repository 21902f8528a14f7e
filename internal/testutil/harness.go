package testutil

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteFiles writes files, keyed by slash-separated relative path, under a
// fresh temporary directory and returns the directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}
	return dir
}

// Runner is a command line entrypoint: it runs args, writing results to out
// and logs to logW.
type Runner func(args []string, out, logW io.Writer) error

// HarnessResult holds the outcome of one command run.
type HarnessResult struct {
	Dir       string
	Output    string
	LogOutput string
	Err       error
}

// RunCommand writes files to a temporary directory and runs args through
// run. Any argument naming one of the files is replaced by that file's path.
func RunCommand(t *testing.T, run Runner, files map[string]string, args ...string) *HarnessResult {
	t.Helper()

	dir := WriteFiles(t, files)
	resolved := make([]string, len(args))
	for i, arg := range args {
		if _, ok := files[arg]; ok {
			arg = filepath.Join(dir, filepath.FromSlash(arg))
		}
		resolved[i] = arg
	}

	var out bytes.Buffer
	logs := &SafeBuffer{}
	err := run(resolved, &out, logs)

	t.Cleanup(func() {
		if os.Getenv("FLOWGRAPH_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	return &HarnessResult{Dir: dir, Output: out.String(), LogOutput: logs.String(), Err: err}
}
