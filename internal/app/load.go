package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/specialistvlad/flowgraph/internal/flowgraph"
	"github.com/specialistvlad/flowgraph/internal/persist"
)

// Load reads the design at path into a new flowgraph and rewrites it. Load
// problems that do not prevent reading the file are returned as
// diagnostics; they are also recorded on the flowgraph.
func (a *App) Load(path string) (*flowgraph.FlowGraph, flowgraph.Diagnostics, error) {
	a.logger.Debug("Loading design...", "path", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open design: %w", err)
	}
	defer f.Close()

	doc, err := persist.Read(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read design %s: %w", path, err)
	}

	fg, err := a.NewFlowGraph()
	if err != nil {
		return nil, nil, err
	}
	diags := persist.Import(a.ctx, fg, doc)
	fg.Rewrite()

	a.logger.Info("Design loaded.",
		"path", path,
		"format", doc.Format,
		"blocks", len(fg.Blocks()),
		"connections", len(fg.Connections()),
		"load_problems", len(diags),
	)
	return fg, diags, nil
}

// Write encodes fg as a design document.
func (a *App) Write(w io.Writer, fg *flowgraph.FlowGraph) error {
	return persist.Encode(w, persist.Export(fg))
}

// Save writes fg to path. The file is replaced only once the whole design
// has been written.
func (a *App) Save(path string, fg *flowgraph.FlowGraph) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".flowgraph-*")
	if err != nil {
		return fmt.Errorf("failed to save design: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := a.Write(tmp, fg); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to save design: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to save design: %w", err)
	}
	a.logger.Info("Design saved.", "path", path)
	return nil
}
