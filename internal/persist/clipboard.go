package persist

import (
	"context"

	"github.com/specialistvlad/flowgraph/internal/flowgraph"
)

// Copy captures the named blocks and the connections between them. The
// options block and unknown names are skipped.
func Copy(fg *flowgraph.FlowGraph, names []string) *Document {
	keep := make(map[string]bool, len(names))
	var blocks []*flowgraph.Block
	for _, name := range names {
		b, ok := fg.Block(name)
		if !ok || b.IsOptions() || keep[name] {
			continue
		}
		keep[name] = true
		blocks = append(blocks, b)
	}

	doc := &Document{Format: FormatVersion}
	for _, b := range sortBlocks(blocks) {
		doc.Blocks = append(doc.Blocks, exportBlock(b))
	}
	doc.Connections = exportConnections(fg.Connections(), keep)
	return doc
}

// Paste adds the blocks and connections of doc to fg. Blocks whose name is
// taken get a fresh one; the returned map gives the name each copied block
// ended up with. Expressions are pasted as written, so references to a
// renamed variable still name the original.
func Paste(ctx context.Context, fg *flowgraph.FlowGraph, doc *Document) (map[string]string, flowgraph.Diagnostics) {
	l := newLoader(ctx, fg, doc, true)
	diags := l.load()
	names := make(map[string]string, len(l.blocks))
	for old, b := range l.blocks {
		names[old] = b.Name()
	}
	return names, diags
}
