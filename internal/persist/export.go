package persist

import (
	"sort"

	"github.com/specialistvlad/flowgraph/internal/flowgraph"
)

// Export captures fg as a Document. The options block comes first, then the
// variable-like blocks, then everything else, each group by name;
// connections are sorted by their string form. Export synthesizes the
// options block if fg has none.
func Export(fg *flowgraph.FlowGraph) *Document {
	doc := &Document{Format: FormatVersion}
	for _, b := range sortBlocks(fg.Elements()) {
		doc.Blocks = append(doc.Blocks, exportBlock(b))
	}
	doc.Connections = exportConnections(fg.Connections(), nil)
	return doc
}

func exportBlock(b *flowgraph.Block) BlockRecord {
	c := b.Coordinate()
	rec := BlockRecord{
		Key:        b.Key(),
		Name:       b.Name(),
		State:      string(b.State()),
		Coordinate: []int{c.X, c.Y},
		Rotation:   b.Rotation(),
		BusSink:    b.Bus(flowgraph.Sink),
		BusSource:  b.Bus(flowgraph.Source),
	}
	for _, p := range b.Params() {
		rec.Params = append(rec.Params, ParamRecord{Key: p.Key(), Value: p.Text()})
	}
	return rec
}

// exportConnections records conns in sorted order. A non-nil keep limits
// the result to connections with both ends on kept blocks.
func exportConnections(conns []*flowgraph.Connection, keep map[string]bool) []ConnectionRecord {
	var out []ConnectionRecord
	for _, c := range conns {
		src, sink := c.Source(), c.Sink()
		if keep != nil && (!keep[src.Block().Name()] || !keep[sink.Block().Name()]) {
			continue
		}
		rec := ConnectionRecord{
			SourceBlock: src.Block().Name(),
			SourceKey:   src.Key(),
			SinkBlock:   sink.Block().Name(),
			SinkKey:     sink.Key(),
		}
		if !c.Enabled() {
			disabled := false
			rec.Enabled = &disabled
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func sortBlocks(blocks []*flowgraph.Block) []*flowgraph.Block {
	rank := func(b *flowgraph.Block) int {
		switch {
		case b.IsOptions():
			return 0
		case b.VariableLike():
			return 1
		}
		return 2
	}
	out := append([]*flowgraph.Block(nil), blocks...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rank(out[i]), rank(out[j])
		if ri != rj {
			return ri < rj
		}
		return out[i].Name() < out[j].Name()
	})
	return out
}
