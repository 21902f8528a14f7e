package persist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/specialistvlad/flowgraph/internal/blockdef"
	"github.com/specialistvlad/flowgraph/internal/ctxlog"
	"github.com/specialistvlad/flowgraph/internal/flowgraph"
)

// Import loads doc into fg. Blocks are created first, then ports are
// rewritten to match the loaded parameters, then connections are made.
//
// Nothing in a document aborts the import. Unknown block keys become
// placeholders (*UnknownBlockKeyError), unresolvable connections are skipped
// (*UnresolvedPortError), and other problems are reported the same way. The
// returned diagnostics are also recorded on fg so that Validate reports them.
func Import(ctx context.Context, fg *flowgraph.FlowGraph, doc *Document) flowgraph.Diagnostics {
	l := newLoader(ctx, fg, doc, false)
	return l.load()
}

// loader carries one import or paste.
type loader struct {
	fg     *flowgraph.FlowGraph
	doc    *Document
	logger *slog.Logger
	// paste renames blocks whose name is taken instead of failing them, and
	// never touches the options block.
	paste   bool
	blocks  map[string]*flowgraph.Block
	options *flowgraph.Block
	diags   flowgraph.Diagnostics
}

func newLoader(ctx context.Context, fg *flowgraph.FlowGraph, doc *Document, paste bool) *loader {
	return &loader{
		fg:     fg,
		doc:    doc,
		logger: ctxlog.FromContext(ctx),
		paste:  paste,
		blocks: make(map[string]*flowgraph.Block),
	}
}

func (l *loader) load() flowgraph.Diagnostics {
	l.logger.Debug("Importing document",
		"format", l.doc.Format,
		"blocks", len(l.doc.Blocks),
		"connections", len(l.doc.Connections),
	)
	if l.doc.Format > FormatVersion {
		l.warn("", "", fmt.Errorf("document format %d is newer than %d, some data may not load", l.doc.Format, FormatVersion))
	}

	var bypassed []string
	for _, rec := range l.doc.Blocks {
		if b, bypass := l.loadBlock(rec); b != nil && bypass {
			bypassed = append(bypassed, b.Name())
		}
	}

	// Ports depend on parameters, and bypass depends on ports.
	l.fg.Rewrite()
	for _, name := range bypassed {
		if err := l.fg.SetState(name, flowgraph.StateBypassed); err != nil {
			l.warn(name, "", err)
		}
	}

	for _, rec := range l.doc.Connections {
		l.loadConnection(rec)
	}

	for _, d := range l.diags {
		l.fg.AddDiagnostic(d)
	}
	l.logger.Debug("Imported document", "blocks", len(l.blocks), "diagnostics", len(l.diags))
	return l.diags
}

// loadBlock creates the block for rec. It reports whether the block is to be
// bypassed once its ports exist.
func (l *loader) loadBlock(rec BlockRecord) (*flowgraph.Block, bool) {
	if l.doc.Format == 0 {
		var err error
		if rec, err = upgradeLegacyBlock(rec); err != nil {
			l.warn(rec.Name, "", err)
		}
	}
	if rec.Name == "" {
		l.fail("", "", fmt.Errorf("block with key '%s' has no name", rec.Key))
		return nil, false
	}
	if _, seen := l.blocks[rec.Name]; seen {
		l.fail(rec.Name, "", &flowgraph.DuplicateNameError{Name: rec.Name})
		return nil, false
	}

	def, known := l.fg.Registry().Lookup(rec.Key)
	var b *flowgraph.Block
	var err error
	switch {
	case known && def.Kind == blockdef.KindOptions:
		if l.paste {
			return nil, false
		}
		if l.options != nil {
			l.fail(rec.Name, "", fmt.Errorf("document has more than one options block, '%s' was not loaded and '%s' was kept", rec.Name, l.options.Name()))
			return nil, false
		}
		b, err = l.loadOptions(rec)
		l.options = b
	case known:
		b, err = l.fg.AddBlockNamed(rec.Key, l.name(rec.Name))
	default:
		raw := make([]flowgraph.RawParam, 0, len(rec.Params))
		for _, p := range rec.Params {
			raw = append(raw, flowgraph.RawParam{Key: p.Key, Value: p.Value})
		}
		b, err = l.fg.AddPlaceholder(rec.Key, l.name(rec.Name), raw)
		if err == nil {
			l.warn(b.Name(), "", &UnknownBlockKeyError{Name: b.Name(), Key: rec.Key})
		}
	}
	if err != nil {
		l.fail(rec.Name, "", err)
		return nil, false
	}
	l.blocks[rec.Name] = b

	if known {
		for _, p := range rec.Params {
			if err := l.fg.SetParam(b.Name(), p.Key, p.Value); err != nil {
				l.warn(b.Name(), p.Key, fmt.Errorf("parameter '%s' is not defined for '%s' and was dropped", p.Key, rec.Key))
			}
		}
	}
	l.loadState(b, rec)
	return b, rec.State == string(flowgraph.StateBypassed)
}

// loadOptions reuses the options block fg already has, renamed and
// overwritten, or creates it.
func (l *loader) loadOptions(rec BlockRecord) (*flowgraph.Block, error) {
	for _, b := range l.fg.Blocks() {
		if !b.IsOptions() {
			continue
		}
		if err := l.fg.RenameBlock(b.Name(), rec.Name); err != nil {
			return nil, err
		}
		return b, nil
	}
	return l.fg.AddBlockNamed(rec.Key, rec.Name)
}

// name returns the name to create a block under. A paste into a taken name
// lets the graph pick a fresh one.
func (l *loader) name(name string) string {
	if !l.paste {
		return name
	}
	if _, taken := l.fg.Block(name); taken {
		return ""
	}
	return name
}

func (l *loader) loadState(b *flowgraph.Block, rec BlockRecord) {
	name := b.Name()
	switch len(rec.Coordinate) {
	case 0:
	case 2:
		_ = l.fg.SetCoordinate(name, flowgraph.Coordinate{X: rec.Coordinate[0], Y: rec.Coordinate[1]})
	default:
		l.warn(name, "", fmt.Errorf("coordinate must have two values, got %d", len(rec.Coordinate)))
	}
	_ = l.fg.SetRotation(name, rec.Rotation)
	_ = l.fg.SetBus(name, flowgraph.Sink, rec.BusSink)
	_ = l.fg.SetBus(name, flowgraph.Source, rec.BusSource)

	if rec.State == "" {
		return
	}
	state, err := flowgraph.ParseState(rec.State)
	if err != nil {
		l.warn(name, "", err)
		return
	}
	if state == flowgraph.StateDisabled {
		if err := l.fg.SetState(name, state); err != nil {
			l.warn(name, "", err)
		}
	}
}

func (l *loader) loadConnection(rec ConnectionRecord) {
	src, ok := l.blocks[rec.SourceBlock]
	if !ok {
		l.fail(rec.SourceBlock, "", &UnresolvedPortError{Connection: rec.String(), Block: rec.SourceBlock, Key: rec.SourceKey, Direction: flowgraph.Source})
		return
	}
	sink, ok := l.blocks[rec.SinkBlock]
	if !ok {
		l.fail(rec.SinkBlock, "", &UnresolvedPortError{Connection: rec.String(), Block: rec.SinkBlock, Key: rec.SinkKey, Direction: flowgraph.Sink})
		return
	}

	srcKey, sinkKey := rec.SourceKey, rec.SinkKey
	if l.doc.Format == 0 {
		srcKey, sinkKey = remapLegacyMessageKeys(src, sink, srcKey, sinkKey)
	}

	srcPort, err := l.port(rec, src, flowgraph.Source, srcKey)
	if err != nil {
		l.fail(src.Name(), "", err)
		return
	}
	sinkPort, err := l.port(rec, sink, flowgraph.Sink, sinkKey)
	if err != nil {
		l.fail(sink.Name(), "", err)
		return
	}

	c, err := l.fg.Connect(srcPort, sinkPort)
	if err != nil {
		l.fail(sink.Name(), "", err)
		return
	}
	if !rec.IsEnabled() {
		_ = l.fg.SetConnectionEnabled(c, false)
	}
}

func (l *loader) port(rec ConnectionRecord, b *flowgraph.Block, dir flowgraph.Direction, key string) (*flowgraph.Port, error) {
	if b.IsPlaceholder() {
		return l.fg.EnsurePlaceholderPort(b.Name(), dir, key)
	}
	if p, ok := b.Port(dir, key); ok {
		return p, nil
	}
	return nil, &UnresolvedPortError{Connection: rec.String(), Block: b.Name(), Key: key, Direction: dir}
}

func (l *loader) fail(block, param string, err error) {
	l.logger.Debug("Import problem", "block", block, "error", err)
	l.diags = append(l.diags, flowgraph.Diagnostic{Severity: flowgraph.SeverityError, Block: block, Param: param, Err: err})
}

func (l *loader) warn(block, param string, err error) {
	l.logger.Debug("Import warning", "block", block, "error", err)
	l.diags = append(l.diags, flowgraph.Diagnostic{Severity: flowgraph.SeverityWarning, Block: block, Param: param, Err: err})
}
