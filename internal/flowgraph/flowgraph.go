package flowgraph

import (
	"fmt"
	"log/slog"

	"github.com/specialistvlad/flowgraph/internal/blockdef"
	"github.com/specialistvlad/flowgraph/internal/ctxlog"
	"github.com/specialistvlad/flowgraph/internal/dag"
	"github.com/specialistvlad/flowgraph/internal/eval"
	"github.com/specialistvlad/flowgraph/internal/expr"
)

// DefaultOptionsName is the name given to a synthesized options block.
const DefaultOptionsName = "top_block"

// FlowGraph owns a design's blocks and connections.
type FlowGraph struct {
	registry *blockdef.Registry
	engine   *eval.Engine
	analyzer *expr.Analyzer
	logger   *slog.Logger

	blocks []*Block
	byName map[string]*Block
	conns  []*Connection

	// version is bumped by every mutation that can change an evaluated value.
	version uint64
	ns      *eval.Namespace

	deps         *dag.Graph
	order        []string
	cycles       []*dag.CycleError
	orderVersion uint64
	orderValid   bool

	recorded Diagnostics
	last     Diagnostics
}

// Option configures a FlowGraph.
type Option func(*FlowGraph)

// WithEngine sets the evaluation engine. By default each flowgraph gets its
// own.
func WithEngine(e *eval.Engine) Option {
	return func(fg *FlowGraph) { fg.engine = e }
}

// WithLogger sets the logger for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(fg *FlowGraph) {
		if l != nil {
			fg.logger = l
		}
	}
}

// New creates an empty flowgraph over the definitions in reg. The registry
// must define the options block.
func New(reg *blockdef.Registry, opts ...Option) (*FlowGraph, error) {
	if reg == nil {
		return nil, fmt.Errorf("flowgraph requires a block registry")
	}
	if _, ok := reg.Lookup(blockdef.OptionsKey); !ok {
		return nil, fmt.Errorf("block registry does not define '%s'", blockdef.OptionsKey)
	}

	fg := &FlowGraph{
		registry: reg,
		analyzer: expr.NewAnalyzer(),
		logger:   ctxlog.Discard(),
		byName:   make(map[string]*Block),
		version:  1,
	}
	for _, opt := range opts {
		opt(fg)
	}
	if fg.engine == nil {
		fg.engine = eval.NewEngine(eval.WithLogger(fg.logger))
	}
	return fg, nil
}

// Registry returns the definitions the flowgraph instantiates blocks from.
func (fg *FlowGraph) Registry() *blockdef.Registry { return fg.registry }

// Engine returns the evaluation engine.
func (fg *FlowGraph) Engine() *eval.Engine { return fg.engine }

// Version returns the mutation counter.
func (fg *FlowGraph) Version() uint64 { return fg.version }

func (fg *FlowGraph) bump() {
	fg.version++
}

// Blocks returns the blocks in insertion order. Unlike Elements it never
// synthesizes the options block.
func (fg *FlowGraph) Blocks() []*Block {
	return append([]*Block(nil), fg.blocks...)
}

// Block returns the block with the given name.
func (fg *FlowGraph) Block(name string) (*Block, bool) {
	b, ok := fg.byName[name]
	return b, ok
}

// Connections returns all connections in creation order.
func (fg *FlowGraph) Connections() []*Connection {
	return append([]*Connection(nil), fg.conns...)
}

// Elements returns every block, synthesizing the options block first if the
// design has none. It panics if the graph ends up with anything other than
// exactly one options block, which only mutation outside this package could
// cause.
func (fg *FlowGraph) Elements() []*Block {
	if fg.findOptions() == nil {
		fg.synthesizeOptions()
	}

	count := 0
	for _, b := range fg.blocks {
		if b.IsOptions() {
			count++
		}
	}
	if count != 1 {
		panic(fmt.Sprintf("flowgraph invariant violated: %d options blocks", count))
	}
	return fg.Blocks()
}

// Options returns the options block, synthesizing it if needed.
func (fg *FlowGraph) Options() *Block {
	if b := fg.findOptions(); b != nil {
		return b
	}
	return fg.synthesizeOptions()
}

func (fg *FlowGraph) findOptions() *Block {
	for _, b := range fg.blocks {
		if b.IsOptions() {
			return b
		}
	}
	return nil
}

func (fg *FlowGraph) synthesizeOptions() *Block {
	def, _ := fg.registry.Lookup(blockdef.OptionsKey)
	name := DefaultOptionsName
	if _, taken := fg.byName[name]; taken {
		name = fg.uniqueName(DefaultOptionsName)
	}
	b := fg.newKnownBlock(def, name)
	// The options block always leads.
	fg.blocks = append([]*Block{b}, fg.blocks...)
	fg.byName[name] = b
	fg.bump()
	fg.logger.Debug("Synthesized options block", "name", name)
	return b
}

// AddDiagnostic records a diagnostic that Validate reports until
// ClearDiagnostics is called. Loaders use it for problems found while
// reading a design.
func (fg *FlowGraph) AddDiagnostic(d Diagnostic) {
	fg.recorded = append(fg.recorded, d)
}

// ClearDiagnostics drops the recorded diagnostics.
func (fg *FlowGraph) ClearDiagnostics() {
	fg.recorded = nil
}

// dropDiagnostics forgets the recorded diagnostics that name block.
func (fg *FlowGraph) dropDiagnostics(block string) {
	kept := fg.recorded[:0]
	for _, d := range fg.recorded {
		if d.Block != block {
			kept = append(kept, d)
		}
	}
	fg.recorded = kept
}

// Diagnostics returns the result of the last Validate.
func (fg *FlowGraph) Diagnostics() Diagnostics {
	return append(Diagnostics(nil), fg.last...)
}

// Err validates the graph and folds its errors into one, nil if there are
// none.
func (fg *FlowGraph) Err() error {
	return fg.Validate().Err()
}
