package flowgraph

import (
	"fmt"

	"github.com/specialistvlad/flowgraph/internal/blockdef"
	"github.com/specialistvlad/flowgraph/internal/eval"
	"github.com/zclconf/go-cty/cty"
)

// State is a block's enable state.
type State string

const (
	StateEnabled  State = "enabled"
	StateDisabled State = "disabled"
	StateBypassed State = "bypassed"
)

// ParseState validates a state name.
func ParseState(s string) (State, error) {
	switch State(s) {
	case StateEnabled, StateDisabled, StateBypassed:
		return State(s), nil
	}
	return "", fmt.Errorf("unknown block state '%s'", s)
}

// Direction is the side of a block a port sits on.
type Direction int

const (
	Sink Direction = iota
	Source
)

func (d Direction) String() string {
	if d == Source {
		return "source"
	}
	return "sink"
}

// Coordinate is a block's position on the canvas. It is stored and persisted,
// never interpreted.
type Coordinate struct {
	X, Y int
}

// Origin is what a block was created from: a Known definition, or a
// Placeholder for a key no definition exists for.
type Origin interface {
	isOrigin()
}

// Known is the origin of a block instantiated from a registered definition.
type Known struct {
	Def *blockdef.Definition
}

// RawParam is one persisted parameter of a placeholder block, kept verbatim.
type RawParam struct {
	Key   string
	Value string
}

// Placeholder is the origin of a block whose key is not registered. It keeps
// what was loaded so that saving the design again loses nothing.
type Placeholder struct {
	RawKey    string
	RawParams []RawParam
}

func (Known) isOrigin()       {}
func (Placeholder) isOrigin() {}

// Block is one node of the flowgraph.
type Block struct {
	fg     *FlowGraph
	name   string
	origin Origin

	params  []*Param
	sinks   []*Port
	sources []*Port

	state      State
	coordinate Coordinate
	rotation   int
	busSink    bool
	busSource  bool
}

// Name returns the block's unique name.
func (b *Block) Name() string { return b.name }

// Key returns the definition key, or the raw key of a placeholder.
func (b *Block) Key() string {
	switch o := b.origin.(type) {
	case Known:
		return o.Def.Key
	case Placeholder:
		return o.RawKey
	}
	return ""
}

// Origin returns the tagged origin of the block.
func (b *Block) Origin() Origin { return b.origin }

// Definition returns the block's definition when it has one.
func (b *Block) Definition() (*blockdef.Definition, bool) {
	if k, ok := b.origin.(Known); ok {
		return k.Def, true
	}
	return nil, false
}

// IsPlaceholder reports whether the block stands in for an unknown key.
func (b *Block) IsPlaceholder() bool {
	_, ok := b.origin.(Placeholder)
	return ok
}

// Kind returns the definition kind. Placeholders are ordinary blocks.
func (b *Block) Kind() blockdef.Kind {
	if def, ok := b.Definition(); ok {
		return def.Kind
	}
	return blockdef.KindBlock
}

// IsOptions reports whether this is the options block.
func (b *Block) IsOptions() bool { return b.Kind() == blockdef.KindOptions }

// VariableLike reports whether other expressions may reference this block.
func (b *Block) VariableLike() bool { return b.Kind().VariableLike() }

// Params returns the block's parameters in declaration order.
func (b *Block) Params() []*Param {
	return append([]*Param(nil), b.params...)
}

// Param returns the parameter with the given key.
func (b *Block) Param(key string) (*Param, bool) {
	for _, p := range b.params {
		if p.key == key {
			return p, true
		}
	}
	return nil, false
}

// Sinks returns the block's sink ports in order.
func (b *Block) Sinks() []*Port { return append([]*Port(nil), b.sinks...) }

// Sources returns the block's source ports in order.
func (b *Block) Sources() []*Port { return append([]*Port(nil), b.sources...) }

// Ports returns the ports on one side of the block.
func (b *Block) Ports(dir Direction) []*Port {
	if dir == Source {
		return b.Sources()
	}
	return b.Sinks()
}

// Port returns the port with key on the given side.
func (b *Block) Port(dir Direction, key string) (*Port, bool) {
	for _, p := range b.portList(dir) {
		if p.key == key {
			return p, true
		}
	}
	return nil, false
}

func (b *Block) portList(dir Direction) []*Port {
	if dir == Source {
		return b.sources
	}
	return b.sinks
}

func (b *Block) setPortList(dir Direction, ports []*Port) {
	if dir == Source {
		b.sources = ports
	} else {
		b.sinks = ports
	}
}

// State returns the enable state.
func (b *Block) State() State { return b.state }

// Enabled reports whether the block takes part in the design. Bypassed blocks
// do.
func (b *Block) Enabled() bool { return b.state != StateDisabled }

// Coordinate returns the stored canvas position.
func (b *Block) Coordinate() Coordinate { return b.coordinate }

// Rotation returns the stored rotation in degrees.
func (b *Block) Rotation() int { return b.rotation }

// Bus reports whether the ports on one side are grouped into buses.
func (b *Block) Bus(dir Direction) bool {
	if dir == Source {
		return b.busSource
	}
	return b.busSink
}

// CanBypass reports whether the block can pass its input straight through:
// exactly one sink and one source stream port of the same type.
func (b *Block) CanBypass() bool {
	if b.VariableLike() || b.IsOptions() {
		return false
	}
	sinks := b.streamPorts(Sink)
	sources := b.streamPorts(Source)
	return len(sinks) == 1 && len(sources) == 1 && sinks[0].dtype == sources[0].dtype
}

func (b *Block) streamPorts(dir Direction) []*Port {
	var out []*Port
	for _, p := range b.portList(dir) {
		if p.domain == blockdef.DomainStream {
			out = append(out, p)
		}
	}
	return out
}

func (b *Block) String() string { return b.name }

// Port is an attachment point on a block.
type Port struct {
	block *Block
	dir   Direction
	key   string

	label    string
	domain   string
	dtype    string
	optional bool
	hidden   bool

	// defIndex is the port declaration this port was materialized from, -1
	// for bus ports and placeholder ports.
	defIndex int
	master   *Port
	// busMembers are the indices of the ports a bus port aggregates.
	busMembers []int
	// inBus is set on ports currently aggregated by a bus port.
	inBus bool

	conns []*Connection
}

// Block returns the owning block.
func (p *Port) Block() *Block { return p.block }

// Direction returns which side of the block the port is on.
func (p *Port) Direction() Direction { return p.dir }

// Key returns the port's key, unique per direction on its block.
func (p *Port) Key() string { return p.key }

// Label returns the display label.
func (p *Port) Label() string { return p.label }

// Domain returns stream, message or bus.
func (p *Port) Domain() string { return p.domain }

// DType returns the declared item type.
func (p *Port) DType() string { return p.dtype }

// Optional reports whether the port may be left unconnected.
func (p *Port) Optional() bool { return p.optional }

// Hidden reports whether the port is hidden, either by declaration or because
// a bus port stands in for it.
func (p *Port) Hidden() bool { return p.hidden || p.inBus }

// Master returns the port this one was cloned from, or nil.
func (p *Port) Master() *Port { return p.master }

// IsBus reports whether the port represents a bus group.
func (p *Port) IsBus() bool { return p.domain == blockdef.DomainBus }

// BusMembers returns the indices of the ports a bus port aggregates.
func (p *Port) BusMembers() []int { return append([]int(nil), p.busMembers...) }

// Connections returns the connections attached to the port.
func (p *Port) Connections() []*Connection {
	return append([]*Connection(nil), p.conns...)
}

func (p *Port) String() string {
	if p.block == nil {
		return "<removed>:" + p.key
	}
	return p.block.name + ":" + p.key
}

// Param is one parameter of a block.
type Param struct {
	block *Block
	key   string
	text  string
	dtype eval.DType
	def   *blockdef.ParamDef

	value cty.Value
	err   error
	// stamp is the graph version the cached value was computed at.
	stamp uint64
	valid bool
}

// Key returns the parameter key.
func (p *Param) Key() string { return p.key }

// Text returns the raw text as entered.
func (p *Param) Text() string { return p.text }

// DType returns the declared data type.
func (p *Param) DType() eval.DType { return p.dtype }

// Block returns the owning block.
func (p *Param) Block() *Block { return p.block }

// Definition returns the declaration, nil for placeholder parameters.
func (p *Param) Definition() *blockdef.ParamDef { return p.def }

// Cached returns the cached value if one was computed successfully at the
// graph's current version.
func (p *Param) Cached() (cty.Value, bool) {
	if !p.fresh() || p.err != nil {
		return cty.NilVal, false
	}
	return p.value, true
}

func (p *Param) fresh() bool {
	return p.valid && p.block != nil && p.block.fg != nil && p.stamp == p.block.fg.version
}

// Connection joins a source port to a sink port.
type Connection struct {
	source  *Port
	sink    *Port
	enabled bool
}

// Source returns the source port.
func (c *Connection) Source() *Port { return c.source }

// Sink returns the sink port.
func (c *Connection) Sink() *Port { return c.sink }

// Enabled returns the stored enabled flag.
func (c *Connection) Enabled() bool { return c.enabled }

// Active reports whether the connection is enabled and both of its blocks
// are.
func (c *Connection) Active() bool {
	return c.enabled && c.source.block.Enabled() && c.sink.block.Enabled()
}

func (c *Connection) String() string {
	return c.source.String() + "->" + c.sink.String()
}
