package flowgraph

import (
	"fmt"
	"strconv"

	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/flowgraph/internal/blockdef"
	"github.com/specialistvlad/flowgraph/internal/eval"
)

// AddBlock instantiates the definition registered under key with a fresh
// unique name of the form <key>_<n>.
func (fg *FlowGraph) AddBlock(key string) (*Block, error) {
	return fg.AddBlockNamed(key, "")
}

// AddBlockNamed instantiates the definition registered under key as name. An
// empty name picks a unique one.
func (fg *FlowGraph) AddBlockNamed(key, name string) (*Block, error) {
	def, ok := fg.registry.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("cannot add block: %w '%s'", ErrUnknownKey, key)
	}
	if def.Kind == blockdef.KindOptions && fg.findOptions() != nil {
		return nil, fmt.Errorf("cannot add block: the flowgraph already has an options block")
	}
	if name == "" {
		name = fg.uniqueName(key)
	} else if err := fg.checkName(name); err != nil {
		return nil, err
	}

	b := fg.newKnownBlock(def, name)
	fg.insert(b)
	fg.rewriteBlock(b)
	fg.logger.Debug("Added block", "name", name, "key", key)
	return b, nil
}

// AddPlaceholder adds a block standing in for a key that has no definition.
// Its parameters hold the raw text verbatim and are never evaluated.
func (fg *FlowGraph) AddPlaceholder(rawKey, name string, rawParams []RawParam) (*Block, error) {
	if name == "" {
		name = fg.uniqueName(rawKey)
	} else if err := fg.checkName(name); err != nil {
		return nil, err
	}

	raw := append([]RawParam(nil), rawParams...)
	b := &Block{
		fg:     fg,
		name:   name,
		origin: Placeholder{RawKey: rawKey, RawParams: raw},
		state:  StateEnabled,
	}
	for _, rp := range raw {
		b.params = append(b.params, &Param{block: b, key: rp.Key, text: rp.Value, dtype: eval.Raw})
	}
	fg.insert(b)
	fg.logger.Debug("Added placeholder block", "name", name, "key", rawKey)
	return b, nil
}

// EnsurePlaceholderPort returns the port with key on a placeholder block,
// creating it if needed. Placeholders have no declared ports, so loaders
// create the ports their connections refer to.
func (fg *FlowGraph) EnsurePlaceholderPort(name string, dir Direction, key string) (*Port, error) {
	b, ok := fg.byName[name]
	if !ok {
		return nil, &NotFoundError{What: "block", Name: name}
	}
	if !b.IsPlaceholder() {
		return nil, fmt.Errorf("block '%s' is not a placeholder", name)
	}
	if p, ok := b.Port(dir, key); ok {
		return p, nil
	}
	p := &Port{block: b, dir: dir, key: key, label: key, domain: blockdef.DomainStream, defIndex: -1, optional: true}
	b.setPortList(dir, append(b.portList(dir), p))
	return p, nil
}

func (fg *FlowGraph) newKnownBlock(def *blockdef.Definition, name string) *Block {
	b := &Block{
		fg:     fg,
		name:   name,
		origin: Known{Def: def},
		state:  StateEnabled,
	}
	for i := range def.Params {
		pd := &def.Params[i]
		b.params = append(b.params, &Param{block: b, key: pd.Key, text: pd.Default, dtype: pd.DType, def: pd})
	}
	return b
}

func (fg *FlowGraph) insert(b *Block) {
	fg.blocks = append(fg.blocks, b)
	fg.byName[b.name] = b
	fg.bump()
}

func (fg *FlowGraph) checkName(name string) error {
	if !hclsyntax.ValidIdentifier(name) {
		return &InvalidNameError{Name: name}
	}
	if _, taken := fg.byName[name]; taken {
		return &DuplicateNameError{Name: name}
	}
	return nil
}

// uniqueName returns <base>_<n> for the lowest n not in use.
func (fg *FlowGraph) uniqueName(base string) string {
	if !hclsyntax.ValidIdentifier(base) {
		base = "block"
	}
	for n := 0; ; n++ {
		name := base + "_" + strconv.Itoa(n)
		if _, taken := fg.byName[name]; !taken {
			return name
		}
	}
}

// RemoveBlock removes a block, every connection attached to it and the
// diagnostics recorded for it. Removing the options block is refused: the
// graph is left untouched and ErrOptionsRequired is returned.
func (fg *FlowGraph) RemoveBlock(name string) error {
	b, ok := fg.byName[name]
	if !ok {
		return &NotFoundError{What: "block", Name: name}
	}
	if b.IsOptions() {
		return ErrOptionsRequired
	}

	removed := 0
	for _, dir := range []Direction{Sink, Source} {
		for _, p := range b.portList(dir) {
			removed += fg.disconnectPort(p)
		}
	}

	for i, other := range fg.blocks {
		if other == b {
			fg.blocks = append(fg.blocks[:i], fg.blocks[i+1:]...)
			break
		}
	}
	delete(fg.byName, name)
	b.fg = nil
	fg.dropDiagnostics(name)
	fg.bump()

	fg.logger.Debug("Removed block", "name", name, "connections_removed", removed)
	return nil
}

// RenameBlock changes a block's name. Expressions referring to the old name
// are left as they are.
func (fg *FlowGraph) RenameBlock(oldName, newName string) error {
	b, ok := fg.byName[oldName]
	if !ok {
		return &NotFoundError{What: "block", Name: oldName}
	}
	if oldName == newName {
		return nil
	}
	if err := fg.checkName(newName); err != nil {
		return err
	}
	delete(fg.byName, oldName)
	b.name = newName
	fg.byName[newName] = b
	for i := range fg.recorded {
		if fg.recorded[i].Block == oldName {
			fg.recorded[i].Block = newName
		}
	}
	fg.bump()
	fg.logger.Debug("Renamed block", "from", oldName, "to", newName)
	return nil
}

// SetState changes a block's enable state. Only blocks that can pass their
// input straight through can be bypassed.
func (fg *FlowGraph) SetState(name string, state State) error {
	b, ok := fg.byName[name]
	if !ok {
		return &NotFoundError{What: "block", Name: name}
	}
	if _, err := ParseState(string(state)); err != nil {
		return err
	}
	if b.state == state {
		return nil
	}
	if state == StateBypassed && !b.CanBypass() {
		return fmt.Errorf("block '%s' cannot be bypassed", name)
	}
	b.state = state
	fg.bump()
	return nil
}

// SetCoordinate stores a block's canvas position.
func (fg *FlowGraph) SetCoordinate(name string, c Coordinate) error {
	b, ok := fg.byName[name]
	if !ok {
		return &NotFoundError{What: "block", Name: name}
	}
	b.coordinate = c
	return nil
}

// SetRotation stores a block's rotation in degrees.
func (fg *FlowGraph) SetRotation(name string, degrees int) error {
	b, ok := fg.byName[name]
	if !ok {
		return &NotFoundError{What: "block", Name: name}
	}
	b.rotation = degrees
	return nil
}

// SetBus groups or ungroups the ports on one side of a block. The ports
// themselves change on the next Rewrite.
func (fg *FlowGraph) SetBus(name string, dir Direction, on bool) error {
	b, ok := fg.byName[name]
	if !ok {
		return &NotFoundError{What: "block", Name: name}
	}
	if dir == Source {
		b.busSource = on
	} else {
		b.busSink = on
	}
	return nil
}
