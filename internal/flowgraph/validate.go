package flowgraph

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/flowgraph/internal/blockdef"
	"github.com/specialistvlad/flowgraph/internal/eval"
)

// ErrNoOptions is reported when a design has no options block.
var ErrNoOptions = errors.New("flowgraph has no options block")

// Validate checks the whole design and returns every problem found, together
// with the diagnostics recorded by AddDiagnostic. It never fails and changes
// nothing but evaluation caches. Disabled blocks are not checked.
func (fg *FlowGraph) Validate() Diagnostics {
	var ds Diagnostics

	if fg.findOptions() == nil {
		ds = append(ds, errorDiag("", "", "", ErrNoOptions))
	}

	_, cycles := fg.resolve()
	for _, cycle := range cycles {
		for _, name := range cycle.Path {
			param := ""
			if b, ok := fg.byName[name]; ok {
				if def, ok := b.Definition(); ok {
					param = def.ValueParam
				}
			}
			ds = append(ds, errorDiag(name, param, "", cycle))
		}
	}

	for _, b := range fg.blocks {
		ds = append(ds, fg.validateBlock(b)...)
	}
	for _, c := range fg.conns {
		ds = append(ds, validateConnection(c)...)
	}
	ds = append(ds, fg.recorded...)

	fg.last = ds
	return ds
}

func (fg *FlowGraph) validateBlock(b *Block) Diagnostics {
	var ds Diagnostics

	if b.IsPlaceholder() {
		return append(ds, errorDiag(b.name, "", "", fmt.Errorf("%w '%s'", ErrUnknownKey, b.Key())))
	}
	if !b.Enabled() {
		return nil
	}

	def, _ := b.Definition()
	if def.Deprecated {
		ds = append(ds, warningDiag(b.name, "", "", fmt.Errorf("block '%s' is deprecated", def.Key)))
	}

	failed := make(map[string]bool)
	for _, p := range b.params {
		if _, err := fg.paramValue(p); err != nil {
			failed[p.key] = true
			ds = append(ds, errorDiag(b.name, p.key, "", err))
		}
		ds = append(ds, fg.missingImports(b, p)...)
	}
	// Expressions over a failed parameter would only repeat its error.
	dependsOnFailed := func(text string) bool {
		return len(failed) > 0 && len(fg.analyzer.References(text, func(name string) bool { return failed[name] })) > 0
	}

	for _, text := range def.Asserts {
		if dependsOnFailed(text) {
			continue
		}
		v, err := fg.evaluateLocal(b, text, eval.Bool)
		switch {
		case err != nil:
			ds = append(ds, errorDiag(b.name, "", "", fmt.Errorf("assertion %q could not be evaluated: %w", text, err)))
		case v.False():
			ds = append(ds, errorDiag(b.name, "", "", fmt.Errorf("assertion %q failed", text)))
		}
	}

	for _, dir := range []Direction{Sink, Source} {
		for _, pd := range portDefs(def, dir) {
			if pd.Multiplicity == "" || dependsOnFailed(pd.Multiplicity) {
				continue
			}
			if _, err := fg.multiplicity(b, pd.Multiplicity); err != nil {
				ds = append(ds, errorDiag(b.name, "", "", fmt.Errorf("%s multiplicity %q: %w", dir, pd.Multiplicity, err)))
			}
		}
		ds = append(ds, fg.validateBus(b, dir, def)...)
		ds = append(ds, validatePorts(b, dir)...)
	}
	return ds
}

// missingImports warns about functions p calls that a library defines but
// no import block brings into scope.
func (fg *FlowGraph) missingImports(b *Block, p *Param) Diagnostics {
	if p.dtype == eval.String || p.dtype == eval.Import {
		return nil
	}
	ns := fg.Namespace()
	var ds Diagnostics
	for _, fn := range fg.analyzer.CalledFunctions(p.text) {
		if _, ok := ns.Functions[fn]; ok {
			continue
		}
		if lib, ok := fg.engine.LibraryOf(fn); ok {
			ds = append(ds, warningDiag(b.name, p.key, "", fmt.Errorf("function '%s' is defined by library '%s', which is not imported", fn, lib)))
		}
	}
	return ds
}

func (fg *FlowGraph) validateBus(b *Block, dir Direction, def *blockdef.Definition) Diagnostics {
	if !b.Bus(dir) {
		return nil
	}
	s, err := fg.declaredBusStructure(b, dir, def)
	if err == nil && s != nil {
		err = s.Validate(countRegular(b, dir))
	}
	if err != nil {
		return Diagnostics{errorDiag(b.name, "", "", fmt.Errorf("%s bus structure: %w", dir, err))}
	}
	return nil
}

func countRegular(b *Block, dir Direction) int {
	n := 0
	for _, p := range b.portList(dir) {
		if !p.IsBus() {
			n++
		}
	}
	return n
}

func validatePorts(b *Block, dir Direction) Diagnostics {
	var ds Diagnostics
	for _, p := range b.portList(dir) {
		if p.Hidden() {
			continue
		}
		active := 0
		for _, c := range p.conns {
			if c.Active() {
				active++
			}
		}
		if active == 0 && !p.optional {
			ds = append(ds, errorDiag(b.name, "", p.key, fmt.Errorf("%s port is not connected", dir)))
		}
		if dir == Sink && p.domain == blockdef.DomainStream && active > 1 {
			ds = append(ds, errorDiag(b.name, "", p.key, fmt.Errorf("stream sink has %d connections, it accepts one", active)))
		}
	}
	return ds
}

func validateConnection(c *Connection) Diagnostics {
	if !c.Active() {
		return nil
	}
	src, sink := c.source, c.sink
	var ds Diagnostics
	if src.domain != sink.domain {
		ds = append(ds, errorDiag(sink.block.name, "", sink.key,
			fmt.Errorf("connection %s: source domain '%s' does not match sink domain '%s'", c, src.domain, sink.domain)))
	}
	if src.dtype != "" && sink.dtype != "" && src.dtype != sink.dtype {
		ds = append(ds, errorDiag(sink.block.name, "", sink.key,
			fmt.Errorf("connection %s: source type '%s' does not match sink type '%s'", c, src.dtype, sink.dtype)))
	}
	if src.Hidden() || sink.Hidden() {
		ds = append(ds, warningDiag(sink.block.name, "", sink.key,
			fmt.Errorf("connection %s attaches to a hidden port", c)))
	}
	return ds
}
