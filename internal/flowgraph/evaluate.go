package flowgraph

import (
	"github.com/specialistvlad/flowgraph/internal/blockdef"
	"github.com/specialistvlad/flowgraph/internal/dag"
	"github.com/specialistvlad/flowgraph/internal/eval"
	"github.com/zclconf/go-cty/cty"
)

// Namespace returns the evaluation namespace for the current version,
// building it if the graph changed since the last build.
func (fg *FlowGraph) Namespace() *eval.Namespace {
	if fg.ns != nil && fg.ns.Version == fg.version {
		return fg.ns
	}

	order, _ := fg.resolve()

	var in eval.Input
	for _, b := range fg.blocks {
		if b.Kind() != blockdef.KindImport || !b.Enabled() {
			continue
		}
		for _, p := range b.params {
			if p.dtype == eval.Import {
				in.Imports = append(in.Imports, eval.ParseImports(p.text)...)
			}
		}
	}
	for _, name := range order {
		b := fg.byName[name]
		def, _ := b.Definition()
		p, ok := b.Param(def.ValueParam)
		if !ok {
			continue
		}
		src := eval.Source{Name: name, Text: p.text, DType: p.dtype}
		if def.Kind == blockdef.KindParameter {
			in.Parameters = append(in.Parameters, src)
		} else {
			in.Variables = append(in.Variables, src)
		}
	}

	fg.ns = fg.engine.Build(fg.version, in)
	return fg.ns
}

// Epoch returns the identity of the current namespace.
func (fg *FlowGraph) Epoch() eval.Epoch {
	return fg.Namespace().Epoch
}

// VariableOrder returns the names of the enabled variable-like blocks in the
// order they are evaluated: every name after the names its value refers to.
// A dependency cycle is returned as *dag.CycleError.
func (fg *FlowGraph) VariableOrder() ([]string, error) {
	order, cycles := fg.resolve()
	if len(cycles) > 0 {
		return nil, cycles[0]
	}
	return append([]string(nil), order...), nil
}

// resolve recomputes the variable order when the graph has changed. The
// order always covers every variable; edges closing a cycle are left out of
// it and reported separately.
func (fg *FlowGraph) resolve() ([]string, []*dag.CycleError) {
	if fg.orderValid && fg.orderVersion == fg.version {
		return fg.order, fg.cycles
	}

	vars := make(map[string]*Block)
	var candidates []*Block
	for _, b := range fg.blocks {
		if b.VariableLike() && b.Enabled() {
			vars[b.name] = b
			candidates = append(candidates, b)
		}
	}
	known := func(name string) bool {
		_, ok := vars[name]
		return ok
	}

	entities := make([]dag.Entity, 0, len(candidates))
	for _, b := range candidates {
		def, _ := b.Definition()
		e := dag.Entity{ID: b.name}
		if p, ok := b.Param(def.ValueParam); ok {
			e.Deps = fg.analyzer.References(p.text, known)
		}
		entities = append(entities, e)
	}

	fg.deps = dag.Build(entities)
	fg.order, fg.cycles = fg.deps.SortAll()
	fg.orderVersion, fg.orderValid = fg.version, true
	fg.logger.Debug("Resolved variable order",
		"variables", fg.deps.Len(),
		"cycles", len(fg.cycles),
		"expressions_analyzed", fg.analyzer.Len(),
	)
	return fg.order, fg.cycles
}

// Dependencies returns the variables whose values the named variable's
// expression refers to directly, in block order.
func (fg *FlowGraph) Dependencies(name string) ([]string, error) {
	fg.resolve()
	if !fg.deps.Has(name) {
		return nil, &NotFoundError{What: "variable", Name: name}
	}
	return fg.deps.Dependencies(name)
}

// Dependents returns the variables that refer to the named one. With
// transitive set it also returns everything that depends on those, which is
// every value a change to name can affect.
func (fg *FlowGraph) Dependents(name string, transitive bool) ([]string, error) {
	fg.resolve()
	if !fg.deps.Has(name) {
		return nil, &NotFoundError{What: "variable", Name: name}
	}
	if transitive {
		return fg.deps.Downstream(name)
	}
	return fg.deps.Dependents(name)
}

// Value returns the value a variable-like block binds in the namespace.
func (fg *FlowGraph) Value(name string) (cty.Value, error) {
	ns := fg.Namespace()
	if v, ok := ns.Value(name); ok {
		return v, nil
	}
	if err, ok := ns.Errors[name]; ok {
		return cty.NilVal, err
	}
	return cty.NilVal, &NotFoundError{What: "variable", Name: name}
}

// Evaluate evaluates arbitrary expression text against the current
// namespace.
func (fg *FlowGraph) Evaluate(text string, dtype eval.DType) (cty.Value, error) {
	return fg.engine.Evaluate(fg.Namespace(), text, dtype, nil)
}
