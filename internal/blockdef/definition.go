// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Definition, the reusable template a flowgraph Block is
// instantiated from.
//
// Why separate a Definition from a Block?
//
// A Definition is shared by every block of the same key and never changes once
// loaded. A Block is one placement of that template in one flowgraph, carrying
// its own parameter text, state and materialized ports. Keeping the template
// immutable means a flowgraph can always re-derive a block's ports from its
// current parameters, which is exactly what a rewrite does, and it lets an
// unknown key degrade to a placeholder without inventing a template for it.
package blockdef

import "github.com/specialistvlad/flowgraph/internal/eval"

// OptionsKey is the key of the block holding flowgraph-wide settings.
const OptionsKey = "options"

// Kind says how a definition takes part in evaluation.
type Kind string

const (
	// KindBlock is an ordinary block: its parameters may reference variables
	// but nothing references it.
	KindBlock Kind = "block"
	// KindOptions marks the flowgraph options block.
	KindOptions Kind = "options"
	// KindVariable binds its value parameter under the block's name.
	KindVariable Kind = "variable"
	// KindParameter is like KindVariable but is bound before any variable,
	// as a parameter of an enclosing hierarchy would be.
	KindParameter Kind = "parameter"
	// KindImport brings expression libraries into scope.
	KindImport Kind = "import"
)

var kinds = []Kind{KindBlock, KindOptions, KindVariable, KindParameter, KindImport}

// VariableLike reports whether other expressions can reference blocks of
// this kind by name.
func (k Kind) VariableLike() bool {
	return k == KindVariable || k == KindParameter
}

// Port domains.
const (
	DomainStream  = "stream"
	DomainMessage = "message"
	// DomainBus is only used for ports synthesized to represent a bus group.
	DomainBus = "bus"
)

// Definition is the format-agnostic representation of a block manifest.
type Definition struct {
	Key         string
	Label       string
	Category    string
	Description string
	Kind        Kind
	Deprecated  bool
	// FilePath is the manifest the definition was loaded from.
	FilePath string

	// ValueParam names the parameter whose value a variable-like block binds.
	ValueParam string
	Params     []ParamDef
	Sinks      []PortDef
	Sources    []PortDef

	// BusStructureSink and BusStructureSource are expression texts evaluated
	// with the block's parameters in scope. Empty means the structure is
	// derived from the ports when the bus is enabled.
	BusStructureSink   string
	BusStructureSource string

	// Asserts are boolean expressions over the block's parameters that must
	// hold for the block to be valid.
	Asserts []string
}

// ParamDef declares one parameter.
type ParamDef struct {
	Key     string
	Label   string
	DType   eval.DType
	Default string
	// Options lists the allowed values of an enum parameter.
	Options []string
}

// PortDef declares one port, or a run of ports when Multiplicity evaluates
// above one.
type PortDef struct {
	// ID is the port's explicit key. Ports without one are keyed by their
	// index within their domain.
	ID       string
	Label    string
	Domain   string
	DType    string
	Optional bool
	Hidden   bool
	// Multiplicity is an expression over the block's parameters. Empty means 1.
	Multiplicity string
}

// Param returns the parameter declaration for key.
func (d *Definition) Param(key string) (*ParamDef, bool) {
	for i := range d.Params {
		if d.Params[i].Key == key {
			return &d.Params[i], true
		}
	}
	return nil, false
}

// HasOption reports whether value is one of the parameter's enum options.
func (p *ParamDef) HasOption(value string) bool {
	for _, o := range p.Options {
		if o == value {
			return true
		}
	}
	return false
}
