// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file parses block manifests from HCL.
//
// Why HCL for block definitions?
//
// Definitions carry expressions (a port multiplicity of `num_inputs`, a bus
// structure of `[for i in range(n) : [i]]`) in the same language parameter
// values are written in. Writing the manifests in HCL keeps a single syntax
// for both, and HCL's diagnostics point at the exact file, line and column of
// a broken definition.
package blockdef

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/flowgraph/internal/ctxlog"
	"github.com/specialistvlad/flowgraph/internal/eval"
	"github.com/specialistvlad/flowgraph/internal/hclutil"
)

// manifestRootSchema expects one or more 'block' blocks.
type manifestRootSchema struct {
	Blocks []*hclBlock `hcl:"block,block"`
}

// hclBlock represents a single 'block' block for decoding purposes.
type hclBlock struct {
	Key  string   `hcl:"key,label"`
	Body hcl.Body `hcl:",remain"`
}

var blockBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "label"},
		{Name: "category"},
		{Name: "description"},
		{Name: "kind"},
		{Name: "value"},
		{Name: "assert"},
		{Name: "deprecated"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "param", LabelNames: []string{"key"}},
		{Type: "sink"},
		{Type: "source"},
		{Type: "bus_structure"},
	},
}

var paramBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "label"},
		{Name: "dtype"},
		{Name: "default"},
		{Name: "options"},
	},
}

var portBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "id"},
		{Name: "label"},
		{Name: "domain"},
		{Name: "dtype"},
		{Name: "optional"},
		{Name: "hidden"},
		{Name: "multiplicity"},
	},
}

var busStructureSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "sink"},
		{Name: "source"},
	},
}

// ParseFile decodes an HCL file that contains one or more 'block' blocks.
// Definitions with errors are skipped; the diagnostics describe why.
func ParseFile(ctx context.Context, hclFile *hcl.File, filePath string) ([]*Definition, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing block definitions from file", "file_path", filePath)

	var allDiags hcl.Diagnostics
	if hclFile == nil {
		allDiags = append(allDiags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "HCL file is nil",
		})
		return nil, allDiags
	}

	schema := &manifestRootSchema{}
	diags := gohcl.DecodeBody(hclFile.Body, nil, schema)
	allDiags = append(allDiags, diags...)
	if diags.HasErrors() {
		return nil, allDiags
	}

	defs := make([]*Definition, 0, len(schema.Blocks))
	for _, parsed := range schema.Blocks {
		def, diags := parseDefinition(parsed)
		allDiags = append(allDiags, diags...)
		if diags.HasErrors() {
			continue
		}
		def.FilePath = filePath
		defs = append(defs, def)
	}

	logger.Debug("Parsed block definitions", "file_path", filePath, "count", len(defs))
	return defs, allDiags
}

func parseDefinition(parsed *hclBlock) (*Definition, hcl.Diagnostics) {
	content, diags := parsed.Body.Content(blockBodySchema)
	if diags.HasErrors() {
		return nil, diags
	}

	def := &Definition{Key: parsed.Key}
	if !hclsyntax.ValidIdentifier(def.Key) {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid block key",
			Detail:   fmt.Sprintf("Block key '%s' must be a valid identifier.", def.Key),
			Subject:  parsed.Body.MissingItemRange().Ptr(),
		})
		return nil, diags
	}

	attrs := content.Attributes
	var d hcl.Diagnostics
	def.Label, d = hclutil.DecodeString(attrs, "label", def.Key)
	diags = append(diags, d...)
	def.Category, d = hclutil.DecodeString(attrs, "category", "")
	diags = append(diags, d...)
	def.Description, d = hclutil.DecodeString(attrs, "description", "")
	diags = append(diags, d...)
	def.Deprecated, d = hclutil.DecodeBool(attrs, "deprecated", false)
	diags = append(diags, d...)
	def.Asserts, d = hclutil.DecodeStringList(attrs, "assert")
	diags = append(diags, d...)

	var kind string
	kind, d = hclutil.DecodeString(attrs, "kind", string(KindBlock))
	diags = append(diags, d...)
	def.Kind = Kind(kind)
	if !validKind(def.Kind) {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid block kind",
			Detail:   fmt.Sprintf("Block '%s' has unknown kind '%s'.", def.Key, kind),
			Subject:  attrs["kind"].Expr.Range().Ptr(),
		})
	}

	def.ValueParam, d = hclutil.DecodeString(attrs, "value", "")
	diags = append(diags, d...)

	def.Params, d = parseParams(content.Blocks)
	diags = append(diags, d...)

	def.Sinks, d = parsePorts(content.Blocks, "sink")
	diags = append(diags, d...)
	def.Sources, d = parsePorts(content.Blocks, "source")
	diags = append(diags, d...)

	busBlock, d := hclutil.FindUniqueBlock(content.Blocks, "bus_structure")
	diags = append(diags, d...)
	if busBlock != nil {
		busContent, d := busBlock.Body.Content(busStructureSchema)
		diags = append(diags, d...)
		if !d.HasErrors() {
			def.BusStructureSink, d = hclutil.DecodeString(busContent.Attributes, "sink", "")
			diags = append(diags, d...)
			def.BusStructureSource, d = hclutil.DecodeString(busContent.Attributes, "source", "")
			diags = append(diags, d...)
		}
	}

	diags = append(diags, checkDefinition(def, parsed.Body.MissingItemRange())...)
	if diags.HasErrors() {
		return nil, diags
	}
	return def, diags
}

func validKind(k Kind) bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

// checkDefinition enforces rules that span several attributes.
func checkDefinition(def *Definition, rng hcl.Range) hcl.Diagnostics {
	var diags hcl.Diagnostics
	if def.Kind.VariableLike() {
		if def.ValueParam == "" {
			def.ValueParam = "value"
		}
		if _, ok := def.Param(def.ValueParam); !ok {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Missing value parameter",
				Detail:   fmt.Sprintf("Variable-like block '%s' must declare its value parameter '%s'.", def.Key, def.ValueParam),
				Subject:  &rng,
			})
		}
	}
	if def.Kind == KindOptions && (len(def.Sinks) > 0 || len(def.Sources) > 0) {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Options block with ports",
			Detail:   fmt.Sprintf("Options block '%s' cannot declare ports.", def.Key),
			Subject:  &rng,
		})
	}
	return diags
}

func parseParams(blocks hcl.Blocks) ([]ParamDef, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	var params []ParamDef
	seen := make(map[string]bool)

	for _, block := range blocks.OfType("param") {
		// The schema guarantees us one label.
		key := block.Labels[0]
		if seen[key] {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate param definition",
				Detail:   fmt.Sprintf("A param named '%s' has already been defined.", key),
				Subject:  &block.DefRange,
			})
			continue
		}
		seen[key] = true

		content, d := block.Body.Content(paramBodySchema)
		diags = append(diags, d...)
		if d.HasErrors() {
			continue
		}

		p := ParamDef{Key: key}
		p.Label, d = hclutil.DecodeString(content.Attributes, "label", key)
		diags = append(diags, d...)
		p.Default, d = hclutil.DecodeExpressionText(content.Attributes, "default", "")
		diags = append(diags, d...)
		p.Options, d = hclutil.DecodeStringList(content.Attributes, "options")
		diags = append(diags, d...)

		var dtype string
		dtype, d = hclutil.DecodeString(content.Attributes, "dtype", "")
		diags = append(diags, d...)
		parsed, err := eval.ParseDType(dtype)
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid param data type",
				Detail:   fmt.Sprintf("Param '%s': %s.", key, err),
				Subject:  &block.DefRange,
			})
			continue
		}
		p.DType = parsed

		if p.DType == eval.Enum {
			if len(p.Options) == 0 {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Enum param without options",
					Detail:   fmt.Sprintf("Param '%s' has dtype enum but declares no options.", key),
					Subject:  &block.DefRange,
				})
				continue
			}
			if p.Default == "" {
				p.Default = p.Options[0]
			} else if !p.HasOption(p.Default) {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid enum default",
					Detail:   fmt.Sprintf("Param '%s' defaults to '%s', which is not one of its options.", key, p.Default),
					Subject:  &block.DefRange,
				})
				continue
			}
		}

		params = append(params, p)
	}
	return params, diags
}

func parsePorts(blocks hcl.Blocks, direction string) ([]PortDef, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	var ports []PortDef
	seen := make(map[string]bool)

	for _, block := range blocks.OfType(direction) {
		content, d := block.Body.Content(portBodySchema)
		diags = append(diags, d...)
		if d.HasErrors() {
			continue
		}

		var p PortDef
		attrs := content.Attributes
		p.ID, d = hclutil.DecodeString(attrs, "id", "")
		diags = append(diags, d...)
		p.Label, d = hclutil.DecodeString(attrs, "label", p.ID)
		diags = append(diags, d...)
		p.Domain, d = hclutil.DecodeString(attrs, "domain", DomainStream)
		diags = append(diags, d...)
		p.DType, d = hclutil.DecodeString(attrs, "dtype", "")
		diags = append(diags, d...)
		p.Optional, d = hclutil.DecodeBool(attrs, "optional", false)
		diags = append(diags, d...)
		p.Hidden, d = hclutil.DecodeBool(attrs, "hidden", false)
		diags = append(diags, d...)
		p.Multiplicity, d = hclutil.DecodeExpressionText(attrs, "multiplicity", "")
		diags = append(diags, d...)

		if p.Domain != DomainStream && p.Domain != DomainMessage {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid port domain",
				Detail:   fmt.Sprintf("A %s port must use domain '%s' or '%s', got '%s'.", direction, DomainStream, DomainMessage, p.Domain),
				Subject:  &block.DefRange,
			})
			continue
		}
		if p.ID != "" {
			if seen[p.ID] {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate port id",
					Detail:   fmt.Sprintf("A %s port with id '%s' has already been defined.", direction, p.ID),
					Subject:  &block.DefRange,
				})
				continue
			}
			seen[p.ID] = true
		}

		ports = append(ports, p)
	}
	return ports, diags
}
