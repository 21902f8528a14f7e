// Package hclutil holds small helpers shared by the HCL manifest parser.
package hclutil

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"
)

// FindUniqueBlock searches a slice of blocks for the block of a given type.
// It returns a diagnostic error if more than one block of that type is found.
// If no block is found, it returns nil.
func FindUniqueBlock(blocks hcl.Blocks, name string) (*hcl.Block, hcl.Diagnostics) {
	var found *hcl.Block
	var diags hcl.Diagnostics

	for _, block := range blocks.OfType(name) {
		if found != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  fmt.Sprintf("Duplicate %q block", name),
				Detail:   fmt.Sprintf("Only one %q block is allowed here.", name),
				Subject:  block.DefRange.Ptr(),
			})
			continue
		}
		found = block
	}

	return found, diags
}

// DecodeString decodes an optional string attribute. A missing attribute
// yields def.
func DecodeString(attrs hcl.Attributes, name, def string) (string, hcl.Diagnostics) {
	attr, ok := attrs[name]
	if !ok {
		return def, nil
	}
	var out string
	diags := gohcl.DecodeExpression(attr.Expr, nil, &out)
	return out, diags
}

// DecodeBool decodes an optional boolean attribute.
func DecodeBool(attrs hcl.Attributes, name string, def bool) (bool, hcl.Diagnostics) {
	attr, ok := attrs[name]
	if !ok {
		return def, nil
	}
	var out bool
	diags := gohcl.DecodeExpression(attr.Expr, nil, &out)
	return out, diags
}

// DecodeStringList decodes an optional list-of-strings attribute.
func DecodeStringList(attrs hcl.Attributes, name string) ([]string, hcl.Diagnostics) {
	attr, ok := attrs[name]
	if !ok {
		return nil, nil
	}
	var out []string
	diags := gohcl.DecodeExpression(attr.Expr, nil, &out)
	return out, diags
}

// DecodeExpressionText decodes an attribute that holds an expression. Manifests
// may write it either as a quoted string ("num_inputs") or as a bare number
// (3); both are returned as expression source text.
func DecodeExpressionText(attrs hcl.Attributes, name, def string) (string, hcl.Diagnostics) {
	attr, ok := attrs[name]
	if !ok {
		return def, nil
	}
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return def, diags
	}
	switch {
	case val.IsNull():
		return def, nil
	case val.Type() == cty.String:
		return val.AsString(), nil
	case val.Type() == cty.Number:
		return val.AsBigFloat().Text('f', -1), nil
	default:
		return def, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid expression attribute",
			Detail:   fmt.Sprintf("The %q attribute must be a string or a number, got %s.", name, val.Type().FriendlyName()),
			Subject:  attr.Expr.Range().Ptr(),
		}}
	}
}
