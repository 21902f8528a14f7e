package expr

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// Parse parses text as an HCL expression. The returned expression may be
// partial when diagnostics are returned.
func Parse(text string) (hclsyntax.Expression, hcl.Diagnostics) {
	return hclsyntax.ParseExpression([]byte(text), "<expr>", hcl.Pos{Line: 1, Column: 1, Byte: 0})
}

// References returns the names from the known set that text refers to, in the
// order of their first occurrence. A nil known func accepts every name.
func References(text string, known func(string) bool) []string {
	var names []string
	seen := make(map[string]struct{})
	add := func(name string) {
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		if known != nil && !known(name) {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	parsed, diags := Parse(text)
	if !diags.HasErrors() && parsed != nil {
		for _, traversal := range parsed.Variables() {
			add(traversal.RootName())
		}
		return names
	}

	for _, name := range scanIdentifiers(text) {
		add(name)
	}
	return names
}

// scanIdentifiers is the parse-failure fallback: every identifier token that
// is not an attribute name.
func scanIdentifiers(text string) []string {
	tokens, _ := hclsyntax.LexExpression([]byte(text), "<expr>", hcl.Pos{Line: 1, Column: 1, Byte: 0})

	var out []string
	prev := hclsyntax.TokenNil
	for _, tok := range tokens {
		if tok.Type == hclsyntax.TokenIdent && prev != hclsyntax.TokenDot {
			out = append(out, string(tok.Bytes))
		}
		prev = tok.Type
	}
	return out
}

// CalledFunctions returns the sorted, unique names of all functions text calls.
// Unparseable text calls nothing.
func CalledFunctions(text string) []string {
	parsed, diags := Parse(text)
	if diags.HasErrors() || parsed == nil {
		return nil
	}

	functions := make(map[string]struct{})
	walkForFunctions(parsed, functions)

	out := make([]string, 0, len(functions))
	for f := range functions {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// walkForFunctions recursively walks the syntax tree, looking only for
// function calls.
func walkForFunctions(e hclsyntax.Expression, functions map[string]struct{}) {
	if e == nil {
		return
	}
	switch e := e.(type) {
	case *hclsyntax.FunctionCallExpr:
		functions[e.Name] = struct{}{}
		for _, arg := range e.Args {
			walkForFunctions(arg, functions)
		}
	case *hclsyntax.BinaryOpExpr:
		walkForFunctions(e.LHS, functions)
		walkForFunctions(e.RHS, functions)
	case *hclsyntax.ConditionalExpr:
		walkForFunctions(e.Condition, functions)
		walkForFunctions(e.TrueResult, functions)
		walkForFunctions(e.FalseResult, functions)
	case *hclsyntax.UnaryOpExpr:
		walkForFunctions(e.Val, functions)
	case *hclsyntax.TemplateExpr:
		for _, part := range e.Parts {
			walkForFunctions(part, functions)
		}
	case *hclsyntax.TemplateWrapExpr:
		walkForFunctions(e.Wrapped, functions)
	case *hclsyntax.TupleConsExpr:
		for _, item := range e.Exprs {
			walkForFunctions(item, functions)
		}
	case *hclsyntax.ObjectConsExpr:
		for _, item := range e.Items {
			walkForFunctions(item.KeyExpr, functions)
			walkForFunctions(item.ValueExpr, functions)
		}
	case *hclsyntax.ObjectConsKeyExpr:
		walkForFunctions(e.Wrapped, functions)
	case *hclsyntax.ForExpr:
		walkForFunctions(e.CollExpr, functions)
		walkForFunctions(e.KeyExpr, functions)
		walkForFunctions(e.ValExpr, functions)
		walkForFunctions(e.CondExpr, functions)
	case *hclsyntax.IndexExpr:
		walkForFunctions(e.Collection, functions)
		walkForFunctions(e.Key, functions)
	case *hclsyntax.RelativeTraversalExpr:
		walkForFunctions(e.Source, functions)
	case *hclsyntax.SplatExpr:
		walkForFunctions(e.Source, functions)
		walkForFunctions(e.Each, functions)
	case *hclsyntax.ParenthesesExpr:
		walkForFunctions(e.Expression, functions)
	}
}
