// Package expr extracts the names a parameter expression refers to without
// evaluating it.
//
// Expressions are HCL native-syntax expressions. When an expression parses,
// its references are the root names of the traversals HCL reports through
// Variables(), so names bound by for-expressions and attribute names after a
// dot are never mistaken for references. When it does not parse (the user is
// halfway through typing, say) the analyzer falls back to scanning the lexer's
// token stream: identifier tokens that are not preceded by a dot count, string
// literal contents and numbers never do.
//
// A false positive only adds a dependency edge. The resolver reports any cycle
// that produces as a diagnostic rather than failing, so the scan is allowed to
// be conservative.
package expr
