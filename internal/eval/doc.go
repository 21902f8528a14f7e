// Package eval turns parameter expression text into values.
//
// Evaluation happens against a Namespace: the names bound by variable-like
// blocks plus the functions of the libraries in scope. A flowgraph builds one
// Namespace per epoch and reuses it for every evaluation until something that
// could change a value is mutated. The Engine caches results per expression
// text and namespace hash, so re-evaluating an unchanged design is a map
// lookup.
//
// Expressions use HCL native syntax. A failure is always reported as an
// *EvalError for the one expression that failed; nothing here aborts the
// evaluation of unrelated expressions.
package eval
