// Package dag resolves the evaluation order of variable-like entities.
//
// Entities are added in a caller-defined order and edges record which entity
// depends on which. Sorting is a three-color depth-first search over that
// insertion order, so two runs over identical input always produce the same
// sequence, and entities without an ordering constraint between them keep
// their relative insertion order. A gray node reached again closes a cycle;
// the cycle is reported as a *CycleError naming every member instead of
// aborting the caller.
//
// The graph is rebuilt from scratch whenever the flowgraph changes. It is not
// safe for concurrent use.
package dag
