// Package flowgraph is the graph model of a signal-processing design: blocks,
// their ports and parameters, and the connections between them.
//
// A FlowGraph is the sole mutator of everything it owns. Ports, params and
// connections expose read-only accessors; every structural change goes
// through a FlowGraph method, which keeps the invariants in one place: block
// names are unique, every connection joins two ports of blocks the graph
// owns, and exactly one options block exists once Elements is called.
//
// Parameter values are evaluated lazily against a namespace that is rebuilt
// whenever the graph's version moves. Any mutation that could change a value
// (parameter text, adding or removing a block, enable state, renaming) bumps
// the version, which invalidates every cached value at once. Moving or
// rotating a block does not.
//
// Port structure follows parameters only when Rewrite is called: after a
// multiplicity or bus change, Rewrite adds and drops ports to match, and
// recomputes the variable evaluation order. Nothing in this package returns
// an error for an inconsistent but navigable design; those are reported by
// Validate as diagnostics.
//
// A FlowGraph is not safe for concurrent use.
package flowgraph
