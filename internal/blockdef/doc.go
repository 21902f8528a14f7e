// Package blockdef loads block definitions: the templates a flowgraph
// instantiates blocks from.
//
// Definitions are written as HCL manifests. Each `block "<key>"` declares the
// parameters a block carries, the ports it exposes and how they group into
// buses. A small library of definitions is compiled into the binary; more can
// be loaded from a directory tree at startup.
package blockdef
