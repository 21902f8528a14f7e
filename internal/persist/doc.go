// Package persist reads and writes flowgraph designs.
//
// A design is stored as a YAML Document: a format version, the blocks with
// their parameter text and state, and the connections by block name and port
// key. Export sorts everything so that saving an unchanged design produces the
// same bytes. Import is tolerant: a block whose key is not registered becomes
// a placeholder that keeps its parameters verbatim, and a connection that
// cannot be resolved is reported and skipped. Neither aborts the load.
//
// Documents older than format 1 are upgraded on import. Their block state is
// stored as underscore-prefixed parameters and their message connections
// refer to ports by position.
package persist
