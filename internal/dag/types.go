package dag

// Graph is a collection of nodes and their dependencies.
type Graph struct {
	// nodes stores all nodes in the graph, keyed by their unique ID.
	nodes map[string]*node
	// order holds the nodes in insertion order.
	order []*node
}

// node represents a single vertex in the graph. It is un-exported to
// enforce interaction with the graph via the public API (using string IDs),
// not by direct struct manipulation.
type node struct {
	id string
	// index is the node's insertion position, used as the tie-break.
	index int
	// deps holds the nodes that this node depends on (predecessors).
	deps map[string]*node
	// dependents holds the nodes that depend on this node (successors).
	dependents map[string]*node
}

// Entity is one participant of a resolution: an id plus the ids it depends on.
// Dependencies on ids that are not entities themselves are ignored.
type Entity struct {
	ID   string
	Deps []string
}
