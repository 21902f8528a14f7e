package dag

import (
	"fmt"
	"sort"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// Resolve orders entities so that every id appears after all the ids it
// depends on. It returns the first *CycleError found if there is none.
func Resolve(entities []Entity) ([]string, error) {
	return Build(entities).Sort()
}

// Build creates a graph from entities in the given order.
func Build(entities []Entity) *Graph {
	g := New()
	for _, e := range entities {
		g.AddNode(e.ID)
	}
	for _, e := range entities {
		for _, dep := range e.Deps {
			if _, ok := g.nodes[dep]; !ok {
				continue
			}
			// Both ends exist, AddEdge cannot fail.
			_ = g.AddEdge(dep, e.ID)
		}
	}
	return g
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	if _, ok := g.nodes[id]; ok {
		return
	}

	n := &node{
		id:         id,
		index:      len(g.order),
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
	g.nodes[id] = n
	g.order = append(g.order, n)
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An edge from a node
// to itself is accepted and surfaces as a cycle when sorting.
func (g *Graph) AddEdge(fromID, toID string) error {
	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode

	return nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Dependencies returns the IDs the given node directly depends on, in
// insertion order.
func (g *Graph) Dependencies(id string) ([]string, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(ordered(n.deps)), nil
}

// Dependents returns the IDs that directly depend on the given node, in
// insertion order.
func (g *Graph) Dependents(id string) ([]string, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(ordered(n.dependents)), nil
}

// Downstream returns every ID that depends on the given node directly or
// transitively, breadth first. The node itself is never included, even when
// it sits on a cycle.
func (g *Graph) Downstream(id string) ([]string, error) {
	start, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}

	seen := map[string]bool{id: true}
	var out []string
	queue := []*node{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, d := range ordered(n.dependents) {
			if seen[d.id] {
				continue
			}
			seen[d.id] = true
			out = append(out, d.id)
			queue = append(queue, d)
		}
	}
	return out, nil
}

// Sort returns all node IDs in dependency order, or the first cycle found.
func (g *Graph) Sort() ([]string, error) {
	order, cycles := g.SortAll()
	if len(cycles) > 0 {
		return nil, cycles[0]
	}
	return order, nil
}

// SortAll always returns every node ID. Edges that close a cycle are skipped
// so the remaining nodes still come out in a dependency-respecting order; each
// skipped edge is reported as a *CycleError.
func (g *Graph) SortAll() ([]string, []*CycleError) {
	const (
		white = iota
		gray
		black
	)

	color := make(map[*node]int, len(g.order))
	order := make([]string, 0, len(g.order))
	var stack []*node
	var cycles []*CycleError

	var visit func(n *node)
	visit = func(n *node) {
		color[n] = gray
		stack = append(stack, n)

		for _, dep := range ordered(n.deps) {
			switch color[dep] {
			case white:
				visit(dep)
			case gray:
				// dep is on the current path: everything from dep to the
				// top of the stack forms the cycle.
				cycles = append(cycles, &CycleError{Path: cyclePath(stack, dep)})
			}
		}

		stack = stack[:len(stack)-1]
		color[n] = black
		order = append(order, n.id)
	}

	for _, n := range g.order {
		if color[n] == white {
			visit(n)
		}
	}
	return order, cycles
}

// cyclePath extracts the cycle closed by reaching `at` again, in dependency
// order: at, then what at depends on, and so on.
func cyclePath(stack []*node, at *node) []string {
	start := len(stack) - 1
	for start >= 0 && stack[start] != at {
		start--
	}
	// The DFS walks from dependents to dependencies, so the stack segment is
	// already in "depends on" order.
	path := make([]string, 0, len(stack)-start)
	for _, n := range stack[start:] {
		path = append(path, n.id)
	}
	return path
}

func ordered(set map[string]*node) []*node {
	out := make([]*node, 0, len(set))
	for _, n := range set {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out
}

func ids(nodes []*node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.id
	}
	return out
}
