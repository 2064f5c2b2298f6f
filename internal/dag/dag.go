package dag

import (
	"fmt"
	"slices"

	"github.com/vk/nngarden/internal/errdefs"
	"github.com/vk/nngarden/internal/nodeid"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[nodeid.Index]*vertex),
	}
}

// Len returns the number of vertices.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Has reports whether id is a vertex of the graph.
func (g *Graph) Has(id nodeid.Index) bool {
	_, ok := g.nodes[id]
	return ok
}

// AddNode adds a vertex with the given id. Adding an existing id does
// nothing.
func (g *Graph) AddNode(id nodeid.Index) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = &vertex{id: id}
	g.order = append(g.order, id)
}

// AddEdge records that toID consumes a value produced by fromID. Repeated
// edges between the same pair are stored once. A self edge is a cycle.
func (g *Graph) AddEdge(fromID, toID nodeid.Index) error {
	if fromID == toID {
		return fmt.Errorf("%w: node %s feeds itself", errdefs.ErrCyclicGraph, fromID)
	}

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	if slices.Contains(toNode.deps, fromNode) {
		return nil
	}
	toNode.deps = append(toNode.deps, fromNode)
	fromNode.dependents = append(fromNode.dependents, toNode)
	return nil
}

// Dependencies returns the producers the given node consumes.
func (g *Graph) Dependencies(id nodeid.Index) ([]nodeid.Index, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(n.deps), nil
}

// Dependents returns the consumers of the given node.
func (g *Graph) Dependents(id nodeid.Index) ([]nodeid.Index, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(n.dependents), nil
}

// Sinks returns every vertex nothing consumes, in ascending index order.
func (g *Graph) Sinks() []nodeid.Index {
	var out []nodeid.Index
	for _, id := range g.order {
		if len(g.nodes[id].dependents) == 0 {
			out = append(out, id)
		}
	}
	slices.SortFunc(out, compare)
	return out
}

// Ancestors returns id and everything it transitively depends on, ordered so
// that every producer precedes its consumers. The last element is id itself.
func (g *Graph) Ancestors(id nodeid.Index) ([]nodeid.Index, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}

	permanent := make(map[nodeid.Index]bool)
	temporary := make(map[nodeid.Index]bool)
	var order []nodeid.Index

	var visit func(v *vertex) error
	visit = func(v *vertex) error {
		if permanent[v.id] {
			return nil
		}
		if temporary[v.id] {
			return fmt.Errorf("%w: cycle detected involving node %s", errdefs.ErrCyclicGraph, v.id)
		}
		temporary[v.id] = true
		for _, dep := range v.deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		delete(temporary, v.id)
		permanent[v.id] = true
		order = append(order, v.id)
		return nil
	}

	if err := visit(n); err != nil {
		return nil, err
	}
	return order, nil
}

// Reachable reports whether to can be reached from from by following
// producer to consumer edges. A node reaches itself.
func (g *Graph) Reachable(from, to nodeid.Index) bool {
	start, ok := g.nodes[from]
	if !ok {
		return false
	}
	if from == to {
		return true
	}

	seen := map[nodeid.Index]bool{from: true}
	stack := []*vertex{start}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range v.dependents {
			if d.id == to {
				return true
			}
			if !seen[d.id] {
				seen[d.id] = true
				stack = append(stack, d)
			}
		}
	}
	return false
}

// DetectCycles checks the graph for any cycles. It returns an error wrapping
// errdefs.ErrCyclicGraph that names the first node found on a cycle.
func (g *Graph) DetectCycles() error {
	// Classic depth-first search with three sets of nodes:
	// permanent: fully visited and not part of a cycle.
	// temporary: on the recursion stack of the current traversal.
	// unvisited: all other nodes.
	permanent := make(map[nodeid.Index]bool)
	temporary := make(map[nodeid.Index]bool)

	var visit func(n *vertex) error
	visit = func(n *vertex) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			return fmt.Errorf("%w: cycle detected involving node %s", errdefs.ErrCyclicGraph, n.id)
		}

		temporary[n.id] = true
		for _, dependent := range n.dependents {
			if err := visit(dependent); err != nil {
				return err
			}
		}
		delete(temporary, n.id)
		permanent[n.id] = true
		return nil
	}

	for _, id := range g.order {
		if err := visit(g.nodes[id]); err != nil {
			return err
		}
	}
	return nil
}

func ids(vs []*vertex) []nodeid.Index {
	out := make([]nodeid.Index, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.id)
	}
	return out
}

func compare(a, b nodeid.Index) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}
