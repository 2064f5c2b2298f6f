package dag

import "github.com/vk/nngarden/internal/nodeid"

// Graph is a collection of nodes and their dependencies.
// A Graph is not safe for concurrent use.
type Graph struct {
	// nodes stores all vertices keyed by node index.
	nodes map[nodeid.Index]*vertex
	// order keeps insertion order so every traversal is deterministic.
	order []nodeid.Index
}

// vertex is a single node of the graph. Edge lists keep the order in which
// they were added, which for a built graph is input slot order.
type vertex struct {
	id nodeid.Index
	// deps holds the producers this vertex consumes (predecessors).
	deps []*vertex
	// dependents holds the consumers of this vertex (successors).
	dependents []*vertex
}
