package dag

import (
	"github.com/vk/nngarden/internal/arena"
	"github.com/vk/nngarden/internal/node"
)

// Build snapshots the live nodes of a and the wires between them. Sockets
// that point at dead nodes are ignored. A self-wired node is reported as a
// cycle.
func Build(a *arena.Arena) (*Graph, error) {
	g := New()
	a.Each(func(v *node.Value) bool {
		g.AddNode(v.Index)
		return true
	})

	var err error
	a.Each(func(v *node.Value) bool {
		for _, in := range v.Inputs {
			if in.IsNil() || !g.Has(in.Node) {
				continue
			}
			if err = g.AddEdge(in.Node, v.Index); err != nil {
				return false
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}
