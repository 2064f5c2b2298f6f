package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nngarden/internal/arena"
	"github.com/vk/nngarden/internal/errdefs"
	"github.com/vk/nngarden/internal/node"
	"github.com/vk/nngarden/internal/nodeid"
)

var (
	a = nodeid.New(0, 1)
	b = nodeid.New(1, 1)
	c = nodeid.New(2, 1)
	d = nodeid.New(3, 1)
)

func newGraph(t *testing.T, ids ...nodeid.Index) *Graph {
	t.Helper()
	g := New()
	for _, id := range ids {
		g.AddNode(id)
	}
	return g
}

func TestAddNode(t *testing.T) {
	g := New()
	g.AddNode(a)
	g.AddNode(a) // Idempotent
	g.AddNode(b)
	assert.Equal(t, 2, g.Len())
	assert.True(t, g.Has(a))
	assert.False(t, g.Has(c))
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := newGraph(t, a, b)
		require.NoError(t, g.AddEdge(a, b))
		require.NoError(t, g.AddEdge(a, b)) // Stored once

		deps, err := g.Dependencies(b)
		require.NoError(t, err)
		assert.Equal(t, []nodeid.Index{a}, deps)

		dependents, err := g.Dependents(a)
		require.NoError(t, err)
		assert.Equal(t, []nodeid.Index{b}, dependents)
	})

	t.Run("error cases", func(t *testing.T) {
		g := newGraph(t, a, b)
		assert.ErrorContains(t, g.AddEdge(d, a), "source node not found")
		assert.ErrorContains(t, g.AddEdge(a, d), "destination node not found")
		assert.ErrorIs(t, g.AddEdge(a, a), errdefs.ErrCyclicGraph)
	})
}

func TestAncestors(t *testing.T) {
	// d = (a + b) * c, with a also feeding c.
	g := newGraph(t, d, c, b, a)
	require.NoError(t, g.AddEdge(a, c))
	require.NoError(t, g.AddEdge(a, d))
	require.NoError(t, g.AddEdge(b, d))
	require.NoError(t, g.AddEdge(c, d))

	order, err := g.Ancestors(d)
	require.NoError(t, err)
	assert.Equal(t, []nodeid.Index{a, b, c, d}, order)

	order, err = g.Ancestors(c)
	require.NoError(t, err)
	assert.Equal(t, []nodeid.Index{a, c}, order)

	_, err = g.Ancestors(nodeid.New(9, 1))
	assert.ErrorContains(t, err, "node not found")
}

func TestSinks(t *testing.T) {
	g := newGraph(t, d, c, b, a)
	require.NoError(t, g.AddEdge(a, b))
	require.NoError(t, g.AddEdge(c, b))
	assert.Equal(t, []nodeid.Index{b, d}, g.Sinks())
}

func TestReachable(t *testing.T) {
	g := newGraph(t, a, b, c, d)
	require.NoError(t, g.AddEdge(a, b))
	require.NoError(t, g.AddEdge(b, c))

	assert.True(t, g.Reachable(a, c))
	assert.True(t, g.Reachable(b, b))
	assert.False(t, g.Reachable(c, a))
	assert.False(t, g.Reachable(a, d))
	assert.False(t, g.Reachable(nodeid.New(9, 1), a))
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		assert.NoError(t, New().DetectCycles())
	})

	t.Run("valid dag has no cycles", func(t *testing.T) {
		g := newGraph(t, a, b, c, d)
		require.NoError(t, g.AddEdge(a, b))
		require.NoError(t, g.AddEdge(b, c))
		require.NoError(t, g.AddEdge(a, c)) // Transitive edge
		require.NoError(t, g.AddEdge(c, d))
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("longer cycle is detected", func(t *testing.T) {
		g := newGraph(t, a, b, c, d)
		require.NoError(t, g.AddEdge(a, b))
		require.NoError(t, g.AddEdge(b, c))
		require.NoError(t, g.AddEdge(c, d))
		require.NoError(t, g.AddEdge(d, a)) // Cycle back to the start

		err := g.DetectCycles()
		require.ErrorIs(t, err, errdefs.ErrCyclicGraph)
		assert.ErrorContains(t, err, "cycle detected")

		_, err = g.Ancestors(d)
		assert.ErrorIs(t, err, errdefs.ErrCyclicGraph)
	})
}

func TestBuild(t *testing.T) {
	// --- Arrange ---
	ar := arena.New(8)
	x, _ := ar.Allocate()
	y, _ := ar.Allocate()
	sum, _ := ar.Allocate()
	v, _ := ar.Get(sum)
	v.Operation = node.Add
	v.Inputs[0] = node.Socket{Node: x}
	v.Inputs[1] = node.Socket{Node: y}
	// A dangling socket to a slot that was never allocated.
	v.Inputs[2] = node.Socket{Node: nodeid.New(7, 1)}

	// --- Act ---
	g, err := Build(ar)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, 3, g.Len())
	assert.Equal(t, []nodeid.Index{sum}, g.Sinks())
	order, err := g.Ancestors(sum)
	require.NoError(t, err)
	assert.Equal(t, []nodeid.Index{x, y, sum}, order)
}

func TestBuild_SelfLoop(t *testing.T) {
	ar := arena.New(2)
	x, _ := ar.Allocate()
	v, _ := ar.Get(x)
	v.Operation = node.Tanh
	v.Inputs[0] = node.Socket{Node: x}

	_, err := Build(ar)
	assert.ErrorIs(t, err, errdefs.ErrCyclicGraph)
}
