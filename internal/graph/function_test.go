package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nngarden/internal/errdefs"
	"github.com/vk/nngarden/internal/history"
	"github.com/vk/nngarden/internal/node"
	"github.com/vk/nngarden/internal/nodeid"
)

// neuron builds x -> tanh -> mul(., w) -> result.
type neuron struct {
	x, w, th, mul, res nodeid.Index
}

func buildNeuron(t *testing.T, e *Engine) neuron {
	t.Helper()
	var n neuron
	n.x = mustAdd(t, e, node.NewParameter("x", 0.5), node.Vec2{X: 0, Y: 0})
	n.w = mustAdd(t, e, node.NewParameter("w", 2), node.Vec2{X: 0, Y: 100})
	n.th = mustAdd(t, e, node.New(node.Tanh), node.Vec2{X: 100, Y: 0})
	n.mul = mustAdd(t, e, node.New(node.Multiply), node.Vec2{X: 200, Y: 50})
	n.res = mustAdd(t, e, node.New(node.Result), node.Vec2{X: 300, Y: 50})
	connect(t, e, n.x, n.th, 0)
	connect(t, e, n.th, n.mul, 0)
	connect(t, e, n.w, n.mul, 1)
	connect(t, e, n.mul, n.res, 0)
	return n
}

func TestCollapseToNewFunction(t *testing.T) {
	// --- Arrange ---
	e := newEngine(t, 32)
	n := buildNeuron(t, e)
	require.NoError(t, e.Forward(nil))
	want := mustNode(t, e, n.res).Value

	// --- Act ---
	fn, err := e.CollapseToNewFunction([]nodeid.Index{n.th, n.mul}, "squash")

	// --- Assert ---
	require.NoError(t, err)
	fv := mustNode(t, e, fn)
	assert.Equal(t, node.Function, fv.Operation)
	assert.Equal(t, "squash", fv.Name)
	assert.Equal(t, node.Vec2{X: 150, Y: 25}, fv.Position, "placed at the centroid")
	assert.Equal(t, fn, mustNode(t, e, n.th).Parent)
	assert.Equal(t, fn, mustNode(t, e, n.mul).Parent)

	tmpl, err := e.Registry().Get(0)
	require.NoError(t, err)
	assert.Equal(t, "squash", tmpl.Name)
	assert.Equal(t, 2, tmpl.NumInputs)
	assert.Equal(t, 1, tmpl.NumOutputs)

	b, ok := e.FunctionData(fn)
	require.True(t, ok)
	assert.Equal(t, 0, b.FunctionID)
	assert.Equal(t, []node.Connection{
		node.NewConnection(n.x, 0, n.th, 0),
		node.NewConnection(n.w, 0, n.mul, 1),
	}, b.Inputs)
	assert.Equal(t, []node.Connection{node.NewConnection(n.mul, 0, n.res, 0)}, b.Outputs)

	// Members keep their real wires, so values do not change.
	require.NoError(t, e.Forward(nil))
	assert.Equal(t, want, mustNode(t, e, n.res).Value)
	assert.Equal(t, math.Tanh(0.5)*2, want)
}

func TestCollapse_PinMapping(t *testing.T) {
	// --- Arrange ---
	e := newEngine(t, 32)
	n := buildNeuron(t, e)
	fn, err := e.CollapseToNewFunction([]nodeid.Index{n.th, n.mul}, "squash")
	require.NoError(t, err)
	base := int(fn.Slot) * node.MaxPins

	// --- Act & Assert ---
	pin, err := e.InputPin(node.Socket{Node: n.th, Slot: 0})
	require.NoError(t, err)
	assert.Equal(t, base, pin)

	pin, err = e.InputPin(node.Socket{Node: n.mul, Slot: 1})
	require.NoError(t, err)
	assert.Equal(t, base+1, pin)

	pin, err = e.OutputPin(node.Socket{Node: n.mul})
	require.NoError(t, err)
	assert.Equal(t, base+2, pin)

	pin, err = e.OutputPin(node.Socket{Node: fn, Slot: 0})
	require.NoError(t, err)
	assert.Equal(t, base+2, pin)

	_, err = e.InputPin(node.Socket{Node: n.mul, Slot: 0})
	assert.ErrorIs(t, err, errdefs.ErrNotFound, "internal sockets have no pin")

	pin, err = e.OutputPin(node.Socket{Node: n.x})
	require.NoError(t, err)
	assert.Equal(t, int(n.x.Slot)*node.MaxPins+node.MaxInputs, pin)

	s, isInput, err := e.ResolvePin(base + 1)
	require.NoError(t, err)
	assert.True(t, isInput)
	assert.Equal(t, node.Socket{Node: fn, Slot: 1}, s)

	s, isInput, err = e.ResolvePin(base + 2)
	require.NoError(t, err)
	assert.False(t, isInput)
	assert.Equal(t, node.Socket{Node: fn, Slot: 0}, s)

	_, _, err = e.ResolvePin(base + 3)
	assert.ErrorIs(t, err, errdefs.ErrNotFound)

	resBase := int(n.res.Slot) * node.MaxPins
	assert.Equal(t, []Link{
		{Start: int(n.x.Slot)*node.MaxPins + node.MaxInputs, End: base},
		{Start: int(n.w.Slot)*node.MaxPins + node.MaxInputs, End: base + 1},
		{Start: base + 2, End: resBase},
	}, e.Links())
}

func TestCollapse_UndoUngroups(t *testing.T) {
	e := newEngine(t, 32)
	n := buildNeuron(t, e)
	fn, err := e.CollapseToNewFunction([]nodeid.Index{n.th, n.mul}, "squash")
	require.NoError(t, err)

	require.NoError(t, e.Undo())

	_, err = e.Node(fn)
	assert.ErrorIs(t, err, errdefs.ErrInvalidIndex)
	assert.True(t, mustNode(t, e, n.th).Parent.IsNil())
	_, ok := e.FunctionData(fn)
	assert.False(t, ok)
	assert.Equal(t, 1, e.Registry().Len(), "templates outlive the undo")

	require.NoError(t, e.Redo())
	assert.Equal(t, fn, mustNode(t, e, n.mul).Parent)
	_, ok = e.FunctionData(fn)
	assert.True(t, ok)
}

func TestCollapse_Rejects(t *testing.T) {
	e := newEngine(t, 32)
	n := buildNeuron(t, e)

	_, err := e.CollapseToNewFunction(nil, "empty")
	assert.ErrorIs(t, err, errEmptySelection)

	_, err = e.CollapseToNewFunction([]nodeid.Index{n.th, nodeid.New(30, 1)}, "dead")
	assert.ErrorIs(t, err, errdefs.ErrInvalidIndex)

	fn, err := e.CollapseToNewFunction([]nodeid.Index{n.th}, "inner")
	require.NoError(t, err)

	_, err = e.CollapseToNewFunction([]nodeid.Index{fn, n.mul}, "outer")
	assert.ErrorIs(t, err, errdefs.ErrNestedFunction)

	_, err = e.CollapseToNewFunction([]nodeid.Index{n.th}, "again")
	assert.ErrorIs(t, err, errdefs.ErrNestedFunction)

	assert.Equal(t, 1, e.Registry().Len())
}

func TestCollapse_CapacityExceeded(t *testing.T) {
	e := newEngine(t, 5)
	n := buildNeuron(t, e)
	_, err := e.CollapseToNewFunction([]nodeid.Index{n.th}, "full")
	assert.ErrorIs(t, err, errdefs.ErrCapacityExceeded)
	assert.Equal(t, 0, e.Registry().Len())
}

func TestInstantiateFunction(t *testing.T) {
	// --- Arrange ---
	e := newEngine(t, 32)
	n := buildNeuron(t, e)
	_, err := e.CollapseToNewFunction([]nodeid.Index{n.th, n.mul}, "squash")
	require.NoError(t, err)
	before := e.Len()

	// --- Act ---
	fn, err := e.InstantiateFunction(0, node.Vec2{X: 500, Y: 500})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, before+3, e.Len())
	fv := mustNode(t, e, fn)
	assert.Equal(t, "squash", fv.Name)
	assert.Equal(t, node.Vec2{X: 500, Y: 500}, fv.Position)

	b, ok := e.FunctionData(fn)
	require.True(t, ok)
	require.Len(t, b.Inputs, 2)
	require.Len(t, b.Outputs, 1)
	assert.True(t, b.Inputs[0].Start.IsNil())
	th2, mul2 := b.Inputs[0].End.Node, b.Outputs[0].Start.Node
	assert.Equal(t, node.Tanh, mustNode(t, e, th2).Operation)
	assert.Equal(t, node.Multiply, mustNode(t, e, mul2).Operation)
	assert.Equal(t, fn, mustNode(t, e, th2).Parent)
	assert.Equal(t, node.Socket{Node: th2}, mustNode(t, e, mul2).Inputs[0], "internal wiring is recreated")
	assert.Equal(t, node.Vec2{X: 450, Y: 475}, mustNode(t, e, th2).Position)

	// Wire the instance through its pins.
	p := mustAdd(t, e, node.NewParameter("p", 1), node.Vec2{})
	q := mustAdd(t, e, node.NewParameter("q", 3), node.Vec2{})
	require.NoError(t, e.CreateConnection(node.NewConnection(p, 0, fn, 0)))
	require.NoError(t, e.CreateConnection(node.NewConnection(q, 0, fn, 1)))
	assert.Equal(t, node.Socket{Node: p}, mustNode(t, e, th2).Inputs[0])
	assert.Equal(t, node.Socket{Node: q}, mustNode(t, e, mul2).Inputs[1])

	out := mustAdd(t, e, node.New(node.Result), node.Vec2{})
	outPin, err := e.OutputPin(node.Socket{Node: fn})
	require.NoError(t, err)
	inPin, err := e.InputPin(node.Socket{Node: out})
	require.NoError(t, err)
	require.NoError(t, e.LinkCreated(inPin, outPin))
	assert.Equal(t, node.Socket{Node: mul2}, mustNode(t, e, out).Inputs[0])

	require.NoError(t, e.Forward(nil))
	assert.InDelta(t, math.Tanh(1)*3, mustNode(t, e, out).Value, 1e-12)
}

func TestInstantiateFunction_UndoIsOneStep(t *testing.T) {
	e := newEngine(t, 32)
	n := buildNeuron(t, e)
	_, err := e.CollapseToNewFunction([]nodeid.Index{n.th, n.mul}, "squash")
	require.NoError(t, err)
	before := e.Len()

	_, err = e.InstantiateFunction(0, node.Vec2{})
	require.NoError(t, err)
	require.NoError(t, e.Undo())

	assert.Equal(t, before, e.Len())
	require.NoError(t, e.Redo())
	assert.Equal(t, before+3, e.Len())
}

func TestInstantiateFunction_Errors(t *testing.T) {
	e := newEngine(t, 6)
	_, err := e.InstantiateFunction(0, node.Vec2{})
	assert.ErrorIs(t, err, errdefs.ErrNotFound)

	n := buildNeuron(t, e)
	_, err = e.CollapseToNewFunction([]nodeid.Index{n.th, n.mul}, "squash")
	require.NoError(t, err)

	_, err = e.InstantiateFunction(0, node.Vec2{})
	assert.ErrorIs(t, err, errdefs.ErrCapacityExceeded)
	assert.Equal(t, 6, e.Len())
}

func TestCreateConnection_MissingPin(t *testing.T) {
	e := newEngine(t, 32)
	n := buildNeuron(t, e)
	fn, err := e.CollapseToNewFunction([]nodeid.Index{n.th, n.mul}, "squash")
	require.NoError(t, err)

	err = e.CreateConnection(node.NewConnection(n.x, 0, fn, 5))
	assert.ErrorIs(t, err, errdefs.ErrNotFound)

	err = e.LinkCreated(0, int(n.w.Slot)*node.MaxPins)
	assert.ErrorContains(t, err, "output to an input")
}

func TestDeleteFunctionNode(t *testing.T) {
	// --- Arrange ---
	e := newEngine(t, 32)
	n := buildNeuron(t, e)
	fn, err := e.CollapseToNewFunction([]nodeid.Index{n.th, n.mul}, "squash")
	require.NoError(t, err)
	links := e.Links()

	// --- Act ---
	require.NoError(t, e.DeleteNodes([]nodeid.Index{fn}))

	// --- Assert ---
	assert.Equal(t, 3, e.Len(), "members go with their function node")
	assert.True(t, mustNode(t, e, n.res).Inputs[0].IsNil())

	require.NoError(t, e.Undo())
	assert.Equal(t, 6, e.Len())
	assert.Equal(t, fn, mustNode(t, e, n.th).Parent)
	assert.Equal(t, links, e.Links())
}

func TestRemoveFunctionNode_Ungroups(t *testing.T) {
	e := newEngine(t, 32)
	n := buildNeuron(t, e)
	fn, err := e.CollapseToNewFunction([]nodeid.Index{n.th, n.mul}, "squash")
	require.NoError(t, err)

	require.NoError(t, e.st.history.Apply(e.st, history.NewRemoveNode(fn).AsFinal()))
	assert.True(t, mustNode(t, e, n.th).Parent.IsNil())
	assert.True(t, mustNode(t, e, n.mul).Parent.IsNil())

	require.NoError(t, e.Undo())
	assert.Equal(t, fn, mustNode(t, e, n.th).Parent)
	_, ok := e.FunctionData(fn)
	assert.True(t, ok)
}
