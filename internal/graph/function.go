package graph

import (
	"errors"
	"fmt"

	"github.com/vk/nngarden/internal/document"
	"github.com/vk/nngarden/internal/errdefs"
	"github.com/vk/nngarden/internal/function"
	"github.com/vk/nngarden/internal/history"
	"github.com/vk/nngarden/internal/node"
	"github.com/vk/nngarden/internal/nodeid"
)

var errEmptySelection = errors.New("empty selection")

// CollapseToNewFunction turns a selection into a function. The selection is
// exported as a template and registered, then a Function node is added at
// the selection's centroid that adopts the selection as members. The node
// is one undoable operation; undoing it ungroups the members but keeps the
// template registered.
func (e *Engine) CollapseToNewFunction(indices []nodeid.Index, name string) (nodeid.Index, error) {
	s := e.st
	members, err := s.dedupe(indices)
	if err != nil {
		return nodeid.Nil, err
	}
	if len(members) == 0 {
		return nodeid.Nil, errEmptySelection
	}

	var origin node.Vec2
	for _, idx := range members {
		v, _ := s.arena.Get(idx)
		if v.Operation == node.Function || v.HasParent() {
			return nodeid.Nil, fmt.Errorf("collapse %s: %w", idx, errdefs.ErrNestedFunction)
		}
		origin = origin.Add(v.Position)
	}
	origin = node.Vec2{X: origin.X / float64(len(members)), Y: origin.Y / float64(len(members))}

	boundary := s.boundaryOf(members)
	if boundary.Pins() > node.MaxPins {
		return nodeid.Nil, fmt.Errorf("%w: function would expose %d pins, limit is %d", errdefs.ErrCapacityExceeded, boundary.Pins(), node.MaxPins)
	}
	if s.arena.Available() < 1 {
		return nodeid.Nil, fmt.Errorf("%w: no slot left for the function node", errdefs.ErrCapacityExceeded)
	}

	doc, err := document.Export(s, members, origin)
	if err != nil {
		return nodeid.Nil, err
	}

	boundary.FunctionID = s.registry.Len()
	fn := node.New(node.Function)
	fn.Name = name
	fn.Position = origin

	if err := s.history.Apply(s, history.NewAddFunctionNode(fn, members, boundary).AsFinal()); err != nil {
		return nodeid.Nil, err
	}
	tmpl := s.registry.Register(function.NewTemplate(name, *doc))
	op, _ := s.history.Last()

	e.logger.Debug("Selection collapsed.",
		"function", tmpl.ID, "name", name, "node", op.Index,
		"members", len(members), "inputs", len(boundary.Inputs), "outputs", len(boundary.Outputs))
	return op.Index, nil
}

// InstantiateFunction places a fresh copy of template id at position and
// groups it under a new Function node. The whole placement is one undoable
// gesture.
func (e *Engine) InstantiateFunction(id int, position node.Vec2) (nodeid.Index, error) {
	s := e.st
	tmpl, err := s.registry.Get(id)
	if err != nil {
		return nodeid.Nil, err
	}
	doc := &tmpl.Document
	if len(doc.FunctionNodes) > 0 {
		return nodeid.Nil, fmt.Errorf("instantiate %q: %w", tmpl.Name, errdefs.ErrNestedFunction)
	}
	if need := len(doc.Nodes) + 1; s.arena.Available() < need {
		return nodeid.Nil, fmt.Errorf("%w: instantiating %q needs %d slots, %d free", errdefs.ErrCapacityExceeded, tmpl.Name, need, s.arena.Available())
	}

	cp := s.history.Checkpoint()
	res, err := s.importDocument(doc, position, false)
	if err != nil {
		return nodeid.Nil, fmt.Errorf("instantiate %q: %w", tmpl.Name, err)
	}

	boundary := node.Boundary{
		FunctionID: id,
		Inputs:     make([]node.Connection, 0, len(doc.UnmatchedInputs)),
		Outputs:    make([]node.Connection, 0, len(doc.UnmatchedOutputs)),
	}
	for _, u := range doc.UnmatchedInputs {
		boundary.Inputs = append(boundary.Inputs, node.Connection{
			End: node.Socket{Node: res.indices[u.End], Slot: u.EndSlot},
		})
	}
	for _, u := range doc.UnmatchedOutputs {
		boundary.Outputs = append(boundary.Outputs, node.Connection{
			Start: node.Socket{Node: res.indices[u.Start], Slot: u.StartSlot},
		})
	}

	fn := node.New(node.Function)
	fn.Name = tmpl.Name
	fn.Position = position
	if err := s.history.Apply(s, history.NewAddFunctionNode(fn, res.indices, boundary).AsFinal()); err != nil {
		if rbErr := s.history.Restore(s, cp); rbErr != nil {
			return nodeid.Nil, fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return nodeid.Nil, err
	}
	op, _ := s.history.Last()

	e.logger.Debug("Function instantiated.", "function", id, "name", tmpl.Name, "node", op.Index, "members", len(res.indices))
	return op.Index, nil
}

// boundaryOf lists the wires crossing the edge of members. Inputs follow
// member order then slot order; outputs follow consumer index order then
// slot order.
func (s *state) boundaryOf(members []nodeid.Index) node.Boundary {
	in := make(map[nodeid.Index]bool, len(members))
	for _, m := range members {
		in[m] = true
	}

	var b node.Boundary
	for _, m := range members {
		v, _ := s.arena.Get(m)
		for slot, src := range v.Inputs {
			if src.IsNil() || in[src.Node] {
				continue
			}
			b.Inputs = append(b.Inputs, node.Connection{Start: src, End: node.Socket{Node: m, Slot: slot}})
		}
	}
	s.arena.Each(func(v *node.Value) bool {
		if in[v.Index] {
			return true
		}
		for slot, src := range v.Inputs {
			if !src.IsNil() && in[src.Node] {
				b.Outputs = append(b.Outputs, node.Connection{Start: src, End: node.Socket{Node: v.Index, Slot: slot}})
			}
		}
		return true
	})
	return b
}

// dedupe checks that every index is live and drops repeats.
func (s *state) dedupe(indices []nodeid.Index) ([]nodeid.Index, error) {
	if err := s.checkLive(indices); err != nil {
		return nil, err
	}
	out := make([]nodeid.Index, 0, len(indices))
	seen := make(map[nodeid.Index]bool, len(indices))
	for _, idx := range indices {
		if !seen[idx] {
			seen[idx] = true
			out = append(out, idx)
		}
	}
	return out, nil
}
