package graph

import (
	"fmt"

	"github.com/vk/nngarden/internal/history"
	"github.com/vk/nngarden/internal/node"
	"github.com/vk/nngarden/internal/nodeid"
)

// AddNode inserts v as a new parentless node and returns its index. Inputs
// carried by v are ignored; wires are made with CreateConnection. Function
// nodes are only created by collapsing or instantiating.
func (e *Engine) AddNode(v node.Value) (nodeid.Index, error) {
	if v.Operation == node.Function {
		return nodeid.Nil, fmt.Errorf("add node: function nodes are created by collapse or instantiation")
	}
	if err := e.st.history.Apply(e.st, history.NewAddNode(v).AsFinal()); err != nil {
		return nodeid.Nil, err
	}
	op, _ := e.st.history.Last()
	e.logger.Debug("Node added.", "index", op.Index, "operation", v.Operation)
	return op.Index, nil
}

// RemoveNode deletes a single node. See DeleteNodes.
func (e *Engine) RemoveNode(idx nodeid.Index) error {
	return e.DeleteNodes([]nodeid.Index{idx})
}

// DeleteNodes deletes a selection as one undoable gesture. Deleting a
// Function node also deletes its members. Every wire touching a deleted node
// is cut, and the gradient root is cleared if it was deleted.
func (e *Engine) DeleteNodes(indices []nodeid.Index) error {
	all, err := e.st.expand(indices)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		return nil
	}

	ops := make([]history.Operation, 0, len(all))
	for _, idx := range all {
		ops = append(ops, history.NewRemoveNode(idx))
	}
	if err := e.st.applyGroup(ops); err != nil {
		return err
	}
	e.logger.Debug("Nodes deleted.", "count", len(all))
	return nil
}

// MoveNodes moves a selection by delta as one undoable gesture.
func (e *Engine) MoveNodes(indices []nodeid.Index, delta node.Vec2) error {
	ops := make([]history.Operation, 0, len(indices))
	seen := make(map[nodeid.Index]bool, len(indices))
	for _, idx := range indices {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		if !e.st.arena.Live(idx) {
			_, err := e.st.arena.Get(idx)
			return err
		}
		ops = append(ops, history.NewMoveNode(idx, delta))
	}
	if len(ops) == 0 {
		return nil
	}
	return e.st.applyGroup(ops)
}

// CreateConnection wires a producer output to a consumer input, replacing
// whatever fed that input. Endpoints on a Function node are patched through
// to the member socket behind the pin. A wire that would close a cycle is
// refused with errdefs.ErrCyclicGraph.
func (e *Engine) CreateConnection(c node.Connection) error {
	patched, err := e.st.patch(c)
	if err != nil {
		return err
	}
	if err := e.st.history.Apply(e.st, history.NewAddConnection(patched).AsFinal()); err != nil {
		return err
	}
	e.logger.Debug("Connection created.", "link", patched.String())
	return nil
}

// RemoveLink cuts a wire. Function node endpoints are patched through as in
// CreateConnection.
func (e *Engine) RemoveLink(c node.Connection) error {
	patched, err := e.st.patch(c)
	if err != nil {
		return err
	}
	if err := e.st.history.Apply(e.st, history.NewRemoveLink(patched).AsFinal()); err != nil {
		return err
	}
	e.logger.Debug("Link removed.", "link", patched.String())
	return nil
}

// SetBackwardsNode selects the node gradients are propagated from. Nil
// clears the selection.
func (e *Engine) SetBackwardsNode(idx nodeid.Index) error {
	return e.st.history.Apply(e.st, history.NewSetBackwardsNode(idx).AsFinal())
}

// patch replaces Function node endpoints with the member sockets behind
// their pins.
func (s *state) patch(c node.Connection) (node.Connection, error) {
	start, err := s.arena.Get(c.Start.Node)
	if err != nil {
		return c, fmt.Errorf("connection start: %w", err)
	}
	if start.Operation == node.Function {
		if c.Start, err = s.functions.OutputAt(c.Start.Node, c.Start.Slot); err != nil {
			return c, err
		}
	}

	end, err := s.arena.Get(c.End.Node)
	if err != nil {
		return c, fmt.Errorf("connection end: %w", err)
	}
	if end.Operation == node.Function {
		if c.End, err = s.functions.InputAt(c.End.Node, c.End.Slot); err != nil {
			return c, err
		}
	}
	return c, nil
}

// checkLive returns the first dead index in ids.
func (s *state) checkLive(ids []nodeid.Index) error {
	for _, idx := range ids {
		if _, err := s.arena.Get(idx); err != nil {
			return err
		}
	}
	return nil
}
