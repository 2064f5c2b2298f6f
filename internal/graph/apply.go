package graph

import (
	"fmt"

	"github.com/vk/nngarden/internal/dag"
	"github.com/vk/nngarden/internal/errdefs"
	"github.com/vk/nngarden/internal/history"
	"github.com/vk/nngarden/internal/node"
	"github.com/vk/nngarden/internal/nodeid"
)

// Apply executes op against the state. It validates before mutating, so a
// returned error means nothing changed.
func (s *state) Apply(op *history.Operation) error {
	switch op.Kind {
	case history.AddNode:
		return s.addNode(op)
	case history.RemoveNode:
		return s.removeNode(op)
	case history.AddConnection:
		return s.addConnection(op)
	case history.RemoveLink:
		return s.removeLink(op)
	case history.MoveNode:
		return s.moveNode(op, op.Delta)
	case history.SetBackwardsNode:
		return s.setBackwardsNode(op)
	default:
		return fmt.Errorf("apply: unknown operation kind %s", op.Kind)
	}
}

// Revert inverts an op previously applied by Apply.
func (s *state) Revert(op *history.Operation) error {
	switch op.Kind {
	case history.AddNode:
		return s.revertAddNode(op)
	case history.RemoveNode:
		return s.revertRemoveNode(op)
	case history.AddConnection:
		v, err := s.arena.Get(op.Link.End.Node)
		if err != nil {
			return err
		}
		v.Inputs[op.Link.End.Slot] = op.Previous
		return nil
	case history.RemoveLink:
		v, err := s.arena.Get(op.Link.End.Node)
		if err != nil {
			return err
		}
		v.Inputs[op.Link.End.Slot] = op.Link.Start
		return nil
	case history.MoveNode:
		return s.moveNode(op, node.Vec2{}.Sub(op.Delta))
	case history.SetBackwardsNode:
		s.root = op.PreviousRoot
		return nil
	default:
		return fmt.Errorf("revert: unknown operation kind %s", op.Kind)
	}
}

func (s *state) addNode(op *history.Operation) error {
	v := op.Node
	if !v.Operation.Valid() {
		return fmt.Errorf("add node: unknown operation %d", v.Operation)
	}
	if v.VariableConnections < 0 || v.VariableConnections > node.MaxInputs {
		return fmt.Errorf("add node: variable connections %d out of range", v.VariableConnections)
	}

	isFunction := v.Operation == node.Function
	if isFunction {
		if op.Boundary == nil {
			return fmt.Errorf("add node: function node without boundary data")
		}
		if op.Boundary.Pins() > node.MaxPins {
			return fmt.Errorf("%w: function node needs %d pins, limit is %d", errdefs.ErrCapacityExceeded, op.Boundary.Pins(), node.MaxPins)
		}
		for _, m := range op.Members {
			mv, err := s.arena.Get(m)
			if err != nil {
				return fmt.Errorf("function member: %w", err)
			}
			if mv.Operation == node.Function || mv.HasParent() {
				return fmt.Errorf("function member %s: %w", m, errdefs.ErrNestedFunction)
			}
		}
	} else if len(op.Members) > 0 || op.Boundary != nil {
		return fmt.Errorf("add node: only function nodes adopt members")
	}

	var idx nodeid.Index
	if op.Index.IsNil() {
		var err error
		if idx, err = s.arena.Allocate(); err != nil {
			return err
		}
	} else {
		if err := s.arena.Restore(op.Index); err != nil {
			return err
		}
		idx = op.Index
	}

	slot, _ := s.arena.Get(idx)
	v.Index = idx
	v.ClearInputs()
	v.Parent = nodeid.Nil
	v.GradientCalculated = false
	*slot = v
	op.Index = idx

	if isFunction {
		// Pins were checked above.
		_ = s.functions.Set(idx, *op.Boundary)
		for _, m := range op.Members {
			mv, _ := s.arena.Get(m)
			mv.Parent = idx
		}
	}
	return nil
}

func (s *state) revertAddNode(op *history.Operation) error {
	v, err := s.arena.Get(op.Index)
	if err != nil {
		return err
	}
	if v.Operation == node.Function {
		for _, m := range op.Members {
			if mv, err := s.arena.Get(m); err == nil && mv.Parent == op.Index {
				mv.Parent = nodeid.Nil
			}
		}
		s.functions.Delete(op.Index)
	}
	if s.root == op.Index {
		s.root = nodeid.Nil
	}
	_, err = s.arena.Free(op.Index)
	return err
}

func (s *state) removeNode(op *history.Operation) error {
	v, err := s.arena.Get(op.Index)
	if err != nil {
		return err
	}

	op.Node = *v
	op.Members = nil
	op.Boundary = nil
	if v.Operation == node.Function {
		op.Members = s.members(op.Index)
		if b, ok := s.functions.Get(op.Index); ok {
			op.Boundary = &b
		}
		for _, m := range op.Members {
			mv, _ := s.arena.Get(m)
			mv.Parent = nodeid.Nil
		}
		s.functions.Delete(op.Index)
	}

	op.WasRoot = s.root == op.Index
	if op.WasRoot {
		s.root = nodeid.Nil
	}

	op.Severed, err = s.arena.Free(op.Index)
	return err
}

func (s *state) revertRemoveNode(op *history.Operation) error {
	if err := s.arena.Restore(op.Index); err != nil {
		return err
	}
	slot, _ := s.arena.Get(op.Index)
	*slot = op.Node
	slot.Index = op.Index

	for _, c := range op.Severed {
		if c.End.Node == op.Index {
			continue
		}
		consumer, err := s.arena.Get(c.End.Node)
		if err != nil {
			return fmt.Errorf("restore wire %s: %w", c, err)
		}
		consumer.Inputs[c.End.Slot] = c.Start
	}

	if op.Boundary != nil {
		if err := s.functions.Set(op.Index, *op.Boundary); err != nil {
			return err
		}
	}
	for _, m := range op.Members {
		mv, err := s.arena.Get(m)
		if err != nil {
			return fmt.Errorf("restore member: %w", err)
		}
		mv.Parent = op.Index
	}
	if op.WasRoot {
		s.root = op.Index
	}
	return nil
}

func (s *state) addConnection(op *history.Operation) error {
	c := op.Link
	producer, err := s.arena.Get(c.Start.Node)
	if err != nil {
		return fmt.Errorf("connection start: %w", err)
	}
	consumer, err := s.arena.Get(c.End.Node)
	if err != nil {
		return fmt.Errorf("connection end: %w", err)
	}
	if c.Start.Slot < 0 || c.Start.Slot >= producer.OutputSlots() {
		return fmt.Errorf("%w: %s node has no output slot %d", errdefs.ErrInvalidIndex, producer.Operation, c.Start.Slot)
	}
	if c.End.Slot < 0 || c.End.Slot >= inputCapacity(consumer) {
		return fmt.Errorf("%w: %s node has no input slot %d", errdefs.ErrInvalidIndex, consumer.Operation, c.End.Slot)
	}
	if c.Start.Node == c.End.Node {
		return fmt.Errorf("%w: %s would feed itself", errdefs.ErrCyclicGraph, c.Start.Node)
	}

	g, err := dag.Build(s.arena)
	if err != nil {
		return err
	}
	if g.Reachable(c.End.Node, c.Start.Node) {
		return fmt.Errorf("%w: connecting %s closes a cycle", errdefs.ErrCyclicGraph, c)
	}

	op.Previous = consumer.Inputs[c.End.Slot]
	consumer.Inputs[c.End.Slot] = c.Start
	return nil
}

// inputCapacity is the number of input slots a connection may target.
// Variadic outputs accept any slot so their count can grow.
func inputCapacity(v *node.Value) int {
	if v.Operation == node.FunctionOutput {
		return node.MaxInputs
	}
	return v.InputSlots()
}

func (s *state) removeLink(op *history.Operation) error {
	c := op.Link
	consumer, err := s.arena.Get(c.End.Node)
	if err != nil {
		return fmt.Errorf("link end: %w", err)
	}
	if c.End.Slot < 0 || c.End.Slot >= node.MaxInputs || consumer.Inputs[c.End.Slot] != c.Start {
		return fmt.Errorf("%w: no link %s", errdefs.ErrNotFound, c)
	}
	consumer.Inputs[c.End.Slot] = node.Socket{}
	return nil
}

func (s *state) moveNode(op *history.Operation, delta node.Vec2) error {
	v, err := s.arena.Get(op.Index)
	if err != nil {
		return err
	}
	v.Position = v.Position.Add(delta)
	return nil
}

func (s *state) setBackwardsNode(op *history.Operation) error {
	if !op.Index.IsNil() && !s.arena.Live(op.Index) {
		_, err := s.arena.Get(op.Index)
		return fmt.Errorf("gradient root: %w", err)
	}
	op.PreviousRoot = s.root
	s.root = op.Index
	return nil
}
