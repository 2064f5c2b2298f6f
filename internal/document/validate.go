package document

import (
	"errors"
	"fmt"

	"github.com/vk/nngarden/internal/errdefs"
	"github.com/vk/nngarden/internal/node"
)

// Validate checks every structural constraint of the document. The returned
// error wraps errdefs.ErrMalformedDocument and lists every violation found.
func Validate(d *Document) error {
	v := &validator{doc: d}
	v.check()
	if len(v.errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", errdefs.ErrMalformedDocument, errors.Join(v.errs...))
}

type validator struct {
	doc  *Document
	errs []error
}

func (v *validator) fail(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(format, args...))
}

func (v *validator) check() {
	d := v.doc
	count := len(d.Nodes)
	placeholders := d.Placeholders()

	if len(d.Offsets) != count {
		v.fail("offsets: have %d entries for %d nodes", len(d.Offsets), count)
	}

	for i, n := range d.Nodes {
		if n.Index != i {
			v.fail("nodes[%d]: index %d is not dense", i, n.Index)
		}
		if !n.Operation.Valid() {
			v.fail("nodes[%d]: unknown operation %d", i, n.Operation)
			continue
		}
		if len(n.Inputs) > node.MaxInputs {
			v.fail("nodes[%d]: %d inputs exceed the limit of %d", i, len(n.Inputs), node.MaxInputs)
		}
		if n.VariableConnections < 0 || n.VariableConnections > node.MaxInputs {
			v.fail("nodes[%d]: variable_connections %d out of range", i, n.VariableConnections)
		}
		for s, in := range n.Inputs {
			if in == nil {
				continue
			}
			switch {
			case in.Node == i:
				v.fail("nodes[%d].inputs[%d]: node feeds itself", i, s)
			case in.Node < 0:
				v.fail("nodes[%d].inputs[%d]: negative node %d", i, s, in.Node)
			case in.Node >= count && !placeholders[in.Node]:
				v.fail("nodes[%d].inputs[%d]: node %d is neither a member nor a placeholder", i, s, in.Node)
			}
			if in.Slot < 0 || in.Slot >= node.MaxOutputs {
				v.fail("nodes[%d].inputs[%d]: output slot %d out of range", i, s, in.Slot)
			}
		}
		if n.Parent != nil {
			v.checkParent(i, *n.Parent)
		}
	}

	for k, u := range d.UnmatchedInputs {
		switch {
		case u.Placeholder < count:
			v.fail("unmatched_inputs[%d]: placeholder %d collides with a node", k, u.Placeholder)
		case u.End < 0 || u.End >= count:
			v.fail("unmatched_inputs[%d]: end %d out of range", k, u.End)
		case u.EndSlot < 0 || u.EndSlot >= len(d.Nodes[u.End].Inputs):
			v.fail("unmatched_inputs[%d]: end slot %d out of range", k, u.EndSlot)
		default:
			in := d.Nodes[u.End].Inputs[u.EndSlot]
			if in == nil || in.Node != u.Placeholder {
				v.fail("unmatched_inputs[%d]: nodes[%d].inputs[%d] does not reference placeholder %d", k, u.End, u.EndSlot, u.Placeholder)
			}
		}
	}

	for k, u := range d.UnmatchedOutputs {
		if u.Start < 0 || u.Start >= count {
			v.fail("unmatched_outputs[%d]: start %d out of range", k, u.Start)
		}
		if u.StartSlot < 0 || u.StartSlot >= node.MaxOutputs {
			v.fail("unmatched_outputs[%d]: start slot %d out of range", k, u.StartSlot)
		}
	}

	seen := make(map[int]bool, len(d.FunctionNodes))
	for k, fn := range d.FunctionNodes {
		v.checkFunctionNode(k, fn, seen)
	}

	for k := range d.Functions {
		if err := Validate(&d.Functions[k].Document); err != nil {
			v.fail("functions[%d] %q: %w", k, d.Functions[k].Name, err)
		}
	}
}

func (v *validator) checkParent(i, p int) {
	d := v.doc
	switch {
	case p == i:
		v.fail("nodes[%d]: node is its own parent", i)
	case p < 0 || p >= len(d.Nodes):
		v.fail("nodes[%d]: parent %d out of range", i, p)
	case d.Nodes[p].Operation != node.Function:
		v.fail("nodes[%d]: parent %d is a %s node, not a function", i, p, d.Nodes[p].Operation)
	case d.Nodes[p].Parent != nil:
		v.fail("nodes[%d]: parent %d is itself grouped: %w", i, p, errdefs.ErrNestedFunction)
	case d.Nodes[i].Operation == node.Function:
		v.fail("nodes[%d]: function node has a parent: %w", i, errdefs.ErrNestedFunction)
	}
}

func (v *validator) checkFunctionNode(k int, fn FunctionNode, seen map[int]bool) {
	d := v.doc
	if fn.Node < 0 || fn.Node >= len(d.Nodes) || d.Nodes[fn.Node].Operation != node.Function {
		v.fail("function_nodes[%d]: node %d is not a function node", k, fn.Node)
		return
	}
	if seen[fn.Node] {
		v.fail("function_nodes[%d]: node %d listed twice", k, fn.Node)
	}
	seen[fn.Node] = true

	if pins := len(fn.Inputs) + len(fn.Outputs); pins > node.MaxPins {
		v.fail("function_nodes[%d]: %d pins exceed the limit of %d", k, pins, node.MaxPins)
	}
	check := func(list string, j int, e BoundaryEdge) {
		if e.Member < 0 || e.Member >= len(d.Nodes) {
			v.fail("function_nodes[%d].%s[%d]: member %d out of range", k, list, j, e.Member)
			return
		}
		if p := d.Nodes[e.Member].Parent; p == nil || *p != fn.Node {
			v.fail("function_nodes[%d].%s[%d]: node %d is not a member", k, list, j, e.Member)
		}
		if e.Peer != nil && (*e.Peer < 0 || *e.Peer >= len(d.Nodes)) {
			v.fail("function_nodes[%d].%s[%d]: peer %d out of range", k, list, j, *e.Peer)
		}
	}
	for j, e := range fn.Inputs {
		check("inputs", j, e)
	}
	for j, e := range fn.Outputs {
		check("outputs", j, e)
	}
}
