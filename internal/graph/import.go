package graph

import (
	"fmt"

	"github.com/vk/nngarden/internal/document"
	"github.com/vk/nngarden/internal/errdefs"
	"github.com/vk/nngarden/internal/history"
	"github.com/vk/nngarden/internal/node"
	"github.com/vk/nngarden/internal/nodeid"
)

type importResult struct {
	// indices holds the new index of every document node, in document order.
	indices []nodeid.Index
}

// importDocument adds the nodes of doc to the state. Parentless nodes land
// at origin plus their offset. The document is validated and the capacity
// checked before anything is applied; a failure after that point rolls back
// every operation already recorded and restores the redo branch. With final set, the last operation
// closes the gesture.
func (s *state) importDocument(doc *document.Document, origin node.Vec2, final bool) (importResult, error) {
	if err := document.Validate(doc); err != nil {
		return importResult{}, err
	}
	if need := len(doc.Nodes); need > s.arena.Available() {
		return importResult{}, fmt.Errorf("%w: document needs %d slots, %d free", errdefs.ErrCapacityExceeded, need, s.arena.Available())
	}

	boundaries := make(map[int]document.FunctionNode, len(doc.FunctionNodes))
	for _, fn := range doc.FunctionNodes {
		if _, err := s.registry.Get(fn.FunctionID); err != nil {
			return importResult{}, fmt.Errorf("function node %d: %w", fn.Node, err)
		}
		boundaries[fn.Node] = fn
	}
	for i, n := range doc.Nodes {
		if n.Operation == node.Function {
			if _, ok := boundaries[i]; !ok {
				return importResult{}, fmt.Errorf("%w: function node %d has no boundary data", errdefs.ErrMalformedDocument, i)
			}
		}
	}

	res := importResult{indices: make([]nodeid.Index, len(doc.Nodes))}
	cp := s.history.Checkpoint()
	fail := func(err error) (importResult, error) {
		if rbErr := s.history.Restore(s, cp); rbErr != nil {
			return importResult{}, fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return importResult{}, err
	}
	record := func(op history.Operation) (history.Operation, error) {
		if err := s.history.Apply(s, op); err != nil {
			return op, err
		}
		last, _ := s.history.Last()
		return last, nil
	}

	for i, n := range doc.Nodes {
		if n.Operation == node.Function {
			continue
		}
		op, err := record(history.NewAddNode(valueOf(doc, i, origin)))
		if err != nil {
			return fail(fmt.Errorf("import node %d: %w", i, err))
		}
		res.indices[i] = op.Index
	}

	for _, w := range doc.InternalWires() {
		c := node.NewConnection(res.indices[w.Start], w.StartSlot, res.indices[w.End], w.EndSlot)
		if _, err := record(history.NewAddConnection(c)); err != nil {
			return fail(fmt.Errorf("import wire %d->%d: %w", w.Start, w.End, err))
		}
	}

	for i, n := range doc.Nodes {
		if n.Operation != node.Function {
			continue
		}
		fn := boundaries[i]
		var members []nodeid.Index
		for j, m := range doc.Nodes {
			if m.Parent != nil && *m.Parent == i {
				members = append(members, res.indices[j])
			}
		}
		b := node.Boundary{FunctionID: fn.FunctionID}
		for _, e := range fn.Inputs {
			b.Inputs = append(b.Inputs, node.Connection{
				Start: peerSocket(res.indices, e),
				End:   node.Socket{Node: res.indices[e.Member], Slot: e.MemberSlot},
			})
		}
		for _, e := range fn.Outputs {
			b.Outputs = append(b.Outputs, node.Connection{
				Start: node.Socket{Node: res.indices[e.Member], Slot: e.MemberSlot},
				End:   peerSocket(res.indices, e),
			})
		}
		op, err := record(history.NewAddFunctionNode(valueOf(doc, i, origin), members, b))
		if err != nil {
			return fail(fmt.Errorf("import function node %d: %w", i, err))
		}
		res.indices[i] = op.Index
	}

	if final {
		s.history.MarkFinal()
	}
	return res, nil
}

func valueOf(doc *document.Document, i int, origin node.Vec2) node.Value {
	n := doc.Nodes[i]
	return node.Value{
		Operation:           n.Operation,
		Value:               n.Value,
		Gradient:            n.Gradient,
		Position:            doc.Position(i, origin),
		Name:                n.Name,
		VariableConnections: n.VariableConnections,
	}
}

func peerSocket(indices []nodeid.Index, e document.BoundaryEdge) node.Socket {
	if e.Peer == nil {
		return node.Socket{}
	}
	return node.Socket{Node: indices[*e.Peer], Slot: e.PeerSlot}
}

// Paste imports a clipboard document at origin as one undoable gesture and
// returns the new indices in document order. Wires to producers outside the
// copied selection are not restored.
func (e *Engine) Paste(data []byte, origin node.Vec2) ([]nodeid.Index, error) {
	doc, err := document.Unmarshal(data, document.FormatJSON)
	if err != nil {
		return nil, err
	}
	res, err := e.st.importDocument(doc, origin, true)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Clipboard pasted.", "nodes", len(res.indices))
	return res.indices, nil
}

// Copy exports a selection for the clipboard. Function nodes bring their
// members along. Offsets are relative to origin.
func (e *Engine) Copy(indices []nodeid.Index, origin node.Vec2) ([]byte, error) {
	all, err := e.st.expand(indices)
	if err != nil {
		return nil, err
	}
	doc, err := document.Export(e.st, all, origin)
	if err != nil {
		return nil, err
	}
	return document.Marshal(doc, document.FormatJSON)
}
