package document

import (
	"fmt"

	"github.com/vk/nngarden/internal/errdefs"
	"github.com/vk/nngarden/internal/node"
	"github.com/vk/nngarden/internal/nodeid"
)

// Source is the read side of a graph that can be exported.
type Source interface {
	// Node returns a copy of the live node at idx.
	Node(idx nodeid.Index) (node.Value, error)
	// Nodes returns copies of every live node in ascending index order.
	Nodes() []node.Value
	// FunctionData returns the boundary of a Function node.
	FunctionData(idx nodeid.Index) (node.Boundary, bool)
}

// Export describes subset as a document. Members get local indices in subset
// order and offsets relative to origin. Duplicates in subset are ignored.
func Export(src Source, subset []nodeid.Index, origin node.Vec2) (*Document, error) {
	local := make(map[nodeid.Index]int, len(subset))
	members := make([]node.Value, 0, len(subset))
	for _, idx := range subset {
		if _, dup := local[idx]; dup {
			continue
		}
		v, err := src.Node(idx)
		if err != nil {
			return nil, err
		}
		local[idx] = len(members)
		members = append(members, v)
	}

	doc := &Document{
		Nodes:            make([]Node, 0, len(members)),
		Offsets:          make([][2]float64, 0, len(members)),
		UnmatchedInputs:  []UnmatchedInput{},
		UnmatchedOutputs: []UnmatchedOutput{},
	}

	placeholders := make(map[node.Socket]int)
	for i, v := range members {
		n := Node{
			Index:               i,
			Operation:           v.Operation,
			Value:               v.Value,
			Gradient:            v.Gradient,
			Inputs:              make([]*Input, node.MaxInputs),
			Name:                v.Name,
			VariableConnections: v.VariableConnections,
		}

		for s, in := range v.Inputs {
			if in.IsNil() {
				continue
			}
			if li, ok := local[in.Node]; ok {
				n.Inputs[s] = &Input{Node: li, Slot: in.Slot}
				continue
			}
			ph, ok := placeholders[in]
			if !ok {
				ph = len(members) + len(placeholders)
				placeholders[in] = ph
			}
			n.Inputs[s] = &Input{Node: ph, Slot: in.Slot}
			doc.UnmatchedInputs = append(doc.UnmatchedInputs, UnmatchedInput{
				OriginalStart:     in.Node,
				OriginalStartSlot: in.Slot,
				Placeholder:       ph,
				End:               i,
				EndSlot:           s,
			})
		}

		var offset [2]float64
		if p, ok := local[v.Parent]; ok && v.HasParent() {
			n.Parent = &p
		} else {
			d := v.Position.Sub(origin)
			offset = [2]float64{d.X, d.Y}
		}
		doc.Nodes = append(doc.Nodes, n)
		doc.Offsets = append(doc.Offsets, offset)
	}

	for _, v := range src.Nodes() {
		if _, member := local[v.Index]; member {
			continue
		}
		for s, in := range v.Inputs {
			li, ok := local[in.Node]
			if !ok || in.IsNil() {
				continue
			}
			doc.UnmatchedOutputs = append(doc.UnmatchedOutputs, UnmatchedOutput{
				Start:           li,
				StartSlot:       in.Slot,
				OriginalEnd:     v.Index,
				OriginalEndSlot: s,
			})
		}
	}

	for i, v := range members {
		if v.Operation != node.Function {
			continue
		}
		b, ok := src.FunctionData(v.Index)
		if !ok {
			continue
		}
		fn, err := exportBoundary(i, b, local)
		if err != nil {
			return nil, err
		}
		doc.FunctionNodes = append(doc.FunctionNodes, fn)
	}

	return doc, nil
}

func exportBoundary(i int, b node.Boundary, local map[nodeid.Index]int) (FunctionNode, error) {
	fn := FunctionNode{
		Node:       i,
		FunctionID: b.FunctionID,
		Inputs:     make([]BoundaryEdge, 0, len(b.Inputs)),
		Outputs:    make([]BoundaryEdge, 0, len(b.Outputs)),
	}
	for _, c := range b.Inputs {
		edge, err := boundaryEdge(c.End, c.Start, local)
		if err != nil {
			return FunctionNode{}, err
		}
		fn.Inputs = append(fn.Inputs, edge)
	}
	for _, c := range b.Outputs {
		edge, err := boundaryEdge(c.Start, c.End, local)
		if err != nil {
			return FunctionNode{}, err
		}
		fn.Outputs = append(fn.Outputs, edge)
	}
	return fn, nil
}

func boundaryEdge(member, peer node.Socket, local map[nodeid.Index]int) (BoundaryEdge, error) {
	m, ok := local[member.Node]
	if !ok {
		return BoundaryEdge{}, fmt.Errorf("%w: function member %s is not exported", errdefs.ErrInvalidIndex, member.Node)
	}
	edge := BoundaryEdge{Member: m, MemberSlot: member.Slot, PeerSlot: peer.Slot}
	if p, ok := local[peer.Node]; ok && !peer.IsNil() {
		edge.Peer = &p
	}
	return edge, nil
}
