package document

import (
	"github.com/google/uuid"
	"github.com/vk/nngarden/internal/node"
	"github.com/vk/nngarden/internal/nodeid"
)

// Document is the serialized form of a set of nodes.
type Document struct {
	Nodes            []Node            `json:"nodes" yaml:"nodes"`
	Offsets          [][2]float64      `json:"offsets" yaml:"offsets"`
	UnmatchedInputs  []UnmatchedInput  `json:"unmatched_inputs" yaml:"unmatched_inputs"`
	UnmatchedOutputs []UnmatchedOutput `json:"unmatched_outputs" yaml:"unmatched_outputs"`
	FunctionNodes    []FunctionNode    `json:"function_nodes,omitempty" yaml:"function_nodes,omitempty"`
	Functions        []Function        `json:"functions,omitempty" yaml:"functions,omitempty"`
}

// Node is one node of a document. Index is its dense local index.
type Node struct {
	Index     int            `json:"index" yaml:"index"`
	Operation node.Operation `json:"operation" yaml:"operation"`
	Value     float64        `json:"value" yaml:"value"`
	Gradient  float64        `json:"gradient" yaml:"gradient"`
	// Inputs has one entry per input slot; nil means unconnected.
	Inputs              []*Input `json:"inputs" yaml:"inputs"`
	Parent              *int     `json:"parent" yaml:"parent"`
	Name                string   `json:"name" yaml:"name"`
	VariableConnections int      `json:"variable_connections" yaml:"variable_connections"`
}

// Input references a producer by local index or placeholder id.
type Input struct {
	Node int `json:"node" yaml:"node"`
	Slot int `json:"slot" yaml:"slot"`
}

// UnmatchedInput is a wire into the document from a producer outside it.
type UnmatchedInput struct {
	OriginalStart     nodeid.Index `json:"original_start" yaml:"original_start"`
	OriginalStartSlot int          `json:"original_start_slot" yaml:"original_start_slot"`
	Placeholder       int          `json:"placeholder" yaml:"placeholder"`
	End               int          `json:"end" yaml:"end"`
	EndSlot           int          `json:"end_slot" yaml:"end_slot"`
}

// UnmatchedOutput is a wire from the document to a consumer outside it.
type UnmatchedOutput struct {
	Start           int          `json:"start" yaml:"start"`
	StartSlot       int          `json:"start_slot" yaml:"start_slot"`
	OriginalEnd     nodeid.Index `json:"original_end" yaml:"original_end"`
	OriginalEndSlot int          `json:"original_end_slot" yaml:"original_end_slot"`
}

// FunctionNode records the boundary of a Function node in the document.
type FunctionNode struct {
	Node       int            `json:"node" yaml:"node"`
	FunctionID int            `json:"function_id" yaml:"function_id"`
	Inputs     []BoundaryEdge `json:"inputs" yaml:"inputs"`
	Outputs    []BoundaryEdge `json:"outputs" yaml:"outputs"`
}

// BoundaryEdge is one pin of a Function node. Member is a local index; Peer
// is the local index of the outside endpoint, or nil when that endpoint is
// not part of the document.
type BoundaryEdge struct {
	Member     int  `json:"member" yaml:"member"`
	MemberSlot int  `json:"member_slot" yaml:"member_slot"`
	Peer       *int `json:"peer" yaml:"peer"`
	PeerSlot   int  `json:"peer_slot" yaml:"peer_slot"`
}

// Function is a function template embedded in a saved graph.
type Function struct {
	ID         int       `json:"id" yaml:"id"`
	Key        uuid.UUID `json:"key" yaml:"key"`
	Name       string    `json:"name" yaml:"name"`
	NumInputs  int       `json:"num_inputs" yaml:"num_inputs"`
	NumOutputs int       `json:"num_outputs" yaml:"num_outputs"`
	Document   Document  `json:"document" yaml:"document"`
}

// Position returns where node i lands when the document is placed at origin.
func (d *Document) Position(i int, origin node.Vec2) node.Vec2 {
	if i >= len(d.Offsets) {
		return origin
	}
	return origin.Add(node.Vec2{X: d.Offsets[i][0], Y: d.Offsets[i][1]})
}

// Placeholders returns the set of placeholder ids the document declares.
func (d *Document) Placeholders() map[int]bool {
	out := make(map[int]bool, len(d.UnmatchedInputs))
	for _, u := range d.UnmatchedInputs {
		out[u.Placeholder] = true
	}
	return out
}

// Wire is a connection between two nodes of the document.
type Wire struct {
	Start, StartSlot int
	End, EndSlot     int
}

// InternalWires lists the wires between nodes of the document in node and
// slot order. Wires from placeholders are not included.
func (d *Document) InternalWires() []Wire {
	var out []Wire
	for i, n := range d.Nodes {
		for s, in := range n.Inputs {
			if in == nil || in.Node >= len(d.Nodes) {
				continue
			}
			out = append(out, Wire{Start: in.Node, StartSlot: in.Slot, End: i, EndSlot: s})
		}
	}
	return out
}
