package history

import (
	"fmt"

	"github.com/vk/nngarden/internal/node"
	"github.com/vk/nngarden/internal/nodeid"
)

// Kind selects the variant of an Operation.
type Kind uint8

const (
	AddNode Kind = iota + 1
	RemoveNode
	AddConnection
	RemoveLink
	MoveNode
	SetBackwardsNode
)

var kindNames = map[Kind]string{
	AddNode:          "add_node",
	RemoveNode:       "remove_node",
	AddConnection:    "add_connection",
	RemoveLink:       "remove_link",
	MoveNode:         "move_node",
	SetBackwardsNode: "set_backwards_node",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Operation is one recorded edit.
//
//   - AddNode: Node is the value to insert. Index is empty until the first
//     apply assigns one; redo re-occupies it. For a Function node, Members
//     are adopted and Boundary is installed.
//   - RemoveNode: Index is the target. Apply fills Node with a snapshot,
//     Severed with the wires cut, Boundary and Members for a Function node,
//     and WasRoot when the node was the gradient root.
//   - AddConnection: Link is the new wire. Apply fills Previous with the
//     socket the consumer slot held before.
//   - RemoveLink: Link is the wire to cut.
//   - MoveNode: Index moves by Delta.
//   - SetBackwardsNode: Index becomes the gradient root (Nil clears it).
//     Apply fills PreviousRoot.
type Operation struct {
	Kind  Kind `msgpack:"kind"`
	Final bool `msgpack:"final"`

	Index    nodeid.Index      `msgpack:"index"`
	Node     node.Value        `msgpack:"node"`
	Members  []nodeid.Index    `msgpack:"members,omitempty"`
	Boundary *node.Boundary    `msgpack:"boundary,omitempty"`
	Severed  []node.Connection `msgpack:"severed,omitempty"`
	WasRoot  bool              `msgpack:"was_root,omitempty"`

	Link     node.Connection `msgpack:"link"`
	Previous node.Socket     `msgpack:"previous"`
	Delta    node.Vec2       `msgpack:"delta"`

	PreviousRoot nodeid.Index `msgpack:"previous_root"`
}

// NewAddNode records insertion of v.
func NewAddNode(v node.Value) Operation {
	v.Index = nodeid.Nil
	return Operation{Kind: AddNode, Node: v}
}

// NewAddFunctionNode records insertion of a Function node that adopts
// members and exposes boundary b.
func NewAddFunctionNode(v node.Value, members []nodeid.Index, b node.Boundary) Operation {
	op := NewAddNode(v)
	op.Members = append([]nodeid.Index(nil), members...)
	b = b.Clone()
	op.Boundary = &b
	return op
}

// NewRemoveNode records removal of idx.
func NewRemoveNode(idx nodeid.Index) Operation {
	return Operation{Kind: RemoveNode, Index: idx}
}

// NewAddConnection records creation of c.
func NewAddConnection(c node.Connection) Operation {
	return Operation{Kind: AddConnection, Link: c}
}

// NewRemoveLink records removal of c.
func NewRemoveLink(c node.Connection) Operation {
	return Operation{Kind: RemoveLink, Link: c}
}

// NewMoveNode records moving idx by delta.
func NewMoveNode(idx nodeid.Index, delta node.Vec2) Operation {
	return Operation{Kind: MoveNode, Index: idx, Delta: delta}
}

// NewSetBackwardsNode records choosing idx as the gradient root.
func NewSetBackwardsNode(idx nodeid.Index) Operation {
	return Operation{Kind: SetBackwardsNode, Index: idx}
}

// AsFinal returns op with its Final flag set.
func (op Operation) AsFinal() Operation {
	op.Final = true
	return op
}

func (op Operation) String() string {
	switch op.Kind {
	case AddNode:
		return fmt.Sprintf("%s %s at %s", op.Kind, op.Node.Operation, op.Index)
	case AddConnection, RemoveLink:
		return fmt.Sprintf("%s %s", op.Kind, op.Link)
	case MoveNode:
		return fmt.Sprintf("%s %s by (%g, %g)", op.Kind, op.Index, op.Delta.X, op.Delta.Y)
	default:
		return fmt.Sprintf("%s %s", op.Kind, op.Index)
	}
}
