package node

import (
	"fmt"

	"github.com/vk/nngarden/internal/nodeid"
)

const (
	// MaxInputs bounds the input arity of a single node.
	MaxInputs = 4
	// MaxOutputs bounds the output slots a single node exposes.
	MaxOutputs = 4
	// MaxPins is the number of flat pin ids reserved per node. A Function
	// node's inputs and outputs together must fit in it.
	MaxPins = 64
)

// Socket identifies one endpoint of a wire.
type Socket struct {
	Node nodeid.Index `json:"node" yaml:"node" msgpack:"node"`
	Slot int          `json:"slot" yaml:"slot" msgpack:"slot"`
}

// IsNil reports whether the socket is unconnected.
func (s Socket) IsNil() bool {
	return s.Node.IsNil()
}

func (s Socket) String() string {
	return fmt.Sprintf("%s:%d", s.Node, s.Slot)
}

// Connection is a directed wire from a producer output to a consumer input.
type Connection struct {
	Start Socket `json:"start" yaml:"start" msgpack:"start"`
	End   Socket `json:"end" yaml:"end" msgpack:"end"`
}

// NewConnection builds a connection from raw endpoints.
func NewConnection(startNode nodeid.Index, startSlot int, endNode nodeid.Index, endSlot int) Connection {
	return Connection{
		Start: Socket{Node: startNode, Slot: startSlot},
		End:   Socket{Node: endNode, Slot: endSlot},
	}
}

func (c Connection) String() string {
	return c.Start.String() + "->" + c.End.String()
}
