package graph

import (
	"fmt"

	"github.com/vk/nngarden/internal/errdefs"
	"github.com/vk/nngarden/internal/node"
	"github.com/vk/nngarden/internal/nodeid"
)

// Link is a visible wire in flat pin space.
type Link struct {
	Start int
	End   int
}

func pinBase(idx nodeid.Index) int {
	return int(idx.Slot) * node.MaxPins
}

// InputPin maps an input socket to its flat pin id. A member's socket maps
// to the input pin of its Function node; member sockets that are not on the
// boundary have no pin and yield errdefs.ErrNotFound.
func (e *Engine) InputPin(s node.Socket) (int, error) {
	return e.st.inputPin(s)
}

// OutputPin maps an output socket to its flat pin id. See InputPin.
func (e *Engine) OutputPin(s node.Socket) (int, error) {
	return e.st.outputPin(s)
}

func (s *state) inputPin(sock node.Socket) (int, error) {
	v, err := s.arena.Get(sock.Node)
	if err != nil {
		return 0, err
	}
	switch {
	case v.HasParent():
		k, err := s.functions.InputPin(v.Parent, sock)
		if err != nil {
			return 0, err
		}
		return pinBase(v.Parent) + k, nil
	case v.Operation == node.Function:
		b, ok := s.functions.Get(sock.Node)
		if !ok || sock.Slot < 0 || sock.Slot >= len(b.Inputs) {
			return 0, fmt.Errorf("%w: function node %s has no input pin %d", errdefs.ErrNotFound, sock.Node, sock.Slot)
		}
		return pinBase(sock.Node) + sock.Slot, nil
	default:
		if sock.Slot < 0 || sock.Slot >= node.MaxInputs {
			return 0, fmt.Errorf("%w: input slot %d", errdefs.ErrInvalidIndex, sock.Slot)
		}
		return pinBase(sock.Node) + sock.Slot, nil
	}
}

func (s *state) outputPin(sock node.Socket) (int, error) {
	v, err := s.arena.Get(sock.Node)
	if err != nil {
		return 0, err
	}
	switch {
	case v.HasParent():
		k, err := s.functions.OutputPin(v.Parent, sock)
		if err != nil {
			return 0, err
		}
		b, _ := s.functions.Get(v.Parent)
		return pinBase(v.Parent) + len(b.Inputs) + k, nil
	case v.Operation == node.Function:
		b, ok := s.functions.Get(sock.Node)
		if !ok || sock.Slot < 0 || sock.Slot >= len(b.Outputs) {
			return 0, fmt.Errorf("%w: function node %s has no output pin %d", errdefs.ErrNotFound, sock.Node, sock.Slot)
		}
		return pinBase(sock.Node) + len(b.Inputs) + sock.Slot, nil
	default:
		if sock.Slot < 0 || sock.Slot >= node.MaxOutputs {
			return 0, fmt.Errorf("%w: output slot %d", errdefs.ErrInvalidIndex, sock.Slot)
		}
		return pinBase(sock.Node) + node.MaxInputs + sock.Slot, nil
	}
}

// ResolvePin inverts the pin mapping. It returns the socket the pin stands
// for, on the node that displays it, and whether it is an input.
func (e *Engine) ResolvePin(pin int) (node.Socket, bool, error) {
	if pin < 0 {
		return node.Socket{}, false, fmt.Errorf("%w: pin %d", errdefs.ErrNotFound, pin)
	}
	v, ok := e.st.arena.AtSlot(uint32(pin / node.MaxPins))
	if !ok {
		return node.Socket{}, false, fmt.Errorf("%w: pin %d belongs to no live node", errdefs.ErrNotFound, pin)
	}
	off := pin % node.MaxPins

	if v.Operation == node.Function {
		b, _ := e.st.functions.Get(v.Index)
		switch {
		case off < len(b.Inputs):
			return node.Socket{Node: v.Index, Slot: off}, true, nil
		case off < b.Pins():
			return node.Socket{Node: v.Index, Slot: off - len(b.Inputs)}, false, nil
		}
		return node.Socket{}, false, fmt.Errorf("%w: function node %s has no pin %d", errdefs.ErrNotFound, v.Index, off)
	}

	switch {
	case off < node.MaxInputs:
		return node.Socket{Node: v.Index, Slot: off}, true, nil
	case off < node.MaxInputs+node.MaxOutputs:
		return node.Socket{Node: v.Index, Slot: off - node.MaxInputs}, false, nil
	}
	return node.Socket{}, false, fmt.Errorf("%w: node %s has no pin %d", errdefs.ErrNotFound, v.Index, off)
}

// LinkCreated turns a link gesture between two pins into a connection. The
// pins may be given in either order but must join an output to an input.
func (e *Engine) LinkCreated(a, b int) error {
	sa, aIn, err := e.ResolvePin(a)
	if err != nil {
		return err
	}
	sb, bIn, err := e.ResolvePin(b)
	if err != nil {
		return err
	}
	switch {
	case !aIn && bIn:
		return e.CreateConnection(node.Connection{Start: sa, End: sb})
	case aIn && !bIn:
		return e.CreateConnection(node.Connection{Start: sb, End: sa})
	default:
		return fmt.Errorf("link must join an output to an input: pins %d and %d", a, b)
	}
}

// Links lists the wires the renderer shows, in pin space. Wires inside a
// function are hidden, and wires that cross a function boundary are drawn
// to the Function node's pins.
func (e *Engine) Links() []Link {
	var out []Link
	for _, c := range e.Connections() {
		producer, _ := e.st.arena.Get(c.Start.Node)
		consumer, _ := e.st.arena.Get(c.End.Node)
		if producer.HasParent() && producer.Parent == consumer.Parent {
			continue
		}
		start, err := e.st.outputPin(c.Start)
		if err != nil {
			continue
		}
		end, err := e.st.inputPin(c.End)
		if err != nil {
			continue
		}
		out = append(out, Link{Start: start, End: end})
	}
	return out
}
