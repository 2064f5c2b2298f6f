package function

import (
	"fmt"

	"github.com/vk/nngarden/internal/errdefs"
	"github.com/vk/nngarden/internal/node"
	"github.com/vk/nngarden/internal/nodeid"
)

type entry struct {
	boundary node.Boundary
	// inputPins maps a member input socket to its input pin.
	inputPins map[node.Socket]int
	// outputPins maps a member output socket to its first output pin.
	outputPins map[node.Socket]int
}

// Table is the side table of boundary data keyed by Function node.
type Table struct {
	entries map[nodeid.Index]*entry
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[nodeid.Index]*entry)}
}

// Set stores the boundary of fn and builds its pin lookups.
func (t *Table) Set(fn nodeid.Index, b node.Boundary) error {
	if b.Pins() > node.MaxPins {
		return fmt.Errorf("%w: function node needs %d pins, limit is %d", errdefs.ErrCapacityExceeded, b.Pins(), node.MaxPins)
	}
	e := &entry{
		boundary:   b.Clone(),
		inputPins:  make(map[node.Socket]int, len(b.Inputs)),
		outputPins: make(map[node.Socket]int, len(b.Outputs)),
	}
	for k, c := range b.Inputs {
		if _, ok := e.inputPins[c.End]; !ok {
			e.inputPins[c.End] = k
		}
	}
	for k, c := range b.Outputs {
		if _, ok := e.outputPins[c.Start]; !ok {
			e.outputPins[c.Start] = k
		}
	}
	t.entries[fn] = e
	return nil
}

// Get returns a copy of the boundary of fn.
func (t *Table) Get(fn nodeid.Index) (node.Boundary, bool) {
	e, ok := t.entries[fn]
	if !ok {
		return node.Boundary{}, false
	}
	return e.boundary.Clone(), true
}

// Delete drops the entry of fn and its lookups.
func (t *Table) Delete(fn nodeid.Index) {
	delete(t.entries, fn)
}

// Len returns the number of Function nodes with boundary data.
func (t *Table) Len() int {
	return len(t.entries)
}

// Reset drops every entry.
func (t *Table) Reset() {
	clear(t.entries)
}

// InputPin returns the input pin of fn that feeds member socket s.
func (t *Table) InputPin(fn nodeid.Index, s node.Socket) (int, error) {
	e, ok := t.entries[fn]
	if !ok {
		return 0, fmt.Errorf("%w: no boundary data for function node %s", errdefs.ErrNotFound, fn)
	}
	k, ok := e.inputPins[s]
	if !ok {
		return 0, fmt.Errorf("%w: %s is not an input of function node %s", errdefs.ErrNotFound, s, fn)
	}
	return k, nil
}

// OutputPin returns the output pin of fn that exposes member socket s.
func (t *Table) OutputPin(fn nodeid.Index, s node.Socket) (int, error) {
	e, ok := t.entries[fn]
	if !ok {
		return 0, fmt.Errorf("%w: no boundary data for function node %s", errdefs.ErrNotFound, fn)
	}
	k, ok := e.outputPins[s]
	if !ok {
		return 0, fmt.Errorf("%w: %s is not an output of function node %s", errdefs.ErrNotFound, s, fn)
	}
	return k, nil
}

// InputAt returns the member socket behind input pin k of fn.
func (t *Table) InputAt(fn nodeid.Index, k int) (node.Socket, error) {
	e, ok := t.entries[fn]
	if !ok || k < 0 || k >= len(e.boundary.Inputs) {
		return node.Socket{}, fmt.Errorf("%w: function node %s has no input pin %d", errdefs.ErrNotFound, fn, k)
	}
	return e.boundary.Inputs[k].End, nil
}

// OutputAt returns the member socket behind output pin k of fn.
func (t *Table) OutputAt(fn nodeid.Index, k int) (node.Socket, error) {
	e, ok := t.entries[fn]
	if !ok || k < 0 || k >= len(e.boundary.Outputs) {
		return node.Socket{}, fmt.Errorf("%w: function node %s has no output pin %d", errdefs.ErrNotFound, fn, k)
	}
	return e.boundary.Outputs[k].Start, nil
}
