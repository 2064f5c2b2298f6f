// Package arena provides the fixed-capacity node store of the graph engine.
//
// # Slot Map
//
// Nodes live in slots. Every slot carries a generation that is bumped each
// time the slot is handed out again, and a handle (nodeid.Index) records the
// generation it was issued with. A handle whose generation no longer matches
// is rejected with errdefs.ErrInvalidIndex instead of silently reading the
// node that now occupies the slot.
//
// Freed slots go onto a LIFO free list. Restore re-occupies one exact index,
// which is how undo and redo put a node back where later history entries
// expect to find it.
//
// # Thread-Safety
//
// An Arena is not safe for concurrent use. It is owned by a single engine
// that serializes every mutation.
package arena

import (
	"fmt"

	"github.com/vk/nngarden/internal/errdefs"
	"github.com/vk/nngarden/internal/node"
	"github.com/vk/nngarden/internal/nodeid"
)

type slot struct {
	value node.Value
	used  bool
	// gen is the generation of the current (or last) occupant.
	gen uint32
	// maxGen is the highest generation ever issued for this slot.
	maxGen uint32
}

// Arena is a generation-counted slot map of node values.
type Arena struct {
	slots    []slot
	free     []uint32
	capacity int
	live     int
}

// New creates an empty arena that holds at most capacity nodes.
func New(capacity int) *Arena {
	return &Arena{
		slots:    make([]slot, 0, min(capacity, 1024)),
		capacity: capacity,
	}
}

// Capacity is the maximum number of live nodes.
func (a *Arena) Capacity() int {
	return a.capacity
}

// Len is the number of live nodes.
func (a *Arena) Len() int {
	return a.live
}

// Available is the number of allocations that can still succeed.
func (a *Arena) Available() int {
	return a.capacity - a.live
}

// Allocate returns a fresh index, stamping it on a zeroed value.
func (a *Arena) Allocate() (nodeid.Index, error) {
	for len(a.free) > 0 {
		s := a.free[len(a.free)-1]
		a.free = a.free[:len(a.free)-1]
		// Restore may have re-occupied a slot that is still listed.
		if a.slots[s].used {
			continue
		}
		return a.occupy(s, a.slots[s].maxGen+1), nil
	}

	if len(a.slots) >= a.capacity {
		return nodeid.Nil, fmt.Errorf("%w: arena holds %d nodes", errdefs.ErrCapacityExceeded, a.capacity)
	}
	a.slots = append(a.slots, slot{})
	return a.occupy(uint32(len(a.slots)-1), 1), nil
}

// Restore re-occupies exactly idx. The slot must be free.
func (a *Arena) Restore(idx nodeid.Index) error {
	if idx.IsNil() {
		return fmt.Errorf("%w: cannot restore nil index", errdefs.ErrInvalidIndex)
	}
	if int(idx.Slot) >= a.capacity {
		return fmt.Errorf("%w: slot %d beyond capacity %d", errdefs.ErrCapacityExceeded, idx.Slot, a.capacity)
	}
	for int(idx.Slot) >= len(a.slots) {
		a.slots = append(a.slots, slot{})
		a.free = append(a.free, uint32(len(a.slots)-1))
	}
	if a.slots[idx.Slot].used {
		return fmt.Errorf("%w: slot of %s is occupied by %s", errdefs.ErrInvalidIndex, idx, a.slots[idx.Slot].value.Index)
	}
	a.occupy(idx.Slot, idx.Gen)
	return nil
}

func (a *Arena) occupy(s uint32, gen uint32) nodeid.Index {
	sl := &a.slots[s]
	sl.used = true
	sl.gen = gen
	if gen > sl.maxGen {
		sl.maxGen = gen
	}
	idx := nodeid.New(s, gen)
	sl.value = node.Value{Index: idx}
	a.live++
	return idx
}

// Free releases idx. Every live input socket that referenced it is cleared.
// The returned connections are every wire that had idx as an endpoint: the
// node's own inputs first, then the severed consumers in slot order.
func (a *Arena) Free(idx nodeid.Index) ([]node.Connection, error) {
	v, err := a.Get(idx)
	if err != nil {
		return nil, err
	}

	var removed []node.Connection
	for slotIdx, in := range v.Inputs {
		if !in.IsNil() {
			removed = append(removed, node.Connection{Start: in, End: node.Socket{Node: idx, Slot: slotIdx}})
		}
	}

	for s := range a.slots {
		sl := &a.slots[s]
		if !sl.used || uint32(s) == idx.Slot {
			continue
		}
		for j, in := range sl.value.Inputs {
			if in.Node == idx {
				removed = append(removed, node.Connection{Start: in, End: node.Socket{Node: sl.value.Index, Slot: j}})
				sl.value.Inputs[j] = node.Socket{}
			}
		}
	}

	sl := &a.slots[idx.Slot]
	sl.used = false
	sl.value = node.Value{}
	a.free = append(a.free, idx.Slot)
	a.live--
	return removed, nil
}

// Get returns the live value at idx for in-place mutation by the engine.
func (a *Arena) Get(idx nodeid.Index) (*node.Value, error) {
	if idx.IsNil() {
		return nil, fmt.Errorf("%w: nil index", errdefs.ErrInvalidIndex)
	}
	if int(idx.Slot) >= len(a.slots) {
		return nil, fmt.Errorf("%w: %s out of range", errdefs.ErrInvalidIndex, idx)
	}
	sl := &a.slots[idx.Slot]
	if !sl.used {
		return nil, fmt.Errorf("%w: %s is not live", errdefs.ErrInvalidIndex, idx)
	}
	if sl.gen != idx.Gen {
		return nil, fmt.Errorf("%w: %s is stale, slot holds generation %d", errdefs.ErrInvalidIndex, idx, sl.gen)
	}
	return &sl.value, nil
}

// Live reports whether idx names a live node.
func (a *Arena) Live(idx nodeid.Index) bool {
	_, err := a.Get(idx)
	return err == nil
}

// AtSlot returns the live value stored in slot s, if any.
func (a *Arena) AtSlot(s uint32) (*node.Value, bool) {
	if int(s) >= len(a.slots) || !a.slots[s].used {
		return nil, false
	}
	return &a.slots[s].value, true
}

// Indices lists every live index in ascending slot order.
func (a *Arena) Indices() []nodeid.Index {
	out := make([]nodeid.Index, 0, a.live)
	for s := range a.slots {
		if a.slots[s].used {
			out = append(out, a.slots[s].value.Index)
		}
	}
	return out
}

// Each calls f for every live value in ascending slot order until f returns
// false.
func (a *Arena) Each(f func(v *node.Value) bool) {
	for s := range a.slots {
		if a.slots[s].used {
			if !f(&a.slots[s].value) {
				return
			}
		}
	}
}

// Reset drops every node and forgets all generations.
func (a *Arena) Reset() {
	a.slots = a.slots[:0]
	a.free = a.free[:0]
	a.live = 0
}
