package graph

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/vk/nngarden/internal/arena"
	"github.com/vk/nngarden/internal/function"
	"github.com/vk/nngarden/internal/history"
	"github.com/vk/nngarden/internal/node"
	"github.com/vk/nngarden/internal/nodeid"
)

// DefaultCapacity is the node capacity used when none is configured.
const DefaultCapacity = 4096

// Engine owns a graph and every edit made to it.
type Engine struct {
	logger   *slog.Logger
	capacity int
	st       *state
}

// state is everything Load and Replay rebuild and swap in at once.
type state struct {
	arena     *arena.Arena
	functions *function.Table
	registry  *function.Registry
	history   *history.Log
	root      nodeid.Index
}

func newState(capacity int, registry *function.Registry) *state {
	if registry == nil {
		registry = function.NewRegistry()
	}
	return &state{
		arena:     arena.New(capacity),
		functions: function.NewTable(),
		registry:  registry,
		history:   history.NewLog(),
	}
}

// New creates an empty engine holding at most capacity nodes.
func New(logger *slog.Logger, capacity int) *Engine {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Engine{
		logger:   logger,
		capacity: capacity,
		st:       newState(capacity, nil),
	}
}

// Capacity is the maximum number of live nodes.
func (e *Engine) Capacity() int {
	return e.capacity
}

// Len is the number of live nodes.
func (e *Engine) Len() int {
	return e.st.arena.Len()
}

// Node returns a copy of the live node at idx.
func (e *Engine) Node(idx nodeid.Index) (node.Value, error) {
	return e.st.Node(idx)
}

// Nodes returns copies of every live node in ascending index order.
func (e *Engine) Nodes() []node.Value {
	return e.st.Nodes()
}

// Indices lists every live index in ascending order.
func (e *Engine) Indices() []nodeid.Index {
	return e.st.arena.Indices()
}

// Lookup returns the first live node, in index order, with the given name.
func (e *Engine) Lookup(name string) (nodeid.Index, bool) {
	var found nodeid.Index
	e.st.arena.Each(func(v *node.Value) bool {
		if v.Name == name {
			found = v.Index
			return false
		}
		return true
	})
	return found, !found.IsNil()
}

// BackwardsNode is the current gradient root, or Nil.
func (e *Engine) BackwardsNode() nodeid.Index {
	return e.st.root
}

// Connections lists every live wire between real sockets, ordered by
// consumer and input slot.
func (e *Engine) Connections() []node.Connection {
	var out []node.Connection
	e.st.arena.Each(func(v *node.Value) bool {
		for s, in := range v.Inputs {
			if !in.IsNil() && e.st.arena.Live(in.Node) {
				out = append(out, node.Connection{Start: in, End: node.Socket{Node: v.Index, Slot: s}})
			}
		}
		return true
	})
	return out
}

// Registry returns the function templates known to the engine.
func (e *Engine) Registry() *function.Registry {
	return e.st.registry
}

// FunctionData returns the boundary of a Function node.
func (e *Engine) FunctionData(idx nodeid.Index) (node.Boundary, bool) {
	return e.st.FunctionData(idx)
}

// History returns the recorded operations and the cursor position.
func (e *Engine) History() ([]history.Operation, int) {
	return e.st.history.Operations(), e.st.history.Cursor()
}

// CanUndo reports whether Undo would change anything.
func (e *Engine) CanUndo() bool { return e.st.history.CanUndo() }

// CanRedo reports whether Redo would change anything.
func (e *Engine) CanRedo() bool { return e.st.history.CanRedo() }

// Undo reverts the most recent gesture. It is a no-op at the start of
// history.
func (e *Engine) Undo() error {
	if !e.st.history.CanUndo() {
		return nil
	}
	if err := e.st.history.Undo(e.st); err != nil {
		return err
	}
	e.logger.Debug("Undo applied.", "cursor", e.st.history.Cursor())
	return nil
}

// Redo re-applies the next gesture. It is a no-op at the end of history.
func (e *Engine) Redo() error {
	if !e.st.history.CanRedo() {
		return nil
	}
	if err := e.st.history.Redo(e.st); err != nil {
		return err
	}
	e.logger.Debug("Redo applied.", "cursor", e.st.history.Cursor())
	return nil
}

// SetValue overwrites the stored value of a node. It is not recorded.
func (e *Engine) SetValue(idx nodeid.Index, value float64) error {
	v, err := e.st.arena.Get(idx)
	if err != nil {
		return err
	}
	v.Value = value
	return nil
}

// SetName renames a node. It is not recorded.
func (e *Engine) SetName(idx nodeid.Index, name string) error {
	v, err := e.st.arena.Get(idx)
	if err != nil {
		return err
	}
	v.Name = name
	return nil
}

// Reset drops the graph, its history and every function template.
func (e *Engine) Reset() {
	e.st = newState(e.capacity, nil)
	e.logger.Debug("Graph reset.")
}

func (s *state) Node(idx nodeid.Index) (node.Value, error) {
	v, err := s.arena.Get(idx)
	if err != nil {
		return node.Value{}, err
	}
	return *v, nil
}

func (s *state) Nodes() []node.Value {
	out := make([]node.Value, 0, s.arena.Len())
	s.arena.Each(func(v *node.Value) bool {
		out = append(out, *v)
		return true
	})
	return out
}

func (s *state) FunctionData(idx nodeid.Index) (node.Boundary, bool) {
	return s.functions.Get(idx)
}

// members lists the live nodes grouped under fn in ascending index order.
func (s *state) members(fn nodeid.Index) []nodeid.Index {
	var out []nodeid.Index
	s.arena.Each(func(v *node.Value) bool {
		if v.Parent == fn {
			out = append(out, v.Index)
		}
		return true
	})
	return out
}

// expand adds the members of every Function node in indices and drops
// duplicates, keeping first occurrence order.
func (s *state) expand(indices []nodeid.Index) ([]nodeid.Index, error) {
	out := make([]nodeid.Index, 0, len(indices))
	seen := make(map[nodeid.Index]bool, len(indices))
	push := func(idx nodeid.Index) {
		if !seen[idx] {
			seen[idx] = true
			out = append(out, idx)
		}
	}
	for _, idx := range indices {
		v, err := s.arena.Get(idx)
		if err != nil {
			return nil, err
		}
		push(idx)
		if v.Operation == node.Function {
			for _, m := range s.members(idx) {
				push(m)
			}
		}
	}
	return out, nil
}

// applyGroup records ops as one gesture. On failure the ops already applied
// are rolled back, the redo branch is restored and the error of the failing
// op is returned.
func (s *state) applyGroup(ops []history.Operation) error {
	cp := s.history.Checkpoint()
	for i, op := range ops {
		op.Final = i == len(ops)-1
		if err := s.history.Apply(s, op); err != nil {
			if rbErr := s.history.Restore(s, cp); rbErr != nil {
				return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
			}
			return err
		}
	}
	return nil
}

func sortIndices(ids []nodeid.Index) {
	slices.SortFunc(ids, func(a, b nodeid.Index) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})
}
