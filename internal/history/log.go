package history

import (
	"fmt"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
)

// Applier executes and inverts operations. Apply may fill the operation's
// recorded fields; the Log stores the operation as Apply left it.
type Applier interface {
	Apply(op *Operation) error
	Revert(op *Operation) error
}

// Log is a linear list of applied operations with a cursor. Operations
// before the cursor are applied; those after it can be redone.
type Log struct {
	ops    []Operation
	cursor int
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// Apply executes op and records it. A failed operation is not recorded.
// Recording discards every operation after the cursor.
func (l *Log) Apply(a Applier, op Operation) error {
	if err := a.Apply(&op); err != nil {
		return err
	}
	l.ops = append(l.ops[:l.cursor], op)
	l.cursor++
	return nil
}

// Undo inverts the most recent gesture. It does nothing at the start of
// the log.
func (l *Log) Undo(a Applier) error {
	for l.cursor > 0 {
		if err := a.Revert(&l.ops[l.cursor-1]); err != nil {
			return fmt.Errorf("undo %s: %w", l.ops[l.cursor-1], err)
		}
		l.cursor--
		if l.cursor == 0 || l.ops[l.cursor-1].Final {
			break
		}
	}
	return nil
}

// Redo re-applies the next gesture. It does nothing at the end of the log.
func (l *Log) Redo(a Applier) error {
	for l.cursor < len(l.ops) {
		if err := a.Apply(&l.ops[l.cursor]); err != nil {
			return fmt.Errorf("redo %s: %w", l.ops[l.cursor], err)
		}
		l.cursor++
		if l.ops[l.cursor-1].Final {
			break
		}
	}
	return nil
}

// MarkFinal sets the Final flag on the operation before the cursor.
func (l *Log) MarkFinal() {
	if l.cursor > 0 {
		l.ops[l.cursor-1].Final = true
	}
}

// Checkpoint is a log position saved before a multi-operation gesture,
// together with the redo branch the gesture's first Apply will discard.
type Checkpoint struct {
	cursor int
	redo   []Operation
}

// Checkpoint saves the current position and redo branch.
func (l *Log) Checkpoint() Checkpoint {
	return Checkpoint{cursor: l.cursor, redo: slices.Clone(l.ops[l.cursor:])}
}

// Restore backs out a gesture that failed halfway: it reverts every
// operation recorded since cp and brings back the redo branch cp saved.
func (l *Log) Restore(a Applier, cp Checkpoint) error {
	for l.cursor > cp.cursor {
		if err := a.Revert(&l.ops[l.cursor-1]); err != nil {
			return fmt.Errorf("rollback %s: %w", l.ops[l.cursor-1], err)
		}
		l.cursor--
		l.ops = l.ops[:l.cursor]
	}
	l.ops = append(l.ops[:l.cursor], cp.redo...)
	return nil
}

// Last returns the operation before the cursor as it was recorded.
func (l *Log) Last() (Operation, bool) {
	if l.cursor == 0 {
		return Operation{}, false
	}
	return l.ops[l.cursor-1], true
}

// Operations returns a copy of every recorded operation.
func (l *Log) Operations() []Operation {
	return append([]Operation(nil), l.ops...)
}

// Cursor is the number of applied operations.
func (l *Log) Cursor() int {
	return l.cursor
}

// CanUndo reports whether Undo would do anything.
func (l *Log) CanUndo() bool {
	return l.cursor > 0
}

// CanRedo reports whether Redo would do anything.
func (l *Log) CanRedo() bool {
	return l.cursor < len(l.ops)
}

// Clear forgets every operation.
func (l *Log) Clear() {
	l.ops = nil
	l.cursor = 0
}

const journalVersion = 1

type journal struct {
	Version    int         `msgpack:"version"`
	Cursor     int         `msgpack:"cursor"`
	Operations []Operation `msgpack:"operations"`
}

// Marshal encodes the log as a msgpack journal.
func (l *Log) Marshal() ([]byte, error) {
	data, err := msgpack.Marshal(journal{Version: journalVersion, Cursor: l.cursor, Operations: l.ops})
	if err != nil {
		return nil, fmt.Errorf("encode journal: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a journal into its operations and cursor. The
// operations up to the cursor reproduce the recorded state when applied in
// order to an empty graph.
func Unmarshal(data []byte) ([]Operation, int, error) {
	var j journal
	if err := msgpack.Unmarshal(data, &j); err != nil {
		return nil, 0, fmt.Errorf("decode journal: %w", err)
	}
	if j.Version != journalVersion {
		return nil, 0, fmt.Errorf("unsupported journal version %d", j.Version)
	}
	if j.Cursor < 0 || j.Cursor > len(j.Operations) {
		return nil, 0, fmt.Errorf("journal cursor %d out of range", j.Cursor)
	}
	return j.Operations, j.Cursor, nil
}
