// Package history records edit operations so they can be undone and redone.
//
// # Operations
//
// An Operation is a closed tagged variant: Kind selects which fields are
// meaningful. Each kind stores enough to invert itself exactly. The state
// that executes operations implements Applier; the Log never touches the
// graph itself.
//
// # Grouping
//
// Operations whose Final flag is unset belong to the same gesture as the
// operations that follow them. Undo steps back until the operation before
// the cursor is final; Redo steps forward until it has re-applied a final
// operation. A multi-node delete is therefore undone in one step.
//
// # Journal
//
// Marshal and Unmarshal encode the log with msgpack so a session can be
// replayed later.
package history
