// Package graph provides the Engine, the single facade through which an
// editor or a trainer manipulates a computation graph.
//
// # Architecture
//
// The Engine composes the lower-level pieces and is the only place that
// mutates them:
//
//	┌──────────────────────────────────────────┐
//	│                  Engine                  │
//	│ (edits, undo/redo, collapse, save/load,  │
//	│  pin mapping, evaluation entry points)   │
//	└────┬──────────┬───────────┬──────────┬───┘
//	     │          │           │          │
//	     ▼          ▼           ▼          ▼
//	┌────────┐ ┌─────────┐ ┌──────────┐ ┌──────────┐
//	│ arena  │ │ history │ │ function │ │ function │
//	│ (nodes)│ │  (log)  │ │  Table   │ │ Registry │
//	└────────┘ └─────────┘ └──────────┘ └──────────┘
//
// Every structural edit is expressed as a history.Operation and goes through
// the log, so it can be undone. Multi-step gestures (deleting a selection,
// pasting, instantiating a function) are recorded as one group and undone in
// one step. A gesture that fails halfway is rolled back before the error is
// returned, so structural errors never leave a partial edit behind.
//
// Parameter values and names are edited in place and are not recorded.
//
// # Functions
//
// Collapsing a selection registers a template built from its document and
// adds a Function node that adopts the selection as members. Members keep
// their real wires, so evaluation needs no special casing; the Function
// node only changes how wires are presented in pin space.
//
// # Pin Space
//
// The renderer addresses sockets by flat pin ids. Each node owns the MaxPins
// ids starting at slot*MaxPins. See InputPin, OutputPin and ResolvePin.
//
// # Thread-Safety
//
// An Engine is not safe for concurrent use. Callers serialize access.
package graph
