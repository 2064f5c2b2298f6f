// Package errdefs contains the error taxonomy of the graph engine.
//
// It is a separate package so the arena, history, evaluator and serializer
// can report failures that the engine and external callers match with
// errors.Is, without those packages depending on each other.
package errdefs

import "errors"

// Sentinel errors for graph engine operations.
var (
	// ErrCapacityExceeded is returned when the arena has no free slot left
	// for an allocation, or a function would expose more pins than a node
	// can address.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrInvalidIndex is returned when an operation references a node index
	// that is out of range, freed, or from an older generation of its slot.
	ErrInvalidIndex = errors.New("invalid node index")

	// ErrMalformedDocument is returned when a structural document is missing
	// required fields or holds inconsistent references. The import that hit
	// it leaves the graph untouched.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrCyclicGraph is returned when a connection would close a cycle or an
	// evaluation pass finds one.
	ErrCyclicGraph = errors.New("cyclic graph")

	// ErrNotFound is returned when a function pin has no boundary mapping or
	// a function template id is unknown.
	ErrNotFound = errors.New("not found")

	// ErrMissingInput is returned by evaluation when a node lacks an input
	// its operation requires.
	ErrMissingInput = errors.New("missing required input")

	// ErrNestedFunction is returned when grouping would nest one function
	// inside another.
	ErrNestedFunction = errors.New("nested functions are not supported")
)
