// Package node defines the single graph entity of the engine, the scalar
// Value, along with the operation kinds it can carry and the Socket and
// Connection types that describe wiring between values.
package node
