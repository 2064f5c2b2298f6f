// Package dag orders the nodes of a computation graph by their data
// dependencies.
//
// A Graph is a throwaway snapshot: the evaluator and the engine build one
// from the arena whenever they need an ordering, query it, and drop it. It
// answers three questions: which nodes are sinks, in what order a sink's
// ancestors must be evaluated, and whether one node can reach another (used to
// refuse a connection that would close a cycle).
package dag
