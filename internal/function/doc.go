// Package function holds the two pieces of state behind subgraph
// abstraction: the Registry of function templates that can be instantiated,
// and the Table of boundary data for every Function node in the graph.
package function
