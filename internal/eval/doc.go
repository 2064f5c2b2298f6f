// Package eval runs the numeric passes over a graph held in an arena:
// forward evaluation, reverse-mode gradient propagation and the parameter
// updates of a training step.
//
// Features are the current data sample. A DataSource node exposes feature k
// on its output slot k.
package eval
