// Package document defines the structural document used to save graphs,
// move selections through the clipboard and store function templates.
//
// A document describes a set of nodes with dense local indices. Wires from
// producers outside the set are replaced by placeholder ids and listed in
// UnmatchedInputs; wires from the set to outside consumers are listed in
// UnmatchedOutputs. Export builds a document from a live graph and Validate
// checks one before anything is imported from it.
//
// Documents are written as indented JSON, or as YAML when the target path
// ends in .yaml or .yml.
package document
