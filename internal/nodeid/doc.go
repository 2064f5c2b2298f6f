// internal/nodeid/doc.go

/*
Package nodeid provides the handle type used to address nodes stored in the
graph arena.

An Index is a slot number paired with the generation the slot had when the
node was allocated. Its canonical text form is `<slot>#<gen>`, e.g. `12#3`.
The zero Index is the Nil sentinel; generation 0 is never handed out, so a
Nil index can never alias a live node.

This package centralizes formatting and parsing so logs, documents and the
CLI all agree on one representation.
*/
package nodeid
