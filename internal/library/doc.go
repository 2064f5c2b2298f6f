// Package library persists function templates across sessions in a bbolt
// database. Templates are keyed by their UUID and stored as msgpack.
//
// A Store is safe for concurrent use; every call runs in its own bbolt
// transaction.
package library
