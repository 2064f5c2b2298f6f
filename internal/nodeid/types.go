// internal/nodeid/types.go
package nodeid

// Index identifies a node in the arena. Slot is the storage position and Gen
// the generation of that slot at allocation time; a freed and reallocated
// slot gets a new generation, so stale handles are detectable.
type Index struct {
	Slot uint32
	Gen  uint32
}

// Nil is the absent index.
var Nil = Index{}

// New builds an Index from its parts.
func New(slot, gen uint32) Index {
	return Index{Slot: slot, Gen: gen}
}

// IsNil reports whether the index denotes "no node".
func (i Index) IsNil() bool {
	return i.Gen == 0
}
