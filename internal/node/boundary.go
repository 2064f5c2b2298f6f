package node

// Boundary records how a Function node's members connect to the rest of the
// graph. Pin k of a list is its position in that list.
//
// Inputs holds one entry per member input socket fed from outside the group:
// End is the member socket, Start the outside producer (Nil when unknown).
// Outputs holds one entry per outside consumer of a member: Start is the
// member and its real output slot, End the outside consumer (Nil when
// unknown).
type Boundary struct {
	FunctionID int          `json:"function_id" msgpack:"function_id"`
	Inputs     []Connection `json:"inputs" msgpack:"inputs"`
	Outputs    []Connection `json:"outputs" msgpack:"outputs"`
}

// Pins is the number of pins the Function node exposes.
func (b *Boundary) Pins() int {
	return len(b.Inputs) + len(b.Outputs)
}

// Clone returns a deep copy.
func (b Boundary) Clone() Boundary {
	b.Inputs = append([]Connection(nil), b.Inputs...)
	b.Outputs = append([]Connection(nil), b.Outputs...)
	return b
}
