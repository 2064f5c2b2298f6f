package node

import "github.com/vk/nngarden/internal/nodeid"

// Vec2 is a position in editor grid space.
type Vec2 struct {
	X float64 `json:"x" yaml:"x" msgpack:"x"`
	Y float64 `json:"y" yaml:"y" msgpack:"y"`
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

// Value is a single vertex of the computation graph: an operation kind plus
// its scalar state and its input wiring.
type Value struct {
	// Index is the node's own handle. It is stamped by the arena.
	Index     nodeid.Index `json:"index" msgpack:"index"`
	Operation Operation    `json:"operation" msgpack:"operation"`
	// Inputs holds the producer socket feeding each input slot.
	Inputs [MaxInputs]Socket `json:"inputs" msgpack:"inputs"`

	Value              float64 `json:"value" msgpack:"value"`
	Gradient           float64 `json:"gradient" msgpack:"gradient"`
	GradientCalculated bool    `json:"gradient_calculated" msgpack:"gradient_calculated"`

	Position Vec2   `json:"position" msgpack:"position"`
	Name     string `json:"name,omitempty" msgpack:"name,omitempty"`

	// Parent is the Function node this value is grouped under, or Nil.
	Parent nodeid.Index `json:"parent" msgpack:"parent"`
	// VariableConnections is the active slot count of variadic kinds.
	VariableConnections int `json:"variable_connections,omitempty" msgpack:"variable_connections,omitempty"`
}

// New returns a value of the given kind with its default display name.
func New(op Operation) Value {
	v := Value{Operation: op}
	switch op {
	case Parameter:
		v.Name = "param"
	case Result:
		v.Name = "display"
	}
	return v
}

// NewParameter returns a named parameter holding value.
func NewParameter(name string, value float64) Value {
	v := New(Parameter)
	if name != "" {
		v.Name = name
	}
	v.Value = value
	return v
}

// NewConstant returns a constant holding value.
func NewConstant(value float64) Value {
	v := New(Constant)
	v.Value = value
	return v
}

// HasParent reports whether the value is grouped under a Function node.
func (v *Value) HasParent() bool {
	return !v.Parent.IsNil()
}

// InputSlots is the number of input slots the value exposes.
func (v *Value) InputSlots() int {
	if v.Operation.Variadic() {
		if v.Operation == FunctionOutput {
			return v.VariableConnections
		}
		return 0
	}
	return v.Operation.Arity()
}

// OutputSlots is the number of output slots the value exposes.
func (v *Value) OutputSlots() int {
	switch v.Operation {
	case Result, Function, FunctionOutput:
		return 0
	case DataSource:
		return 3
	case FunctionInput:
		return v.VariableConnections
	default:
		return 1
	}
}

// References reports whether any input of v is fed by idx.
func (v *Value) References(idx nodeid.Index) bool {
	for _, in := range v.Inputs {
		if in.Node == idx {
			return true
		}
	}
	return false
}

// ClearInputs disconnects every input slot.
func (v *Value) ClearInputs() {
	v.Inputs = [MaxInputs]Socket{}
}
