package node

import "fmt"

// Operation is the tagged kind of a node.
type Operation uint8

const (
	Parameter Operation = iota
	Constant
	Add
	Subtract
	Multiply
	Divide
	Power
	Tanh
	Sin
	Cos
	Sqrt
	Result
	DataSource
	Function
	FunctionInput
	FunctionOutput

	operationCount
)

var operationNames = [operationCount]string{
	Parameter:      "parameter",
	Constant:       "constant",
	Add:            "add",
	Subtract:       "sub",
	Multiply:       "mul",
	Divide:         "div",
	Power:          "pow",
	Tanh:           "tanh",
	Sin:            "sin",
	Cos:            "cos",
	Sqrt:           "sqrt",
	Result:         "result",
	DataSource:     "data",
	Function:       "function",
	FunctionInput:  "function_input",
	FunctionOutput: "function_output",
}

// Operations lists every valid kind in declaration order.
func Operations() []Operation {
	ops := make([]Operation, 0, operationCount)
	for op := Operation(0); op < operationCount; op++ {
		ops = append(ops, op)
	}
	return ops
}

// Valid reports whether op is a declared kind.
func (op Operation) Valid() bool {
	return op < operationCount
}

func (op Operation) String() string {
	if !op.Valid() {
		return fmt.Sprintf("operation(%d)", uint8(op))
	}
	return operationNames[op]
}

// ParseOperation maps a text name back to its kind.
func ParseOperation(name string) (Operation, error) {
	for op, n := range operationNames {
		if n == name {
			return Operation(op), nil
		}
	}
	return 0, fmt.Errorf("unknown operation %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (op Operation) MarshalText() ([]byte, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", op.String())
	}
	return []byte(op.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (op *Operation) UnmarshalText(text []byte) error {
	parsed, err := ParseOperation(string(text))
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}

// Arity is the number of input slots the kind requires. Variadic kinds
// report 0; their requirement comes from Value.VariableConnections.
func (op Operation) Arity() int {
	switch op {
	case Add, Subtract, Multiply, Divide, Power:
		return 2
	case Tanh, Sin, Cos, Sqrt, Result:
		return 1
	default:
		return 0
	}
}

// Variadic reports whether the kind sizes its slots per node.
func (op Operation) Variadic() bool {
	return op == FunctionInput || op == FunctionOutput
}

// Binary reports whether the kind combines two inputs.
func (op Operation) Binary() bool {
	return op.Arity() == 2
}

// Unary reports whether the kind applies a function to one input.
func (op Operation) Unary() bool {
	switch op {
	case Tanh, Sin, Cos, Sqrt:
		return true
	}
	return false
}

// RequiredInputs is the number of leading input slots that must be
// connected before v can be evaluated.
func (v *Value) RequiredInputs() int {
	if v.Operation == FunctionOutput {
		return v.VariableConnections
	}
	return v.Operation.Arity()
}
