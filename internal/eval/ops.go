package eval

import (
	"math"

	"github.com/vk/nngarden/internal/node"
)

// value computes the output of a derived operation from its input values.
// ok is false for kinds that keep their own stored value.
func value(op node.Operation, in []float64) (out float64, ok bool) {
	switch op {
	case node.Add:
		return in[0] + in[1], true
	case node.Subtract:
		return in[0] - in[1], true
	case node.Multiply:
		return in[0] * in[1], true
	case node.Divide:
		return in[0] / in[1], true
	case node.Power:
		return math.Pow(in[0], in[1]), true
	case node.Tanh:
		return math.Tanh(in[0]), true
	case node.Sin:
		return math.Sin(in[0]), true
	case node.Cos:
		return math.Cos(in[0]), true
	case node.Sqrt:
		return math.Sqrt(in[0]), true
	case node.Result:
		return in[0], true
	case node.FunctionOutput:
		var sum float64
		for _, x := range in {
			sum += x
		}
		return sum, true
	default:
		return 0, false
	}
}

// partials returns d(out)/d(in[i]) scaled by the upstream gradient g. out is
// the node's own forward value.
func partials(op node.Operation, in []float64, out, g float64) []float64 {
	switch op {
	case node.Add:
		return []float64{g, g}
	case node.Subtract:
		return []float64{g, -g}
	case node.Multiply:
		return []float64{g * in[1], g * in[0]}
	case node.Divide:
		a, b := in[0], in[1]
		return []float64{g / b, -g * a / (b * b)}
	case node.Power:
		a, b := in[0], in[1]
		db := 0.0
		if a > 0 {
			db = g * math.Pow(a, b) * math.Log(a)
		}
		return []float64{g * b * math.Pow(a, b-1), db}
	case node.Tanh:
		return []float64{g * (1 - out*out)}
	case node.Sin:
		return []float64{g * math.Cos(in[0])}
	case node.Cos:
		return []float64{-g * math.Sin(in[0])}
	case node.Sqrt:
		return []float64{g / (2 * math.Sqrt(in[0]))}
	case node.Result:
		return []float64{g}
	case node.FunctionOutput:
		out := make([]float64, len(in))
		for i := range out {
			out[i] = g
		}
		return out
	default:
		return nil
	}
}
