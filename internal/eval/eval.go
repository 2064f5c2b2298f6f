package eval

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"strings"

	"github.com/vk/nngarden/internal/arena"
	"github.com/vk/nngarden/internal/dag"
	"github.com/vk/nngarden/internal/errdefs"
	"github.com/vk/nngarden/internal/node"
	"github.com/vk/nngarden/internal/nodeid"
)

// ParameterStdDev is the spread of freshly randomized parameters.
const ParameterStdDev = 0.1

// Forward evaluates every live node. Sinks are processed in ascending index
// order, each preceded by its ancestors; a node shared by several sinks is
// evaluated once.
//
// A node missing a required input gets NaN, as does everything downstream of
// it. Independent nodes are still evaluated, and the returned error wraps
// errdefs.ErrMissingInput and names every node that lacked an input.
func Forward(a *arena.Arena, features []float64) error {
	g, err := dag.Build(a)
	if err != nil {
		return err
	}
	if err := g.DetectCycles(); err != nil {
		return err
	}

	done := make(map[nodeid.Index]bool, a.Len())
	poisoned := make(map[nodeid.Index]bool)
	var missing []string

	for _, sink := range g.Sinks() {
		order, err := g.Ancestors(sink)
		if err != nil {
			return err
		}
		for _, idx := range order {
			if done[idx] {
				continue
			}
			done[idx] = true

			v, err := a.Get(idx)
			if err != nil {
				return err
			}
			in, ok, tainted := inputs(a, v, features, poisoned)
			switch {
			case !ok:
				missing = append(missing, describe(v))
				poisoned[idx] = true
				v.Value = math.NaN()
			case tainted:
				poisoned[idx] = true
				v.Value = math.NaN()
			case v.Operation == node.DataSource:
				if len(features) == 0 {
					missing = append(missing, describe(v))
					poisoned[idx] = true
					v.Value = math.NaN()
					continue
				}
				v.Value = features[0]
			default:
				if out, ok := value(v.Operation, in); ok {
					v.Value = out
				}
			}
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", errdefs.ErrMissingInput, strings.Join(missing, ", "))
	}
	return nil
}

// inputs reads the values feeding v's required slots. ok is false when a
// required input is unconnected, dead or reads a feature that is absent.
// tainted is true when any producer was itself poisoned.
func inputs(a *arena.Arena, v *node.Value, features []float64, poisoned map[nodeid.Index]bool) (in []float64, ok, tainted bool) {
	n := v.RequiredInputs()
	in = make([]float64, n)
	for i := 0; i < n; i++ {
		s := v.Inputs[i]
		x, found := read(a, s, features)
		if !found {
			return nil, false, false
		}
		if poisoned[s.Node] {
			tainted = true
		}
		in[i] = x
	}
	return in, true, tainted
}

func read(a *arena.Arena, s node.Socket, features []float64) (float64, bool) {
	if s.IsNil() {
		return 0, false
	}
	p, err := a.Get(s.Node)
	if err != nil {
		return 0, false
	}
	if p.Operation == node.DataSource {
		if s.Slot < 0 || s.Slot >= len(features) {
			return 0, false
		}
		return features[s.Slot], true
	}
	return p.Value, true
}

func describe(v *node.Value) string {
	if v.Name != "" {
		return fmt.Sprintf("%s %s (%s)", v.Operation, v.Index, v.Name)
	}
	return fmt.Sprintf("%s %s", v.Operation, v.Index)
}

// ZeroGradients clears the gradient state of every live node.
func ZeroGradients(a *arena.Arena) {
	a.Each(func(v *node.Value) bool {
		v.Gradient = 0
		v.GradientCalculated = false
		return true
	})
}

// Backward seeds root with gradient 1 and propagates gradients to all of its
// ancestors in reverse dependency order. Gradients accumulate, so callers
// reset them with ZeroGradients first. Forward must have run with the same
// features.
func Backward(a *arena.Arena, root nodeid.Index, features []float64) error {
	r, err := a.Get(root)
	if err != nil {
		return fmt.Errorf("gradient root: %w", err)
	}

	g, err := dag.Build(a)
	if err != nil {
		return err
	}
	order, err := g.Ancestors(root)
	if err != nil {
		return err
	}

	r.Gradient = 1
	for _, idx := range slices.Backward(order) {
		v, err := a.Get(idx)
		if err != nil {
			return err
		}
		v.GradientCalculated = true

		n := v.RequiredInputs()
		in := make([]float64, n)
		for i := 0; i < n; i++ {
			x, found := read(a, v.Inputs[i], features)
			if !found {
				return fmt.Errorf("%w: %s", errdefs.ErrMissingInput, describe(v))
			}
			in[i] = x
		}

		for i, d := range partials(v.Operation, in, v.Value, v.Gradient) {
			p, err := a.Get(v.Inputs[i].Node)
			if err != nil {
				return err
			}
			p.Gradient += d
		}
	}
	return nil
}

// StepParameters moves every Parameter node against its gradient.
func StepParameters(a *arena.Arena, learningRate float64) {
	a.Each(func(v *node.Value) bool {
		if v.Operation == node.Parameter {
			v.Value -= learningRate * v.Gradient
		}
		return true
	})
}

// RandomizeParameters draws every Parameter value from a normal distribution
// with mean 0 and ParameterStdDev spread.
func RandomizeParameters(a *arena.Arena, rng *rand.Rand) {
	a.Each(func(v *node.Value) bool {
		if v.Operation == node.Parameter {
			v.Value = rng.NormFloat64() * ParameterStdDev
		}
		return true
	})
}
