package graph

import (
	"math/rand"

	"github.com/vk/nngarden/internal/eval"
)

// Forward evaluates the graph on one data sample.
func (e *Engine) Forward(features []float64) error {
	return eval.Forward(e.st.arena, features)
}

// ZeroGradients clears every gradient.
func (e *Engine) ZeroGradients() {
	eval.ZeroGradients(e.st.arena)
}

// Backward propagates gradients from the gradient root. Forward must have
// run on the same sample. Without a root it does nothing.
func (e *Engine) Backward(features []float64) error {
	if e.st.root.IsNil() {
		return nil
	}
	return eval.Backward(e.st.arena, e.st.root, features)
}

// Step runs one training iteration on a sample: forward, zero, backward and
// an SGD update of every parameter.
func (e *Engine) Step(features []float64, learningRate float64) error {
	if err := e.Forward(features); err != nil {
		return err
	}
	e.ZeroGradients()
	if err := e.Backward(features); err != nil {
		return err
	}
	eval.StepParameters(e.st.arena, learningRate)
	return nil
}

// StepParameters applies an SGD update with the current gradients.
func (e *Engine) StepParameters(learningRate float64) {
	eval.StepParameters(e.st.arena, learningRate)
}

// RandomizeParameters draws fresh parameter values from rng.
func (e *Engine) RandomizeParameters(rng *rand.Rand) {
	eval.RandomizeParameters(e.st.arena, rng)
	e.logger.Debug("Parameters randomized.")
}
