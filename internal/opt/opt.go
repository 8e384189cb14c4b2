// Package opt provides the weight update rule.
package opt

import "gonum.org/v1/gonum/mat"

// Momentum is the fraction of the previous update reapplied on every step.
const Momentum = 0.3

// SGD is fixed-rate gradient descent with momentum.
type SGD struct {
	LearningRate float64
	Momentum     float64
}

// NewSGD returns an SGD with the package momentum constant.
func NewSGD(learningRate float64) SGD {
	return SGD{LearningRate: learningRate, Momentum: Momentum}
}

// StepInPlace applies delta = lr*direction + momentum*delta, then
// params += delta. direction already points downhill. All three matrices must
// share a shape.
func (s SGD) StepInPlace(params, delta *mat.Dense, direction mat.Matrix) {
	delta.Scale(s.Momentum, delta)
	var scaled mat.Dense
	scaled.Scale(s.LearningRate, direction)
	delta.Add(delta, &scaled)
	params.Add(params, delta)
}

// StepVecInPlace is StepInPlace for vectors.
func (s SGD) StepVecInPlace(params, delta *mat.VecDense, direction mat.Vector) {
	delta.ScaleVec(s.Momentum, delta)
	delta.AddScaledVec(delta, s.LearningRate, direction)
	params.AddVec(params, delta)
}
