// Package loss provides the loss reported while training.
package loss

import "math"

// Epsilon keeps predictions away from 0 and 1 before taking logarithms.
const Epsilon = 1e-7

// Loss is a loss function over a prediction and its target.
type Loss interface {
	// Forward computes the loss between predicted and true values.
	Forward(yPred, yTrue []float64) float64
}

// BCELoss (Binary Cross Entropy) loss, summed over output units.
type BCELoss struct{}

// Forward computes -sum(y*log(p) + (1-y)*log(1-p)).
// Callers guarantee equal lengths; extra predictions are ignored.
func (BCELoss) Forward(yPred, yTrue []float64) float64 {
	var sum float64
	for i := range yTrue {
		p := Clamp(yPred[i])
		sum += yTrue[i]*math.Log(p) + (1-yTrue[i])*math.Log(1-p)
	}
	return -sum
}

// Clamp clips p into [Epsilon, 1-Epsilon]. NaN is mapped to 0.5 so a
// diverged unit cannot poison the running loss.
func Clamp(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 0.5
	case p < Epsilon:
		return Epsilon
	case p > 1-Epsilon:
		return 1 - Epsilon
	}
	return p
}
