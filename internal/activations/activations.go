// Package activations provides the activation functions used by the network.
package activations

import (
	"fmt"
	"math"
)

// Kind identifies an activation function. It is resolved once when a layer
// is built and never compared by name afterwards.
type Kind uint8

const (
	// ReLU is used by every hidden unit.
	ReLU Kind = iota
	// Sigmoid is used by output units.
	Sigmoid
)

// Activation is an activation function with derivative.
type Activation interface {
	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(z) given the activated value y = f(z).
	Derivative(y float64) float64
}

// Rectifier is the rectified-linear activation.
type Rectifier struct{}

// Activate computes max(0, x)
func (Rectifier) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// Derivative returns 1 if y > 0, else 0
func (Rectifier) Derivative(y float64) float64 {
	if y > 0 {
		return 1
	}
	return 0
}

// Logistic is the sigmoid activation.
type Logistic struct{}

// Activate computes 1 / (1 + e^-x)
func (Logistic) Activate(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Derivative computes y * (1 - y). The argument is the already activated
// value, so no second exponential is needed.
func (Logistic) Derivative(y float64) float64 {
	return y * (1 - y)
}

var table = [...]Activation{
	ReLU:    Rectifier{},
	Sigmoid: Logistic{},
}

// For returns the activation bound to k.
func For(k Kind) Activation {
	return table[k]
}

// Valid reports whether k names a known activation.
func (k Kind) Valid() bool {
	return int(k) < len(table)
}

// Activate applies the activation bound to k.
func (k Kind) Activate(x float64) float64 {
	return table[k].Activate(x)
}

// Derivative applies the derivative bound to k to an activated value.
func (k Kind) Derivative(y float64) float64 {
	return table[k].Derivative(y)
}

func (k Kind) String() string {
	switch k {
	case ReLU:
		return "ReLU"
	case Sigmoid:
		return "Sigmoid"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}
