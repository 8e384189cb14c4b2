// Package layer provides the units of one layer and the weights between two
// consecutive layers.
package layer

import (
	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/perceptron/internal/activations"
)

// BiasOutput is the constant output of every bias node.
const BiasOutput = 1.0

// Node is a read-only view of one unit.
type Node struct {
	Index    int
	Output   float64
	Gradient float64
	Bias     bool
}

// Layer is an ordered set of units sharing one activation. When HasBias is
// set the layer also owns a bias node at position Width(); it is never
// stored in the output or gradient vectors.
type Layer struct {
	act       activations.Kind
	hasBias   bool
	outputs   *mat.VecDense
	gradients *mat.VecDense
}

// New creates a layer of width real units.
func New(width int, act activations.Kind, hasBias bool) *Layer {
	return &Layer{
		act:       act,
		hasBias:   hasBias,
		outputs:   mat.NewVecDense(width, nil),
		gradients: mat.NewVecDense(width, nil),
	}
}

// Width returns the number of real (non-bias) units.
func (l *Layer) Width() int {
	return l.outputs.Len()
}

// HasBias reports whether the layer carries a bias node.
func (l *Layer) HasBias() bool {
	return l.hasBias
}

// Activation returns the activation of the layer's units.
func (l *Layer) Activation() activations.Kind {
	return l.act
}

// Output returns the output of unit i. Index Width() addresses the bias node.
// It panics if i is out of range.
func (l *Layer) Output(i int) float64 {
	if l.hasBias && i == l.Width() {
		return BiasOutput
	}
	return l.outputs.AtVec(i)
}

// SetOutput overwrites the output of real unit i.
func (l *Layer) SetOutput(i int, v float64) {
	l.outputs.SetVec(i, v)
}

// SetOutputs copies x into the unit outputs. len(x) must equal Width().
func (l *Layer) SetOutputs(x []float64) {
	for i, v := range x {
		l.outputs.SetVec(i, v)
	}
}

// Outputs returns a copy of the real unit outputs.
func (l *Layer) Outputs() []float64 {
	out := make([]float64, l.Width())
	copy(out, l.outputs.RawVector().Data)
	return out
}

// Gradient returns the gradient of real unit i.
func (l *Layer) Gradient(i int) float64 {
	return l.gradients.AtVec(i)
}

// SetOutputGradients computes (target - output) * f'(output) for every unit.
func (l *Layer) SetOutputGradients(target []float64) {
	for i, t := range target {
		o := l.outputs.AtVec(i)
		l.gradients.SetVec(i, (t-o)*l.act.Derivative(o))
	}
}

// Node returns a view of unit i, the bias node included. It panics if i is
// out of range; Network.Node checks its indices.
func (l *Layer) Node(i int) Node {
	if l.hasBias && i == l.Width() {
		return Node{Index: i, Output: BiasOutput, Bias: true}
	}
	return Node{
		Index:    i,
		Output:   l.outputs.AtVec(i),
		Gradient: l.gradients.AtVec(i),
	}
}

// Nodes returns views of every unit, the bias node last.
func (l *Layer) Nodes() []Node {
	n := l.Width()
	if l.hasBias {
		n++
	}
	nodes := make([]Node, n)
	for i := range nodes {
		nodes[i] = l.Node(i)
	}
	return nodes
}

// OutputVec exposes the output vector without copying.
func (l *Layer) OutputVec() mat.Vector {
	return l.outputs
}

// GradientVec exposes the gradient vector without copying.
func (l *Layer) GradientVec() mat.Vector {
	return l.gradients
}
