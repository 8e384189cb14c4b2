// Package net provides the feedforward network and its training passes.
package net

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/FlavioCFOliveira/perceptron/internal/activations"
	"github.com/FlavioCFOliveira/perceptron/internal/layer"
	"github.com/FlavioCFOliveira/perceptron/internal/loss"
	"github.com/FlavioCFOliveira/perceptron/internal/opt"
)

// State tracks where the network is in the forward/backward cycle.
type State uint8

const (
	// Uncomputed means no forward pass has run since construction or load.
	Uncomputed State = iota
	// ForwardDone means outputs reflect the most recent input.
	ForwardDone
	// GradientsDone means gradients are computed but weights are unchanged.
	GradientsDone
	// BackwardDone means the weights have been updated.
	BackwardDone
)

func (s State) String() string {
	switch s {
	case Uncomputed:
		return "uncomputed"
	case ForwardDone:
		return "forward-done"
	case GradientsDone:
		return "gradients-done"
	case BackwardDone:
		return "backward-done"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Option configures a Network.
type Option func(*options)

type options struct {
	src       rand.Source
	trainBias bool
}

// WithSeed draws the initial weights from a PCG source seeded with seed.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.src = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	}
}

// WithSource draws the initial weights from src.
func WithSource(src rand.Source) Option {
	return func(o *options) {
		o.src = src
	}
}

// WithTrainBias lets bias weights learn. By default they keep their initial
// values, since the update pass only walks real predecessor units.
func WithTrainBias(train bool) Option {
	return func(o *options) {
		o.trainBias = train
	}
}

// Network is a fully connected feedforward network. Hidden units use ReLU and
// output units use sigmoid. Every layer except the output layer carries a
// bias node.
type Network struct {
	topology  []int
	layers    []*layer.Layer
	weights   []*layer.Weights
	sgd       opt.SGD
	loss      loss.Loss
	trainBias bool
	state     State
}

// New creates a network with the given layer widths (input first, output
// last) and learning rate. Weights are drawn uniformly from [0, 1).
func New(topology []int, learningRate float64, opts ...Option) (*Network, error) {
	if err := validate(topology, learningRate); err != nil {
		return nil, err
	}

	o := options{}
	for _, apply := range opts {
		apply(&o)
	}
	uniform := distuv.Uniform{Min: 0, Max: 1, Src: o.src}

	last := len(topology) - 1
	n := &Network{
		topology:  append([]int(nil), topology...),
		layers:    make([]*layer.Layer, len(topology)),
		weights:   make([]*layer.Weights, last),
		sgd:       opt.NewSGD(learningRate),
		loss:      loss.BCELoss{},
		trainBias: o.trainBias,
	}
	for i, width := range topology {
		act := activations.ReLU
		if i == last {
			act = activations.Sigmoid
		}
		n.layers[i] = layer.New(width, act, i != last)
		if i < last {
			n.weights[i] = layer.NewWeights(width, topology[i+1], uniform.Rand)
		}
	}
	return n, nil
}

func validate(topology []int, learningRate float64) error {
	if len(topology) < 2 {
		return fmt.Errorf("%w: topology needs at least 2 layers, got %d", ErrConfig, len(topology))
	}
	for i, w := range topology {
		if w <= 0 {
			return fmt.Errorf("%w: layer %d width must be > 0, got %d", ErrConfig, i, w)
		}
	}
	if !(learningRate > 0) || math.IsInf(learningRate, 0) {
		return fmt.Errorf("%w: learning rate must be a positive number, got %v", ErrConfig, learningRate)
	}
	return nil
}

// Forward propagates input through every layer. It fails with
// ErrPrecondition, touching nothing, if len(input) differs from the input
// layer width or any value is NaN or infinite.
func (n *Network) Forward(input []float64) error {
	if want := n.InputSize(); len(input) != want {
		return fmt.Errorf("%w: input has %d features, input layer expects %d", ErrPrecondition, len(input), want)
	}
	if i := nonFinite(input); i >= 0 {
		return fmt.Errorf("%w: input feature %d is %v", ErrPrecondition, i, input[i])
	}

	n.layers[0].SetOutputs(input)
	for i, ws := range n.weights {
		ws.Forward(n.layers[i], n.layers[i+1])
	}
	n.state = ForwardDone
	return nil
}

// Predict returns the outputs of the most recent forward pass.
func (n *Network) Predict() ([]float64, error) {
	if n.state == Uncomputed {
		return nil, fmt.Errorf("%w: predict before forward", ErrSequence)
	}
	return n.output().Outputs(), nil
}

// Backward computes gradients for target and then updates every weight. It
// returns the binary cross-entropy of the current outputs against target.
func (n *Network) Backward(target []float64) (float64, error) {
	l, err := n.ComputeGradients(target)
	if err != nil {
		return 0, err
	}
	if err := n.ApplyUpdates(); err != nil {
		return 0, err
	}
	return l, nil
}

// ComputeGradients computes the loss and every unit gradient for target
// without changing any weight. All gradients are computed before any update
// because hidden gradients read the weights the update pass mutates.
func (n *Network) ComputeGradients(target []float64) (float64, error) {
	if n.state != ForwardDone {
		return 0, fmt.Errorf("%w: backward requires a fresh forward pass (state %s)", ErrSequence, n.state)
	}
	if want := n.OutputSize(); len(target) != want {
		return 0, fmt.Errorf("%w: target has %d values, output layer has %d units", ErrPrecondition, len(target), want)
	}
	if i := nonFinite(target); i >= 0 {
		return 0, fmt.Errorf("%w: target value %d is %v", ErrPrecondition, i, target[i])
	}

	out := n.output()
	l := n.loss.Forward(out.Outputs(), target)

	out.SetOutputGradients(target)
	for i := len(n.layers) - 2; i > 0; i-- {
		n.weights[i].Backprop(n.layers[i], n.layers[i+1])
	}
	n.state = GradientsDone
	return l, nil
}

// ApplyUpdates applies one momentum step to every weight, last layer first,
// using the gradients from ComputeGradients.
func (n *Network) ApplyUpdates() error {
	if n.state != GradientsDone {
		return fmt.Errorf("%w: update requires computed gradients (state %s)", ErrSequence, n.state)
	}
	for i := len(n.layers) - 1; i > 0; i-- {
		n.weights[i-1].Update(n.layers[i-1], n.layers[i], n.sgd, n.trainBias)
	}
	n.state = BackwardDone
	return nil
}

// Gradients returns, per layer boundary, the outer product of the
// predecessor outputs and successor gradients: the direction each weight
// moves before learning rate and momentum.
func (n *Network) Gradients() ([]*mat.Dense, error) {
	if n.state != GradientsDone && n.state != BackwardDone {
		return nil, fmt.Errorf("%w: gradients not computed (state %s)", ErrSequence, n.state)
	}
	dirs := make([]*mat.Dense, len(n.weights))
	for i, ws := range n.weights {
		dirs[i] = ws.Direction(n.layers[i], n.layers[i+1])
	}
	return dirs, nil
}

// Params returns every weight, layer-major, then source unit (bias last),
// then destination unit.
func (n *Network) Params() []float64 {
	params := make([]float64, 0, n.ParamCount())
	for _, ws := range n.weights {
		params = append(params, ws.Params()...)
	}
	return params
}

// SetParams loads weights in Params order, clears momentum and resets the
// state to Uncomputed.
func (n *Network) SetParams(params []float64) error {
	if len(params) != n.ParamCount() {
		return fmt.Errorf("%w: got %d weights, network has %d", ErrFormat, len(params), n.ParamCount())
	}
	offset := 0
	for _, ws := range n.weights {
		ws.SetParams(params[offset : offset+ws.Len()])
		offset += ws.Len()
	}
	n.state = Uncomputed
	return nil
}

// ParamCount returns the number of weights, bias weights included.
func (n *Network) ParamCount() int {
	total := 0
	for _, ws := range n.weights {
		total += ws.Len()
	}
	return total
}

// Edge returns the connection from unit src of layer i to unit dst of layer
// i+1. src equal to the width of layer i addresses its bias node. Indices
// outside the network fail with ErrPrecondition.
func (n *Network) Edge(i, src, dst int) (layer.Edge, error) {
	if i < 0 || i >= len(n.weights) {
		return layer.Edge{}, fmt.Errorf("%w: no edges leave layer %d", ErrPrecondition, i)
	}
	ws := n.weights[i]
	if src < 0 || src > ws.In() || dst < 0 || dst >= ws.Out() {
		return layer.Edge{}, fmt.Errorf("%w: no edge %d->%d between layers %d and %d", ErrPrecondition, src, dst, i, i+1)
	}
	return ws.Edge(src, dst), nil
}

// Node returns unit j of layer i. j equal to the layer width addresses its
// bias node, if it has one. Indices outside the network fail with
// ErrPrecondition.
func (n *Network) Node(i, j int) (layer.Node, error) {
	if i < 0 || i >= len(n.layers) {
		return layer.Node{}, fmt.Errorf("%w: no layer %d", ErrPrecondition, i)
	}
	l := n.layers[i]
	last := l.Width() - 1
	if l.HasBias() {
		last++
	}
	if j < 0 || j > last {
		return layer.Node{}, fmt.Errorf("%w: no unit %d in layer %d", ErrPrecondition, j, i)
	}
	return l.Node(j), nil
}

// Topology returns a copy of the layer widths.
func (n *Network) Topology() []int {
	return append([]int(nil), n.topology...)
}

// Layers returns the network's layers.
func (n *Network) Layers() []*layer.Layer {
	return n.layers
}

// Weights returns the weights between consecutive layers.
func (n *Network) Weights() []*layer.Weights {
	return n.weights
}

// State returns the current position in the forward/backward cycle.
func (n *Network) State() State {
	return n.state
}

// LearningRate returns the configured learning rate.
func (n *Network) LearningRate() float64 {
	return n.sgd.LearningRate
}

// TrainsBias reports whether bias weights are updated.
func (n *Network) TrainsBias() bool {
	return n.trainBias
}

// InputSize returns the width of the input layer.
func (n *Network) InputSize() int {
	return n.topology[0]
}

// OutputSize returns the width of the output layer.
func (n *Network) OutputSize() int {
	return n.topology[len(n.topology)-1]
}

func (n *Network) output() *layer.Layer {
	return n.layers[len(n.layers)-1]
}

// nonFinite returns the index of the first NaN or infinite value, or -1.
func nonFinite(x []float64) int {
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return i
		}
	}
	return -1
}
