// Package net provides unit tests for the network passes.
package net

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
)

func newNet(t *testing.T, topology []int, lr float64, opts ...Option) *Network {
	t.Helper()
	n, err := New(topology, lr, append([]Option{WithSeed(42)}, opts...)...)
	require.NoError(t, err)
	return n
}

// andData is linearly separable: only (1,1) is positive.
var (
	andX = [][]float64{{1, 1}, {0, 0}, {1, 0}, {0, 1}}
	andY = [][]float64{{1}, {0}, {0}, {0}}
)

// trainEpoch runs one online pass and returns the average loss.
func trainEpoch(t *testing.T, n *Network, xs, ys [][]float64) float64 {
	t.Helper()
	var total float64
	for i := range xs {
		require.NoError(t, n.Forward(xs[i]))
		l, err := n.Backward(ys[i])
		require.NoError(t, err)
		total += l
	}
	return total / float64(len(xs))
}

// TestNew tests construction and the config error taxonomy.
func TestNew(t *testing.T) {
	n := newNet(t, []int{3, 4, 2, 1}, 0.1)
	assert.Equal(t, []int{3, 4, 2, 1}, n.Topology())
	assert.Equal(t, 3, n.InputSize())
	assert.Equal(t, 1, n.OutputSize())
	assert.Equal(t, Uncomputed, n.State())
	// (3+1)*4 + (4+1)*2 + (2+1)*1
	assert.Equal(t, 29, n.ParamCount())
	assert.Len(t, n.Params(), 29)

	for _, p := range n.Params() {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.Less(t, p, 1.0)
	}

	layers := n.Layers()
	require.Len(t, layers, 4)
	assert.True(t, layers[0].HasBias())
	assert.True(t, layers[2].HasBias())
	assert.False(t, layers[3].HasBias())

	tests := []struct {
		name     string
		topology []int
		lr       float64
	}{
		{"single layer", []int{3}, 0.1},
		{"empty", nil, 0.1},
		{"zero width", []int{2, 0, 1}, 0.1},
		{"negative width", []int{-2, 1}, 0.1},
		{"zero learning rate", []int{2, 1}, 0},
		{"negative learning rate", []int{2, 1}, -0.5},
		{"NaN learning rate", []int{2, 1}, math.NaN()},
		{"infinite learning rate", []int{2, 1}, math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.topology, tt.lr)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
}

// TestForwardPredictRange tests output length and sigmoid range.
func TestForwardPredictRange(t *testing.T) {
	topologies := [][]int{{2, 1}, {3, 5, 1}, {4, 8, 8, 1}, {2, 3, 2}}
	inputs := [][]float64{{0, 0, 0, 0}, {1, -1, 2, -2}, {100, 50, -30, 7}, {-1e3, 1e3, 0, 1}}

	for _, topo := range topologies {
		n := newNet(t, topo, 0.1)
		for _, in := range inputs {
			require.NoError(t, n.Forward(in[:topo[0]]))
			out, err := n.Predict()
			require.NoError(t, err)
			require.Len(t, out, topo[len(topo)-1])
			for _, o := range out {
				assert.GreaterOrEqual(t, o, 0.0)
				assert.LessOrEqual(t, o, 1.0)
			}
		}
	}
}

// TestBiasInvariant tests that bias nodes stay pinned through training.
func TestBiasInvariant(t *testing.T) {
	n := newNet(t, []int{2, 3, 1}, 0.5, WithTrainBias(true))
	for epoch := 0; epoch < 5; epoch++ {
		for i := range andX {
			require.NoError(t, n.Forward(andX[i]))
			for _, l := range n.Layers() {
				if !l.HasBias() {
					continue
				}
				assert.Equal(t, 1.0, l.Output(l.Width()))
				node := l.Node(l.Width())
				assert.True(t, node.Bias)
				assert.Equal(t, 1.0, node.Output)
			}
			_, err := n.Backward(andY[i])
			require.NoError(t, err)
		}
	}
}

// TestDeterminism tests that equal seeds give bit-identical weights.
func TestDeterminism(t *testing.T) {
	a := newNet(t, []int{2, 4, 1}, 0.1)
	b := newNet(t, []int{2, 4, 1}, 0.1)
	require.Equal(t, a.Params(), b.Params())

	for epoch := 0; epoch < 20; epoch++ {
		trainEpoch(t, a, andX, andY)
		trainEpoch(t, b, andX, andY)
	}
	assert.Equal(t, a.Params(), b.Params())

	c, err := New([]int{2, 4, 1}, 0.1, WithSeed(43))
	require.NoError(t, err)
	assert.NotEqual(t, a.Params(), c.Params())
}

// TestPredictIdempotent tests that predict does not change state.
func TestPredictIdempotent(t *testing.T) {
	n := newNet(t, []int{2, 3, 1}, 0.1)
	require.NoError(t, n.Forward([]float64{0.3, 0.7}))

	first, err := n.Predict()
	require.NoError(t, err)
	second, err := n.Predict()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// The result is a copy.
	first[0] = -1
	third, err := n.Predict()
	require.NoError(t, err)
	assert.Equal(t, second, third)
}

// TestSequencing tests the forward/backward state machine.
func TestSequencing(t *testing.T) {
	n := newNet(t, []int{2, 1}, 0.1)

	_, err := n.Predict()
	assert.ErrorIs(t, err, ErrSequence)
	_, err = n.Backward([]float64{1})
	assert.ErrorIs(t, err, ErrSequence)
	assert.ErrorIs(t, n.ApplyUpdates(), ErrSequence)
	_, err = n.Gradients()
	assert.ErrorIs(t, err, ErrSequence)

	require.NoError(t, n.Forward([]float64{1, 0}))
	assert.Equal(t, ForwardDone, n.State())
	assert.ErrorIs(t, n.ApplyUpdates(), ErrSequence)

	_, err = n.ComputeGradients([]float64{1})
	require.NoError(t, err)
	assert.Equal(t, GradientsDone, n.State())
	_, err = n.ComputeGradients([]float64{1})
	assert.ErrorIs(t, err, ErrSequence)

	require.NoError(t, n.ApplyUpdates())
	assert.Equal(t, BackwardDone, n.State())

	// Stale outputs cannot be backpropagated twice.
	_, err = n.Backward([]float64{1})
	assert.ErrorIs(t, err, ErrSequence)

	// Predict still reports the last forward pass.
	_, err = n.Predict()
	assert.NoError(t, err)
}

// TestMismatchedRecord tests that bad vectors fail without side effects.
func TestMismatchedRecord(t *testing.T) {
	n := newNet(t, []int{3, 2, 1}, 0.1)
	before := n.Params()

	err := n.Forward([]float64{1, 2})
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, Uncomputed, n.State())

	err = n.Forward([]float64{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, before, n.Params())

	require.NoError(t, n.Forward([]float64{1, 2, 3}))
	_, err = n.Backward([]float64{1, 0})
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, ForwardDone, n.State())
	assert.Equal(t, before, n.Params())

	assert.False(t, errors.Is(err, ErrSequence))
}

// TestNonFiniteRecord tests that NaN and infinite values are rejected before
// they can reach the weights.
func TestNonFiniteRecord(t *testing.T) {
	n := newNet(t, []int{2, 3, 1}, 0.1)
	before := n.Params()

	for _, in := range [][]float64{{math.NaN(), 1}, {1, math.Inf(1)}, {math.Inf(-1), 0}} {
		err := n.Forward(in)
		assert.ErrorIs(t, err, ErrPrecondition, "input %v", in)
		assert.Equal(t, Uncomputed, n.State())
	}

	require.NoError(t, n.Forward([]float64{1, 1}))
	_, err := n.Backward([]float64{math.NaN()})
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, ForwardDone, n.State())
	assert.Equal(t, before, n.Params())

	_, err = n.Backward([]float64{1})
	require.NoError(t, err)
	for _, p := range n.Params() {
		assert.False(t, math.IsNaN(p))
	}
}

// TestEdgeNodeBounds tests that the per-unit views reject indices outside
// the network.
func TestEdgeNodeBounds(t *testing.T) {
	n := newNet(t, []int{2, 3, 1}, 0.1)

	e, err := n.Edge(1, 3, 0)
	require.NoError(t, err, "bias edge of the hidden layer")
	assert.Equal(t, n.Weights()[1].Bias().AtVec(0), e.Weight)

	node, err := n.Node(0, 2)
	require.NoError(t, err)
	assert.True(t, node.Bias)
	_, err = n.Node(2, 0)
	require.NoError(t, err)

	for _, idx := range [][3]int{{-1, 0, 0}, {2, 0, 0}, {0, 3, 0}, {0, -1, 0}, {0, 0, 3}, {1, 0, 1}} {
		_, err := n.Edge(idx[0], idx[1], idx[2])
		assert.ErrorIs(t, err, ErrPrecondition, "edge %v", idx)
	}
	for _, idx := range [][2]int{{-1, 0}, {3, 0}, {0, 3}, {2, 1}, {1, -1}} {
		_, err := n.Node(idx[0], idx[1])
		assert.ErrorIs(t, err, ErrPrecondition, "node %v", idx)
	}
}

// TestLossDecreases trains a network with no hidden layer on a linearly
// separable set and checks the epoch loss falls.
func TestLossDecreases(t *testing.T) {
	n := newNet(t, []int{2, 1}, 0.1)

	first := trainEpoch(t, n, andX, andY)
	var last float64
	for epoch := 2; epoch <= 500; epoch++ {
		last = trainEpoch(t, n, andX, andY)
	}
	assert.Less(t, last, first)
}

// TestLossDecreasesHidden does the same through a hidden layer with trained
// bias weights, which can fit the set exactly.
func TestLossDecreasesHidden(t *testing.T) {
	n := newNet(t, []int{2, 4, 1}, 0.1, WithTrainBias(true))

	first := trainEpoch(t, n, andX, andY)
	var last float64
	for epoch := 2; epoch <= 500; epoch++ {
		last = trainEpoch(t, n, andX, andY)
	}
	assert.Less(t, last, first)
	assert.False(t, math.IsNaN(last))
}

// TestLossFiniteAtSaturation tests the clamped cross-entropy.
func TestLossFiniteAtSaturation(t *testing.T) {
	n := newNet(t, []int{1, 1}, 0.1)
	require.NoError(t, n.SetParams([]float64{1000, 1000}))
	require.NoError(t, n.Forward([]float64{1000}))

	out, err := n.Predict()
	require.NoError(t, err)
	require.Equal(t, 1.0, out[0])

	l, err := n.Backward([]float64{0})
	require.NoError(t, err)
	assert.False(t, math.IsInf(l, 0))
	assert.False(t, math.IsNaN(l))
	for _, p := range n.Params() {
		assert.False(t, math.IsNaN(p))
	}
}

// squaredError is the objective whose downhill direction the update rule
// follows: 1/2 * sum((t - o)^2).
func squaredError(n *Network, input, target []float64) func([]float64) float64 {
	return func(w []float64) float64 {
		if err := n.SetParams(w); err != nil {
			panic(err)
		}
		if err := n.Forward(input); err != nil {
			panic(err)
		}
		out, _ := n.Predict()
		var e float64
		for i := range target {
			d := target[i] - out[i]
			e += d * d / 2
		}
		return e
	}
}

// analyticGradient returns dE/dw for every weight in Params order.
func analyticGradient(t *testing.T, n *Network, w, input, target []float64) []float64 {
	t.Helper()
	require.NoError(t, n.SetParams(w))
	require.NoError(t, n.Forward(input))
	_, err := n.ComputeGradients(target)
	require.NoError(t, err)
	dirs, err := n.Gradients()
	require.NoError(t, err)

	grad := make([]float64, 0, len(w))
	for k, d := range dirs {
		rows, cols := d.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				grad = append(grad, -d.At(i, j))
			}
		}
		next := n.Layers()[k+1]
		for j := 0; j < cols; j++ {
			grad = append(grad, -next.Gradient(j))
		}
	}
	return grad
}

// TestGradientFiniteDifference checks backpropagated gradients against a
// central finite difference.
func TestGradientFiniteDifference(t *testing.T) {
	tests := []struct {
		name     string
		topology []int
		input    []float64
		target   []float64
	}{
		{"no hidden layer", []int{2, 1}, []float64{0.4, -0.9}, []float64{1}},
		{"no hidden layer negative", []int{2, 1}, []float64{1.5, 0.2}, []float64{0}},
		// Positive inputs and weights keep every ReLU away from its kink.
		{"one hidden layer", []int{2, 3, 1}, []float64{0.3, 0.8}, []float64{0}},
		{"two hidden layers", []int{3, 4, 2, 1}, []float64{0.1, 0.5, 0.2}, []float64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newNet(t, tt.topology, 0.1)
			w := n.Params()

			numeric := fd.Gradient(nil, squaredError(n, tt.input, tt.target), w, &fd.Settings{
				Formula: fd.Central,
				Step:    1e-6,
			})
			analytic := analyticGradient(t, n, w, tt.input, tt.target)

			require.Len(t, analytic, len(numeric))
			for i := range numeric {
				assert.InDelta(t, numeric[i], analytic[i], 1e-4, "weight %d", i)
			}
		})
	}
}

// TestGradientsBeforeUpdates tests that hidden gradients use pre-update
// weights.
func TestGradientsBeforeUpdates(t *testing.T) {
	a := newNet(t, []int{2, 3, 1}, 0.5)
	b := newNet(t, []int{2, 3, 1}, 0.5)
	in, target := []float64{0.2, 0.9}, []float64{0}

	require.NoError(t, a.Forward(in))
	_, err := a.Backward(target)
	require.NoError(t, err)

	// Reference: gradients from untouched weights, then updates.
	require.NoError(t, b.Forward(in))
	_, err = b.ComputeGradients(target)
	require.NoError(t, err)
	dirs, err := b.Gradients()
	require.NoError(t, err)

	want := b.Params()
	offset := 0
	for k, d := range dirs {
		rows, cols := d.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				want[offset+i*cols+j] += 0.5 * d.At(i, j)
			}
		}
		offset += b.Weights()[k].Len()
	}
	assert.InDeltaSlice(t, want, a.Params(), 1e-12)
}
