package perceptron

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacade(t *testing.T) {
	n, err := New([]int{2, 3, 1}, 0.1, WithSeed(5), WithTrainBias(true))
	require.NoError(t, err)
	assert.Equal(t, Uncomputed, n.State())

	require.NoError(t, n.Forward([]float64{0.5, -0.5}))
	assert.Equal(t, ForwardDone, n.State())
	out, err := n.Predict()
	require.NoError(t, err)
	require.Len(t, out, 1)

	_, err = n.Backward([]float64{1})
	require.NoError(t, err)
	assert.Equal(t, BackwardDone, n.State())

	path := filepath.Join(t.TempDir(), "w.bin")
	require.NoError(t, n.Save(path))
	loaded, err := Load(path, 0.1)
	require.NoError(t, err)
	assert.Equal(t, n.Params(), loaded.Params())

	_, err = New([]int{2}, 0.1)
	assert.ErrorIs(t, err, ErrConfig)
	assert.ErrorIs(t, n.Forward([]float64{1}), ErrPrecondition)
	assert.Equal(t, 0.3, Momentum)
	assert.Equal(t, "Sigmoid", Sigmoid.String())
}
