package plot

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loss.png")
	epochs := []float64{1, 2, 3, 4}
	losses := []float64{0.9, 0.6, 0.4, 0.35}

	require.NoError(t, Save(path, epochs, losses, Series{Name: "accuracy", Values: []float64{0.5, 0.75, 1, 1}}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ".png", []float64{1}, []float64{0.5}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	buf.Reset()
	require.NoError(t, Write(&buf, "svg", []float64{1, 2}, []float64{0.5, 0.4}))
	assert.Contains(t, buf.String(), "<svg")
}

func TestLossCurveErrors(t *testing.T) {
	_, err := LossCurve(nil, nil)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = LossCurve([]float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, ErrNoData)

	_, err = LossCurve([]float64{1}, []float64{math.NaN()})
	assert.Error(t, err)

	_, err = LossCurve([]float64{1}, []float64{1}, Series{Name: "short"})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "png", Format("out/loss.PNG"))
	assert.Equal(t, "svg", Format("curve.svg"))
	assert.Equal(t, "", Format("noext"))
}
