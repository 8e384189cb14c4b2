package main

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePredictions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "predictions.csv")

	err := writePredictions(path, []float64{0.9, 0.2, math.NaN()}, []float64{1, 0, 1})
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "row,probability,predicted,label\n"+
		"0,0.9,1,1\n"+
		"1,0.2,0,0\n"+
		"2,NaN,,1\n", string(got))
}

func TestWritePredictionsCreateError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "predictions.csv")

	err := writePredictions(path, []float64{0.5}, []float64{1})
	assert.Error(t, err)
	assert.NoFileExists(t, path)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteRowsError(t *testing.T) {
	err := writeRows(failingWriter{}, []float64{0.5}, []float64{1})
	assert.EqualError(t, err, "disk full")
}
