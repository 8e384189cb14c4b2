// Package opt provides benchmarks for optimizers.
package opt

import (
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// randomDense returns an r×c matrix of values in [0, 1).
func randomDense(r, c int, src *rand.Rand) *mat.Dense {
	data := make([]float64, r*c)
	for i := range data {
		data[i] = src.Float64()
	}
	return mat.NewDense(r, c, data)
}

// BenchmarkSGDStepInPlace benchmarks a 100×100 momentum update.
func BenchmarkSGDStepInPlace(b *testing.B) {
	r := rand.New(rand.NewPCG(1, 2))
	sgd := NewSGD(0.01)
	params := randomDense(100, 100, r)
	direction := randomDense(100, 100, r)
	delta := mat.NewDense(100, 100, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sgd.StepInPlace(params, delta, direction)
	}
}

// BenchmarkSGDStepVecInPlace benchmarks a bias-vector update.
func BenchmarkSGDStepVecInPlace(b *testing.B) {
	r := rand.New(rand.NewPCG(1, 2))
	sgd := NewSGD(0.01)
	params := mat.NewVecDense(1000, nil)
	direction := mat.NewVecDense(1000, nil)
	for i := 0; i < 1000; i++ {
		direction.SetVec(i, r.Float64())
	}
	delta := mat.NewVecDense(1000, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sgd.StepVecInPlace(params, delta, direction)
	}
}
