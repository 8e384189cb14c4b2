package dataset

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultNoiseStd is the standard deviation of feature noise.
const DefaultNoiseStd = 0.1

// AddNoise returns a copy of d with N(0, std) noise added to every feature.
// Labels are never perturbed.
func AddNoise(d *Dataset, std float64, src rand.Source) *Dataset {
	noisy := d.Clone()
	if std == 0 {
		return noisy
	}
	normal := distuv.Normal{Mu: 0, Sigma: std, Src: src}
	for _, row := range noisy.Features {
		for j := range row {
			row[j] += normal.Rand()
		}
	}
	return noisy
}
