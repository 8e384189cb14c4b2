// Package metrics accumulates per-epoch training statistics.
package metrics

import "time"

// Threshold separates positive from negative predictions.
const Threshold = 0.5

// Epoch accumulates loss and confusion counts across the records of one
// epoch.
type Epoch struct {
	records int
	skipped int
	lossSum float64

	truePos, falsePos, trueNeg, falseNeg int

	start time.Time
}

// NewEpoch starts an accumulator timed from now.
func NewEpoch() *Epoch {
	return &Epoch{start: time.Now()}
}

// Record adds one record's prediction probability, target label and loss.
func (e *Epoch) Record(prediction, target, loss float64) {
	e.records++
	e.lossSum += loss

	predicted := prediction >= Threshold
	actual := target >= Threshold
	switch {
	case predicted && actual:
		e.truePos++
	case predicted && !actual:
		e.falsePos++
	case !predicted && !actual:
		e.trueNeg++
	default:
		e.falseNeg++
	}
}

// Skip counts a record that could not be used.
func (e *Epoch) Skip() {
	e.skipped++
}

// Summary returns the aggregated statistics for epoch index.
func (e *Epoch) Summary(index int) Summary {
	s := Summary{
		Epoch:          index,
		Records:        e.records,
		Skipped:        e.skipped,
		TruePositives:  e.truePos,
		FalsePositives: e.falsePos,
		TrueNegatives:  e.trueNeg,
		FalseNegatives: e.falseNeg,
	}
	if !e.start.IsZero() {
		s.Elapsed = time.Since(e.start)
	}
	if e.records > 0 {
		s.Loss = e.lossSum / float64(e.records)
		s.Accuracy = float64(e.truePos+e.trueNeg) / float64(e.records)
	}
	if e.truePos+e.falsePos > 0 {
		s.Precision = float64(e.truePos) / float64(e.truePos+e.falsePos)
	}
	if e.truePos+e.falseNeg > 0 {
		s.Recall = float64(e.truePos) / float64(e.truePos+e.falseNeg)
	}
	if s.Precision+s.Recall > 0 {
		s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	}
	return s
}

// Summary represents loggable metrics for one epoch.
type Summary struct {
	Epoch   int
	Records int
	Skipped int

	Loss      float64 // average loss per record
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64

	TruePositives, FalsePositives, TrueNegatives, FalseNegatives int

	Elapsed time.Duration
}
