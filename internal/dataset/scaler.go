package dataset

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// RobustScaler maps every feature to (x - median) / IQR.
type RobustScaler struct {
	Median []float64 `yaml:"median"`
	IQR    []float64 `yaml:"iqr"`
}

// FitRobust computes per-column statistics over the rows of d that have
// exactly width features. Rows of another width and NaN or infinite cells do
// not contribute. A column with no contributing values gets median 0 and
// IQR 1.
func FitRobust(d *Dataset, width int) RobustScaler {
	if width < 0 {
		width = 0
	}
	s := RobustScaler{
		Median: make([]float64, width),
		IQR:    make([]float64, width),
	}

	col := make([]float64, 0, d.Len())
	for j := 0; j < width; j++ {
		col = col[:0]
		for _, row := range d.Features {
			if len(row) == width && !math.IsNaN(row[j]) && !math.IsInf(row[j], 0) {
				col = append(col, row[j])
			}
		}
		if len(col) == 0 {
			s.IQR[j] = 1
			continue
		}
		sort.Float64s(col)
		s.Median[j] = median(col)
		s.IQR[j] = iqr(col)
	}
	return s
}

// median of a sorted, non-empty slice; even lengths average the middle pair.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 != 0 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// iqr of a sorted, non-empty slice, taking the quartiles at the floor
// indices n/4 and 3n/4.
func iqr(sorted []float64) float64 {
	n := len(sorted)
	return sorted[3*n/4] - sorted[n/4]
}

// Width returns the number of fitted columns.
func (s RobustScaler) Width() int {
	return len(s.Median)
}

// Transform returns a scaled copy of d. A column with zero IQR is centred
// but not divided. Rows of another width are copied unchanged.
func (s RobustScaler) Transform(d *Dataset) *Dataset {
	out := d.Clone()
	for _, row := range out.Features {
		s.TransformRow(row)
	}
	return out
}

// TransformRow scales row in place if its width matches.
func (s RobustScaler) TransformRow(row []float64) {
	if len(row) != s.Width() {
		return
	}
	for j := range row {
		row[j] -= s.Median[j]
		if s.IQR[j] != 0 {
			row[j] /= s.IQR[j]
		}
	}
}

// Save writes the scaler as YAML.
func (s RobustScaler) Save(filename string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode scaler: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write scaler: %w", err)
	}
	return nil
}

// LoadScaler reads a scaler written by Save.
func LoadScaler(filename string) (RobustScaler, error) {
	var s RobustScaler
	data, err := os.ReadFile(filename)
	if err != nil {
		return s, fmt.Errorf("failed to read scaler: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to decode scaler: %w", err)
	}
	if len(s.Median) != len(s.IQR) {
		return s, fmt.Errorf("scaler has %d medians and %d IQRs", len(s.Median), len(s.IQR))
	}
	return s, nil
}
