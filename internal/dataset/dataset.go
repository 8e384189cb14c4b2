// Package dataset loads labelled CSV tables and prepares them for training.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrEmpty reports a table without data rows.
	ErrEmpty = errors.New("dataset has no data rows")

	// ErrNonFinite reports a NaN or infinite cell.
	ErrNonFinite = errors.New("value is not finite")
)

// Dataset is a table of feature rows with one binary label per row. Rows
// normally share one width; a row of another width is kept as-is so the
// trainer can decide whether to skip it.
type Dataset struct {
	Features [][]float64
	Labels   []float64
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Labels)
}

// Width returns the feature count of the first row.
func (d *Dataset) Width() int {
	if len(d.Features) == 0 {
		return 0
	}
	return len(d.Features[0])
}

// Target returns the single-element target vector for row i.
func (d *Dataset) Target(i int) []float64 {
	return []float64{d.Labels[i]}
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	c := &Dataset{
		Features: make([][]float64, len(d.Features)),
		Labels:   append([]float64(nil), d.Labels...),
	}
	for i, row := range d.Features {
		c.Features[i] = append([]float64(nil), row...)
	}
	return c
}

// LoadCSV loads a table from a CSV file. The last column of every row is the
// label, which must be 0 or 1. hasHeader skips the first line.
func LoadCSV(filename string, hasHeader bool) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file, hasHeader)
}

// ReadCSV reads a table from r; see LoadCSV.
func ReadCSV(r io.Reader, hasHeader bool) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	startRow := 0
	if hasHeader {
		startRow = 1
	}
	if len(records) <= startRow {
		return nil, ErrEmpty
	}

	d := &Dataset{
		Features: make([][]float64, 0, len(records)-startRow),
		Labels:   make([]float64, 0, len(records)-startRow),
	}
	for i := startRow; i < len(records); i++ {
		record := records[i]
		row := make([]float64, len(record))
		for j, valStr := range record {
			val, err := strconv.ParseFloat(strings.TrimSpace(valStr), 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse value at row %d, col %d: %w", i+1, j+1, err)
			}
			if math.IsNaN(val) || math.IsInf(val, 0) {
				return nil, fmt.Errorf("row %d, col %d: %w: %q", i+1, j+1, ErrNonFinite, valStr)
			}
			row[j] = val
		}

		label := row[len(row)-1]
		if label != 0 && label != 1 {
			return nil, fmt.Errorf("row %d: label must be 0 or 1, got %v", i+1, label)
		}
		d.Features = append(d.Features, row[:len(row)-1])
		d.Labels = append(d.Labels, label)
	}
	return d, nil
}

// WriteCSV writes features and label of every row, label last, without a
// header.
func WriteCSV(filename string, d *Dataset) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Write(file, d); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Write writes d to w in WriteCSV's format.
func Write(w io.Writer, d *Dataset) error {
	writer := csv.NewWriter(w)
	for i, row := range d.Features {
		record := make([]string, 0, len(row)+1)
		for _, v := range row {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		record = append(record, strconv.FormatFloat(d.Labels[i], 'g', -1, 64))
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
