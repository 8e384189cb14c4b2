// Package plot renders training curves.
package plot

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	Width  = 6 * vg.Inch
	Height = 4 * vg.Inch
)

// ErrNoData reports an empty or inconsistent series.
var ErrNoData = errors.New("plot: no data")

// Series is one named curve.
type Series struct {
	Name   string
	Values []float64
}

// LossCurve builds a loss-vs-epoch chart. Extra series (accuracy, for
// example) share the x axis.
func LossCurve(epochs, losses []float64, extra ...Series) (*plot.Plot, error) {
	if len(epochs) == 0 || len(epochs) != len(losses) {
		return nil, fmt.Errorf("%w: %d epochs, %d losses", ErrNoData, len(epochs), len(losses))
	}
	if floats.HasNaN(losses) {
		return nil, errors.New("plot: loss series contains NaN")
	}

	p := plot.New()
	p.Title.Text = "Training loss"
	p.X.Label.Text = "Epoch"
	p.Y.Label.Text = "Loss"
	p.Y.Min = 0
	p.Add(plotter.NewGrid())

	series := append([]Series{{Name: "loss", Values: losses}}, extra...)
	for i, s := range series {
		if len(s.Values) != len(epochs) {
			return nil, fmt.Errorf("%w: series %q has %d points, want %d", ErrNoData, s.Name, len(s.Values), len(epochs))
		}
		pts := make(plotter.XYs, len(epochs))
		for j := range epochs {
			pts[j].X = epochs[j]
			pts[j].Y = s.Values[j]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("plot: %s: %w", s.Name, err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = palette[i%len(palette)]
		if i > 0 {
			line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		}
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}
	p.Legend.Top = true
	return p, nil
}

var palette = []color.Color{
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
}

// Save writes the loss chart to filename. The image format follows the
// extension (png, svg, pdf, ...).
func Save(filename string, epochs, losses []float64, extra ...Series) error {
	p, err := LossCurve(epochs, losses, extra...)
	if err != nil {
		return err
	}
	if err := p.Save(Width, Height, filename); err != nil {
		return fmt.Errorf("plot: save %s: %w", filename, err)
	}
	return nil
}

// Write renders the loss chart to w in the given format.
func Write(w io.Writer, format string, epochs, losses []float64, extra ...Series) error {
	p, err := LossCurve(epochs, losses, extra...)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(Width, Height, strings.TrimPrefix(format, "."))
	if err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// Format returns the image format implied by filename.
func Format(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
