// Command mlppredict scores a CSV table with weights written by mlptrain.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/FlavioCFOliveira/perceptron/internal/dataset"
	"github.com/FlavioCFOliveira/perceptron/internal/metrics"
	"github.com/FlavioCFOliveira/perceptron/internal/trainer"
	"github.com/FlavioCFOliveira/perceptron/perceptron"
)

func main() {
	weights := flag.String("weights", "model.mlpw", "Weights file written by mlptrain")
	scalerPath := flag.String("scaler", "", "Scaler file (default <weights>.scaler.yaml)")
	data := flag.String("data", "", "CSV table to score; the last column is the label")
	hasHeader := flag.Bool("header", false, "CSV has a header row")
	out := flag.String("out", "", "Write per-row probabilities to this CSV file")
	describe := flag.Bool("describe", false, "Print every weight")

	flag.Parse()

	if *data == "" {
		log.Fatal("-data is required")
	}

	// The learning rate is irrelevant for inference but must be positive.
	n, err := perceptron.Load(*weights, 1)
	if err != nil {
		log.Fatalf("load weights: %v", err)
	}
	n.Summary(os.Stdout)
	if *describe {
		n.Describe(os.Stdout)
	}

	if *scalerPath == "" {
		*scalerPath = *weights + ".scaler.yaml"
	}
	scaler, err := dataset.LoadScaler(*scalerPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("scaler=%s not found, features are used unscaled", *scalerPath)
	case err != nil:
		log.Fatalf("load scaler: %v", err)
	}

	d, err := dataset.LoadCSV(*data, *hasHeader)
	if err != nil {
		log.Fatalf("load dataset: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	probs, s, err := trainer.Evaluate(ctx, n, d, scaler)
	if err != nil {
		log.Fatalf("evaluate: %v", err)
	}

	if *out != "" {
		if err := writePredictions(*out, probs, d.Labels); err != nil {
			log.Fatalf("write predictions: %v", err)
		}
		log.Printf("predictions=%s", *out)
	}

	fmt.Printf("Records: %d (skipped %d)\n", s.Records, s.Skipped)
	fmt.Printf("Loss: %.6f\n", s.Loss)
	fmt.Printf("Accuracy: %.2f%%\n", s.Accuracy*100)
	fmt.Printf("Precision: %.2f%%\n", s.Precision*100)
	fmt.Printf("Recall: %.2f%%\n", s.Recall*100)
	fmt.Printf("F1 Score: %.2f%%\n", s.F1*100)
	fmt.Printf("Confusion: TP=%d FP=%d TN=%d FN=%d\n", s.TruePositives, s.FalsePositives, s.TrueNegatives, s.FalseNegatives)
}

func writePredictions(filename string, probs, labels []float64) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := writeRows(f, probs, labels); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeRows writes one CSV record per probability. Rows skipped during
// evaluation carry a NaN probability and an empty prediction.
func writeRows(out io.Writer, probs, labels []float64) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"row", "probability", "predicted", "label"}); err != nil {
		return err
	}
	for i, p := range probs {
		predicted := "0"
		if p >= metrics.Threshold {
			predicted = "1"
		}
		if math.IsNaN(p) {
			predicted = ""
		}
		rec := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(p, 'g', -1, 64),
			predicted,
			strconv.FormatFloat(labels[i], 'g', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
