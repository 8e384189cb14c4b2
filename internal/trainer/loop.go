package trainer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/FlavioCFOliveira/perceptron/internal/dataset"
	"github.com/FlavioCFOliveira/perceptron/internal/loss"
	"github.com/FlavioCFOliveira/perceptron/internal/metrics"
	"github.com/FlavioCFOliveira/perceptron/internal/net"
)

const (
	NoisyFile      = "noisy_dataset.csv"
	NormalisedFile = "normalised_dataset.csv"
)

// RunConfig captures the knobs required by the training loop.
type RunConfig struct {
	Epochs        int
	Noise         bool
	NoiseStd      float64
	Seed          uint64
	SkipMalformed bool
	// OutputDir receives the noisy and normalised datasets of the latest
	// epoch. Empty disables the artifacts.
	OutputDir string
	Callbacks []net.Callback
}

// Result summarises a finished run.
type Result struct {
	Scaler  dataset.RobustScaler
	Epochs  []metrics.Summary
	Stopped bool
}

// Run trains n online over d for cfg.Epochs epochs. The robust scaler is
// fitted once on the raw rows whose width matches the input layer; when
// noise is enabled every epoch draws a fresh perturbation before scaling.
func Run(ctx context.Context, n *net.Network, d *dataset.Dataset, cfg RunConfig) (Result, error) {
	if n == nil {
		return Result{}, errors.New("trainer: network is nil")
	}
	if d == nil || d.Len() == 0 {
		return Result{}, fmt.Errorf("trainer: %w", dataset.ErrEmpty)
	}
	if cfg.Epochs <= 0 {
		return Result{}, errors.New("trainer: epochs must be > 0")
	}
	if cfg.Noise && cfg.NoiseStd <= 0 {
		cfg.NoiseStd = dataset.DefaultNoiseStd
	}
	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			return Result{}, fmt.Errorf("trainer: output dir: %w", err)
		}
	}

	res := Result{Scaler: dataset.FitRobust(d, n.InputSize())}
	src := rand.NewPCG(cfg.Seed, cfg.Seed^0x6a09e667f3bcc909)

	for _, cb := range cfg.Callbacks {
		cb.OnTrainBegin(n)
	}
	defer func() {
		for _, cb := range cfg.Callbacks {
			cb.OnTrainEnd(n)
		}
	}()

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		for _, cb := range cfg.Callbacks {
			cb.OnEpochBegin(epoch, n)
		}

		data := d
		if cfg.Noise {
			data = dataset.AddNoise(d, cfg.NoiseStd, src)
		}
		scaled := res.Scaler.Transform(data)
		if cfg.OutputDir != "" {
			if err := writeArtifacts(cfg.OutputDir, data, scaled, cfg.Noise); err != nil {
				return res, err
			}
		}

		s, err := runEpoch(ctx, n, scaled, epoch, cfg.SkipMalformed)
		if err != nil {
			return res, err
		}
		res.Epochs = append(res.Epochs, s)

		for _, cb := range cfg.Callbacks {
			cb.OnEpochEnd(s, n)
		}
		if shouldStop(cfg.Callbacks) {
			res.Stopped = true
			break
		}
	}
	return res, nil
}

func runEpoch(ctx context.Context, n *net.Network, d *dataset.Dataset, epoch int, skipMalformed bool) (metrics.Summary, error) {
	acc := metrics.NewEpoch()
	for i, row := range d.Features {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return metrics.Summary{}, err
			}
		}
		target := d.Target(i)
		if err := n.Forward(row); err != nil {
			if skipMalformed && errors.Is(err, net.ErrPrecondition) {
				log.Printf("epoch=%d record=%d skipped: %v", epoch, i, err)
				acc.Skip()
				continue
			}
			return metrics.Summary{}, fmt.Errorf("epoch %d record %d: %w", epoch, i, err)
		}
		pred, err := n.Predict()
		if err != nil {
			return metrics.Summary{}, fmt.Errorf("epoch %d record %d: %w", epoch, i, err)
		}
		l, err := n.Backward(target)
		if err != nil {
			return metrics.Summary{}, fmt.Errorf("epoch %d record %d: %w", epoch, i, err)
		}
		acc.Record(pred[0], target[0], l)
	}
	return acc.Summary(epoch), nil
}

// Evaluate runs n forward over d without updating it. Rows are scaled with
// s first. It returns the per-row probabilities (NaN for skipped rows) and
// the aggregate metrics.
func Evaluate(ctx context.Context, n *net.Network, d *dataset.Dataset, s dataset.RobustScaler) ([]float64, metrics.Summary, error) {
	scaled := s.Transform(d)
	bce := loss.BCELoss{}
	acc := metrics.NewEpoch()
	probs := make([]float64, d.Len())
	for i, row := range scaled.Features {
		if err := ctx.Err(); err != nil {
			return nil, metrics.Summary{}, err
		}
		if err := n.Forward(row); err != nil {
			if errors.Is(err, net.ErrPrecondition) {
				probs[i] = math.NaN()
				acc.Skip()
				continue
			}
			return nil, metrics.Summary{}, fmt.Errorf("record %d: %w", i, err)
		}
		pred, err := n.Predict()
		if err != nil {
			return nil, metrics.Summary{}, fmt.Errorf("record %d: %w", i, err)
		}
		target := scaled.Target(i)
		probs[i] = pred[0]
		acc.Record(pred[0], target[0], bce.Forward(pred[:1], target))
	}
	return probs, acc.Summary(0), nil
}

func writeArtifacts(dir string, noisy, scaled *dataset.Dataset, withNoise bool) error {
	if withNoise {
		if err := dataset.WriteCSV(filepath.Join(dir, NoisyFile), noisy); err != nil {
			return fmt.Errorf("trainer: %w", err)
		}
	}
	if err := dataset.WriteCSV(filepath.Join(dir, NormalisedFile), scaled); err != nil {
		return fmt.Errorf("trainer: %w", err)
	}
	return nil
}

func shouldStop(cbs []net.Callback) bool {
	for _, cb := range cbs {
		if s, ok := cb.(net.Stopper); ok && s.ShouldStop() {
			return true
		}
	}
	return false
}
