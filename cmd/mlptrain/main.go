// Command mlptrain trains a binary classifier on a CSV table whose last
// column is the 0/1 label.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/FlavioCFOliveira/perceptron/internal/config"
	"github.com/FlavioCFOliveira/perceptron/internal/dataset"
	"github.com/FlavioCFOliveira/perceptron/internal/net"
	"github.com/FlavioCFOliveira/perceptron/internal/plot"
	"github.com/FlavioCFOliveira/perceptron/internal/trainer"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	data := flag.String("data", "", "Override CSV dataset path")
	topology := flag.String("topology", "", "Layer widths, e.g. 4,8,1")
	lr := flag.Float64("lr", 0, "Learning rate")
	epochs := flag.Int("epochs", 0, "Number of epochs")
	noiseStd := flag.Float64("noise-std", 0, "Standard deviation of the Gaussian feature noise")
	seed := flag.Uint64("seed", 0, "PRNG seed (0 picks one from the clock)")
	patience := flag.Int("patience", 0, "Stop after N epochs without improvement (0 disables)")
	outputDir := flag.String("output-dir", "", "Directory for datasets, logs, checkpoints and the loss chart")
	weightsOut := flag.String("weights", "", "Write the trained weights to this file")
	logEvery := flag.Int("log-every", 0, "Log every N epochs")
	hasHeader := flag.Bool("header", false, "CSV has a header row")
	noise := flag.Bool("noise", false, "Add Gaussian noise to the features every epoch")
	trainBias := flag.Bool("train-bias", false, "Let bias weights learn")
	skipMalformed := flag.Bool("skip-malformed", false, "Skip records whose width does not match the input layer")
	drawPlot := flag.Bool("plot", false, "Write loss.png")

	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	widths, err := config.ParseTopology(*topology)
	if err != nil {
		log.Fatalf("invalid topology: %v", err)
	}
	cfg.ApplyOverrides(config.Overrides{
		Data:          *data,
		HasHeader:     boolFlag("header", *hasHeader),
		Topology:      widths,
		LearningRate:  *lr,
		Epochs:        *epochs,
		Noise:         boolFlag("noise", *noise),
		NoiseStd:      *noiseStd,
		Seed:          *seed,
		TrainBias:     boolFlag("train-bias", *trainBias),
		SkipMalformed: boolFlag("skip-malformed", *skipMalformed),
		Patience:      *patience,
		OutputDir:     *outputDir,
		WeightsOut:    *weightsOut,
		Plot:          boolFlag("plot", *drawPlot),
		LogEvery:      *logEvery,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	log.Printf("seed=%d", cfg.Seed)

	d, err := dataset.LoadCSV(cfg.Data, cfg.HasHeader)
	if err != nil {
		log.Fatalf("load dataset: %v", err)
	}
	log.Printf("data=%s rows=%d features=%d", cfg.Data, d.Len(), d.Width())

	n, err := net.New(cfg.Topology, cfg.LearningRate, net.WithSeed(cfg.Seed), net.WithTrainBias(cfg.TrainBias))
	if err != nil {
		log.Fatalf("build network: %v", err)
	}
	n.Summary(os.Stdout)

	hist := &net.History{}
	callbacks := []net.Callback{net.Logger{Interval: cfg.LogEvery}, hist}
	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			log.Fatalf("create output dir: %v", err)
		}
		callbacks = append(callbacks,
			net.NewCSVLogger(filepath.Join(cfg.OutputDir, "training.csv"), false),
			net.NewModelCheckpoint(filepath.Join(cfg.OutputDir, "best.mlpw")),
		)
	}
	if cfg.Patience > 0 {
		callbacks = append(callbacks, net.NewEarlyStopping(cfg.Patience, 0))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := trainer.Run(ctx, n, d, trainer.RunConfig{
		Epochs:        cfg.Epochs,
		Noise:         cfg.Noise,
		NoiseStd:      cfg.NoiseStd,
		Seed:          cfg.Seed,
		SkipMalformed: cfg.SkipMalformed,
		OutputDir:     cfg.OutputDir,
		Callbacks:     callbacks,
	})
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}
	if len(res.Epochs) > 0 {
		last := res.Epochs[len(res.Epochs)-1]
		log.Printf("epochs=%d loss=%.6f accuracy=%.2f%% precision=%.4f recall=%.4f f1=%.4f stopped=%t",
			len(res.Epochs), last.Loss, last.Accuracy*100, last.Precision, last.Recall, last.F1, res.Stopped)
	}

	n.Describe(os.Stdout)

	if cfg.WeightsOut != "" {
		if err := n.Save(cfg.WeightsOut); err != nil {
			log.Fatalf("save weights: %v", err)
		}
		scalerPath := cfg.WeightsOut + ".scaler.yaml"
		if err := res.Scaler.Save(scalerPath); err != nil {
			log.Fatalf("save scaler: %v", err)
		}
		log.Printf("weights=%s scaler=%s", cfg.WeightsOut, scalerPath)
	}

	if cfg.Plot {
		dir := cfg.OutputDir
		if dir == "" {
			dir = "."
		}
		epochsX, losses := hist.Losses()
		accuracy := make([]float64, len(hist.Epochs))
		for i, s := range hist.Epochs {
			accuracy[i] = s.Accuracy
		}
		path := filepath.Join(dir, "loss.png")
		if err := plot.Save(path, epochsX, losses, plot.Series{Name: "accuracy", Values: accuracy}); err != nil {
			log.Fatalf("plot: %v", err)
		}
		log.Printf("plot=%s", path)
	}
}

// boolFlag returns &v when the named flag was given on the command line,
// nil otherwise, so the YAML value survives an absent flag.
func boolFlag(name string, v bool) *bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	if !set {
		return nil
	}
	return &v
}
