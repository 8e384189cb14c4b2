// Package config holds the runtime knobs for a training run.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FlavioCFOliveira/perceptron/internal/dataset"
	"github.com/FlavioCFOliveira/perceptron/internal/net"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	Data          string  `yaml:"data"`
	HasHeader     bool    `yaml:"has_header"`
	Topology      []int   `yaml:"topology"`
	LearningRate  float64 `yaml:"learning_rate"`
	Epochs        int     `yaml:"epochs"`
	Noise         bool    `yaml:"noise"`
	NoiseStd      float64 `yaml:"noise_std"`
	Seed          uint64  `yaml:"seed"`
	TrainBias     bool    `yaml:"train_bias"`
	SkipMalformed bool    `yaml:"skip_malformed"`
	Patience      int     `yaml:"patience"`
	OutputDir     string  `yaml:"output_dir"`
	WeightsOut    string  `yaml:"weights_out"`
	Plot          bool    `yaml:"plot"`
	LogEvery      int     `yaml:"log_every"`
}

// Default returns a Config with every optional knob at its default.
func Default() *Config {
	return &Config{
		NoiseStd: dataset.DefaultNoiseStd,
		LogEvery: 1,
	}
}

// Overrides captures CLI supplied values. Zero values leave the config
// untouched; pointer fields distinguish "false" from "unset".
type Overrides struct {
	Data          string
	HasHeader     *bool
	Topology      []int
	LearningRate  float64
	Epochs        int
	Noise         *bool
	NoiseStd      float64
	Seed          uint64
	TrainBias     *bool
	SkipMalformed *bool
	Patience      int
	OutputDir     string
	WeightsOut    string
	Plot          *bool
	LogEvery      int
}

// Load reads a Config from a YAML file. It does not validate; apply any
// overrides first and then call Validate.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default. Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates c using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Data != "" {
		c.Data = o.Data
	}
	if o.HasHeader != nil {
		c.HasHeader = *o.HasHeader
	}
	if len(o.Topology) > 0 {
		c.Topology = append([]int(nil), o.Topology...)
	}
	if o.LearningRate != 0 {
		c.LearningRate = o.LearningRate
	}
	if o.Epochs != 0 {
		c.Epochs = o.Epochs
	}
	if o.Noise != nil {
		c.Noise = *o.Noise
	}
	if o.NoiseStd != 0 {
		c.NoiseStd = o.NoiseStd
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.TrainBias != nil {
		c.TrainBias = *o.TrainBias
	}
	if o.SkipMalformed != nil {
		c.SkipMalformed = *o.SkipMalformed
	}
	if o.Patience != 0 {
		c.Patience = o.Patience
	}
	if o.OutputDir != "" {
		c.OutputDir = o.OutputDir
	}
	if o.WeightsOut != "" {
		c.WeightsOut = o.WeightsOut
	}
	if o.Plot != nil {
		c.Plot = *o.Plot
	}
	if o.LogEvery != 0 {
		c.LogEvery = o.LogEvery
	}
}

// Validate verifies the config is runnable. Invalid values fail rather than
// being clamped; every failure wraps net.ErrConfig.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", net.ErrConfig)
	}
	var errs []error
	if c.Data == "" {
		errs = append(errs, errors.New("data path must be set"))
	}
	if len(c.Topology) < 2 {
		errs = append(errs, fmt.Errorf("topology needs at least 2 layers (got %v)", c.Topology))
	}
	for i, w := range c.Topology {
		if w <= 0 {
			errs = append(errs, fmt.Errorf("topology[%d] must be > 0 (got %d)", i, w))
		}
	}
	if n := len(c.Topology); n >= 2 && c.Topology[n-1] != 1 {
		errs = append(errs, fmt.Errorf("output layer width must be 1 for binary classification (got %d)", c.Topology[n-1]))
	}
	if !(c.LearningRate > 0) || math.IsInf(c.LearningRate, 0) {
		errs = append(errs, fmt.Errorf("learning_rate must be > 0 (got %v)", c.LearningRate))
	}
	if c.Epochs <= 0 {
		errs = append(errs, fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs))
	}
	if c.NoiseStd < 0 || math.IsNaN(c.NoiseStd) {
		errs = append(errs, fmt.Errorf("noise_std must be >= 0 (got %v)", c.NoiseStd))
	}
	if c.Patience < 0 {
		errs = append(errs, fmt.Errorf("patience must be >= 0 (got %d)", c.Patience))
	}
	if c.LogEvery <= 0 {
		errs = append(errs, fmt.Errorf("log_every must be > 0 (got %d)", c.LogEvery))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", net.ErrConfig, errors.Join(errs...))
	}
	return nil
}

// ParseTopology parses a comma separated list of layer widths such as
// "4,8,1".
func ParseTopology(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	widths := make([]int, len(parts))
	for i, p := range parts {
		w, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: topology entry %d: %v", net.ErrConfig, i, err)
		}
		widths[i] = w
	}
	return widths, nil
}
