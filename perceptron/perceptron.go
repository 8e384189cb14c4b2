package perceptron

import (
	"github.com/FlavioCFOliveira/perceptron/internal/activations"
	"github.com/FlavioCFOliveira/perceptron/internal/layer"
	"github.com/FlavioCFOliveira/perceptron/internal/loss"
	"github.com/FlavioCFOliveira/perceptron/internal/metrics"
	"github.com/FlavioCFOliveira/perceptron/internal/net"
	"github.com/FlavioCFOliveira/perceptron/internal/opt"
)

// Re-export common types and functions for easier access
type (
	Network = net.Network
	Option  = net.Option
	State   = net.State
	Node    = layer.Node
	Edge    = layer.Edge
	Layer   = layer.Layer
	Loss    = loss.Loss
	Summary = metrics.Summary
)

// Network states
const (
	Uncomputed    = net.Uncomputed
	ForwardDone   = net.ForwardDone
	GradientsDone = net.GradientsDone
	BackwardDone  = net.BackwardDone
)

// Errors
var (
	ErrConfig       = net.ErrConfig
	ErrPrecondition = net.ErrPrecondition
	ErrSequence     = net.ErrSequence
	ErrFormat       = net.ErrFormat
)

// Activations
const (
	ReLU    = activations.ReLU
	Sigmoid = activations.Sigmoid
)

// Momentum is the fixed momentum coefficient of every weight update.
const Momentum = opt.Momentum

// Losses
var BCELoss = loss.BCELoss{}

// Network creation
func New(topology []int, learningRate float64, opts ...Option) (*Network, error) {
	return net.New(topology, learningRate, opts...)
}

func WithSeed(seed uint64) Option {
	return net.WithSeed(seed)
}

func WithTrainBias(train bool) Option {
	return net.WithTrainBias(train)
}

// Callbacks
type Callback = net.Callback

func Logger(interval int) net.Logger {
	return net.Logger{Interval: interval}
}

func CSVLogger(filename string) *net.CSVLogger {
	return net.NewCSVLogger(filename, false)
}

func ModelCheckpoint(filename string) net.Callback {
	return net.NewModelCheckpoint(filename)
}

func EarlyStopping(patience int, minDelta float64) *net.EarlyStopping {
	return net.NewEarlyStopping(patience, minDelta)
}

// Model Persistence
func Load(filename string, learningRate float64, opts ...Option) (*Network, error) {
	return net.Load(filename, learningRate, opts...)
}
