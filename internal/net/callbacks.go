package net

import (
	"log"
	"math"

	"github.com/FlavioCFOliveira/perceptron/internal/metrics"
)

// Callback defines the interface for training callbacks.
type Callback interface {
	OnTrainBegin(n *Network)
	OnTrainEnd(n *Network)
	OnEpochBegin(epoch int, n *Network)
	OnEpochEnd(s metrics.Summary, n *Network)
}

// Stopper is implemented by callbacks that can end training early.
type Stopper interface {
	ShouldStop() bool
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnTrainBegin(n *Network)                  {}
func (c BaseCallback) OnTrainEnd(n *Network)                    {}
func (c BaseCallback) OnEpochBegin(epoch int, n *Network)       {}
func (c BaseCallback) OnEpochEnd(s metrics.Summary, n *Network) {}

// EarlyStopping stops training when the epoch loss has stopped improving.
type EarlyStopping struct {
	BaseCallback
	Patience  int
	Threshold float64

	bestLoss     float64
	numBadEpochs int
	Stopped      bool
}

func NewEarlyStopping(patience int, threshold float64) *EarlyStopping {
	return &EarlyStopping{
		Patience:  patience,
		Threshold: threshold,
		bestLoss:  math.MaxFloat64,
	}
}

func (c *EarlyStopping) OnEpochEnd(s metrics.Summary, n *Network) {
	if s.Loss < c.bestLoss-c.Threshold {
		c.bestLoss = s.Loss
		c.numBadEpochs = 0
	} else {
		c.numBadEpochs++
	}

	if c.numBadEpochs >= c.Patience {
		log.Printf("early stopping at epoch %d: loss %.6f did not improve for %d epochs", s.Epoch, s.Loss, c.Patience)
		c.Stopped = true
	}
}

// ShouldStop reports whether patience has run out.
func (c *EarlyStopping) ShouldStop() bool {
	return c.Stopped
}

// ModelCheckpoint saves the weights after every epoch that sets a new best
// loss.
type ModelCheckpoint struct {
	BaseCallback
	Filename string

	bestLoss float64
}

func NewModelCheckpoint(filename string) *ModelCheckpoint {
	return &ModelCheckpoint{
		Filename: filename,
		bestLoss: math.MaxFloat64,
	}
}

func (c *ModelCheckpoint) OnEpochEnd(s metrics.Summary, n *Network) {
	if s.Records == 0 || s.Loss >= c.bestLoss {
		return
	}
	c.bestLoss = s.Loss
	if err := n.Save(c.Filename); err != nil {
		log.Printf("checkpoint: save %s: %v", c.Filename, err)
		return
	}
	log.Printf("checkpoint: loss %.6f is new best, saved %s", s.Loss, c.Filename)
}

// Logger logs training progress to the standard logger.
type Logger struct {
	BaseCallback
	Interval int
}

func (c Logger) OnEpochEnd(s metrics.Summary, n *Network) {
	if c.Interval > 0 && s.Epoch%c.Interval == 0 {
		log.Printf("Epoch %d \tTraining Loss = %.6f \tTraining Accuracy = %.2f %%", s.Epoch, s.Loss, s.Accuracy*100)
		if s.Skipped > 0 {
			log.Printf("epoch=%d skipped=%d", s.Epoch, s.Skipped)
		}
	}
}

// History records the loss curve.
type History struct {
	BaseCallback
	Epochs []metrics.Summary
}

func (h *History) OnEpochEnd(s metrics.Summary, n *Network) {
	h.Epochs = append(h.Epochs, s)
}

// Losses returns (epoch, loss) pairs in order.
func (h *History) Losses() (epochs, losses []float64) {
	epochs = make([]float64, len(h.Epochs))
	losses = make([]float64, len(h.Epochs))
	for i, s := range h.Epochs {
		epochs[i] = float64(s.Epoch)
		losses[i] = s.Loss
	}
	return epochs, losses
}
