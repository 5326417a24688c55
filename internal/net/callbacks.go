package net

import (
	"log/slog"
	"math"
	"time"
)

// EpochStats describes a finished epoch.
type EpochStats struct {
	Epoch   int
	Loss    float32
	Rate    float32
	Elapsed time.Duration // since Fit started
}

// Callback defines the interface for training callbacks.
type Callback interface {
	OnTrainBegin(n *Network)
	OnTrainEnd(n *Network)
	OnEpochBegin(epoch int, n *Network)
	OnEpochEnd(stats EpochStats, n *Network)
}

// Stopper is implemented by callbacks that can end training early.
type Stopper interface {
	ShouldStop() bool
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnTrainBegin(n *Network)                 {}
func (c BaseCallback) OnTrainEnd(n *Network)                   {}
func (c BaseCallback) OnEpochBegin(epoch int, n *Network)      {}
func (c BaseCallback) OnEpochEnd(stats EpochStats, n *Network) {}

// EarlyStopping stops training when the loss has stopped improving.
type EarlyStopping struct {
	BaseCallback
	Patience  int
	Threshold float32

	bestLoss     float32
	numBadEpochs int
	Stopped      bool
}

func NewEarlyStopping(patience int, threshold float32) *EarlyStopping {
	return &EarlyStopping{
		Patience:  patience,
		Threshold: threshold,
		bestLoss:  math.MaxFloat32,
	}
}

func (c *EarlyStopping) OnEpochEnd(stats EpochStats, n *Network) {
	if stats.Loss < c.bestLoss-c.Threshold {
		c.bestLoss = stats.Loss
		c.numBadEpochs = 0
	} else {
		c.numBadEpochs++
	}

	if c.numBadEpochs >= c.Patience {
		slog.Info("early stopping", "epoch", stats.Epoch, "loss", stats.Loss, "patience", c.Patience)
		c.Stopped = true
	}
}

func (c *EarlyStopping) ShouldStop() bool { return c.Stopped }

// Logger logs training progress every Interval epochs.
type Logger struct {
	BaseCallback
	Interval int
	Log      *slog.Logger // slog.Default() when nil
}

func (c Logger) OnEpochEnd(stats EpochStats, n *Network) {
	if c.Interval <= 0 || stats.Epoch%c.Interval != 0 {
		return
	}
	log := c.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("epoch",
		"epoch", stats.Epoch,
		"loss", stats.Loss,
		"rate", stats.Rate,
		"elapsed", stats.Elapsed.Round(time.Millisecond))
}
