package net

import (
	"time"

	"github.com/vanyle/vlearn/internal/linalg"
	"github.com/vanyle/vlearn/internal/opt"
)

// FitConfig configures Fit.
type FitConfig struct {
	// Epochs is the maximum number of calls to Train.
	Epochs int
	// Rate is the initial learning rate.
	Rate float32
	// TargetLoss ends training as soon as the loss falls below it. Zero
	// disables the check.
	TargetLoss float32
	// Schedule adapts the rate after every epoch; nil keeps it constant.
	// The new rate is also pushed to the network's optimizer when it
	// implements opt.RateSetter.
	Schedule opt.Schedule
	// Parallel selects TrainParallel instead of Train.
	Parallel bool
	// Callbacks observe the run. A callback implementing Stopper can end it.
	Callbacks []Callback
}

// History is the outcome of Fit.
type History struct {
	Loss    []float32 // loss after each epoch
	Rate    float32   // learning rate after the last epoch
	Reached bool      // the target loss was reached
}

// Epochs returns the number of epochs run.
func (h History) Epochs() int { return len(h.Loss) }

// Final returns the last recorded loss, or 0 if no epoch ran.
func (h History) Final() float32 {
	if len(h.Loss) == 0 {
		return 0
	}
	return h.Loss[len(h.Loss)-1]
}

// Fit trains the network for up to cfg.Epochs epochs, evaluating the loss on
// the training set after each one.
func (n *Network) Fit(inputs, outputs []*linalg.Vector, cfg FitConfig) History {
	n.mustReady()
	mustSameCount(inputs, outputs)

	for _, cb := range cfg.Callbacks {
		cb.OnTrainBegin(n)
	}
	defer func() {
		for _, cb := range cfg.Callbacks {
			cb.OnTrainEnd(n)
		}
	}()

	h := History{Rate: cfg.Rate}
	start := time.Now()
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		for _, cb := range cfg.Callbacks {
			cb.OnEpochBegin(epoch, n)
		}

		if cfg.Parallel {
			n.TrainParallel(inputs, outputs, h.Rate)
		} else {
			n.Train(inputs, outputs, h.Rate)
		}
		l := n.Loss(inputs, outputs)
		h.Loss = append(h.Loss, l)

		stats := EpochStats{Epoch: epoch, Loss: l, Rate: h.Rate, Elapsed: time.Since(start)}
		stop := false
		for _, cb := range cfg.Callbacks {
			cb.OnEpochEnd(stats, n)
			if s, ok := cb.(Stopper); ok && s.ShouldStop() {
				stop = true
			}
		}

		if cfg.TargetLoss > 0 && l < cfg.TargetLoss {
			h.Reached = true
			break
		}
		if stop {
			break
		}
		if cfg.Schedule != nil {
			h.Rate = cfg.Schedule.Next(h.Rate, l)
			if rs, ok := n.Optimizer.(opt.RateSetter); ok {
				rs.SetLearningRate(h.Rate)
			}
		}
	}
	return h
}
