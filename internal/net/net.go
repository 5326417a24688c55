// Package net provides the network container and its training loop.
package net

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vanyle/vlearn/internal/check"
	"github.com/vanyle/vlearn/internal/layer"
	"github.com/vanyle/vlearn/internal/linalg"
	"github.com/vanyle/vlearn/internal/loss"
	"github.com/vanyle/vlearn/internal/opt"
	"github.com/vanyle/vlearn/internal/rng"
)

var (
	// ErrNotPrepared is wrapped by the panic raised when training starts
	// before Prepare.
	ErrNotPrepared = errors.New("net: network not prepared")
	// ErrMisshapen is wrapped by the panic raised by Prepare when adjacent
	// layers do not fit together.
	ErrMisshapen = errors.New("net: layers are misshapen")
)

// Network is an ordered sequence of layers evaluated left to right.
//
// The network owns its layers: they are handed over at construction and must
// not be shared with another network. Callers may keep the handles they built
// the layers with to initialize or inspect them (RandomInit, Weights, Kernel),
// but must not update them while Train or TrainParallel runs.
type Network struct {
	layers []layer.Layer
	ready  bool

	// ErrorFunction is the loss training minimizes. The zero value is L2.
	ErrorFunction loss.Kind

	// Optimizer, when set, turns every raw weight gradient into the update
	// subtracted from the layer. When nil, gradients are scaled by the
	// learning rate passed to Train. Bias updates always use that rate.
	Optimizer opt.Optimizer

	// CoreCount is the number of goroutines TrainParallel splits the
	// training set over. Values below 1 mean runtime.NumCPU().
	CoreCount int
}

// New creates a network over layers. The slice is copied, so later changes
// to it do not reorder the network. Call Prepare before training.
func New(layers ...layer.Layer) *Network {
	return &Network{layers: append([]layer.Layer(nil), layers...)}
}

// Layers returns the network's layers in evaluation order. The slice is a
// copy; the layers are not.
func (n *Network) Layers() []layer.Layer {
	return append([]layer.Layer(nil), n.layers...)
}

// Prepare checks that every layer's output size matches the next layer's
// input size and readies the optimizer. Misshapen networks, including
// empty ones, are fatal.
func (n *Network) Prepare() {
	if len(n.layers) == 0 {
		check.Failf(ErrMisshapen, "network has no layers")
	}
	for i := 0; i+1 < len(n.layers); i++ {
		a, b := n.layers[i], n.layers[i+1]
		if a.OutputSize() != b.InputSize() {
			check.Failf(ErrMisshapen, "layer %d (%s) has output size %d but layer %d (%s) has input size %d",
				i, a, a.OutputSize(), i+1, b, b.InputSize())
		}
	}
	if n.Optimizer != nil {
		n.Optimizer.Prepare(n.layers)
	}
	n.ready = true
}

// Ready reports whether Prepare has succeeded.
func (n *Network) Ready() bool {
	return n.ready
}

// InputSize returns the input size of the first layer.
func (n *Network) InputSize() int {
	if len(n.layers) == 0 {
		return 0
	}
	return n.layers[0].InputSize()
}

// OutputSize returns the output size of the last layer.
func (n *Network) OutputSize() int {
	if len(n.layers) == 0 {
		return 0
	}
	return n.layers[len(n.layers)-1].OutputSize()
}

// Apply evaluates the network on x. It does not require Prepare and does not
// modify the network.
func (n *Network) Apply(x *linalg.Vector) *linalg.Vector {
	r := x
	for _, l := range n.layers {
		r = l.Apply(r)
	}
	if r == x {
		return x.Clone()
	}
	return r
}

// Loss returns the average error over a data set, or 0 for an empty one.
func (n *Network) Loss(inputs, outputs []*linalg.Vector) float32 {
	mustSameCount(inputs, outputs)
	if len(inputs) == 0 {
		return 0
	}
	var total float32
	for i, x := range inputs {
		total += n.ErrorFunction.Error(n.Apply(x), outputs[i])
	}
	return total / float32(len(inputs))
}

// Train runs one epoch of per-sample gradient descent over the data set, in
// an order drawn from the shared generator. Each sample updates every
// learnable layer once.
func (n *Network) Train(inputs, outputs []*linalg.Vector, rate float32) {
	n.mustReady()
	mustSameCount(inputs, outputs)

	for _, k := range rng.Permutation(len(inputs)) {
		tr := n.backward(inputs[k], outputs[k])
		if tr == nil {
			continue
		}
		for i, l := range n.layers {
			if l.Learnable() {
				n.update(i, tr.weightGradient(i), tr.deltas[i], rate)
			}
		}
	}
}

// update applies a weight gradient g and output gradient v to layer i.
// Both are consumed; v is ignored when the layer has no bias.
func (n *Network) update(i int, g *linalg.Matrix, v *linalg.Vector, rate float32) {
	l := n.layers[i]
	if n.Optimizer != nil {
		n.Optimizer.AdjustGradientMatrix(i, g)
	} else {
		g.Scale(rate)
	}
	l.UpdateMatrix(g)
	if l.HasBias() {
		v.Scale(rate)
		l.UpdateBias(v)
	}
}

// trace holds one sample's forward and backward pass.
type trace struct {
	// cached[i] is the input of layer i; the last entry is the network output.
	cached []*linalg.Vector
	// deltas[i] is the gradient flowing into layer i from its output. Entries
	// below the first learnable layer are nil.
	deltas []*linalg.Vector
}

// weightGradient returns the outer product of layer i's output gradient and
// its input.
func (t *trace) weightGradient(i int) *linalg.Matrix {
	return linalg.CrossNorm(t.deltas[i], t.cached[i])
}

// backward evaluates x, caching every intermediate value, then chains the
// error gradient back through the layers. Every chain is computed before any
// weight changes, so all layers see the weights of the forward pass. It
// returns nil when the error gradient is negligible.
func (n *Network) backward(x, target *linalg.Vector) *trace {
	first := n.firstLearnable()
	if first < 0 {
		return nil
	}

	cached := make([]*linalg.Vector, len(n.layers)+1)
	cached[0] = x
	for i, l := range n.layers {
		cached[i+1] = l.Apply(cached[i])
	}

	v := n.ErrorFunction.Gradient(cached[len(n.layers)], target)
	if v.NormSquared() < loss.FlatThreshold {
		return nil
	}

	last := len(n.layers) - 1
	deltas := make([]*linalg.Vector, len(n.layers))
	deltas[last] = v
	for j := last; j > first; j-- {
		deltas[j-1] = n.layers[j].ApplyGradient(deltas[j], cached[j], cached[j-1])
	}
	return &trace{cached: cached, deltas: deltas}
}

func (n *Network) firstLearnable() int {
	for i, l := range n.layers {
		if l.Learnable() {
			return i
		}
	}
	return -1
}

func (n *Network) mustReady() {
	if !n.ready {
		check.Failf(ErrNotPrepared, "call Prepare before training")
	}
}

func mustSameCount(inputs, outputs []*linalg.Vector) {
	if len(inputs) != len(outputs) {
		check.Failf(linalg.ErrShapeMismatch, "%d inputs but %d outputs", len(inputs), len(outputs))
	}
}

// String lists the layers, one per line.
func (n *Network) String() string {
	var sb strings.Builder
	for i, l := range n.layers {
		fmt.Fprintf(&sb, "%d: %s\n", i, l)
	}
	return sb.String()
}
