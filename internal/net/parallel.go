package net

import (
	"runtime"
	"sync"

	"github.com/vanyle/vlearn/internal/linalg"
	"github.com/vanyle/vlearn/internal/rng"
)

// accumulator sums the gradients of every learnable layer over a range of
// samples.
type accumulator struct {
	weights []*linalg.Matrix // nil for layers that are not learnable
	biases  []*linalg.Vector // nil for layers without bias
}

func (n *Network) newAccumulator() *accumulator {
	a := &accumulator{
		weights: make([]*linalg.Matrix, len(n.layers)),
		biases:  make([]*linalg.Vector, len(n.layers)),
	}
	for i, l := range n.layers {
		if !l.Learnable() {
			continue
		}
		a.weights[i] = linalg.NewMatrix(l.OutputSize(), l.InputSize())
		if l.HasBias() {
			a.biases[i] = linalg.NewVector(l.OutputSize())
		}
	}
	return a
}

// scale multiplies every sum by f.
func (a *accumulator) scale(f float32) {
	for i, w := range a.weights {
		if w == nil {
			continue
		}
		w.Scale(f)
		if b := a.biases[i]; b != nil {
			b.Scale(f)
		}
	}
}

// add adds o into a.
func (a *accumulator) add(o *accumulator) {
	for i, w := range a.weights {
		if w == nil {
			continue
		}
		w.Add(o.weights[i])
		if b := a.biases[i]; b != nil {
			b.Add(o.biases[i])
		}
	}
}

// gradientRange averages the gradients of the samples indexed by perm. It
// only reads the network, so ranges can be processed concurrently.
func (n *Network) gradientRange(inputs, outputs []*linalg.Vector, perm []int) *accumulator {
	acc := n.newAccumulator()
	for _, k := range perm {
		tr := n.backward(inputs[k], outputs[k])
		if tr == nil {
			continue
		}
		for i, w := range acc.weights {
			if w == nil {
				continue
			}
			w.Add(tr.weightGradient(i))
			if b := acc.biases[i]; b != nil {
				b.Add(tr.deltas[i])
			}
		}
	}
	acc.scale(1 / float32(len(perm)))
	return acc
}

// TrainParallel runs one epoch of batch gradient descent. The shuffled data
// set is split into CoreCount disjoint ranges whose averaged gradients are
// computed concurrently, merged by averaging and applied once.
func (n *Network) TrainParallel(inputs, outputs []*linalg.Vector, rate float32) {
	n.mustReady()
	mustSameCount(inputs, outputs)
	if len(inputs) == 0 {
		return
	}

	workers := n.CoreCount
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(inputs))

	perm := rng.Permutation(len(inputs))
	partial := make([]*accumulator, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * len(perm) / workers
		end := (w + 1) * len(perm) / workers
		wg.Add(1)
		go func(w int, part []int) {
			defer wg.Done()
			partial[w] = n.gradientRange(inputs, outputs, part)
		}(w, perm[start:end])
	}
	wg.Wait()

	total := partial[0]
	for _, p := range partial[1:] {
		total.add(p)
	}
	total.scale(1 / float32(workers))

	for i, g := range total.weights {
		if g == nil {
			continue
		}
		n.update(i, g, total.biases[i], rate)
	}
}
