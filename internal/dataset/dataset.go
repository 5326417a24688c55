// Package dataset loads and generates training samples.
package dataset

import (
	"gonum.org/v1/gonum/floats"

	"github.com/vanyle/vlearn/internal/linalg"
	"github.com/vanyle/vlearn/internal/rng"
)

// Dataset represents a collection of samples and labels.
type Dataset struct {
	Samples [][]float32
	Labels  [][]float32
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Samples)
}

// Vectors converts the dataset to the input and output vectors used by the
// network. The vectors copy the rows.
func (d *Dataset) Vectors() (inputs, outputs []*linalg.Vector) {
	inputs = make([]*linalg.Vector, len(d.Samples))
	outputs = make([]*linalg.Vector, len(d.Labels))
	for i := range d.Samples {
		inputs[i] = linalg.VectorOf(d.Samples[i]...)
		outputs[i] = linalg.VectorOf(d.Labels[i]...)
	}
	return inputs, outputs
}

// Normalize performs min-max normalization on the samples, column by column.
// Constant columns become zero.
func (d *Dataset) Normalize() {
	if len(d.Samples) == 0 {
		return
	}

	column := make([]float64, len(d.Samples))
	for j := range d.Samples[0] {
		for i, sample := range d.Samples {
			column[i] = float64(sample[j])
		}
		lo, hi := floats.Min(column), floats.Max(column)
		diff := hi - lo
		if diff == 0 {
			floats.Scale(0, column)
		} else {
			floats.AddConst(-lo, column)
			floats.Scale(1/diff, column)
		}
		for i, sample := range d.Samples {
			sample[j] = float32(column[i])
		}
	}
}

// Split splits the dataset into two based on the given ratio (0.0 to 1.0).
// Returns two new Datasets (train, test) sharing the rows of d.
func (d *Dataset) Split(ratio float32) (*Dataset, *Dataset) {
	if ratio <= 0 {
		return &Dataset{}, d
	}
	if ratio >= 1 {
		return d, &Dataset{}
	}

	splitIdx := int(float32(len(d.Samples)) * ratio)

	train := &Dataset{
		Samples: d.Samples[:splitIdx],
		Labels:  d.Labels[:splitIdx],
	}
	test := &Dataset{
		Samples: d.Samples[splitIdx:],
		Labels:  d.Labels[splitIdx:],
	}
	return train, test
}

// Shuffle reorders the samples with a permutation from the shared generator.
func (d *Dataset) Shuffle() {
	perm := rng.Permutation(len(d.Samples))
	samples := make([][]float32, len(perm))
	labels := make([][]float32, len(perm))
	for i, p := range perm {
		samples[i] = d.Samples[p]
		labels[i] = d.Labels[p]
	}
	d.Samples, d.Labels = samples, labels
}

// Linear draws n samples of y = Σ coeffs[i]·x[i] with every x[i] uniform in
// [lo, hi], from the shared generator.
func Linear(n int, coeffs []float32, lo, hi float32) *Dataset {
	d := &Dataset{
		Samples: make([][]float32, n),
		Labels:  make([][]float32, n),
	}
	for i := 0; i < n; i++ {
		x := make([]float32, len(coeffs))
		var y float32
		for j, c := range coeffs {
			x[j] = lo + rng.Float()*(hi-lo)
			y += c * x[j]
		}
		d.Samples[i] = x
		d.Labels[i] = []float32{y}
	}
	return d
}

// OneHot returns a vector of the given size with a single 1 at idx.
func OneHot(idx, size int) []float32 {
	v := make([]float32, size)
	v[idx] = 1
	return v
}

// ArgMax returns the index of the largest value, or -1 for an empty slice.
func ArgMax(v []float32) int {
	if len(v) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
