package layer

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"

	"github.com/vanyle/vlearn/internal/linalg"
)

// TestBatchNormApply tests the standard score with population deviation.
func TestBatchNormApply(t *testing.T) {
	b := NewBatchNorm(4)
	y := b.Apply(linalg.VectorOf(1, 2, 3, 4))

	// mean 2.5, variance 1.25
	assert.InDeltaSlice(t, []float32{-1.3416408, -0.4472136, 0.4472136, 1.3416408}, y.Raw(), 1e-5)

	mean, std := moments(y)
	assert.InDelta(t, 0, mean, 1e-6)
	assert.InDelta(t, 1, std, 1e-5)
}

// TestBatchNormConstantInput documents that a constant input divides zero by
// zero.
func TestBatchNormConstantInput(t *testing.T) {
	y := NewBatchNorm(3).Apply(linalg.VectorOf(7, 7, 7))
	for i := 0; i < y.Len(); i++ {
		assert.True(t, math32.IsNaN(y.At(i)), "component %d is %v", i, y.At(i))
	}
}

// TestBatchNormApplyGradient tests the rescaling by 1/std(eval).
func TestBatchNormApplyGradient(t *testing.T) {
	b := NewBatchNorm(4)
	g := b.ApplyGradient(linalg.VectorOf(1, -2, 0, 4), linalg.VectorOf(1, 2, 3, 4), nil)
	s := float32(1.118034)
	assert.InDeltaSlice(t, []float32{1 / s, -2 / s, 0, 4 / s}, g.Raw(), 1e-5)
}

// TestBatchNormGradientIsApproximate shows that the backward step ignores the
// dependence of mean and deviation on the input: the standard score does not
// change when every input moves by the same amount, so the exact gradient of
// any objective sums to zero, but the approximation does not.
func TestBatchNormGradientIsApproximate(t *testing.T) {
	b := NewBatchNorm(4)
	x := linalg.VectorOf(1, 2, 3, 4)
	v := linalg.VectorOf(1, 1, 1, 1)

	shifted := x.Clone()
	for i := range shifted.Raw() {
		shifted.Set(i, shifted.At(i)+0.5)
	}
	assert.InDeltaSlice(t, b.Apply(x).Raw(), b.Apply(shifted).Raw(), 1e-5)

	g := b.ApplyGradient(v, x, nil)
	var sum float32
	for _, c := range g.Raw() {
		sum += c
	}
	assert.Greater(t, sum, float32(1))
}
