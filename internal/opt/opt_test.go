// Package opt provides comprehensive unit tests for optimizers.
package opt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanyle/vlearn/internal/activations"
	"github.com/vanyle/vlearn/internal/layer"
	"github.com/vanyle/vlearn/internal/linalg"
)

func topology() []layer.Layer {
	return []layer.Layer{
		layer.NewDense(3, 2, activations.LeakyReLU),
		layer.NewBatchNorm(2),
		layer.NewDense(2, 1, activations.LeakyReLU),
	}
}

// TestConstantScales tests that the gradient is scaled by the rate.
func TestConstantScales(t *testing.T) {
	c := NewConstant(0.1)
	c.Prepare(topology())

	g := linalg.MatrixOf([]float32{1, -2}, []float32{0, 4})
	c.AdjustGradientMatrix(0, g)
	assert.InDeltaSlice(t, []float32{0.1, -0.2, 0, 0.4}, g.Raw(), 1e-7)

	c.SetLearningRate(1)
	g = linalg.MatrixOf([]float32{3})
	c.AdjustGradientMatrix(2, g)
	assert.Equal(t, []float32{3}, g.Raw())
}

// TestAdamFirstStep tests that the first bias-corrected step is lr·sign(g).
func TestAdamFirstStep(t *testing.T) {
	a := NewAdam(0.01)
	a.Prepare(topology())

	g := linalg.MatrixOf([]float32{2, -0.5, 0}, []float32{100, -3, 0.1})
	a.AdjustGradientMatrix(0, g)

	want := []float32{0.01, -0.01, 0, 0.01, -0.01, 0.01}
	assert.InDeltaSlice(t, want, g.Raw(), 1e-5)
	assert.Equal(t, 1, a.Steps(0))
}

// TestAdamConstantGradient tests that a steady gradient keeps a steady step.
func TestAdamConstantGradient(t *testing.T) {
	a := NewAdam(0.001)
	a.Prepare(topology())

	for i := 0; i < 10; i++ {
		g := linalg.MatrixOf([]float32{0.5, 0.5, 0.5}, []float32{-2, -2, -2})
		a.AdjustGradientMatrix(0, g)
		for j, x := range g.Raw() {
			want := float32(0.001)
			if j >= 3 {
				want = -want
			}
			assert.InDelta(t, want, x, 1e-5, "step %d element %d", i, j)
		}
	}
	assert.Equal(t, 10, a.Steps(0))
	assert.Equal(t, 0, a.Steps(2))
}

// TestAdamMomentum tests that the first moment carries past gradients.
func TestAdamMomentum(t *testing.T) {
	a := NewAdam(0.001)
	a.Prepare(topology())

	a.AdjustGradientMatrix(2, linalg.MatrixOf([]float32{1, 1}))
	g := linalg.MatrixOf([]float32{0, -1})
	a.AdjustGradientMatrix(2, g)

	// After 1 then 0 the averaged direction is still positive.
	assert.Greater(t, g.At(0, 0), float32(0))
	// After 1 then -1 the first moment nearly cancels.
	assert.Less(t, g.At(0, 1), float32(0))
	assert.Greater(t, g.At(0, 1), float32(-0.001))
}

// TestAdamLayersAreIndependent tests that moments are kept per layer.
func TestAdamLayersAreIndependent(t *testing.T) {
	a := NewAdam(0.001)
	a.Prepare(topology())

	for i := 0; i < 3; i++ {
		a.AdjustGradientMatrix(0, linalg.NewMatrix(2, 3))
	}
	assert.Equal(t, 3, a.Steps(0))
	assert.Equal(t, 0, a.Steps(2))
}

// TestAdamRejectsUnknownLayers tests that non-learnable or out-of-range
// indices are fatal.
func TestAdamRejectsUnknownLayers(t *testing.T) {
	a := NewAdam(0.001)
	a.Prepare(topology())

	for _, index := range []int{1, 3, -1} {
		func() {
			defer func() {
				r := recover()
				require.NotNil(t, r, "index %d", index)
				assert.True(t, errors.Is(r.(error), ErrUnprepared))
			}()
			a.AdjustGradientMatrix(index, linalg.NewMatrix(2, 2))
		}()
	}

	assert.Panics(t, func() { a.AdjustGradientMatrix(0, linalg.NewMatrix(3, 2)) })
}

// TestAdamPrepareResets tests that preparing again clears the moments.
func TestAdamPrepareResets(t *testing.T) {
	a := NewAdam(0.001)
	a.Prepare(topology())
	a.AdjustGradientMatrix(0, linalg.NewMatrix(2, 3))
	a.Prepare(topology())
	assert.Equal(t, 0, a.Steps(0))
}

// TestRateSetter tests that both optimizers follow a schedule.
func TestRateSetter(t *testing.T) {
	for _, o := range []Optimizer{NewConstant(1), NewAdam(1)} {
		s, ok := o.(RateSetter)
		require.True(t, ok)
		s.SetLearningRate(0.5)
	}
}
