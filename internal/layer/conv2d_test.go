// Package layer provides unit tests for the convolution layer.
package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanyle/vlearn/internal/linalg"
	"github.com/vanyle/vlearn/internal/rng"
)

var grid4 = linalg.VectorOf(
	2, 9, 3, 8,
	0, 1, 5, 5,
	5, 7, 2, 6,
	8, 8, 3, 6,
)

// TestConvGeometry tests output sizes and rejected shapes.
func TestConvGeometry(t *testing.T) {
	tests := []struct {
		in, reduction, out int
	}{
		{16, 2, 4},
		{784, 2, 196},
		{196, 2, 49},
		{25, 1, 25},
		{36, 3, 4},
	}
	for _, tt := range tests {
		c := NewConv(tt.in, tt.reduction, 3, 3)
		assert.Equal(t, tt.out, c.OutputSize(), "input %d, reduction %d", tt.in, tt.reduction)
	}

	requirePanicsWith(t, linalg.ErrShapeMismatch, func() { NewConv(15, 1, 2, 2) })
	requirePanicsWith(t, linalg.ErrShapeMismatch, func() { NewConv(36, 4, 2, 2) })
	requirePanicsWith(t, linalg.ErrShapeMismatch, func() { NewConv(16, 0, 2, 2) })
	requirePanicsWith(t, linalg.ErrShapeMismatch, func() { NewConv(16, 2, 0, 2) })
}

// TestConvApply tests strided application of a diagonal and an averaging kernel.
func TestConvApply(t *testing.T) {
	c := NewConv(16, 2, 2, 2)

	c.SetKernel(linalg.MatrixOf([]float32{1, 0}, []float32{0, 1}))
	assert.Equal(t, []float32{3, 8, 13, 8}, c.Apply(grid4).Raw())

	avg := linalg.NewMatrix(2, 2)
	avg.Fill(0.25)
	c.SetKernel(avg)
	assert.InDeltaSlice(t, []float32{3, 5.25, 7, 4.25}, c.Apply(grid4).Raw(), 1e-6)
}

// TestConvApplyRectangularKernel tests that kernel rows run along image rows.
func TestConvApplyRectangularKernel(t *testing.T) {
	c := NewConv(16, 2, 1, 2) // one column, two rows
	c.SetKernel(linalg.MatrixOf([]float32{1}, []float32{10}))
	// (0,0)+10*(1,0), (0,2)+10*(1,2), ...
	assert.Equal(t, []float32{2, 53, 85, 32}, c.Apply(grid4).Raw())
}

// TestConvApplyClipsKernel tests that kernel cells outside the image are skipped.
func TestConvApplyClipsKernel(t *testing.T) {
	c := NewConv(16, 2, 3, 3)
	k := linalg.NewMatrix(3, 3)
	k.Fill(1)
	c.SetKernel(k)

	x := linalg.NewVector(16)
	x.Fill(1)
	assert.Equal(t, []float32{9, 6, 6, 4}, c.Apply(x).Raw())
}

// TestConvApplyLeaksNegatives tests that negative sums are divided by 100.
func TestConvApplyLeaksNegatives(t *testing.T) {
	c := NewConv(16, 2, 2, 2)
	k := linalg.NewMatrix(2, 2)
	k.Fill(-1)
	c.SetKernel(k)

	x := linalg.NewVector(16)
	x.Fill(1)
	assert.InDeltaSlice(t, []float32{-0.04, -0.04, -0.04, -0.04}, c.Apply(x).Raw(), 1e-6)
}

// TestConvAdjoint tests ⟨conv(x), v⟩ = ⟨x, ApplyGradient(v)⟩ on non-negative
// data, where the rectifier is the identity.
func TestConvAdjoint(t *testing.T) {
	tests := []struct {
		name          string
		in, reduction int
		kw, kh        int
	}{
		{"stride 2 square kernel", 16, 2, 2, 2},
		{"overlapping kernel", 36, 2, 3, 3},
		{"rectangular kernel", 36, 2, 2, 3},
		{"stride 1", 25, 1, 2, 2},
		{"kernel wider than image", 16, 4, 5, 6},
	}

	src := rng.New(21)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConv(tt.in, tt.reduction, tt.kw, tt.kh)
			c.SetKernel(randomMatrix(src, tt.kh, tt.kw, 0, 1))
			x := randomVector(src, tt.in, 0, 1)
			v := randomVector(src, c.OutputSize(), -1, 1)

			lhs := linalg.Dot(c.Apply(x), v)
			rhs := linalg.Dot(x, c.ApplyGradient(v, x, nil))
			assert.InDelta(t, lhs, rhs, 1e-4)
		})
	}
}

// TestConvApplyGradientMask tests the leaky mask on negative evaluation cells.
func TestConvApplyGradientMask(t *testing.T) {
	c := NewConv(16, 2, 2, 2)
	k := linalg.NewMatrix(2, 2)
	k.Fill(1)
	c.SetKernel(k)

	eval := linalg.NewVector(16)
	eval.Fill(1)
	eval.Set(5, -1)
	got := c.ApplyGradient(linalg.VectorOf(1, 2, 3, 4), eval, nil)

	want := []float32{
		1, 1, 2, 2,
		1, 0.01, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}
	assert.InDeltaSlice(t, want, got.Raw(), 1e-6)
}

// TestConvUpdateMatrixFolds tests that a dense outer-product gradient folds
// into the kernel gradient scaled by reduction/side.
func TestConvUpdateMatrixFolds(t *testing.T) {
	const in, reduction, kw, kh = 36, 2, 3, 2
	src := rng.New(8)
	c := NewConv(in, reduction, kw, kh)
	c.SetKernel(randomMatrix(src, kh, kw, 0, 1))
	before := c.Kernel().Clone()

	x := randomVector(src, in, 0, 1)
	v := randomVector(src, c.OutputSize(), -1, 1)
	c.UpdateMatrix(linalg.CrossNorm(v, x))

	// ∂⟨conv(x), v⟩/∂k(ki, kj) is the same product with a unit kernel.
	probe := NewConv(in, reduction, kw, kh)
	scale := float32(reduction) / 6
	for ki := 0; ki < kh; ki++ {
		for kj := 0; kj < kw; kj++ {
			unit := linalg.NewMatrix(kh, kw)
			unit.Set(ki, kj, 1)
			probe.SetKernel(unit)
			grad := linalg.Dot(probe.Apply(x), v)
			assert.InDelta(t, before.At(ki, kj)-scale*grad, c.Kernel().At(ki, kj), 1e-4, "kernel (%d, %d)", ki, kj)
		}
	}
}

// TestConvUpdateMatrixShape tests that the gradient must be OutputSize×InputSize.
func TestConvUpdateMatrixShape(t *testing.T) {
	c := NewConv(16, 2, 2, 2)
	requirePanicsWith(t, linalg.ErrShapeMismatch, func() { c.UpdateMatrix(linalg.NewMatrix(16, 4)) })
}

// TestConvSetKernel tests that the kernel is copied and shape-checked.
func TestConvSetKernel(t *testing.T) {
	c := NewConv(16, 2, 2, 2)
	k := linalg.MatrixOf([]float32{1, 2}, []float32{3, 4})
	c.SetKernel(k)
	k.Set(0, 0, 100)
	require.Equal(t, float32(1), c.Kernel().At(0, 0))

	requirePanicsWith(t, linalg.ErrShapeMismatch, func() { c.SetKernel(linalg.NewMatrix(3, 3)) })
}

// TestConvRandomInit tests that the kernel is drawn in range.
func TestConvRandomInit(t *testing.T) {
	rng.Seed(4)
	c := NewConv(16, 2, 3, 3)
	c.RandomInit(2, 1)
	for _, w := range c.Kernel().Raw() {
		assert.GreaterOrEqual(t, w, float32(-1))
		assert.LessOrEqual(t, w, float32(3))
	}
}
