package layer

import (
	"fmt"
	"math"

	"github.com/vanyle/vlearn/internal/activations"
	"github.com/vanyle/vlearn/internal/check"
	"github.com/vanyle/vlearn/internal/linalg"
)

// Conv is a single-channel strided 2D convolution.
//
// The flat input is read as a side×side grid, row by row. The kernel is
// placed at every reduction-th row and column and whatever part of it falls
// outside the grid is ignored, so there is no padding. Negative sums are
// divided by 100 (a leaky rectifier), and the output is the
// (side/reduction)×(side/reduction) grid of those sums.
type Conv struct {
	base
	kernel    *linalg.Matrix // kh rows × kw columns
	side      int
	reduction int
}

// NewConv creates a convolution over a square image of inputSize pixels.
// kw and kh are the kernel width (columns) and height (rows). The image side
// must be a multiple of reduction.
func NewConv(inputSize, reduction, kw, kh int) *Conv {
	side := int(math.Sqrt(float64(inputSize)))
	for side*side < inputSize {
		side++
	}
	check.That(inputSize > 0 && side*side == inputSize, linalg.ErrShapeMismatch,
		"NewConv: input size %d is not a perfect square", inputSize)
	check.That(reduction > 0 && side%reduction == 0, linalg.ErrShapeMismatch,
		"NewConv: side %d is not a multiple of reduction %d", side, reduction)
	check.That(kw > 0 && kh > 0, linalg.ErrShapeMismatch, "NewConv: kernel %dx%d", kw, kh)

	small := side / reduction
	return &Conv{
		base:      base{in: inputSize, out: small * small},
		kernel:    linalg.NewMatrix(kh, kw),
		side:      side,
		reduction: reduction,
	}
}

// RandomInit draws every kernel weight uniformly in [mean-dev, mean+dev].
func (c *Conv) RandomInit(dev, mean float32) {
	c.kernel.FillRandom(dev, mean)
}

// Kernel returns the live kernel matrix.
func (c *Conv) Kernel() *linalg.Matrix { return c.kernel }

// SetKernel copies k into the kernel. k must have the kernel's shape.
func (c *Conv) SetKernel(k *linalg.Matrix) {
	kh, kw := c.kernel.Dims()
	if r, cl := k.Dims(); r != kh || cl != kw {
		check.Failf(linalg.ErrShapeMismatch, "Conv.SetKernel: kernel is %dx%d, got %dx%d", kh, kw, r, cl)
	}
	c.kernel = k.Clone()
}

// Side returns the side of the input grid.
func (c *Conv) Side() int { return c.side }

// Reduction returns the stride.
func (c *Conv) Reduction() int { return c.reduction }

func (c *Conv) Learnable() bool { return true }
func (c *Conv) HasBias() bool   { return false }
func (c *Conv) Kind() Kind      { return KindConv }

func (c *Conv) Apply(x *linalg.Vector) *linalg.Vector {
	c.mustInput("Conv.Apply", x)
	kh, kw := c.kernel.Dims()
	xs, ks := x.Raw(), c.kernel.Raw()
	y := linalg.NewVector(c.out)
	ys := y.Raw()

	n := 0
	for i := 0; i < c.side; i += c.reduction {
		for j := 0; j < c.side; j += c.reduction {
			var sum float32
			for ki := 0; ki < kh && i+ki < c.side; ki++ {
				row := (i + ki) * c.side
				for kj := 0; kj < kw && j+kj < c.side; kj++ {
					sum += xs[row+j+kj] * ks[ki*kw+kj]
				}
			}
			if sum < 0 {
				sum /= 100
			}
			ys[n] = sum
			n++
		}
	}
	return y
}

// window returns the output cells [lo, hi) along one axis whose kernel
// placement covers input coordinate p, for a kernel extent k.
func (c *Conv) window(p, k int) (lo, hi int) {
	if d := p - k + c.reduction; d > 0 {
		lo = d / c.reduction
	}
	hi = min(c.side/c.reduction, p/c.reduction+1)
	return lo, hi
}

// ApplyGradient scatters v back onto the input grid through the kernel, then
// scales cells where eval is negative by the leaky slope.
func (c *Conv) ApplyGradient(v, eval, _ *linalg.Vector) *linalg.Vector {
	c.mustOutput("Conv.ApplyGradient", v)
	c.mustInput("Conv.ApplyGradient", eval)
	kh, kw := c.kernel.Dims()
	small := c.side / c.reduction
	vs, ks, es := v.Raw(), c.kernel.Raw(), eval.Raw()
	r := linalg.NewVector(c.in)
	rs := r.Raw()

	for i := 0; i < c.side; i++ {
		siLo, siHi := c.window(i, kh)
		for j := 0; j < c.side; j++ {
			sjLo, sjHi := c.window(j, kw)
			var sum float32
			for si := siLo; si < siHi; si++ {
				ki := i - si*c.reduction
				for sj := sjLo; sj < sjHi; sj++ {
					kj := j - sj*c.reduction
					sum += ks[ki*kw+kj] * vs[si*small+sj]
				}
			}
			p := i*c.side + j
			if es[p] < 0 {
				sum *= activations.LeakySlope
			}
			rs[p] = sum
		}
	}
	return r
}

// UpdateMatrix folds a dense OutputSize×InputSize gradient into the kernel:
// entries that share a kernel offset are summed, the sum is scaled by
// reduction/side and subtracted from the kernel.
func (c *Conv) UpdateMatrix(g *linalg.Matrix) {
	if r, cl := g.Dims(); r != c.out || cl != c.in {
		check.Failf(linalg.ErrShapeMismatch, "Conv.UpdateMatrix: gradient is %dx%d, want %dx%d", r, cl, c.out, c.in)
	}
	kh, kw := c.kernel.Dims()
	small := c.side / c.reduction
	upd := linalg.NewMatrix(kh, kw)

	for i := 0; i < c.side; i++ {
		siLo, siHi := c.window(i, kh)
		for j := 0; j < c.side; j++ {
			sjLo, sjHi := c.window(j, kw)
			p := i*c.side + j
			for si := siLo; si < siHi; si++ {
				for sj := sjLo; sj < sjHi; sj++ {
					upd.Inc(i-si*c.reduction, j-sj*c.reduction, g.At(si*small+sj, p))
				}
			}
		}
	}

	upd.Scale(float32(c.reduction) / float32(c.side))
	c.kernel.Sub(upd)
}

func (c *Conv) UpdateBias(*linalg.Vector) {
	check.Failf(ErrNoBias, "Conv has no bias")
}

func (c *Conv) String() string {
	kh, kw := c.kernel.Dims()
	return fmt.Sprintf("Conv %dx%d, kernel %dx%d, stride %d", c.in, c.out, kw, kh, c.reduction)
}
