// Package opt provides optimization algorithms.
//
// An Optimizer turns the raw weight gradient of a learnable layer into the
// update the layer subtracts. The network prepares it once per topology and
// then hands it every gradient matrix in turn.
package opt

import (
	"errors"

	"github.com/chewxy/math32"

	"github.com/vanyle/vlearn/internal/check"
	"github.com/vanyle/vlearn/internal/layer"
	"github.com/vanyle/vlearn/internal/linalg"
)

// ErrUnprepared is wrapped by the panic raised when a gradient reaches an
// optimizer that holds no state for its layer.
var ErrUnprepared = errors.New("opt: optimizer not prepared for layer")

// Optimizer updates network parameters based on gradients.
type Optimizer interface {
	// Prepare sizes any per-layer state for the given layers.
	Prepare(layers []layer.Layer)

	// AdjustGradientMatrix rewrites g, the raw gradient of the layer at
	// position index, into the update to subtract from it.
	AdjustGradientMatrix(index int, g *linalg.Matrix)
}

// RateSetter is implemented by optimizers whose learning rate can follow a
// schedule.
type RateSetter interface {
	SetLearningRate(rate float32)
}

// Constant scales every gradient by a fixed learning rate.
type Constant struct {
	LearningRate float32
}

// NewConstant creates a constant-rate optimizer.
func NewConstant(learningRate float32) *Constant {
	return &Constant{LearningRate: learningRate}
}

func (c *Constant) Prepare([]layer.Layer) {}

func (c *Constant) AdjustGradientMatrix(_ int, g *linalg.Matrix) {
	g.Scale(c.LearningRate)
}

func (c *Constant) SetLearningRate(rate float32) { c.LearningRate = rate }

// Adam keeps bias-corrected running averages of each gradient and of its
// square, one pair of matrices per learnable layer:
//
//	m = β1·m + (1-β1)·g
//	v = β2·v + (1-β2)·g²
//	update = lr · (m / (1-β1^t)) / (sqrt(v / (1-β2^t)) + ε)
type Adam struct {
	LearningRate float32
	Beta1        float32 // Exponential decay rate for first moment
	Beta2        float32 // Exponential decay rate for second moment
	Epsilon      float32 // Small constant for numerical stability

	state map[int]*moments
}

type moments struct {
	first, second *linalg.Matrix
	step          int
}

// NewAdam creates a new Adam optimizer with default values.
func NewAdam(learningRate float32) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-6,
	}
}

// Prepare allocates zeroed moments for every learnable layer, discarding any
// previous state.
func (a *Adam) Prepare(layers []layer.Layer) {
	a.state = make(map[int]*moments, len(layers))
	for i, l := range layers {
		if !l.Learnable() {
			continue
		}
		a.state[i] = &moments{
			first:  linalg.NewMatrix(l.OutputSize(), l.InputSize()),
			second: linalg.NewMatrix(l.OutputSize(), l.InputSize()),
		}
	}
}

func (a *Adam) AdjustGradientMatrix(index int, g *linalg.Matrix) {
	s, ok := a.state[index]
	if !ok {
		check.Failf(ErrUnprepared, "Adam: no moments for layer %d", index)
	}
	r, c := g.Dims()
	if mr, mc := s.first.Dims(); r != mr || c != mc {
		check.Failf(linalg.ErrShapeMismatch, "Adam: gradient %dx%d for layer %d, moments are %dx%d", r, c, index, mr, mc)
	}

	s.step++
	c1 := 1 - math32.Pow(a.Beta1, float32(s.step))
	c2 := 1 - math32.Pow(a.Beta2, float32(s.step))

	gs, ms, vs := g.Raw(), s.first.Raw(), s.second.Raw()
	for i, x := range gs {
		ms[i] = a.Beta1*ms[i] + (1-a.Beta1)*x
		vs[i] = a.Beta2*vs[i] + (1-a.Beta2)*x*x
		gs[i] = a.LearningRate * (ms[i] / c1) / (math32.Sqrt(vs[i]/c2) + a.Epsilon)
	}
}

func (a *Adam) SetLearningRate(rate float32) { a.LearningRate = rate }

// Steps returns how many gradients layer index has received since Prepare.
func (a *Adam) Steps(index int) int {
	if s, ok := a.state[index]; ok {
		return s.step
	}
	return 0
}
