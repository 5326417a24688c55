package layer

import (
	"fmt"

	"github.com/vanyle/vlearn/internal/activations"
	"github.com/vanyle/vlearn/internal/check"
	"github.com/vanyle/vlearn/internal/linalg"
)

// Dense is a fully connected layer: y = act(Wx + b).
// W is stored OutputSize×InputSize so that Apply is a plain matrix-vector
// product. Weights and bias start at zero; call RandomInit before training.
type Dense struct {
	base
	weights *linalg.Matrix
	bias    *linalg.Vector
	act     activations.Kind
}

// NewDense creates an in→out dense layer.
func NewDense(in, out int, act activations.Kind) *Dense {
	check.That(in > 0 && out > 0, linalg.ErrShapeMismatch, "NewDense: sizes %dx%d", in, out)
	return &Dense{
		base:    base{in: in, out: out},
		weights: linalg.NewMatrix(out, in),
		bias:    linalg.NewVector(out),
		act:     act,
	}
}

// RandomInit draws every weight uniformly in [mean-dev, mean+dev] from the
// shared generator. The bias is left untouched.
func (d *Dense) RandomInit(dev, mean float32) {
	d.weights.FillRandom(dev, mean)
}

// Weights returns the live weight matrix.
func (d *Dense) Weights() *linalg.Matrix { return d.weights }

// Bias returns the live bias vector.
func (d *Dense) Bias() *linalg.Vector { return d.bias }

// Activation returns the activation function.
func (d *Dense) Activation() activations.Kind { return d.act }

func (d *Dense) Learnable() bool { return true }
func (d *Dense) HasBias() bool   { return true }
func (d *Dense) Kind() Kind      { return KindDense }

func (d *Dense) Apply(x *linalg.Vector) *linalg.Vector {
	d.mustInput("Dense.Apply", x)
	y := d.weights.Apply(x)
	y.Add(d.bias)
	ys := y.Raw()
	for i, z := range ys {
		ys[i] = d.act.Activate(z)
	}
	return y
}

// ApplyGradient returns Wᵀv scaled element-wise by act'(eval). The
// derivative is taken from activation outputs, so eval is expected to come
// out of a previous layer with the same activation.
func (d *Dense) ApplyGradient(v, eval, _ *linalg.Vector) *linalg.Vector {
	d.mustOutput("Dense.ApplyGradient", v)
	d.mustInput("Dense.ApplyGradient", eval)
	r := d.weights.ApplyTranspose(v)
	rs := r.Raw()
	for i, y := range eval.Raw() {
		rs[i] *= d.act.Derivative(y)
	}
	return r
}

func (d *Dense) UpdateMatrix(g *linalg.Matrix) {
	d.weights.Sub(g)
}

func (d *Dense) UpdateBias(v *linalg.Vector) {
	d.bias.Sub(v)
}

func (d *Dense) String() string {
	return fmt.Sprintf("Dense %dx%d (%s)", d.in, d.out, d.act)
}
