package layer

import (
	"fmt"

	"github.com/vanyle/vlearn/internal/linalg"
)

// SoftMax turns its input into a probability distribution. It is normally
// the last layer of a classifier.
type SoftMax struct {
	base
	frozen
}

// NewSoftMax creates a softmax layer over size values.
func NewSoftMax(size int) *SoftMax {
	return &SoftMax{base: base{in: size, out: size}}
}

func (s *SoftMax) Kind() Kind { return KindSoftMax }

func (s *SoftMax) Apply(x *linalg.Vector) *linalg.Vector {
	s.mustInput("SoftMax.Apply", x)
	return x.Softmax()
}

// ApplyGradient multiplies v by the transposed Jacobian of softmax at eval,
// J_ij = s_i(δ_ij - s_j) with s = softmax(eval).
func (s *SoftMax) ApplyGradient(v, eval, _ *linalg.Vector) *linalg.Vector {
	s.mustOutput("SoftMax.ApplyGradient", v)
	s.mustInput("SoftMax.ApplyGradient", eval)
	return Jacobian(eval).ApplyTranspose(v)
}

func (s *SoftMax) String() string {
	return fmt.Sprintf("SoftMax %d", s.in)
}

// Jacobian returns the n×n Jacobian of softmax evaluated at x.
func Jacobian(x *linalg.Vector) *linalg.Matrix {
	p := x.Softmax()
	n := p.Len()
	j := linalg.NewMatrix(n, n)
	for r := 0; r < n; r++ {
		pr := p.At(r)
		for c := 0; c < n; c++ {
			if r == c {
				j.Set(r, c, pr*(1-pr))
			} else {
				j.Set(r, c, -pr*p.At(c))
			}
		}
	}
	return j
}
