// Package loss provides the error functions a network is trained against.
//
// Each Kind carries both the scalar error and its gradient with respect to the
// network output, as a pair.
package loss

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/vanyle/vlearn/internal/check"
	"github.com/vanyle/vlearn/internal/linalg"
)

// ErrNotDistribution is wrapped by the panic raised when cross-entropy is
// evaluated on an output that is not a probability distribution.
var ErrNotDistribution = errors.New("loss: output is not a probability distribution")

// FlatThreshold is the squared residual norm under which the L2 gradient is
// reported as zero.
const FlatThreshold = 1e-5

// Kind selects an error function.
type Kind uint8

const (
	// L2 is the Euclidean norm of the residual, |y - t|. Its gradient is the
	// unit residual direction.
	L2 Kind = iota
	// CrossEntropy is -Σ t_i log2(y_i). It requires y to be a probability
	// distribution, typically produced by a trailing SoftMax layer.
	CrossEntropy
)

func (k Kind) String() string {
	switch k {
	case L2:
		return "L2"
	case CrossEntropy:
		return "CrossEntropy"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Error computes the loss between the network output and the expected value.
func (k Kind) Error(output, expected *linalg.Vector) float32 {
	switch k {
	case L2:
		return linalg.Sub(output, expected).Norm()
	case CrossEntropy:
		return crossEntropy(output, expected)
	default:
		panic(fmt.Sprintf("loss: unknown kind %d", k))
	}
}

// Gradient computes ∂loss/∂output. A zero vector means the gradient is not
// usable for this pair and the sample should be skipped.
func (k Kind) Gradient(output, expected *linalg.Vector) *linalg.Vector {
	switch k {
	case L2:
		r := linalg.Sub(output, expected)
		if r.NormSquared() < FlatThreshold {
			r.Fill(0)
			return r
		}
		r.Div(r.Norm())
		return r
	case CrossEntropy:
		return crossEntropyGradient(output, expected)
	default:
		panic(fmt.Sprintf("loss: unknown kind %d", k))
	}
}

func crossEntropy(output, expected *linalg.Vector) float32 {
	mustDistribution(output, expected)
	var r float32
	for i, p := range output.Raw() {
		r -= expected.At(i) * math32.Log2(p)
	}
	return r
}

// crossEntropyGradient returns -t_i / (y_i ln 2). Pulled back through the
// softmax Jacobian it becomes (y - t) / ln 2.
func crossEntropyGradient(output, expected *linalg.Vector) *linalg.Vector {
	mustDistribution(output, expected)
	g := linalg.NewVector(output.Len())
	gs := g.Raw()
	for i, p := range output.Raw() {
		gs[i] = -expected.At(i) / (p * math32.Ln2)
	}
	return g
}

func mustDistribution(output, expected *linalg.Vector) {
	if output.Len() != expected.Len() {
		check.Failf(linalg.ErrShapeMismatch, "CrossEntropy: sizes %d and %d", output.Len(), expected.Len())
	}
	for i, p := range output.Raw() {
		if p <= 0 {
			check.Failf(ErrNotDistribution, "component %d is %v; is the network missing a trailing SoftMax layer?", i, p)
		}
	}
}
