// Package layer provides the building blocks of a feed-forward network.
//
// Each layer evaluates itself (Apply) and its own vector-Jacobian product
// (ApplyGradient); there is no computation graph. The set of layers is closed:
// Dense, Conv, BatchNorm and SoftMax.
package layer

import (
	"errors"
	"fmt"

	"github.com/vanyle/vlearn/internal/check"
	"github.com/vanyle/vlearn/internal/linalg"
)

var (
	// ErrNotLearnable is wrapped by the panic raised when weights are pushed
	// into a layer that has none.
	ErrNotLearnable = errors.New("layer: not learnable")
	// ErrNoBias is wrapped by the panic raised when a bias update reaches a
	// layer without a bias.
	ErrNoBias = errors.New("layer: no bias")
)

// Kind identifies a layer variant.
type Kind uint8

const (
	KindDense Kind = iota
	KindConv
	KindBatchNorm
	KindSoftMax
)

func (k Kind) String() string {
	switch k {
	case KindDense:
		return "Dense"
	case KindConv:
		return "Conv"
	case KindBatchNorm:
		return "BatchNorm"
	case KindSoftMax:
		return "SoftMax"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Layer is one stage of a network. Input and output sizes are fixed at
// construction.
type Layer interface {
	InputSize() int
	OutputSize() int

	// Learnable reports whether UpdateMatrix may be called.
	Learnable() bool
	// HasBias reports whether UpdateBias may be called.
	HasBias() bool

	// Apply evaluates the layer on x, which must have InputSize elements.
	Apply(x *linalg.Vector) *linalg.Vector

	// ApplyGradient maps a gradient v with OutputSize elements back to the
	// layer input. eval is the value this layer was applied to during the
	// forward pass and prev is the value one stage earlier (nil for the
	// first layer).
	ApplyGradient(v, eval, prev *linalg.Vector) *linalg.Vector

	// UpdateMatrix subtracts a weight gradient shaped OutputSize×InputSize,
	// already scaled by the learning rate.
	UpdateMatrix(g *linalg.Matrix)
	// UpdateBias subtracts a bias gradient with OutputSize elements.
	UpdateBias(v *linalg.Vector)

	Kind() Kind
	String() string

	sealed()
}

// base holds the sizes shared by every variant.
type base struct {
	in, out int
}

func (b base) InputSize() int  { return b.in }
func (b base) OutputSize() int { return b.out }
func (b base) sealed()         {}

func (b base) mustInput(op string, x *linalg.Vector) {
	if x.Len() != b.in {
		check.Failf(linalg.ErrShapeMismatch, "%s: input size %d, layer takes %d", op, x.Len(), b.in)
	}
}

func (b base) mustOutput(op string, v *linalg.Vector) {
	if v.Len() != b.out {
		check.Failf(linalg.ErrShapeMismatch, "%s: gradient size %d, layer produces %d", op, v.Len(), b.out)
	}
}

// frozen implements the update methods of layers without parameters.
type frozen struct{}

func (frozen) Learnable() bool { return false }
func (frozen) HasBias() bool   { return false }

func (frozen) UpdateMatrix(*linalg.Matrix) {
	check.Failf(ErrNotLearnable, "UpdateMatrix called on a layer without weights")
}

func (frozen) UpdateBias(*linalg.Vector) {
	check.Failf(ErrNoBias, "UpdateBias called on a layer without bias")
}
