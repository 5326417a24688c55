// Package linalg provides the fixed-size float32 vectors and matrices the
// network layers are built on.
//
// Sizes are fixed at construction. Every binary operation checks that its
// operands agree and panics with an error wrapping ErrShapeMismatch when they
// do not; element access panics with ErrIndexOutOfRange. The dense kernels are
// delegated to gonum's float32 BLAS.
package linalg

import (
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/vanyle/vlearn/internal/check"
	"github.com/vanyle/vlearn/internal/rng"
)

// Vector is a fixed-size column of float32 values.
type Vector struct {
	data []float32
}

// NewVector returns a zero-filled vector of the given size.
func NewVector(size int) *Vector {
	check.That(size >= 0, ErrShapeMismatch, "negative vector size %d", size)
	return &Vector{data: make([]float32, size)}
}

// VectorOf returns a vector holding a copy of values.
func VectorOf(values ...float32) *Vector {
	data := make([]float32, len(values))
	copy(data, values)
	return &Vector{data: data}
}

// Len returns the number of elements.
func (v *Vector) Len() int {
	return len(v.data)
}

// At returns element i.
func (v *Vector) At(i int) float32 {
	if i < 0 || i >= len(v.data) {
		check.Failf(ErrIndexOutOfRange, "vector index %d, size %d", i, len(v.data))
	}
	return v.data[i]
}

// Set assigns element i.
func (v *Vector) Set(i int, x float32) {
	if i < 0 || i >= len(v.data) {
		check.Failf(ErrIndexOutOfRange, "vector index %d, size %d", i, len(v.data))
	}
	v.data[i] = x
}

// Raw exposes the backing slice. Writes through it are visible to v.
func (v *Vector) Raw() []float32 {
	return v.data
}

// Clone returns a deep copy.
func (v *Vector) Clone() *Vector {
	return VectorOf(v.data...)
}

// Move transfers the buffer to a new vector and leaves v empty (size 0).
func (v *Vector) Move() *Vector {
	w := &Vector{data: v.data}
	v.data = nil
	return w
}

func (v *Vector) blas() blas32.Vector {
	return blas32.Vector{N: len(v.data), Data: v.data, Inc: 1}
}

func mustSameLen(op string, a, b *Vector) {
	if len(a.data) != len(b.data) {
		check.Failf(ErrShapeMismatch, "%s: sizes %d and %d", op, len(a.data), len(b.data))
	}
}

// Fill sets every element to x.
func (v *Vector) Fill(x float32) {
	for i := range v.data {
		v.data[i] = x
	}
}

// FillRandom sets every element to a draw in [0, 1] from the shared generator.
func (v *Vector) FillRandom() {
	for i := range v.data {
		v.data[i] = rng.Float()
	}
}

// NormSquared returns the squared Euclidean norm.
func (v *Vector) NormSquared() float32 {
	if len(v.data) == 0 {
		return 0
	}
	return blas32.Dot(v.blas(), v.blas())
}

// Norm returns the Euclidean norm.
func (v *Vector) Norm() float32 {
	if len(v.data) == 0 {
		return 0
	}
	return blas32.Nrm2(v.blas())
}

// Add adds w to v in place.
func (v *Vector) Add(w *Vector) {
	mustSameLen("Vector.Add", v, w)
	if len(v.data) == 0 {
		return
	}
	blas32.Axpy(1, w.blas(), v.blas())
}

// Sub subtracts w from v in place.
func (v *Vector) Sub(w *Vector) {
	mustSameLen("Vector.Sub", v, w)
	if len(v.data) == 0 {
		return
	}
	blas32.Axpy(-1, w.blas(), v.blas())
}

// MulElem multiplies v by w element by element, in place.
func (v *Vector) MulElem(w *Vector) {
	mustSameLen("Vector.MulElem", v, w)
	for i, x := range w.data {
		v.data[i] *= x
	}
}

// Scale multiplies every element by f.
func (v *Vector) Scale(f float32) {
	if len(v.data) == 0 {
		return
	}
	blas32.Scal(f, v.blas())
}

// Div divides every element by f. Dividing by zero follows IEEE rules.
func (v *Vector) Div(f float32) {
	for i := range v.data {
		v.data[i] /= f
	}
}

// Softmax returns exp(v_i) / sum_j exp(v_j). The maximum is subtracted before
// exponentiation, which leaves the result unchanged but keeps exp finite.
func (v *Vector) Softmax() *Vector {
	r := NewVector(len(v.data))
	if len(v.data) == 0 {
		return r
	}
	m := v.data[0]
	for _, x := range v.data[1:] {
		if x > m {
			m = x
		}
	}
	var sum float32
	for i, x := range v.data {
		e := math32.Exp(x - m)
		r.data[i] = e
		sum += e
	}
	r.Div(sum)
	return r
}

// String formats v as "[ a b c ]" with three decimals.
func (v *Vector) String() string {
	var sb strings.Builder
	sb.WriteString("[ ")
	for _, x := range v.data {
		sb.WriteString(strconv.FormatFloat(float64(x), 'f', 3, 32))
		sb.WriteByte(' ')
	}
	sb.WriteByte(']')
	return sb.String()
}

// Add returns a + b.
func Add(a, b *Vector) *Vector {
	mustSameLen("linalg.Add", a, b)
	r := a.Clone()
	r.Add(b)
	return r
}

// Sub returns a - b.
func Sub(a, b *Vector) *Vector {
	mustSameLen("linalg.Sub", a, b)
	r := a.Clone()
	r.Sub(b)
	return r
}

// Dot returns aᵀb.
func Dot(a, b *Vector) float32 {
	mustSameLen("linalg.Dot", a, b)
	if len(a.data) == 0 {
		return 0
	}
	return blas32.Dot(a.blas(), b.blas())
}

// CrossNorm returns the outer product a·bᵀ: a matrix with a.Len() rows and
// b.Len() columns whose entry (i, j) is a[i]*b[j]. With a = ∂L/∂y and b = x it
// is the weight gradient ∂L/∂W of y = Wx.
func CrossNorm(a, b *Vector) *Matrix {
	m := NewMatrix(len(a.data), len(b.data))
	if len(a.data) == 0 || len(b.data) == 0 {
		return m
	}
	blas32.Ger(1, a.blas(), b.blas(), m.general())
	return m
}
