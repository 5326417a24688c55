package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/mat"

	"github.com/vanyle/vlearn/internal/check"
	"github.com/vanyle/vlearn/internal/rng"
)

// Matrix is a fixed-size row-major float32 matrix addressed as (row, col).
// Width is the number of columns and Height the number of rows.
type Matrix struct {
	rows, cols int
	data       []float32
}

// NewMatrix returns a zero-filled rows×cols matrix.
func NewMatrix(rows, cols int) *Matrix {
	check.That(rows >= 0 && cols >= 0, ErrShapeMismatch, "negative matrix shape %dx%d", rows, cols)
	return &Matrix{rows: rows, cols: cols, data: make([]float32, rows*cols)}
}

// MatrixOf builds a matrix from row slices, which must all have the same length.
func MatrixOf(rows ...[]float32) *Matrix {
	if len(rows) == 0 {
		return NewMatrix(0, 0)
	}
	m := NewMatrix(len(rows), len(rows[0]))
	for i, r := range rows {
		if len(r) != m.cols {
			check.Failf(ErrShapeMismatch, "MatrixOf: row %d has %d columns, want %d", i, len(r), m.cols)
		}
		copy(m.data[i*m.cols:], r)
	}
	return m
}

// Height returns the number of rows.
func (m *Matrix) Height() int { return m.rows }

// Width returns the number of columns.
func (m *Matrix) Width() int { return m.cols }

// Dims returns (rows, cols).
func (m *Matrix) Dims() (int, int) { return m.rows, m.cols }

func (m *Matrix) offset(r, c int) int {
	if r < 0 || r >= m.rows || c < 0 || c >= m.cols {
		check.Failf(ErrIndexOutOfRange, "matrix index (%d, %d), shape %dx%d", r, c, m.rows, m.cols)
	}
	return r*m.cols + c
}

// At returns the element at (r, c).
func (m *Matrix) At(r, c int) float32 {
	return m.data[m.offset(r, c)]
}

// Set assigns the element at (r, c).
func (m *Matrix) Set(r, c int, v float32) {
	m.data[m.offset(r, c)] = v
}

// Inc adds v to the element at (r, c).
func (m *Matrix) Inc(r, c int, v float32) {
	m.data[m.offset(r, c)] += v
}

// Raw exposes the row-major backing slice.
func (m *Matrix) Raw() []float32 {
	return m.data
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	c := &Matrix{rows: m.rows, cols: m.cols, data: make([]float32, len(m.data))}
	copy(c.data, m.data)
	return c
}

// Move transfers the buffer to a new matrix and leaves m empty (0×0).
func (m *Matrix) Move() *Matrix {
	n := &Matrix{rows: m.rows, cols: m.cols, data: m.data}
	m.rows, m.cols, m.data = 0, 0, nil
	return n
}

func (m *Matrix) general() blas32.General {
	return blas32.General{Rows: m.rows, Cols: m.cols, Stride: m.cols, Data: m.data}
}

func (m *Matrix) flat() blas32.Vector {
	return blas32.Vector{N: len(m.data), Data: m.data, Inc: 1}
}

func mustSameShape(op string, a, b *Matrix) {
	if a.rows != b.rows || a.cols != b.cols {
		check.Failf(ErrShapeMismatch, "%s: shapes %dx%d and %dx%d", op, a.rows, a.cols, b.rows, b.cols)
	}
}

// Fill sets every element to v.
func (m *Matrix) Fill(v float32) {
	for i := range m.data {
		m.data[i] = v
	}
}

// FillRandom sets every element to (u-0.5)*2*dev + mean, u drawn in [0, 1]
// from the shared generator.
func (m *Matrix) FillRandom(dev, mean float32) {
	for i := range m.data {
		m.data[i] = (rng.Float()-0.5)*2*dev + mean
	}
}

// Add adds o to m element by element, in place.
func (m *Matrix) Add(o *Matrix) {
	mustSameShape("Matrix.Add", m, o)
	if len(m.data) == 0 {
		return
	}
	blas32.Axpy(1, o.flat(), m.flat())
}

// Sub subtracts o from m element by element, in place.
func (m *Matrix) Sub(o *Matrix) {
	mustSameShape("Matrix.Sub", m, o)
	if len(m.data) == 0 {
		return
	}
	blas32.Axpy(-1, o.flat(), m.flat())
}

// Scale multiplies every element by f.
func (m *Matrix) Scale(f float32) {
	if len(m.data) == 0 {
		return
	}
	blas32.Scal(f, m.flat())
}

// Div divides every element by f.
func (m *Matrix) Div(f float32) {
	for i := range m.data {
		m.data[i] /= f
	}
}

// TransposeInPlace transposes a square matrix without copying.
func (m *Matrix) TransposeInPlace() {
	if m.rows != m.cols {
		check.Failf(ErrShapeMismatch, "TransposeInPlace: matrix is %dx%d, not square", m.rows, m.cols)
	}
	n := m.rows
	for r := 0; r < n; r++ {
		for c := r + 1; c < n; c++ {
			m.data[r*n+c], m.data[c*n+r] = m.data[c*n+r], m.data[r*n+c]
		}
	}
}

// T returns a transposed copy.
func (m *Matrix) T() *Matrix {
	t := NewMatrix(m.cols, m.rows)
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			t.data[c*m.rows+r] = m.data[r*m.cols+c]
		}
	}
	return t
}

// Apply returns m·v. v must have Width elements.
func (m *Matrix) Apply(v *Vector) *Vector {
	if v.Len() != m.cols {
		check.Failf(ErrShapeMismatch, "Matrix.Apply: vector size %d, matrix width %d", v.Len(), m.cols)
	}
	r := NewVector(m.rows)
	if m.rows == 0 || m.cols == 0 {
		return r
	}
	blas32.Gemv(blas.NoTrans, 1, m.general(), v.blas(), 0, r.blas())
	return r
}

// ApplyTranspose returns mᵀ·v without materializing mᵀ. v must have Height
// elements. For any compatible v and w, ⟨m·v, w⟩ = ⟨v, mᵀ·w⟩.
func (m *Matrix) ApplyTranspose(v *Vector) *Vector {
	if v.Len() != m.rows {
		check.Failf(ErrShapeMismatch, "Matrix.ApplyTranspose: vector size %d, matrix height %d", v.Len(), m.rows)
	}
	r := NewVector(m.cols)
	if m.rows == 0 || m.cols == 0 {
		return r
	}
	blas32.Gemv(blas.Trans, 1, m.general(), v.blas(), 0, r.blas())
	return r
}

// Mul returns a·b. a.Width must equal b.Height.
func Mul(a, b *Matrix) *Matrix {
	if a.cols != b.rows {
		check.Failf(ErrShapeMismatch, "linalg.Mul: %dx%d times %dx%d", a.rows, a.cols, b.rows, b.cols)
	}
	r := NewMatrix(a.rows, b.cols)
	if a.rows == 0 || a.cols == 0 || b.cols == 0 {
		return r
	}
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, a.general(), b.general(), 0, r.general())
	return r
}

// Dense returns a float64 copy of m for use with gonum/mat.
func (m *Matrix) Dense() *mat.Dense {
	if m.rows == 0 || m.cols == 0 {
		return &mat.Dense{}
	}
	data := make([]float64, len(m.data))
	for i, v := range m.data {
		data[i] = float64(v)
	}
	return mat.NewDense(m.rows, m.cols, data)
}

// String formats m row by row with three decimals.
func (m *Matrix) String() string {
	if m.rows == 0 || m.cols == 0 {
		return "[]"
	}
	return fmt.Sprintf("%.3f", mat.Formatted(m.Dense(), mat.Squeeze()))
}
