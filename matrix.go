package qsim

import (
	"fmt"
	"math/bits"
)

/*
Matrix is a dense square complex matrix stored row-major. Index bit l of a
row or column refers to the l-th qubit of the id list the matrix is paired
with, least significant first.
*/
type Matrix struct {
	dim  int
	data []complex128
}

// Identity returns the dim×dim identity.
func Identity(dim int) Matrix {
	m := Matrix{dim: dim, data: make([]complex128, dim*dim)}
	for i := 0; i < dim; i++ {
		m.data[i*dim+i] = 1
	}
	return m
}

/*
NewMatrix copies rows into a Matrix. The rows must form a square matrix whose
dimension is a power of two.
*/
func NewMatrix(rows [][]complex128) (Matrix, error) {
	dim := len(rows)
	if dim == 0 || dim&(dim-1) != 0 {
		return Matrix{}, fmt.Errorf("dimension %d: %w", dim, ErrInvalidMatrix)
	}

	m := Matrix{dim: dim, data: make([]complex128, dim*dim)}
	for i, row := range rows {
		if len(row) != dim {
			return Matrix{}, fmt.Errorf("row %d has %d entries, want %d: %w", i, len(row), dim, ErrInvalidMatrix)
		}
		copy(m.data[i*dim:], row)
	}

	return m, nil
}

// Dim returns the number of rows.
func (m Matrix) Dim() int {
	return m.dim
}

// Qubits returns log2 of the dimension.
func (m Matrix) Qubits() int {
	return bits.TrailingZeros(uint(m.dim))
}

func (m Matrix) At(i, j int) complex128 {
	return m.data[i*m.dim+j]
}

// Rows returns a copy of m as a slice of rows.
func (m Matrix) Rows() [][]complex128 {
	out := make([][]complex128, m.dim)
	for i := range out {
		out[i] = append([]complex128(nil), m.data[i*m.dim:(i+1)*m.dim]...)
	}
	return out
}

// Mul returns m·o.
func (m Matrix) Mul(o Matrix) Matrix {
	n := m.dim
	out := Matrix{dim: n, data: make([]complex128, n*n)}

	for i := 0; i < n; i++ {
		row := m.data[i*n : (i+1)*n]
		dst := out.data[i*n : (i+1)*n]
		for k, a := range row {
			if a == 0 {
				continue
			}
			src := o.data[k*n : (k+1)*n]
			for j, b := range src {
				dst[j] += a * b
			}
		}
	}

	return out
}

/*
Controlled extends m by ctrls additional high-order qubits. The result acts as
the identity unless every added qubit is 1, in which case it acts as m.
*/
func (m Matrix) Controlled(ctrls int) Matrix {
	if ctrls == 0 {
		return m
	}

	dim := m.dim << uint(ctrls)
	out := Identity(dim)
	offset := dim - m.dim

	for i := 0; i < m.dim; i++ {
		for j := 0; j < m.dim; j++ {
			out.data[(offset+i)*dim+offset+j] = m.data[i*m.dim+j]
		}
	}

	return out
}

/*
Embed re-expresses m, which acts on len(at) qubits, in a space of width
qubits. Qubit l of m lands on bit at[l] of the wider index; every other bit is
left untouched.
*/
func (m Matrix) Embed(at []int, width int) Matrix {
	dim := 1 << uint(width)
	out := Matrix{dim: dim, data: make([]complex128, dim*dim)}

	var mask int
	for _, p := range at {
		mask |= 1 << uint(p)
	}

	local := func(i int) int {
		var l int
		for b, p := range at {
			l |= ((i >> uint(p)) & 1) << uint(b)
		}
		return l
	}

	for i := 0; i < dim; i++ {
		li := local(i)
		for j := 0; j < dim; j++ {
			if i&^mask != j&^mask {
				continue
			}
			out.data[i*dim+j] = m.data[li*m.dim+local(j)]
		}
	}

	return out
}

// IsUnitary reports whether m·m† is the identity within tol.
func (m Matrix) IsUnitary(tol float64) bool {
	n := m.dim
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var sum complex128
			for k := 0; k < n; k++ {
				a := m.data[i*n+k]
				b := m.data[j*n+k]
				sum += a * complex(real(b), -imag(b))
			}
			want := complex128(0)
			if i == j {
				want = 1
			}
			d := sum - want
			if real(d)*real(d)+imag(d)*imag(d) > tol*tol {
				return false
			}
		}
	}
	return true
}
