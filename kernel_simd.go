package qsim

import (
	"github.com/ajroetker/go-highway/hwy/contrib/matvec"
)

/*
realify lays a complex matrix M = A + iB out as the real 2d x 2d matrix that
acts on a sub-vector stored as interleaved (re, im) pairs:

	[ A  -B ]
	[ B   A ]

with every complex entry expanded in place to a 2x2 block.
*/
func realify(m Matrix) []float64 {
	dim := m.Dim()
	width := 2 * dim
	out := make([]float64, width*width)

	for r := 0; r < dim; r++ {
		for c := 0; c < dim; c++ {
			a, b := real(m.At(r, c)), imag(m.At(r, c))

			out[(2*r)*width+2*c] = a
			out[(2*r)*width+2*c+1] = -b
			out[(2*r+1)*width+2*c] = b
			out[(2*r+1)*width+2*c+1] = a
		}
	}

	return out
}

/*
applyKernelSIMD is the vectorized backend. Each sub-vector is gathered into an
interleaved float buffer, multiplied with the realified matrix by the highway
matvec routine, and scattered back. Named complex types the type switch cannot
see fall back to the scalar kernel.
*/
func applyKernelSIMD[T Amplitude](q *Q, psi []T, positions []int, m Matrix, ctrlmask uint64) {
	switch v := any(psi).(type) {
	case []complex128:
		simdKernel64(q, v, positions, m, ctrlmask)
	case []complex64:
		simdKernel32(q, v, positions, m, ctrlmask)
	default:
		applyKernel(q, psi, positions, m, ctrlmask)
	}
}

func simdKernel64(q *Q, psi []complex128, positions []int, m Matrix, ctrlmask uint64) {
	plan := newKernelPlan(len(psi), positions, ctrlmask)
	r := realify(m)
	width := 2 * plan.dim

	q.Parallel(plan.strides, func(lo, hi int) {
		var in, out [2 << MaxKernelArity]float64

		for c := lo; c < hi; c++ {
			i := plan.base(c)
			if plan.skip(i) {
				continue
			}

			for j, off := range plan.offsets {
				in[2*j], in[2*j+1] = real(psi[i+off]), imag(psi[i+off])
			}

			matvec.MatVec(r, width, width, in[:width], out[:width])

			for j, off := range plan.offsets {
				psi[i+off] = complex(out[2*j], out[2*j+1])
			}
		}
	})
}

func simdKernel32(q *Q, psi []complex64, positions []int, m Matrix, ctrlmask uint64) {
	plan := newKernelPlan(len(psi), positions, ctrlmask)
	width := 2 * plan.dim

	r64 := realify(m)
	r := make([]float32, len(r64))
	for i, x := range r64 {
		r[i] = float32(x)
	}

	q.Parallel(plan.strides, func(lo, hi int) {
		var in, out [2 << MaxKernelArity]float32

		for c := lo; c < hi; c++ {
			i := plan.base(c)
			if plan.skip(i) {
				continue
			}

			for j, off := range plan.offsets {
				in[2*j], in[2*j+1] = real(psi[i+off]), imag(psi[i+off])
			}

			matvec.MatVec(r, width, width, in[:width], out[:width])

			for j, off := range plan.offsets {
				psi[i+off] = complex(out[2*j], out[2*j+1])
			}
		}
	})
}
