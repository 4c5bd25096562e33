package qsim

import (
	"slices"

	"golang.org/x/exp/constraints"
)

// Amplitude is the element type of a state vector.
type Amplitude interface {
	constraints.Complex
}

/*
kernelPlan is the index bookkeeping shared by every kernel backend for one
fused gate: the amplitude offsets of the 2^k sub-vector entries and the
target positions in ascending order for stride expansion.
*/
type kernelPlan struct {
	k        int
	dim      int
	offsets  []int
	sorted   []int
	strides  int
	ctrlmask uint64
}

/*
newKernelPlan prepares a kernel pass over a vector of length n. Matrix index
bit l corresponds to positions[l].
*/
func newKernelPlan(n int, positions []int, ctrlmask uint64) kernelPlan {
	k := len(positions)
	dim := 1 << uint(k)

	offsets := make([]int, dim)
	for j := 0; j < dim; j++ {
		for l, p := range positions {
			if j>>uint(l)&1 == 1 {
				offsets[j] |= 1 << uint(p)
			}
		}
	}

	sorted := slices.Clone(positions)
	slices.Sort(sorted)

	return kernelPlan{
		k:        k,
		dim:      dim,
		offsets:  offsets,
		sorted:   sorted,
		strides:  n >> uint(k),
		ctrlmask: ctrlmask,
	}
}

/*
base maps stride number c to the index of the first entry of its sub-vector
by inserting a zero bit at every target position, lowest first. Consecutive
strides therefore walk memory with the smallest untouched step innermost.
*/
func (plan *kernelPlan) base(c int) int {
	i := uint64(c)
	for _, p := range plan.sorted {
		low := i & (1<<uint(p) - 1)
		i = (i^low)<<1 | low
	}
	return int(i)
}

// skip reports whether the sub-vector at base fails the control mask.
func (plan *kernelPlan) skip(base int) bool {
	return uint64(base)&plan.ctrlmask != plan.ctrlmask
}

// entries converts m to the amplitude type, row-major.
func entries[T Amplitude](m Matrix) []T {
	out := make([]T, len(m.data))
	for i, v := range m.data {
		out[i] = T(v)
	}
	return out
}

/*
applyKernel multiplies every sub-vector of psi spanned by positions with m,
leaving sub-vectors that fail ctrlmask untouched. One- and two-qubit matrices
get unrolled cores; wider ones share the generic core.
*/
func applyKernel[T Amplitude](q *Q, psi []T, positions []int, m Matrix, ctrlmask uint64) {
	plan := newKernelPlan(len(psi), positions, ctrlmask)
	mat := entries[T](m)

	switch plan.k {
	case 1:
		d0 := plan.offsets[1]
		q.Parallel(plan.strides, func(lo, hi int) {
			for c := lo; c < hi; c++ {
				if i := plan.base(c); !plan.skip(i) {
					kernelCore1(psi, i, d0, mat)
				}
			}
		})
	case 2:
		d0, d1 := plan.offsets[1], plan.offsets[2]
		q.Parallel(plan.strides, func(lo, hi int) {
			for c := lo; c < hi; c++ {
				if i := plan.base(c); !plan.skip(i) {
					kernelCore2(psi, i, d0, d1, mat)
				}
			}
		})
	default:
		q.Parallel(plan.strides, func(lo, hi int) {
			var v [1 << MaxKernelArity]T
			for c := lo; c < hi; c++ {
				if i := plan.base(c); !plan.skip(i) {
					kernelCoreN(psi, i, plan.offsets, mat, v[:plan.dim])
				}
			}
		})
	}
}

func kernelCore1[T Amplitude](psi []T, i, d0 int, m []T) {
	v0, v1 := psi[i], psi[i+d0]

	psi[i] = m[0]*v0 + m[1]*v1
	psi[i+d0] = m[2]*v0 + m[3]*v1
}

func kernelCore2[T Amplitude](psi []T, i, d0, d1 int, m []T) {
	v0 := psi[i]
	v1 := psi[i+d0]
	v2 := psi[i+d1]
	v3 := psi[i+d0+d1]

	psi[i] = m[0]*v0 + m[1]*v1 + m[2]*v2 + m[3]*v3
	psi[i+d0] = m[4]*v0 + m[5]*v1 + m[6]*v2 + m[7]*v3
	psi[i+d1] = m[8]*v0 + m[9]*v1 + m[10]*v2 + m[11]*v3
	psi[i+d0+d1] = m[12]*v0 + m[13]*v1 + m[14]*v2 + m[15]*v3
}

// kernelCoreN handles any width; v is scratch space of length 2^k.
func kernelCoreN[T Amplitude](psi []T, i int, offsets []int, m []T, v []T) {
	dim := len(v)
	for j, off := range offsets {
		v[j] = psi[i+off]
	}

	for r, off := range offsets {
		row := m[r*dim : (r+1)*dim]
		var sum T
		for c, a := range v {
			sum += row[c] * a
		}
		psi[i+off] = sum
	}
}
