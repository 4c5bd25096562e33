package qsim

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
)

/*
StateVector holds the 2^N amplitudes of N qubits. Bit p of an amplitude index
is the value of the qubit at position p. It knows nothing about qubit ids;
callers translate ids to positions first.
*/
type StateVector[T Amplitude] struct {
	amplitudes []T
	qubits     int
	tolerance  float64
	simd       bool
	rng        *rand.Rand
	pool       *Q
}

/*
NewStateVector returns the zero-qubit state, a single amplitude of 1.

Parameters:
  - config: tolerance, seed and kernel backend
  - pool: runs kernels and bulk scans

Returns:
  - *StateVector[T]: the empty register
*/
func NewStateVector[T Amplitude](config *Config, pool *Q) *StateVector[T] {
	return &StateVector[T]{
		amplitudes: []T{1},
		tolerance:  config.Tolerance,
		simd:       config.Kernel == KernelSIMD,
		rng:        rand.New(rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15)),
		pool:       pool,
	}
}

// Qubits returns the number of qubits the vector spans.
func (sv *StateVector[T]) Qubits() int {
	return sv.qubits
}

func (sv *StateVector[T]) Len() int {
	return len(sv.amplitudes)
}

// Amplitudes returns a copy of the raw amplitudes.
func (sv *StateVector[T]) Amplitudes() []T {
	return slices.Clone(sv.amplitudes)
}

// AllocateQubit appends a qubit in |0> at position N.
func (sv *StateVector[T]) AllocateQubit() {
	next := make([]T, 2*len(sv.amplitudes))
	copy(next, sv.amplitudes)

	sv.amplitudes = next
	sv.qubits++
}

/*
DeallocateQubit removes the qubit at pos, which must be classical. The half
of the vector matching its value is kept without renormalizing, and every
higher position moves down by one.
*/
func (sv *StateVector[T]) DeallocateQubit(pos int) error {
	value, err := sv.ClassicalValue(pos)
	if err != nil {
		return err
	}

	delta := 1 << uint(pos)
	offset := 0
	if value {
		offset = delta
	}

	next := make([]T, len(sv.amplitudes)/2)
	blocks := len(sv.amplitudes) / (2 * delta)

	sv.pool.Parallel(blocks, func(lo, hi int) {
		for b := lo; b < hi; b++ {
			src := b*2*delta + offset
			copy(next[b*delta:(b+1)*delta], sv.amplitudes[src:src+delta])
		}
	})

	sv.amplitudes = next
	sv.qubits--

	return nil
}

// mass returns the total probability of indices i with i&mask == value.
func (sv *StateVector[T]) mass(mask, value uint64) float64 {
	if mask == 0 {
		return sv.Norm()
	}

	return sv.pool.Reduce(len(sv.amplitudes), func(lo, hi int) float64 {
		var sum float64
		for i := lo; i < hi; i++ {
			if uint64(i)&mask == value {
				sum += norm2(sv.amplitudes[i])
			}
		}
		return sum
	})
}

// Norm returns the squared norm of the whole vector.
func (sv *StateVector[T]) Norm() float64 {
	return sv.pool.Reduce(len(sv.amplitudes), func(lo, hi int) float64 {
		return sumSquares(sv.amplitudes[lo:hi])
	})
}

// halves returns the probability of the qubit at pos reading 0 and 1.
func (sv *StateVector[T]) halves(pos int) (float64, float64) {
	bit := uint64(1) << uint(pos)
	return sv.mass(bit, 0), sv.mass(bit, bit)
}

/*
IsClassical reports whether the qubit at pos has a definite value: exactly one
of its two half-spaces carries probability above the tolerance.
*/
func (sv *StateVector[T]) IsClassical(pos int) bool {
	p0, p1 := sv.halves(pos)
	return (p0 > sv.tolerance) != (p1 > sv.tolerance)
}

// ClassicalValue returns the definite value of the qubit at pos.
func (sv *StateVector[T]) ClassicalValue(pos int) (bool, error) {
	p0, p1 := sv.halves(pos)
	if (p0 > sv.tolerance) == (p1 > sv.tolerance) {
		return false, fmt.Errorf("position %d (p0=%g, p1=%g): %w", pos, p0, p1, ErrNotClassical)
	}

	return p1 > sv.tolerance, nil
}

// Apply runs one kernel pass of m over positions under ctrlmask.
func (sv *StateVector[T]) Apply(positions []int, m Matrix, ctrlmask uint64) {
	if sv.simd {
		applyKernelSIMD(sv.pool, sv.amplitudes, positions, m, ctrlmask)
		return
	}

	applyKernel(sv.pool, sv.amplitudes, positions, m, ctrlmask)
}

// maskValue packs a list of bit values at positions into an index mask and value.
func maskValue(bits []bool, positions []int) (uint64, uint64) {
	var mask, value uint64
	for i, p := range positions {
		mask |= 1 << uint(p)
		if bits[i] {
			value |= 1 << uint(p)
		}
	}
	return mask, value
}

/*
Measure samples the qubits at positions jointly, collapses the state onto the
outcome and renormalizes.

The sampler draws r in [0, 1) and picks the first index whose cumulative
probability exceeds r. Per-chunk masses are computed in parallel so only one
chunk is walked element by element. If rounding leaves the total short of r,
the last index with nonzero probability is taken.
*/
func (sv *StateVector[T]) Measure(positions []int) []bool {
	r := sv.rng.Float64()
	pick := sv.sample(r)

	bits := make([]bool, len(positions))
	for i, p := range positions {
		bits[i] = pick>>uint(p)&1 == 1
	}

	mask, value := maskValue(bits, positions)
	sv.project(mask, value, sv.mass(mask, value))

	return bits
}

func (sv *StateVector[T]) sample(r float64) int {
	partial, chunks := sv.pool.Partials(len(sv.amplitudes), func(lo, hi int) float64 {
		return sumSquares(sv.amplitudes[lo:hi])
	})

	var cumulative float64
	for c, p := range partial {
		if cumulative+p <= r {
			cumulative += p
			continue
		}

		for i := chunks[c][0]; i < chunks[c][1]; i++ {
			cumulative += norm2(sv.amplitudes[i])
			if cumulative > r {
				return i
			}
		}
	}

	for i := len(sv.amplitudes) - 1; i > 0; i-- {
		if norm2(sv.amplitudes[i]) > 0 {
			return i
		}
	}

	return 0
}

// project zeroes every amplitude inconsistent with mask/value and scales the rest by 1/sqrt(n).
func (sv *StateVector[T]) project(mask, value uint64, n float64) {
	scale := T(complex(1/math.Sqrt(n), 0))

	sv.pool.Parallel(len(sv.amplitudes), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if uint64(i)&mask == value {
				sv.amplitudes[i] *= scale
			} else {
				sv.amplitudes[i] = 0
			}
		}
	})
}

// Probability returns the probability that the qubits at positions read bits.
func (sv *StateVector[T]) Probability(bits []bool, positions []int) float64 {
	mask, value := maskValue(bits, positions)
	return sv.mass(mask, value)
}

/*
Amplitude returns the amplitude of one basis state. positions must name every
qubit exactly once.
*/
func (sv *StateVector[T]) Amplitude(bits []bool, positions []int) (T, error) {
	mask, value := maskValue(bits, positions)

	if len(positions) != sv.qubits || mask != uint64(len(sv.amplitudes)-1) {
		return 0, fmt.Errorf("%d positions for %d qubits: %w", len(positions), sv.qubits, ErrInvalidPermutation)
	}

	return sv.amplitudes[value], nil
}

// SetWavefunction overwrites the amplitudes. The length must be 2^N.
func (sv *StateVector[T]) SetWavefunction(amplitudes []T) error {
	if len(amplitudes) != len(sv.amplitudes) {
		return fmt.Errorf("%d amplitudes for %d qubits: %w", len(amplitudes), sv.qubits, ErrInvalidMapping)
	}

	copy(sv.amplitudes, amplitudes)
	return nil
}

/*
Collapse forces the qubits at positions onto values and renormalizes. An
outcome whose probability is below the tolerance is refused and the state is
left as it was.
*/
func (sv *StateVector[T]) Collapse(positions []int, values []bool) error {
	mask, value := maskValue(values, positions)

	n := sv.mass(mask, value)
	if n < sv.tolerance {
		return fmt.Errorf("probability %g: %w", n, ErrZeroProbability)
	}

	sv.project(mask, value, n)
	return nil
}

/*
EmulateMath applies a classical function to integer registers directly on the
basis states. Each register lists qubit positions, least significant bit
first. fn receives the register values and rewrites them in place. Basis
states failing ctrlmask are left where they are. Amplitudes landing on the
same index add up, so fn should be a bijection for the result to stay
normalized.
*/
func (sv *StateVector[T]) EmulateMath(fn func(values []int), registers [][]int, ctrlmask uint64) {
	next := make([]T, len(sv.amplitudes))
	values := make([]int, len(registers))

	var regmask uint64
	for _, reg := range registers {
		for _, p := range reg {
			regmask |= 1 << uint(p)
		}
	}

	for i, a := range sv.amplitudes {
		if a == 0 {
			continue
		}

		if uint64(i)&ctrlmask != ctrlmask {
			next[i] += a
			continue
		}

		for r, reg := range registers {
			values[r] = 0
			for b, p := range reg {
				values[r] |= (i >> uint(p) & 1) << uint(b)
			}
		}

		fn(values)

		j := uint64(i) &^ regmask
		for r, reg := range registers {
			for b, p := range reg {
				j |= uint64(values[r]>>uint(b)&1) << uint(p)
			}
		}

		next[j] += a
	}

	sv.amplitudes = next
}
