package qsim

import (
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func newTestState(n int) *StateVector[complex128] {
	config := NewConfig()
	sv := NewStateVector[complex128](config, NewQ(1, 1))
	for i := 0; i < n; i++ {
		sv.AllocateQubit()
	}
	return sv
}

func TestStateVectorAllocation(t *testing.T) {
	Convey("Given an empty state vector", t, func() {
		sv := newTestState(0)

		So(sv.Len(), ShouldEqual, 1)
		So(sv.Amplitudes(), ShouldResemble, []complex128{1})

		Convey("Allocating should double the vector with the new qubit in |0>", func() {
			sv.AllocateQubit()
			sv.AllocateQubit()

			So(sv.Qubits(), ShouldEqual, 2)
			So(sv.Amplitudes(), ShouldResemble, []complex128{1, 0, 0, 0})
		})
	})

	Convey("Given a 3-qubit state with the middle qubit set", t, func() {
		sv := newTestState(3)
		psi := make([]complex128, 8)
		psi[0b010] = complex(1/math.Sqrt2, 0)
		psi[0b011] = complex(0, 1/math.Sqrt2)
		So(sv.SetWavefunction(psi), ShouldBeNil)

		Convey("The middle qubit should be classical with value 1", func() {
			So(sv.IsClassical(1), ShouldBeTrue)
			v, err := sv.ClassicalValue(1)
			So(err, ShouldBeNil)
			So(v, ShouldBeTrue)
		})

		Convey("The low qubit should not be classical", func() {
			So(sv.IsClassical(0), ShouldBeFalse)
			_, err := sv.ClassicalValue(0)
			So(errors.Is(err, ErrNotClassical), ShouldBeTrue)
		})

		Convey("Deallocating the middle qubit should keep the set half", func() {
			So(sv.DeallocateQubit(1), ShouldBeNil)
			So(sv.Qubits(), ShouldEqual, 2)
			So(sv.Amplitudes(), ShouldResemble, []complex128{psi[0b010], psi[0b011], 0, 0})
		})

		Convey("Deallocating a superposed qubit should fail and change nothing", func() {
			err := sv.DeallocateQubit(0)
			So(errors.Is(err, ErrNotClassical), ShouldBeTrue)
			So(sv.Amplitudes(), ShouldResemble, psi)
		})
	})
}

func TestStateVectorQueries(t *testing.T) {
	Convey("Given a Bell pair on positions 0 and 2 of three qubits", t, func() {
		sv := newTestState(3)
		psi := make([]complex128, 8)
		psi[0b000] = complex(1/math.Sqrt2, 0)
		psi[0b101] = complex(1/math.Sqrt2, 0)
		So(sv.SetWavefunction(psi), ShouldBeNil)

		Convey("Probabilities should follow the joint distribution", func() {
			So(sv.Probability([]bool{true}, []int{0}), ShouldAlmostEqual, 0.5, 1e-12)
			So(sv.Probability([]bool{true, true}, []int{0, 2}), ShouldAlmostEqual, 0.5, 1e-12)
			So(sv.Probability([]bool{true, false}, []int{0, 2}), ShouldAlmostEqual, 0, 1e-12)
			So(sv.Norm(), ShouldAlmostEqual, 1, 1e-12)
		})

		Convey("Amplitude should require every position", func() {
			a, err := sv.Amplitude([]bool{true, false, true}, []int{0, 1, 2})
			So(err, ShouldBeNil)
			So(a, ShouldEqual, psi[0b101])

			_, err = sv.Amplitude([]bool{true, true}, []int{0, 2})
			So(errors.Is(err, ErrInvalidPermutation), ShouldBeTrue)

			_, err = sv.Amplitude([]bool{true, true, true}, []int{0, 0, 2})
			So(errors.Is(err, ErrInvalidPermutation), ShouldBeTrue)
		})

		Convey("A wavefunction of the wrong length should be rejected", func() {
			err := sv.SetWavefunction(make([]complex128, 4))
			So(errors.Is(err, ErrInvalidMapping), ShouldBeTrue)
		})

		Convey("Measuring one half of the pair should fix the other", func() {
			out := sv.Measure([]int{0})
			v, err := sv.ClassicalValue(2)

			So(err, ShouldBeNil)
			So(v, ShouldEqual, out[0])
			So(sv.Norm(), ShouldAlmostEqual, 1, 1e-12)
		})

		Convey("Collapse should renormalize and be idempotent", func() {
			So(sv.Collapse([]int{2}, []bool{true}), ShouldBeNil)
			first := sv.Amplitudes()

			So(real(first[0b101]), ShouldAlmostEqual, 1, 1e-12)
			So(sv.Collapse([]int{2}, []bool{true}), ShouldBeNil)
			So(maxDiff(sv.Amplitudes(), first), ShouldBeLessThan, 1e-12)
		})

		Convey("Collapse onto an impossible outcome should fail and change nothing", func() {
			err := sv.Collapse([]int{0, 2}, []bool{true, false})
			So(errors.Is(err, ErrZeroProbability), ShouldBeTrue)
			So(sv.Amplitudes(), ShouldResemble, psi)
		})
	})
}

func TestStateVectorSampling(t *testing.T) {
	Convey("Given fixed cumulative distributions", t, func() {
		sv := newTestState(2)
		psi := []complex128{0, complex(math.Sqrt(0.25), 0), 0, complex(math.Sqrt(0.75), 0)}
		So(sv.SetWavefunction(psi), ShouldBeNil)

		Convey("The first index whose cumulative mass exceeds r should win", func() {
			So(sv.sample(0), ShouldEqual, 1)
			So(sv.sample(0.2499), ShouldEqual, 1)
			So(sv.sample(0.25), ShouldEqual, 3)
			So(sv.sample(0.9999), ShouldEqual, 3)
		})

		Convey("Rounding past the total should fall back to the last nonzero index", func() {
			So(sv.sample(1.5), ShouldEqual, 3)
		})
	})

	Convey("Given two vectors with the same seed", t, func() {
		a := newTestState(4)
		b := newTestState(4)

		uniform := make([]complex128, 16)
		for i := range uniform {
			uniform[i] = 0.25
		}
		So(a.SetWavefunction(uniform), ShouldBeNil)
		So(b.SetWavefunction(uniform), ShouldBeNil)

		Convey("They should produce the same outcomes", func() {
			for i := 0; i < 4; i++ {
				So(a.Measure([]int{i}), ShouldResemble, b.Measure([]int{i}))
			}
		})
	})
}

func TestEmulateMath(t *testing.T) {
	Convey("Given two 2-bit registers in a basis state", t, func() {
		sv := newTestState(5)
		psi := make([]complex128, 32)
		// a = 1 on positions 0,1; b = 2 on positions 2,3; control on 4 set.
		psi[0b11001] = 1
		So(sv.SetWavefunction(psi), ShouldBeNil)

		add := func(values []int) {
			values[1] = (values[1] + values[0]) % 4
		}

		Convey("b += a should move the amplitude under a satisfied control", func() {
			sv.EmulateMath(add, [][]int{{0, 1}, {2, 3}}, 1<<4)
			So(sv.Amplitudes()[0b11101], ShouldEqual, complex128(1))
		})

		Convey("An unsatisfied control should leave the state alone", func() {
			psi[0b11001], psi[0b01001] = 0, 1
			So(sv.SetWavefunction(psi), ShouldBeNil)

			sv.EmulateMath(add, [][]int{{0, 1}, {2, 3}}, 1<<4)
			So(sv.Amplitudes()[0b01001], ShouldEqual, complex128(1))
		})
	})
}
