package main

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/theapemachine/qsim"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestRunner(src string) *Runner[complex128] {
	program, err := ParseProgram(src)
	if err != nil {
		panic(err)
	}

	config := qsim.NewConfig()
	config.Workers = 1

	runner, err := NewRunner[complex128](config, program)
	if err != nil {
		panic(err)
	}
	return runner
}

func TestRunner(t *testing.T) {
	Convey("Given the Bell program", t, func() {
		runner := newTestRunner(bellProgram)

		Reset(func() {
			runner.Close()
		})

		Convey("Stepping past the entangler should give two equal peaks", func() {
			So(runner.Step(), ShouldBeNil)
			So(runner.Step(), ShouldBeNil)
			So(runner.PC(), ShouldEqual, 2)

			h := runner.Histogram()
			So(h[0b00], ShouldAlmostEqual, 0.5, 1e-12)
			So(h[0b11], ShouldAlmostEqual, 0.5, 1e-12)
			So(h[0b01]+h[0b10], ShouldAlmostEqual, 0, 1e-12)
		})

		Convey("Running to the end should record correlated bits", func() {
			So(runner.Run(), ShouldBeNil)
			So(runner.Done(), ShouldBeTrue)

			c := runner.Cbits()
			So(c[0], ShouldEqual, c[1])

			h := runner.Histogram()
			So(math.Max(h[0b00], h[0b11]), ShouldAlmostEqual, 1, 1e-9)
			So(runner.Step(), ShouldBeNil)
		})
	})

	Convey("Given a reset after a flip", t, func() {
		runner := newTestRunner("qreg q[2]; x q[1]; reset q[1];")
		defer runner.Close()

		Convey("The qubit should end in |0>", func() {
			So(runner.Run(), ShouldBeNil)
			So(runner.Histogram()[0], ShouldAlmostEqual, 1, 1e-12)
		})
	})

	Convey("Given a Toffoli with both controls set", t, func() {
		runner := newTestRunner("qreg q[3]; x q[0]; x q[1]; ccx q[0], q[1], q[2];")
		defer runner.Close()

		Convey("The target should flip", func() {
			So(runner.Run(), ShouldBeNil)
			So(runner.Histogram()[0b111], ShouldAlmostEqual, 1, 1e-12)
		})
	})

	Convey("Given a swap", t, func() {
		runner := newTestRunner("qreg q[2]; x q[0]; swap q[0], q[1];")
		defer runner.Close()

		Convey("The excitation should move", func() {
			So(runner.Run(), ShouldBeNil)
			So(runner.Histogram()[0b10], ShouldAlmostEqual, 1, 1e-12)
		})
	})
}

func TestRenderHistogram(t *testing.T) {
	Convey("Given a two-qubit distribution", t, func() {
		out := renderHistogram([]float64{0.5, 0, 0, 0.5}, 2, false)

		Convey("Only nonzero states should be drawn", func() {
			lines := strings.Split(out, "\n")
			So(len(lines), ShouldEqual, 2)
			So(lines[0], ShouldStartWith, "|00>")
			So(lines[1], ShouldStartWith, "|11>")
			So(lines[1], ShouldEndWith, "0.5000")
		})

		Convey("Classical bits should print most significant first", func() {
			So(renderCbits([]bool{true, false}), ShouldEqual, "c: 01")
		})
	})
}

func TestModel(t *testing.T) {
	Convey("Given the interface model", t, func() {
		runner := newTestRunner(bellProgram)
		defer runner.Close()

		m := newModel(runner)

		Convey("Its view should list the program and the histogram", func() {
			view := m.View()
			So(view, ShouldContainSubstring, "program")
			So(view, ShouldContainSubstring, "probabilities")
			So(view, ShouldContainSubstring, "h q[0]")
		})
	})
}

func TestRunnerCapacity(t *testing.T) {
	Convey("Given the command configuration", t, func() {
		config, err := loadConfig("", pflag.NewFlagSet("test", pflag.ContinueOnError))
		So(err, ShouldBeNil)
		So(config.MaxStateBytes, ShouldEqual, uint64(defaultStateBytes))

		Convey("A register past the state limit should fail to start", func() {
			program, err := ParseProgram("qreg q[40];")
			So(err, ShouldBeNil)

			config.Workers = 1
			config.MaxStateBytes = 1 << 12

			_, err = NewRunner[complex128](config, program)
			So(errors.Is(err, qsim.ErrCapacityExceeded), ShouldBeTrue)
		})
	})
}
