package main

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const bellProgram = `OPENQASM 2.0;
include "qelib1.inc";

qreg q[2];
creg c[2];

h q[0];
cx q[0], q[1]; // entangle
barrier q;
measure q[0] -> c[0];
measure q[1] -> c[1];`

func TestParseParamExpr(t *testing.T) {
	Convey("Given parameter expressions", t, func() {
		cases := map[string]float64{
			"1.5":    1.5,
			"pi":     math.Pi,
			"-pi/2":  -math.Pi / 2,
			"3*pi/4": 3 * math.Pi / 4,
			"2pi":    2 * math.Pi,
			"1e-3":   1e-3,
		}

		for expr, want := range cases {
			got, ok := parseParamExpr(expr)
			So(ok, ShouldBeTrue)
			So(got, ShouldAlmostEqual, want, 1e-12)
		}

		Convey("Garbage should be rejected", func() {
			_, ok := parseParamExpr("tau")
			So(ok, ShouldBeFalse)

			_, ok = parseParamExpr("pi/0")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestParseProgram(t *testing.T) {
	Convey("Given a Bell program", t, func() {
		p, err := ParseProgram(bellProgram)
		So(err, ShouldBeNil)

		Convey("Registers and instructions should be read", func() {
			So(p.Qubits, ShouldEqual, 2)
			So(p.Cbits, ShouldEqual, 2)
			So(len(p.Instructions), ShouldEqual, 5)

			So(p.Instructions[0].Op, ShouldEqual, "H")
			So(p.Instructions[1].Op, ShouldEqual, "CX")
			So(p.Instructions[1].Qubits, ShouldResemble, []int{0, 1})
			So(p.Instructions[2].Op, ShouldEqual, "BARRIER")
			So(p.Instructions[4].Op, ShouldEqual, "MEASURE")
			So(p.Instructions[4].Cbit, ShouldEqual, 1)
		})
	})

	Convey("Given parameterized gates", t, func() {
		p, err := ParseProgram("qreg q[1]; rx(pi/2) q[0]; u3(pi, 0, pi) q[0];")
		So(err, ShouldBeNil)

		So(p.Instructions[0].Params, ShouldResemble, []float64{math.Pi / 2})
		So(len(p.Instructions[1].Params), ShouldEqual, 3)
	})

	Convey("Given malformed programs", t, func() {
		bad := []string{
			"h q[0];",
			"qreg q[1]; h q[1];",
			"qreg q[2]; cx q[0];",
			"qreg q[2]; cx q[0], q[0];",
			"qreg q[1]; foo q[0];",
			"qreg q[1]; rx q[0];",
			"qreg q[1]; creg c[1]; measure q[0] -> d[0];",
			"qreg q[1]; qreg r[1];",
			"qreg q[63];",
			"qreg q[99999999999999999999];",
		}

		for _, src := range bad {
			_, err := ParseProgram(src)
			So(err, ShouldNotBeNil)
		}
	})

	Convey("Given the widest register", t, func() {
		p, err := ParseProgram("qreg q[62];")
		So(err, ShouldBeNil)
		So(p.Qubits, ShouldEqual, 62)
	})
}
