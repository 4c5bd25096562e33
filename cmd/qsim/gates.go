package main

import (
	"math"
	"math/cmplx"
)

// gateDef describes a named gate: a dense matrix on its targets, fired under controls.
type gateDef struct {
	params   int
	controls int
	targets  int
	matrix   func(params []float64) [][]complex128
}

func fixed(m [][]complex128) func([]float64) [][]complex128 {
	return func([]float64) [][]complex128 { return m }
}

func phase(theta float64) [][]complex128 {
	return [][]complex128{{1, 0}, {0, cmplx.Exp(complex(0, theta))}}
}

var (
	hGate = [][]complex128{
		{complex(1/math.Sqrt2, 0), complex(1/math.Sqrt2, 0)},
		{complex(1/math.Sqrt2, 0), complex(-1/math.Sqrt2, 0)},
	}
	xGate = [][]complex128{{0, 1}, {1, 0}}
	yGate = [][]complex128{{0, -1i}, {1i, 0}}
	zGate = [][]complex128{{1, 0}, {0, -1}}

	// swapGate exchanges the two target bits.
	swapGate = [][]complex128{
		{1, 0, 0, 0},
		{0, 0, 1, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 1},
	}
)

// gateTable lists the supported gates by upper-case name. Operands are controls first.
var gateTable = map[string]gateDef{
	"ID":    {targets: 1, matrix: fixed([][]complex128{{1, 0}, {0, 1}})},
	"H":     {targets: 1, matrix: fixed(hGate)},
	"X":     {targets: 1, matrix: fixed(xGate)},
	"Y":     {targets: 1, matrix: fixed(yGate)},
	"Z":     {targets: 1, matrix: fixed(zGate)},
	"S":     {targets: 1, matrix: fixed(phase(math.Pi / 2))},
	"SDG":   {targets: 1, matrix: fixed(phase(-math.Pi / 2))},
	"T":     {targets: 1, matrix: fixed(phase(math.Pi / 4))},
	"TDG":   {targets: 1, matrix: fixed(phase(-math.Pi / 4))},
	"SX":    {targets: 1, matrix: fixed([][]complex128{{0.5 + 0.5i, 0.5 - 0.5i}, {0.5 - 0.5i, 0.5 + 0.5i}})},
	"P":     {params: 1, targets: 1, matrix: func(p []float64) [][]complex128 { return phase(p[0]) }},
	"U1":    {params: 1, targets: 1, matrix: func(p []float64) [][]complex128 { return phase(p[0]) }},
	"RX":    {params: 1, targets: 1, matrix: rx},
	"RY":    {params: 1, targets: 1, matrix: ry},
	"RZ":    {params: 1, targets: 1, matrix: rz},
	"U3":    {params: 3, targets: 1, matrix: u3},
	"U":     {params: 3, targets: 1, matrix: u3},
	"CX":    {controls: 1, targets: 1, matrix: fixed(xGate)},
	"CY":    {controls: 1, targets: 1, matrix: fixed(yGate)},
	"CZ":    {controls: 1, targets: 1, matrix: fixed(zGate)},
	"CH":    {controls: 1, targets: 1, matrix: fixed(hGate)},
	"CP":    {params: 1, controls: 1, targets: 1, matrix: func(p []float64) [][]complex128 { return phase(p[0]) }},
	"CU1":   {params: 1, controls: 1, targets: 1, matrix: func(p []float64) [][]complex128 { return phase(p[0]) }},
	"CRX":   {params: 1, controls: 1, targets: 1, matrix: rx},
	"CRY":   {params: 1, controls: 1, targets: 1, matrix: ry},
	"CRZ":   {params: 1, controls: 1, targets: 1, matrix: rz},
	"SWAP":  {targets: 2, matrix: fixed(swapGate)},
	"CCX":   {controls: 2, targets: 1, matrix: fixed(xGate)},
	"CSWAP": {controls: 1, targets: 2, matrix: fixed(swapGate)},
}

func rx(p []float64) [][]complex128 {
	c, s := math.Cos(p[0]/2), math.Sin(p[0]/2)
	return [][]complex128{
		{complex(c, 0), complex(0, -s)},
		{complex(0, -s), complex(c, 0)},
	}
}

func ry(p []float64) [][]complex128 {
	c, s := math.Cos(p[0]/2), math.Sin(p[0]/2)
	return [][]complex128{
		{complex(c, 0), complex(-s, 0)},
		{complex(s, 0), complex(c, 0)},
	}
}

func rz(p []float64) [][]complex128 {
	return [][]complex128{
		{cmplx.Exp(complex(0, -p[0]/2)), 0},
		{0, cmplx.Exp(complex(0, p[0]/2))},
	}
}

// u3 is the general single-qubit rotation U(theta, phi, lambda).
func u3(p []float64) [][]complex128 {
	theta, phi, lambda := p[0], p[1], p[2]
	c, s := math.Cos(theta/2), math.Sin(theta/2)
	return [][]complex128{
		{complex(c, 0), -cmplx.Exp(complex(0, lambda)) * complex(s, 0)},
		{cmplx.Exp(complex(0, phi)) * complex(s, 0), cmplx.Exp(complex(0, phi+lambda)) * complex(c, 0)},
	}
}
