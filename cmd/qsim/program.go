package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/theapemachine/qsim"
)

var (
	qregRegex    = regexp.MustCompile(`^qreg\s+(\w+)\[(\d+)\]$`)
	cregRegex    = regexp.MustCompile(`^creg\s+(\w+)\[(\d+)\]$`)
	measureRegex = regexp.MustCompile(`^measure\s+(\w+)\[(\d+)\]\s*->\s*(\w+)\[(\d+)\]$`)
	resetRegex   = regexp.MustCompile(`^reset\s+(\w+)\[(\d+)\]$`)
	barrierRegex = regexp.MustCompile(`^barrier(\s+.*)?$`)
	gateRegex    = regexp.MustCompile(`^(\w+)\s*(?:\(\s*(` + paramPattern + `(?:\s*,\s*` + paramPattern + `)*)\s*\))?\s+(\w+\[\d+\](?:\s*,\s*\w+\[\d+\])*)$`)
	operandRegex = regexp.MustCompile(`(\w+)\[(\d+)\]`)
)

// Instruction is one executable statement of a program.
type Instruction struct {
	Op     string    // upper-case gate name, MEASURE, RESET or BARRIER
	Qubits []int     // operands, controls first
	Params []float64 // radians
	Cbit   int       // MEASURE destination
	Line   int
	Source string
}

// Program is a parsed OpenQASM 2 circuit over one quantum and one classical register.
type Program struct {
	Qubits       int
	Cbits        int
	Instructions []Instruction

	qreg string
	creg string
}

/*
ParseProgram reads the supported OpenQASM 2 subset: qreg and creg
declarations, the gates in gateTable with optional parameters, measure,
reset and barrier. Header lines and // comments are ignored.
*/
func ParseProgram(src string) (*Program, error) {
	p := &Program{}

	for n, raw := range strings.Split(src, "\n") {
		line := raw
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}

		for _, stmt := range strings.Split(line, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if err := p.parseStatement(stmt, n+1); err != nil {
				return nil, fmt.Errorf("line %d: %w", n+1, err)
			}
		}
	}

	if p.qreg == "" {
		return nil, fmt.Errorf("no qreg declared")
	}

	return p, nil
}

func (p *Program) parseStatement(stmt string, line int) error {
	lower := strings.ToLower(stmt)
	if strings.HasPrefix(lower, "openqasm") || strings.HasPrefix(lower, "include") {
		return nil
	}

	if m := qregRegex.FindStringSubmatch(stmt); m != nil {
		if p.qreg != "" {
			return fmt.Errorf("second qreg %q", m[1])
		}
		n, err := strconv.Atoi(m[2])
		if err != nil || n > qsim.MaxWidth {
			return fmt.Errorf("qreg %s[%s] is wider than %d qubits", m[1], m[2], qsim.MaxWidth)
		}
		p.qreg = m[1]
		p.Qubits = n
		return nil
	}

	if m := cregRegex.FindStringSubmatch(stmt); m != nil {
		if p.creg != "" {
			return fmt.Errorf("second creg %q", m[1])
		}
		p.creg = m[1]
		p.Cbits, _ = strconv.Atoi(m[2])
		return nil
	}

	if barrierRegex.MatchString(lower) {
		p.Instructions = append(p.Instructions, Instruction{Op: "BARRIER", Line: line, Source: stmt})
		return nil
	}

	if m := measureRegex.FindStringSubmatch(stmt); m != nil {
		q, err := p.qubit(m[1], m[2])
		if err != nil {
			return err
		}
		if m[3] != p.creg {
			return fmt.Errorf("unknown classical register %q", m[3])
		}
		c, _ := strconv.Atoi(m[4])
		if c >= p.Cbits {
			return fmt.Errorf("%s[%d] out of range", m[3], c)
		}
		p.Instructions = append(p.Instructions, Instruction{
			Op: "MEASURE", Qubits: []int{q}, Cbit: c, Line: line, Source: stmt,
		})
		return nil
	}

	if m := resetRegex.FindStringSubmatch(stmt); m != nil {
		q, err := p.qubit(m[1], m[2])
		if err != nil {
			return err
		}
		p.Instructions = append(p.Instructions, Instruction{Op: "RESET", Qubits: []int{q}, Line: line, Source: stmt})
		return nil
	}

	m := gateRegex.FindStringSubmatch(stmt)
	if m == nil {
		return fmt.Errorf("cannot parse %q", stmt)
	}

	op := strings.ToUpper(m[1])
	def, ok := gateTable[op]
	if !ok {
		return fmt.Errorf("unknown gate %q", m[1])
	}

	params, ok := parseParams(m[2])
	if !ok || len(params) != def.params {
		return fmt.Errorf("%s takes %d parameters", op, def.params)
	}

	var qubits []int
	for _, operand := range operandRegex.FindAllStringSubmatch(m[3], -1) {
		q, err := p.qubit(operand[1], operand[2])
		if err != nil {
			return err
		}
		for _, seen := range qubits {
			if seen == q {
				return fmt.Errorf("%s repeats qubit %d", op, q)
			}
		}
		qubits = append(qubits, q)
	}

	if len(qubits) != def.controls+def.targets {
		return fmt.Errorf("%s takes %d qubits, got %d", op, def.controls+def.targets, len(qubits))
	}

	p.Instructions = append(p.Instructions, Instruction{
		Op: op, Qubits: qubits, Params: params, Line: line, Source: stmt,
	})
	return nil
}

func (p *Program) qubit(reg, index string) (int, error) {
	if reg != p.qreg {
		return 0, fmt.Errorf("unknown quantum register %q", reg)
	}
	q, _ := strconv.Atoi(index)
	if q >= p.Qubits {
		return 0, fmt.Errorf("%s[%d] out of range", reg, q)
	}
	return q, nil
}
