package main

import (
	"fmt"

	"github.com/theapemachine/qsim"
)

// stepper is what the interface drives, independent of the amplitude precision.
type stepper interface {
	Step() error
	Run() error
	Done() bool
	PC() int
	Program() *Program
	Cbits() []bool
	Histogram() []float64
	Metrics() map[string]interface{}
	Close()
}

// Runner executes a Program on an engine one instruction at a time.
type Runner[T qsim.Amplitude] struct {
	engine  *qsim.Engine[T]
	program *Program
	pc      int
	cbits   []bool
}

/*
NewRunner allocates one engine qubit per program qubit, with q[i] as id i,
and positions the runner before the first instruction.
*/
func NewRunner[T qsim.Amplitude](config *qsim.Config, program *Program) (*Runner[T], error) {
	engine, err := qsim.NewEngine[T](config)
	if err != nil {
		return nil, err
	}

	for q := 0; q < program.Qubits; q++ {
		if err := engine.AllocateQubit(qsim.QubitID(q)); err != nil {
			engine.Close()
			return nil, err
		}
	}

	return &Runner[T]{
		engine:  engine,
		program: program,
		cbits:   make([]bool, program.Cbits),
	}, nil
}

func (r *Runner[T]) Done() bool {
	return r.pc >= len(r.program.Instructions)
}

func (r *Runner[T]) PC() int {
	return r.pc
}

func (r *Runner[T]) Program() *Program {
	return r.program
}

func (r *Runner[T]) Cbits() []bool {
	return append([]bool(nil), r.cbits...)
}

func (r *Runner[T]) Metrics() map[string]interface{} {
	return r.engine.Metrics()
}

func (r *Runner[T]) Close() {
	r.engine.Close()
}

// Step executes the instruction under the cursor and advances.
func (r *Runner[T]) Step() error {
	if r.Done() {
		return nil
	}

	in := r.program.Instructions[r.pc]
	if err := r.exec(in); err != nil {
		return fmt.Errorf("line %d (%s): %w", in.Line, in.Source, err)
	}

	r.pc++
	return nil
}

// Run executes the remaining instructions.
func (r *Runner[T]) Run() error {
	for !r.Done() {
		if err := r.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner[T]) exec(in Instruction) error {
	switch in.Op {
	case "BARRIER":
		r.engine.Flush()
		return nil
	case "MEASURE":
		out, err := r.engine.Measure(ids(in.Qubits))
		if err != nil {
			return err
		}
		r.cbits[in.Cbit] = out[0]
		return nil
	case "RESET":
		out, err := r.engine.Measure(ids(in.Qubits))
		if err != nil {
			return err
		}
		if out[0] {
			return r.engine.Apply(xGate, ids(in.Qubits), nil)
		}
		return nil
	}

	def := gateTable[in.Op]
	controls := ids(in.Qubits[:def.controls])
	targets := ids(in.Qubits[def.controls:])

	return r.engine.Apply(def.matrix(in.Params), targets, controls)
}

/*
Histogram returns the probability of every basis state of the program
register, indexed so that bit i is q[i].
*/
func (r *Runner[T]) Histogram() []float64 {
	positions, amplitudes := r.engine.Snapshot()
	out := make([]float64, 1<<uint(r.program.Qubits))

	for i := range out {
		var index int
		for q := 0; q < r.program.Qubits; q++ {
			if i>>uint(q)&1 == 1 {
				index |= 1 << uint(positions[qsim.QubitID(q)])
			}
		}
		a := complex128(amplitudes[index])
		out[i] = real(a)*real(a) + imag(a)*imag(a)
	}

	return out
}

func ids(qubits []int) []qsim.QubitID {
	out := make([]qsim.QubitID, len(qubits))
	for i, q := range qubits {
		out[i] = qsim.QubitID(q)
	}
	return out
}
