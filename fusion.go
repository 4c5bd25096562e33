package qsim

import (
	"slices"
)

// Gate is one dense unitary applied to targets under controls.
type Gate struct {
	Matrix   Matrix
	Targets  []QubitID
	Controls []QubitID
}

/*
Fusion is an accumulated batch of gates folded into a single dense matrix.
It is a value: insert returns a new Fusion and never modifies the receiver,
so a candidate batch can be inspected before the scheduler commits to it.

Matrix acts on Targets (ascending ids, index bit l is Targets[l]). Controls
are the ids every folded gate is conditioned on; they stay outside Matrix and
become the kernel's control mask.
*/
type Fusion struct {
	Matrix   Matrix
	Targets  []QubitID
	Controls []QubitID
	Gates    int
}

// NewFusion returns the empty batch: the identity on no qubits.
func NewFusion() Fusion {
	return Fusion{Matrix: Identity(1)}
}

// Qubits returns the number of qubits the fused matrix acts on.
func (f Fusion) Qubits() int {
	return len(f.Targets)
}

func (f Fusion) Empty() bool {
	return f.Gates == 0
}

/*
Insert folds gate into the batch.

Controls shared with the batch's global control set are absorbed. On an empty
batch the gate's controls become the global set. Otherwise a control the batch
does not share is materialized into the gate's matrix, and a global control
the gate does not carry is materialized into the accumulated matrix and
dropped from the global set. The accumulated matrix and the gate are then
embedded into the union of their qubits and composed, gate last.
*/
func (f Fusion) Insert(gate Gate) Fusion {
	next := Fusion{
		Matrix:  f.Matrix,
		Targets: slices.Clone(f.Targets),
		Gates:   f.Gates + 1,
	}

	matrix := gate.Matrix
	targets := slices.Clone(gate.Targets)

	if f.Empty() {
		next.Controls = sortedSet(gate.Controls)
	} else {
		var extra []QubitID
		for _, c := range gate.Controls {
			if !slices.Contains(f.Controls, c) && !slices.Contains(extra, c) {
				extra = append(extra, c)
			}
		}
		if len(extra) > 0 {
			matrix = matrix.Controlled(len(extra))
			targets = append(targets, extra...)
		}

		var dropped []QubitID
		for _, c := range f.Controls {
			if slices.Contains(gate.Controls, c) {
				next.Controls = append(next.Controls, c)
			} else {
				dropped = append(dropped, c)
			}
		}
		if len(dropped) > 0 {
			next.Matrix = next.Matrix.Controlled(len(dropped))
			next.Targets = append(next.Targets, dropped...)
		}
	}

	union := sortedSet(append(slices.Clone(next.Targets), targets...))

	accumulated := next.Matrix.Embed(indicesIn(union, next.Targets), len(union))
	incoming := matrix.Embed(indicesIn(union, targets), len(union))

	next.Matrix = incoming.Mul(accumulated)
	next.Targets = union

	return next
}

// sortedSet returns the ascending, duplicate-free copy of ids.
func sortedSet(ids []QubitID) []QubitID {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// indicesIn maps each id to its index in the ascending set.
func indicesIn(set, ids []QubitID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i], _ = slices.BinarySearch(set, id)
	}
	return out
}

/*
Scheduler decides when a pending Fusion is handed to the kernel. Batches that
reach between min and max qubits are applied at once; a gate that would push
the batch past max, or that forces controls to be materialized, first flushes
the pending batch and starts a new one.
*/
type Scheduler struct {
	pending Fusion
	enabled bool
	min     int
	max     int
	run     func(Fusion)
}

// NewScheduler returns a scheduler that hands flushed batches to run.
func NewScheduler(config *Config, run func(Fusion)) *Scheduler {
	return &Scheduler{
		pending: NewFusion(),
		enabled: config.Fusion,
		min:     config.FusionMinQubits,
		max:     config.FusionMaxQubits,
		run:     run,
	}
}

// Pending returns the batch that has not been applied yet.
func (s *Scheduler) Pending() Fusion {
	return s.pending
}

func (s *Scheduler) Insert(gate Gate) {
	if !s.enabled {
		s.pending = s.pending.Insert(gate)
		s.Flush()
		return
	}

	candidate := s.pending.Insert(gate)
	n := candidate.Qubits()

	switch {
	case n >= s.min && n <= s.max:
		s.pending = candidate
		s.Flush()
	case n > s.max || n-len(gate.Targets) > s.pending.Qubits():
		s.Flush()
		s.pending = NewFusion().Insert(gate)
	default:
		s.pending = candidate
	}
}

// Flush applies the pending batch, if any, and resets to the empty batch.
func (s *Scheduler) Flush() {
	if s.pending.Empty() {
		return
	}

	batch := s.pending
	s.pending = NewFusion()
	s.run(batch)
}
