package qsim

import (
	"fmt"
	"maps"
)

// QubitID is the caller-assigned handle of an allocated qubit.
type QubitID uint64

/*
QubitMap maps qubit ids to bit positions in the amplitude index. Positions
are always dense: with N qubits allocated they are exactly 0..N-1.
*/
type QubitMap struct {
	positions map[QubitID]int
	ids       []QubitID // ids[p] is the qubit at position p
}

func NewQubitMap() *QubitMap {
	return &QubitMap{
		positions: make(map[QubitID]int),
	}
}

// Len returns the number of allocated qubits.
func (qm *QubitMap) Len() int {
	return len(qm.ids)
}

// Allocate places id at the next free position.
func (qm *QubitMap) Allocate(id QubitID) (int, error) {
	if _, ok := qm.positions[id]; ok {
		return 0, fmt.Errorf("allocate %d: %w", id, ErrDuplicateID)
	}

	pos := len(qm.ids)
	qm.positions[id] = pos
	qm.ids = append(qm.ids, id)

	return pos, nil
}

/*
Deallocate removes id and shifts every higher position down by one, keeping
the relative order of the remaining qubits. It returns the position id held.
*/
func (qm *QubitMap) Deallocate(id QubitID) (int, error) {
	pos, ok := qm.positions[id]
	if !ok {
		return 0, fmt.Errorf("deallocate %d: %w", id, ErrUnknownID)
	}

	delete(qm.positions, id)
	qm.ids = append(qm.ids[:pos], qm.ids[pos+1:]...)

	for p := pos; p < len(qm.ids); p++ {
		qm.positions[qm.ids[p]] = p
	}

	return pos, nil
}

// Contains reports whether id is allocated.
func (qm *QubitMap) Contains(id QubitID) bool {
	_, ok := qm.positions[id]
	return ok
}

func (qm *QubitMap) Position(id QubitID) (int, error) {
	pos, ok := qm.positions[id]
	if !ok {
		return 0, fmt.Errorf("position of %d: %w", id, ErrUnknownID)
	}
	return pos, nil
}

// Positions translates a list of ids, failing on the first unknown one.
func (qm *QubitMap) Positions(ids []QubitID) ([]int, error) {
	out := make([]int, len(ids))
	for i, id := range ids {
		pos, err := qm.Position(id)
		if err != nil {
			return nil, err
		}
		out[i] = pos
	}
	return out, nil
}

// Mask returns the index bitmask covering the positions of ids.
func (qm *QubitMap) Mask(ids []QubitID) (uint64, error) {
	var mask uint64
	for _, id := range ids {
		pos, err := qm.Position(id)
		if err != nil {
			return 0, err
		}
		mask |= 1 << uint(pos)
	}
	return mask, nil
}

// IDs returns the allocated ids ordered by position.
func (qm *QubitMap) IDs() []QubitID {
	out := make([]QubitID, len(qm.ids))
	copy(out, qm.ids)
	return out
}

/*
Reorder assigns position i to ordering[i]. The ordering must name every
allocated qubit exactly once.
*/
func (qm *QubitMap) Reorder(ordering []QubitID) error {
	if len(ordering) != len(qm.ids) {
		return fmt.Errorf("ordering names %d qubits, %d allocated: %w", len(ordering), len(qm.ids), ErrInvalidMapping)
	}

	seen := make(map[QubitID]struct{}, len(ordering))
	for _, id := range ordering {
		if _, ok := qm.positions[id]; !ok {
			return fmt.Errorf("ordering names %d: %w", id, ErrInvalidMapping)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("ordering repeats %d: %w", id, ErrInvalidMapping)
		}
		seen[id] = struct{}{}
	}

	for pos, id := range ordering {
		qm.positions[id] = pos
		qm.ids[pos] = id
	}

	return nil
}

// Snapshot returns a copy of the id to position mapping.
func (qm *QubitMap) Snapshot() map[QubitID]int {
	return maps.Clone(qm.positions)
}
