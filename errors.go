package qsim

import "errors"

var (
	// ErrDuplicateID is returned when allocating an id that is already live.
	ErrDuplicateID = errors.New("qubit id already allocated")

	// ErrUnknownID is returned for ids that were never allocated or are gone.
	ErrUnknownID = errors.New("unknown qubit id")

	// ErrNotClassical is returned when deallocating a qubit that is still in
	// superposition or entangled. It usually means a missing measurement or
	// uncompute step in the caller.
	ErrNotClassical = errors.New("qubit has not been measured or uncomputed")

	// ErrInvalidPermutation is returned by amplitude queries whose id list is
	// not a permutation of all allocated qubits.
	ErrInvalidPermutation = errors.New("ids must be a permutation of all allocated qubits")

	// ErrInvalidMapping is returned by wavefunction injection with a bad
	// ordering or a wrong number of amplitudes.
	ErrInvalidMapping = errors.New("invalid qubit ordering for wavefunction")

	// ErrZeroProbability is returned when forcing a collapse onto an outcome
	// with (approximately) zero probability.
	ErrZeroProbability = errors.New("collapse onto outcome with probability ~0")

	ErrInvalidMatrix    = errors.New("matrix must be square with a power-of-two dimension")
	ErrTooManyTargets   = errors.New("too many target qubits for one kernel pass")
	ErrInvalidControl   = errors.New("invalid control qubits")
	ErrCapacityExceeded = errors.New("state vector capacity exceeded")
	ErrClosed           = errors.New("engine is closed")
	ErrLengthMismatch   = errors.New("bit values and qubit ids differ in length")
)
