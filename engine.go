package qsim

import (
	"fmt"
	"slices"
	"sync"
	"time"
	"unsafe"

	"github.com/charmbracelet/log"
)

/*
Engine is the simulator front end. Callers name qubits by id; the engine maps
them to positions, batches incoming gates through the fusion scheduler and
applies each batch to the state vector in one kernel pass. Every query first
flushes the pending batch, so results always reflect all gates received.

All methods are safe for concurrent use; operations are serialized.
*/
type Engine[T Amplitude] struct {
	mu         sync.Mutex
	config     *Config
	qubits     *QubitMap
	state      *StateVector[T]
	scheduler  *Scheduler
	pool       *Q
	metrics    *Metrics
	regulators []Regulator
	governor   *ResourceGovernorRegulator
	logger     *log.Logger
	closed     bool
}

/*
NewEngine builds an engine with zero qubits.

Parameters:
  - config: engine settings, nil for the defaults

Returns:
  - *Engine[T]: a running engine; call Close to stop its workers
  - error: when config does not validate
*/
func NewEngine[T Amplitude](config *Config) (*Engine[T], error) {
	if config == nil {
		config = NewConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	pool := NewQ(config.getWorkers(), config.ParallelThreshold)
	governor := NewResourceGovernorRegulator(config.MaxQubits, config.MaxStateBytes)

	engine := &Engine[T]{
		config:     config,
		qubits:     NewQubitMap(),
		state:      NewStateVector[T](config, pool),
		pool:       pool,
		metrics:    newMetrics(),
		regulators: []Regulator{governor},
		governor:   governor,
		logger:     newLogger(config.LogLevel),
	}
	engine.scheduler = NewScheduler(config, engine.run)
	engine.metrics.recordSize(0, engine.amplitudeSize())

	log.Infof(
		"NewEngine - kernel %s, fusion %v [%d, %d], %d workers, seed %d",
		config.Kernel, config.Fusion, config.FusionMinQubits, config.FusionMaxQubits, pool.Size(), config.Seed,
	)

	return engine, nil
}

// New builds a double precision engine.
func New(config *Config) (*Engine[complex128], error) {
	return NewEngine[complex128](config)
}

func (engine *Engine[T]) amplitudeSize() uint64 {
	var zero T
	return uint64(unsafe.Sizeof(zero))
}

// run applies one flushed batch to the state vector.
func (engine *Engine[T]) run(batch Fusion) {
	start := time.Now()

	// Allocation and deallocation flush first, so every id in a batch is live.
	positions, err := engine.qubits.Positions(batch.Targets)
	if err != nil {
		panic(err)
	}
	ctrlmask, err := engine.qubits.Mask(batch.Controls)
	if err != nil {
		panic(err)
	}

	engine.state.Apply(positions, batch.Matrix, ctrlmask)
	engine.metrics.recordFlush(start, len(positions), batch.Gates)

	engine.logger.Debug("flush",
		"qubits", batch.Targets,
		"controls", batch.Controls,
		"gates", batch.Gates,
		"duration", time.Since(start),
	)
}

func (engine *Engine[T]) checkOpen() error {
	if engine.closed {
		return ErrClosed
	}
	return nil
}

/*
AllocateQubit adds id in state |0> at the highest position.

Returns:
  - error: ErrDuplicateID when id is live, ErrCapacityExceeded when the
    doubled state would pass a configured limit
*/
func (engine *Engine[T]) AllocateQubit(id QubitID) error {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if err := engine.checkOpen(); err != nil {
		return err
	}

	if engine.qubits.Contains(id) {
		return fmt.Errorf("allocate %d: %w", id, ErrDuplicateID)
	}

	engine.scheduler.Flush()

	if engine.state.Qubits() >= MaxWidth {
		engine.metrics.count(&engine.metrics.Refusals)
		return fmt.Errorf("allocate %d past %d qubits: %w", id, MaxWidth, ErrCapacityExceeded)
	}

	for _, regulator := range engine.regulators {
		regulator.Observe(engine.metrics)
		if regulator.Limit() {
			engine.governor.refuse()
			engine.metrics.count(&engine.metrics.Refusals)
			return fmt.Errorf("allocate %d: %w", id, ErrCapacityExceeded)
		}
	}

	if _, err := engine.qubits.Allocate(id); err != nil {
		return err
	}
	engine.state.AllocateQubit()

	engine.metrics.count(&engine.metrics.Allocations)
	engine.metrics.recordSize(engine.state.Qubits(), uint64(engine.state.Len())*engine.amplitudeSize())

	return nil
}

/*
DeallocateQubit removes id. The qubit must be classical; otherwise
ErrNotClassical is returned and nothing changes.
*/
func (engine *Engine[T]) DeallocateQubit(id QubitID) error {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if err := engine.checkOpen(); err != nil {
		return err
	}

	pos, err := engine.qubits.Position(id)
	if err != nil {
		return err
	}

	engine.scheduler.Flush()

	if err := engine.state.DeallocateQubit(pos); err != nil {
		return fmt.Errorf("deallocate %d: %w", id, err)
	}
	if _, err := engine.qubits.Deallocate(id); err != nil {
		return err
	}

	engine.metrics.count(&engine.metrics.Deallocations)
	engine.metrics.recordSize(engine.state.Qubits(), uint64(engine.state.Len())*engine.amplitudeSize())

	for _, regulator := range engine.regulators {
		regulator.Renormalize()
	}

	return nil
}

/*
Apply queues a gate: matrix acts on targets (row and column bit l is
targets[l]) and fires only when every control reads 1.

Returns:
  - error: ErrInvalidMatrix for a malformed matrix or a target count that
    does not match it, ErrTooManyTargets past the kernel arity,
    ErrUnknownID or ErrDuplicateID for bad target ids, ErrInvalidControl
    for controls that repeat or overlap the targets
*/
func (engine *Engine[T]) Apply(matrix [][]complex128, targets, controls []QubitID) error {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if err := engine.checkOpen(); err != nil {
		return err
	}

	m, err := NewMatrix(matrix)
	if err != nil {
		return err
	}

	if m.Qubits() > MaxKernelArity {
		return fmt.Errorf("%d targets: %w", m.Qubits(), ErrTooManyTargets)
	}
	if m.Qubits() != len(targets) {
		return fmt.Errorf("%dx%d matrix on %d targets: %w", m.Dim(), m.Dim(), len(targets), ErrInvalidMatrix)
	}

	for i, id := range targets {
		if !engine.qubits.Contains(id) {
			return fmt.Errorf("target %d: %w", id, ErrUnknownID)
		}
		if slices.Contains(targets[:i], id) {
			return fmt.Errorf("target %d listed twice: %w", id, ErrDuplicateID)
		}
	}

	for i, id := range controls {
		if !engine.qubits.Contains(id) {
			return fmt.Errorf("control %d: %w", id, ErrUnknownID)
		}
		if slices.Contains(targets, id) || slices.Contains(controls[:i], id) {
			return fmt.Errorf("control %d: %w", id, ErrInvalidControl)
		}
	}

	engine.scheduler.Insert(Gate{
		Matrix:   m,
		Targets:  slices.Clone(targets),
		Controls: slices.Clone(controls),
	})

	return nil
}

// Flush applies any pending fused gates.
func (engine *Engine[T]) Flush() {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	engine.scheduler.Flush()
}

// Measure samples ids jointly, collapses the state and returns the outcome per id.
func (engine *Engine[T]) Measure(ids []QubitID) ([]bool, error) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if err := engine.checkOpen(); err != nil {
		return nil, err
	}

	positions, err := engine.qubits.Positions(ids)
	if err != nil {
		return nil, err
	}

	engine.scheduler.Flush()
	outcome := engine.state.Measure(positions)
	engine.metrics.count(&engine.metrics.Measurements)

	return outcome, nil
}

// Probability returns the probability that ids read bits, without collapsing.
func (engine *Engine[T]) Probability(bits []bool, ids []QubitID) (float64, error) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if err := engine.checkOpen(); err != nil {
		return 0, err
	}

	if len(bits) != len(ids) {
		return 0, fmt.Errorf("%d bits for %d ids: %w", len(bits), len(ids), ErrLengthMismatch)
	}

	positions, err := engine.qubits.Positions(ids)
	if err != nil {
		return 0, err
	}

	engine.scheduler.Flush()
	return engine.state.Probability(bits, positions), nil
}

/*
Amplitude returns the amplitude of the basis state where ids[i] reads bits[i].
ids must name every allocated qubit exactly once.
*/
func (engine *Engine[T]) Amplitude(bits []bool, ids []QubitID) (T, error) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if err := engine.checkOpen(); err != nil {
		return 0, err
	}

	if len(bits) != len(ids) {
		return 0, fmt.Errorf("%d bits for %d ids: %w", len(bits), len(ids), ErrLengthMismatch)
	}

	positions, err := engine.qubits.Positions(ids)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidPermutation, err)
	}

	engine.scheduler.Flush()
	return engine.state.Amplitude(bits, positions)
}

/*
SetWavefunction replaces the state. amplitudes[i] is the amplitude of the
basis state where ordering[b] reads bit b of i; afterwards ordering[b] sits
at position b.
*/
func (engine *Engine[T]) SetWavefunction(amplitudes []T, ordering []QubitID) error {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if err := engine.checkOpen(); err != nil {
		return err
	}

	engine.scheduler.Flush()

	if len(ordering) >= 64 || len(amplitudes) != 1<<uint(len(ordering)) {
		return fmt.Errorf("%d amplitudes for %d qubits: %w", len(amplitudes), len(ordering), ErrInvalidMapping)
	}

	if err := engine.qubits.Reorder(ordering); err != nil {
		return err
	}

	return engine.state.SetWavefunction(amplitudes)
}

/*
CollapseWavefunction forces ids onto values and renormalizes. An outcome with
probability below the tolerance returns ErrZeroProbability and leaves the
state unchanged.
*/
func (engine *Engine[T]) CollapseWavefunction(ids []QubitID, values []bool) error {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if err := engine.checkOpen(); err != nil {
		return err
	}

	if len(values) != len(ids) {
		return fmt.Errorf("%d values for %d ids: %w", len(values), len(ids), ErrLengthMismatch)
	}

	positions, err := engine.qubits.Positions(ids)
	if err != nil {
		return err
	}

	engine.scheduler.Flush()

	if err := engine.state.Collapse(positions, values); err != nil {
		return err
	}

	engine.metrics.count(&engine.metrics.Collapses)
	return nil
}

// IsClassical reports whether id currently has a definite value.
func (engine *Engine[T]) IsClassical(id QubitID) (bool, error) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if err := engine.checkOpen(); err != nil {
		return false, err
	}

	pos, err := engine.qubits.Position(id)
	if err != nil {
		return false, err
	}

	engine.scheduler.Flush()
	return engine.state.IsClassical(pos), nil
}

// ClassicalValue returns the definite value of id, or ErrNotClassical.
func (engine *Engine[T]) ClassicalValue(id QubitID) (bool, error) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if err := engine.checkOpen(); err != nil {
		return false, err
	}

	pos, err := engine.qubits.Position(id)
	if err != nil {
		return false, err
	}

	engine.scheduler.Flush()
	return engine.state.ClassicalValue(pos)
}

/*
EmulateMath runs a classical function over integer registers on every basis
state where all controls read 1. Each register lists its qubit ids, least
significant first. fn rewrites the register values in place and should be
reversible.
*/
func (engine *Engine[T]) EmulateMath(fn func(values []int), registers [][]QubitID, controls []QubitID) error {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if err := engine.checkOpen(); err != nil {
		return err
	}

	var used []QubitID
	positions := make([][]int, len(registers))

	for r, reg := range registers {
		pos, err := engine.qubits.Positions(reg)
		if err != nil {
			return err
		}
		for _, id := range reg {
			if slices.Contains(used, id) {
				return fmt.Errorf("register qubit %d listed twice: %w", id, ErrDuplicateID)
			}
			used = append(used, id)
		}
		positions[r] = pos
	}

	for _, id := range controls {
		if slices.Contains(used, id) {
			return fmt.Errorf("control %d: %w", id, ErrInvalidControl)
		}
	}

	ctrlmask, err := engine.qubits.Mask(controls)
	if err != nil {
		return err
	}

	engine.scheduler.Flush()
	engine.state.EmulateMath(fn, positions, ctrlmask)

	return nil
}

/*
Snapshot returns the id to position map and a copy of the amplitudes, after
applying every pending gate.
*/
func (engine *Engine[T]) Snapshot() (map[QubitID]int, []T) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	engine.scheduler.Flush()
	return engine.qubits.Snapshot(), engine.state.Amplitudes()
}

// IDs returns the allocated ids ordered by position.
func (engine *Engine[T]) IDs() []QubitID {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	return engine.qubits.IDs()
}

// Metrics exports the engine counters together with the governor's view of the state.
func (engine *Engine[T]) Metrics() map[string]interface{} {
	out := engine.metrics.ExportMetrics()

	qubits, bytes := engine.governor.GetResourceUsage()
	maxQubits, maxBytes := engine.governor.GetThresholds()

	out["governor"] = map[string]interface{}{
		"qubits":          qubits,
		"state_bytes":     bytes,
		"max_qubits":      maxQubits,
		"max_state_bytes": maxBytes,
	}

	return out
}

// Close applies pending gates and stops the worker pool.
func (engine *Engine[T]) Close() {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if engine.closed {
		return
	}

	engine.scheduler.Flush()
	engine.closed = true
	engine.pool.Close()
}
