package qsim

import (
	"slices"
	"sync"
	"time"
)

/*
Metrics collects counters about the engine's work: how many fused batches were
flushed, how many gates they absorbed, how many kernel passes ran at each
arity, and how long flushes took over a sliding window.
*/
type Metrics struct {
	mu sync.RWMutex

	Qubits     int
	StateBytes uint64

	Flushes      int64
	FusedGates   int64
	KernelPasses [MaxKernelArity + 1]int64

	Measurements  int64
	Collapses     int64
	Allocations   int64
	Deallocations int64
	Refusals      int64

	TotalFlushTime      time.Duration
	AverageFlushLatency time.Duration

	// latencies is a ring of the most recent flush durations.
	latencies  []time.Duration
	next       int
	windowSize int
}

func newMetrics() *Metrics {
	return &Metrics{
		latencies:  make([]time.Duration, 0, 1000),
		windowSize: 1000,
	}
}

// recordFlush accounts one kernel pass for a batch of gates on qubits targets.
func (m *Metrics) recordFlush(startTime time.Time, qubits, gates int) {
	duration := time.Since(startTime)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalFlushTime += duration
	m.Flushes++
	m.FusedGates += int64(gates)

	if qubits >= 0 && qubits < len(m.KernelPasses) {
		m.KernelPasses[qubits]++
	}

	m.updateLatencyPercentiles(duration)
}

func (m *Metrics) updateLatencyPercentiles(duration time.Duration) {
	m.AverageFlushLatency = (m.AverageFlushLatency*time.Duration(m.Flushes-1) + duration) / time.Duration(m.Flushes)

	if len(m.latencies) < m.windowSize {
		m.latencies = append(m.latencies, duration)
		return
	}

	m.latencies[m.next] = duration
	m.next = (m.next + 1) % m.windowSize
}

// percentiles sorts a copy of the window; it only runs on export.
func (m *Metrics) percentiles() (p95, p99 time.Duration) {
	if len(m.latencies) == 0 {
		return 0, 0
	}

	sorted := slices.Clone(m.latencies)
	slices.Sort(sorted)

	p95 = sorted[min(int(float64(len(sorted))*0.95), len(sorted)-1)]
	p99 = sorted[min(int(float64(len(sorted))*0.99), len(sorted)-1)]

	return p95, p99
}

// recordSize tracks the current register width and buffer size.
func (m *Metrics) recordSize(qubits int, bytes uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Qubits = qubits
	m.StateBytes = bytes
}

// count bumps one of the plain event counters under the lock.
func (m *Metrics) count(counter *int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	*counter++
}

// size returns the register width and buffer size last recorded.
func (m *Metrics) size() (int, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.Qubits, m.StateBytes
}

func (m *Metrics) ExportMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p95, p99 := m.percentiles()

	passes := make(map[int]int64, len(m.KernelPasses))
	for k, n := range m.KernelPasses {
		if n > 0 {
			passes[k] = n
		}
	}

	return map[string]interface{}{
		"qubits":        m.Qubits,
		"state_bytes":   m.StateBytes,
		"flushes":       m.Flushes,
		"fused_gates":   m.FusedGates,
		"kernel_passes": passes,
		"measurements":  m.Measurements,
		"collapses":     m.Collapses,
		"allocations":   m.Allocations,
		"deallocations": m.Deallocations,
		"refusals":      m.Refusals,
		"avg_latency":   m.AverageFlushLatency.Microseconds(),
		"p95_latency":   p95.Microseconds(),
		"p99_latency":   p99.Microseconds(),
	}
}
