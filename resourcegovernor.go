package qsim

import (
	"runtime"
	"sync"

	"github.com/charmbracelet/log"
)

/*
ResourceGovernorRegulator bounds the size of the state vector. Every qubit
doubles the amplitude buffer, so the governor refuses the next allocation when
either the qubit count or the buffer size after doubling would pass its limit.
A limit of zero is unbounded.
*/
type ResourceGovernorRegulator struct {
	mu sync.RWMutex

	maxQubits     int
	maxStateBytes uint64
	metrics       *Metrics

	currentQubits int
	currentBytes  uint64
	heapAlloc     uint64
}

/*
NewResourceGovernorRegulator creates a governor.

Parameters:
  - maxQubits: largest register width, 0 for no limit
  - maxStateBytes: largest amplitude buffer in bytes, 0 for no limit

Returns:
  - *ResourceGovernorRegulator: a governor that has not observed anything yet
*/
func NewResourceGovernorRegulator(maxQubits int, maxStateBytes uint64) *ResourceGovernorRegulator {
	return &ResourceGovernorRegulator{
		maxQubits:     maxQubits,
		maxStateBytes: maxStateBytes,
	}
}

func (rg *ResourceGovernorRegulator) Observe(metrics *Metrics) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	rg.metrics = metrics
	rg.updateResourceUsage()
}

// Limit is true when one more qubit would break a bound.
func (rg *ResourceGovernorRegulator) Limit() bool {
	rg.mu.RLock()
	defer rg.mu.RUnlock()

	if rg.maxQubits > 0 && rg.currentQubits+1 > rg.maxQubits {
		return true
	}

	return rg.maxStateBytes > 0 && rg.currentBytes*2 > rg.maxStateBytes
}

func (rg *ResourceGovernorRegulator) Renormalize() {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	rg.updateResourceUsage()
}

func (rg *ResourceGovernorRegulator) updateResourceUsage() {
	if rg.metrics == nil {
		return
	}

	rg.currentQubits, rg.currentBytes = rg.metrics.size()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	rg.heapAlloc = memStats.HeapAlloc
}

// refuse logs a refused allocation together with the process heap size.
func (rg *ResourceGovernorRegulator) refuse() {
	rg.mu.RLock()
	defer rg.mu.RUnlock()

	log.Infof(
		"ResourceGovernorRegulator - refusing qubit %d (state %d bytes, heap %d bytes, limits %d qubits / %d bytes)",
		rg.currentQubits+1, rg.currentBytes, rg.heapAlloc, rg.maxQubits, rg.maxStateBytes,
	)
}

// GetResourceUsage returns the register width and buffer size last observed.
func (rg *ResourceGovernorRegulator) GetResourceUsage() (qubits int, bytes uint64) {
	rg.mu.RLock()
	defer rg.mu.RUnlock()
	return rg.currentQubits, rg.currentBytes
}

// GetThresholds returns the configured limits.
func (rg *ResourceGovernorRegulator) GetThresholds() (qubits int, bytes uint64) {
	rg.mu.RLock()
	defer rg.mu.RUnlock()
	return rg.maxQubits, rg.maxStateBytes
}
