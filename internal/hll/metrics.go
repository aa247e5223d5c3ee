package hll

import (
	"sync/atomic"

	"github.com/emberkv/emberkv/internal/numeric"
)

// Metrics accumulates saturating counters across every HLL instance
// sharing this Metrics value, per spec.md §4.6/§9: updates that could
// both increment and decrement (the approx-memory-bytes delta) must
// use a compare-and-swap loop with a saturating transform, never a
// bare Add/Sub that could underflow under concurrency.
type Metrics struct {
	created        atomic.Uint64
	sparseCount    atomic.Uint64
	denseCount     atomic.Uint64
	conversions    atomic.Uint64
	adds           atomic.Uint64
	merges         atomic.Uint64
	estimations    atomic.Uint64
	approxMemBytes atomic.Uint64
}

func satAdd(a *atomic.Uint64, delta uint64) {
	for {
		old := a.Load()
		nv, overflowed := numeric.SafeAdd(old, delta)
		if overflowed {
			nv = ^uint64(0)
		}
		if a.CompareAndSwap(old, nv) {
			return
		}
	}
}

func satSubDelta(a *atomic.Uint64, delta int64) {
	for {
		old := a.Load()
		var nv uint64
		if delta >= 0 {
			nv = old + uint64(delta)
			if nv < old {
				nv = ^uint64(0)
			}
		} else {
			d := uint64(-delta)
			if d > old {
				nv = 0
			} else {
				nv = old - d
			}
		}
		if a.CompareAndSwap(old, nv) {
			return
		}
	}
}

func (m *Metrics) recordCreated()     { satAdd(&m.created, 1) }
func (m *Metrics) recordAdd()         { satAdd(&m.adds, 1) }
func (m *Metrics) recordMerge()       { satAdd(&m.merges, 1) }
func (m *Metrics) recordEstimation()  { satAdd(&m.estimations, 1) }
func (m *Metrics) recordConversion()  { satAdd(&m.conversions, 1) }
func (m *Metrics) setRepresentation(sparse bool) {
	if sparse {
		satAdd(&m.sparseCount, 1)
	} else {
		satAdd(&m.denseCount, 1)
	}
}
func (m *Metrics) adjustMemory(deltaBytes int64) { satSubDelta(&m.approxMemBytes, deltaBytes) }

// Snapshot is a point-in-time copy of every counter.
type Snapshot struct {
	Created, SparseCount, DenseCount, Conversions  uint64
	Adds, Merges, Estimations, ApproxMemoryBytes    uint64
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Created:            m.created.Load(),
		SparseCount:        m.sparseCount.Load(),
		DenseCount:         m.denseCount.Load(),
		Conversions:        m.conversions.Load(),
		Adds:                m.adds.Load(),
		Merges:              m.merges.Load(),
		Estimations:         m.estimations.Load(),
		ApproxMemoryBytes:   m.approxMemBytes.Load(),
	}
}
