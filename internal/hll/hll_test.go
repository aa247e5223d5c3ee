package hll

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSparseToDenseConversion(t *testing.T) {
	h := New(14, WithSparseThreshold(200))
	for i := 0; i < 1000; i++ {
		h.Add([]byte(fmt.Sprintf("item-%d", i)))
	}
	require.True(t, h.IsDense())
	est := h.Estimate()
	require.InDelta(t, 1000, est, 1000*0.05)
}

func TestAddIdempotent(t *testing.T) {
	h := New(14)
	for i := 0; i < 100; i++ {
		h.Add([]byte("same-item"))
	}
	require.InDelta(t, 1, h.Estimate(), 2)
}

func TestMergeCommutativeAssociative(t *testing.T) {
	a := New(12)
	b := New(12)
	c := New(12)
	for i := 0; i < 500; i++ {
		a.Add([]byte(fmt.Sprintf("a-%d", i)))
	}
	for i := 0; i < 500; i++ {
		b.Add([]byte(fmt.Sprintf("b-%d", i)))
	}
	for i := 0; i < 500; i++ {
		c.Add([]byte(fmt.Sprintf("c-%d", i)))
	}

	ab := New(12)
	ab.Merge(a)
	ab.Merge(b)
	ba := New(12)
	ba.Merge(b)
	ba.Merge(a)
	require.Equal(t, ab.registers(), ba.registers())

	abc1 := New(12)
	abc1.Merge(a)
	abc1.Merge(b)
	abc1.Merge(c)

	bc := New(12)
	bc.Merge(b)
	bc.Merge(c)
	abc2 := New(12)
	abc2.Merge(a)
	abc2.Merge(bc)

	require.Equal(t, abc1.registers(), abc2.registers())
}

func TestSparseDenseEstimateConsistency(t *testing.T) {
	h := New(14, WithSparseThreshold(100000))
	for i := 0; i < 500; i++ {
		h.Add([]byte(fmt.Sprintf("x-%d", i)))
	}
	require.False(t, h.IsDense())
	beforeEst := h.Estimate()
	h.convertToDense()
	afterEst := h.Estimate()
	require.True(t, math.Abs(beforeEst-afterEst) < 1e-9)
}

func TestMetricsSaturatingNoUnderflow(t *testing.T) {
	m := &Metrics{}
	h := New(10, WithMetrics(m))
	for i := 0; i < 50; i++ {
		h.Add([]byte(fmt.Sprintf("v-%d", i)))
	}
	snap := m.Snapshot()
	require.Equal(t, uint64(1), snap.Created)
	require.Equal(t, uint64(50), snap.Adds)
	require.GreaterOrEqual(t, snap.ApproxMemoryBytes, uint64(0))
}
