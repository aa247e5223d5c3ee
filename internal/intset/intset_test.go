package intset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddAscendingIterAndNoDowncast(t *testing.T) {
	s := New()
	require.True(t, s.Add(5))
	require.False(t, s.Add(5))
	require.True(t, s.Add(1))
	require.True(t, s.Add(3))
	require.Equal(t, []int64{1, 3, 5}, s.Iter())
	require.Equal(t, Enc16, s.Encoding())

	require.True(t, s.Add(math.MaxInt32))
	require.Equal(t, Enc32, s.Encoding())

	require.True(t, s.Add(math.MaxInt64))
	require.Equal(t, Enc64, s.Encoding())

	// Removing the large values must not downcast the encoding.
	require.True(t, s.Remove(math.MaxInt64))
	require.True(t, s.Remove(math.MaxInt32))
	require.Equal(t, Enc64, s.Encoding())
}

func TestContainsAndRemove(t *testing.T) {
	s := New()
	for _, v := range []int64{10, 20, 30} {
		s.Add(v)
	}
	require.True(t, s.Contains(20))
	require.True(t, s.Remove(20))
	require.False(t, s.Contains(20))
	require.False(t, s.Remove(20))
}

func TestMinMax(t *testing.T) {
	s := New()
	_, ok := s.Min()
	require.False(t, ok)
	s.Add(7)
	s.Add(-3)
	s.Add(42)
	mn, _ := s.Min()
	mx, _ := s.Max()
	require.Equal(t, int64(-3), mn)
	require.Equal(t, int64(42), mx)
}
