package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZSetAddScoreRemove(t *testing.T) {
	z := NewZSet()
	require.True(t, z.Add("alice", 10))
	require.False(t, z.Add("alice", 20))

	score, ok := z.Score("alice")
	require.True(t, ok)
	require.Equal(t, 20.0, score)
	require.Equal(t, 1, z.Card())
	require.True(t, z.CheckInvariants())

	require.True(t, z.Remove("alice"))
	require.False(t, z.Remove("alice"))
	require.Equal(t, 0, z.Card())
}

func TestZSetRangeByRank(t *testing.T) {
	z := NewZSet()
	z.Add("a", 1)
	z.Add("b", 2)
	z.Add("c", 3)
	z.Add("d", 4)

	require.Equal(t, []string{"a", "b", "c", "d"}, z.Range(0, -1))
	require.Equal(t, []string{"b", "c"}, z.Range(1, 2))
	require.Equal(t, []string{"d"}, z.Range(-1, -1))
	require.True(t, z.CheckInvariants())
}

func TestZSetRangeByScore(t *testing.T) {
	z := NewZSet()
	z.Add("a", 1)
	z.Add("b", 2)
	z.Add("c", 3)

	require.Equal(t, []string{"b", "c"}, z.RangeByScore(2, 3))
	require.Equal(t, []string{"a", "b", "c"}, z.RangeByScore(0, 10))
	require.Empty(t, z.RangeByScore(100, 200))
}

func TestZSetScoreUpdateReordersSkiplist(t *testing.T) {
	z := NewZSet()
	z.Add("a", 1)
	z.Add("b", 2)
	z.Add("a", 5)

	require.Equal(t, []string{"b", "a"}, z.Range(0, -1))
	require.True(t, z.CheckInvariants())
}

func TestZSetTiesOrderByMember(t *testing.T) {
	z := NewZSet()
	z.Add("zeta", 1)
	z.Add("alpha", 1)
	z.Add("mu", 1)

	require.Equal(t, []string{"alpha", "mu", "zeta"}, z.Range(0, -1))
}

func TestZSetNaNScoreOrdersLast(t *testing.T) {
	z := NewZSet()
	z.Add("a", 1)
	z.Add("nan", nan())
	z.Add("b", 2)

	require.Equal(t, []string{"a", "b", "nan"}, z.Range(0, -1))
	require.True(t, z.CheckInvariants())
}

func nan() float64 {
	var zero float64
	return zero / zero
}
