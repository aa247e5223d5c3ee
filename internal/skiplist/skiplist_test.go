package skiplist

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func lessInt(a, b int) bool { return a < b }

func TestInsertGetRemoveAndInvariants(t *testing.T) {
	s := New[int, string](lessInt)
	vals := []int{5, 3, 8, 1, 9, 2, 7}
	for _, v := range vals {
		s.Insert(v, "v")
		require.True(t, s.CheckInvariants())
	}
	require.Equal(t, len(vals), s.Len())

	sorted := append([]int{}, vals...)
	sort.Ints(sorted)
	all := s.All()
	require.Len(t, all, len(sorted))
	for i, e := range all {
		require.Equal(t, sorted[i], e.Key)
	}

	require.True(t, s.Remove(8))
	require.False(t, s.Remove(8))
	require.True(t, s.CheckInvariants())
	require.Equal(t, len(vals)-1, s.Len())
}

func TestFirstLastRange(t *testing.T) {
	s := New[int, int](lessInt)
	for i := 0; i < 20; i++ {
		s.Insert(i, i*i)
	}
	k, v, ok := s.First()
	require.True(t, ok)
	require.Equal(t, 0, k)
	require.Equal(t, 0, v)

	k, v, ok = s.Last()
	require.True(t, ok)
	require.Equal(t, 19, k)
	require.Equal(t, 361, v)

	var collected []int
	s.Range(5, 10, func(k int, v int) bool {
		collected = append(collected, k)
		return true
	})
	require.Equal(t, []int{5, 6, 7, 8, 9, 10}, collected)
}

func TestDuplicateKeyOverwrites(t *testing.T) {
	s := New[int, string](lessInt)
	s.Insert(1, "a")
	s.Insert(1, "b")
	v, ok := s.Get(1)
	require.True(t, ok)
	require.Equal(t, "b", v)
	require.Equal(t, 1, s.Len())
}

func TestRandomSequenceInvariants(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	s := New[int, int](lessInt)
	present := map[int]bool{}
	for i := 0; i < 2000; i++ {
		k := r.Intn(300)
		if r.Intn(2) == 0 {
			s.Insert(k, k)
			present[k] = true
		} else {
			s.Remove(k)
			delete(present, k)
		}
		require.True(t, s.CheckInvariants())
	}
	require.Equal(t, len(present), s.Len())
}

func TestConcurrentSkipListBasic(t *testing.T) {
	c := NewConcurrent[int, int](lessInt)
	c.Insert(1, 100)
	v, ok := c.Get(1)
	require.True(t, ok)
	require.Equal(t, 100, v)
	require.Equal(t, 1, c.Len())
	require.True(t, c.Remove(1))
	require.Equal(t, 0, c.Len())
}

func TestConcurrentSkipListTryOps(t *testing.T) {
	c := NewConcurrent[int, int](lessInt)
	err := c.TryInsert(1, 1, 50*time.Millisecond)
	require.NoError(t, err)
	v, ok, err := c.TryGet(1, 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestShardedSkipList(t *testing.T) {
	s := NewShardedStringKeyed[int](8, func(a, b string) bool { return a < b })
	for i := 0; i < 100; i++ {
		s.Insert(string(rune('a'+i%26))+string(rune('0'+i%10)), i)
	}
	require.Equal(t, 100, s.Len())
	require.GreaterOrEqual(t, s.LoadBalanceScore(), 0.0)
	require.LessOrEqual(t, s.LoadBalanceScore(), 1.0)

	k, _, ok := s.First(func(a, b string) bool { return a < b })
	require.True(t, ok)
	require.NotEmpty(t, k)
}
