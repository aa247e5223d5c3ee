package hash

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetGetDelete(t *testing.T) {
	h := New()
	require.True(t, h.Set("a", "1"))
	require.False(t, h.Set("a", "2"))
	v, ok := h.Get("a")
	require.True(t, ok)
	require.Equal(t, "2", v)
	require.True(t, h.Delete("a"))
	require.False(t, h.Delete("a"))
}

func TestPromotionAboveThreshold(t *testing.T) {
	h := New()
	for i := 0; i < PromotionThreshold+10; i++ {
		h.Set(fmt.Sprintf("f%d", i), fmt.Sprintf("%d", i))
	}
	require.True(t, h.Promoted())
	require.Equal(t, PromotionThreshold+10, h.Len())
	v, ok := h.Get("f5")
	require.True(t, ok)
	require.Equal(t, "5", v)
}

func TestIncrBy(t *testing.T) {
	h := New()
	parse := func(s string) (int64, bool) {
		v, err := strconv.ParseInt(s, 10, 64)
		return v, err == nil
	}
	format := func(v int64) string { return strconv.FormatInt(v, 10) }

	v, ok := h.IncrBy("counter", 5, parse, format)
	require.True(t, ok)
	require.Equal(t, int64(5), v)

	v, ok = h.IncrBy("counter", 3, parse, format)
	require.True(t, ok)
	require.Equal(t, int64(8), v)
}
