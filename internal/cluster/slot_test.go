package cluster

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeySlotIsStable(t *testing.T) {
	require.Equal(t, KeySlot("foo"), KeySlot("foo"))
	require.Less(t, KeySlot("foo"), uint16(NumSlots))
}

func TestKeySlotHashtagPinsRelatedKeys(t *testing.T) {
	a := KeySlot("user:{1000}:profile")
	b := KeySlot("user:{1000}:settings")
	require.Equal(t, a, b)
}

func TestKeySlotEmptyHashtagFallsBackToWholeKey(t *testing.T) {
	withEmpty := KeySlot("foo{}bar")
	whole := CRC16([]byte("foo{}bar")) % NumSlots
	require.Equal(t, whole, withEmpty)
}

func TestSlotsForKeysDedupes(t *testing.T) {
	slots := SlotsForKeys([]string{"a{x}", "b{x}", "c{x}"})
	require.Len(t, slots, 1)
}
