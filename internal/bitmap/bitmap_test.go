package bitmap

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetGetBitAutoGrows(t *testing.T) {
	b := New()
	b.SetBit(10, true)
	require.True(t, b.GetBit(10))
	require.False(t, b.GetBit(9))
	require.GreaterOrEqual(t, b.Len(), 2)
}

func TestMSBFirstOrdering(t *testing.T) {
	b := New()
	b.SetBit(0, true)
	require.Equal(t, byte(0x80), b.Bytes()[0])
	b.SetBit(7, true)
	require.Equal(t, byte(0x81), b.Bytes()[0])
}

func TestAllStrategiesAgree(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	buf := make([]byte, 1<<20) // 1 MiB
	r.Read(buf)
	b := FromBytes(buf)

	naive := 0
	for _, by := range buf {
		for i := 0; i < 8; i++ {
			if by&(1<<i) != 0 {
				naive++
			}
		}
	}

	strategies := []Strategy{StrategyAuto, StrategyLookupTable, StrategyPopcnt}
	for _, s := range strategies {
		require.Equal(t, naive, b.BitCount(s), "strategy %s mismatched", s)
	}
}

func TestBitwiseIdentities(t *testing.T) {
	a := FromBytes([]byte{0xAA, 0xF0, 0x0F})
	require.Equal(t, a.Bytes(), And(a, a).Bytes())

	zero := FromBytes([]byte{0x00, 0x00, 0x00})
	require.Equal(t, a.Bytes(), Or(a, zero).Bytes())

	xorSelf := Xor(a, a)
	for _, by := range xorSelf.Bytes() {
		require.Equal(t, byte(0), by)
	}
}

func TestAndTruncatesOrExtends(t *testing.T) {
	short := FromBytes([]byte{0xFF})
	long := FromBytes([]byte{0xFF, 0xFF, 0xFF})
	require.Len(t, And(short, long).Bytes(), 1)
	require.Len(t, Or(short, long).Bytes(), 3)
	require.Len(t, Xor(short, long).Bytes(), 3)
}

func TestNotFlipsOperandLength(t *testing.T) {
	a := FromBytes([]byte{0x00, 0xFF})
	n := Not(a)
	require.Equal(t, []byte{0xFF, 0x00}, n.Bytes())
}
