package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueKindMismatchReturnsWrongType(t *testing.T) {
	v := NewInt(42)
	_, err := v.Str()
	require.Error(t, err)

	n, err := v.Int()
	require.NoError(t, err)
	require.Equal(t, int64(42), n)
}

func TestValueEqualPrimitive(t *testing.T) {
	require.True(t, NewInt(5).Equal(NewInt(5)))
	require.False(t, NewInt(5).Equal(NewInt(6)))
	require.True(t, NewBool(true).Equal(NewBool(true)))
	require.True(t, NewString([]byte("hi")).Equal(NewString([]byte("hi"))))
	require.False(t, NewString([]byte("hi")).Equal(NewString([]byte("bye"))))
}

func TestValueEqualFloatNaN(t *testing.T) {
	a := NewFloat(nan())
	b := NewFloat(nan())
	require.True(t, a.Equal(b))
}

func TestValueEqualSetOrderInsensitive(t *testing.T) {
	a := NewSet()
	aset, _ := a.Set()
	aset.Add("x")
	aset.Add("y")
	aset.Add("z")

	b := NewSet()
	bset, _ := b.Set()
	bset.Add("z")
	bset.Add("x")
	bset.Add("y")

	require.True(t, a.Equal(b))
}

func TestValueEqualHashMultiset(t *testing.T) {
	a := NewHash()
	ah, _ := a.Hash()
	ah.Set("f1", "v1")
	ah.Set("f2", "v2")

	b := NewHash()
	bh, _ := b.Hash()
	bh.Set("f2", "v2")
	bh.Set("f1", "v1")

	require.True(t, a.Equal(b))

	bh.Set("f2", "different")
	require.False(t, a.Equal(b))
}

func TestValueEqualZSetDictSortedAgreement(t *testing.T) {
	a := NewZSetValue()
	az, _ := a.ZSet()
	az.Add("m1", 1)
	az.Add("m2", 2)

	b := NewZSetValue()
	bz, _ := b.ZSet()
	bz.Add("m2", 2)
	bz.Add("m1", 1)

	require.True(t, a.Equal(b))
	require.True(t, az.CheckInvariants())
	require.True(t, bz.CheckInvariants())
}

func TestValueListRoundTrip(t *testing.T) {
	v := NewList()
	l, _ := v.List()
	l.PushBack([]byte("a"))
	l.PushBack([]byte("b"))

	w := NewList()
	lw, _ := w.List()
	lw.PushBack([]byte("a"))
	lw.PushBack([]byte("b"))

	require.True(t, v.Equal(w))
}

func TestValueBitmapEqual(t *testing.T) {
	a := NewBitmap()
	ab, _ := a.Bitmap()
	ab.SetBit(3, true)

	b := NewBitmap()
	bb, _ := b.Bitmap()
	bb.SetBit(3, true)

	require.True(t, a.Equal(b))
}

func TestValueStreamEqual(t *testing.T) {
	a := NewStreamValue()
	as, _ := a.Stream()
	as.Add(1000, map[string]string{"k": "v"})

	b := NewStreamValue()
	bs, _ := b.Stream()
	bs.Add(1000, map[string]string{"k": "v"})

	require.True(t, a.Equal(b))
}

func TestValueKindString(t *testing.T) {
	require.Equal(t, "int", KindInt.String())
	require.Equal(t, "zset", KindZSet.String())
	require.Equal(t, "none", KindNull.String())
}
