package zdb

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarintRoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 127, 128, 255, 256, 16383, 16384, 65535, 1_000_000, ^uint32(0)}
	for _, v := range cases {
		var buf bytes.Buffer
		n, err := WriteVarint(&buf, v)
		require.NoError(t, err)
		require.Equal(t, n, buf.Len())
		require.Equal(t, VarintSize(v), buf.Len())

		decoded, err := ReadVarint(&buf)
		require.NoError(t, err)
		require.Equal(t, v, decoded)
	}
}

func TestVarintKnownEncodings(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteVarint(&buf, 300)
	require.NoError(t, err)
	require.Equal(t, []byte{0xAC, 0x02}, buf.Bytes())

	buf.Reset()
	_, err = WriteVarint(&buf, ^uint32(0))
	require.NoError(t, err)
	require.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}, buf.Bytes())
}

func TestVarintTooLongIsError(t *testing.T) {
	bad := bytes.NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01})
	_, err := ReadVarint(bad)
	require.Error(t, err)
}

func TestVarintIncompleteIsError(t *testing.T) {
	incomplete := bytes.NewReader([]byte{0x80})
	_, err := ReadVarint(incomplete)
	require.Error(t, err)
}

func TestVarintLeavesExtraBytes(t *testing.T) {
	var buf bytes.Buffer
	_, _ = WriteVarint(&buf, 300)
	buf.WriteByte(0x42)

	v, err := ReadVarint(&buf)
	require.NoError(t, err)
	require.Equal(t, uint32(300), v)

	rest := make([]byte, 1)
	_, err = buf.Read(rest)
	require.NoError(t, err)
	require.Equal(t, byte(0x42), rest[0])
}
