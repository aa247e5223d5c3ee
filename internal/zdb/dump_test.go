package zdb

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emberkv/emberkv/internal/geo"
	"github.com/emberkv/emberkv/internal/value"
)

func sampleEntries() []Entry {
	list := value.NewList()
	l, _ := list.List()
	l.PushBack([]byte("a"))
	l.PushBack([]byte("b"))

	set := value.NewSet()
	s, _ := set.Set()
	s.Add("x")
	s.Add("y")

	h := value.NewHash()
	hm, _ := h.Hash()
	hm.Set("f1", "v1")
	hm.Set("f2", "v2")

	z := value.NewZSetValue()
	zm, _ := z.ZSet()
	zm.Add("m1", 1.5)
	zm.Add("m2", 2.5)

	bm := value.NewBitmap()
	b, _ := bm.Bitmap()
	b.SetBit(1, true)
	b.SetBit(9, true)

	hllVal := value.NewHyperLogLog(10)
	hllc, _ := hllVal.HLL()
	for i := 0; i < 50; i++ {
		hllc.Add([]byte{byte(i)})
	}

	gs := value.NewGeoSetValue()
	g, _ := gs.GeoSet()
	g.Add("sf", geo.Point{Lon: -122.4194, Lat: 37.7749})

	strm := value.NewStreamValue()
	st, _ := strm.Stream()
	st.Add(1000, map[string]string{"field": "value"})

	return []Entry{
		{Key: "str", Val: value.NewString([]byte("hello"))},
		{Key: "int", Val: value.NewInt(42)},
		{Key: "float", Val: value.NewFloat(3.14)},
		{Key: "bool", Val: value.NewBool(true)},
		{Key: "null", Val: value.NewNull()},
		{Key: "list", Val: list},
		{Key: "set", Val: set},
		{Key: "hash", Val: h},
		{Key: "zset", Val: z},
		{Key: "bitmap", Val: bm},
		{Key: "hll", Val: hllVal},
		{Key: "geo", Val: gs},
		{Key: "stream", Val: strm},
	}
}

func TestDumpRoundTripAllKinds(t *testing.T) {
	entries := sampleEntries()
	var buf bytes.Buffer
	require.NoError(t, WriteDump(&buf, entries, DefaultDumpOptions()))

	got, err := ReadDump(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(entries))

	byKey := make(map[string]*value.Value, len(got))
	for _, e := range got {
		byKey[e.Key] = e.Val
	}
	for _, want := range entries {
		gotVal, ok := byKey[want.Key]
		require.True(t, ok, "missing key %s", want.Key)
		require.Equal(t, want.Val.Kind(), gotVal.Kind(), "kind mismatch for %s", want.Key)
	}
}

func TestDumpRoundTripEqualityForSimpleKinds(t *testing.T) {
	entries := []Entry{
		{Key: "a", Val: value.NewInt(7)},
		{Key: "b", Val: value.NewString([]byte("hi"))},
		{Key: "c", Val: value.NewFloat(2.5)},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteDump(&buf, entries, DefaultDumpOptions()))

	got, err := ReadDump(&buf)
	require.NoError(t, err)
	byKey := make(map[string]*value.Value, len(got))
	for _, e := range got {
		byKey[e.Key] = e.Val
	}
	for _, want := range entries {
		require.True(t, want.Val.Equal(byKey[want.Key]))
	}
}

func TestDumpWithCompressionLargeValue(t *testing.T) {
	big := strings.Repeat("x", 1024)
	entries := []Entry{{Key: "big", Val: value.NewString([]byte(big))}}

	opts := DefaultDumpOptions()
	var buf bytes.Buffer
	require.NoError(t, WriteDump(&buf, entries, opts))

	got, err := ReadDump(&buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	s, err := got[0].Val.Str()
	require.NoError(t, err)
	require.Equal(t, big, s.String())
}

func TestDumpV1HasNoCompression(t *testing.T) {
	big := strings.Repeat("y", 1024)
	entries := []Entry{{Key: "big", Val: value.NewString([]byte(big))}}

	opts := DumpOptions{Version: V1, Compression: DefaultCompressionOptions()}
	var buf bytes.Buffer
	require.NoError(t, WriteDump(&buf, entries, opts))
	require.False(t, bytes.Contains(buf.Bytes(), []byte{compressedMarker}))

	got, err := ReadDump(&buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestStreamReaderWalkWithCollectHandler(t *testing.T) {
	entries := sampleEntries()
	var buf bytes.Buffer
	require.NoError(t, WriteDump(&buf, entries, DefaultDumpOptions()))

	sr, err := NewStreamReader(&buf)
	require.NoError(t, err)

	collect := &CollectHandler{}
	require.NoError(t, Walk(sr, collect))
	require.Len(t, collect.Entries, len(entries))
}

func TestStreamReaderCountHandler(t *testing.T) {
	entries := sampleEntries()
	var buf bytes.Buffer
	require.NoError(t, WriteDump(&buf, entries, DefaultDumpOptions()))

	sr, err := NewStreamReader(&buf)
	require.NoError(t, err)
	count := NewCountHandler()
	require.NoError(t, Walk(sr, count))
	require.Equal(t, len(entries), count.Stats.Count)
	require.Equal(t, 1, count.Stats.ByKind[value.KindInt])
}

func TestStreamReaderFilterHandler(t *testing.T) {
	entries := sampleEntries()
	var buf bytes.Buffer
	require.NoError(t, WriteDump(&buf, entries, DefaultDumpOptions()))

	sr, err := NewStreamReader(&buf)
	require.NoError(t, err)
	filter := &FilterHandler{Predicate: func(e Entry) bool { return e.Val.Kind() == value.KindString }}
	require.NoError(t, Walk(sr, filter))
	require.Len(t, filter.Kept, 1)
	require.Equal(t, "str", filter.Kept[0].Key)
}

func TestUnsupportedVersionRejected(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(Magic[:])
	buf.WriteByte(99)
	_, err := ReadHeader(&buf)
	require.Error(t, err)
}

func TestBadMagicRejected(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("NOPE")
	buf.WriteByte(byte(V1))
	_, err := ReadHeader(&buf)
	require.Error(t, err)
}

func TestTruncatedEntryReportsParseError(t *testing.T) {
	entries := []Entry{{Key: "k", Val: value.NewInt(1)}}
	var buf bytes.Buffer
	require.NoError(t, WriteDump(&buf, entries, DefaultDumpOptions()))

	truncated := buf.Bytes()[:buf.Len()-2]
	_, err := ReadDump(bytes.NewReader(truncated))
	require.Error(t, err)
}

func TestHLLRoundTripPreservesEstimate(t *testing.T) {
	v := value.NewHyperLogLog(12)
	h, _ := v.HLL()
	for i := 0; i < 2000; i++ {
		h.Add([]byte{byte(i), byte(i >> 8)})
	}
	want := h.Estimate()

	var buf bytes.Buffer
	require.NoError(t, WriteDump(&buf, []Entry{{Key: "hll", Val: v}}, DefaultDumpOptions()))

	got, err := ReadDump(&buf)
	require.NoError(t, err)
	gh, err := got[0].Val.HLL()
	require.NoError(t, err)
	require.InDelta(t, want, gh.Estimate(), 1e-9)
	require.True(t, gh.IsDense())
}

func TestGeoSetRoundTrip(t *testing.T) {
	v := value.NewGeoSetValue()
	g, _ := v.GeoSet()
	g.Add("sf", geo.Point{Lon: -122.4194, Lat: 37.7749})
	g.Add("la", geo.Point{Lon: -118.2437, Lat: 34.0522})

	var buf bytes.Buffer
	require.NoError(t, WriteDump(&buf, []Entry{{Key: "geo", Val: v}}, DefaultDumpOptions()))

	got, err := ReadDump(&buf)
	require.NoError(t, err)
	gg, err := got[0].Val.GeoSet()
	require.NoError(t, err)
	require.Equal(t, 2, gg.Len())
	p, ok := gg.Pos("sf")
	require.True(t, ok)
	require.InDelta(t, -122.4194, p.Lon, 1e-6)
}
