// Package value implements the tagged Value union from spec.md §3: the
// single type every key in the store maps to, plus the container types
// (ZSet, OrderedFloat, SStream) layered directly on internal/dict,
// internal/skiplist and friends.
package value

import (
	"bytes"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/emberkv/emberkv/internal/bitmap"
	"github.com/emberkv/emberkv/internal/geo"
	"github.com/emberkv/emberkv/internal/hash"
	"github.com/emberkv/emberkv/internal/hll"
	"github.com/emberkv/emberkv/internal/quicklist"
	"github.com/emberkv/emberkv/internal/sds"
	"github.com/emberkv/emberkv/kverrors"
)

// Kind tags which variant of Value is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindSet
	KindHash
	KindZSet
	KindBitmap
	KindHyperLogLog
	KindGeoSet
	KindStream
)

// String names a Kind the way TYPE-equivalent commands report it.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "none"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindHash:
		return "hash"
	case KindZSet:
		return "zset"
	case KindBitmap:
		return "bitmap"
	case KindHyperLogLog:
		return "hyperloglog"
	case KindGeoSet:
		return "geoset"
	case KindStream:
		return "stream"
	default:
		return "unknown"
	}
}

// Value is the tagged union every stored key maps to, per spec.md §3.
// Exactly one field is meaningful for a given Kind; the rest are zero.
type Value struct {
	kind Kind

	boolVal  bool
	intVal   int64
	floatVal float64

	str  *sds.Sds
	list *quicklist.Quicklist
	set  mapset.Set[string]
	hash *hash.CompactHash
	zset *ZSet
	bmap *bitmap.Bitmap
	hll  *hll.HLL
	geo  *geo.GeoSet
	strm *SStream
}

func (v *Value) Kind() Kind { return v.kind }

func NewNull() *Value { return &Value{kind: KindNull} }

func NewBool(b bool) *Value { return &Value{kind: KindBool, boolVal: b} }

func NewInt(i int64) *Value { return &Value{kind: KindInt, intVal: i} }

func NewFloat(f float64) *Value { return &Value{kind: KindFloat, floatVal: f} }

func NewString(b []byte) *Value { return &Value{kind: KindString, str: sds.New(b)} }

func NewList() *Value { return &Value{kind: KindList, list: quicklist.New()} }

func NewSet() *Value { return &Value{kind: KindSet, set: mapset.NewThreadUnsafeSet[string]()} }

func NewHash() *Value { return &Value{kind: KindHash, hash: hash.New()} }

func NewZSetValue() *Value { return &Value{kind: KindZSet, zset: NewZSet()} }

func NewBitmap() *Value { return &Value{kind: KindBitmap, bmap: bitmap.New()} }

func NewHyperLogLog(precision uint8) *Value {
	return &Value{kind: KindHyperLogLog, hll: hll.New(precision)}
}

func NewGeoSetValue() *Value { return &Value{kind: KindGeoSet, geo: geo.NewGeoSet()} }

// FromHLL wraps a pre-built HLL (e.g. reconstructed from a ZDB dump)
// in a Value, bypassing NewHyperLogLog's always-sparse start state.
func FromHLL(h *hll.HLL) *Value { return &Value{kind: KindHyperLogLog, hll: h} }

func NewStreamValue() *Value { return &Value{kind: KindStream, strm: NewStream()} }

// typeError builds the WRONGTYPE-equivalent error spec.md §6 requires
// every typed accessor to return when the key holds a different Kind.
func (v *Value) typeError(want Kind) error {
	return kverrors.WrongType(fmt.Sprintf("expected %s, got %s", want, v.kind))
}

func (v *Value) Bool() (bool, error) {
	if v.kind != KindBool {
		return false, v.typeError(KindBool)
	}
	return v.boolVal, nil
}

func (v *Value) Int() (int64, error) {
	if v.kind != KindInt {
		return 0, v.typeError(KindInt)
	}
	return v.intVal, nil
}

func (v *Value) Float() (float64, error) {
	if v.kind != KindFloat {
		return 0, v.typeError(KindFloat)
	}
	return v.floatVal, nil
}

func (v *Value) Str() (*sds.Sds, error) {
	if v.kind != KindString {
		return nil, v.typeError(KindString)
	}
	return v.str, nil
}

func (v *Value) List() (*quicklist.Quicklist, error) {
	if v.kind != KindList {
		return nil, v.typeError(KindList)
	}
	return v.list, nil
}

func (v *Value) Set() (mapset.Set[string], error) {
	if v.kind != KindSet {
		return nil, v.typeError(KindSet)
	}
	return v.set, nil
}

func (v *Value) Hash() (*hash.CompactHash, error) {
	if v.kind != KindHash {
		return nil, v.typeError(KindHash)
	}
	return v.hash, nil
}

func (v *Value) ZSet() (*ZSet, error) {
	if v.kind != KindZSet {
		return nil, v.typeError(KindZSet)
	}
	return v.zset, nil
}

func (v *Value) Bitmap() (*bitmap.Bitmap, error) {
	if v.kind != KindBitmap {
		return nil, v.typeError(KindBitmap)
	}
	return v.bmap, nil
}

func (v *Value) HLL() (*hll.HLL, error) {
	if v.kind != KindHyperLogLog {
		return nil, v.typeError(KindHyperLogLog)
	}
	return v.hll, nil
}

func (v *Value) GeoSet() (*geo.GeoSet, error) {
	if v.kind != KindGeoSet {
		return nil, v.typeError(KindGeoSet)
	}
	return v.geo, nil
}

func (v *Value) Stream() (*SStream, error) {
	if v.kind != KindStream {
		return nil, v.typeError(KindStream)
	}
	return v.strm, nil
}

// Equal implements the special per-kind equality rules from spec.md §8:
// NaN==NaN for floats, order-insensitive for sets, multiset-based for
// hashes (field/value pairs, regardless of internal layout), and
// dict<->sorted agreement is ZSet's own invariant rather than part of
// equality (two ZSets are equal iff their member->score maps match).
func (a *Value) Equal(b *Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.boolVal == b.boolVal
	case KindInt:
		return a.intVal == b.intVal
	case KindFloat:
		return OrderedFloat(a.floatVal).Equal(OrderedFloat(b.floatVal))
	case KindString:
		return a.str.String() == b.str.String()
	case KindList:
		return quicklistEqual(a.list, b.list)
	case KindSet:
		return a.set.Equal(b.set)
	case KindHash:
		return hashEqual(a.hash, b.hash)
	case KindZSet:
		return zsetEqual(a.zset, b.zset)
	case KindBitmap:
		return bitmapEqual(a.bmap, b.bmap)
	case KindHyperLogLog:
		// HLL equality only makes sense over materialized cardinality;
		// register layout (sparse vs dense) is an implementation detail.
		return a.hll.Estimate() == b.hll.Estimate()
	case KindGeoSet:
		return a.geo.Len() == b.geo.Len()
	case KindStream:
		return streamEqual(a.strm, b.strm)
	default:
		return false
	}
}

func quicklistEqual(a, b *quicklist.Quicklist) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		av, _ := a.Get(i)
		bv, _ := b.Get(i)
		if string(av) != string(bv) {
			return false
		}
	}
	return true
}

func hashEqual(a, b *hash.CompactHash) bool {
	if a.Len() != b.Len() {
		return false
	}
	for field, val := range a.All() {
		bv, found := b.Get(field)
		if !found || bv != val {
			return false
		}
	}
	return true
}

func zsetEqual(a, b *ZSet) bool {
	if a.Card() != b.Card() {
		return false
	}
	for _, m := range a.Range(0, -1) {
		as, _ := a.Score(m)
		bs, ok := b.Score(m)
		if !ok || !OrderedFloat(as).Equal(OrderedFloat(bs)) {
			return false
		}
	}
	return true
}

func bitmapEqual(a, b *bitmap.Bitmap) bool {
	return bytes.Equal(a.Bytes(), b.Bytes())
}

func streamEqual(a, b *SStream) bool {
	if a.Len() != b.Len() {
		return false
	}
	ar := a.Range(StreamID{}, StreamID{Ms: ^uint64(0), Seq: ^uint64(0)})
	br := b.Range(StreamID{}, StreamID{Ms: ^uint64(0), Seq: ^uint64(0)})
	if len(ar) != len(br) {
		return false
	}
	for i := range ar {
		if ar[i].ID != br[i].ID || len(ar[i].Fields) != len(br[i].Fields) {
			return false
		}
		for k, v := range ar[i].Fields {
			if br[i].Fields[k] != v {
				return false
			}
		}
	}
	return true
}
