package zdb

import (
	"encoding/binary"
	"io"

	"github.com/emberkv/emberkv/internal/geo"
	"github.com/emberkv/emberkv/internal/hll"
	"github.com/emberkv/emberkv/internal/value"
	"github.com/emberkv/emberkv/kverrors"
)

// EncodeValue serializes v as a tag-prefixed body, per spec.md §4.8.
// All multi-byte integers are big-endian unless noted.
func EncodeValue(w io.Writer, v *value.Value) error {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.Str()
		return writeTagged(w, TagStr, func(w io.Writer) error { return writeBytes32(w, s.Bytes()) })
	case value.KindInt:
		n, _ := v.Int()
		return writeTagged(w, TagInt, func(w io.Writer) error { return binary.Write(w, binary.BigEndian, n) })
	case value.KindFloat:
		f, _ := v.Float()
		return writeTagged(w, TagFloat, func(w io.Writer) error { return binary.Write(w, binary.BigEndian, f) })
	case value.KindBool:
		b, _ := v.Bool()
		return writeTagged(w, TagBool, func(w io.Writer) error {
			var bb byte
			if b {
				bb = 1
			}
			_, err := w.Write([]byte{bb})
			return err
		})
	case value.KindNull:
		return writeTagged(w, TagNull, func(io.Writer) error { return nil })
	case value.KindList:
		l, _ := v.List()
		items := l.All()
		return writeTagged(w, TagList, func(w io.Writer) error {
			if err := binary.Write(w, binary.BigEndian, uint32(len(items))); err != nil {
				return err
			}
			for _, item := range items {
				if err := writeBytes32(w, item); err != nil {
					return err
				}
			}
			return nil
		})
	case value.KindSet:
		set, _ := v.Set()
		members := set.ToSlice()
		return writeTagged(w, TagSet, func(w io.Writer) error {
			if err := binary.Write(w, binary.BigEndian, uint32(len(members))); err != nil {
				return err
			}
			for _, m := range members {
				if err := writeBytes32(w, []byte(m)); err != nil {
					return err
				}
			}
			return nil
		})
	case value.KindHash:
		h, _ := v.Hash()
		fields := h.All()
		return writeTagged(w, TagHash, func(w io.Writer) error {
			if err := binary.Write(w, binary.BigEndian, uint32(len(fields))); err != nil {
				return err
			}
			for field, val := range fields {
				if err := writeBytes32(w, []byte(field)); err != nil {
					return err
				}
				if err := writeBytes32(w, []byte(val)); err != nil {
					return err
				}
			}
			return nil
		})
	case value.KindZSet:
		z, _ := v.ZSet()
		members := z.Range(0, -1)
		return writeTagged(w, TagZSet, func(w io.Writer) error {
			if err := binary.Write(w, binary.BigEndian, uint32(len(members))); err != nil {
				return err
			}
			for _, m := range members {
				score, _ := z.Score(m)
				if err := writeBytes32(w, []byte(m)); err != nil {
					return err
				}
				if err := binary.Write(w, binary.BigEndian, score); err != nil {
					return err
				}
			}
			return nil
		})
	case value.KindBitmap:
		bm, _ := v.Bitmap()
		return writeTagged(w, TagBitmap, func(w io.Writer) error { return writeBytes32(w, bm.Bytes()) })
	case value.KindHyperLogLog:
		h, _ := v.HLL()
		return writeTagged(w, TagHLL, func(w io.Writer) error {
			if err := binary.Write(w, binary.BigEndian, uint8(h.Precision())); err != nil {
				return err
			}
			return writeBytes32(w, h.DenseBytes())
		})
	case value.KindGeoSet:
		g, _ := v.GeoSet()
		members := g.All()
		return writeTagged(w, TagGeoSet, func(w io.Writer) error {
			if err := binary.Write(w, binary.BigEndian, uint32(len(members))); err != nil {
				return err
			}
			for _, m := range members {
				if err := writeBytes32(w, []byte(m.Member)); err != nil {
					return err
				}
				if err := binary.Write(w, binary.BigEndian, m.Point.Lon); err != nil {
					return err
				}
				if err := binary.Write(w, binary.BigEndian, m.Point.Lat); err != nil {
					return err
				}
			}
			return nil
		})
	case value.KindStream:
		strm, _ := v.Stream()
		entries := strm.Range(value.StreamID{}, value.StreamID{Ms: ^uint64(0), Seq: ^uint64(0)})
		return writeTagged(w, TagSStream, func(w io.Writer) error {
			if err := binary.Write(w, binary.BigEndian, uint32(len(entries))); err != nil {
				return err
			}
			for _, e := range entries {
				if err := binary.Write(w, binary.BigEndian, e.ID.Ms); err != nil {
					return err
				}
				if err := binary.Write(w, binary.BigEndian, e.ID.Seq); err != nil {
					return err
				}
				if err := binary.Write(w, binary.BigEndian, uint32(len(e.Fields))); err != nil {
					return err
				}
				for field, fv := range e.Fields {
					if err := writeBytes32(w, []byte(field)); err != nil {
						return err
					}
					if err := EncodeValue(w, value.NewString([]byte(fv))); err != nil {
						return err
					}
				}
			}
			return nil
		})
	default:
		return kverrors.Internal("zdb: unknown value kind in EncodeValue")
	}
}

func writeTagged(w io.Writer, tag Tag, body func(io.Writer) error) error {
	if _, err := w.Write([]byte{byte(tag)}); err != nil {
		return kverrors.IO(err)
	}
	if err := body(w); err != nil {
		return kverrors.IO(err)
	}
	return nil
}

func writeBytes32(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// maxBytes32Len bounds a single length-prefixed field read from a dump
// or AOF record. Without this a corrupted or truncated length prefix
// (e.g. 0xFFFFFFFE) would drive an allocation of up to 4GiB before
// io.ReadFull even gets a chance to fail on the short body.
const maxBytes32Len = 512 << 20 // 512MiB, matches Redis's proto-max-bulk-len default

func readBytes32(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, kverrors.ParseErr(kverrors.ParseFields{Structure: "length-prefixed bytes", Reason: err.Error()})
	}
	if n > maxBytes32Len {
		return nil, kverrors.SizeLimit("length-prefixed bytes field exceeds maximum allowed size")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, kverrors.ParseErr(kverrors.ParseFields{Structure: "length-prefixed bytes", Reason: "truncated body: " + err.Error()})
	}
	return buf, nil
}

// DecodeValue reads one tag-prefixed value body from r.
func DecodeValue(r io.Reader) (*value.Value, error) {
	var tagByte [1]byte
	if _, err := io.ReadFull(r, tagByte[:]); err != nil {
		return nil, kverrors.ParseErr(kverrors.ParseFields{Structure: "value", Reason: "failed to read tag: " + err.Error()})
	}
	tag := Tag(tagByte[0])

	switch tag {
	case TagStr:
		b, err := readBytes32(r)
		if err != nil {
			return nil, err
		}
		return value.NewString(b), nil
	case TagInt:
		var n int64
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return nil, kverrors.ParseErr(kverrors.ParseFields{Structure: "int", Reason: err.Error()})
		}
		return value.NewInt(n), nil
	case TagFloat:
		var f float64
		if err := binary.Read(r, binary.BigEndian, &f); err != nil {
			return nil, kverrors.ParseErr(kverrors.ParseFields{Structure: "float", Reason: err.Error()})
		}
		return value.NewFloat(f), nil
	case TagBool:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, kverrors.ParseErr(kverrors.ParseFields{Structure: "bool", Reason: err.Error()})
		}
		return value.NewBool(b[0] != 0), nil
	case TagNull:
		return value.NewNull(), nil
	case TagList:
		count, err := readCount(r)
		if err != nil {
			return nil, err
		}
		v := value.NewList()
		l, _ := v.List()
		for i := uint32(0); i < count; i++ {
			b, err := readBytes32(r)
			if err != nil {
				return nil, err
			}
			l.PushBack(b)
		}
		return v, nil
	case TagSet:
		count, err := readCount(r)
		if err != nil {
			return nil, err
		}
		v := value.NewSet()
		set, _ := v.Set()
		for i := uint32(0); i < count; i++ {
			b, err := readBytes32(r)
			if err != nil {
				return nil, err
			}
			set.Add(string(b))
		}
		return v, nil
	case TagHash:
		count, err := readCount(r)
		if err != nil {
			return nil, err
		}
		v := value.NewHash()
		h, _ := v.Hash()
		for i := uint32(0); i < count; i++ {
			field, err := readBytes32(r)
			if err != nil {
				return nil, err
			}
			val, err := readBytes32(r)
			if err != nil {
				return nil, err
			}
			h.Set(string(field), string(val))
		}
		return v, nil
	case TagZSet:
		count, err := readCount(r)
		if err != nil {
			return nil, err
		}
		v := value.NewZSetValue()
		z, _ := v.ZSet()
		for i := uint32(0); i < count; i++ {
			member, err := readBytes32(r)
			if err != nil {
				return nil, err
			}
			var score float64
			if err := binary.Read(r, binary.BigEndian, &score); err != nil {
				return nil, kverrors.ParseErr(kverrors.ParseFields{Structure: "zset entry", Reason: err.Error()})
			}
			z.Add(string(member), score)
		}
		return v, nil
	case TagBitmap:
		b, err := readBytes32(r)
		if err != nil {
			return nil, err
		}
		v := value.NewBitmap()
		bm, _ := v.Bitmap()
		for i, by := range b {
			for bit := 0; bit < 8; bit++ {
				if by&(1<<uint(7-bit)) != 0 {
					bm.SetBit(i*8+bit, true)
				}
			}
		}
		return v, nil
	case TagHLL:
		var p uint8
		if err := binary.Read(r, binary.BigEndian, &p); err != nil {
			return nil, kverrors.ParseErr(kverrors.ParseFields{Structure: "hll", Reason: err.Error()})
		}
		dense, err := readBytes32(r)
		if err != nil {
			return nil, err
		}
		return value.FromHLL(hll.LoadDense(p, dense)), nil
	case TagGeoSet:
		count, err := readCount(r)
		if err != nil {
			return nil, err
		}
		v := value.NewGeoSetValue()
		g, _ := v.GeoSet()
		for i := uint32(0); i < count; i++ {
			member, err := readBytes32(r)
			if err != nil {
				return nil, err
			}
			var lon, lat float64
			if err := binary.Read(r, binary.BigEndian, &lon); err != nil {
				return nil, kverrors.ParseErr(kverrors.ParseFields{Structure: "geoset entry", Reason: err.Error()})
			}
			if err := binary.Read(r, binary.BigEndian, &lat); err != nil {
				return nil, kverrors.ParseErr(kverrors.ParseFields{Structure: "geoset entry", Reason: err.Error()})
			}
			g.Add(string(member), geo.Point{Lon: lon, Lat: lat})
		}
		return v, nil
	case TagSStream:
		count, err := readCount(r)
		if err != nil {
			return nil, err
		}
		v := value.NewStreamValue()
		strm, _ := v.Stream()
		for i := uint32(0); i < count; i++ {
			var ms, seq uint64
			if err := binary.Read(r, binary.BigEndian, &ms); err != nil {
				return nil, kverrors.ParseErr(kverrors.ParseFields{Structure: "sstream entry", Reason: err.Error()})
			}
			if err := binary.Read(r, binary.BigEndian, &seq); err != nil {
				return nil, kverrors.ParseErr(kverrors.ParseFields{Structure: "sstream entry", Reason: err.Error()})
			}
			fieldCount, err := readCount(r)
			if err != nil {
				return nil, err
			}
			fields := make(map[string]string, fieldCount)
			for j := uint32(0); j < fieldCount; j++ {
				field, err := readBytes32(r)
				if err != nil {
					return nil, err
				}
				fv, err := DecodeValue(r)
				if err != nil {
					return nil, err
				}
				sv, err := fv.Str()
				if err != nil {
					return nil, kverrors.ParseErr(kverrors.ParseFields{Structure: "sstream field value", Reason: "expected string"})
				}
				fields[string(field)] = sv.String()
			}
			strm.Add(ms, fields)
			_ = seq // sequence is recomputed by Add; ms drives ordering on replay
		}
		return v, nil
	default:
		return nil, kverrors.ParseErr(kverrors.ParseFields{Structure: "value", Reason: "unknown tag byte"})
	}
}

func readCount(r io.Reader) (uint32, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return 0, kverrors.ParseErr(kverrors.ParseFields{Structure: "count", Reason: err.Error()})
	}
	return n, nil
}

