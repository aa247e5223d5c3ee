package zdb

import (
	"io"

	"github.com/emberkv/emberkv/kverrors"
)

// MaxVarintLen is the widest a LEB128-encoded u32 can legally be,
// per spec.md §4.8.
const MaxVarintLen = 5

// WriteVarint writes v in unsigned LEB128 form: 7 data bits per byte,
// MSB set means "more bytes follow".
func WriteVarint(w io.Writer, v uint32) (int, error) {
	var buf [MaxVarintLen]byte
	n := 0
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf[n] = b
		n++
		if v == 0 {
			break
		}
	}
	written, err := w.Write(buf[:n])
	if err != nil {
		return written, kverrors.IO(err)
	}
	return written, nil
}

// ReadVarint reads an unsigned LEB128 u32, rejecting anything longer
// than MaxVarintLen bytes as corruption.
func ReadVarint(r io.Reader) (uint32, error) {
	var result uint32
	var shift uint
	var b [1]byte
	for i := 0; i < MaxVarintLen; i++ {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, kverrors.ParseErr(kverrors.ParseFields{
				Structure: "varint",
				Reason:    "failed to read varint byte: " + err.Error(),
			})
		}
		result |= uint32(b[0]&0x7F) << shift
		if b[0]&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, kverrors.ParseErr(kverrors.ParseFields{
		Structure: "varint",
		Reason:    "varint too long (>5 bytes), possible corruption",
	})
}

// VarintSize reports the number of bytes WriteVarint would emit for v.
func VarintSize(v uint32) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
