package zdb

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/emberkv/emberkv/kverrors"
)

// MinCompressionSize is the default serialized-length threshold at or
// above which a V2+ writer may wrap a value body in the compressed-entry
// marker, per spec.md §4.8.
const MinCompressionSize = 64

// CompressionOptions configures the writer's compression behavior.
type CompressionOptions struct {
	// Enabled gates compression entirely; false reproduces V1 framing
	// even under a V2+ header.
	Enabled bool
	// MinSize is the serialized-body-length threshold; bodies shorter
	// than this are never compressed (the framing overhead would
	// outweigh the saving).
	MinSize int
	// Level is the zstd compression level; the zero value resolves to
	// zstd.SpeedDefault, balancing ratio and CPU per spec.md §4.8.
	Level zstd.EncoderLevel
}

// DefaultCompressionOptions matches the spec's stated defaults.
func DefaultCompressionOptions() CompressionOptions {
	return CompressionOptions{Enabled: true, MinSize: MinCompressionSize, Level: zstd.SpeedDefault}
}

// writeBody writes a value body (tag+payload already serialized into
// raw), optionally wrapping it in the compressed-entry marker when
// opts allow and raw is large enough to benefit.
func writeBody(w io.Writer, raw []byte, opts CompressionOptions) error {
	if !opts.Enabled || len(raw) < opts.MinSize {
		_, err := w.Write(raw)
		if err != nil {
			return kverrors.IO(err)
		}
		return nil
	}

	level := opts.Level
	if level == 0 {
		level = zstd.SpeedDefault
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return kverrors.Internal("failed to construct zstd encoder: " + err.Error())
	}
	compressed := enc.EncodeAll(raw, nil)
	_ = enc.Close()

	if len(compressed) >= len(raw) {
		// Compression didn't help; store uncompressed rather than pay
		// the marker overhead for nothing.
		_, err := w.Write(raw)
		if err != nil {
			return kverrors.IO(err)
		}
		return nil
	}

	if _, err := w.Write([]byte{compressedMarker}); err != nil {
		return kverrors.IO(err)
	}
	if _, err := WriteVarint(w, uint32(len(compressed))); err != nil {
		return err
	}
	if _, err := WriteVarint(w, uint32(len(raw))); err != nil {
		return err
	}
	if _, err := w.Write(compressed); err != nil {
		return kverrors.IO(err)
	}
	return nil
}

// peekByte reads one byte without consuming further input beyond it,
// returning a reader that replays it for the caller's actual read.
func peekByte(r io.Reader) (byte, io.Reader, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, nil, err
	}
	return b[0], io.MultiReader(bytes.NewReader(b[:]), r), nil
}

// maybeDecompress checks whether the next byte is the compressed
// marker; if so it reads and inflates the compressed body and returns
// a reader over the decompressed bytes, otherwise it returns r
// unchanged (with the peeked byte replayed).
func maybeDecompress(r io.Reader) (io.Reader, error) {
	marker, replayed, err := peekByte(r)
	if err != nil {
		return nil, kverrors.ParseErr(kverrors.ParseFields{
			Structure: "value",
			Reason:    "failed to read tag/marker byte: " + err.Error(),
		})
	}
	if marker != compressedMarker {
		return replayed, nil
	}

	// Consume the marker byte we peeked, then the two varint lengths.
	var discard [1]byte
	if _, err := io.ReadFull(replayed, discard[:]); err != nil {
		return nil, kverrors.IO(err)
	}
	compLen, err := ReadVarint(replayed)
	if err != nil {
		return nil, err
	}
	rawLen, err := ReadVarint(replayed)
	if err != nil {
		return nil, err
	}
	compressed := make([]byte, compLen)
	if _, err := io.ReadFull(replayed, compressed); err != nil {
		return nil, kverrors.ParseErr(kverrors.ParseFields{
			Structure: "compressed-entry",
			Reason:    "truncated compressed body: " + err.Error(),
		})
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, kverrors.Internal("failed to construct zstd decoder: " + err.Error())
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(compressed, make([]byte, 0, rawLen))
	if err != nil {
		return nil, kverrors.ParseErr(kverrors.ParseFields{
			Structure: "compressed-entry",
			Reason:    "zstd decompression failed: " + err.Error(),
		})
	}
	if uint32(len(raw)) != rawLen {
		return nil, kverrors.ParseErr(kverrors.ParseFields{
			Structure: "compressed-entry",
			Reason:    "decompressed length mismatch",
		})
	}
	return bytes.NewReader(raw), nil
}
