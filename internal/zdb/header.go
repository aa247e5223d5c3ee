package zdb

import (
	"bytes"
	"io"

	"github.com/emberkv/emberkv/kverrors"
)

// Magic is the fixed 4-byte prefix of every ZDB file.
var Magic = [4]byte{'Z', 'D', 'B', 0}

// Version selects compression policy and streaming framing, per
// spec.md §4.8.
type Version byte

const (
	// V1 has no compression and no streaming frame markers.
	V1 Version = 1
	// V2 adds optional zstd compression and varint size framing.
	V2 Version = 2
	// V3 is the default written version. Its entries use the same
	// layout as V2; no separate streaming frame markers are written or
	// expected.
	V3 Version = 3
)

// CurrentVersion is the version this codec writes by default.
const CurrentVersion = V3

func (v Version) valid() bool { return v >= V1 && v <= V3 }

// WriteHeader writes the magic bytes followed by the version byte.
func WriteHeader(w io.Writer, v Version) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return kverrors.IO(err)
	}
	if _, err := w.Write([]byte{byte(v)}); err != nil {
		return kverrors.IO(err)
	}
	return nil
}

// ReadHeader reads and validates the magic bytes and version.
// Readers accept any version up to CurrentVersion (newer readers
// accept older dumps); a version beyond CurrentVersion is rejected
// with UnsupportedVersion, per spec.md §4.8.
func ReadHeader(r io.Reader) (Version, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return 0, kverrors.ParseErr(kverrors.ParseFields{
			Structure: "header",
			Reason:    "failed to read magic: " + err.Error(),
		})
	}
	if !bytes.Equal(magic[:], Magic[:]) {
		return 0, kverrors.ParseErr(kverrors.ParseFields{
			Structure: "header",
			Reason:    "bad magic bytes",
		})
	}
	var vb [1]byte
	if _, err := io.ReadFull(r, vb[:]); err != nil {
		return 0, kverrors.ParseErr(kverrors.ParseFields{
			Structure: "header",
			Reason:    "failed to read version: " + err.Error(),
		})
	}
	v := Version(vb[0])
	if v > CurrentVersion {
		return 0, kverrors.UnsupportedVersion("dump version newer than this reader supports")
	}
	if !v.valid() {
		return 0, kverrors.ParseErr(kverrors.ParseFields{
			Structure: "header",
			Reason:    "unknown version byte",
		})
	}
	return v, nil
}
