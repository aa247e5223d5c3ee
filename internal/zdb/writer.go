package zdb

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"

	"github.com/emberkv/emberkv/internal/value"
	"github.com/emberkv/emberkv/kverrors"
)

// Entry is one (key, value) pair as dumped to or loaded from a ZDB
// file.
type Entry struct {
	Key string
	Val *value.Value
}

// DumpOptions configures WriteDump.
type DumpOptions struct {
	Version     Version
	Compression CompressionOptions
	// Streaming is carried in the options but WriteDump does not read
	// it: every version is written as plain (key,value)* records
	// terminated by EOF, with no streaming frame markers.
	Streaming bool
}

// DefaultDumpOptions returns V3 with default compression, matching
// CurrentVersion.
func DefaultDumpOptions() DumpOptions {
	return DumpOptions{Version: CurrentVersion, Compression: DefaultCompressionOptions(), Streaming: true}
}

// WriteDump writes a full dump: header, then every entry. Entries are
// sorted by key so the output is deterministic for testing.
func WriteDump(w io.Writer, entries []Entry, opts DumpOptions) error {
	if err := WriteHeader(w, opts.Version); err != nil {
		return err
	}
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	comp := opts.Compression
	if opts.Version == V1 {
		comp.Enabled = false
	}
	for _, e := range sorted {
		if err := writeEntry(w, e, comp); err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(w io.Writer, e Entry, comp CompressionOptions) error {
	if err := writeBytes32(w, []byte(e.Key)); err != nil {
		return kverrors.IO(err)
	}
	var body bytes.Buffer
	if err := EncodeValue(&body, e.Val); err != nil {
		return err
	}
	return writeBody(w, body.Bytes(), comp)
}

// ReadDump reads every entry from a non-streaming or streaming dump
// until EOF, returning them in file order. Prefer NewStreamReader for
// large dumps where holding every value in memory at once is
// undesirable.
func ReadDump(r io.Reader) ([]Entry, error) {
	version, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for {
		e, err := readEntry(r, version)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func readEntry(r io.Reader, version Version) (Entry, error) {
	var keyLen uint32
	if err := binary.Read(r, binary.BigEndian, &keyLen); err != nil {
		if err == io.EOF {
			return Entry{}, io.EOF
		}
		return Entry{}, kverrors.ParseErr(kverrors.ParseFields{
			Structure: "entry", Reason: "truncated key length: " + err.Error(),
		})
	}
	keyBuf := make([]byte, keyLen)
	if _, err := io.ReadFull(r, keyBuf); err != nil {
		return Entry{}, kverrors.ParseErr(kverrors.ParseFields{
			Structure: "entry", Reason: "truncated key: " + err.Error(),
		})
	}

	var bodyReader io.Reader = r
	if version >= V2 {
		dec, err := maybeDecompress(r)
		if err != nil {
			return Entry{}, err
		}
		bodyReader = dec
	}
	val, err := DecodeValue(bodyReader)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Key: string(keyBuf), Val: val}, nil
}
