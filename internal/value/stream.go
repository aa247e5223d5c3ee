package value

import (
	"fmt"

	"github.com/emberkv/emberkv/kverrors"
)

// StreamID identifies a stream entry by (ms_time, sequence), ordered
// lexicographically, per spec.md §3.
type StreamID struct {
	Ms  uint64
	Seq uint64
}

func (id StreamID) Less(other StreamID) bool {
	if id.Ms != other.Ms {
		return id.Ms < other.Ms
	}
	return id.Seq < other.Seq
}

func (id StreamID) String() string { return fmt.Sprintf("%d-%d", id.Ms, id.Seq) }

// StreamEntry is one append-only log record: an ID plus a field map.
type StreamEntry struct {
	ID     StreamID
	Fields map[string]string
}

// SStream is the append-only stream container from spec.md §3: a log
// of (id, field-map) entries ordered by (ms_time, sequence) with a
// monotonically increasing sequence. Consumer groups are an explicit
// Non-goal (stubs only, per spec.md §1).
type SStream struct {
	entries  []StreamEntry
	lastID   StreamID
	lastMs   uint64
	seqInMs  uint64
}

// NewStream returns an empty stream.
func NewStream() *SStream { return &SStream{} }

// Add appends a new entry. If ms <= the last entry's ms, the entry
// takes the last entry's ms and the next sequence number within it, to
// preserve monotonicity. The stream reads no clock: ms, including 0,
// is used as the caller gives it.
func (s *SStream) Add(ms uint64, fields map[string]string) StreamID {
	var id StreamID
	if ms > s.lastMs {
		id = StreamID{Ms: ms, Seq: 0}
		s.lastMs = ms
		s.seqInMs = 0
	} else {
		s.seqInMs++
		id = StreamID{Ms: s.lastMs, Seq: s.seqInMs}
	}
	s.lastID = id
	s.entries = append(s.entries, StreamEntry{ID: id, Fields: fields})
	return id
}

// Len returns the number of entries (XLEN).
func (s *SStream) Len() int { return len(s.entries) }

// LastID returns the most recently appended ID.
func (s *SStream) LastID() StreamID { return s.lastID }

// Range returns entries with ID in [start, end] inclusive (XRANGE).
func (s *SStream) Range(start, end StreamID) []StreamEntry {
	var out []StreamEntry
	for _, e := range s.entries {
		if e.ID.Less(start) {
			continue
		}
		if end.Less(e.ID) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Trim removes entries so at most maxLen remain, discarding the
// oldest first, returning the number removed.
func (s *SStream) Trim(maxLen int) int {
	if maxLen < 0 {
		return 0
	}
	if len(s.entries) <= maxLen {
		return 0
	}
	removed := len(s.entries) - maxLen
	s.entries = append([]StreamEntry{}, s.entries[removed:]...)
	return removed
}

// ConsumerGroup is an explicit stub: durable consumer-group semantics
// are a Non-goal per spec.md §1. Calling any method reports
// InvalidArgs rather than silently no-op'ing, so callers notice the
// gap instead of assuming delivery guarantees exist.
type ConsumerGroup struct{ Name string }

func (c *ConsumerGroup) ReadNext() (StreamEntry, error) {
	return StreamEntry{}, kverrors.InvalidArgs("stream: consumer groups are not implemented")
}
