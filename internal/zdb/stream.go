package zdb

import (
	"io"

	"github.com/emberkv/emberkv/internal/value"
)

// StreamReader is a pull-based iterator over a dump's entries. Memory
// usage is proportional to the largest single value, not the whole
// dump, per spec.md §4.8.
type StreamReader struct {
	r       io.Reader
	version Version
	done    bool
}

// NewStreamReader reads and validates the header, then returns a
// reader positioned at the first entry.
func NewStreamReader(r io.Reader) (*StreamReader, error) {
	version, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	return &StreamReader{r: r, version: version}, nil
}

// Next returns the next entry, or (Entry{}, io.EOF) once exhausted.
func (sr *StreamReader) Next() (Entry, error) {
	if sr.done {
		return Entry{}, io.EOF
	}
	e, err := readEntry(sr.r, sr.version)
	if err == io.EOF {
		sr.done = true
		return Entry{}, io.EOF
	}
	if err != nil {
		sr.done = true
		return Entry{}, err
	}
	return e, nil
}

// Handler processes one entry at a time as the stream is walked by
// Walk, without requiring the whole dump in memory.
type Handler interface {
	Handle(Entry) error
}

// Walk drives sr through every entry, calling h.Handle for each, and
// stopping at the first handler or parse error (other than EOF).
func Walk(sr *StreamReader, h Handler) error {
	for {
		e, err := sr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := h.Handle(e); err != nil {
			return err
		}
	}
}

// CollectHandler buffers every entry it sees, for callers that do
// want the whole dump in memory (e.g. tests, small dumps).
type CollectHandler struct {
	Entries []Entry
}

func (h *CollectHandler) Handle(e Entry) error {
	h.Entries = append(h.Entries, e)
	return nil
}

// FilterHandler forwards only entries matching Predicate into Kept.
type FilterHandler struct {
	Predicate func(Entry) bool
	Kept      []Entry
}

func (h *FilterHandler) Handle(e Entry) error {
	if h.Predicate(e) {
		h.Kept = append(h.Kept, e)
	}
	return nil
}

// CountStats accumulates summary statistics without buffering values,
// per spec.md §4.8 ("CountHandler accumulates stats without buffering
// values").
type CountStats struct {
	Count     int
	ByKind    map[value.Kind]int
	TotalKeys int
}

// CountHandler tallies entries by kind without retaining any of them.
type CountHandler struct {
	Stats CountStats
}

func NewCountHandler() *CountHandler {
	return &CountHandler{Stats: CountStats{ByKind: make(map[value.Kind]int)}}
}

func (h *CountHandler) Handle(e Entry) error {
	h.Stats.Count++
	h.Stats.TotalKeys++
	h.Stats.ByKind[e.Val.Kind()]++
	return nil
}

// CallbackHandler invokes an arbitrary function per entry; the
// simplest way to plug custom logic (e.g. loading into a Store)
// into Walk without implementing a new type.
type CallbackHandler struct {
	Fn func(Entry) error
}

func (h *CallbackHandler) Handle(e Entry) error { return h.Fn(e) }

// TransformHandler rewrites each entry via Fn and, when Fn returns a
// non-nil entry, immediately re-serializes it to Sink — used for
// streaming migrations (e.g. recompressing a dump) without holding
// the whole transformed dump in memory.
type TransformHandler struct {
	Fn   func(Entry) (Entry, bool)
	Sink io.Writer
	Comp CompressionOptions
}

func (h *TransformHandler) Handle(e Entry) error {
	out, keep := h.Fn(e)
	if !keep {
		return nil
	}
	return writeEntry(h.Sink, out, h.Comp)
}
