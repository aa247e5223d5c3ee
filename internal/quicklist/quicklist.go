// Package quicklist implements the segmented deque from spec.md
// §3/§4.4: a doubly-linked list of capped listpack segments, with a
// cached (segment, offset) cursor to amortize sequential/random
// access.
package quicklist

import (
	"container/list"

	"github.com/emberkv/emberkv/internal/listpack"
	"github.com/emberkv/emberkv/kverrors"
)

const defaultSegmentCap = 128

type segment struct {
	lp *listpack.Listpack
}

// Quicklist is a deque of bounded listpack segments.
type Quicklist struct {
	segments   *list.List // of *segment
	segmentCap int
	length     int

	// cursor caches the last accessed (segment element, index within
	// that segment's base offset) to amortize repeated nearby access.
	cursorElem    *list.Element
	cursorBaseIdx int
}

// New returns an empty Quicklist with the default segment capacity.
func New() *Quicklist { return NewWithSegmentCap(defaultSegmentCap) }

// NewWithSegmentCap returns an empty Quicklist whose segments hold at
// most segCap entries before splitting.
func NewWithSegmentCap(segCap int) *Quicklist {
	if segCap < 1 {
		segCap = defaultSegmentCap
	}
	return &Quicklist{segments: list.New(), segmentCap: segCap}
}

// Len returns the total number of elements across all segments.
func (q *Quicklist) Len() int { return q.length }

func (q *Quicklist) invalidateCursor() {
	q.cursorElem = nil
	q.cursorBaseIdx = 0
}

// PushBack appends a value to the tail segment, splitting into a new
// tail segment if it is full.
func (q *Quicklist) PushBack(value []byte) {
	back := q.segments.Back()
	if back == nil || back.Value.(*segment).lp.Len() >= q.segmentCap {
		back = q.segments.PushBack(&segment{lp: listpack.New()})
	}
	back.Value.(*segment).lp.PushBack(value)
	q.length++
	q.invalidateCursor()
}

// PushFront prepends a value to the head segment, splitting into a
// new head segment if it is full.
func (q *Quicklist) PushFront(value []byte) {
	front := q.segments.Front()
	if front == nil || front.Value.(*segment).lp.Len() >= q.segmentCap {
		front = q.segments.PushFront(&segment{lp: listpack.New()})
	}
	front.Value.(*segment).lp.PushFront(value)
	q.length++
	q.invalidateCursor()
}

// PopBack removes and returns the last element, discarding the tail
// segment if it becomes empty.
func (q *Quicklist) PopBack() ([]byte, bool) {
	back := q.segments.Back()
	if back == nil {
		return nil, false
	}
	seg := back.Value.(*segment)
	v, ok := seg.lp.PopBack()
	if !ok {
		return nil, false
	}
	q.length--
	if seg.lp.Len() == 0 {
		q.segments.Remove(back)
	}
	q.invalidateCursor()
	return v, true
}

// PopFront removes and returns the first element, discarding the head
// segment if it becomes empty.
func (q *Quicklist) PopFront() ([]byte, bool) {
	front := q.segments.Front()
	if front == nil {
		return nil, false
	}
	seg := front.Value.(*segment)
	v, ok := seg.lp.PopFront()
	if !ok {
		return nil, false
	}
	q.length--
	if seg.lp.Len() == 0 {
		q.segments.Remove(front)
	}
	q.invalidateCursor()
	return v, true
}

// Get returns the value at logical index i, using the cached cursor
// when i falls inside the cursor's segment, otherwise walking from
// whichever end is nearer.
func (q *Quicklist) Get(i int) ([]byte, bool) {
	if i < 0 || i >= q.length {
		return nil, false
	}

	elem, baseIdx := q.locate(i)
	if elem == nil {
		return nil, false
	}
	seg := elem.Value.(*segment)
	v, ok := seg.lp.Get(i - baseIdx)
	if ok {
		q.cursorElem = elem
		q.cursorBaseIdx = baseIdx
	}
	return v, ok
}

// locate finds the segment element containing logical index i and
// that segment's base (first-element) logical index.
func (q *Quicklist) locate(i int) (*list.Element, int) {
	if q.cursorElem != nil {
		seg := q.cursorElem.Value.(*segment)
		if i >= q.cursorBaseIdx && i < q.cursorBaseIdx+seg.lp.Len() {
			return q.cursorElem, q.cursorBaseIdx
		}
	}

	fromFront := i
	fromBack := q.length - 1 - i
	if fromFront <= fromBack {
		base := 0
		for e := q.segments.Front(); e != nil; e = e.Next() {
			seg := e.Value.(*segment)
			if i < base+seg.lp.Len() {
				return e, base
			}
			base += seg.lp.Len()
		}
		return nil, 0
	}

	base := q.length
	for e := q.segments.Back(); e != nil; e = e.Prev() {
		seg := e.Value.(*segment)
		base -= seg.lp.Len()
		if i >= base {
			return e, base
		}
	}
	return nil, 0
}

// Remove deletes the element at logical index i.
func (q *Quicklist) Remove(i int) ([]byte, error) {
	if i < 0 || i >= q.length {
		return nil, kverrors.InvalidArgs("quicklist: index out of range")
	}
	elem, base := q.locate(i)
	seg := elem.Value.(*segment)
	v, err := seg.lp.Remove(i - base)
	if err != nil {
		return nil, err
	}
	q.length--
	if seg.lp.Len() == 0 {
		q.segments.Remove(elem)
	}
	q.invalidateCursor()
	return v, nil
}

// All materializes the full sequence, for debugging/verification.
func (q *Quicklist) All() [][]byte {
	out := make([][]byte, 0, q.length)
	for e := q.segments.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*segment).lp.All()...)
	}
	return out
}

// SegmentCount returns the number of listpack segments currently
// backing the quicklist, mostly useful for tests asserting that
// splitting and empty-segment removal behave as expected. Segments are
// never merged.
func (q *Quicklist) SegmentCount() int { return q.segments.Len() }
