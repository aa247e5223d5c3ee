// Package intset implements the adaptive integer set from spec.md
// §3/§4.3: a sorted, unique vector of integers whose element encoding
// upcasts i16 -> i32 -> i64 as larger values are inserted, and never
// downcasts.
package intset

import "sort"

// Encoding identifies the current element width.
type Encoding int

const (
	Enc16 Encoding = iota
	Enc32
	Enc64
)

func (e Encoding) String() string {
	switch e {
	case Enc16:
		return "int16"
	case Enc32:
		return "int32"
	default:
		return "int64"
	}
}

// IntSet is a sorted, unique set of int64 values stored in the
// smallest encoding that currently fits every member.
type IntSet struct {
	enc    Encoding
	values []int64
}

// New returns an empty IntSet starting at the 16-bit encoding.
func New() *IntSet {
	return &IntSet{enc: Enc16}
}

func encodingFor(v int64) Encoding {
	switch {
	case v >= -(1<<15) && v < 1<<15:
		return Enc16
	case v >= -(1<<31) && v < 1<<31:
		return Enc32
	default:
		return Enc64
	}
}

// Encoding reports the current storage width.
func (s *IntSet) Encoding() Encoding { return s.enc }

// Len returns the number of elements.
func (s *IntSet) Len() int { return len(s.values) }

func (s *IntSet) search(v int64) (int, bool) {
	idx := sort.Search(len(s.values), func(i int) bool { return s.values[i] >= v })
	if idx < len(s.values) && s.values[idx] == v {
		return idx, true
	}
	return idx, false
}

// Contains reports set membership via binary search.
func (s *IntSet) Contains(v int64) bool {
	_, found := s.search(v)
	return found
}

// Add inserts v, upcasting the encoding if necessary. Returns true if
// v was not already present. Duplicates are rejected (no-op, false).
func (s *IntSet) Add(v int64) bool {
	idx, found := s.search(v)
	if found {
		return false
	}
	if need := encodingFor(v); need > s.enc {
		s.enc = need
	}
	s.values = append(s.values, 0)
	copy(s.values[idx+1:], s.values[idx:])
	s.values[idx] = v
	return true
}

// Remove deletes v if present, returning whether it was removed.
// Encoding is never downcast on removal.
func (s *IntSet) Remove(v int64) bool {
	idx, found := s.search(v)
	if !found {
		return false
	}
	s.values = append(s.values[:idx], s.values[idx+1:]...)
	return true
}

// Iter returns the elements in ascending order. The returned slice is
// owned by the caller.
func (s *IntSet) Iter() []int64 {
	out := make([]int64, len(s.values))
	copy(out, s.values)
	return out
}

// Min and Max return the smallest/largest element and whether the set
// is non-empty.
func (s *IntSet) Min() (int64, bool) {
	if len(s.values) == 0 {
		return 0, false
	}
	return s.values[0], true
}

func (s *IntSet) Max() (int64, bool) {
	if len(s.values) == 0 {
		return 0, false
	}
	return s.values[len(s.values)-1], true
}
