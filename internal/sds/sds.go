// Package sds implements a small-string-optimized, binary-safe byte
// buffer: values up to an inline capacity live on the stack-sized
// array embedded in the struct; anything larger is heap-allocated.
package sds

// inlineCap is the largest payload kept inline before Sds switches to
// a heap-backed slice. Chosen close to the classic ~22-byte SSO budget
// used by small-string implementations in the wild.
const inlineCap = 22

// Sds is a binary-safe byte buffer with two storage modes. The zero
// value is a valid empty Sds.
type Sds struct {
	inline    [inlineCap]byte
	inlineLen uint8
	heap      []byte
	isHeap    bool
}

// New builds an Sds from a byte slice, copying the bytes.
func New(b []byte) *Sds {
	s := &Sds{}
	s.set(b)
	return s
}

// FromString builds an Sds from a Go string.
func FromString(s string) *Sds {
	return New([]byte(s))
}

func (s *Sds) set(b []byte) {
	if len(b) <= inlineCap {
		s.isHeap = false
		s.inlineLen = uint8(len(b))
		copy(s.inline[:], b)
		s.heap = nil
		return
	}
	s.isHeap = true
	s.heap = append([]byte(nil), b...)
	s.inlineLen = 0
}

// Bytes returns the buffer's current contents. The returned slice must
// not be mutated by callers expecting value semantics; use Clone for
// an independent copy.
func (s *Sds) Bytes() []byte {
	if s.isHeap {
		return s.heap
	}
	return s.inline[:s.inlineLen]
}

// String returns the buffer's contents as a Go string (copies).
func (s *Sds) String() string { return string(s.Bytes()) }

// Len returns the buffer length in bytes.
func (s *Sds) Len() int {
	if s.isHeap {
		return len(s.heap)
	}
	return int(s.inlineLen)
}

// IsHeap reports whether the buffer is currently heap-allocated.
func (s *Sds) IsHeap() bool { return s.isHeap }

// Clone returns an independent copy.
func (s *Sds) Clone() *Sds {
	c := &Sds{}
	c.set(s.Bytes())
	return c
}

// Equal reports byte-for-byte equality.
func (s *Sds) Equal(other *Sds) bool {
	if s == nil || other == nil {
		return s == other
	}
	a, b := s.Bytes(), other.Bytes()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Append appends bytes, growing into heap mode if the inline capacity
// is exceeded. A heap-mode Sds never downgrades back to inline on
// Append; it only does so on Truncate.
func (s *Sds) Append(b []byte) {
	if !s.isHeap {
		if int(s.inlineLen)+len(b) <= inlineCap {
			copy(s.inline[s.inlineLen:], b)
			s.inlineLen += uint8(len(b))
			return
		}
		// Promote to heap, preserving a small reserve like a typical
		// growable-buffer implementation.
		cur := s.inline[:s.inlineLen]
		buf := make([]byte, 0, len(cur)+len(b)+inlineCap)
		buf = append(buf, cur...)
		buf = append(buf, b...)
		s.heap = buf
		s.isHeap = true
		s.inlineLen = 0
		return
	}
	s.heap = append(s.heap, b...)
}

// Reserve ensures the heap buffer has at least the given spare
// capacity, promoting from inline mode if necessary. It is a no-op
// hint in inline mode when the requested capacity still fits inline.
func (s *Sds) Reserve(extra int) {
	if !s.isHeap {
		if int(s.inlineLen)+extra <= inlineCap {
			return
		}
		cur := append([]byte(nil), s.inline[:s.inlineLen]...)
		buf := make([]byte, len(cur), len(cur)+extra)
		copy(buf, cur)
		s.heap = buf
		s.isHeap = true
		s.inlineLen = 0
		return
	}
	if cap(s.heap)-len(s.heap) >= extra {
		return
	}
	buf := make([]byte, len(s.heap), len(s.heap)+extra)
	copy(buf, s.heap)
	s.heap = buf
}

// Truncate shortens the buffer to n bytes, downgrading to inline mode
// if the new length fits and the buffer was heap-allocated.
func (s *Sds) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if s.isHeap {
		if n > len(s.heap) {
			n = len(s.heap)
		}
		if n <= inlineCap {
			copy(s.inline[:], s.heap[:n])
			s.inlineLen = uint8(n)
			s.isHeap = false
			s.heap = nil
			return
		}
		s.heap = s.heap[:n]
		return
	}
	if n > int(s.inlineLen) {
		n = int(s.inlineLen)
	}
	s.inlineLen = uint8(n)
}
