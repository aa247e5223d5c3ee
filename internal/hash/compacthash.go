// Package hash implements the CompactHash container from spec.md
// §3/§4: below a promotion threshold, field->value entries live in a
// small inline slice scanned linearly; above it, the hash promotes to
// a dict.Dict for O(1) amortized access.
package hash

import "github.com/emberkv/emberkv/internal/dict"

// PromotionThreshold is the entry count above which CompactHash
// promotes from linear-scan storage to a backing dict.
const PromotionThreshold = 128

type kv struct {
	field string
	value string
}

// CompactHash is a field->value map over strings (Sds contents are
// handled by the value layer; this package works on their string
// forms to stay generic and easily testable).
type CompactHash struct {
	small []kv
	big   *dict.Dict[string, string]
}

// New returns an empty CompactHash in small-vector mode.
func New() *CompactHash { return &CompactHash{} }

// Len returns the number of fields.
func (h *CompactHash) Len() int {
	if h.big != nil {
		return h.big.Len()
	}
	return len(h.small)
}

// Promoted reports whether the hash has promoted to dict-backed
// storage.
func (h *CompactHash) Promoted() bool { return h.big != nil }

func (h *CompactHash) promote() {
	h.big = dict.NewStringKeyed[string]()
	for _, e := range h.small {
		h.big.Insert(e.field, e.value)
	}
	h.small = nil
}

// Set inserts or overwrites a field, returning whether the field was
// new. Promotes to dict storage once PromotionThreshold is crossed.
func (h *CompactHash) Set(field, value string) bool {
	if h.big != nil {
		return h.big.Insert(field, value)
	}
	for i := range h.small {
		if h.small[i].field == field {
			h.small[i].value = value
			return false
		}
	}
	h.small = append(h.small, kv{field: field, value: value})
	if len(h.small) > PromotionThreshold {
		h.promote()
	}
	return true
}

// Get returns the value for field.
func (h *CompactHash) Get(field string) (string, bool) {
	if h.big != nil {
		return h.big.Get(field)
	}
	for _, e := range h.small {
		if e.field == field {
			return e.value, true
		}
	}
	return "", false
}

// Delete removes field, returning whether it was present. Demotion
// back to small-vector storage on shrink is optional per spec.md and
// is not performed here (kept simple, matching the "optional" note).
func (h *CompactHash) Delete(field string) bool {
	if h.big != nil {
		return h.big.Remove(field)
	}
	for i := range h.small {
		if h.small[i].field == field {
			h.small = append(h.small[:i], h.small[i+1:]...)
			return true
		}
	}
	return false
}

// Fields returns every field name.
func (h *CompactHash) Fields() []string {
	if h.big != nil {
		return h.big.Keys()
	}
	out := make([]string, len(h.small))
	for i, e := range h.small {
		out[i] = e.field
	}
	return out
}

// All returns every (field, value) pair.
func (h *CompactHash) All() map[string]string {
	out := make(map[string]string, h.Len())
	if h.big != nil {
		h.big.Iter(func(k, v string) bool {
			out[k] = v
			return true
		})
		return out
	}
	for _, e := range h.small {
		out[e.field] = e.value
	}
	return out
}

// IncrBy adds delta to an integer field (HINCRBY semantics: absent
// fields default to 0), writes the new value back, and returns it.
func (h *CompactHash) IncrBy(field string, delta int64, parse func(string) (int64, bool), format func(int64) string) (int64, bool) {
	cur, ok := h.Get(field)
	var curVal int64
	if ok {
		v, valid := parse(cur)
		if !valid {
			return 0, false
		}
		curVal = v
	}
	curVal += delta
	h.Set(field, format(curVal))
	return curVal, true
}
