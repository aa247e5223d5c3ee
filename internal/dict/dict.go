// Package dict implements the two-table, incrementally-rehashing hash
// map from spec.md §4.1: insert/remove/iterate all consult both
// tables while a rehash is in progress, and each mutation migrates a
// bounded number of buckets from ht[0] into ht[1].
package dict

import "hash/maphash"

const (
	loadFactor   = 1.0
	shrinkFactor = 0.1
	minTableSize = 4
	// rehashStep bounds how many buckets are migrated per mutation,
	// including empty ones skipped over, so a long run of empty
	// buckets cannot make a single call unexpectedly expensive.
	rehashStep = 10
)

type entry[K comparable, V any] struct {
	key  K
	val  V
	next *entry[K, V]
}

type table[K comparable, V any] struct {
	buckets []*entry[K, V]
}

func newTable[K comparable, V any](size int) *table[K, V] {
	if size < minTableSize {
		size = minTableSize
	}
	return &table[K, V]{buckets: make([]*entry[K, V], nextPow2(size))}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Dict is a hash map with incremental rehashing, matching the
// semantics of spec.md §4.1.
type Dict[K comparable, V any] struct {
	seed      maphash.Seed
	ht        [2]*table[K, V]
	rehashIdx int // -1 means "not rehashing"
	length    int
	hashFn    func(K) uint64
}

// New returns an empty Dict that hashes keys with the caller-supplied
// hashFn. For string keys, use NewStringKeyed below.
func New[K comparable, V any](hashFn func(K) uint64) *Dict[K, V] {
	return &Dict[K, V]{
		ht:        [2]*table[K, V]{newTable[K, V](minTableSize), nil},
		rehashIdx: -1,
		hashFn:    hashFn,
	}
}

// NewStringKeyed returns a Dict keyed by string using maphash.
func NewStringKeyed[V any]() *Dict[string, V] {
	seed := maphash.MakeSeed()
	return New[string, V](func(k string) uint64 {
		return maphash.String(seed, k)
	})
}

// NewBytesKeyed returns a Dict keyed by a fixed-size comparable array
// wrapper is not applicable for []byte (not comparable); callers
// should key by string(b) instead, which NewStringKeyed supports.

// Len returns the number of entries across both tables.
func (d *Dict[K, V]) Len() int { return d.length }

// Rehashing reports whether an incremental rehash is in progress.
func (d *Dict[K, V]) Rehashing() bool { return d.rehashIdx != -1 }

func (d *Dict[K, V]) bucketIndex(t *table[K, V], h uint64) int {
	return int(h) & (len(t.buckets) - 1)
}

// startRehash allocates ht[1] sized to the next power of two >= 2*len
// and begins migrating buckets.
func (d *Dict[K, V]) startRehash() {
	newSize := nextPow2(d.length * 2)
	if newSize < minTableSize {
		newSize = minTableSize
	}
	d.ht[1] = newTable[K, V](newSize)
	d.rehashIdx = 0
}

// step migrates one bucket's full chain from ht[0] to ht[1], skipping
// over up to rehashStep-1 additional empty buckets in the same call so
// a long run of empties doesn't stall progress indefinitely without
// doing real work either.
func (d *Dict[K, V]) step() {
	if d.rehashIdx == -1 {
		return
	}
	visited := 0
	for d.rehashIdx < len(d.ht[0].buckets) && visited < rehashStep {
		head := d.ht[0].buckets[d.rehashIdx]
		if head == nil {
			d.rehashIdx++
			visited++
			continue
		}
		for head != nil {
			next := head.next
			idx := d.bucketIndex(d.ht[1], d.hashFn(head.key))
			head.next = d.ht[1].buckets[idx]
			d.ht[1].buckets[idx] = head
			head = next
		}
		d.ht[0].buckets[d.rehashIdx] = nil
		d.rehashIdx++
		visited++
		break // migrated one real chain; bound the per-call work
	}
	if d.rehashIdx >= len(d.ht[0].buckets) {
		d.ht[0] = d.ht[1]
		d.ht[1] = nil
		d.rehashIdx = -1
	}
}

func (d *Dict[K, V]) maybeShrink() {
	if d.Rehashing() {
		return
	}
	if len(d.ht[0].buckets) <= minTableSize {
		return
	}
	if float64(d.length)/float64(len(d.ht[0].buckets)) >= shrinkFactor {
		return
	}
	newSize := nextPow2(d.length * 2)
	if newSize < minTableSize {
		newSize = minTableSize
	}
	if newSize >= len(d.ht[0].buckets) {
		return
	}
	d.ht[1] = newTable[K, V](newSize)
	d.rehashIdx = 0
}

// Insert adds or overwrites key->val. Returns true if the key is new.
func (d *Dict[K, V]) Insert(key K, val V) bool {
	if d.Rehashing() {
		d.step()
	} else if float64(d.length+1)/float64(len(d.ht[0].buckets)) >= loadFactor {
		d.startRehash()
		d.step()
	}

	h := d.hashFn(key)
	if e := d.findInTable(d.ht[0], h, key); e != nil {
		e.val = val
		return false
	}
	if d.Rehashing() {
		if e := d.findInTable(d.ht[1], h, key); e != nil {
			e.val = val
			return false
		}
	}

	target := d.ht[0]
	if d.Rehashing() {
		target = d.ht[1]
	}
	idx := d.bucketIndex(target, h)
	target.buckets[idx] = &entry[K, V]{key: key, val: val, next: target.buckets[idx]}
	d.length++
	return true
}

func (d *Dict[K, V]) findInTable(t *table[K, V], h uint64, key K) *entry[K, V] {
	if t == nil {
		return nil
	}
	idx := d.bucketIndex(t, h)
	for e := t.buckets[idx]; e != nil; e = e.next {
		if e.key == key {
			return e
		}
	}
	return nil
}

// Get returns the value for key, consulting ht[1] during rehash if not
// found in ht[0].
func (d *Dict[K, V]) Get(key K) (V, bool) {
	h := d.hashFn(key)
	if e := d.findInTable(d.ht[0], h, key); e != nil {
		return e.val, true
	}
	if d.Rehashing() {
		if e := d.findInTable(d.ht[1], h, key); e != nil {
			return e.val, true
		}
	}
	var zero V
	return zero, false
}

// Remove deletes key, returning whether it was present. Like Insert,
// it first advances an in-progress rehash by one step, which swaps the
// tables once migration completes.
func (d *Dict[K, V]) Remove(key K) bool {
	if d.Rehashing() {
		d.step()
	}
	h := d.hashFn(key)
	if removeFrom(d.ht[0], d.bucketIndex(d.ht[0], h), key) {
		d.length--
		d.maybeShrink()
		return true
	}
	if d.Rehashing() && removeFrom(d.ht[1], d.bucketIndex(d.ht[1], h), key) {
		d.length--
		d.maybeShrink()
		return true
	}
	return false
}

func removeFrom[K comparable, V any](t *table[K, V], idx int, key K) bool {
	if t == nil {
		return false
	}
	var prev *entry[K, V]
	for e := t.buckets[idx]; e != nil; e = e.next {
		if e.key == key {
			if prev == nil {
				t.buckets[idx] = e.next
			} else {
				prev.next = e.next
			}
			return true
		}
		prev = e
	}
	return false
}

// Iter yields every (key, value) pair exactly once, even mid-rehash,
// by visiting the unmigrated suffix of ht[0] then all of ht[1].
func (d *Dict[K, V]) Iter(fn func(K, V) bool) {
	start := 0
	if d.Rehashing() {
		start = d.rehashIdx
	}
	for i := start; i < len(d.ht[0].buckets); i++ {
		for e := d.ht[0].buckets[i]; e != nil; e = e.next {
			if !fn(e.key, e.val) {
				return
			}
		}
	}
	if d.ht[1] != nil {
		for _, b := range d.ht[1].buckets {
			for e := b; e != nil; e = e.next {
				if !fn(e.key, e.val) {
					return
				}
			}
		}
	}
}

// Keys returns a snapshot slice of all keys.
func (d *Dict[K, V]) Keys() []K {
	out := make([]K, 0, d.length)
	d.Iter(func(k K, _ V) bool {
		out = append(out, k)
		return true
	})
	return out
}

// EntryView is the result of Entry(): either Occupied or Vacant.
type EntryView[K comparable, V any] struct {
	d        *Dict[K, V]
	key      K
	h        uint64
	occupied bool
	node     *entry[K, V]
}

// Entry returns a single-lookup view over key, matching spec.md's
// requirement that or_insert/and_modify probe the table at most once.
func (d *Dict[K, V]) Entry(key K) *EntryView[K, V] {
	if d.Rehashing() {
		d.step()
	} else if float64(d.length+1)/float64(len(d.ht[0].buckets)) >= loadFactor {
		d.startRehash()
		d.step()
	}
	h := d.hashFn(key)
	if e := d.findInTable(d.ht[0], h, key); e != nil {
		return &EntryView[K, V]{d: d, key: key, h: h, occupied: true, node: e}
	}
	if d.Rehashing() {
		if e := d.findInTable(d.ht[1], h, key); e != nil {
			return &EntryView[K, V]{d: d, key: key, h: h, occupied: true, node: e}
		}
	}
	return &EntryView[K, V]{d: d, key: key, h: h, occupied: false}
}

// Occupied reports whether the entry already existed.
func (v *EntryView[K, V]) Occupied() bool { return v.occupied }

// OrInsert returns the existing value, or inserts and returns def.
// The vacant path inserts directly into the current-insert table
// (ht[1] mid-rehash, ht[0] otherwise) at the bucket for the hash
// Entry already computed, so the whole Entry+OrInsert pair probes the
// table at most once.
func (v *EntryView[K, V]) OrInsert(def V) V {
	if v.occupied {
		return v.node.val
	}
	target := v.d.ht[0]
	if v.d.Rehashing() {
		target = v.d.ht[1]
	}
	idx := v.d.bucketIndex(target, v.h)
	target.buckets[idx] = &entry[K, V]{key: v.key, val: def, next: target.buckets[idx]}
	v.d.length++
	return def
}

// AndModify calls fn on the existing value in place, if occupied.
func (v *EntryView[K, V]) AndModify(fn func(*V)) *EntryView[K, V] {
	if v.occupied {
		fn(&v.node.val)
	}
	return v
}

// Remove deletes the occupied entry, returning its value.
func (v *EntryView[K, V]) Remove() (V, bool) {
	if !v.occupied {
		var zero V
		return zero, false
	}
	val := v.node.val
	v.d.Remove(v.key)
	return val, true
}
