package skiplist

import (
	"hash/maphash"
	"math"
)

// ShardedSkipList distributes keys across a fixed number of
// independently-locked shards so unrelated keys never contend, per
// spec.md §4.2.
type ShardedSkipList[K any, V any] struct {
	shards  []*ConcurrentSkipList[K, V]
	hashFn  func(K) uint64
}

// NewSharded returns a ShardedSkipList with numShards shards, each
// ordered by less. hashFn distributes keys across shards; within a
// shard, ordering is still governed by less.
func NewSharded[K any, V any](numShards int, less func(a, b K) bool, hashFn func(K) uint64) *ShardedSkipList[K, V] {
	if numShards < 1 {
		numShards = 1
	}
	s := &ShardedSkipList[K, V]{
		shards: make([]*ConcurrentSkipList[K, V], numShards),
		hashFn: hashFn,
	}
	for i := range s.shards {
		s.shards[i] = NewConcurrent[K, V](less)
	}
	return s
}

// NewShardedStringKeyed is a convenience constructor for string-keyed
// sharded skiplists using maphash for shard assignment.
func NewShardedStringKeyed[V any](numShards int, less func(a, b string) bool) *ShardedSkipList[string, V] {
	seed := maphash.MakeSeed()
	return NewSharded[string, V](numShards, less, func(k string) uint64 {
		return maphash.String(seed, k)
	})
}

func (s *ShardedSkipList[K, V]) shardFor(key K) *ConcurrentSkipList[K, V] {
	idx := int(s.hashFn(key) % uint64(len(s.shards)))
	return s.shards[idx]
}

// Insert adds or overwrites key->val in its shard.
func (s *ShardedSkipList[K, V]) Insert(key K, val V) {
	s.shardFor(key).Insert(key, val)
}

// Get returns the value for key from its shard.
func (s *ShardedSkipList[K, V]) Get(key K) (V, bool) {
	return s.shardFor(key).Get(key)
}

// Remove deletes key from its shard.
func (s *ShardedSkipList[K, V]) Remove(key K) bool {
	return s.shardFor(key).Remove(key)
}

// Len sums the lengths of every shard.
func (s *ShardedSkipList[K, V]) Len() int {
	total := 0
	for _, sh := range s.shards {
		total += sh.Len()
	}
	return total
}

// First scans all shards and returns the overall smallest entry.
func (s *ShardedSkipList[K, V]) First(less func(a, b K) bool) (K, V, bool) {
	var bestK K
	var bestV V
	found := false
	for _, sh := range s.shards {
		k, v, ok := sh.First()
		if !ok {
			continue
		}
		if !found || less(k, bestK) {
			bestK, bestV, found = k, v, true
		}
	}
	return bestK, bestV, found
}

// Last scans all shards and returns the overall largest entry.
func (s *ShardedSkipList[K, V]) Last(less func(a, b K) bool) (K, V, bool) {
	var bestK K
	var bestV V
	found := false
	for _, sh := range s.shards {
		k, v, ok := sh.Last()
		if !ok {
			continue
		}
		if !found || less(bestK, k) {
			bestK, bestV, found = k, v, true
		}
	}
	return bestK, bestV, found
}

// LoadBalanceScore returns 1 - variance(counts)/maxVariance, a
// 0..1 score where 1 means perfectly even shard occupancy.
func (s *ShardedSkipList[K, V]) LoadBalanceScore() float64 {
	n := len(s.shards)
	if n <= 1 {
		return 1
	}
	counts := make([]float64, n)
	total := 0.0
	for i, sh := range s.shards {
		counts[i] = float64(sh.Len())
		total += counts[i]
	}
	mean := total / float64(n)
	var variance float64
	for _, c := range counts {
		d := c - mean
		variance += d * d
	}
	variance /= float64(n)

	// Maximum variance for n buckets summing to `total` occurs when
	// all items land in one shard.
	maxVariance := (total * total) * float64(n-1) / float64(n*n)
	if maxVariance == 0 {
		return 1
	}
	score := 1 - variance/maxVariance
	return math.Max(0, math.Min(1, score))
}
