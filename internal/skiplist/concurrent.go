package skiplist

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/emberkv/emberkv/kverrors"
)

// ConcurrentMetrics tracks lock contention for a ConcurrentSkipList,
// per spec.md §4.2.
type ConcurrentMetrics struct {
	ReadLocks     atomic.Uint64
	WriteLocks    atomic.Uint64
	WaitNanos     atomic.Uint64
	LockFailures  atomic.Uint64
}

// ConcurrentSkipList wraps a Skiplist behind a single reader-writer
// lock, exposing blocking and try_* (bounded-poll) variants.
type ConcurrentSkipList[K any, V any] struct {
	mu      sync.RWMutex
	inner   *Skiplist[K, V]
	length  atomic.Int64
	metrics ConcurrentMetrics
}

// NewConcurrent returns an empty ConcurrentSkipList.
func NewConcurrent[K any, V any](less func(a, b K) bool) *ConcurrentSkipList[K, V] {
	return &ConcurrentSkipList[K, V]{inner: New[K, V](less)}
}

// Metrics returns the lock-contention counters.
func (c *ConcurrentSkipList[K, V]) Metrics() *ConcurrentMetrics { return &c.metrics }

// Len returns the cached length (updated on every mutation with
// relaxed semantics, matching spec.md's atomic cached length).
func (c *ConcurrentSkipList[K, V]) Len() int { return int(c.length.Load()) }

func (c *ConcurrentSkipList[K, V]) withWrite(fn func()) {
	start := time.Now()
	c.mu.Lock()
	c.metrics.WriteLocks.Add(1)
	c.metrics.WaitNanos.Add(uint64(time.Since(start)))
	defer c.mu.Unlock()
	fn()
	c.length.Store(int64(c.inner.Len()))
}

func (c *ConcurrentSkipList[K, V]) withRead(fn func()) {
	start := time.Now()
	c.mu.RLock()
	c.metrics.ReadLocks.Add(1)
	c.metrics.WaitNanos.Add(uint64(time.Since(start)))
	defer c.mu.RUnlock()
	fn()
}

// Insert adds or overwrites key->val.
func (c *ConcurrentSkipList[K, V]) Insert(key K, val V) {
	c.withWrite(func() { c.inner.Insert(key, val) })
}

// Get returns the value for key.
func (c *ConcurrentSkipList[K, V]) Get(key K) (V, bool) {
	var v V
	var ok bool
	c.withRead(func() { v, ok = c.inner.Get(key) })
	return v, ok
}

// Remove deletes key.
func (c *ConcurrentSkipList[K, V]) Remove(key K) bool {
	var removed bool
	c.withWrite(func() { removed = c.inner.Remove(key) })
	return removed
}

// TryInsert attempts to acquire the write lock within timeout,
// returning a LockFailures-counted error if it cannot.
func (c *ConcurrentSkipList[K, V]) TryInsert(key K, val V, timeout time.Duration) error {
	if !c.tryLockWithin(timeout, true) {
		c.metrics.LockFailures.Add(1)
		return kverrors.Timeout("skiplist: write lock not acquired within timeout")
	}
	defer c.mu.Unlock()
	c.metrics.WriteLocks.Add(1)
	c.inner.Insert(key, val)
	c.length.Store(int64(c.inner.Len()))
	return nil
}

// TryGet attempts to acquire the read lock within timeout.
func (c *ConcurrentSkipList[K, V]) TryGet(key K, timeout time.Duration) (V, bool, error) {
	var zero V
	if !c.tryLockWithin(timeout, false) {
		c.metrics.LockFailures.Add(1)
		return zero, false, kverrors.Timeout("skiplist: read lock not acquired within timeout")
	}
	defer c.mu.RUnlock()
	c.metrics.ReadLocks.Add(1)
	v, ok := c.inner.Get(key)
	return v, ok, nil
}

// tryLockWithin polls TryLock/TryRLock until timeout elapses.
func (c *ConcurrentSkipList[K, V]) tryLockWithin(timeout time.Duration, write bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if write {
			if c.mu.TryLock() {
				return true
			}
		} else {
			if c.mu.TryRLock() {
				return true
			}
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}

// First returns the smallest entry.
func (c *ConcurrentSkipList[K, V]) First() (K, V, bool) {
	var k K
	var v V
	var ok bool
	c.withRead(func() { k, v, ok = c.inner.First() })
	return k, v, ok
}

// Last returns the largest entry.
func (c *ConcurrentSkipList[K, V]) Last() (K, V, bool) {
	var k K
	var v V
	var ok bool
	c.withRead(func() { k, v, ok = c.inner.Last() })
	return k, v, ok
}
