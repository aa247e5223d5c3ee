// Package store implements the in-memory key->Value map from
// spec.md §3/§4/§6: TTL tracking, the untyped Get/Set/Del surface,
// and typed accessors layered on internal/value's containers. Every
// operation is atomic with respect to every other operation on the
// same Store, enforced by a single RWMutex per spec.md §5 ("a single
// store instance provides sequential consistency for command
// execution").
package store

import (
	"sync"
	"time"

	"github.com/emberkv/emberkv/internal/value"
	"github.com/emberkv/emberkv/kverrors"
)

type entry struct {
	val      *value.Value
	expireAt time.Time // zero means no TTL
}

func (e *entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// Store is the core key->Value map. The zero value is not usable;
// construct with New.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry

	// sweeper state
	sweepStop chan struct{}
	sweepOnce sync.Once
}

// New returns an empty Store.
func New() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// now is a var so tests can stub time without depending on wall clock
// monotonic skew; production code leaves it as time.Now.
var now = time.Now

// lockedGet returns the live entry for key, treating an entry whose
// TTL has passed as absent without removing it. Caller must hold at
// least a read lock; removal needs the write lock, which Get takes
// afterwards through evictIfExpired.
func (s *Store) lockedGet(key string) (*entry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(now()) {
		return nil, false
	}
	return e, true
}

// Get returns the value stored at key, lazily evicting it if expired.
func (s *Store) Get(key string) (*value.Value, bool) {
	s.mu.RLock()
	e, ok := s.lockedGet(key)
	s.mu.RUnlock()
	if !ok {
		s.evictIfExpired(key)
		return nil, false
	}
	return e.val, true
}

// evictIfExpired removes key under a write lock if it is present and
// expired; a no-op otherwise (handles the race where another writer
// already evicted or overwrote it between the read and write lock).
func (s *Store) evictIfExpired(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && e.expired(now()) {
		delete(s.entries, key)
	}
}

// Set stores val at key, clearing any prior TTL.
func (s *Store) Set(key string, val *value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &entry{val: val}
}

// SetWithTTL stores val at key with an expiration ttl from now.
func (s *Store) SetWithTTL(key string, val *value.Value, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &entry{val: val, expireAt: now().Add(ttl)}
}

// Del removes key, returning whether it was present (and unexpired).
func (s *Store) Del(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	delete(s.entries, key)
	return !e.expired(now())
}

// MSet stores multiple key->value pairs atomically.
func (s *Store) MSet(pairs map[string]*value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range pairs {
		s.entries[k] = &entry{val: v}
	}
}

// MGet returns values for each key in order; missing/expired keys
// report a nil Value at that position.
func (s *Store) MGet(keys []string) []*value.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*value.Value, len(keys))
	t := now()
	for i, k := range keys {
		if e, ok := s.entries[k]; ok && !e.expired(t) {
			out[i] = e.val
		}
	}
	return out
}

// Rename moves the value (and TTL) at src to dst, overwriting dst,
// and removes src. Returns NotFound if src is absent or expired.
func (s *Store) Rename(src, dst string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[src]
	if !ok || e.expired(now()) {
		return kverrors.NotFound("no such key: " + src)
	}
	delete(s.entries, src)
	s.entries[dst] = e
	return nil
}

// Exists reports whether key is present and unexpired.
func (s *Store) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.lockedGet(key)
	return ok
}

// Expire sets key's TTL, returning false if key is absent.
func (s *Store) Expire(key string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || e.expired(now()) {
		return false
	}
	e.expireAt = now().Add(ttl)
	return true
}

// Persist clears key's TTL, returning false if key is absent.
func (s *Store) Persist(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || e.expired(now()) {
		return false
	}
	e.expireAt = time.Time{}
	return true
}

// TTL returns the remaining time to live for key. ok is false if the
// key is absent; a zero Duration with ok true means no TTL is set.
func (s *Store) TTL(key string) (ttl time.Duration, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, found := s.lockedGet(key)
	if !found {
		return 0, false
	}
	if e.expireAt.IsZero() {
		return 0, true
	}
	return e.expireAt.Sub(now()), true
}

// DBSize returns the number of live (unexpired) keys. This is O(n);
// spec.md does not require O(1) here and a lazily-evicted count would
// drift from a sweeper-free store.
func (s *Store) DBSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := now()
	n := 0
	for _, e := range s.entries {
		if !e.expired(t) {
			n++
		}
	}
	return n
}

// Iter calls fn for every live key/value pair, stopping early if fn
// returns false. fn must not call back into the Store (re-entrant
// locking would deadlock).
func (s *Store) Iter(fn func(key string, val *value.Value) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := now()
	for k, e := range s.entries {
		if e.expired(t) {
			continue
		}
		if !fn(k, e.val) {
			return
		}
	}
}

// StartSweeper launches a background goroutine that scans every key
// each interval and evicts expired ones. Stop with StopSweeper.
func (s *Store) StartSweeper(interval time.Duration) {
	s.sweepOnce.Do(func() {
		s.sweepStop = make(chan struct{})
		go s.sweepLoop(interval)
	})
}

func (s *Store) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweepOnce2()
		case <-s.sweepStop:
			return
		}
	}
}

// sweepOnce2 evicts every expired key found in one pass. Named with a
// numeric suffix to avoid colliding with sweepOnce (the sync.Once
// guarding sweeper startup).
func (s *Store) sweepOnce2() {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := now()
	for k, e := range s.entries {
		if e.expired(t) {
			delete(s.entries, k)
		}
	}
}

// StopSweeper halts a running sweeper goroutine, if any.
func (s *Store) StopSweeper() {
	if s.sweepStop != nil {
		close(s.sweepStop)
	}
}

// getTyped fetches key's value under the lock held by the caller,
// returning NotFound if absent/expired. It does not check the kind;
// callers do that through the Value accessors, which return WrongType.
func (s *Store) getTyped(key string) (*value.Value, error) {
	e, ok := s.lockedGet(key)
	if !ok {
		return nil, kverrors.NotFound("no such key: " + key)
	}
	return e.val, nil
}

// getOrCreate returns key's existing Value, or creates and stores a
// fresh one via makeNew if absent, under the write lock the caller
// already holds.
func (s *Store) getOrCreate(key string, makeNew func() *value.Value) *value.Value {
	if e, ok := s.entries[key]; ok && !e.expired(now()) {
		return e.val
	}
	v := makeNew()
	s.entries[key] = &entry{val: v}
	return v
}
