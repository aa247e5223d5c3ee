package store

import (
	"github.com/emberkv/emberkv/internal/bitmap"
	"github.com/emberkv/emberkv/internal/geo"
	"github.com/emberkv/emberkv/internal/value"
	"github.com/emberkv/emberkv/kverrors"
)

// HSet sets field=val in the hash at key, creating the hash if
// absent, reporting WrongType if key holds something else.
func (s *Store) HSet(key, field, val string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.getOrCreate(key, value.NewHash)
	h, err := v.Hash()
	if err != nil {
		return false, err
	}
	return h.Set(field, val), nil
}

// HGet returns field's value in the hash at key.
func (s *Store) HGet(key, field string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := s.getTyped(key)
	if err != nil {
		return "", false, nil //nolint:nilerr // missing key reads as "no field", not an error
	}
	h, err := v.Hash()
	if err != nil {
		return "", false, err
	}
	val, ok := h.Get(field)
	return val, ok, nil
}

// HIncrBy adds delta to field's integer value (default 0), storing
// the result back as a decimal string.
func (s *Store) HIncrBy(key, field string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.getOrCreate(key, value.NewHash)
	h, err := v.Hash()
	if err != nil {
		return 0, err
	}
	result, ok := h.IncrBy(field, delta, parseInt, formatInt)
	if !ok {
		return 0, kverrors.InvalidArgs("hash value is not an integer")
	}
	return result, nil
}

// ZAdd inserts or updates member's score in the sorted set at key.
func (s *Store) ZAdd(key, member string, score float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.getOrCreate(key, value.NewZSetValue)
	z, err := v.ZSet()
	if err != nil {
		return false, err
	}
	return z.Add(member, score), nil
}

// ZRem removes member from the sorted set at key.
func (s *Store) ZRem(key, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.getTyped(key)
	if err != nil {
		return false, nil //nolint:nilerr // absent key means "nothing to remove"
	}
	z, err := v.ZSet()
	if err != nil {
		return false, err
	}
	return z.Remove(member), nil
}

// ZScore returns member's score in the sorted set at key.
func (s *Store) ZScore(key, member string) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := s.getTyped(key)
	if err != nil {
		return 0, false, nil //nolint:nilerr
	}
	z, err := v.ZSet()
	if err != nil {
		return 0, false, err
	}
	score, ok := z.Score(member)
	return score, ok, nil
}

// ZRange returns members in [start, stop] rank order from the sorted
// set at key.
func (s *Store) ZRange(key string, start, stop int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := s.getTyped(key)
	if err != nil {
		return nil, nil //nolint:nilerr
	}
	z, err := v.ZSet()
	if err != nil {
		return nil, err
	}
	return z.Range(start, stop), nil
}

// ZCard returns the cardinality of the sorted set at key.
func (s *Store) ZCard(key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := s.getTyped(key)
	if err != nil {
		return 0, nil //nolint:nilerr
	}
	z, err := v.ZSet()
	if err != nil {
		return 0, err
	}
	return z.Card(), nil
}

// LPush/RPush/LPop/RPop/LLen are the list equivalents from spec.md §6.

func (s *Store) RPush(key string, vals ...[]byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.getOrCreate(key, value.NewList)
	l, err := v.List()
	if err != nil {
		return 0, err
	}
	for _, b := range vals {
		l.PushBack(b)
	}
	return l.Len(), nil
}

func (s *Store) LPush(key string, vals ...[]byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.getOrCreate(key, value.NewList)
	l, err := v.List()
	if err != nil {
		return 0, err
	}
	for _, b := range vals {
		l.PushFront(b)
	}
	return l.Len(), nil
}

func (s *Store) LPop(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.getTyped(key)
	if err != nil {
		return nil, false, nil //nolint:nilerr
	}
	l, err := v.List()
	if err != nil {
		return nil, false, err
	}
	b, ok := l.PopFront()
	return b, ok, nil
}

func (s *Store) RPop(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.getTyped(key)
	if err != nil {
		return nil, false, nil //nolint:nilerr
	}
	l, err := v.List()
	if err != nil {
		return nil, false, err
	}
	b, ok := l.PopBack()
	return b, ok, nil
}

func (s *Store) LLen(key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := s.getTyped(key)
	if err != nil {
		return 0, nil //nolint:nilerr
	}
	l, err := v.List()
	if err != nil {
		return 0, err
	}
	return l.Len(), nil
}

// SetBit/GetBit/BitCount are the bitmap equivalents from spec.md §6.

func (s *Store) SetBit(key string, offset int, on bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.getOrCreate(key, value.NewBitmap)
	b, err := v.Bitmap()
	if err != nil {
		return false, err
	}
	prev := b.GetBit(offset)
	b.SetBit(offset, on)
	return prev, nil
}

func (s *Store) GetBit(key string, offset int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := s.getTyped(key)
	if err != nil {
		return false, nil //nolint:nilerr
	}
	b, err := v.Bitmap()
	if err != nil {
		return false, err
	}
	return b.GetBit(offset), nil
}

func (s *Store) BitCount(key string, strategy bitmap.Strategy) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := s.getTyped(key)
	if err != nil {
		return 0, nil //nolint:nilerr
	}
	b, err := v.Bitmap()
	if err != nil {
		return 0, err
	}
	return b.BitCount(strategy), nil
}

// GeoAdd/GeoDist/GeoPos/GeoRadius are the geo equivalents from
// spec.md §6.

func (s *Store) GeoAdd(key, member string, p geo.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.getOrCreate(key, value.NewGeoSetValue)
	g, err := v.GeoSet()
	if err != nil {
		return err
	}
	g.Add(member, p)
	return nil
}

func (s *Store) GeoDist(key, m1, m2 string, unit geo.Unit) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := s.getTyped(key)
	if err != nil {
		return 0, false, nil //nolint:nilerr
	}
	g, err := v.GeoSet()
	if err != nil {
		return 0, false, err
	}
	d, ok := g.Dist(m1, m2, unit)
	return d, ok, nil
}

func (s *Store) GeoPos(key, member string) (geo.Point, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := s.getTyped(key)
	if err != nil {
		return geo.Point{}, false, nil //nolint:nilerr
	}
	g, err := v.GeoSet()
	if err != nil {
		return geo.Point{}, false, err
	}
	p, ok := g.Pos(member)
	return p, ok, nil
}

func (s *Store) GeoRadius(key string, center geo.Point, radius float64, opts geo.RadiusOptions) ([]geo.RadiusResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := s.getTyped(key)
	if err != nil {
		return nil, nil //nolint:nilerr
	}
	g, err := v.GeoSet()
	if err != nil {
		return nil, err
	}
	return g.Radius(center, radius, opts), nil
}
