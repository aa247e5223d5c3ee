package value

import (
	"github.com/emberkv/emberkv/internal/dict"
	"github.com/emberkv/emberkv/internal/skiplist"
)

// ZSet is the dual-indexed sorted set from spec.md §3: a dict for
// O(1) member->score lookup and a skiplist for ordered range queries,
// kept in agreement on membership at all times.
type ZSet struct {
	byMember *dict.Dict[string, float64]
	sorted   *skiplist.Skiplist[zsetKey, string]
}

// zsetKey orders by (score, member) so distinct members with equal
// scores stay separate entries in a deterministic order rather than colliding in
// the skiplist (which treats equal keys as the same entry).
type zsetKey struct {
	score  OrderedFloat
	member string
}

func lessZSetKey(a, b zsetKey) bool {
	if !a.score.Equal(b.score) {
		return Less(a.score, b.score)
	}
	return a.member < b.member
}

// NewZSet returns an empty ZSet.
func NewZSet() *ZSet {
	return &ZSet{
		byMember: dict.NewStringKeyed[float64](),
		sorted:   skiplist.New[zsetKey, string](lessZSetKey),
	}
}

// Add inserts or updates member's score, keeping both indexes in
// agreement. Returns true if member is new.
func (z *ZSet) Add(member string, score float64) bool {
	if old, ok := z.byMember.Get(member); ok {
		z.sorted.Remove(zsetKey{score: OrderedFloat(old), member: member})
	}
	isNew := z.byMember.Insert(member, score)
	z.sorted.Insert(zsetKey{score: OrderedFloat(score), member: member}, member)
	return isNew
}

// Remove deletes member from both indexes.
func (z *ZSet) Remove(member string) bool {
	score, ok := z.byMember.Get(member)
	if !ok {
		return false
	}
	z.byMember.Remove(member)
	z.sorted.Remove(zsetKey{score: OrderedFloat(score), member: member})
	return true
}

// Score returns member's score.
func (z *ZSet) Score(member string) (float64, bool) { return z.byMember.Get(member) }

// Card returns the member count.
func (z *ZSet) Card() int { return z.byMember.Len() }

// Range returns members in ascending score order within [start, stop]
// 0-based rank, inclusive, Redis ZRANGE-style.
func (z *ZSet) Range(start, stop int) []string {
	all := z.sorted.All()
	n := len(all)
	start, stop = clampRange(start, stop, n)
	if start > stop {
		return nil
	}
	out := make([]string, 0, stop-start+1)
	for i := start; i <= stop; i++ {
		out = append(out, all[i].Val)
	}
	return out
}

func clampRange(start, stop, n int) (int, int) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	return start, stop
}

// RangeByScore returns members with score in [min, max], ascending.
func (z *ZSet) RangeByScore(min, max float64) []string {
	var out []string
	z.sorted.Range(
		zsetKey{score: OrderedFloat(min), member: ""},
		zsetKey{score: OrderedFloat(max), member: string(rune(0x10FFFF))},
		func(k zsetKey, v string) bool {
			out = append(out, v)
			return true
		},
	)
	return out
}

// CheckInvariants verifies dict<->sorted agreement, per spec.md §3.
func (z *ZSet) CheckInvariants() bool {
	if z.byMember.Len() != z.sorted.Len() {
		return false
	}
	ok := true
	z.byMember.Iter(func(member string, score float64) bool {
		_, found := z.sorted.Get(zsetKey{score: OrderedFloat(score), member: member})
		if !found {
			ok = false
			return false
		}
		return true
	})
	return ok
}
