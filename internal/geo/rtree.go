package geo

import (
	"math"
	"sort"
)

// entry is a leaf item in the R-tree: a member name plus its point.
type entry struct {
	member string
	point  Point
}

// RTree is a simple, from-scratch R-tree over (lon, lat) points,
// rebuilt wholesale on bulk load and updated incrementally on Add, as
// named in spec.md §4.7. Internally it keeps leaves in a small number
// of fixed-capacity bounding-box nodes rather than a full balanced
// tree, which is sufficient for the radius/kNN query shapes the store
// needs. Add scans every node to pick one, so insertion cost grows
// with the number of nodes.
type RTree struct {
	nodeCap int
	nodes   []*rnode
	byName  map[string]*rnode
}

type rnode struct {
	box     BoundingBox
	entries []entry
}

// NewRTree returns an empty R-tree with the default node capacity.
func NewRTree() *RTree {
	return &RTree{nodeCap: 32, byName: make(map[string]*rnode)}
}

// FromEntries bulk-loads an R-tree from existing (member, point)
// pairs, grouping them into fixed-capacity leaf nodes.
func FromEntries(members []string, points []Point) *RTree {
	t := NewRTree()
	for i := range members {
		t.Add(members[i], points[i])
	}
	return t
}

func boxFor(p Point) BoundingBox {
	return BoundingBox{MinLon: p.Lon, MaxLon: p.Lon, MinLat: p.Lat, MaxLat: p.Lat}
}

func union(a, b BoundingBox) BoundingBox {
	return BoundingBox{
		MinLon: math.Min(a.MinLon, b.MinLon),
		MaxLon: math.Max(a.MaxLon, b.MaxLon),
		MinLat: math.Min(a.MinLat, b.MinLat),
		MaxLat: math.Max(a.MaxLat, b.MaxLat),
	}
}

// Add inserts or updates a member's point, choosing the node whose
// box would grow least (classic R-tree insertion heuristic), or
// starting a new node if every existing node is at capacity.
func (t *RTree) Add(member string, p Point) {
	t.Remove(member)

	eb := boxFor(p)
	var best *rnode
	bestGrowth := -1.0
	for _, n := range t.nodes {
		if len(n.entries) >= t.nodeCap {
			continue
		}
		grown := union(n.box, eb)
		growth := area(grown) - area(n.box)
		if best == nil || growth < bestGrowth {
			best, bestGrowth = n, growth
		}
	}
	if best == nil {
		best = &rnode{box: eb}
		t.nodes = append(t.nodes, best)
	} else {
		best.box = union(best.box, eb)
	}
	best.entries = append(best.entries, entry{member: member, point: p})
	t.byName[member] = best
}

func area(b BoundingBox) float64 {
	return (b.MaxLon - b.MinLon) * (b.MaxLat - b.MinLat)
}

// Remove deletes a member, returning whether it was present.
func (t *RTree) Remove(member string) bool {
	n, ok := t.byName[member]
	if !ok {
		return false
	}
	for i, e := range n.entries {
		if e.member == member {
			n.entries = append(n.entries[:i], n.entries[i+1:]...)
			break
		}
	}
	delete(t.byName, member)
	if len(n.entries) == 0 {
		for i, nd := range t.nodes {
			if nd == n {
				t.nodes = append(t.nodes[:i], t.nodes[i+1:]...)
				break
			}
		}
		return true
	}
	box := boxFor(n.entries[0].point)
	for _, e := range n.entries[1:] {
		box = union(box, boxFor(e.point))
	}
	n.box = box
	return true
}

// Len returns the number of indexed members.
func (t *RTree) Len() int { return len(t.byName) }

func boxIntersectsCircle(b BoundingBox, center Point, radiusMeters float64) bool {
	clampedLon := clamp(center.Lon, b.MinLon, b.MaxLon)
	clampedLat := clamp(center.Lat, b.MinLat, b.MaxLat)
	closest := Point{Lon: clampedLon, Lat: clampedLat}
	return Haversine(center, closest) <= radiusMeters
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RadiusResult is one hit from Radius/Nearest.
type RadiusResult struct {
	Member   string
	Distance float64 // meters
}

// Radius returns every member within radiusMeters of center, querying
// node bounding boxes first to skip whole nodes, then refining by
// exact haversine distance per entry.
func (t *RTree) Radius(center Point, radiusMeters float64) []RadiusResult {
	var out []RadiusResult
	for _, n := range t.nodes {
		if !boxIntersectsCircle(n.box, center, radiusMeters) {
			continue
		}
		for _, e := range n.entries {
			d := Haversine(center, e.point)
			if d <= radiusMeters {
				out = append(out, RadiusResult{Member: e.member, Distance: d})
			}
		}
	}
	return out
}

// Nearest returns the k closest members to center, sorted ascending
// by distance.
func (t *RTree) Nearest(center Point, k int) []RadiusResult {
	all := make([]RadiusResult, 0, len(t.byName))
	for _, n := range t.nodes {
		for _, e := range n.entries {
			all = append(all, RadiusResult{Member: e.member, Distance: Haversine(center, e.point)})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Distance < all[j].Distance })
	if k < len(all) {
		all = all[:k]
	}
	return all
}

// MemberPoint pairs a member name with its indexed point.
type MemberPoint struct {
	Member string
	Point  Point
}

// All returns every (member, point) pair the tree holds, in no
// particular order; used by GeoSet.All for dump/rebuild.
func (t *RTree) All() []MemberPoint {
	out := make([]MemberPoint, 0, len(t.byName))
	for member, n := range t.byName {
		for _, e := range n.entries {
			if e.member == member {
				out = append(out, MemberPoint{Member: member, Point: e.point})
				break
			}
		}
	}
	return out
}

// Get returns a member's indexed point.
func (t *RTree) Get(member string) (Point, bool) {
	n, ok := t.byName[member]
	if !ok {
		return Point{}, false
	}
	for _, e := range n.entries {
		if e.member == member {
			return e.point, true
		}
	}
	return Point{}, false
}
