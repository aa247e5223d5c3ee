package geo

// GeoSet indexes members by (lon, lat): each member carries its raw
// point, its 52-bit score, and a geohash bucket membership, backed by
// an R-tree for radius/kNN queries, per spec.md §3/§4.7.
type GeoSet struct {
	tree          *RTree
	bucketPrec    int
	buckets       map[string][]string // geohash prefix -> members
	memberGeohash map[string]string
}

// DefaultBucketPrecision is the geohash character count used for the
// coarse prefix-bucket index.
const DefaultBucketPrecision = 6

// NewGeoSet returns an empty GeoSet.
func NewGeoSet() *GeoSet {
	return &GeoSet{
		tree:          NewRTree(),
		bucketPrec:    DefaultBucketPrecision,
		buckets:       make(map[string][]string),
		memberGeohash: make(map[string]string),
	}
}

// Add inserts or updates a member's position.
func (g *GeoSet) Add(member string, p Point) {
	g.removeBucket(member)
	g.tree.Add(member, p)
	hash := Encode(p, g.bucketPrec)
	g.memberGeohash[member] = hash
	g.buckets[hash] = append(g.buckets[hash], member)
}

func (g *GeoSet) removeBucket(member string) {
	if hash, ok := g.memberGeohash[member]; ok {
		members := g.buckets[hash]
		for i, m := range members {
			if m == member {
				g.buckets[hash] = append(members[:i], members[i+1:]...)
				break
			}
		}
		delete(g.memberGeohash, member)
	}
}

// Remove deletes a member, returning whether it was present.
func (g *GeoSet) Remove(member string) bool {
	g.removeBucket(member)
	return g.tree.Remove(member)
}

// Pos returns a member's point.
func (g *GeoSet) Pos(member string) (Point, bool) { return g.tree.Get(member) }

// Dist returns the haversine distance between two members, in the
// requested unit.
func (g *GeoSet) Dist(m1, m2 string, unit Unit) (float64, bool) {
	p1, ok1 := g.tree.Get(m1)
	p2, ok2 := g.tree.Get(m2)
	if !ok1 || !ok2 {
		return 0, false
	}
	return FromMeters(Haversine(p1, p2), unit), true
}

// Score returns a member's 52-bit interleaved geohash score.
func (g *GeoSet) Score(member string) (uint64, bool) {
	p, ok := g.tree.Get(member)
	if !ok {
		return 0, false
	}
	return Score(p), true
}

// Len returns the number of indexed members.
func (g *GeoSet) Len() int { return g.tree.Len() }

// All returns every (member, point) pair, used for ZDB dump/rebuild.
func (g *GeoSet) All() []MemberPoint { return g.tree.All() }

// RadiusOptions configures Radius.
type RadiusOptions struct {
	UseGeohash    bool
	Precision     int // geohash chars for prefix filtering; 0 uses bucketPrec
	IncludeNeighbors bool
	Unit          Unit
}

// Radius returns every member within radiusMeters (expressed via
// opts.Unit, default meters) of center. When opts.UseGeohash is set,
// candidates are pre-filtered by geohash prefix (optionally including
// neighboring cells) before haversine refinement; otherwise the
// R-tree is queried directly. Per spec.md §4.7/§8.9, both backends
// must agree on the resulting member set whenever neighbors are
// included at an appropriate precision.
func (g *GeoSet) Radius(center Point, radius float64, opts RadiusOptions) []RadiusResult {
	radiusMeters := ToMeters(radius, opts.Unit)

	if !opts.UseGeohash {
		return g.tree.Radius(center, radiusMeters)
	}

	prec := opts.Precision
	if prec == 0 {
		prec = g.bucketPrec
	}
	centerHash := Encode(center, prec)
	hashes := []string{centerHash}
	if opts.IncludeNeighbors {
		if neighbors, err := AllNeighbors(centerHash); err == nil {
			hashes = append(hashes, neighbors...)
			// Also include diagonal neighbors so a center point near a
			// cell corner still finds candidates in every adjoining
			// cell, not just the four edge-adjacent ones.
			for _, n := range neighbors {
				if diag, err := AllNeighbors(n); err == nil {
					hashes = append(hashes, diag...)
				}
			}
		}
	}
	if prec != g.bucketPrec {
		var keys []string
		for key := range g.buckets {
			for _, h := range hashes {
				if HasPrefix(key, h) || HasPrefix(h, key) {
					keys = append(keys, key)
					break
				}
			}
		}
		hashes = keys
	}

	seen := make(map[string]bool)
	var out []RadiusResult
	for _, h := range hashes {
		for _, member := range g.buckets[h] {
			if seen[member] {
				continue
			}
			seen[member] = true
			p, ok := g.tree.Get(member)
			if !ok {
				continue
			}
			d := Haversine(center, p)
			if d <= radiusMeters {
				out = append(out, RadiusResult{Member: member, Distance: d})
			}
		}
	}
	return out
}

// Nearest returns the k nearest members to center.
func (g *GeoSet) Nearest(center Point, k int) []RadiusResult {
	return g.tree.Nearest(center, k)
}
