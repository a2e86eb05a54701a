package terrain

import (
	"math"

	"github.com/fogleman/delaunay"

	"github.com/noorus/hivemind-sub000/common"
)

// SkeletonStats reports what the skeleton build produced.
type SkeletonStats struct {
	Sites      int
	Triangles  int
	Degenerate int
	Contracted int
	Nodes      int
	Edges      int
}

// ObstacleSegments collects every ring edge of polys plus the four map border
// segments. Each ring is its own chain; the border is the last chain. Segments
// of a chain are stored consecutively in ring order.
func ObstacleSegments(polys []PolygonWithHoles, width, height int) []Segment {
	var segs []Segment
	chain := 0
	for i := range polys {
		for _, ring := range polys[i].Rings() {
			n := len(ring)
			for j, k := n-1, 0; k < n; j, k = k, k+1 {
				segs = append(segs, Segment{A: ring[j], B: ring[k], Chain: chain, Index: k})
			}
			chain++
		}
	}
	w, h := float64(width), float64(height)
	border := []common.Vec2{{0, 0}, {w, 0}, {w, h}, {0, h}}
	for k := range border {
		segs = append(segs, Segment{A: border[k], B: border[(k+1)%4], Chain: chain, Index: k})
	}
	return segs
}

// feature is the boundary element a sample stands for: the open interior of
// a segment, or its start vertex.
type feature struct {
	seg    int32
	vertex bool
}

type featurePair [2]feature

func makePair(a, b feature) featurePair {
	if b.seg < a.seg || (b.seg == a.seg && !b.vertex && a.vertex) {
		a, b = b, a
	}
	return featurePair{a, b}
}

// nextInChain finds the segment following each segment on its ring.
func nextInChain(segs []Segment) []int32 {
	next := make([]int32, len(segs))
	start := 0
	for i := range segs {
		if i+1 == len(segs) || segs[i+1].Chain != segs[i].Chain {
			for k := start; k < i; k++ {
				next[k] = int32(k + 1)
			}
			next[i] = int32(start)
			start = i + 1
		}
	}
	return next
}

// BuildSkeleton computes the Voronoi diagram of the obstacle segments of
// index as the dual of a Delaunay triangulation over boundary samples, keeps
// the primary edges lying in walkable space, and contracts runs of edges that
// bisect the same pair of boundary features. labels decides walkability.
func BuildSkeleton(index *SegmentIndex, labels *ContourSet, cfg *Config) (*SkeletonGraph, SkeletonStats) {
	var stats SkeletonStats
	segs := index.Segments()
	next := nextInChain(segs)
	maxDim := max(labels.Width, labels.Height)
	q := int64(4)
	for q > 1 && int64(maxDim)*q > 2000 {
		q /= 2
	}
	extent := int64(maxDim) * q
	spacing := cfg.VoronoiSampleSpacing
	if spacing <= 0 {
		spacing = 0.5
	}

	var points []delaunay.Point
	var sites []feature
	seen := make(map[[2]int64]struct{})
	for si, s := range segs {
		n := max(1, int(math.Ceil(common.Vdist2(s.A, s.B)/spacing)))
		for k := 0; k < n; k++ {
			v := common.Vlerp2(s.A, s.B, float64(k)/float64(n))
			key := [2]int64{
				common.Clamp(int64(math.Round(v[0]*float64(q))), 0, extent),
				common.Clamp(int64(math.Round(v[1]*float64(q))), 0, extent),
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			points = append(points, delaunay.Point{X: float64(key[0]) / float64(q), Y: float64(key[1]) / float64(q)})
			sites = append(sites, feature{seg: int32(si), vertex: k == 0})
		}
	}
	stats.Sites = len(sites)

	raw := NewSkeletonGraph()
	tri, err := delaunay.Triangulate(points)
	if err != nil {
		// collinear or too few sites: there is no diagram
		stats.Degenerate++
		return raw, stats
	}
	stats.Triangles = len(tri.Triangles) / 3

	// A segment and its own end vertices only produce secondary edges.
	primary := func(a, b feature) bool {
		if a == b {
			return false
		}
		if a.vertex == b.vertex {
			return true
		}
		if !a.vertex {
			a, b = b, a
		}
		// a is the start vertex of a.seg and the end vertex of the segment before it
		return b.seg != a.seg && next[b.seg] != a.seg
	}
	walkable := func(p common.Vec2) bool {
		return labels.Label(int(math.Floor(p[0])), int(math.Floor(p[1]))) > 0
	}
	// edges may not leave walkable space between their endpoints either
	walkableEdge := func(a, b common.Vec2) bool {
		n := int(math.Ceil(common.Vdist2(a, b) / spacing))
		for k := 0; k <= n; k++ {
			t := 1.0
			if n > 0 {
				t = float64(k) / float64(n)
			}
			if !walkable(common.Vlerp2(a, b, t)) {
				return false
			}
		}
		return true
	}

	centres := make(map[int]common.Vec2)
	centre := func(t int) common.Vec2 {
		if c, ok := centres[t]; ok {
			return c
		}
		c := circumcenter(points[tri.Triangles[3*t]], points[tri.Triangles[3*t+1]], points[tri.Triangles[3*t+2]])
		centres[t] = c
		return c
	}

	pairs := make(map[[2]int]featurePair)
	nodeByKey := make(map[[2]int64]int)
	keyOf := func(p common.Vec2) [2]int64 {
		return [2]int64{int64(math.Round(p[0] * 256)), int64(math.Round(p[1] * 256))}
	}
	node := func(key [2]int64, p common.Vec2) int {
		if id, ok := nodeByKey[key]; ok {
			return id
		}
		id := raw.AddNode(p, 0)
		nodeByKey[key] = id
		return id
	}

	// Every interior half-edge pair is one Voronoi edge between the centres
	// of the two triangles sharing it.
	for e, o := range tri.Halfedges {
		if o < e {
			continue
		}
		fa, fb := sites[tri.Triangles[e]], sites[tri.Triangles[nextHalfedge(e)]]
		if !primary(fa, fb) {
			continue
		}
		c1, c2 := centre(e/3), centre(o/3)
		if !common.VisFinite2(c1) || !common.VisFinite2(c2) {
			stats.Degenerate++
			continue
		}
		if !walkable(c1) || !walkable(c2) || !walkableEdge(c1, c2) {
			continue
		}
		k1, k2 := keyOf(c1), keyOf(c2)
		if k1 == k2 {
			continue
		}
		a, b := node(k1, c1), node(k2, c2)
		if raw.HasEdge(a, b) {
			continue
		}
		raw.AddEdge(a, b)
		pairs[edgeKey(a, b)] = makePair(fa, fb)
	}

	stats.Contracted = contractBisectors(raw, pairs)
	g := compactGraph(raw)
	for i := range g.Nodes {
		if hit, ok := index.Nearest(g.Nodes[i].Pos); ok {
			g.Nodes[i].Clearance = hit.Dist
		}
	}
	stats.Nodes = g.Len()
	stats.Edges = g.EdgeCount()
	return g, stats
}

func nextHalfedge(e int) int {
	if e%3 == 2 {
		return e - 2
	}
	return e + 1
}

// circumcenter returns the centre of the circle through a, b and c. Collinear
// points give a non-finite result.
func circumcenter(a, b, c delaunay.Point) common.Vec2 {
	bx, by := b.X-a.X, b.Y-a.Y
	cx, cy := c.X-a.X, c.Y-a.Y
	d := 2 * (bx*cy - by*cx)
	b2 := bx*bx + by*by
	c2 := cx*cx + cy*cy
	return common.Vec2{a.X + (cy*b2-by*c2)/d, a.Y + (bx*c2-cx*b2)/d}
}

func edgeKey(a, b int) [2]int {
	if b < a {
		a, b = b, a
	}
	return [2]int{a, b}
}

// contractBisectors removes degree-2 nodes whose two edges bisect the same
// feature pair, so that the remaining nodes are diagram vertices.
func contractBisectors(g *SkeletonGraph, pairs map[[2]int]featurePair) int {
	removed := 0
	for n := range g.Nodes {
		if g.Nodes[n].Removed || g.Degree(n) != 2 {
			continue
		}
		nb := g.Neighbors(n)
		a, b := nb[0], nb[1]
		pa, pb := pairs[edgeKey(n, a)], pairs[edgeKey(n, b)]
		if pa != pb || g.HasEdge(a, b) {
			continue
		}
		g.RemoveNode(n)
		g.AddEdge(a, b)
		pairs[edgeKey(a, b)] = pa
		removed++
	}
	return removed
}

// compactGraph copies the live nodes of g into a fresh graph.
func compactGraph(g *SkeletonGraph) *SkeletonGraph {
	res := NewSkeletonGraph()
	remap := make([]int, g.Len())
	for i := range g.Nodes {
		remap[i] = -1
		if !g.Nodes[i].Removed {
			remap[i] = res.AddNode(g.Nodes[i].Pos, g.Nodes[i].Clearance)
			res.Nodes[remap[i]].Type = g.Nodes[i].Type
		}
	}
	for i := range g.Nodes {
		if remap[i] < 0 {
			continue
		}
		for _, m := range g.Neighbors(i) {
			if m > i {
				res.AddEdge(remap[i], remap[m])
			}
		}
	}
	return res
}
