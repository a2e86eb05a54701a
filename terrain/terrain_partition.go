package terrain

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/noorus/hivemind-sub000/common"
)

// TileMembership tells how a tile got its region.
type TileMembership uint8

const (
	MemberNone TileMembership = iota
	MemberDirect
	MemberFallback
)

// Partition is the output of PartitionRegions.
type Partition struct {
	Regions []Region
	// TileRegions holds a region id per tile, -1 for non-walkable tiles.
	TileRegions []int32
	TileKinds   []TileMembership
	// NodeRegion maps simplified region node ids to their region.
	NodeRegion map[int]RegionID
	Pieces     int
	Fallbacks  int
}

// cutterPolygon widens the extended side segment of a chokepoint into a
// rectangle.
func cutterPolygon(s Sides, cfg *Config) Polygon {
	a, b := s[0], s[1]
	d := b.Sub(a)
	l := d.Len()
	if l < sideEpsilon {
		return nil
	}
	dir := d.Mul(1 / l)
	ext := math.Max(cfg.CutterExtension*l, cfg.CutterHalfWidth*2)
	a = a.Sub(dir.Mul(ext))
	b = b.Add(dir.Mul(ext))
	n := common.Vec2{-dir[1], dir[0]}.Mul(cfg.CutterHalfWidth)
	return Polygon{a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)}
}

// PartitionRegions cuts the walkable polygons at every chokepoint and turns
// every resulting piece into a region, then assigns every walkable tile to
// exactly one region. A piece is anchored at the strongest region node of the
// simplified graph g inside it; pieces without one take the widest node of
// the raw skeleton inside them, or their centroid.
func PartitionRegions(polys []PolygonWithHoles, g, raw *SkeletonGraph, remap map[int]int, sides map[int]Sides, flags *FlagGrid, cfg *Config) (*Partition, error) {
	var clip []Polygon
	for _, n := range sortedKeys(sides) {
		if cut := cutterPolygon(sides[n], cfg); cut != nil {
			clip = append(clip, cut)
		}
	}
	pieces, err := Difference(polys, clip)
	if err != nil {
		return nil, err
	}

	part := &Partition{NodeRegion: make(map[int]RegionID), Pieces: len(pieces)}

	// Match every region node to the piece holding it.
	pieceNodes := make([][]int, len(pieces))
	for _, n := range g.Live() {
		if g.Nodes[n].Type != NodeRegion {
			continue
		}
		if best := closestPiece(pieces, g.Nodes[n].Pos); best >= 0 {
			pieceNodes[best] = append(pieceNodes[best], n)
		}
	}
	for i, nodes := range pieceNodes {
		id := RegionID(len(part.Regions))
		r := newRegion(id)
		r.Polygon = pieces[i]
		if len(nodes) == 0 {
			r.Pos, r.Clearance = pieceAnchor(&pieces[i], raw)
			part.Regions = append(part.Regions, r)
			continue
		}
		keep := nodes[0]
		for _, n := range nodes[1:] {
			if g.Nodes[n].Clearance > g.Nodes[keep].Clearance {
				keep = n
			}
		}
		r.Pos = g.Nodes[keep].Pos
		r.Clearance = g.Nodes[keep].Clearance
		for _, n := range nodes {
			part.NodeRegion[n] = id
			if n != keep {
				remap[n] = keep
			}
		}
		part.Regions = append(part.Regions, r)
	}

	if err := assignTiles(part, flags, cfg); err != nil {
		return nil, err
	}
	regionHeights(part, flags, cfg)
	return part, nil
}

// closestPiece returns the piece containing p, or the nearest one.
func closestPiece(pieces []PolygonWithHoles, p common.Vec2) int {
	best, bestDist := -1, math.Inf(1)
	for i := range pieces {
		d := pieces[i].Distance(p)
		if d < bestDist {
			best, bestDist = i, d
		}
		if d == 0 {
			break
		}
	}
	return best
}

// pieceAnchor picks the position of a region without a region node: the
// highest-clearance raw skeleton node inside the piece, else the centroid of
// its outer ring with the distance to the piece boundary as clearance.
func pieceAnchor(piece *PolygonWithHoles, raw *SkeletonGraph) (common.Vec2, float64) {
	best := -1
	if raw != nil {
		for _, n := range raw.Live() {
			if raw.Nodes[n].Type == NodeChokepoint || !piece.Contains(raw.Nodes[n].Pos) {
				continue
			}
			if best < 0 || raw.Nodes[n].Clearance > raw.Nodes[best].Clearance {
				best = n
			}
		}
	}
	if best >= 0 {
		return raw.Nodes[best].Pos, raw.Nodes[best].Clearance
	}
	c := piece.Outer.Centroid()
	d := math.Inf(1)
	for _, ring := range piece.Rings() {
		d = math.Min(d, common.DistToPoly(ring, c))
	}
	if !piece.Contains(c) {
		d = 0
	}
	return c, d
}

type regionBounds struct {
	lo, hi common.Vec2
}

func assignTiles(part *Partition, flags *FlagGrid, cfg *Config) error {
	w, h := flags.Width, flags.Height
	part.TileRegions = make([]int32, w*h)
	part.TileKinds = make([]TileMembership, w*h)
	bounds := make([]regionBounds, len(part.Regions))
	for i := range part.Regions {
		lo, hi := part.Regions[i].Polygon.Outer.Bounds()
		bounds[i] = regionBounds{lo, hi}
	}

	var pending []int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := common.GridIndex(x, y, w)
			part.TileRegions[i] = -1
			if !flags.Walkable(x, y) {
				continue
			}
			c := common.Vec2{float64(x) + 0.5, float64(y) + 0.5}
			for ri := range part.Regions {
				b := bounds[ri]
				if c[0] < b.lo[0] || c[0] > b.hi[0] || c[1] < b.lo[1] || c[1] > b.hi[1] {
					continue
				}
				if part.Regions[ri].Polygon.Contains(c) {
					part.TileRegions[i] = int32(ri)
					part.TileKinds[i] = MemberDirect
					break
				}
			}
			if part.TileRegions[i] < 0 {
				pending = append(pending, i)
			}
		}
	}
	if len(pending) == 0 {
		return nil
	}

	// Unmembered tiles take the region with the closest polygon edge.
	var segs []Segment
	for ri := range part.Regions {
		for _, ring := range part.Regions[ri].Polygon.Rings() {
			n := len(ring)
			for j, k := n-1, 0; k < n; j, k = k, k+1 {
				segs = append(segs, Segment{A: ring[j], B: ring[k], Chain: ri, Index: k})
			}
		}
	}
	index := NewSegmentIndex(segs, cfg.SegmentCellSize)
	for _, i := range pending {
		x, y := i%w, i/w
		c := common.Vec2{float64(x) + 0.5, float64(y) + 0.5}
		hit, ok := index.Nearest(c)
		if !ok {
			return analysisError("partition", ErrNoClosestRegion, "tile (%d,%d) of %d regions", x, y, len(part.Regions))
		}
		part.TileRegions[i] = int32(segs[hit.Segment].Chain)
		part.TileKinds[i] = MemberFallback
		part.Fallbacks++
	}
	return nil
}

// regionHeights averages buildable, non-ramp tile heights per region and
// buckets the distinct means into ascending levels.
func regionHeights(part *Partition, flags *FlagGrid, cfg *Config) {
	samples := make([][]float64, len(part.Regions))
	all := make([][]float64, len(part.Regions))
	for i, r := range part.TileRegions {
		if r < 0 {
			continue
		}
		part.Regions[r].TileCount++
		all[r] = append(all[r], flags.Heights[i])
		f := flags.Flags[i]
		if f&FlagBuildable != 0 && f&FlagRamp == 0 {
			samples[r] = append(samples[r], flags.Heights[i])
		}
	}
	means := make([]float64, 0, len(part.Regions))
	for ri := range part.Regions {
		xs := samples[ri]
		if len(xs) == 0 {
			xs = all[ri]
		}
		if len(xs) > 0 {
			part.Regions[ri].Height = stat.Mean(xs, nil)
		}
		means = append(means, part.Regions[ri].Height)
	}
	levels := heightLevels(means, cfg.HeightLevelTolerance)
	for ri := range part.Regions {
		part.Regions[ri].Level = levelOf(levels, part.Regions[ri].Height)
	}
}

// heightLevels returns the first value of each bucket of sorted values that
// lie within tol of the bucket start.
func heightLevels(values []float64, tol float64) []float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	var levels []float64
	for _, v := range sorted {
		if len(levels) == 0 || v-levels[len(levels)-1] > tol {
			levels = append(levels, v)
		}
	}
	return levels
}

func levelOf(levels []float64, v float64) int {
	for i := len(levels) - 1; i >= 0; i-- {
		if v >= levels[i] {
			return i
		}
	}
	return 0
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
