package terrain

import (
	"image"
	"math"
	"slices"

	"github.com/noorus/hivemind-sub000/common"
)

// FixedPointScale is the number of fixed-point units per tile.
const FixedPointScale = 65536

type FixedPoint struct {
	X, Y int64
}

func ToFixed(v common.Vec2) FixedPoint {
	return FixedPoint{int64(math.Round(v[0] * FixedPointScale)), int64(math.Round(v[1] * FixedPointScale))}
}

func (p FixedPoint) Float() common.Vec2 {
	return common.Vec2{float64(p.X) / FixedPointScale, float64(p.Y) / FixedPointScale}
}

// FixedPolygon is a closed ring in fixed-point coordinates.
type FixedPolygon []FixedPoint

func (fp FixedPolygon) Float() Polygon {
	res := make(Polygon, len(fp))
	for i, p := range fp {
		res[i] = p.Float()
	}
	return res
}

// area2 returns twice the signed area, same sign convention as Polygon.Area.
func (fp FixedPolygon) area2() int64 {
	var a int64
	n := len(fp)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a += fp[j].X*fp[i].Y - fp[i].X*fp[j].Y
	}
	return a
}

// Polygon is a closed ring. Outer rings have positive area, holes negative.
type Polygon []common.Vec2

func (p Polygon) Fixed() FixedPolygon {
	res := make(FixedPolygon, len(p))
	for i, v := range p {
		res[i] = ToFixed(v)
	}
	return res
}

func (p Polygon) Area() float64 {
	return common.PolygonArea2(p)
}

func (p Polygon) Contains(v common.Vec2) bool {
	return common.PointInPoly(p, v)
}

// Centroid returns the area centroid of the ring, or its vertex mean when
// the ring has no area.
func (p Polygon) Centroid() common.Vec2 {
	var cx, cy, a float64
	n := len(p)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		f := p[j][0]*p[i][1] - p[i][0]*p[j][1]
		cx += (p[j][0] + p[i][0]) * f
		cy += (p[j][1] + p[i][1]) * f
		a += f
	}
	if math.Abs(a) < 1e-12 {
		var sum common.Vec2
		for _, v := range p {
			sum = sum.Add(v)
		}
		return sum.Mul(1 / float64(max(n, 1)))
	}
	return common.Vec2{cx / (3 * a), cy / (3 * a)}
}

// Distance returns 0 inside the ring and the distance to it otherwise.
func (p Polygon) Distance(v common.Vec2) float64 {
	if p.Contains(v) {
		return 0
	}
	return common.DistToPoly(p, v)
}

func (p Polygon) Bounds() (lo, hi common.Vec2) {
	lo = common.Vec2{math.Inf(1), math.Inf(1)}
	hi = common.Vec2{math.Inf(-1), math.Inf(-1)}
	for _, v := range p {
		lo = common.Vec2{math.Min(lo[0], v[0]), math.Min(lo[1], v[1])}
		hi = common.Vec2{math.Max(hi[0], v[0]), math.Max(hi[1], v[1])}
	}
	return lo, hi
}

// PolygonWithHoles is an outer ring with zero or more hole rings.
type PolygonWithHoles struct {
	Label int32
	Outer Polygon
	Holes []Polygon
}

func (p *PolygonWithHoles) Contains(v common.Vec2) bool {
	if !p.Outer.Contains(v) {
		return false
	}
	for _, h := range p.Holes {
		if h.Contains(v) {
			return false
		}
	}
	return true
}

// Distance returns 0 inside and the distance to the closest ring otherwise.
func (p *PolygonWithHoles) Distance(v common.Vec2) float64 {
	if p.Contains(v) {
		return 0
	}
	d := common.DistToPoly(p.Outer, v)
	for _, h := range p.Holes {
		d = math.Min(d, common.DistToPoly(h, v))
	}
	return d
}

// Rings returns the outer ring followed by the holes.
func (p *PolygonWithHoles) Rings() []Polygon {
	return append([]Polygon{p.Outer}, p.Holes...)
}

// Crack walk headings: east, south, west, north (y down).
var crackDirs = [4][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

const (
	headEast = iota
	headSouth
	headWest
	headNorth
)

// walkCrack follows tile edges keeping inside cells on the right, starting
// from vertex (sx, sy) reached with heading sd. Only corner vertices are
// returned. Diagonal neighbours count as connected.
func walkCrack(inside func(x, y int) bool, sx, sy, sd, maxSteps int) []image.Point {
	var corners []image.Point
	cx, cy, d := sx, sy, sd
	steps := 0
	common.DoWhile(func() bool {
		// cells around the vertex: nw, ne, sw, se
		nw, ne := inside(cx-1, cy-1), inside(cx, cy-1)
		sw, se := inside(cx-1, cy), inside(cx, cy)
		var left, right bool
		switch d {
		case headEast:
			left, right = ne, se
		case headSouth:
			left, right = se, sw
		case headWest:
			left, right = sw, nw
		default:
			left, right = nw, ne
		}
		nd := d
		if left {
			nd = (d + 3) % 4
		} else if !right {
			nd = (d + 1) % 4
		}
		if nd != d {
			corners = append(corners, image.Point{X: cx, Y: cy})
		}
		cx += crackDirs[nd][0]
		cy += crackDirs[nd][1]
		d = nd
		steps++
		return steps > maxSteps
	}, func() bool {
		return cx != sx || cy != sy || d != sd
	})
	return corners
}

// ringsFromCorners runs the cleaning pipeline on a traced corner ring. A
// ring that touches itself is split there, and every loop keeping the
// orientation of the whole ring comes back as a ring of its own.
func ringsFromCorners(corners []image.Point, cfg *Config) []Polygon {
	if len(corners) < 3 {
		return nil
	}
	fixed := make(FixedPolygon, len(corners))
	for i, c := range corners {
		fixed[i] = FixedPoint{int64(c.X) * FixedPointScale, int64(c.Y) * FixedPointScale}
	}
	sign := fixed.area2()
	fixed = cleanRing(fixed, int64(cfg.CleanDistance*FixedPointScale))
	var res []Polygon
	for _, loop := range splitRing(fixed, sign) {
		if cfg.SimplifyMaxError > 0 {
			loop = simplifyRing(loop, cfg.SimplifyMaxError*FixedPointScale)
		}
		if cfg.SimplifyMinAngle > 0 {
			loop = removeShallowAngles(loop, cfg.SimplifyMinAngle)
		}
		if len(loop) >= 3 {
			res = append(res, loop.Float())
		}
	}
	return res
}

// cleanRing drops vertices within dist of their predecessor and exactly
// collinear vertices.
func cleanRing(ring FixedPolygon, dist int64) FixedPolygon {
	res := make(FixedPolygon, 0, len(ring))
	for _, p := range ring {
		if len(res) > 0 {
			q := res[len(res)-1]
			if common.Abs(p.X-q.X) <= dist && common.Abs(p.Y-q.Y) <= dist {
				continue
			}
		}
		res = append(res, p)
	}
	for len(res) > 1 {
		p, q := res[0], res[len(res)-1]
		if common.Abs(p.X-q.X) > dist || common.Abs(p.Y-q.Y) > dist {
			break
		}
		res = res[:len(res)-1]
	}
	return removeCollinear(res)
}

func fixedCross(a, b, c FixedPoint) int64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func removeCollinear(ring FixedPolygon) FixedPolygon {
	for changed := true; changed && len(ring) >= 3; {
		changed = false
		n := len(ring)
		for i := 0; i < n; i++ {
			a, b, c := ring[common.Prev(i, n)], ring[i], ring[common.Next(i, n)]
			if fixedCross(a, b, c) == 0 {
				ring = append(ring[:i], ring[i+1:]...)
				changed = true
				break
			}
		}
	}
	return ring
}

// splitRing splits a ring at repeated vertices and returns the loops whose
// area has the sign of sign, largest first.
func splitRing(ring FixedPolygon, sign int64) []FixedPolygon {
	var pieces []FixedPolygon
	stack := make(FixedPolygon, 0, len(ring))
	pos := make(map[FixedPoint]int, len(ring))
	for _, p := range ring {
		if i, ok := pos[p]; ok {
			loop := make(FixedPolygon, len(stack)-i)
			copy(loop, stack[i:])
			pieces = append(pieces, loop)
			for _, q := range stack[i+1:] {
				delete(pos, q)
			}
			stack = stack[:i+1]
			continue
		}
		pos[p] = len(stack)
		stack = append(stack, p)
	}
	pieces = append(pieces, stack)

	var res []FixedPolygon
	var areas []int64
	for _, piece := range pieces {
		piece = removeCollinear(piece)
		if len(piece) < 3 {
			continue
		}
		a := piece.area2()
		if sign < 0 {
			a = -a
		}
		if a <= 0 {
			continue
		}
		k := len(res)
		for k > 0 && areas[k-1] < a {
			k--
		}
		res = slices.Insert(res, k, piece)
		areas = slices.Insert(areas, k, a)
	}
	return res
}

// simplifyRing decimates a closed ring so that every dropped vertex lies
// within maxError of the simplified outline.
func simplifyRing(points FixedPolygon, maxError float64) FixedPolygon {
	pn := len(points)
	if pn <= 4 {
		return points
	}
	less := func(a, b FixedPoint) bool {
		return a.X < b.X || (a.X == b.X && a.Y < b.Y)
	}
	// Start from the lower-left and upper-right vertices.
	lli, uri := 0, 0
	for i, p := range points {
		if less(p, points[lli]) {
			lli = i
		}
		if less(points[uri], p) {
			uri = i
		}
	}
	simplified := []int{lli, uri}
	if uri < lli {
		simplified = []int{uri, lli}
	}

	maxErrSqr := maxError * maxError
	for i := 0; i < len(simplified); {
		ii := (i + 1) % len(simplified)
		ai, bi := simplified[i], simplified[ii]
		a, b := points[ai], points[bi]

		// Traverse the segment in lexilogical order so that the
		// max deviation is calculated similarly when traversing
		// opposite segments.
		var ci, cinc, endi int
		if less(a, b) {
			cinc = 1
			ci = (ai + cinc) % pn
			endi = bi
		} else {
			cinc = pn - 1
			ci = (bi + cinc) % pn
			endi = ai
			a, b = b, a
		}
		maxd := 0.0
		maxi := -1
		af := common.Vec2{float64(a.X), float64(a.Y)}
		bf := common.Vec2{float64(b.X), float64(b.Y)}
		for ci != endi {
			c := common.Vec2{float64(points[ci].X), float64(points[ci].Y)}
			if d := common.DistancePtSegSqr2(c, af, bf); d > maxd {
				maxd = d
				maxi = ci
			}
			ci = (ci + cinc) % pn
		}

		if maxi != -1 && maxd > maxErrSqr {
			simplified = append(simplified, 0)
			copy(simplified[i+2:], simplified[i+1:])
			simplified[i+1] = maxi
		} else {
			i++
		}
	}
	if len(simplified) < 3 {
		return points
	}
	res := make(FixedPolygon, len(simplified))
	for i, idx := range simplified {
		res[i] = points[idx]
	}
	return removeCollinear(res)
}

// removeShallowAngles drops vertices whose direction change is below
// minAngle degrees.
func removeShallowAngles(ring FixedPolygon, minAngle float64) FixedPolygon {
	limit := minAngle * math.Pi / 180
	for changed := true; changed && len(ring) > 3; {
		changed = false
		n := len(ring)
		for i := 0; i < n; i++ {
			a, b, c := ring[common.Prev(i, n)], ring[i], ring[common.Next(i, n)]
			ux, uy := float64(b.X-a.X), float64(b.Y-a.Y)
			vx, vy := float64(c.X-b.X), float64(c.Y-b.Y)
			turn := math.Abs(math.Atan2(ux*vy-uy*vx, ux*vx+uy*vy))
			if turn < limit {
				ring = append(ring[:i], ring[i+1:]...)
				changed = true
				break
			}
		}
	}
	return ring
}

// BuildPolygons turns each external contour of set into polygons, attaching
// the hole contours of the same component. A component whose outline touches
// itself diagonally yields one polygon per loop; its holes go to the loop
// enclosing them.
func BuildPolygons(set *ContourSet, cfg *Config) []PolygonWithHoles {
	maxSteps := 4 * (set.Width + 1) * (set.Height + 1)
	var polys []PolygonWithHoles
	byLabel := make(map[int32][]int)
	for _, c := range set.Contours {
		if c.Internal || len(c.Points) == 0 {
			continue
		}
		label := c.Label
		inside := func(x, y int) bool { return set.Label(x, y) == label }
		p := c.Points[0]
		for _, outer := range ringsFromCorners(walkCrack(inside, p.X, p.Y, headNorth, maxSteps), cfg) {
			byLabel[label] = append(byLabel[label], len(polys))
			polys = append(polys, PolygonWithHoles{Label: label, Outer: outer})
		}
	}
	for _, c := range set.Contours {
		if !c.Internal || len(c.Points) == 0 {
			continue
		}
		owners, ok := byLabel[c.Label]
		if !ok {
			continue
		}
		label := c.Label
		inside := func(x, y int) bool { return set.Label(x, y) == label }
		p := c.Points[0]
		for _, hole := range ringsFromCorners(walkCrack(inside, p.X, p.Y+1, headWest, maxSteps), cfg) {
			owner := owners[0]
			if len(owners) > 1 {
				best := math.Inf(1)
				for _, o := range owners {
					if d := polys[o].Outer.Distance(hole[0]); d < best {
						owner, best = o, d
					}
				}
			}
			polys[owner].Holes = append(polys[owner].Holes, hole)
		}
	}
	return polys
}
