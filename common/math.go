package common

import (
	"cmp"
	"math"
)

// / Returns the absolute value.
// / @param[in]		a	The value.
// / @return The absolute value of the specified value.
func Abs[T IT](a T) T {
	if a < 0 {
		return -a
	}
	return a
}

// / Clamps the value to the specified range.
// / @param[in]		value			The value to clamp.
// / @param[in]		minInclusive	The minimum permitted return value.
// / @param[in]		maxInclusive	The maximum permitted return value.
// / @return The value, clamped to the specified range.
func Clamp[T cmp.Ordered](value, minInclusive, maxInclusive T) T {
	if value < minInclusive {
		return minInclusive
	}
	if value > maxInclusive {
		return maxInclusive
	}
	return value
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// VisFinite2 reports whether both components of v are finite.
func VisFinite2(v Vec2) bool {
	return IsFinite(v[0]) && IsFinite(v[1])
}

// VdistSqr2 returns the squared distance between p and q.
func VdistSqr2(p, q Vec2) float64 {
	dx := q[0] - p[0]
	dy := q[1] - p[1]
	return dx*dx + dy*dy
}

// Vdist2 returns the distance between p and q.
func Vdist2(p, q Vec2) float64 {
	return math.Sqrt(VdistSqr2(p, q))
}

// / Finds the closest point on segment pq to pt.
// / @return The closest point and its parametric position along the segment [0, 1].
func ClosestPtSeg2(pt, p, q Vec2) (Vec2, float64) {
	pqx := q[0] - p[0]
	pqy := q[1] - p[1]
	dx := pt[0] - p[0]
	dy := pt[1] - p[1]
	d := pqx*pqx + pqy*pqy
	t := pqx*dx + pqy*dy
	if d > 0 {
		t /= d
	}
	t = Clamp(t, 0, 1)
	return Vec2{p[0] + t*pqx, p[1] + t*pqy}, t
}

// / Derives the squared distance from pt to segment pq.
func DistancePtSegSqr2(pt, p, q Vec2) float64 {
	c, _ := ClosestPtSeg2(pt, p, q)
	return VdistSqr2(pt, c)
}

// PolygonArea2 returns the signed area of a closed ring. Rings listed
// clockwise in screen space (y down) come out positive.
func PolygonArea2(verts []Vec2) float64 {
	area := 0.0
	n := len(verts)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		area += verts[j][0]*verts[i][1] - verts[i][0]*verts[j][1]
	}
	return area * 0.5
}

// / Checks if a point is contained within a polygon ring (even-odd rule).
// /
// / @param[in]	verts		The polygon vertices
// / @param[in]	point		The point to check
// / @returns true if the point lies within the polygon, false otherwise.
func PointInPoly(verts []Vec2, point Vec2) bool {
	inPoly := false
	n := len(verts)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi := verts[i]
		vj := verts[j]
		if (vi[1] > point[1]) == (vj[1] > point[1]) {
			continue
		}
		if point[0] >= (vj[0]-vi[0])*(point[1]-vi[1])/(vj[1]-vi[1])+vi[0] {
			continue
		}
		inPoly = !inPoly
	}
	return inPoly
}

// DistToPoly returns the distance from p to the closest edge of the ring.
func DistToPoly(verts []Vec2, p Vec2) float64 {
	dmin := math.MaxFloat64
	n := len(verts)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		d := DistancePtSegSqr2(p, verts[j], verts[i])
		if d < dmin {
			dmin = d
		}
	}
	return math.Sqrt(dmin)
}

// / Performs a linear interpolation between two vectors. (@p v1 toward @p v2)
func Vlerp2(v1, v2 Vec2, t float64) Vec2 {
	return Vec2{v1[0] + (v2[0]-v1[0])*t, v1[1] + (v2[1]-v1[1])*t}
}
