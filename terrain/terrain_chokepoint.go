package terrain

import (
	"math"

	"github.com/noorus/hivemind-sub000/common"
)

// Sides are the two obstacle boundary points a chokepoint spans.
type Sides [2]common.Vec2

// Width returns the distance between the two sides.
func (s Sides) Width() float64 {
	return common.Vdist2(s[0], s[1])
}

const sideEpsilon = 1e-6

// RefineChokepoints slides every chokepoint node of g to the narrowest point
// of its incident skeleton edges, so that it sits at the true pinch rather
// than at the diagram vertex closest to it. It returns the number of nodes
// moved.
func RefineChokepoints(g *SkeletonGraph, index *SegmentIndex, cfg *Config) int {
	step := cfg.VoronoiSampleSpacing / 8
	if step <= 0 {
		step = 1.0 / 16
	}
	moved := 0
	for _, n := range g.Live() {
		node := &g.Nodes[n]
		if node.Type != NodeChokepoint {
			continue
		}
		bestPos, best := node.Pos, node.Clearance
		for _, m := range g.Neighbors(n) {
			to := g.Nodes[m].Pos
			steps := min(256, int(math.Ceil(common.Vdist2(node.Pos, to)/step)))
			for k := 1; k < steps; k++ {
				p := common.Vlerp2(node.Pos, to, float64(k)/float64(steps))
				if hit, ok := index.Nearest(p); ok && hit.Dist < best-1e-9 {
					bestPos, best = p, hit.Dist
				}
			}
		}
		if best < node.Clearance {
			node.Pos, node.Clearance = bestPos, best
			moved++
		}
	}
	return moved
}

// ProjectSides computes the boundary points of every chokepoint of g, keyed
// by node id. Side one is the projection onto the nearest obstacle segment,
// side two the first further projection lying across the node from it on
// both axes, or the next distinct projection when none does.
func ProjectSides(g *SkeletonGraph, index *SegmentIndex, cfg *Config) map[int]Sides {
	res := make(map[int]Sides)
	for _, n := range g.Live() {
		if g.Nodes[n].Type != NodeChokepoint {
			continue
		}
		if sides, ok := projectSides(g.Nodes[n].Pos, index, cfg.SideQueryCount); ok {
			res[n] = sides
		}
	}
	return res
}

func projectSides(p common.Vec2, index *SegmentIndex, k int) (Sides, bool) {
	hits := index.KNearest(p, max(k, 2))
	if len(hits) < 2 {
		return Sides{}, false
	}
	s1 := hits[0].Point
	fallback := -1
	for i := 1; i < len(hits); i++ {
		q := hits[i].Point
		if common.VdistSqr2(q, s1) <= sideEpsilon {
			continue
		}
		if fallback < 0 {
			fallback = i
		}
		sx := (q[0] - p[0]) * (s1[0] - p[0])
		sy := (q[1] - p[1]) * (s1[1] - p[1])
		if sx <= sideEpsilon && sy <= sideEpsilon {
			return Sides{s1, q}, true
		}
	}
	if fallback < 0 {
		return Sides{}, false
	}
	return Sides{s1, hits[fallback].Point}, true
}
