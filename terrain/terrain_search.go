package terrain

import (
	"image"
	"math"

	"github.com/noorus/hivemind-sub000/common"
)

// SearchGraph is what FindPath needs from a graph.
type SearchGraph[N comparable] interface {
	Neighbors(n N) []N
	Cost(a, b N) float64
	Heuristic(a, goal N) float64
	IsValid(n N) bool
}

type searchNode[N comparable] struct {
	node   N
	parent *searchNode[N]
	cost   float64
	total  float64
	index  int
}

func (n *searchNode[N]) SetIndex(index int) { n.index = index }
func (n *searchNode[N]) GetIndex() int      { return n.index }

// FindPath runs A* from start to goal. It returns the node sequence including
// both ends and its cost, or false when goal cannot be reached.
func FindPath[N comparable](g SearchGraph[N], start, goal N) ([]N, float64, bool) {
	if !g.IsValid(start) || !g.IsValid(goal) {
		return nil, 0, false
	}
	nodes := make(map[N]*searchNode[N])
	open := NewNodeQueue(func(a, b *searchNode[N]) bool {
		if a.total == b.total {
			return a.cost > b.cost
		}
		return a.total < b.total
	})
	first := &searchNode[N]{node: start, total: g.Heuristic(start, goal), index: -1}
	nodes[start] = first
	open.Offer(first)

	for !open.Empty() {
		best := open.Poll()
		if best.node == goal {
			var path []N
			for n := best; n != nil; n = n.parent {
				path = append(path, n.node)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path, best.cost, true
		}

		for _, nb := range g.Neighbors(best.node) {
			if !g.IsValid(nb) {
				continue
			}
			cost := best.cost + g.Cost(best.node, nb)
			n, ok := nodes[nb]
			if !ok {
				n = &searchNode[N]{node: nb, index: -1}
				nodes[nb] = n
			} else if cost >= n.cost {
				continue
			}
			n.parent = best
			n.cost = cost
			n.total = cost + g.Heuristic(nb, goal)
			if n.index >= 0 {
				open.Update(n)
			} else {
				open.Offer(n)
			}
		}
	}
	return nil, 0, false
}

// RegionGraph searches regions through their chokepoints. Crossing from one
// region to another costs the distance from the first region's position to
// the cheapest shared chokepoint and on to the second region's position.
type RegionGraph struct {
	Regions     []Region
	Chokepoints []Chokepoint
}

func (rg *RegionGraph) Neighbors(r RegionID) []RegionID {
	var res []RegionID
	for _, c := range rg.Regions[r].ChokepointIDs() {
		o := rg.Chokepoints[c].Other(r)
		if o != r {
			res = append(res, o)
		}
	}
	return res
}

func (rg *RegionGraph) Cost(a, b RegionID) float64 {
	best := math.Inf(1)
	pa, pb := rg.Regions[a].Pos, rg.Regions[b].Pos
	for _, c := range rg.Regions[a].ChokepointIDs() {
		cp := &rg.Chokepoints[c]
		if cp.Other(a) != b {
			continue
		}
		best = math.Min(best, common.Vdist2(pa, cp.Pos)+common.Vdist2(cp.Pos, pb))
	}
	return best
}

func (rg *RegionGraph) Heuristic(a, goal RegionID) float64 {
	return common.Vdist2(rg.Regions[a].Pos, rg.Regions[goal].Pos)
}

func (rg *RegionGraph) IsValid(r RegionID) bool {
	return r >= 0 && int(r) < len(rg.Regions)
}

// TileGraph searches 8-connected tiles without cutting corners.
type TileGraph struct {
	Width, Height int
	Passable      func(x, y int) bool
}

func (tg *TileGraph) Neighbors(p image.Point) []image.Point {
	res := make([]image.Point, 0, 8)
	for _, d := range neighbours8 {
		q := image.Pt(p.X+d[0], p.Y+d[1])
		if !tg.IsValid(q) {
			continue
		}
		if d[0] != 0 && d[1] != 0 && (!tg.IsValid(image.Pt(q.X, p.Y)) || !tg.IsValid(image.Pt(p.X, q.Y))) {
			continue
		}
		res = append(res, q)
	}
	return res
}

func (tg *TileGraph) Cost(a, b image.Point) float64 {
	if a.X != b.X && a.Y != b.Y {
		return math.Sqrt2
	}
	return 1
}

// Heuristic is the octile distance.
func (tg *TileGraph) Heuristic(a, goal image.Point) float64 {
	dx := math.Abs(float64(a.X - goal.X))
	dy := math.Abs(float64(a.Y - goal.Y))
	return math.Max(dx, dy) + (math.Sqrt2-1)*math.Min(dx, dy)
}

func (tg *TileGraph) IsValid(p image.Point) bool {
	return common.InGrid(p.X, p.Y, tg.Width, tg.Height) && tg.Passable(p.X, p.Y)
}
