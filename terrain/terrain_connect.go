package terrain

import (
	"math"

	"github.com/noorus/hivemind-sub000/common"
)

// ConnectChokepoints turns every chokepoint node of the simplified graph into
// a Chokepoint between the two regions on either side of its cut, or when
// the cut does not separate two regions, between the two regions its
// neighbours resolve to. It registers the chokepoint with both. Chokepoints
// reaching fewer than two distinct regions are dropped. Region reachability
// is closed transitively.
func ConnectChokepoints(g *SkeletonGraph, remap map[int]int, sides map[int]Sides, part *Partition, width int, cfg *Config) []Chokepoint {
	regionOf := func(n int) RegionID {
		if id, ok := part.NodeRegion[resolveRemap(remap, n)]; ok {
			return id
		}
		p := g.Nodes[n].Pos
		x, y := int(math.Floor(p[0])), int(math.Floor(p[1]))
		height := len(part.TileRegions) / max(width, 1)
		if common.InGrid(x, y, width, height) {
			if r := part.TileRegions[common.GridIndex(x, y, width)]; r >= 0 {
				return RegionID(r)
			}
		}
		return NoRegion
	}

	var chokes []Chokepoint
	for _, n := range sortedKeys(sides) {
		if n >= g.Len() || g.Nodes[n].Removed || g.Nodes[n].Type != NodeChokepoint {
			continue
		}
		found := regionsAcross(part, sides[n], cfg)
		for _, m := range g.Neighbors(n) {
			if len(found) == 2 {
				break
			}
			r := regionOf(m)
			if r == NoRegion {
				continue
			}
			if len(found) == 0 || found[0] != r {
				found = append(found, r)
			}
		}
		if len(found) < 2 {
			continue
		}
		id := ChokepointID(len(chokes))
		chokes = append(chokes, Chokepoint{
			ID:        id,
			Node:      n,
			Pos:       g.Nodes[n].Pos,
			Clearance: g.Nodes[n].Clearance,
			Sides:     sides[n],
			Regions:   [2]RegionID{found[0], found[1]},
		})
		a, b := &part.Regions[found[0]], &part.Regions[found[1]]
		a.Chokepoints.Put(id)
		b.Chokepoints.Put(id)
		a.Reachable.Put(b.ID)
		b.Reachable.Put(a.ID)
	}
	closeReachability(part.Regions)
	return chokes
}

// regionsAcross looks for the regions holding the ground just past both long
// edges of the cutter of s. It returns both when they differ, else the one
// found first, if any.
func regionsAcross(part *Partition, s Sides, cfg *Config) []RegionID {
	d := s[1].Sub(s[0])
	l := d.Len()
	if l < sideEpsilon {
		return nil
	}
	normal := common.Vec2{-d[1] / l, d[0] / l}
	var found [2]RegionID
	for side, sign := range [2]float64{1, -1} {
		found[side] = NoRegion
	search:
		for _, off := range [...]float64{0.1, 0.35, 0.75} {
			for _, t := range [...]float64{0.5, 0.3, 0.7} {
				p := common.Vlerp2(s[0], s[1], t).Add(normal.Mul(sign * (cfg.CutterHalfWidth + off)))
				for ri := range part.Regions {
					if part.Regions[ri].Polygon.Contains(p) {
						found[side] = RegionID(ri)
						break search
					}
				}
			}
		}
	}
	switch {
	case found[0] != NoRegion && found[1] != NoRegion && found[0] != found[1]:
		return found[:]
	case found[0] != NoRegion:
		return found[:1]
	case found[1] != NoRegion:
		return found[1:]
	}
	return nil
}

// closeReachability makes every region reach every other region of its
// connected group.
func closeReachability(regions []Region) {
	group := make([]int, len(regions))
	for i := range group {
		group[i] = -1
	}
	var members [][]RegionID
	for start := range regions {
		if group[start] >= 0 {
			continue
		}
		gi := len(members)
		members = append(members, nil)
		queue := []RegionID{RegionID(start)}
		group[start] = gi
		for len(queue) > 0 {
			r := queue[0]
			queue = queue[1:]
			members[gi] = append(members[gi], r)
			for _, o := range regions[r].ReachableIDs() {
				if group[o] < 0 {
					group[o] = gi
					queue = append(queue, o)
				}
			}
		}
	}
	for _, m := range members {
		for _, a := range m {
			for _, b := range m {
				if a != b {
					regions[a].Reachable.Put(b)
				}
			}
		}
	}
}
