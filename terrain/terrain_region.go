package terrain

import (
	"slices"

	"github.com/zyedidia/generic/mapset"

	"github.com/noorus/hivemind-sub000/common"
)

// RegionID and ChokepointID index Map.Regions and Map.Chokepoints.
type (
	RegionID     int
	ChokepointID int
)

const NoRegion RegionID = -1

// Region is a maximal open-space area bounded by obstacles and chokepoint cuts.
type Region struct {
	ID        RegionID
	Label     int32
	Polygon   PolygonWithHoles
	Pos       common.Vec2
	Clearance float64
	Height    float64
	TileCount int
	Level     int

	Chokepoints mapset.Set[ChokepointID]
	Reachable   mapset.Set[RegionID]
}

func newRegion(id RegionID) Region {
	return Region{
		ID:          id,
		Chokepoints: mapset.New[ChokepointID](),
		Reachable:   mapset.New[RegionID](),
	}
}

// ChokepointIDs returns the bordering chokepoints in ascending order.
func (r *Region) ChokepointIDs() []ChokepointID {
	return sortedSet(r.Chokepoints)
}

// ReachableIDs returns the reachable regions in ascending order.
func (r *Region) ReachableIDs() []RegionID {
	return sortedSet(r.Reachable)
}

// Chokepoint is a narrow passage between exactly two regions.
type Chokepoint struct {
	ID        ChokepointID
	Node      int
	Pos       common.Vec2
	Clearance float64
	Sides     Sides
	Regions   [2]RegionID
}

// Other returns the region on the far side of the chokepoint from r.
func (c *Chokepoint) Other(r RegionID) RegionID {
	if c.Regions[0] == r {
		return c.Regions[1]
	}
	return c.Regions[0]
}

func sortedSet[K ~int](s mapset.Set[K]) []K {
	res := make([]K, 0, s.Size())
	s.Each(func(k K) {
		res = append(res, k)
	})
	slices.Sort(res)
	return res
}
