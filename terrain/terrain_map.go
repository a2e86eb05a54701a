package terrain

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/noorus/hivemind-sub000/common"
)

// Map owns the result of the decomposition for the lifetime of a match.
// Everything except Reserved is immutable once built; other subsystems refer
// to regions and chokepoints by id.
type Map struct {
	Width, Height int
	Flags         *FlagGrid
	// Labels is nil when the map came from the cache.
	Labels      *ContourSet
	Regions     []Region
	Chokepoints []Chokepoint
	// ChokepointSides holds the sides of every classified chokepoint node,
	// including ones the connector dropped, keyed by skeleton node id.
	ChokepointSides map[int]Sides
	TileRegions     []int32
	// TileKinds is nil when the map came from the cache.
	TileKinds []TileMembership
	// Reserved counts reservations per tile. Only this overlay changes
	// after construction and it is not safe for concurrent use.
	Reserved []uint16

	closest *kdtree.Tree
}

func newMap(flags *FlagGrid, regions []Region, chokes []Chokepoint, sides map[int]Sides, tileRegions []int32) *Map {
	m := &Map{
		Width:           flags.Width,
		Height:          flags.Height,
		Flags:           flags,
		Regions:         regions,
		Chokepoints:     chokes,
		ChokepointSides: sides,
		TileRegions:     tileRegions,
		Reserved:        make([]uint16, flags.Width*flags.Height),
	}
	var pts kdtree.Points
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if flags.Walkable(x, y) {
				pts = append(pts, kdtree.Point{float64(x) + 0.5, float64(y) + 0.5})
			}
		}
	}
	if len(pts) > 0 {
		m.closest = kdtree.New(pts, false)
	}
	return m
}

// Region returns the region with the given id, nil if there is none.
func (m *Map) Region(id RegionID) *Region {
	if id < 0 || int(id) >= len(m.Regions) {
		return nil
	}
	return &m.Regions[id]
}

func (m *Map) Chokepoint(id ChokepointID) *Chokepoint {
	if id < 0 || int(id) >= len(m.Chokepoints) {
		return nil
	}
	return &m.Chokepoints[id]
}

// RegionAt returns the region owning tile (x, y), NoRegion for unwalkable or
// off-map tiles.
func (m *Map) RegionAt(x, y int) RegionID {
	if !common.InGrid(x, y, m.Width, m.Height) {
		return NoRegion
	}
	r := m.TileRegions[common.GridIndex(x, y, m.Width)]
	if r < 0 {
		return NoRegion
	}
	return RegionID(r)
}

func (m *Map) RegionAtPos(p common.Vec2) RegionID {
	return m.RegionAt(int(math.Floor(p[0])), int(math.Floor(p[1])))
}

// ClosestWalkableTile returns the walkable tile whose centre is nearest to p.
func (m *Map) ClosestWalkableTile(p common.Vec2) (image.Point, bool) {
	if m.closest == nil {
		return image.Point{}, false
	}
	c, _ := m.closest.Nearest(kdtree.Point{p[0], p[1]})
	q := c.(kdtree.Point)
	return image.Pt(int(math.Floor(q[0])), int(math.Floor(q[1]))), true
}

// IsWalkable reports whether (x, y) is walkable terrain and not reserved.
func (m *Map) IsWalkable(x, y int) bool {
	if !m.Flags.Walkable(x, y) {
		return false
	}
	return m.Reserved[common.GridIndex(x, y, m.Width)] == 0
}

// Reserve marks every tile of r as occupied. Reservations nest.
func (m *Map) Reserve(r Rect) {
	m.eachTile(r, func(i int) {
		if m.Reserved[i] < math.MaxUint16 {
			m.Reserved[i]++
		}
	})
}

// Release undoes one Reserve of r.
func (m *Map) Release(r Rect) {
	m.eachTile(r, func(i int) {
		if m.Reserved[i] > 0 {
			m.Reserved[i]--
		}
	})
}

func (m *Map) eachTile(r Rect, fn func(i int)) {
	for y := max(r.MinY, 0); y < min(r.MaxY, m.Height); y++ {
		for x := max(r.MinX, 0); x < min(r.MaxX, m.Width); x++ {
			fn(common.GridIndex(x, y, m.Width))
		}
	}
}

// DistanceMap floods from origin over walkable tiles, skipping reserved ones
// when respectReserved is set.
func (m *Map) DistanceMap(origin image.Point, respectReserved bool) *DistanceMap {
	passable := m.Flags.Walkable
	if respectReserved {
		passable = m.IsWalkable
	}
	return NewDistanceMap(m.Width, m.Height, origin, passable)
}

// RegionPath returns the cheapest chain of regions from one region to another.
func (m *Map) RegionPath(from, to RegionID) ([]RegionID, float64, bool) {
	return FindPath[RegionID](&RegionGraph{Regions: m.Regions, Chokepoints: m.Chokepoints}, from, to)
}

// TilePath returns a tile path avoiding reserved tiles.
func (m *Map) TilePath(from, to image.Point) ([]image.Point, float64, bool) {
	return FindPath[image.Point](&TileGraph{Width: m.Width, Height: m.Height, Passable: m.IsWalkable}, from, to)
}

// MapSummary is a short description of a Map for logs and dumps.
type MapSummary struct {
	Width, Height int
	Walkable      int
	Regions       int
	Chokepoints   int
	Levels        int
	MaxHeight     float64
}

func (s MapSummary) String() string {
	return fmt.Sprintf("%dx%d walkable=%d regions=%d chokepoints=%d levels=%d maxHeight=%.2f",
		s.Width, s.Height, s.Walkable, s.Regions, s.Chokepoints, s.Levels, s.MaxHeight)
}

func (m *Map) Summary() MapSummary {
	s := MapSummary{
		Width:       m.Width,
		Height:      m.Height,
		Regions:     len(m.Regions),
		Chokepoints: len(m.Chokepoints),
		MaxHeight:   m.Flags.MaxHeight,
	}
	for _, f := range m.Flags.Flags {
		if f&FlagWalkable != 0 {
			s.Walkable++
		}
	}
	for i := range m.Regions {
		s.Levels = max(s.Levels, m.Regions[i].Level+1)
	}
	return s
}
