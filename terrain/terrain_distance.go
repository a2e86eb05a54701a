package terrain

import (
	"image"

	"github.com/noorus/hivemind-sub000/common"
)

// DistanceMap holds the 8-connected step distance from Origin to every tile
// reachable from it, -1 elsewhere. Diagonal steps need both orthogonal tiles
// passable.
type DistanceMap struct {
	Width, Height int
	Origin        image.Point
	dist          []int32
	order         []int32
}

// NewDistanceMap flood fills from origin over tiles accepted by passable.
// An impassable origin yields an empty map.
func NewDistanceMap(width, height int, origin image.Point, passable func(x, y int) bool) *DistanceMap {
	dm := &DistanceMap{
		Width:  width,
		Height: height,
		Origin: origin,
		dist:   make([]int32, width*height),
	}
	for i := range dm.dist {
		dm.dist[i] = -1
	}
	if !common.InGrid(origin.X, origin.Y, width, height) || !passable(origin.X, origin.Y) {
		return dm
	}
	start := int32(common.GridIndex(origin.X, origin.Y, width))
	dm.dist[start] = 0
	dm.order = append(dm.order, start)
	for head := 0; head < len(dm.order); head++ {
		i := int(dm.order[head])
		x, y := i%width, i/width
		for _, d := range neighbours8 {
			nx, ny := x+d[0], y+d[1]
			if !common.InGrid(nx, ny, width, height) || !passable(nx, ny) {
				continue
			}
			if d[0] != 0 && d[1] != 0 && (!passable(nx, y) || !passable(x, ny)) {
				continue
			}
			ni := common.GridIndex(nx, ny, width)
			if dm.dist[ni] >= 0 {
				continue
			}
			dm.dist[ni] = dm.dist[i] + 1
			dm.order = append(dm.order, int32(ni))
		}
	}
	return dm
}

// At returns the distance of tile (x, y), -1 if unreachable.
func (dm *DistanceMap) At(x, y int) int {
	if !common.InGrid(x, y, dm.Width, dm.Height) {
		return -1
	}
	return int(dm.dist[common.GridIndex(x, y, dm.Width)])
}

func (dm *DistanceMap) Reachable(x, y int) bool {
	return dm.At(x, y) >= 0
}

// Count returns the number of reachable tiles.
func (dm *DistanceMap) Count() int {
	return len(dm.order)
}

// Nearest returns the closest reachable tile accepted by pred. Ties go to
// the tile visited first.
func (dm *DistanceMap) Nearest(pred func(x, y int) bool) (image.Point, bool) {
	for _, i := range dm.order {
		x, y := int(i)%dm.Width, int(i)/dm.Width
		if pred(x, y) {
			return image.Pt(x, y), true
		}
	}
	return image.Point{}, false
}
