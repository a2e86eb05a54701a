package debug_utils

import (
	"fmt"
	"image"
	"io"
	"math"

	"go.uber.org/zap"
	"golang.org/x/image/bmp"

	"github.com/noorus/hivemind-sub000/common"
	"github.com/noorus/hivemind-sub000/common/rw"
	"github.com/noorus/hivemind-sub000/terrain"
)

var (
	colBlocked   = DuRGBA(32, 32, 32, 255)
	colSide      = DuRGBA(255, 255, 255, 255)
	colRegionPos = DuRGBA(255, 64, 0, 255)
)

// DumpRegionsToObj writes every region polygon as closed OBJ lines lifted to
// the region height, followed by one line per chokepoint between its sides.
func DumpRegionsToObj(m *terrain.Map, w *rw.ReaderWriter) bool {
	if w == nil {
		zap.L().Warn("DumpRegionsToObj: input IO is null")
		return false
	}

	w.WriteString("# Terrain regions\n")
	w.WriteString(fmt.Sprintf("# %s\n", m.Summary()))

	base := 1
	vertex := func(p common.Vec2, h float64) {
		w.WriteString(fmt.Sprintf("v %f %f %f\n", p[0], h, p[1]))
	}
	for i := range m.Regions {
		r := &m.Regions[i]
		w.WriteString(fmt.Sprintf("\no region_%d\n", r.ID))
		for _, ring := range r.Polygon.Rings() {
			if len(ring) == 0 {
				continue
			}
			for _, p := range ring {
				vertex(p, r.Height)
			}
			w.WriteString("l")
			for j := range ring {
				w.WriteString(fmt.Sprintf(" %d", base+j))
			}
			w.WriteString(fmt.Sprintf(" %d\n", base))
			base += len(ring)
		}
	}

	if len(m.Chokepoints) > 0 {
		w.WriteString("\no chokepoints\n")
	}
	for i := range m.Chokepoints {
		c := &m.Chokepoints[i]
		h := 0.0
		for _, rid := range c.Regions {
			h = math.Max(h, m.Region(rid).Height)
		}
		vertex(c.Sides[0], h)
		vertex(c.Sides[1], h)
		w.WriteString(fmt.Sprintf("l %d %d\n", base, base+1))
		base += 2
	}
	return true
}

// DumpRegionList writes a plain text listing of regions and chokepoints.
func DumpRegionList(m *terrain.Map, w *rw.ReaderWriter) bool {
	if w == nil {
		zap.L().Warn("DumpRegionList: input IO is null")
		return false
	}
	w.WriteString(fmt.Sprintf("map %s\n", m.Summary()))
	for i := range m.Regions {
		r := &m.Regions[i]
		w.WriteString(fmt.Sprintf("region %d label=%d pos=(%.2f,%.2f) clearance=%.2f height=%.2f level=%d tiles=%d chokepoints=%v reachable=%v\n",
			r.ID, r.Label, r.Pos[0], r.Pos[1], r.Clearance, r.Height, r.Level, r.TileCount, r.ChokepointIDs(), r.ReachableIDs()))
	}
	for i := range m.Chokepoints {
		c := &m.Chokepoints[i]
		w.WriteString(fmt.Sprintf("chokepoint %d regions=%v pos=(%.2f,%.2f) width=%.2f\n",
			c.ID, c.Regions, c.Pos[0], c.Pos[1], c.Sides.Width()))
	}
	return true
}

// RegionImage paints each tile in its region colour at scale pixels per
// tile. Ramps are darkened and fallback tiles fade halfway to the blocked
// colour; chokepoint sides and region positions are drawn on top.
func RegionImage(m *terrain.Map, scale int) *image.RGBA {
	scale = max(scale, 1)
	img := image.NewRGBA(image.Rect(0, 0, m.Width*scale, m.Height*scale))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			col := colBlocked
			if r := m.RegionAt(x, y); r != terrain.NoRegion {
				col = DuIntToCol(int(r)+1, 255)
				if m.Flags.Has(x, y, terrain.FlagRamp) {
					col = DuDarkenCol(col)
				}
				if m.TileKinds != nil && m.TileKinds[common.GridIndex(x, y, m.Width)] == terrain.MemberFallback {
					col = DuLerpCol(col, colBlocked, 128)
				}
			}
			for py := y * scale; py < (y+1)*scale; py++ {
				for px := x * scale; px < (x+1)*scale; px++ {
					img.SetRGBA(px, py, col.RGBA())
				}
			}
		}
	}

	plot := func(p common.Vec2, col Colorb) {
		img.SetRGBA(int(p[0]*float64(scale)), int(p[1]*float64(scale)), col.RGBA())
	}
	for i := range m.Chokepoints {
		s := m.Chokepoints[i].Sides
		steps := max(1, int(math.Ceil(s.Width()*float64(scale)*2)))
		for k := 0; k <= steps; k++ {
			plot(common.Vlerp2(s[0], s[1], float64(k)/float64(steps)), colSide)
		}
	}
	for i := range m.Regions {
		plot(m.Regions[i].Pos, colRegionPos)
	}
	return img
}

// WriteRegionBMP encodes RegionImage as a BMP.
func WriteRegionBMP(w io.Writer, m *terrain.Map, scale int) error {
	return bmp.Encode(w, RegionImage(m, scale))
}
