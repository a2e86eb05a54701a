package terrain

import (
	"math"

	"github.com/noorus/hivemind-sub000/common"
)

type TileFlag uint32

const (
	FlagPathable TileFlag = 1 << iota
	FlagWalkable
	FlagBuildable
	FlagInnerWalkable
	FlagRamp
	FlagNearRamp
	FlagVisionBlocker
	FlagNearVisionBlocker
	FlagResource
	FlagNearResource
	FlagMineral
	FlagGeyser
)

// Rect is a half-open tile rectangle [MinX, MaxX) x [MinY, MaxY).
type Rect struct {
	MinX, MinY, MaxX, MaxY int
}

func (r Rect) Empty() bool {
	return r.MaxX <= r.MinX || r.MaxY <= r.MinY
}

func (r Rect) Contains(x, y int) bool {
	return x >= r.MinX && x < r.MaxX && y >= r.MinY && y < r.MaxY
}

type ResourceKind uint8

const (
	ResourceMineral ResourceKind = iota
	ResourceGeyser
)

// Resource is a neutral resource unit. Pos is its footprint centre in tile
// units; tiles whose centres lie within Radius of it are marked NearResource.
type Resource struct {
	Kind   ResourceKind
	Pos    common.Vec2
	Radius float64
}

// MapInput is the raw per-tile terrain sample of a map. All slices are row
// major with Width*Height entries. A zero PlayableArea means the whole map.
type MapInput struct {
	Width, Height int
	Pathable      []bool
	Placeable     []bool
	Heights       []float64
	Resources     []Resource
	PlayableArea  Rect
}

func (in *MapInput) validate() error {
	if in.Width <= 0 || in.Height <= 0 {
		return analysisError("classify", ErrInvalidInput, "size %dx%d", in.Width, in.Height)
	}
	n := in.Width * in.Height
	if len(in.Pathable) != n || len(in.Placeable) != n || len(in.Heights) != n {
		return analysisError("classify", ErrInvalidInput, "layer sizes %d/%d/%d, want %d",
			len(in.Pathable), len(in.Placeable), len(in.Heights), n)
	}
	return nil
}

// FlagGrid is the classified tile grid. It is immutable once built.
type FlagGrid struct {
	Width, Height int
	Flags         []TileFlag
	Heights       []float64
	MaxHeight     float64
}

func (g *FlagGrid) InBounds(x, y int) bool {
	return common.InGrid(x, y, g.Width, g.Height)
}

// At returns the flags of (x, y); off-map tiles have no flags.
func (g *FlagGrid) At(x, y int) TileFlag {
	if !g.InBounds(x, y) {
		return 0
	}
	return g.Flags[common.GridIndex(x, y, g.Width)]
}

func (g *FlagGrid) Has(x, y int, f TileFlag) bool {
	return g.At(x, y)&f == f
}

func (g *FlagGrid) Walkable(x, y int) bool {
	return g.Has(x, y, FlagWalkable)
}

// HeightAt returns the terrain height of (x, y); off-map tiles are at 0.
func (g *FlagGrid) HeightAt(x, y int) float64 {
	if !g.InBounds(x, y) {
		return 0
	}
	return g.Heights[common.GridIndex(x, y, g.Width)]
}

// WalkableMask returns one byte per tile, 1 for walkable.
func (g *FlagGrid) WalkableMask() []uint8 {
	mask := make([]uint8, len(g.Flags))
	for i, f := range g.Flags {
		if f&FlagWalkable != 0 {
			mask[i] = 1
		}
	}
	return mask
}

var neighbours8 = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}

// ClassifyGrid derives the flag and height grids from raw samples.
func ClassifyGrid(in *MapInput, cfg *Config) (*FlagGrid, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	w, h := in.Width, in.Height
	area := in.PlayableArea
	if area.Empty() {
		area = Rect{0, 0, w, h}
	}

	g := &FlagGrid{
		Width:   w,
		Height:  h,
		Flags:   make([]TileFlag, w*h),
		Heights: make([]float64, w*h),
	}
	copy(g.Heights, in.Heights)
	g.MaxHeight = math.Inf(-1)
	for _, v := range g.Heights {
		g.MaxHeight = math.Max(g.MaxHeight, v)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := common.GridIndex(x, y, w)
			var f TileFlag
			if in.Pathable[i] {
				f |= FlagPathable
			}
			if area.Contains(x, y) && (in.Pathable[i] || in.Placeable[i]) {
				f |= FlagWalkable
				if in.Placeable[i] {
					f |= FlagBuildable
				}
			}
			g.Flags[i] = f
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := common.GridIndex(x, y, w)
			if g.Flags[i]&FlagWalkable == 0 || g.Flags[i]&FlagBuildable != 0 {
				continue
			}
			if isRamp(in, x, y, cfg.RampHeightDelta) {
				g.Flags[i] |= FlagRamp | FlagNearRamp
			} else {
				g.Flags[i] |= FlagVisionBlocker | FlagNearVisionBlocker
			}
		}
	}

	for _, res := range in.Resources {
		markResource(g, res)
	}

	// second pass reads the base flags only, so collect into a copy
	out := make([]TileFlag, len(g.Flags))
	copy(out, g.Flags)
	radius := cfg.InnerWalkableRadius
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := common.GridIndex(x, y, w)
			f := g.Flags[i]
			if f&FlagWalkable != 0 && allWalkable(g, x, y, radius) {
				out[i] |= FlagInnerWalkable
			}
			for _, d := range neighbours8 {
				nf := g.At(x+d[0], y+d[1])
				if nf&FlagRamp != 0 {
					out[i] |= FlagNearRamp
				}
				if nf&FlagVisionBlocker != 0 {
					out[i] |= FlagNearVisionBlocker
				}
				if nf&FlagResource != 0 {
					out[i] |= FlagNearResource
				}
			}
		}
	}
	for _, res := range in.Resources {
		markNearResource(out, w, h, res)
	}
	g.Flags = out
	return g, nil
}

func isRamp(in *MapInput, x, y int, delta float64) bool {
	h := in.Heights[common.GridIndex(x, y, in.Width)]
	for dy := -3; dy <= 3; dy++ {
		for dx := -3; dx <= 3; dx++ {
			nx, ny := x+dx, y+dy
			if !common.InGrid(nx, ny, in.Width, in.Height) {
				continue
			}
			j := common.GridIndex(nx, ny, in.Width)
			if in.Pathable[j] && math.Abs(in.Heights[j]-h) > delta {
				return true
			}
		}
	}
	return false
}

func allWalkable(g *FlagGrid, x, y, radius int) bool {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if !g.Walkable(x+dx, y+dy) {
				return false
			}
		}
	}
	return true
}

// resourceFootprint returns the covered tile rectangle: 3x3 for geysers and
// 2x1 for mineral fields.
func resourceFootprint(res Resource) Rect {
	if res.Kind == ResourceGeyser {
		cx, cy := int(math.Floor(res.Pos[0])), int(math.Floor(res.Pos[1]))
		return Rect{cx - 1, cy - 1, cx + 2, cy + 2}
	}
	x0 := int(math.Floor(res.Pos[0] - 0.5))
	y0 := int(math.Floor(res.Pos[1]))
	return Rect{x0, y0, x0 + 2, y0 + 1}
}

func markResource(g *FlagGrid, res Resource) {
	mark := FlagResource | FlagMineral
	if res.Kind == ResourceGeyser {
		mark = FlagResource | FlagGeyser
	}
	fp := resourceFootprint(res)
	for y := fp.MinY; y < fp.MaxY; y++ {
		for x := fp.MinX; x < fp.MaxX; x++ {
			if g.InBounds(x, y) {
				g.Flags[common.GridIndex(x, y, g.Width)] |= mark
			}
		}
	}
}

func markNearResource(flags []TileFlag, w, h int, res Resource) {
	if res.Radius <= 0 {
		return
	}
	r := int(math.Ceil(res.Radius))
	cx, cy := int(math.Floor(res.Pos[0])), int(math.Floor(res.Pos[1]))
	r2 := res.Radius * res.Radius
	for y := cy - r - 1; y <= cy+r+1; y++ {
		for x := cx - r - 1; x <= cx+r+1; x++ {
			if !common.InGrid(x, y, w, h) {
				continue
			}
			c := common.Vec2{float64(x) + 0.5, float64(y) + 0.5}
			if common.VdistSqr2(c, res.Pos) <= r2 {
				flags[common.GridIndex(x, y, w)] |= FlagNearResource
			}
		}
	}
}
