package terrain

import (
	"image"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noorus/hivemind-sub000/common"
)

func TestFixedPointRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		v := common.Vec2{rng.Float64() * 256, rng.Float64() * 256}
		back := ToFixed(v).Float()
		assert.LessOrEqual(t, math.Abs(back[0]-v[0]), 0.5/FixedPointScale)
		assert.LessOrEqual(t, math.Abs(back[1]-v[1]), 0.5/FixedPointScale)
	}
	p := Polygon{{0.25, 0.5}, {10, 0.5}, {10, 7.125}}
	assert.Equal(t, p, p.Fixed().Float(), "lattice-aligned values survive exactly")
}

func TestWalkCrackSquare(t *testing.T) {
	inside := func(x, y int) bool { return x >= 1 && x < 3 && y >= 1 && y < 4 }
	corners := walkCrack(inside, 1, 1, headNorth, 100)
	require.Len(t, corners, 4)
	assert.Contains(t, corners, image.Pt(1, 1))
	assert.Contains(t, corners, image.Pt(3, 4))

	ring := make(Polygon, len(corners))
	for i, c := range corners {
		ring[i] = common.Vec2{float64(c.X), float64(c.Y)}
	}
	assert.InDelta(t, 6, ring.Area(), 1e-9)
}

func TestBuildPolygonsWithHole(t *testing.T) {
	mask, w, h := maskFromRows(
		"#######",
		"#######",
		"##..###",
		"##..###",
		"#######",
		"#######",
	)
	cfg := DefaultConfig()
	set, err := TraceContours(mask, w, h, &cfg)
	require.NoError(t, err)
	polys := BuildPolygons(set, &cfg)
	require.Len(t, polys, 1)
	p := polys[0]
	assert.Equal(t, int32(1), p.Label)
	assert.InDelta(t, 42, p.Outer.Area(), 1e-9)
	require.Len(t, p.Holes, 1)
	assert.InDelta(t, -4, p.Holes[0].Area(), 1e-9)

	assert.True(t, p.Contains(common.Vec2{0.5, 0.5}))
	assert.False(t, p.Contains(common.Vec2{3, 3}), "hole interior")
	assert.False(t, p.Contains(common.Vec2{8, 3}))
	assert.Equal(t, 0.0, p.Distance(common.Vec2{1, 1}))
	assert.InDelta(t, 1, p.Distance(common.Vec2{3, 3}), 1e-9)
	assert.InDelta(t, 2, p.Distance(common.Vec2{9, 3}), 1e-9)
	assert.Len(t, p.Rings(), 2)
}

func TestBuildPolygonsSeparateComponents(t *testing.T) {
	mask, w, h := maskFromRows(
		"##...",
		"##...",
		"...##",
		"...#.",
	)
	cfg := DefaultConfig()
	cfg.SimplifyMaxError = 0
	set, err := TraceContours(mask, w, h, &cfg)
	require.NoError(t, err)
	polys := BuildPolygons(set, &cfg)
	require.Len(t, polys, 2)
	assert.InDelta(t, 4, polys[0].Outer.Area(), 1e-9)
	assert.InDelta(t, 3, polys[1].Outer.Area(), 1e-9)
	assert.Empty(t, polys[1].Holes)
}

func TestSplitRingKeepsEveryLoop(t *testing.T) {
	u := int64(FixedPointScale)
	// two squares touching at (2,2), the right one larger
	ring := FixedPolygon{
		{0, 0}, {2 * u, 0}, {2 * u, 2 * u},
		{5 * u, 2 * u}, {5 * u, 5 * u}, {2 * u, 5 * u}, {2 * u, 2 * u},
		{0, 2 * u},
	}
	loops := splitRing(ring, ring.area2())
	require.Len(t, loops, 2)
	assert.Equal(t, 18*u*u, loops[0].area2())
	assert.Equal(t, 8*u*u, loops[1].area2())

	assert.Len(t, splitRing(loops[1], loops[1].area2()), 1)
	assert.Empty(t, splitRing(loops[1], -1), "loops of the other orientation are dropped")
}

func TestBuildPolygonsDiagonalTouch(t *testing.T) {
	// two rooms meeting only at a corner form one 8-connected component
	mask, w, h := maskFromRows(
		"###......",
		"###......",
		"###......",
		"...######",
		"...######",
		"...######",
	)
	cfg := DefaultConfig()
	set, err := TraceContours(mask, w, h, &cfg)
	require.NoError(t, err)
	require.Equal(t, 1, set.Components)
	polys := BuildPolygons(set, &cfg)
	require.Len(t, polys, 2)
	total := 0.0
	for _, p := range polys {
		assert.Equal(t, polys[0].Label, p.Label)
		total += p.Outer.Area()
	}
	assert.InDelta(t, 18+9, total, 1e-9)
}

func TestSimplifyRingKeepsCorners(t *testing.T) {
	u := int64(FixedPointScale)
	var ring FixedPolygon
	for x := int64(0); x < 10; x++ {
		ring = append(ring, FixedPoint{x * u, 0})
	}
	for y := int64(0); y < 10; y++ {
		ring = append(ring, FixedPoint{10 * u, y * u})
	}
	for x := int64(10); x > 0; x-- {
		ring = append(ring, FixedPoint{x * u, 10 * u})
	}
	for y := int64(10); y > 0; y-- {
		ring = append(ring, FixedPoint{0, y * u})
	}
	got := simplifyRing(ring, 0.75*FixedPointScale)
	assert.Len(t, got, 4)
	assert.Equal(t, 200*u*u, got.area2())
}
