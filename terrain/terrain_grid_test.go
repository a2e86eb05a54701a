package terrain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noorus/hivemind-sub000/common"
)

// mapFromRows builds a flat map: '.' buildable ground, 'p' pathable only,
// 'b' placeable only, anything else blocked.
func mapFromRows(rows ...string) *MapInput {
	h, w := len(rows), len(rows[0])
	in := &MapInput{
		Width:     w,
		Height:    h,
		Pathable:  make([]bool, w*h),
		Placeable: make([]bool, w*h),
		Heights:   make([]float64, w*h),
	}
	for y, row := range rows {
		for x, c := range row {
			i := common.GridIndex(x, y, w)
			switch c {
			case '.':
				in.Pathable[i], in.Placeable[i] = true, true
			case 'p':
				in.Pathable[i] = true
			case 'b':
				in.Placeable[i] = true
			}
		}
	}
	return in
}

// openMap returns a w x h map that is buildable everywhere.
func openMap(w, h int) *MapInput {
	rows := make([]string, h)
	for y := range rows {
		row := make([]byte, w)
		for x := range row {
			row[x] = '.'
		}
		rows[y] = string(row)
	}
	return mapFromRows(rows...)
}

func TestClassifyGridWalkable(t *testing.T) {
	in := mapFromRows(
		"..pp##",
		"..pb##",
		"bb#p..",
	)
	cfg := DefaultConfig()
	g, err := ClassifyGrid(in, &cfg)
	require.NoError(t, err)
	for y := 0; y < in.Height; y++ {
		for x := 0; x < in.Width; x++ {
			i := common.GridIndex(x, y, in.Width)
			walkable := g.Has(x, y, FlagWalkable)
			buildable := g.Has(x, y, FlagBuildable)
			assert.Equal(t, in.Pathable[i] || in.Placeable[i], walkable, "tile %d,%d", x, y)
			if buildable {
				assert.True(t, walkable, "buildable tile %d,%d must be walkable", x, y)
			}
		}
	}
	assert.Equal(t, g.Walkable(2, 0), true)
	assert.False(t, g.Has(2, 0, FlagBuildable))
	assert.False(t, g.Walkable(-1, 0))
}

func TestClassifyGridRampAndVisionBlocker(t *testing.T) {
	in := mapFromRows(
		"..p...",
		"..p...",
		"..p...",
		"......",
	)
	// raise the right side so the pathable strip joins two heights
	for y := 0; y < in.Height; y++ {
		for x := 3; x < in.Width; x++ {
			in.Heights[common.GridIndex(x, y, in.Width)] = 1
		}
	}
	cfg := DefaultConfig()
	g, err := ClassifyGrid(in, &cfg)
	require.NoError(t, err)
	assert.True(t, g.Has(2, 1, FlagRamp))
	assert.True(t, g.Has(1, 1, FlagNearRamp))
	assert.False(t, g.Has(1, 1, FlagRamp))
	assert.Equal(t, 1.0, g.MaxHeight)
	assert.Equal(t, 1.0, g.HeightAt(4, 2))
	assert.Zero(t, g.HeightAt(0, 0))
	assert.Zero(t, g.HeightAt(-1, 0))
	assert.Equal(t, 4, g.Height)

	flat := mapFromRows(
		"..p..",
		".....",
	)
	g, err = ClassifyGrid(flat, &cfg)
	require.NoError(t, err)
	assert.True(t, g.Has(2, 0, FlagVisionBlocker))
	assert.True(t, g.Has(1, 1, FlagNearVisionBlocker))
	assert.False(t, g.Has(2, 0, FlagRamp))
}

func TestClassifyGridInnerWalkable(t *testing.T) {
	in := openMap(7, 7)
	in.Pathable[common.GridIndex(0, 0, 7)] = false
	in.Placeable[common.GridIndex(0, 0, 7)] = false
	cfg := DefaultConfig()
	g, err := ClassifyGrid(in, &cfg)
	require.NoError(t, err)
	assert.True(t, g.Has(3, 3, FlagInnerWalkable))
	assert.False(t, g.Has(2, 2, FlagInnerWalkable))
	assert.False(t, g.Has(4, 1, FlagInnerWalkable), "off-map counts as blocked")
}

func TestClassifyGridResources(t *testing.T) {
	in := openMap(12, 12)
	in.Resources = []Resource{
		{Kind: ResourceGeyser, Pos: common.Vec2{3.5, 3.5}, Radius: 0},
		{Kind: ResourceMineral, Pos: common.Vec2{8, 8.5}, Radius: 2},
	}
	cfg := DefaultConfig()
	g, err := ClassifyGrid(in, &cfg)
	require.NoError(t, err)
	geysers := 0
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			if g.Has(x, y, FlagGeyser|FlagResource) {
				geysers++
			}
		}
	}
	assert.Equal(t, 9, geysers)
	assert.True(t, g.Has(2, 2, FlagGeyser))
	assert.True(t, g.Has(4, 4, FlagGeyser))
	assert.True(t, g.Has(1, 1, FlagNearResource))

	assert.True(t, g.Has(7, 8, FlagMineral))
	assert.True(t, g.Has(8, 8, FlagMineral))
	assert.False(t, g.Has(9, 8, FlagMineral))
	assert.True(t, g.Has(9, 9, FlagNearResource))
}

func TestClassifyGridPlayableArea(t *testing.T) {
	in := openMap(8, 8)
	in.PlayableArea = Rect{MinX: 1, MinY: 1, MaxX: 7, MaxY: 7}
	cfg := DefaultConfig()
	g, err := ClassifyGrid(in, &cfg)
	require.NoError(t, err)
	assert.False(t, g.Walkable(0, 3))
	assert.True(t, g.Has(0, 3, FlagPathable))
	assert.True(t, g.Walkable(1, 1))
	assert.False(t, g.Walkable(7, 7))
}

func TestClassifyGridInvalid(t *testing.T) {
	cfg := DefaultConfig()
	_, err := ClassifyGrid(&MapInput{Width: 2, Height: 2}, &cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "classify", ae.Op)
}
