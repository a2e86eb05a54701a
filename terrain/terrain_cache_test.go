package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noorus/hivemind-sub000/cache"
	"github.com/noorus/hivemind-sub000/common"
	"github.com/noorus/hivemind-sub000/common/rw"
)

func scaledRect(x0, y0, x1, y1 float64) Polygon {
	// thirds are not exact in binary, so a lossy codec would show
	return rectPoly(x0/3, y0/3, x1/3, y1/3)
}

// nestedMap builds three regions nested inside each other's holes.
func nestedMap(t *testing.T) *Map {
	t.Helper()
	cfg := DefaultConfig()
	in := openMap(8, 8)
	for i := range in.Heights {
		in.Heights[i] = float64(i%5) * 0.3
	}
	flags, err := ClassifyGrid(in, &cfg)
	require.NoError(t, err)

	regions := make([]Region, 3)
	for i := range regions {
		regions[i] = newRegion(RegionID(i))
		regions[i].Label = 1
		regions[i].Polygon.Label = 1
		regions[i].Clearance = 1.0 / float64(i+3)
		regions[i].Height = 0.1 * float64(i)
		regions[i].Level = i
		regions[i].TileCount = 10 + i
	}
	regions[0].Polygon.Outer = scaledRect(0, 0, 24, 24)
	regions[0].Polygon.Holes = []Polygon{scaledRect(6, 6, 18, 18)}
	regions[0].Pos = common.Vec2{1.0 / 3, 1.0 / 7}
	regions[1].Polygon.Outer = scaledRect(6, 6, 18, 18)
	regions[1].Polygon.Holes = []Polygon{scaledRect(9, 9, 15, 15), scaledRect(7, 7, 8, 8)}
	regions[1].Pos = common.Vec2{2.5, 2.1}
	regions[2].Polygon.Outer = scaledRect(9, 9, 15, 15)
	regions[2].Pos = common.Vec2{4, 4}

	chokes := []Chokepoint{
		{ID: 0, Node: 17, Pos: common.Vec2{2, 1.0 / 3}, Clearance: 0.7, Sides: Sides{{2, 0}, {2, 2.0 / 3}}, Regions: [2]RegionID{0, 1}},
		{ID: 1, Node: 4, Pos: common.Vec2{3.1, 3.2}, Clearance: 0.25, Sides: Sides{{3, 3}, {3.5, 3.5}}, Regions: [2]RegionID{2, 1}},
	}
	for _, c := range chokes {
		regions[c.Regions[0]].Chokepoints.Put(c.ID)
		regions[c.Regions[1]].Chokepoints.Put(c.ID)
		regions[c.Regions[0]].Reachable.Put(c.Regions[1])
		regions[c.Regions[1]].Reachable.Put(c.Regions[0])
	}
	closeReachability(regions)
	sides := map[int]Sides{17: chokes[0].Sides, 4: chokes[1].Sides, 30: {{1, 1}, {1, 2}}}

	tiles := make([]int32, 64)
	for i := range tiles {
		tiles[i] = int32(i % 3)
	}
	return newMap(flags, regions, chokes, sides, tiles)
}

func assertSameMap(t *testing.T, want, got *Map) {
	t.Helper()
	require.Equal(t, want.Width, got.Width)
	require.Equal(t, want.Height, got.Height)
	assert.Equal(t, want.Flags.Flags, got.Flags.Flags)
	assert.Equal(t, want.Flags.Heights, got.Flags.Heights)
	assert.Equal(t, want.Flags.MaxHeight, got.Flags.MaxHeight)
	assert.Equal(t, want.TileRegions, got.TileRegions)
	assert.Equal(t, want.Chokepoints, got.Chokepoints)
	assert.Equal(t, want.ChokepointSides, got.ChokepointSides)

	require.Len(t, got.Regions, len(want.Regions))
	for i := range want.Regions {
		w, g := &want.Regions[i], &got.Regions[i]
		assert.Equal(t, w.ID, g.ID)
		assert.Equal(t, w.Label, g.Label)
		assert.Equal(t, w.Polygon.Label, g.Polygon.Label)
		assert.Equal(t, w.Pos, g.Pos)
		assert.Equal(t, w.Clearance, g.Clearance)
		assert.Equal(t, w.Height, g.Height)
		assert.Equal(t, w.TileCount, g.TileCount)
		assert.Equal(t, w.Level, g.Level)
		assert.Equal(t, w.Polygon.Outer, g.Polygon.Outer, "region %d", i)
		require.Len(t, g.Polygon.Holes, len(w.Polygon.Holes))
		for j := range w.Polygon.Holes {
			assert.Equal(t, w.Polygon.Holes[j], g.Polygon.Holes[j], "region %d hole %d", i, j)
		}
		assert.Equal(t, w.ChokepointIDs(), g.ChokepointIDs())
		assert.Equal(t, w.ReachableIDs(), g.ReachableIDs())
	}
}

func TestCacheRoundTrip(t *testing.T) {
	fs, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	bs, err := cache.OpenBadgerStore("")
	require.NoError(t, err)
	defer bs.Close()

	want := nestedMap(t)
	assert.Equal(t, []RegionID{0, 2}, want.Regions[1].ReachableIDs())
	assert.Equal(t, []RegionID{1, 2}, want.Regions[0].ReachableIDs())

	for name, store := range map[string]cache.Store{"file": fs, "badger": bs} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, Save(store, "h1", want))
			got, err := LoadCached(store, "h1", 8, 8)
			require.NoError(t, err)
			assertSameMap(t, want, got)
			assert.Nil(t, got.Labels)
			assert.Nil(t, got.TileKinds)
			assert.Equal(t, want.Summary(), got.Summary())
		})
	}
}

func TestCacheMismatch(t *testing.T) {
	store, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	m := nestedMap(t)
	require.NoError(t, Save(store, "h1", m))

	_, err = LoadCached(store, "h1", 9, 8)
	assert.ErrorIs(t, err, ErrCacheMismatch)

	_, err = LoadCached(store, "h2", 8, 8)
	assert.ErrorIs(t, err, cache.ErrNotFound)

	data := EncodeFlags(m.Flags)
	data[4]++ // version
	require.NoError(t, store.Put("h1", BlobFlags, data))
	_, err = LoadCached(store, "h1", 8, 8)
	assert.ErrorIs(t, err, ErrCacheMismatch)

	require.NoError(t, store.Put("h1", BlobFlags, EncodeFlags(m.Flags)))
	data = EncodeRegions(m)
	require.NoError(t, store.Put("h1", BlobRegions, data[:len(data)-3]))
	_, err = LoadCached(store, "h1", 8, 8)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMismatch)
}

func TestCacheRejectsUnknownRegions(t *testing.T) {
	cases := map[string]func(m *Map){
		"tile past regions":   func(m *Map) { m.TileRegions[5] = 3 },
		"tile below blocked":  func(m *Map) { m.TileRegions[5] = -2 },
		"region chokepoint":   func(m *Map) { m.Regions[2].Chokepoints.Put(7) },
		"negative chokepoint": func(m *Map) { m.Regions[0].Chokepoints.Put(-1) },
		"region reachable":    func(m *Map) { m.Regions[1].Reachable.Put(9) },
		"chokepoint region":   func(m *Map) { m.Chokepoints[1].Regions[0] = 5 },
	}
	for name, corrupt := range cases {
		t.Run(name, func(t *testing.T) {
			store, err := cache.NewFileStore(t.TempDir())
			require.NoError(t, err)
			m := nestedMap(t)
			corrupt(m)
			require.NoError(t, Save(store, "h1", m))
			_, err = LoadCached(store, "h1", 8, 8)
			assert.ErrorIs(t, err, ErrCacheMismatch)
		})
	}

	// blocked tiles are fine
	store, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	m := nestedMap(t)
	m.TileRegions[5] = -1
	require.NoError(t, Save(store, "h1", m))
	_, err = LoadCached(store, "h1", 8, 8)
	assert.NoError(t, err)
}

func TestDecodeRegionsLengthPastEnd(t *testing.T) {
	m := nestedMap(t)
	data := EncodeRegions(m)

	// any cut inside the last region's id lists or rings must be noticed
	for cut := 1; cut <= 40; cut++ {
		_, err := DecodeRegions(data[:len(data)-cut], 8, 8)
		require.ErrorIs(t, err, rw.ErrShortRead, "cut %d", cut)
	}

	// a ring claiming more points than the blob holds
	w := rw.NewBinWriter()
	writeHeader(w, 8, 8)
	w.WriteUInt32(1)
	w.WriteInt32(1)
	w.WriteFloat64s(make([]float64, 4))
	w.WriteUInt32(0)
	w.WriteUInt32(0)
	w.WriteUInt32(1000)
	w.WriteFloat64s(make([]float64, 2))
	_, err := DecodeRegions(w.GetWriteBytes(), 8, 8)
	assert.ErrorIs(t, err, rw.ErrShortRead)
}

func TestLoadRecomputesAndCaches(t *testing.T) {
	store, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	core, logs := observer.New(zapcore.InfoLevel)
	cfg := DefaultConfig()
	cfg.Logger = zap.New(core)

	// a stale entry for another size under the same hash
	require.NoError(t, Save(store, "pinch", nestedMap(t)))

	first, err := Load(store, "pinch", pinchMap(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("terrain cache stale").Len())
	assert.Equal(t, 1, logs.FilterMessage("terrain analysed").Len())
	require.Len(t, first.Regions, 2)

	second, err := Load(store, "pinch", pinchMap(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("terrain cache hit").Len())
	assert.Equal(t, 1, logs.FilterMessage("terrain analysed").Len(), "no second analysis")
	assertSameMap(t, first, second)

	// the rebuilt map answers queries like the analysed one
	assert.Equal(t, first.RegionAt(2, 2), second.RegionAt(2, 2))
	p, ok := second.ClosestWalkableTile(common.Vec2{9.2, 3.5})
	require.True(t, ok)
	assert.Equal(t, 7, p.X)

	_, err = Load(store, "empty", &MapInput{Width: 2, Height: 2}, cfg)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 1, logs.FilterMessage("terrain cache miss").Len())
}
