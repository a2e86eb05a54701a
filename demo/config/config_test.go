package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noorus/hivemind-sub000/terrain"
)

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
map:
  pathing: maps/pathing.bmp
  playable: {minx: 1, miny: 2, maxx: 30, maxy: 40}
cache:
  backend: badger
log:
  level: debug
analysis:
  min_obstacle_distance: 3.5
  extract_internal: false
`))
	require.NoError(t, err)
	assert.Equal(t, "maps/pathing.bmp", cfg.Map.Pathing)
	assert.Equal(t, terrain.Rect{MinX: 1, MinY: 2, MaxX: 30, MaxY: 40}, cfg.Map.Playable)
	assert.Equal(t, uint8(127), cfg.Map.Threshold)
	assert.Equal(t, "badger", cfg.Cache.Backend)
	assert.Equal(t, "terrain_cache", cfg.Cache.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 64, cfg.Log.MaxSizeMB)
	assert.Equal(t, 4, cfg.Output.ImageScale)

	tc := cfg.Analysis.Terrain()
	def := terrain.DefaultConfig()
	assert.Equal(t, 3.5, tc.MinObstacleDistance)
	assert.False(t, tc.ExtractInternal)
	assert.Equal(t, def.HysteresisCoefficient, tc.HysteresisCoefficient)
	assert.Equal(t, def.VoronoiSampleSpacing, tc.VoronoiSampleSpacing)
	assert.NotNil(t, tc.Logger)
}

func TestDefaultsMatchTerrain(t *testing.T) {
	tc := NewConfig().Analysis.Terrain()
	def := terrain.DefaultConfig()
	tc.Logger, def.Logger = nil, nil
	assert.Equal(t, def, tc)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("cache: {backend: file}\n"))
	assert.ErrorContains(t, err, "map.pathing")

	_, err = Parse([]byte("map: {pathing: a.bmp}\ncache: {backend: redis}\n"))
	assert.ErrorContains(t, err, "redis")

	_, err = Parse([]byte("map: {pathing: a.bmp}\nanalysis: {voronoi_sample_spacing: 0}\n"))
	assert.ErrorContains(t, err, "voronoi_sample_spacing")

	_, err = Parse([]byte("map: [1, 2"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("map:\n  pathing: p.png\noutput:\n  obj: out.obj\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "p.png", cfg.Map.Pathing)
	assert.Equal(t, "out.obj", cfg.Output.Obj)
}
