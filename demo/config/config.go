package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/noorus/hivemind-sub000/common"
	"github.com/noorus/hivemind-sub000/terrain"
)

// Config is the demo tool configuration file.
type Config struct {
	Map      MapConfig         `yaml:"map"`
	Cache    CacheConfig       `yaml:"cache"`
	Log      common.LogOptions `yaml:"log"`
	Analysis AnalysisConfig    `yaml:"analysis"`
	Output   OutputConfig      `yaml:"output"`
}

// MapConfig points at the grayscale layer images of a map. Pathing and
// placement pixels brighter than Threshold are set; height pixels map
// linearly onto [0, HeightScale].
type MapConfig struct {
	Pathing     string       `yaml:"pathing"`
	Placement   string       `yaml:"placement"`
	Height      string       `yaml:"height"`
	HeightScale float64      `yaml:"height_scale"`
	Threshold   uint8        `yaml:"threshold"`
	Playable    terrain.Rect `yaml:"playable"`
}

type CacheConfig struct {
	// Backend is "file", "badger" or "none".
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
}

type OutputConfig struct {
	Obj        string `yaml:"obj"`
	List       string `yaml:"list"`
	Image      string `yaml:"image"`
	ImageScale int    `yaml:"image_scale"`
}

// AnalysisConfig mirrors the tunable fields of terrain.Config.
type AnalysisConfig struct {
	RampHeightDelta       float64 `yaml:"ramp_height_delta"`
	InnerWalkableRadius   int     `yaml:"inner_walkable_radius"`
	MaxContourPoints      int     `yaml:"max_contour_points"`
	ExtractInternal       bool    `yaml:"extract_internal"`
	CleanDistance         float64 `yaml:"clean_distance"`
	SimplifyMaxError      float64 `yaml:"simplify_max_error"`
	SimplifyMinAngle      float64 `yaml:"simplify_min_angle"`
	VoronoiSampleSpacing  float64 `yaml:"voronoi_sample_spacing"`
	MinObstacleDistance   float64 `yaml:"min_obstacle_distance"`
	LeafClearanceMargin   float64 `yaml:"leaf_clearance_margin"`
	HysteresisCoefficient float64 `yaml:"hysteresis_coefficient"`
	HysteresisMinimum     float64 `yaml:"hysteresis_minimum"`
	CollapseDistance      float64 `yaml:"collapse_distance"`
	SideQueryCount        int     `yaml:"side_query_count"`
	CutterExtension       float64 `yaml:"cutter_extension"`
	CutterHalfWidth       float64 `yaml:"cutter_half_width"`
	HeightLevelTolerance  float64 `yaml:"height_level_tolerance"`
	SegmentCellSize       float64 `yaml:"segment_cell_size"`
}

func analysisFrom(c terrain.Config) AnalysisConfig {
	return AnalysisConfig{
		RampHeightDelta:       c.RampHeightDelta,
		InnerWalkableRadius:   c.InnerWalkableRadius,
		MaxContourPoints:      c.MaxContourPoints,
		ExtractInternal:       c.ExtractInternal,
		CleanDistance:         c.CleanDistance,
		SimplifyMaxError:      c.SimplifyMaxError,
		SimplifyMinAngle:      c.SimplifyMinAngle,
		VoronoiSampleSpacing:  c.VoronoiSampleSpacing,
		MinObstacleDistance:   c.MinObstacleDistance,
		LeafClearanceMargin:   c.LeafClearanceMargin,
		HysteresisCoefficient: c.HysteresisCoefficient,
		HysteresisMinimum:     c.HysteresisMinimum,
		CollapseDistance:      c.CollapseDistance,
		SideQueryCount:        c.SideQueryCount,
		CutterExtension:       c.CutterExtension,
		CutterHalfWidth:       c.CutterHalfWidth,
		HeightLevelTolerance:  c.HeightLevelTolerance,
		SegmentCellSize:       c.SegmentCellSize,
	}
}

// Terrain returns the analysis configuration on top of the defaults.
func (a AnalysisConfig) Terrain() terrain.Config {
	c := terrain.DefaultConfig()
	c.RampHeightDelta = a.RampHeightDelta
	c.InnerWalkableRadius = a.InnerWalkableRadius
	c.MaxContourPoints = a.MaxContourPoints
	c.ExtractInternal = a.ExtractInternal
	c.CleanDistance = a.CleanDistance
	c.SimplifyMaxError = a.SimplifyMaxError
	c.SimplifyMinAngle = a.SimplifyMinAngle
	c.VoronoiSampleSpacing = a.VoronoiSampleSpacing
	c.MinObstacleDistance = a.MinObstacleDistance
	c.LeafClearanceMargin = a.LeafClearanceMargin
	c.HysteresisCoefficient = a.HysteresisCoefficient
	c.HysteresisMinimum = a.HysteresisMinimum
	c.CollapseDistance = a.CollapseDistance
	c.SideQueryCount = a.SideQueryCount
	c.CutterExtension = a.CutterExtension
	c.CutterHalfWidth = a.CutterHalfWidth
	c.HeightLevelTolerance = a.HeightLevelTolerance
	c.SegmentCellSize = a.SegmentCellSize
	return c
}

func NewConfig() *Config {
	return &Config{
		Map: MapConfig{
			HeightScale: 16,
			Threshold:   127,
		},
		Cache: CacheConfig{
			Backend: "file",
			Dir:     "terrain_cache",
		},
		Log:      common.DefaultLogOptions(),
		Analysis: analysisFrom(terrain.DefaultConfig()),
		Output: OutputConfig{
			ImageScale: 4,
		},
	}
}

// Parse reads YAML over the defaults; keys left out keep their default.
func Parse(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

func (cfg *Config) validate() error {
	if cfg.Map.Pathing == "" {
		return fmt.Errorf("config: map.pathing is required")
	}
	switch cfg.Cache.Backend {
	case "file", "badger", "none":
	default:
		return fmt.Errorf("config: unknown cache backend %q", cfg.Cache.Backend)
	}
	if cfg.Analysis.VoronoiSampleSpacing <= 0 {
		return fmt.Errorf("config: analysis.voronoi_sample_spacing must be positive")
	}
	return nil
}
