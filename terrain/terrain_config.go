package terrain

import "go.uber.org/zap"

// Config holds every tunable of the decomposition. The hysteresis values are
// empirical and kept configurable rather than derived.
type Config struct {
	/// Minimum height difference between a walkable, non-buildable tile and a
	/// pathable tile in its 7x7 neighbourhood for it to count as a ramp. [Units: height]
	RampHeightDelta float64

	/// Chebyshev radius that must be fully walkable for InnerWalkable. [Limit: >= 1] [Units: tiles]
	InnerWalkableRadius int

	/// Maximum number of points a single traced contour may hold. [Limit: > 0]
	MaxContourPoints int

	/// Whether hole contours keep their points. Holes are counted either way.
	ExtractInternal bool

	/// Vertices closer than this are merged while cleaning polygons. [Units: tiles]
	CleanDistance float64

	/// The maximum distance a simplified polygon edge may deviate from the raw ring. [Limit: >= 0] [Units: tiles]
	SimplifyMaxError float64

	/// Vertices whose turn angle is below this are dropped after decimation. [Units: degrees]
	SimplifyMinAngle float64

	/// Spacing of boundary samples feeding the Voronoi diagram. [Limit: > 0] [Units: tiles]
	VoronoiSampleSpacing float64

	/// Skeleton leaves with clearance below this are pruned, and isolated
	/// nodes above it become regions. [Units: tiles]
	MinObstacleDistance float64

	/// A leaf is kept only if its clearance exceeds its neighbour's by more than this. [Units: tiles]
	LeafClearanceMargin float64

	/// Relative clearance difference needed to flip between region and chokepoint.
	HysteresisCoefficient float64

	/// Absolute lower bound of the hysteresis difference. [Units: tiles]
	HysteresisMinimum float64

	/// Adjacent chokepoint/region pairs closer than this collapse. [Units: tiles]
	CollapseDistance float64

	/// Number of nearest obstacle segments examined per chokepoint side query.
	SideQueryCount int

	/// Relative extension of each chokepoint side segment at both ends.
	CutterExtension float64

	/// Half width of the cutter rectangle laid over a chokepoint. [Units: tiles]
	CutterHalfWidth float64

	/// Mean heights closer than this share a height level. [Units: height]
	HeightLevelTolerance float64

	/// Cell size of the segment spatial index. [Units: tiles]
	SegmentCellSize float64

	Logger *zap.Logger
}

// DefaultConfig returns the tuning used for standard melee maps.
func DefaultConfig() Config {
	return Config{
		RampHeightDelta:       0.175,
		InnerWalkableRadius:   2,
		MaxContourPoints:      1 << 20,
		ExtractInternal:       true,
		CleanDistance:         0.01,
		SimplifyMaxError:      0.75,
		SimplifyMinAngle:      4,
		VoronoiSampleSpacing:  0.5,
		MinObstacleDistance:   2.5,
		LeafClearanceMargin:   0.9,
		HysteresisCoefficient: 0.21,
		HysteresisMinimum:     2.0,
		CollapseDistance:      6.0,
		SideQueryCount:        10,
		CutterExtension:       0.1,
		CutterHalfWidth:       0.25,
		HeightLevelTolerance:  0.1,
		SegmentCellSize:       4,
		Logger:                zap.NewNop(),
	}
}

func (cfg *Config) logger() *zap.Logger {
	if cfg.Logger == nil {
		return zap.NewNop()
	}
	return cfg.Logger
}
