package terrain

import (
	"math"
	"time"

	"go.uber.org/zap"
)

// Analyze runs the whole decomposition of in. Any error is fatal for the
// map; nothing of a partial run is returned.
func Analyze(in *MapInput, cfg Config) (*Map, error) {
	log := cfg.logger()
	total := time.Now()
	start := total
	stage := func(name string, fields ...zap.Field) {
		fields = append(fields, zap.String("stage", name), zap.Duration("elapsed", time.Since(start)))
		log.Debug("terrain stage done", fields...)
		start = time.Now()
	}

	flags, err := ClassifyGrid(in, &cfg)
	if err != nil {
		return nil, err
	}
	stage("classify grid", zap.Int("width", flags.Width), zap.Int("height", flags.Height), zap.Float64("maxHeight", flags.MaxHeight))

	labels, err := TraceContours(flags.WalkableMask(), flags.Width, flags.Height, &cfg)
	if err != nil {
		return nil, err
	}
	stage("trace contours", zap.Int("components", labels.Components), zap.Int("holes", labels.Holes), zap.Int("contours", len(labels.Contours)))

	polys := BuildPolygons(labels, &cfg)
	stage("build polygons", zap.Int("polygons", len(polys)))

	index := NewSegmentIndex(ObstacleSegments(polys, flags.Width, flags.Height), cfg.SegmentCellSize)
	raw, stats := BuildSkeleton(index, labels, &cfg)
	stage("build skeleton",
		zap.Int("segments", index.Len()),
		zap.Int("sites", stats.Sites),
		zap.Int("triangles", stats.Triangles),
		zap.Int("degenerate", stats.Degenerate),
		zap.Int("contracted", stats.Contracted),
		zap.Int("nodes", stats.Nodes),
		zap.Int("edges", stats.Edges))
	if stats.Degenerate > 0 {
		log.Warn("skipped degenerate voronoi edges", zap.Int("count", stats.Degenerate))
	}

	removed := PruneGraph(raw, &cfg)
	stage("prune graph", zap.Int("removed", removed), zap.Int("nodes", len(raw.Live())))

	ClassifyNodes(raw, &cfg)
	stage("classify nodes", zap.Int("regions", raw.Count(NodeRegion)), zap.Int("chokepoints", raw.Count(NodeChokepoint)))

	moved := RefineChokepoints(raw, index, &cfg)
	stage("refine chokepoints", zap.Int("moved", moved))

	simple, remap := SimplifyGraph(raw)
	stage("simplify graph", zap.Int("regions", simple.Count(NodeRegion)), zap.Int("merged", len(remap)))

	sides := ProjectSides(raw, index, &cfg)
	stage("project sides", zap.Int("chokepoints", len(sides)))

	part, err := PartitionRegions(polys, simple, raw, remap, sides, flags, &cfg)
	if err != nil {
		return nil, err
	}
	stage("partition regions", zap.Int("pieces", part.Pieces), zap.Int("regions", len(part.Regions)), zap.Int("fallbackTiles", part.Fallbacks))

	chokes := ConnectChokepoints(simple, remap, sides, part, flags.Width, &cfg)
	stage("connect chokepoints", zap.Int("chokepoints", len(chokes)), zap.Int("dropped", len(sides)-len(chokes)))

	assignRegionLabels(part, labels)

	m := newMap(flags, part.Regions, chokes, sides, part.TileRegions)
	m.Labels = labels
	m.TileKinds = part.TileKinds
	log.Info("terrain analysed",
		zap.Stringer("summary", m.Summary()),
		zap.Duration("elapsed", time.Since(total)))
	return m, nil
}

// assignRegionLabels gives every region the component label under its
// position, or under its first tile when the position misses the component.
func assignRegionLabels(part *Partition, labels *ContourSet) {
	for i := range part.Regions {
		r := &part.Regions[i]
		r.Label = labels.Label(int(math.Floor(r.Pos[0])), int(math.Floor(r.Pos[1])))
	}
	for i, rid := range part.TileRegions {
		if rid < 0 {
			continue
		}
		if r := &part.Regions[rid]; r.Label <= 0 {
			r.Label = labels.Labels[i]
		}
	}
	for i := range part.Regions {
		part.Regions[i].Polygon.Label = part.Regions[i].Label
	}
}
