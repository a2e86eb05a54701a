// Package terrain decomposes a static tile map into open-space regions joined
// by narrow chokepoints.
//
// The build runs once per map:
//
//	flags    := ClassifyGrid(input, cfg)          // walkable/buildable/ramp flags
//	contours := TraceContours(...)                // component labels and rings
//	polys    := BuildPolygons(...)                // cleaned polygons with holes
//	graph    := BuildSkeleton(...)                // medial graph with clearance
//	PruneGraph / ClassifyNodes / SimplifyGraph    // regions and chokepoints
//	ProjectSides / PartitionRegions / ConnectChokepoints
//
// Analyze wires all of the above and returns the owning Map. Load does the same
// but goes through a cache.Store first.
package terrain
