package terrain

import (
	clipper "github.com/ctessum/go.clipper"
)

func toPath(ring Polygon) clipper.Path {
	path := make(clipper.Path, 0, len(ring))
	for _, v := range ring {
		f := ToFixed(v)
		path = append(path, &clipper.IntPoint{X: clipper.CInt(f.X), Y: clipper.CInt(f.Y)})
	}
	return path
}

func fromPath(path clipper.Path) FixedPolygon {
	ring := make(FixedPolygon, 0, len(path))
	for _, p := range path {
		ring = append(ring, FixedPoint{X: int64(p.X), Y: int64(p.Y)})
	}
	return removeCollinear(ring)
}

// orientRing returns ring with the sign of its area matching positive.
func orientRing(ring FixedPolygon, positive bool) FixedPolygon {
	if (ring.area2() > 0) != positive {
		for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
			ring[i], ring[j] = ring[j], ring[i]
		}
	}
	return ring
}

// Difference subtracts the union of clip from subject and returns the
// resulting simple pieces, each with its holes. Pieces touching in a single
// vertex come back separately. The operation runs on FixedPoint coordinates.
func Difference(subject []PolygonWithHoles, clip []Polygon) ([]PolygonWithHoles, error) {
	c := clipper.NewClipper(clipper.IoStrictlySimple)
	for i := range subject {
		for _, ring := range subject[i].Rings() {
			if len(ring) >= 3 {
				c.AddPath(toPath(ring), clipper.PtSubject, true)
			}
		}
	}
	for _, ring := range clip {
		if len(ring) < 3 {
			continue
		}
		// overlapping cutters must wind the same way under the non-zero rule
		c.AddPath(toPath(orientRing(ring.Fixed(), true).Float()), clipper.PtClip, true)
	}
	tree, ok := c.Execute2(clipper.CtDifference, clipper.PftEvenOdd, clipper.PftNonZero)
	if !ok {
		return nil, analysisError("partition", ErrClipFailed, "%d subject polygons, %d cutters", len(subject), len(clip))
	}

	var pieces []PolygonWithHoles
	var collect func(outers []*clipper.PolyNode)
	collect = func(outers []*clipper.PolyNode) {
		for _, node := range outers {
			outer := fromPath(node.Contour())
			if len(outer) < 3 {
				continue
			}
			piece := PolygonWithHoles{Outer: orientRing(outer, true).Float()}
			for _, h := range node.Childs() {
				if hole := fromPath(h.Contour()); len(hole) >= 3 {
					piece.Holes = append(piece.Holes, orientRing(hole, false).Float())
				}
				// islands inside a hole are pieces of their own
				collect(h.Childs())
			}
			pieces = append(pieces, piece)
		}
	}
	collect(tree.Childs())
	return pieces, nil
}
