package terrain

import (
	"math"
	"sort"

	"github.com/noorus/hivemind-sub000/common"
)

// Segment is an obstacle boundary segment. Chain identifies the ring it was
// taken from and Index its position along that ring.
type Segment struct {
	A, B  common.Vec2
	Chain int
	Index int
}

// SegmentHit is the result of a nearest segment query.
type SegmentHit struct {
	Segment int
	Point   common.Vec2
	Dist    float64
}

// SegmentIndex is a uniform grid over segment bounding boxes. Queries reuse
// internal scratch space and must not run concurrently.
type SegmentIndex struct {
	segs       []Segment
	cell       float64
	origin     common.Vec2
	cols, rows int
	buckets    [][]int32
	stamp      []uint32
	query      uint32
}

func NewSegmentIndex(segs []Segment, cellSize float64) *SegmentIndex {
	if cellSize <= 0 {
		cellSize = 4
	}
	idx := &SegmentIndex{segs: segs, cell: cellSize, stamp: make([]uint32, len(segs))}
	if len(segs) == 0 {
		return idx
	}
	lo := common.Vec2{math.Inf(1), math.Inf(1)}
	hi := common.Vec2{math.Inf(-1), math.Inf(-1)}
	for _, s := range segs {
		lo = common.Vec2{math.Min(lo[0], math.Min(s.A[0], s.B[0])), math.Min(lo[1], math.Min(s.A[1], s.B[1]))}
		hi = common.Vec2{math.Max(hi[0], math.Max(s.A[0], s.B[0])), math.Max(hi[1], math.Max(s.A[1], s.B[1]))}
	}
	idx.origin = lo
	idx.cols = int((hi[0]-lo[0])/cellSize) + 1
	idx.rows = int((hi[1]-lo[1])/cellSize) + 1
	idx.buckets = make([][]int32, idx.cols*idx.rows)
	for i, s := range segs {
		x0, y0 := idx.cellOf(common.Vec2{math.Min(s.A[0], s.B[0]), math.Min(s.A[1], s.B[1])})
		x1, y1 := idx.cellOf(common.Vec2{math.Max(s.A[0], s.B[0]), math.Max(s.A[1], s.B[1])})
		for y := common.Clamp(y0, 0, idx.rows-1); y <= common.Clamp(y1, 0, idx.rows-1); y++ {
			for x := common.Clamp(x0, 0, idx.cols-1); x <= common.Clamp(x1, 0, idx.cols-1); x++ {
				b := y*idx.cols + x
				idx.buckets[b] = append(idx.buckets[b], int32(i))
			}
		}
	}
	return idx
}

func (idx *SegmentIndex) cellOf(p common.Vec2) (int, int) {
	return int(math.Floor((p[0] - idx.origin[0]) / idx.cell)), int(math.Floor((p[1] - idx.origin[1]) / idx.cell))
}

func (idx *SegmentIndex) Segments() []Segment {
	return idx.segs
}

func (idx *SegmentIndex) Len() int {
	return len(idx.segs)
}

// Nearest returns the segment closest to p.
func (idx *SegmentIndex) Nearest(p common.Vec2) (SegmentHit, bool) {
	hits := idx.KNearest(p, 1)
	if len(hits) == 0 {
		return SegmentHit{}, false
	}
	return hits[0], true
}

// KNearest returns up to k segments ordered by distance to p. Ties keep
// segment order.
func (idx *SegmentIndex) KNearest(p common.Vec2, k int) []SegmentHit {
	if k <= 0 || len(idx.segs) == 0 {
		return nil
	}
	idx.query++
	if idx.query == 0 {
		clear(idx.stamp)
		idx.query = 1
	}
	cx, cy := idx.cellOf(p)
	maxR := max(common.Abs(cx), common.Abs(idx.cols-1-cx), common.Abs(cy), common.Abs(idx.rows-1-cy))

	hits := make([]SegmentHit, 0, k+1)
	consider := func(bucket []int32) {
		for _, si := range bucket {
			if idx.stamp[si] == idx.query {
				continue
			}
			idx.stamp[si] = idx.query
			s := idx.segs[si]
			q, _ := common.ClosestPtSeg2(p, s.A, s.B)
			h := SegmentHit{Segment: int(si), Point: q, Dist: common.Vdist2(p, q)}
			pos := sort.Search(len(hits), func(i int) bool {
				return hits[i].Dist > h.Dist || (hits[i].Dist == h.Dist && hits[i].Segment > h.Segment)
			})
			if pos >= k {
				continue
			}
			hits = append(hits, SegmentHit{})
			copy(hits[pos+1:], hits[pos:])
			hits[pos] = h
			if len(hits) > k {
				hits = hits[:k]
			}
		}
	}

	for r := 0; r <= maxR; r++ {
		for y := cy - r; y <= cy+r; y++ {
			if y < 0 || y >= idx.rows {
				continue
			}
			step := 1
			if y != cy-r && y != cy+r {
				step = 2 * r
			}
			for x := cx - r; x <= cx+r; x += max(step, 1) {
				if x < 0 || x >= idx.cols {
					continue
				}
				consider(idx.buckets[y*idx.cols+x])
			}
		}
		if len(hits) == k && hits[k-1].Dist < float64(r)*idx.cell {
			break
		}
	}
	return hits
}
