package terrain

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noorus/hivemind-sub000/common"
)

func bruteNearest(segs []Segment, p common.Vec2, k int) []SegmentHit {
	hits := make([]SegmentHit, len(segs))
	for i, s := range segs {
		q, _ := common.ClosestPtSeg2(p, s.A, s.B)
		hits[i] = SegmentHit{Segment: i, Point: q, Dist: common.Vdist2(p, q)}
	}
	slices.SortStableFunc(hits, func(a, b SegmentHit) int {
		switch {
		case a.Dist < b.Dist:
			return -1
		case a.Dist > b.Dist:
			return 1
		}
		return a.Segment - b.Segment
	})
	return hits[:min(k, len(hits))]
}

func TestSegmentIndexMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var segs []Segment
	for i := 0; i < 200; i++ {
		a := common.Vec2{rng.Float64() * 64, rng.Float64() * 64}
		b := a.Add(common.Vec2{rng.Float64()*6 - 3, rng.Float64()*6 - 3})
		segs = append(segs, Segment{A: a, B: b, Chain: i / 10, Index: i % 10})
	}
	idx := NewSegmentIndex(segs, 4)
	assert.Equal(t, 200, idx.Len())

	for i := 0; i < 300; i++ {
		p := common.Vec2{rng.Float64()*80 - 8, rng.Float64()*80 - 8}
		for _, k := range []int{1, 3, 10} {
			got := idx.KNearest(p, k)
			want := bruteNearest(segs, p, k)
			require.Len(t, got, len(want))
			for j := range want {
				assert.Equal(t, want[j].Segment, got[j].Segment, "query %v k=%d rank %d", p, k, j)
				assert.InDelta(t, want[j].Dist, got[j].Dist, 1e-12)
			}
		}
		hit, ok := idx.Nearest(p)
		require.True(t, ok)
		assert.Equal(t, bruteNearest(segs, p, 1)[0].Segment, hit.Segment)
	}
}

func TestSegmentIndexEmpty(t *testing.T) {
	idx := NewSegmentIndex(nil, 4)
	_, ok := idx.Nearest(common.Vec2{1, 1})
	assert.False(t, ok)
	assert.Empty(t, idx.KNearest(common.Vec2{1, 1}, 3))
}

func TestSegmentIndexProjection(t *testing.T) {
	segs := []Segment{
		{A: common.Vec2{0, 0}, B: common.Vec2{10, 0}},
		{A: common.Vec2{0, 4}, B: common.Vec2{10, 4}},
	}
	idx := NewSegmentIndex(segs, 2)
	hits := idx.KNearest(common.Vec2{3, 1}, 2)
	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].Segment)
	assert.InDelta(t, 3, hits[0].Point[0], 1e-12)
	assert.InDelta(t, 0, hits[0].Point[1], 1e-12)
	assert.InDelta(t, 3, hits[1].Point[0], 1e-12)
	assert.InDelta(t, 4, hits[1].Point[1], 1e-12)
	assert.InDelta(t, 3, hits[1].Dist, 1e-12)
}
