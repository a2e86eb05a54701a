package terrain

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// obstacleMap scatters count rectangular obstacles over an open w by h map.
func obstacleMap(seed int64, w, h, count int) *MapInput {
	rnd := rand.New(rand.NewSource(seed))
	rows := make([][]byte, h)
	for y := range rows {
		rows[y] = make([]byte, w)
		for x := range rows[y] {
			rows[y][x] = '.'
		}
	}
	for i := 0; i < count; i++ {
		bw, bh := 2+rnd.Intn(8), 2+rnd.Intn(8)
		x0, y0 := rnd.Intn(w-bw), rnd.Intn(h-bh)
		for y := y0; y < y0+bh; y++ {
			for x := x0; x < x0+bw; x++ {
				rows[y][x] = '#'
			}
		}
	}
	str := make([]string, h)
	for y := range rows {
		str[y] = string(rows[y])
	}
	return mapFromRows(str...)
}

func TestPipelineInvariants(t *testing.T) {
	cases := []struct {
		name string
		in   *MapInput
		// maxDropped bounds the chokepoints the connector may drop; -1 only
		// requires every dropped cut to leave a single region on its flanks
		maxDropped int
	}{
		{"pinch", pinchMap(), 0},
		{"open", openMap(24, 24), 0},
	}
	for seed := int64(1); seed <= 6; seed++ {
		cases = append(cases, struct {
			name       string
			in         *MapInput
			maxDropped int
		}{fmt.Sprintf("obstacles-%d", seed), obstacleMap(seed, 48, 48, 10), -1})
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			flags, err := ClassifyGrid(tc.in, &cfg)
			require.NoError(t, err)
			labels, err := TraceContours(flags.WalkableMask(), flags.Width, flags.Height, &cfg)
			require.NoError(t, err)
			polys := BuildPolygons(labels, &cfg)
			index := NewSegmentIndex(ObstacleSegments(polys, flags.Width, flags.Height), cfg.SegmentCellSize)
			raw, _ := BuildSkeleton(index, labels, &cfg)

			PruneGraph(raw, &cfg)
			assert.Zero(t, PruneGraph(raw.Clone(), &cfg), "pruning is idempotent")

			ClassifyNodes(raw, &cfg)
			RefineChokepoints(raw, index, &cfg)
			for _, n := range raw.Live() {
				if raw.Nodes[n].Type == NodeChokepoint {
					assert.Equal(t, 2, raw.Degree(n), "chokepoint %d", n)
				}
			}

			simple, remap := SimplifyGraph(raw)
			for _, a := range simple.Live() {
				if simple.Nodes[a].Type == NodeChokepoint {
					assert.LessOrEqual(t, simple.Degree(a), 2, "chokepoint %d", a)
					continue
				}
				for _, b := range simple.Neighbors(a) {
					assert.False(t, simple.Nodes[a].Type == NodeRegion && simple.Nodes[b].Type == NodeRegion,
						"adjacent regions %d-%d", a, b)
				}
			}

			sides := ProjectSides(raw, index, &cfg)
			part, err := PartitionRegions(polys, simple, raw, remap, sides, flags, &cfg)
			require.NoError(t, err)
			assert.Equal(t, part.Pieces, len(part.Regions), "one region per piece")

			chokes := ConnectChokepoints(simple, remap, sides, part, flags.Width, &cfg)
			connected := make(map[int]bool)
			for _, c := range chokes {
				connected[c.Node] = true
				assert.NotEqual(t, c.Regions[0], c.Regions[1])
				for _, r := range c.Regions {
					assert.True(t, part.Regions[r].Chokepoints.Has(c.ID))
				}
			}
			dropped := 0
			for n, s := range sides {
				if connected[n] || simple.Nodes[n].Removed || simple.Nodes[n].Type != NodeChokepoint {
					continue
				}
				dropped++
				assert.Less(t, len(regionsAcross(part, s, &cfg)), 2, "chokepoint %d separates regions but was dropped", n)
			}
			if tc.maxDropped >= 0 {
				assert.LessOrEqual(t, dropped, tc.maxDropped)
			}

			m, err := Analyze(tc.in, cfg)
			require.NoError(t, err)
			checkCoverage(t, m)
			assert.Len(t, m.Chokepoints, len(chokes))
		})
	}
}
