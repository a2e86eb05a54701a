package terrain

// SimplifyGraph reduces a classified skeleton to its Region and Chokepoint
// nodes, joining consecutive kept nodes directly, then merges adjacent
// regions into the one with higher clearance. Node ids are those of raw.
// The returned map sends every merged region to the id that absorbed it.
func SimplifyGraph(raw *SkeletonGraph) (*SkeletonGraph, map[int]int) {
	g := NewSkeletonGraph()
	for i := range raw.Nodes {
		g.AddNode(raw.Nodes[i].Pos, raw.Nodes[i].Clearance)
		g.Nodes[i].Type = raw.Nodes[i].Type
		g.Nodes[i].Removed = raw.Nodes[i].Removed || raw.Nodes[i].Type == NodeNone
	}

	for _, n := range raw.Live() {
		if raw.Nodes[n].Type == NodeNone {
			continue
		}
		for _, first := range raw.Neighbors(n) {
			if m := walkToClassified(raw, n, first); m >= 0 && m != n {
				g.AddEdge(n, m)
			}
		}
	}

	remap := make(map[int]int)
	for mergeRegions(g, remap) {
	}
	return g, remap
}

// walkToClassified follows unclassified degree-2 nodes from n through first.
func walkToClassified(g *SkeletonGraph, n, first int) int {
	prev, cur := n, first
	for steps := 0; steps <= g.Len(); steps++ {
		if g.Nodes[cur].Type != NodeNone {
			return cur
		}
		nb := g.Neighbors(cur)
		if len(nb) != 2 {
			return -1
		}
		next := nb[0]
		if next == prev {
			next = nb[1]
		}
		prev, cur = cur, next
	}
	return -1
}

// mergeRegions merges the first pair of adjacent regions it finds and
// reports whether it did.
func mergeRegions(g *SkeletonGraph, remap map[int]int) bool {
	for _, a := range g.Live() {
		if g.Nodes[a].Type != NodeRegion {
			continue
		}
		for _, b := range g.Neighbors(a) {
			if g.Nodes[b].Type != NodeRegion {
				continue
			}
			keep, drop := a, b
			if g.Nodes[b].Clearance > g.Nodes[a].Clearance {
				keep, drop = b, a
			}
			replaceNeighbour(g, drop, keep)
			remap[drop] = keep
			return true
		}
	}
	return false
}

// replaceNeighbour moves every edge of drop onto keep and removes drop.
func replaceNeighbour(g *SkeletonGraph, drop, keep int) {
	for _, m := range g.Neighbors(drop) {
		if m != keep {
			g.AddEdge(keep, m)
		}
	}
	g.RemoveNode(drop)
}

// resolveRemap follows merge links to the surviving node.
func resolveRemap(remap map[int]int, n int) int {
	for steps := 0; steps <= len(remap); steps++ {
		next, ok := remap[n]
		if !ok {
			return n
		}
		n = next
	}
	return n
}
