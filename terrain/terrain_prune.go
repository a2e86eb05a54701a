package terrain

// PruneGraph removes leaf branches that hug obstacles. A leaf goes when its
// clearance is below cfg.MinObstacleDistance or not more than
// cfg.LeafClearanceMargin above its neighbour's. Nodes left isolated become
// regions when they clear the minimum distance and are removed otherwise.
// Returns the number of removed nodes; a second run removes nothing.
func PruneGraph(g *SkeletonGraph, cfg *Config) int {
	queue := NewStack(func() int { return -1 })
	for _, n := range g.Live() {
		if g.Degree(n) <= 1 {
			queue.Push(n)
		}
	}

	removed := 0
	isolated := func(n int) {
		if g.Nodes[n].Clearance >= cfg.MinObstacleDistance {
			g.Nodes[n].Type = NodeRegion
			return
		}
		g.RemoveNode(n)
		removed++
	}

	for !queue.Empty() {
		n := queue.Pop()
		node := &g.Nodes[n]
		if node.Removed {
			continue
		}
		switch g.Degree(n) {
		case 0:
			isolated(n)
			continue
		case 1:
		default:
			continue
		}
		m := g.Neighbors(n)[0]
		if node.Clearance >= cfg.MinObstacleDistance && node.Clearance > g.Nodes[m].Clearance+cfg.LeafClearanceMargin {
			continue
		}
		g.RemoveNode(n)
		removed++
		switch g.Degree(m) {
		case 0:
			isolated(m)
		case 1:
			queue.Push(m)
		}
	}
	return removed
}
