package terrain

import (
	"math"
	"sort"

	"github.com/noorus/hivemind-sub000/common"
)

// parentState is the chain of classified ancestors along a branch. Entries
// whose node has since been demoted are skipped.
type parentState struct {
	node int
	prev *parentState
}

type classifyItem struct {
	node, from int
	parent     *parentState
}

type nodeClassifier struct {
	g       *SkeletonGraph
	cfg     *Config
	visited []bool
	state   []*parentState
	work    Stack[classifyItem]
}

// ClassifyNodes labels the nodes of a pruned skeleton as Region or
// Chokepoint. Region nodes are clearance maxima and junctions, chokepoints
// are clearance minima separated from their parent by the hysteresis gap.
func ClassifyNodes(g *SkeletonGraph, cfg *Config) {
	c := &nodeClassifier{
		g:       g,
		cfg:     cfg,
		visited: make([]bool, g.Len()),
		state:   make([]*parentState, g.Len()),
		work:    NewStack(func() classifyItem { return classifyItem{node: -1} }),
	}
	live := g.Live()
	for _, n := range live {
		if g.Degree(n) == 1 && !c.visited[n] {
			c.runFromRoot(n)
		}
	}
	// leafless components start from their widest node
	for {
		root := -1
		for _, n := range live {
			if c.visited[n] {
				continue
			}
			if root < 0 || g.Nodes[n].Clearance > g.Nodes[root].Clearance {
				root = n
			}
		}
		if root < 0 {
			break
		}
		c.runFromRoot(root)
	}
	c.sanitize()
}

func (c *nodeClassifier) runFromRoot(root int) {
	g := c.g
	g.Nodes[root].Type = NodeRegion
	c.visited[root] = true
	rec := &parentState{node: root}
	c.state[root] = rec
	for _, m := range g.Neighbors(root) {
		c.work.Push(classifyItem{node: m, from: root, parent: rec})
	}

	for !c.work.Empty() {
		it := c.work.Pop()
		parent := c.live(it.parent)
		if c.visited[it.node] {
			c.reconnect(it.node, parent)
			continue
		}
		c.visited[it.node] = true
		rec := parent
		if c.classify(it.node, parent) {
			rec = &parentState{node: it.node, prev: parent}
		}
		c.state[it.node] = rec
		for _, m := range g.Neighbors(it.node) {
			if m != it.from {
				c.work.Push(classifyItem{node: m, from: it.node, parent: rec})
			}
		}
	}
}

func (c *nodeClassifier) live(p *parentState) *parentState {
	for p != nil && c.g.Nodes[p.node].Type == NodeNone {
		p = p.prev
	}
	return p
}

func (c *nodeClassifier) threshold(a, b float64) float64 {
	return math.Max(c.cfg.HysteresisCoefficient*math.Max(a, b), c.cfg.HysteresisMinimum)
}

// classify sets the type of n and reports whether it was classified.
func (c *nodeClassifier) classify(n int, parent *parentState) bool {
	g := c.g
	node := &g.Nodes[n]
	if g.Degree(n) != 2 {
		node.Type = NodeRegion
		return true
	}
	nb := g.Neighbors(n)
	c1, c2 := g.Nodes[nb[0]].Clearance, g.Nodes[nb[1]].Clearance
	cl := node.Clearance
	isMin := cl <= c1 && cl <= c2 && (cl < c1 || cl < c2)
	isMax := cl >= c1 && cl >= c2 && (cl > c1 || cl > c2)

	switch {
	case isMin:
		if parent == nil {
			return false
		}
		p := &g.Nodes[parent.node]
		switch p.Type {
		case NodeChokepoint:
			if cl < p.Clearance {
				p.Type = NodeNone
				node.Type = NodeChokepoint
				return true
			}
		case NodeRegion:
			if p.Clearance-cl >= c.threshold(cl, p.Clearance) {
				node.Type = NodeChokepoint
				return true
			}
		}
	case isMax:
		if parent == nil {
			node.Type = NodeRegion
			return true
		}
		p := &g.Nodes[parent.node]
		switch p.Type {
		case NodeChokepoint:
			if cl-p.Clearance >= c.threshold(cl, p.Clearance) {
				node.Type = NodeRegion
				return true
			}
		case NodeRegion:
			if cl > p.Clearance {
				if g.Degree(parent.node) == 2 {
					p.Type = NodeNone
				}
				node.Type = NodeRegion
				return true
			}
		}
	}
	return false
}

// reconnect resolves two branches meeting at the visited node n.
func (c *nodeClassifier) reconnect(n int, parent *parentState) {
	other := c.live(c.state[n])
	if parent == nil || other == nil || parent.node == other.node {
		return
	}
	g := c.g
	a, b := &g.Nodes[parent.node], &g.Nodes[other.node]
	switch {
	case a.Type == NodeChokepoint && b.Type == NodeChokepoint:
		if b.Clearance < a.Clearance || (b.Clearance == a.Clearance && other.node < parent.node) {
			a.Type = NodeNone
		} else {
			b.Type = NodeNone
		}
	case a.Type != b.Type:
		if common.Vdist2(a.Pos, b.Pos) >= c.cfg.CollapseDistance {
			return
		}
		if a.Type == NodeChokepoint {
			a.Type = NodeNone
		} else {
			b.Type = NodeNone
		}
	}
}

// nearestClassified walks from n through from's side until a classified
// node is reached. Returns -1 at a dead end or when the walk loops.
func (c *nodeClassifier) nearestClassified(n, first int) int {
	g := c.g
	prev, cur := n, first
	for steps := 0; steps < g.Len(); steps++ {
		if cur == n {
			return -1
		}
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

// sanitize keeps only the lower of two chokepoints with no classified node
// between them.
func (c *nodeClassifier) sanitize() {
	g := c.g
	var chokes []int
	for _, n := range g.Live() {
		if g.Nodes[n].Type == NodeChokepoint {
			chokes = append(chokes, n)
		}
	}
	sort.SliceStable(chokes, func(i, j int) bool {
		return g.Nodes[chokes[i]].Clearance < g.Nodes[chokes[j]].Clearance
	})
	for _, n := range chokes {
		if g.Nodes[n].Type != NodeChokepoint {
			continue
		}
		for _, first := range g.Neighbors(n) {
			if m := c.nearestClassified(n, first); m >= 0 && g.Nodes[m].Type == NodeChokepoint {
				g.Nodes[m].Type = NodeNone
			}
		}
	}
}
