package terrain

import (
	"slices"

	"github.com/zyedidia/generic/mapset"

	"github.com/noorus/hivemind-sub000/common"
)

type NodeType uint8

const (
	NodeNone NodeType = iota
	NodeRegion
	NodeChokepoint
)

func (t NodeType) String() string {
	switch t {
	case NodeRegion:
		return "region"
	case NodeChokepoint:
		return "chokepoint"
	}
	return "none"
}

type SkeletonNode struct {
	Pos       common.Vec2
	Clearance float64
	Type      NodeType
	Removed   bool
}

// SkeletonGraph is an undirected graph over free-space medial points.
// Node ids are stable; removed nodes keep their slot.
type SkeletonGraph struct {
	Nodes []SkeletonNode
	adj   []mapset.Set[int]
}

func NewSkeletonGraph() *SkeletonGraph {
	return &SkeletonGraph{}
}

func (g *SkeletonGraph) AddNode(pos common.Vec2, clearance float64) int {
	g.Nodes = append(g.Nodes, SkeletonNode{Pos: pos, Clearance: clearance})
	g.adj = append(g.adj, mapset.New[int]())
	return len(g.Nodes) - 1
}

// AddEdge links a and b. Self-loops are ignored.
func (g *SkeletonGraph) AddEdge(a, b int) {
	if a == b {
		return
	}
	g.adj[a].Put(b)
	g.adj[b].Put(a)
}

func (g *SkeletonGraph) RemoveEdge(a, b int) {
	g.adj[a].Remove(b)
	g.adj[b].Remove(a)
}

func (g *SkeletonGraph) HasEdge(a, b int) bool {
	return g.adj[a].Has(b)
}

// RemoveNode unlinks n and marks it removed.
func (g *SkeletonGraph) RemoveNode(n int) {
	for _, m := range g.Neighbors(n) {
		g.adj[m].Remove(n)
	}
	g.adj[n] = mapset.New[int]()
	g.Nodes[n].Removed = true
}

func (g *SkeletonGraph) Degree(n int) int {
	return g.adj[n].Size()
}

// Neighbors returns the neighbours of n in ascending id order.
func (g *SkeletonGraph) Neighbors(n int) []int {
	res := make([]int, 0, g.adj[n].Size())
	g.adj[n].Each(func(m int) {
		res = append(res, m)
	})
	slices.Sort(res)
	return res
}

func (g *SkeletonGraph) Len() int {
	return len(g.Nodes)
}

// Live returns the ids of nodes that were not removed.
func (g *SkeletonGraph) Live() []int {
	var res []int
	for i := range g.Nodes {
		if !g.Nodes[i].Removed {
			res = append(res, i)
		}
	}
	return res
}

func (g *SkeletonGraph) EdgeCount() int {
	n := 0
	for i := range g.adj {
		n += g.adj[i].Size()
	}
	return n / 2
}

// Count returns the number of live nodes of type t.
func (g *SkeletonGraph) Count(t NodeType) int {
	n := 0
	for i := range g.Nodes {
		if !g.Nodes[i].Removed && g.Nodes[i].Type == t {
			n++
		}
	}
	return n
}

func (g *SkeletonGraph) Clone() *SkeletonGraph {
	c := &SkeletonGraph{
		Nodes: slices.Clone(g.Nodes),
		adj:   make([]mapset.Set[int], len(g.adj)),
	}
	for i := range g.adj {
		c.adj[i] = mapset.New[int]()
		g.adj[i].Each(func(m int) {
			c.adj[i].Put(m)
		})
	}
	return c
}
