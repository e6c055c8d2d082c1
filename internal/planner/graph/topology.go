package graph

import (
	"math"
	"sort"

	"floorplan-engine/internal/planner/geometry"
	"floorplan-engine/internal/planner/models"
)

// ============================================================
// Derived node graph
// ============================================================

// Node — вершина графа: одна координата, к которой сходятся концы отрезков.
type Node struct {
	ID          int
	Point       models.Point
	Connections []int
}

// Graph строится заново из плоского списка отрезков на каждый запрос.
type Graph struct {
	Nodes []Node
	index *PointIndex
}

// Build собирает граф смежности по концам отрезков.
func Build(segments []models.Segment) *Graph {
	g := &Graph{index: NewPointIndex(geometry.PointTolerance)}

	for _, seg := range segments {
		a := g.nodeFor(seg.P1)
		b := g.nodeFor(seg.P2)
		if a == b {
			continue
		}
		g.connect(a, b)
		g.connect(b, a)
	}

	return g
}

func (g *Graph) nodeFor(p models.Point) int {
	id := g.index.Insert(p)
	if id == len(g.Nodes) {
		g.Nodes = append(g.Nodes, Node{ID: id, Point: p})
	}
	return id
}

func (g *Graph) connect(from, to int) {
	for _, c := range g.Nodes[from].Connections {
		if c == to {
			return
		}
	}
	g.Nodes[from].Connections = append(g.Nodes[from].Connections, to)
}

// NodeAt находит вершину по координате с допуском.
func (g *Graph) NodeAt(p models.Point) (int, bool) {
	return g.index.Find(p)
}

func (g *Graph) HasEdge(a, b int) bool {
	for _, c := range g.Nodes[a].Connections {
		if c == b {
			return true
		}
	}
	return false
}

func (g *Graph) Degree(id int) int {
	return len(g.Nodes[id].Connections)
}

func (g *Graph) Points(ids []int) []models.Point {
	out := make([]models.Point, len(ids))
	for i, id := range ids {
		out[i] = g.Nodes[id].Point
	}
	return out
}

// Edges возвращает неориентированные рёбра (a < b).
func (g *Graph) Edges() [][2]int {
	var out [][2]int
	for _, n := range g.Nodes {
		for _, c := range n.Connections {
			if n.ID < c {
				out = append(out, [2]int{n.ID, c})
			}
		}
	}
	return out
}

// SortByAngle упорядочивает соседей каждой вершины по углу исходящего ребра (ротационная система).
func (g *Graph) SortByAngle() {
	for i := range g.Nodes {
		origin := g.Nodes[i].Point
		conns := g.Nodes[i].Connections
		sort.SliceStable(conns, func(a, b int) bool {
			pa := g.Nodes[conns[a]].Point
			pb := g.Nodes[conns[b]].Point
			return math.Atan2(pa.Y-origin.Y, pa.X-origin.X) < math.Atan2(pb.Y-origin.Y, pb.X-origin.X)
		})
	}
}

// Components разбивает вершины с рёбрами на связные компоненты.
func (g *Graph) Components() [][]int {
	seen := make([]bool, len(g.Nodes))
	var out [][]int

	for start := range g.Nodes {
		if seen[start] || len(g.Nodes[start].Connections) == 0 {
			continue
		}
		var comp []int
		stack := []int{start}
		seen[start] = true
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, id)
			for _, c := range g.Nodes[id].Connections {
				if !seen[c] {
					seen[c] = true
					stack = append(stack, c)
				}
			}
		}
		sort.Ints(comp)
		out = append(out, comp)
	}

	return out
}
