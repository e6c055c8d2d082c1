package regions

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"floorplan-engine/internal/planner/geometry"
	"floorplan-engine/internal/planner/graph"
	"floorplan-engine/internal/planner/models"
)

// ============================================================
// Closed regions (rooms)
// ============================================================

const (
	MaxCycleDepth  = 20     // потолок глубины поиска цикла
	MinRegionArea  = 10.0   // меньшие циклы не считаются комнатами
	MaxSearchSteps = 200000 // бюджет шагов поиска из одного стартового ребра
)

type cycle struct {
	nodes  []int
	points []models.Point
	area   float64
	edges  map[[2]int]bool
	inner  models.Point
	inside bool
}

// ClosedRegions ищет комнаты: простые циклы графа стен, прошедшие проверки.
func ClosedRegions(segments []models.Segment) []models.Region {
	g := graph.Build(segments)
	g.SortByAngle()

	found, truncated := findCycles(g)
	if truncated {
		log.Printf("[REGIONS] cycle search truncated after %d steps, %d cycles kept", MaxSearchSteps, len(found))
	}

	seen := make(map[string]bool)
	var accepted []*cycle
	for _, nodes := range found {
		sig := signature(nodes)
		if seen[sig] {
			continue
		}
		seen[sig] = true

		c, ok := accept(g, nodes, segments)
		if ok {
			accepted = append(accepted, c)
		}
	}

	var out []models.Region
	for _, c := range minimal(accepted) {
		out = append(out, models.Region{Kind: models.RegionInterior, Points: c.points, Area: c.area})
	}
	return out
}

// findCycles — DFS на явном стеке. Цикл засчитывается только при возврате в
// стартовую вершину с путём из 3+ вершин; путь не длиннее MaxCycleDepth.
// Каждый цикл ищется только из своей минимальной вершины.
//
// Соседи перебираются в угловом порядке сразу за ребром, по которому пришли,
// поэтому первым из каждого стартового ребра находится обход грани. На нём
// поиск из этого ребра и останавливается. Бюджет шагов у каждого стартового
// ребра свой.
func findCycles(g *graph.Graph) ([][]int, bool) {
	type frame struct {
		node int
		base int // позиция ребра, по которому пришли, в списке соседей
		next int
	}

	var cycles [][]int
	truncated := false
	onPath := make([]bool, len(g.Nodes))

	for start := range g.Nodes {
		// минимальной вершине цикла нужны два соседа старше неё
		higher := 0
		for _, c := range g.Nodes[start].Connections {
			if c > start {
				higher++
			}
		}
		if higher < 2 {
			continue
		}
		onPath[start] = true

		for _, first := range g.Nodes[start].Connections {
			if first < start {
				continue
			}
			steps := 0
			stack := []frame{{node: first, base: indexOf(g.Nodes[first].Connections, start)}}
			onPath[first] = true

			for len(stack) > 0 {
				top := &stack[len(stack)-1]
				conns := g.Nodes[top.node].Connections
				if top.next >= len(conns) {
					onPath[top.node] = false
					stack = stack[:len(stack)-1]
					continue
				}

				nb := conns[(top.base+1+top.next)%len(conns)]
				top.next++

				steps++
				if steps > MaxSearchSteps {
					truncated = true
					break
				}

				if nb == start {
					if len(stack)+1 >= 3 {
						path := make([]int, 0, len(stack)+1)
						path = append(path, start)
						for _, f := range stack {
							path = append(path, f.node)
						}
						cycles = append(cycles, path)
						break
					}
					continue
				}
				if nb < start || onPath[nb] || len(stack)+1 >= MaxCycleDepth {
					continue
				}

				onPath[nb] = true
				stack = append(stack, frame{node: nb, base: indexOf(g.Nodes[nb].Connections, top.node)})
			}

			for _, f := range stack {
				onPath[f.node] = false
			}
		}

		onPath[start] = false
	}

	return cycles, truncated
}

// signature не зависит от направления обхода и стартовой вершины.
func signature(nodes []int) string {
	keys := make([]string, 0, len(nodes))
	for i := range nodes {
		a, b := nodes[i], nodes[(i+1)%len(nodes)]
		if a > b {
			a, b = b, a
		}
		keys = append(keys, fmt.Sprintf("%d-%d", a, b))
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

func accept(g *graph.Graph, nodes []int, segments []models.Segment) (*cycle, bool) {
	points := g.Points(nodes)

	area := geometry.PolygonArea(points)
	if area <= MinRegionArea {
		return nil, false
	}
	if geometry.SelfIntersects(points) {
		log.Printf("[REGIONS] skipped self-intersecting cycle of %d nodes", len(nodes))
		return nil, false
	}

	edges := make(map[[2]int]bool, len(nodes))
	for i := range nodes {
		a, b := nodes[i], nodes[(i+1)%len(nodes)]
		if a > b {
			a, b = b, a
		}
		edges[[2]int{a, b}] = true

		edge := models.Segment{P1: points[i], P2: points[(i+1)%len(points)]}
		for _, seg := range segments {
			if geometry.SameEndpoints(edge, seg) {
				continue
			}
			if geometry.SegmentsCross(edge, seg) {
				log.Printf("[REGIONS] skipped cycle crossed by foreign wall %v", seg)
				return nil, false
			}
		}
	}

	inner, inside := geometry.InteriorPoint(points)
	return &cycle{
		nodes:  nodes,
		points: points,
		area:   area,
		edges:  edges,
		inner:  inner,
		inside: inside,
	}, true
}

// minimal отбрасывает циклы, внутри которых лежит меньший цикл с общей стеной:
// перегородка делит комнату на две, а не на три.
func minimal(cycles []*cycle) []*cycle {
	var out []*cycle
	for _, c := range cycles {
		covered := false
		for _, d := range cycles {
			if d == c || d.area >= c.area || !d.inside {
				continue
			}
			if sharesEdge(c, d) && geometry.Contains(c.points, d.inner) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, c)
		}
	}
	return out
}

func sharesEdge(a, b *cycle) bool {
	for e := range b.edges {
		if a.edges[e] {
			return true
		}
	}
	return false
}
