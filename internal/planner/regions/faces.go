package regions

import (
	"log"

	"floorplan-engine/internal/planner/geometry"
	"floorplan-engine/internal/planner/graph"
	"floorplan-engine/internal/planner/models"
)

// ============================================================
// Exterior faces
// ============================================================

type dart [2]int

// ExteriorRegions обходит грани плоского графа по ротационной системе.
// Для каждой связной компоненты внешней считается грань с наибольшей площадью.
// При равных площадях (один цикл: внутренняя и внешняя грань совпадают по
// модулю) берётся грань, обойдённая по часовой стрелке: при таком правиле
// обхода ограниченные грани идут против часовой, внешняя по часовой.
func ExteriorRegions(segments []models.Segment) []models.Region {
	g := graph.Build(segments)
	g.SortByAngle()

	var out []models.Region
	for _, comp := range g.Components() {
		faces := traceFaces(g, comp)

		var best []int
		bestArea := 0.0
		for _, face := range faces {
			points := g.Points(face)
			area := geometry.PolygonArea(points)
			switch {
			case area > bestArea+areaEpsilon(bestArea):
				best, bestArea = face, area
			case best != nil && area >= bestArea-areaEpsilon(bestArea) &&
				geometry.Clockwise(points) && !geometry.Clockwise(g.Points(best)):
				best, bestArea = face, area
			}
		}
		if best == nil || bestArea <= MinRegionArea {
			continue
		}

		out = append(out, models.Region{
			Kind:   models.RegionExterior,
			Points: g.Points(best),
			Area:   bestArea,
		})
	}
	return out
}

// traceFaces: из вершины b следующим берётся ребро, идущее сразу за обратным
// ребром (b,a) в угловом порядке; обход грани заканчивается на стартовом ребре.
func traceFaces(g *graph.Graph, comp []int) [][]int {
	visited := make(map[dart]bool)
	limit := 0
	for _, id := range comp {
		limit += g.Degree(id)
	}

	var faces [][]int
	for _, u := range comp {
		for _, v := range g.Nodes[u].Connections {
			if visited[dart{u, v}] {
				continue
			}

			var face []int
			a, b := u, v
			for {
				visited[dart{a, b}] = true
				face = append(face, a)

				conns := g.Nodes[b].Connections
				next := conns[(indexOf(conns, a)+1)%len(conns)]
				a, b = b, next

				if a == u && b == v {
					break
				}
				if len(face) > limit {
					log.Printf("[REGIONS] face walk from %d did not close, dropped", u)
					face = nil
					break
				}
			}

			if face != nil {
				faces = append(faces, face)
			}
		}
	}
	return faces
}

func areaEpsilon(area float64) float64 {
	return 1e-9 * (1 + area)
}

func indexOf(list []int, v int) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}
