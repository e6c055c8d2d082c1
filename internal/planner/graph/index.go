package graph

import (
	"math"

	"floorplan-engine/internal/planner/geometry"
	"floorplan-engine/internal/planner/models"
)

// ============================================================
// Point Index
// ============================================================

type cellKey struct {
	x, y int64
}

// PointIndex склеивает близкие точки в один идентификатор.
// Сетка с ячейкой размером в допуск: поиск смотрит 3x3 соседних ячейки,
// поэтому точки по разные стороны границы ячейки тоже совпадают.
type PointIndex struct {
	tol    float64
	points []models.Point
	cells  map[cellKey][]int
}

func NewPointIndex(tol float64) *PointIndex {
	if tol <= 0 {
		tol = geometry.PointTolerance
	}
	return &PointIndex{
		tol:   tol,
		cells: make(map[cellKey][]int),
	}
}

func (ix *PointIndex) key(p models.Point) cellKey {
	return cellKey{
		x: int64(math.Floor(p.X / ix.tol)),
		y: int64(math.Floor(p.Y / ix.tol)),
	}
}

// Find ищет ближайшую уже известную точку в пределах допуска.
func (ix *PointIndex) Find(p models.Point) (int, bool) {
	k := ix.key(p)
	best, bestDist := -1, math.MaxFloat64
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, id := range ix.cells[cellKey{x: k.x + dx, y: k.y + dy}] {
				q := ix.points[id]
				if !geometry.PointsNear(p, q, ix.tol) {
					continue
				}
				if d := geometry.Distance(p, q); d < bestDist {
					best, bestDist = id, d
				}
			}
		}
	}
	return best, best >= 0
}

// Insert возвращает id существующей точки или регистрирует новую.
func (ix *PointIndex) Insert(p models.Point) int {
	if id, ok := ix.Find(p); ok {
		return id
	}
	id := len(ix.points)
	ix.points = append(ix.points, p)
	k := ix.key(p)
	ix.cells[k] = append(ix.cells[k], id)
	return id
}

func (ix *PointIndex) Point(id int) models.Point {
	return ix.points[id]
}

func (ix *PointIndex) Len() int {
	return len(ix.points)
}
