package geometry

import (
	"math"

	"floorplan-engine/internal/planner/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ============================================================
// Tolerances
// ============================================================

const (
	PointTolerance        = 0.1  // точки с разницей координат меньше считаются равными
	ParallelEpsilon       = 1e-3 // определитель ниже — отрезки параллельны
	IntersectionOvershoot = 0.1  // допуск параметра пересечения за концами отрезка
	verticalEpsilon       = 1e-9
)

type Point = models.Point
type Segment = models.Segment

// ============================================================
// Points
// ============================================================

func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// PointsEqual сравнивает точки с допуском PointTolerance.
func PointsEqual(a, b Point) bool {
	return PointsNear(a, b, PointTolerance)
}

func PointsNear(a, b Point, tol float64) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol
}

func IsFinite(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

func Length(s Segment) float64 {
	return Distance(s.P1, s.P2)
}

// SameEndpoints — совпадение отрезков без учёта направления.
func SameEndpoints(a, b Segment) bool {
	return (PointsEqual(a.P1, b.P1) && PointsEqual(a.P2, b.P2)) ||
		(PointsEqual(a.P1, b.P2) && PointsEqual(a.P2, b.P1))
}

// ============================================================
// Segments
// ============================================================

// SegmentIntersection решает систему 2x2 для параметрического пересечения.
// Параметры за пределами [-0.1, 1.1] на любом из отрезков дают false.
func SegmentIntersection(s1, s2 Segment) (Point, bool) {
	dx1 := s1.P2.X - s1.P1.X
	dy1 := s1.P2.Y - s1.P1.Y
	dx2 := s2.P2.X - s2.P1.X
	dy2 := s2.P2.Y - s2.P1.Y

	det := dx1*dy2 - dy1*dx2
	if math.Abs(det) < ParallelEpsilon {
		return Point{}, false
	}

	ox := s2.P1.X - s1.P1.X
	oy := s2.P1.Y - s1.P1.Y
	t := (ox*dy2 - oy*dx2) / det
	u := (ox*dy1 - oy*dx1) / det

	lo, hi := -IntersectionOvershoot, 1+IntersectionOvershoot
	if t < lo || t > hi || u < lo || u > hi {
		return Point{}, false
	}

	return Point{X: s1.P1.X + t*dx1, Y: s1.P1.Y + t*dy1}, true
}

// ProjectPointOnSegment проецирует p на прямую ab; вне [0,1] или при a == b — false.
func ProjectPointOnSegment(p, a, b Point) (Point, bool) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 || PointsEqual(a, b) {
		return Point{}, false
	}

	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if t < 0 || t > 1 {
		return Point{}, false
	}

	return Point{X: a.X + t*dx, Y: a.Y + t*dy}, true
}

// DistanceToSegment — расстояние до ближайшей точки отрезка (с зажимом к концам).
func DistanceToSegment(p Point, s Segment) float64 {
	if proj, ok := ProjectPointOnSegment(p, s.P1, s.P2); ok {
		return Distance(p, proj)
	}
	return math.Min(Distance(p, s.P1), Distance(p, s.P2))
}

// PointOnSegment: проекция p попадает внутрь s и лежит не дальше tol.
func PointOnSegment(p Point, s Segment, tol float64) bool {
	proj, ok := ProjectPointOnSegment(p, s.P1, s.P2)
	if !ok {
		return false
	}
	return Distance(p, proj) <= tol
}

func orientation(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// SegmentsCross — строгое пересечение внутренних частей отрезков.
// Касание в конце и коллинеарное наложение не считаются.
func SegmentsCross(a, b Segment) bool {
	d1 := orientation(b.P1, b.P2, a.P1)
	d2 := orientation(b.P1, b.P2, a.P2)
	d3 := orientation(a.P1, a.P2, b.P1)
	d4 := orientation(a.P1, a.P2, b.P2)

	eps := 1e-9 * (1 + Length(a)*Length(b))
	if math.Abs(d1) < eps || math.Abs(d2) < eps || math.Abs(d3) < eps || math.Abs(d4) < eps {
		return false
	}
	return (d1 > 0) != (d2 > 0) && (d3 > 0) != (d4 > 0)
}

// SameSlope сравнивает наклоны; вертикальные отрезки обрабатываются отдельно.
func SameSlope(s1, s2 Segment, tol float64) bool {
	dx1 := s1.P2.X - s1.P1.X
	dx2 := s2.P2.X - s2.P1.X
	v1 := math.Abs(dx1) < verticalEpsilon
	v2 := math.Abs(dx2) < verticalEpsilon

	switch {
	case v1 && v2:
		return true
	case v1 != v2:
		return false
	}

	m1 := (s1.P2.Y - s1.P1.Y) / dx1
	m2 := (s2.P2.Y - s2.P1.Y) / dx2
	return math.Abs(m1-m2) < tol
}

// SnapToAngle округляет направление pivot->point до ближайших 45°, сохраняя длину.
func SnapToAngle(point, pivot Point) Point {
	dist := Distance(point, pivot)
	if dist == 0 {
		return point
	}

	step := math.Pi / 4
	angle := math.Atan2(point.Y-pivot.Y, point.X-pivot.X)
	snapped := math.Round(angle/step) * step

	return Point{
		X: pivot.X + cleanZero(dist*math.Cos(snapped)),
		Y: pivot.Y + cleanZero(dist*math.Sin(snapped)),
	}
}

// cleanZero убирает хвосты вида 6e-15 от cos(pi/2).
func cleanZero(v float64) float64 {
	if math.Abs(v) < 1e-9 {
		return 0
	}
	return v
}

// ============================================================
// Polygons
// ============================================================

// PolygonArea — площадь по формуле шнурка, по модулю.
func PolygonArea(points []Point) float64 {
	if len(points) < 3 {
		return 0
	}
	return math.Abs(planar.Area(models.RingOf(points)))
}

// Clockwise — обход многоугольника по часовой стрелке (в осях с Y вверх).
func Clockwise(points []Point) bool {
	if len(points) < 3 {
		return false
	}
	return models.RingOf(points).Orientation() == orb.CW
}

// SelfIntersects проверяет пересечение несмежных рёбер многоугольника.
func SelfIntersects(points []Point) bool {
	n := len(points)
	if n < 4 {
		return false
	}
	for i := 0; i < n; i++ {
		a := Segment{P1: points[i], P2: points[(i+1)%n]}
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			b := Segment{P1: points[j], P2: points[(j+1)%n]}
			if SegmentsCross(a, b) {
				return true
			}
		}
	}
	return false
}

// Contains — точка внутри многоугольника (граница считается внутренней).
func Contains(points []Point, p Point) bool {
	if len(points) < 3 {
		return false
	}
	return planar.RingContains(models.RingOf(points), p.Orb())
}

// InteriorPoint возвращает точку, гарантированно лежащую внутри простого многоугольника
// рядом с его первым достаточно длинным ребром.
func InteriorPoint(points []Point) (Point, bool) {
	n := len(points)
	if n < 3 {
		return Point{}, false
	}

	ring := models.RingOf(points)
	inward := 1.0
	if ring.Orientation() == orb.CW {
		inward = -1
	}

	for i := 0; i < n; i++ {
		a, b := points[i], points[(i+1)%n]
		l := Distance(a, b)
		if l < 1 {
			continue
		}
		// левая нормаль для CCW смотрит внутрь
		nx := -(b.Y - a.Y) / l * inward
		ny := (b.X - a.X) / l * inward
		for _, off := range []float64{0.5, 0.05} {
			p := Point{X: (a.X+b.X)/2 + nx*off, Y: (a.Y+b.Y)/2 + ny*off}
			if planar.RingContains(ring, p.Orb()) {
				return p, true
			}
		}
	}
	return Point{}, false
}
