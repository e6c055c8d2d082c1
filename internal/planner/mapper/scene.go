package mapper

import (
	"math"

	"floorplan-engine/internal/planner/models"
	"floorplan-engine/internal/planner/regions"
)

// ============================================================
// Scene
// ============================================================

// ViewportPadding — поля вокруг рисунка.
const ViewportPadding = 50.0

// Scene — всё, что нужно рендерерам: стены, области и маркеры.
type Scene struct {
	Segments []models.Segment
	Interior []models.Region
	Exterior []models.Region
	Markers  []models.Marker
}

func NewScene(segments []models.Segment, res regions.Result, markers []models.Marker) Scene {
	return Scene{
		Segments: segments,
		Interior: res.Interior,
		Exterior: res.Exterior,
		Markers:  markers,
	}
}

type viewport struct {
	minX, minY    float64
	width, height float64
}

// viewport — ограничивающий прямоугольник с полями; пустая сцена даёт 1000x1000.
func (s Scene) viewport() viewport {
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64

	extend := func(p models.Point, pad float64) {
		minX = math.Min(minX, p.X-pad)
		minY = math.Min(minY, p.Y-pad)
		maxX = math.Max(maxX, p.X+pad)
		maxY = math.Max(maxY, p.Y+pad)
	}
	for _, seg := range s.Segments {
		extend(seg.P1, seg.Width/2)
		extend(seg.P2, seg.Width/2)
	}
	for _, m := range s.Markers {
		extend(m.Point, 0)
	}

	if minX == math.MaxFloat64 {
		return viewport{width: 1000, height: 1000}
	}
	return viewport{
		minX:   minX - ViewportPadding,
		minY:   minY - ViewportPadding,
		width:  maxX - minX + 2*ViewportPadding,
		height: maxY - minY + 2*ViewportPadding,
	}
}

func (v viewport) corners() []models.Point {
	return []models.Point{
		{X: v.minX, Y: v.minY},
		{X: v.minX + v.width, Y: v.minY},
		{X: v.minX + v.width, Y: v.minY + v.height},
		{X: v.minX, Y: v.minY + v.height},
	}
}
