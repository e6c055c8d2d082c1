package mapper

import (
	"fmt"
	"io"
	"log"
	"math"

	"floorplan-engine/internal/planner/models"
	"floorplan-engine/internal/planner/parser"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

// ============================================================
// SVG Importer
// ============================================================

// SimplifyThreshold — вершины ломаной ближе этого к хорде выбрасываются.
const SimplifyThreshold = 0.5

type Importer struct {
	defaultWidth float64
}

func NewImporter(defaultWidth float64) *Importer {
	return &Importer{defaultWidth: defaultWidth}
}

// Import превращает стены SVG в отрезки. Разрезание по пересечениям
// делает уже хранилище при вставке.
func (im *Importer) Import(r io.Reader) ([]models.Segment, error) {
	walls, err := parser.ParseSVG(r)
	if err != nil {
		return nil, fmt.Errorf("parse SVG: %w", err)
	}

	var out []models.Segment
	for _, l := range walls.Lines {
		out = append(out, models.Segment{
			P1:    models.Point{X: l.X1, Y: l.Y1},
			P2:    models.Point{X: l.X2, Y: l.Y2},
			Width: im.width(l.Width),
		})
	}
	for _, rect := range walls.Rects {
		out = append(out, rectWall(rect))
	}
	for _, p := range walls.Paths {
		segs, err := im.pathWall(p)
		if err != nil {
			log.Printf("[IMPORT] skip path %q: %v", p.ID, err)
			continue
		}
		out = append(out, segs...)
	}

	log.Printf("[IMPORT] %d wall elements -> %d segments", walls.Len(), len(out))
	return out, nil
}

func (im *Importer) width(w float64) float64 {
	if w > 0 {
		return w
	}
	return im.defaultWidth
}

// rectWall — осевая линия прямоугольника вдоль длинной стороны,
// толщина стены равна короткой.
func rectWall(rect parser.Rect) models.Segment {
	thickness := math.Min(rect.Width, rect.Height)

	if rect.Width > rect.Height {
		return models.Segment{
			P1:    models.Point{X: rect.X, Y: rect.Y + rect.Height/2},
			P2:    models.Point{X: rect.X + rect.Width, Y: rect.Y + rect.Height/2},
			Width: thickness,
		}
	}
	return models.Segment{
		P1:    models.Point{X: rect.X + rect.Width/2, Y: rect.Y},
		P2:    models.Point{X: rect.X + rect.Width/2, Y: rect.Y + rect.Height},
		Width: thickness,
	}
}

func (im *Importer) pathWall(p parser.Path) ([]models.Segment, error) {
	polylines, err := parser.ParsePath(p.D)
	if err != nil {
		return nil, err
	}

	var out []models.Segment
	for _, points := range polylines {
		line := make(orb.LineString, 0, len(points))
		for _, pt := range points {
			line = append(line, pt.Orb())
		}
		if simplified, ok := simplify.DouglasPeucker(SimplifyThreshold).Simplify(line.Clone()).(orb.LineString); ok {
			line = simplified
		}

		for i := 1; i < len(line); i++ {
			out = append(out, models.Segment{
				P1:    models.Point{X: line[i-1][0], Y: line[i-1][1]},
				P2:    models.Point{X: line[i][0], Y: line[i][1]},
				Width: im.width(p.Width),
			})
		}
	}
	return out, nil
}
