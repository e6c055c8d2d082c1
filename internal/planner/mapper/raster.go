package mapper

import (
	"fmt"
	"io"
	"math"

	"floorplan-engine/internal/planner/models"

	"github.com/fogleman/gg"
)

// ============================================================
// PNG Renderer
// ============================================================

// DefaultRasterSize — длинная сторона картинки в пикселях.
const DefaultRasterSize = 1024

type Rasterizer struct {
	size int
}

func NewRasterizer(size int) *Rasterizer {
	if size <= 0 {
		size = DefaultRasterSize
	}
	return &Rasterizer{size: size}
}

// RenderPNG рисует ту же сцену, что и SVG-рендерер, и пишет PNG в w.
func (r *Rasterizer) RenderPNG(w io.Writer, scene Scene) error {
	vp := scene.viewport()
	scale := float64(r.size) / math.Max(vp.width, vp.height)

	width := int(math.Ceil(vp.width * scale))
	height := int(math.Ceil(vp.height * scale))
	c := gg.NewContext(width, height)

	c.SetRGB(1, 1, 1)
	c.Clear()

	// Точки переводятся вручную, чтобы толщина линий масштабировалась явно.
	tr := func(p models.Point) (float64, float64) {
		return (p.X - vp.minX) * scale, (p.Y - vp.minY) * scale
	}
	polygon := func(points []models.Point) {
		if len(points) == 0 {
			return
		}
		c.NewSubPath()
		c.MoveTo(tr(points[0]))
		for _, p := range points[1:] {
			c.LineTo(tr(p))
		}
		c.ClosePath()
	}

	if len(scene.Exterior) > 0 {
		c.SetFillRuleEvenOdd()
		polygon(vp.corners())
		for _, region := range scene.Exterior {
			polygon(region.Points)
		}
		c.SetHexColor(exteriorFill)
		c.Fill()
	}

	c.SetFillRuleWinding()
	for _, region := range scene.Interior {
		polygon(region.Points)
		c.SetHexColor(interiorFill)
		c.Fill()
	}

	c.SetLineCapSquare()
	c.SetHexColor(wallStroke)
	for _, seg := range scene.Segments {
		width := seg.Width
		if width <= 0 {
			width = 1
		}
		c.SetLineWidth(math.Max(1, width*scale))
		x1, y1 := tr(seg.P1)
		x2, y2 := tr(seg.P2)
		c.DrawLine(x1, y1, x2, y2)
		c.Stroke()
	}

	c.SetHexColor(markerFill)
	for _, m := range scene.Markers {
		x, y := tr(m.Point)
		c.DrawCircle(x, y, math.Max(2, 6*scale))
		c.Fill()
	}

	if err := c.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
