package mapper

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"floorplan-engine/internal/planner/models"
)

// ============================================================
// SVG Renderer
// ============================================================

const (
	exteriorFill = "#e6e6e6"
	interiorFill = "#cfe3f5"
	wallStroke   = "#222"
	markerFill   = "#d62728"
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render собирает SVG: внешняя область, комнаты, стены, маркеры (снизу вверх).
func (r *Renderer) Render(scene Scene) string {
	vp := scene.viewport()

	var elements []string
	elements = append(elements, r.renderExterior(scene, vp)...)
	elements = append(elements, r.renderRooms(scene)...)
	elements = append(elements, r.renderWalls(scene)...)
	elements = append(elements, r.renderMarkers(scene)...)

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="%s %s %s %s">`,
		formatFloat(vp.width), formatFloat(vp.height),
		formatFloat(vp.minX), formatFloat(vp.minY), formatFloat(vp.width), formatFloat(vp.height)))
	builder.WriteString("\n")

	for _, elem := range elements {
		builder.WriteString("  ")
		builder.WriteString(elem)
		builder.WriteString("\n")
	}

	builder.WriteString(`</svg>`)
	return builder.String()
}

// renderExterior — одна фигура: прямоугольник вьюпорта с дырами по
// контурам всех компонент (even-odd).
func (r *Renderer) renderExterior(scene Scene, vp viewport) []string {
	if len(scene.Exterior) == 0 {
		return nil
	}

	d := []string{pathData(vp.corners())}
	for _, region := range scene.Exterior {
		d = append(d, pathData(region.Points))
	}
	return []string{fmt.Sprintf(`<path class="exterior" d="%s" fill="%s" fill-rule="evenodd" stroke="none" />`,
		strings.Join(d, " "), exteriorFill)}
}

func (r *Renderer) renderRooms(scene Scene) []string {
	var out []string
	for i, region := range scene.Interior {
		out = append(out, fmt.Sprintf(`<path id="room-%d" class="room" data-area="%s" d="%s" fill="%s" stroke="none" />`,
			i+1, formatFloat(region.Area), pathData(region.Points), interiorFill))
	}
	return out
}

func (r *Renderer) renderWalls(scene Scene) []string {
	var out []string
	for _, seg := range scene.Segments {
		width := seg.Width
		if width <= 0 {
			width = 1
		}
		out = append(out, fmt.Sprintf(`<line class="wall" x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s" stroke-linecap="square" />`,
			formatFloat(seg.P1.X), formatFloat(seg.P1.Y), formatFloat(seg.P2.X), formatFloat(seg.P2.Y),
			wallStroke, formatFloat(width)))
	}
	return out
}

func (r *Renderer) renderMarkers(scene Scene) []string {
	var out []string
	for _, m := range scene.Markers {
		out = append(out, fmt.Sprintf(`<circle id="%s" class="marker %s" cx="%s" cy="%s" r="6" fill="%s" />`,
			html.EscapeString(m.ID), html.EscapeString(m.Kind), formatFloat(m.Point.X), formatFloat(m.Point.Y), markerFill))
	}
	return out
}

// ============================================================
// Formatting helpers
// ============================================================

func pathData(points []models.Point) string {
	if len(points) == 0 {
		return ""
	}

	var path strings.Builder
	path.WriteString("M ")
	path.WriteString(formatPoint(points[0]))
	for _, p := range points[1:] {
		path.WriteString(" L ")
		path.WriteString(formatPoint(p))
	}
	path.WriteString(" Z")
	return path.String()
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func formatPoint(p models.Point) string {
	return formatFloat(p.X) + " " + formatFloat(p.Y)
}
