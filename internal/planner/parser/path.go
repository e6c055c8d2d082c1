package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"floorplan-engine/internal/planner/models"
)

// ============================================================
// Path Parser
// ============================================================

var commandRe = regexp.MustCompile(`([MmLlHhVvZz])([^MmLlHhVvZz]*)`)

// ParsePath разбирает команды M, L, H, V, Z (и относительные варианты)
// в ломаные: каждая M начинает новую ломаную. Повторные пары координат
// после M/L продолжают линию, как в SVG.
func ParsePath(d string) ([][]models.Point, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return nil, fmt.Errorf("empty path")
	}

	var polylines [][]models.Point
	var current []models.Point
	var x, y float64

	flush := func() {
		if len(current) > 1 {
			polylines = append(polylines, current)
		}
		current = nil
	}

	for _, match := range commandRe.FindAllStringSubmatch(d, -1) {
		cmd := match[1]
		coords := parseCoords(match[2])

		switch cmd {
		case "M", "m":
			for i := 0; i+1 < len(coords); i += 2 {
				if cmd == "m" {
					x, y = x+coords[i], y+coords[i+1]
				} else {
					x, y = coords[i], coords[i+1]
				}
				if i == 0 {
					flush()
				}
				current = append(current, models.Point{X: x, Y: y})
			}

		case "L", "l":
			for i := 0; i+1 < len(coords); i += 2 {
				if cmd == "l" {
					x, y = x+coords[i], y+coords[i+1]
				} else {
					x, y = coords[i], coords[i+1]
				}
				current = append(current, models.Point{X: x, Y: y})
			}

		case "H", "h":
			for _, c := range coords {
				if cmd == "h" {
					x += c
				} else {
					x = c
				}
				current = append(current, models.Point{X: x, Y: y})
			}

		case "V", "v":
			for _, c := range coords {
				if cmd == "v" {
					y += c
				} else {
					y = c
				}
				current = append(current, models.Point{X: x, Y: y})
			}

		case "Z", "z":
			// Замыкаем и возвращаем перо в начало подпути
			if len(current) > 0 {
				first := current[0]
				current = append(current, first)
				x, y = first.X, first.Y
				flush()
				current = []models.Point{first}
			}
		}
	}
	flush()

	if len(polylines) == 0 {
		return nil, fmt.Errorf("path has no line segments")
	}
	return polylines, nil
}

func parseCoords(s string) []float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	// Разделитель: запятая или пробел
	s = strings.ReplaceAll(s, ",", " ")

	var coords []float64
	for _, part := range strings.Fields(s) {
		val, err := strconv.ParseFloat(part, 64)
		if err == nil {
			coords = append(coords, val)
		}
	}
	return coords
}
