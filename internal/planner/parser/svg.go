package parser

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// ============================================================
// XML Structures
// ============================================================

type SVG struct {
	XMLName xml.Name `xml:"svg"`
	Group
}

// Group — <g> и корень документа: стены могут лежать на любой глубине.
type Group struct {
	ID     string  `xml:"id,attr"`
	Class  string  `xml:"class,attr"`
	Lines  []Line  `xml:"line"`
	Rects  []Rect  `xml:"rect"`
	Paths  []Path  `xml:"path"`
	Groups []Group `xml:"g"`
}

type Line struct {
	ID    string  `xml:"id,attr"`
	Class string  `xml:"class,attr"`
	X1    float64 `xml:"x1,attr"`
	Y1    float64 `xml:"y1,attr"`
	X2    float64 `xml:"x2,attr"`
	Y2    float64 `xml:"y2,attr"`
	Width float64 `xml:"stroke-width,attr"`
}

type Rect struct {
	ID     string  `xml:"id,attr"`
	Class  string  `xml:"class,attr"`
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
	Width  float64 `xml:"width,attr"`
	Height float64 `xml:"height,attr"`
}

type Path struct {
	ID    string  `xml:"id,attr"`
	Class string  `xml:"class,attr"`
	D     string  `xml:"d,attr"`
	Width float64 `xml:"stroke-width,attr"`
}

// Walls — элементы-стены, собранные со всех уровней вложенности.
type Walls struct {
	Lines []Line
	Rects []Rect
	Paths []Path
}

func (w Walls) Len() int {
	return len(w.Lines) + len(w.Rects) + len(w.Paths)
}

// ============================================================
// Parser
// ============================================================

func ParseSVG(r io.Reader) (Walls, error) {
	var svg SVG
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&svg); err != nil {
		return Walls{}, fmt.Errorf("decode svg: %w", err)
	}

	var walls Walls
	collect(svg.Group, false, &walls)
	return walls, nil
}

// collect: всё внутри группы-стены тоже считается стеной.
func collect(g Group, inherited bool, walls *Walls) {
	inWall := inherited || IsWall(g.ID, g.Class)

	for _, l := range g.Lines {
		if inWall || IsWall(l.ID, l.Class) {
			walls.Lines = append(walls.Lines, l)
		}
	}
	for _, rect := range g.Rects {
		if inWall || IsWall(rect.ID, rect.Class) {
			walls.Rects = append(walls.Rects, rect)
		}
	}
	for _, p := range g.Paths {
		if inWall || IsWall(p.ID, p.Class) {
			walls.Paths = append(walls.Paths, p)
		}
	}
	for _, child := range g.Groups {
		collect(child, inWall, walls)
	}
}

// IsWall — id с префиксом Wall (Wall_1, Wall-outer, Walls) или класс wall.
func IsWall(id, class string) bool {
	if strings.HasPrefix(id, "Wall") || strings.HasPrefix(id, "Hui_Wall_") {
		return true
	}
	for _, c := range strings.Fields(class) {
		if c == "wall" {
			return true
		}
	}
	return false
}
