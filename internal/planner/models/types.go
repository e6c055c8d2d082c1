package models

import "github.com/paulmach/orb"

// ============================================================
// Geometry primitives
// ============================================================

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Orb переводит точку в orb.Point для planar/geojson.
func (p Point) Orb() orb.Point {
	return orb.Point{p.X, p.Y}
}

// Segment — неориентированный кусок стены.
type Segment struct {
	P1    Point   `json:"p1"`
	P2    Point   `json:"p2"`
	Width float64 `json:"width"`
}

// ============================================================
// Regions
// ============================================================

type RegionKind string

const (
	RegionInterior RegionKind = "interior"
	RegionExterior RegionKind = "exterior"
)

// Region — замкнутый многоугольник комнаты или граница внешней области.
type Region struct {
	Kind   RegionKind `json:"kind"`
	Points []Point    `json:"points"`
	Area   float64    `json:"area"`
}

// Ring возвращает замкнутое кольцо orb (первая точка повторена в конце).
func (r Region) Ring() orb.Ring {
	return RingOf(r.Points)
}

func RingOf(points []Point) orb.Ring {
	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, p.Orb())
	}
	if len(points) > 0 {
		ring = append(ring, points[0].Orb())
	}
	return ring
}

// ============================================================
// Snapshot document
// ============================================================

// Marker — внешняя аннотация поверх плана (например, датчик), переживает undo.
type Marker struct {
	ID    string         `json:"id"`
	Kind  string         `json:"kind"`
	Point Point          `json:"point"`
	Props map[string]any `json:"props,omitempty"`
}

type Document struct {
	Segments []Segment `json:"segments"`
	Markers  []Marker  `json:"markers"`
}
