package snap

import (
	"floorplan-engine/internal/planner/geometry"
	"floorplan-engine/internal/planner/models"
)

// ============================================================
// Snap Resolver
// ============================================================

const DefaultDistance = 20.0

type Kind string

const (
	None     Kind = "none"
	Endpoint Kind = "endpoint"
	OnWall   Kind = "segment"
)

type Result struct {
	Point models.Point `json:"point"`
	Kind  Kind         `json:"kind"`
}

type Resolver struct {
	Distance float64
}

func NewResolver(distance float64) *Resolver {
	if distance <= 0 {
		distance = DefaultDistance
	}
	return &Resolver{Distance: distance}
}

// Resolve подбирает точку привязки: сначала ближайший конец стены,
// затем ближайшая проекция на стену, иначе исходная точка.
// Стены, которые сейчас перетаскиваются, нужно исключить заранее.
func (r *Resolver) Resolve(p models.Point, segments []models.Segment) Result {
	if best, ok := r.nearestEndpoint(p, segments); ok {
		return Result{Point: best, Kind: Endpoint}
	}
	if best, ok := r.nearestProjection(p, segments); ok {
		return Result{Point: best, Kind: OnWall}
	}
	return Result{Point: p, Kind: None}
}

func (r *Resolver) nearestEndpoint(p models.Point, segments []models.Segment) (models.Point, bool) {
	var best models.Point
	bestDist := r.Distance
	found := false

	for _, seg := range segments {
		for _, e := range [2]models.Point{seg.P1, seg.P2} {
			if d := geometry.Distance(p, e); d <= bestDist {
				best, bestDist, found = e, d, true
			}
		}
	}
	return best, found
}

func (r *Resolver) nearestProjection(p models.Point, segments []models.Segment) (models.Point, bool) {
	var best models.Point
	bestDist := r.Distance
	found := false

	for _, seg := range segments {
		proj, ok := geometry.ProjectPointOnSegment(p, seg.P1, seg.P2)
		if !ok {
			continue
		}
		if d := geometry.Distance(p, proj); d <= bestDist {
			best, bestDist, found = proj, d, true
		}
	}
	return best, found
}
