package regions

import (
	"floorplan-engine/internal/planner/geometry"
	"floorplan-engine/internal/planner/models"
)

// ============================================================
// Region Detector
// ============================================================

type Result struct {
	Interior []models.Region `json:"interior"`
	Exterior []models.Region `json:"exterior"`
}

// Detect пересчитывает все области целиком; прежний результат не используется.
func Detect(segments []models.Segment) Result {
	return Result{
		Interior: ClosedRegions(segments),
		Exterior: ExteriorRegions(segments),
	}
}

// All — сначала внешние области, затем комнаты (порядок отрисовки).
func (r Result) All() []models.Region {
	out := make([]models.Region, 0, len(r.Interior)+len(r.Exterior))
	out = append(out, r.Exterior...)
	return append(out, r.Interior...)
}

// Locate возвращает самую маленькую комнату, содержащую точку.
func Locate(regions []models.Region, p models.Point) (models.Region, bool) {
	var best models.Region
	found := false
	for _, r := range regions {
		if r.Kind != models.RegionInterior || !geometry.Contains(r.Points, p) {
			continue
		}
		if !found || r.Area < best.Area {
			best, found = r, true
		}
	}
	return best, found
}
