package mapper

import (
	"fmt"

	"floorplan-engine/internal/planner/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ============================================================
// GeoJSON export
// ============================================================

// FeatureCollection — стены (LineString), области (Polygon) и маркеры (Point).
// Координаты плоские, в единицах плана.
func FeatureCollection(scene Scene) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, seg := range scene.Segments {
		f := geojson.NewFeature(orb.LineString{seg.P1.Orb(), seg.P2.Orb()})
		f.Properties["kind"] = "wall"
		f.Properties["width"] = seg.Width
		fc.Append(f)
	}

	regions := append(append([]models.Region(nil), scene.Exterior...), scene.Interior...)
	for _, region := range regions {
		f := geojson.NewFeature(orb.Polygon{region.Ring()})
		f.Properties["kind"] = string(region.Kind)
		f.Properties["area"] = region.Area
		fc.Append(f)
	}

	for _, m := range scene.Markers {
		f := geojson.NewFeature(m.Point.Orb())
		f.ID = m.ID
		for k, v := range m.Props {
			f.Properties[k] = v
		}
		f.Properties["kind"] = "marker"
		f.Properties["marker"] = m.Kind
		fc.Append(f)
	}

	return fc
}

func RenderGeoJSON(scene Scene) ([]byte, error) {
	data, err := FeatureCollection(scene).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal geojson: %w", err)
	}
	return data, nil
}
