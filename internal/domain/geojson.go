package domain

import (
	"github.com/twpayne/go-geom/encoding/geojson"
)

// ParcelFeatures renders parcels as a GeoJSON feature collection. Each
// feature carries its land use, area and fertilizer share as properties.
func ParcelFeatures(parcels []LandParcel) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(parcels))}
	for _, p := range parcels {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       p.ID,
			Geometry: p.Geometry,
			Properties: map[string]any{
				"land_use":         p.LandUse,
				"area_m2":          p.AreaSquareMeters,
				"fertilizer_share": p.FertilizerShare,
			},
		})
	}
	return fc
}
