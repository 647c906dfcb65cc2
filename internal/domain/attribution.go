package domain

import "math"

// Attribution is the outcome of apportioning a supply total across parcels.
type Attribution struct {
	Parcels               []LandParcel
	TotalAreaSquareMeters float64
	TotalQuantity         float64
}

// Attribute keeps the parcels whose centroid falls inside the catchment and
// whose geometry is polygonal with a finite positive area, then splits
// totalQuantity across them by area share.
func Attribute(parcels []LandParcel, area CatchmentArea, totalQuantity float64) Attribution {
	retained := make([]LandParcel, 0, len(parcels))
	if !area.Empty() {
		for _, p := range parcels {
			if !p.IsPolygonal() || !area.ContainsGeometry(p.Geometry) {
				continue
			}
			p.AreaSquareMeters = GeodesicArea(p.Geometry)
			if !positiveFinite(p.AreaSquareMeters) {
				continue
			}
			retained = append(retained, p)
		}
	}
	out, totalArea := Apportion(retained, totalQuantity)
	return Attribution{Parcels: out, TotalAreaSquareMeters: totalArea, TotalQuantity: totalQuantity}
}

// Apportion assigns each parcel totalQuantity × area / Σarea using the
// parcels' AreaSquareMeters. When Σarea is zero every share is zero.
func Apportion(parcels []LandParcel, totalQuantity float64) ([]LandParcel, float64) {
	var totalArea float64
	for _, p := range parcels {
		if positiveFinite(p.AreaSquareMeters) {
			totalArea += p.AreaSquareMeters
		}
	}
	out := make([]LandParcel, len(parcels))
	for i, p := range parcels {
		p.FertilizerShare = 0
		if totalArea > 0 && positiveFinite(p.AreaSquareMeters) {
			p.FertilizerShare = totalQuantity * (p.AreaSquareMeters / totalArea)
		}
		out[i] = p
	}
	return out, totalArea
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
