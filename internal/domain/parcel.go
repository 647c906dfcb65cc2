package domain

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/twpayne/go-geom"
)

// wgs84RadiusM is the equatorial radius used for spherical polygon area.
const wgs84RadiusM = 6378137.0

// Agricultural land-use categories accepted in geodata queries.
const (
	LandUseFarmland   = "farmland"
	LandUseOrchard    = "orchard"
	LandUseVineyard   = "vineyard"
	LandUseMeadow     = "meadow"
	LandUseGreenhouse = "greenhouse_horticulture"
	LandUseNursery    = "plant_nursery"
)

var landUses = []string{
	LandUseFarmland,
	LandUseOrchard,
	LandUseVineyard,
	LandUseMeadow,
	LandUseGreenhouse,
	LandUseNursery,
}

// LandUses returns the closed set of supported land-use categories.
func LandUses() []string {
	return slices.Clone(landUses)
}

// NormalizeLandUses lower-cases, de-duplicates and sorts tags, rejecting any
// outside the supported set.
func NormalizeLandUses(tags []string) ([]string, error) {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if !slices.Contains(landUses, t) {
			return nil, fmt.Errorf("%w: unsupported land use %q", ErrInvalidRequest, t)
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	slices.Sort(out)
	return out, nil
}

// LandParcel is a land-use polygon returned by the geodata service.
// FertilizerShare is assigned once by Attribute.
type LandParcel struct {
	ID               string
	LandUse          string
	Geometry         geom.T // *geom.Polygon or *geom.MultiPolygon, lon/lat order
	AreaSquareMeters float64
	FertilizerShare  float64
}

// IsPolygonal reports whether the parcel geometry is a polygon or multipolygon.
func (p LandParcel) IsPolygonal() bool {
	switch p.Geometry.(type) {
	case *geom.Polygon, *geom.MultiPolygon:
		return true
	default:
		return false
	}
}

// GeodesicArea returns the surface area in square meters of a polygon or
// multipolygon on a spherical earth. Holes are subtracted. Other geometry
// types have no area.
func GeodesicArea(g geom.T) float64 {
	switch t := g.(type) {
	case *geom.Polygon:
		return polygonArea(t)
	case *geom.MultiPolygon:
		var total float64
		for i := 0; i < t.NumPolygons(); i++ {
			total += polygonArea(t.Polygon(i))
		}
		return total
	default:
		return 0
	}
}

func polygonArea(p *geom.Polygon) float64 {
	if p == nil || p.NumLinearRings() == 0 {
		return 0
	}
	area := math.Abs(ringArea(p.LinearRing(0).Coords()))
	for i := 1; i < p.NumLinearRings(); i++ {
		area -= math.Abs(ringArea(p.LinearRing(i).Coords()))
	}
	return math.Max(area, 0)
}

// ringArea implements the spherical excess approximation from Chamberlain and
// Duquette, "Some Algorithms for Polygons on a Sphere" (JPL, 2007).
func ringArea(coords []geom.Coord) float64 {
	n := len(coords)
	if n < 3 {
		return 0
	}
	const rad = math.Pi / 180
	var sum float64
	for i := 0; i < n; i++ {
		lower, middle, upper := coords[i], coords[(i+1)%n], coords[(i+2)%n]
		sum += (upper[0]*rad - lower[0]*rad) * math.Sin(middle[1]*rad)
	}
	return sum * wgs84RadiusM * wgs84RadiusM / 2
}
