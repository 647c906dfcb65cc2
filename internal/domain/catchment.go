package domain

import (
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

const (
	kmPerDegree   = 111.0
	earthRadiusKm = 6371.0088
)

// BBox is a latitude/longitude bounding box in degrees.
type BBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Contains reports whether (lat, lon) lies inside the box, edges included.
// Padded boxes may run past ±180°, so lon is also tried one turn east and west.
func (b BBox) Contains(lat, lon float64) bool {
	if lat < b.South || lat > b.North {
		return false
	}
	for _, l := range [...]float64{lon, lon + 360, lon - 360} {
		if l >= b.West && l <= b.East {
			return true
		}
	}
	return false
}

// Union returns the smallest box covering b and o.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		South: math.Min(b.South, o.South),
		West:  math.Min(b.West, o.West),
		North: math.Max(b.North, o.North),
		East:  math.Max(b.East, o.East),
	}
}

// Circle is one supply point with its radius and prefilter box.
type Circle struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	RadiusKm float64 `json:"radius_km"`
	Box      BBox    `json:"bbox"`
}

// CatchmentArea is the union of circles of a fixed radius around supply points.
type CatchmentArea struct {
	RadiusKm float64  `json:"radius_km"`
	Circles  []Circle `json:"circles"`
}

// BuildCatchment builds one circle per point with valid coordinates. A
// non-positive or non-finite radius, or no usable point, yields an empty area.
func BuildCatchment(points []LocationPoint, radiusKm float64) CatchmentArea {
	if !(radiusKm > 0) || math.IsInf(radiusKm, 0) {
		return CatchmentArea{}
	}
	area := CatchmentArea{RadiusKm: radiusKm}
	for _, p := range points {
		if !p.HasCoordinates() {
			continue
		}
		area.Circles = append(area.Circles, Circle{
			Lat:      p.Latitude,
			Lon:      p.Longitude,
			RadiusKm: radiusKm,
			Box:      paddedBox(p.Latitude, p.Longitude, radiusKm),
		})
	}
	if len(area.Circles) == 0 {
		return CatchmentArea{}
	}
	return area
}

func paddedBox(lat, lon, radiusKm float64) BBox {
	latPad := radiusKm / kmPerDegree
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat == 0 {
		cosLat = 1
	}
	lonPad := radiusKm / (kmPerDegree * math.Abs(cosLat))
	return BBox{South: lat - latPad, West: lon - lonPad, North: lat + latPad, East: lon + lonPad}
}

// Empty reports whether the area has no circles.
func (c CatchmentArea) Empty() bool {
	return len(c.Circles) == 0
}

// Bounds returns the box covering every circle, or false for an empty area.
func (c CatchmentArea) Bounds() (BBox, bool) {
	if c.Empty() {
		return BBox{}, false
	}
	b := c.Circles[0].Box
	for _, ci := range c.Circles[1:] {
		b = b.Union(ci.Box)
	}
	return b, true
}

// ContainsPoint reports whether (lat, lon) is within the radius of any
// circle. The box test rejects most candidates before the distance is computed.
func (c CatchmentArea) ContainsPoint(lat, lon float64) bool {
	for _, ci := range c.Circles {
		if !ci.Box.Contains(lat, lon) {
			continue
		}
		if HaversineKm(lat, lon, ci.Lat, ci.Lon) <= ci.RadiusKm {
			return true
		}
	}
	return false
}

// ContainsGeometry tests the geometry's centroid against the area. Parcels
// straddling a circle boundary are kept or dropped by where their centroid
// falls; exact polygon-circle intersection is not attempted.
func (c CatchmentArea) ContainsGeometry(g geom.T) bool {
	if c.Empty() || g == nil {
		return false
	}
	centroid, err := xy.Centroid(g)
	if err != nil || len(centroid) < 2 {
		return false
	}
	return c.ContainsPoint(centroid[1], centroid[0])
}

// HaversineKm returns the great-circle distance between two points.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const rad = math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
