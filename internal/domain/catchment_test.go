package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

var paris = LocationPoint{Name: "Seine Aval", Latitude: 48.85, Longitude: 2.35, Quantity: 1000}

func square(lat, lon, half float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{lon - half, lat - half},
		{lon + half, lat - half},
		{lon + half, lat + half},
		{lon - half, lat + half},
		{lon - half, lat - half},
	}})
}

func TestBuildCatchment_Empty(t *testing.T) {
	cases := []struct {
		name   string
		points []LocationPoint
		radius float64
	}{
		{"no points", nil, 10},
		{"zero radius", []LocationPoint{paris}, 0},
		{"negative radius", []LocationPoint{paris}, -5},
		{"NaN radius", []LocationPoint{paris}, math.NaN()},
		{"infinite radius", []LocationPoint{paris}, math.Inf(1)},
		{"only unset coordinates", []LocationPoint{{Name: "x"}}, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			area := BuildCatchment(tc.points, tc.radius)
			assert.True(t, area.Empty())
			_, ok := area.Bounds()
			assert.False(t, ok)
			assert.False(t, area.ContainsPoint(paris.Latitude, paris.Longitude))
		})
	}
}

func TestBuildCatchment_PaddedBox(t *testing.T) {
	equator := LocationPoint{Latitude: 0.5, Longitude: 10}
	north := LocationPoint{Latitude: 60, Longitude: 10}

	area := BuildCatchment([]LocationPoint{equator, north, {}}, 10)
	require.Len(t, area.Circles, 2)

	eq := area.Circles[0].Box
	assert.InDelta(t, 10.0/111, eq.North-0.5, 1e-9)
	assert.InDelta(t, 10.0/(111*math.Cos(0.5*math.Pi/180)), eq.East-10, 1e-9)

	n := area.Circles[1].Box
	assert.InDelta(t, 10.0/111, n.North-60, 1e-9)
	assert.InDelta(t, 10.0/(111*0.5), n.East-10, 1e-6)

	bounds, ok := area.Bounds()
	require.True(t, ok)
	assert.Equal(t, eq.South, bounds.South)
	assert.Equal(t, n.North, bounds.North)
}

func TestCatchmentArea_ContainsPoint(t *testing.T) {
	area := BuildCatchment([]LocationPoint{paris}, 10)

	assert.True(t, area.ContainsPoint(48.85, 2.35), "center")
	assert.True(t, area.ContainsPoint(48.90, 2.35), "about 5.6 km north")
	assert.False(t, area.ContainsPoint(49.00, 2.35), "about 16.7 km north")

	// Inside the prefilter box, outside the circle.
	assert.True(t, area.Circles[0].Box.Contains(48.935, 2.48))
	assert.False(t, area.ContainsPoint(48.935, 2.48))
}

func TestCatchmentArea_ContainsPointAcrossAntimeridian(t *testing.T) {
	area := BuildCatchment([]LocationPoint{{Latitude: -17, Longitude: 179.98}}, 10)

	assert.True(t, area.ContainsPoint(-17, -179.99), "about 3.2 km east across 180°")
	assert.False(t, area.ContainsPoint(-17, -179.5), "about 53 km east across 180°")

	west := BuildCatchment([]LocationPoint{{Latitude: -17, Longitude: -179.99}}, 10)
	assert.True(t, west.ContainsPoint(-17, 179.98))
}

func TestCatchmentArea_UnionOfCircles(t *testing.T) {
	athens := LocationPoint{Latitude: 37.98, Longitude: 23.72}
	area := BuildCatchment([]LocationPoint{paris, athens}, 10)

	assert.True(t, area.ContainsPoint(48.86, 2.36))
	assert.True(t, area.ContainsPoint(37.99, 23.73))
	assert.False(t, area.ContainsPoint(43.0, 12.0))
}

func TestCatchmentArea_ContainsGeometry(t *testing.T) {
	area := BuildCatchment([]LocationPoint{paris}, 10)

	assert.True(t, area.ContainsGeometry(square(48.86, 2.36, 0.005)))
	assert.False(t, area.ContainsGeometry(square(49.5, 2.35, 0.005)))
	assert.False(t, area.ContainsGeometry(nil))

	// A parcel straddling the boundary counts by its centroid.
	assert.True(t, area.ContainsGeometry(square(48.85, 2.35, 0.2)))
}

func TestHaversineKm(t *testing.T) {
	assert.InDelta(t, 343.5, HaversineKm(48.8566, 2.3522, 51.5074, -0.1278), 2)
	assert.InDelta(t, 0, HaversineKm(37.98, 23.72, 37.98, 23.72), 1e-9)
	assert.InDelta(t, 111.2, HaversineKm(0, 0, 1, 0), 0.1)
}
