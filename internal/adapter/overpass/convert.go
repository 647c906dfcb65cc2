package overpass

import (
	"fmt"

	"github.com/couchcryptid/nitrogen-catchment/internal/domain"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// Overpass API response types ("out geom" output).

type response struct {
	Remark   string    `json:"remark"`
	Elements []element `json:"elements"`
}

type element struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Tags     map[string]string `json:"tags"`
	Geometry []latLon          `json:"geometry"`
	Members  []member          `json:"members"`
}

type member struct {
	Type     string   `json:"type"`
	Ref      int64    `json:"ref"`
	Role     string   `json:"role"`
	Geometry []latLon `json:"geometry"`
}

type latLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// toParcels converts response elements to parcels. Ways must be closed;
// relations are assembled from their member ways. Elements that do not
// form a valid polygon are skipped.
func toParcels(elements []element) []domain.LandParcel {
	parcels := make([]domain.LandParcel, 0, len(elements))
	for _, el := range elements {
		var g geom.T
		switch el.Type {
		case "way":
			if ring, ok := closedRing(el.Geometry); ok {
				g = geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{ring})
			}
		case "relation":
			if mp := relationGeometry(el.Members); mp != nil {
				g = mp
			}
		}
		if g == nil {
			continue
		}
		parcels = append(parcels, domain.LandParcel{
			ID:       fmt.Sprintf("%s/%d", el.Type, el.ID),
			LandUse:  el.Tags["landuse"],
			Geometry: g,
		})
	}
	return parcels
}

func coords(points []latLon) []geom.Coord {
	out := make([]geom.Coord, len(points))
	for i, p := range points {
		out[i] = geom.Coord{p.Lon, p.Lat}
	}
	return out
}

func closedRing(points []latLon) ([]geom.Coord, bool) {
	if len(points) < 4 || points[0] != points[len(points)-1] {
		return nil, false
	}
	return coords(points), true
}

// relationGeometry builds a multipolygon from outer and inner member ways.
// Members with an empty role are treated as outer. Inner rings become holes
// of the first outer ring that contains them.
func relationGeometry(members []member) *geom.MultiPolygon {
	var outerParts, innerParts [][]geom.Coord
	for _, m := range members {
		if m.Type != "way" || len(m.Geometry) < 2 {
			continue
		}
		switch m.Role {
		case "outer", "":
			outerParts = append(outerParts, coords(m.Geometry))
		case "inner":
			innerParts = append(innerParts, coords(m.Geometry))
		}
	}

	outers := joinRings(outerParts)
	if len(outers) == 0 {
		return nil
	}
	polygons := make([][][]geom.Coord, len(outers))
	for i, ring := range outers {
		polygons[i] = [][]geom.Coord{ring}
	}
	for _, hole := range joinRings(innerParts) {
		for i, outer := range outers {
			if xy.IsPointInRing(geom.XY, hole[0], flatten(outer)) {
				polygons[i] = append(polygons[i], hole)
				break
			}
		}
	}

	mp, err := geom.NewMultiPolygon(geom.XY).SetCoords(polygons)
	if err != nil {
		return nil
	}
	return mp
}

// joinRings stitches open way segments that share endpoints into closed
// rings. Segments that cannot be closed are dropped.
func joinRings(parts [][]geom.Coord) [][]geom.Coord {
	var rings [][]geom.Coord
	var open [][]geom.Coord
	for _, p := range parts {
		if isClosed(p) {
			if len(p) >= 4 {
				rings = append(rings, p)
			}
			continue
		}
		open = append(open, p)
	}

	for len(open) > 0 {
		current := open[0]
		open = open[1:]
		for !isClosed(current) {
			next, joined := -1, []geom.Coord(nil)
			for i, seg := range open {
				if j, ok := join(current, seg); ok {
					next, joined = i, j
					break
				}
			}
			if next < 0 {
				break
			}
			current = joined
			open = append(open[:next], open[next+1:]...)
		}
		if isClosed(current) && len(current) >= 4 {
			rings = append(rings, current)
		}
	}
	return rings
}

// join appends seg to the end of ring when they share an endpoint,
// reversing seg when needed.
func join(ring, seg []geom.Coord) ([]geom.Coord, bool) {
	end := ring[len(ring)-1]
	switch {
	case seg[0].Equal(geom.XY, end):
		return append(clone(ring), seg[1:]...), true
	case seg[len(seg)-1].Equal(geom.XY, end):
		out := clone(ring)
		for i := len(seg) - 2; i >= 0; i-- {
			out = append(out, seg[i])
		}
		return out, true
	}
	return nil, false
}

func isClosed(c []geom.Coord) bool {
	return len(c) > 1 && c[0].Equal(geom.XY, c[len(c)-1])
}

func clone(c []geom.Coord) []geom.Coord {
	return append(make([]geom.Coord, 0, len(c)), c...)
}

func flatten(ring []geom.Coord) []float64 {
	flat := make([]float64, 0, 2*len(ring))
	for _, c := range ring {
		flat = append(flat, c[0], c[1])
	}
	return flat
}
