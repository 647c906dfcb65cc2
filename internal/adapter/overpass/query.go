package overpass

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/couchcryptid/nitrogen-catchment/internal/domain"
)

// buildQuery renders an Overpass QL query for ways and multipolygon
// relations whose landuse tag is one of tags, inside box, with full geometry.
func buildQuery(tags []string, box domain.BBox, timeout time.Duration) string {
	seconds := int(math.Ceil(timeout.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	filter := fmt.Sprintf(`["landuse"~"^(%s)$"]`, strings.Join(tags, "|"))
	bbox := fmt.Sprintf("(%.6f,%.6f,%.6f,%.6f)", box.South, box.West, box.North, box.East)

	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];", seconds)
	b.WriteString("(")
	b.WriteString("way" + filter + bbox + ";")
	b.WriteString("relation" + filter + `["type"="multipolygon"]` + bbox + ";")
	b.WriteString(");out geom;")
	return b.String()
}
