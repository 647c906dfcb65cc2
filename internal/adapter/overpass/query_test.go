package overpass

import (
	"testing"
	"time"

	"github.com/couchcryptid/nitrogen-catchment/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestBuildQuery(t *testing.T) {
	box := domain.BBox{South: 48.75, West: 2.2, North: 48.95, East: 2.5}

	q := buildQuery([]string{"farmland", "vineyard"}, box, 60*time.Second)

	assert.Equal(t,
		`[out:json][timeout:60];(`+
			`way["landuse"~"^(farmland|vineyard)$"](48.750000,2.200000,48.950000,2.500000);`+
			`relation["landuse"~"^(farmland|vineyard)$"]["type"="multipolygon"](48.750000,2.200000,48.950000,2.500000);`+
			`);out geom;`,
		q)
}

func TestBuildQuery_MinimumTimeout(t *testing.T) {
	q := buildQuery([]string{"meadow"}, domain.BBox{}, 200*time.Millisecond)
	assert.Contains(t, q, "[timeout:1];")
}
