package domain

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// ParcelQuery selects land parcels of the given uses around a catchment.
type ParcelQuery struct {
	Area    CatchmentArea
	LandUse []string // normalized, see NormalizeLandUses
}

// CacheKey identifies equivalent queries: land-use set, bounding box rounded
// to four decimals, radius and point count.
func (q ParcelQuery) CacheKey() string {
	b, _ := q.Area.Bounds()
	return fmt.Sprintf("%s|%.4f,%.4f,%.4f,%.4f|%g|%d",
		strings.Join(q.LandUse, ","),
		round4(b.South), round4(b.West), round4(b.North), round4(b.East),
		q.Area.RadiusKm, len(q.Area.Circles))
}

// round4 also folds -0 into 0 so it formats identically.
func round4(v float64) float64 {
	return math.Round(v*1e4)/1e4 + 0
}

// ParcelSource retrieves land parcels from a geodata service.
type ParcelSource interface {
	FetchParcels(ctx context.Context, q ParcelQuery) ([]LandParcel, error)
}
