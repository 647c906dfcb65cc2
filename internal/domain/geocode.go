package domain

import (
	"context"
	"log/slog"
)

// BackfillProvince fills an empty province from reverse geocoding when the
// point has coordinates. If geocoder is nil or the lookup fails, the point is
// returned unchanged (graceful degradation).
func BackfillProvince(ctx context.Context, p LocationPoint, geocoder Geocoder, logger *slog.Logger) LocationPoint {
	if geocoder == nil || p.Province != "" || !p.HasCoordinates() {
		return p
	}

	result, err := geocoder.ReverseGeocode(ctx, p.Latitude, p.Longitude)
	if err != nil {
		logger.Warn("province backfill failed",
			"dataset", p.DatasetKey,
			"name", p.Name,
			"lat", p.Latitude,
			"lon", p.Longitude,
			"error", err,
		)
		return p
	}
	if result.Region == "" {
		return p
	}

	p.Province = NormalizeProvince(result.Region)
	if p.Country == "" && result.CountryCode != "" {
		p.Country = NormalizeCountry(result.CountryCode)
	}
	return p
}
