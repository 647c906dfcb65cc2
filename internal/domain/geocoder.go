package domain

import "context"

// GeocodingResult contains region data returned by a reverse geocoding provider.
type GeocodingResult struct {
	Region      string
	CountryCode string
	PlaceName   string
	Confidence  float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves coordinates to an administrative region.
type Geocoder interface {
	// ReverseGeocode converts coordinates to region details.
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}
