package mapbox

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/nitrogen-catchment/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	calls  int
	result domain.GeocodingResult
	err    error
}

func (m *countingGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

// --- CachedGeocoder tests ---

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{Region: "Attica", CountryCode: "GR"},
	}
	metrics := testMetrics()
	cached := NewCachedGeocoder(inner, 10, metrics)

	r1, err := cached.ReverseGeocode(context.Background(), 37.9838, 23.7275)
	require.NoError(t, err)
	assert.Equal(t, "Attica", r1.Region)

	r2, err := cached.ReverseGeocode(context.Background(), 37.9838, 23.7275)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("miss")), 0)
}

func TestCachedGeocoder_DifferentKeysMiss(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{Region: "Attica"},
	}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, _ = cached.ReverseGeocode(context.Background(), 37.9838, 23.7275)
	_, _ = cached.ReverseGeocode(context.Background(), 35.3387, 25.1442)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_EmptyResultNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, _ = cached.ReverseGeocode(context.Background(), 37.5, 25.0)
	_, _ = cached.ReverseGeocode(context.Background(), 37.5, 25.0)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("timeout")}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, err := cached.ReverseGeocode(context.Background(), 37.9838, 23.7275)
	require.Error(t, err)

	inner.err = nil
	inner.result = domain.GeocodingResult{Region: "Attica"}
	result, err := cached.ReverseGeocode(context.Background(), 37.9838, 23.7275)
	require.NoError(t, err)
	assert.Equal(t, "Attica", result.Region)
	assert.Equal(t, 2, inner.calls)
}
