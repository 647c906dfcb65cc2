package overpass

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/nitrogen-catchment/internal/domain"
	"github.com/couchcryptid/nitrogen-catchment/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls   int
	parcels []domain.LandParcel
	err     error
}

func (s *countingSource) FetchParcels(_ context.Context, _ domain.ParcelQuery) ([]domain.LandParcel, error) {
	s.calls++
	return s.parcels, s.err
}

func TestCachedSource_Hit(t *testing.T) {
	inner := &countingSource{parcels: []domain.LandParcel{{ID: "way/1"}}}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedSource(inner, 10, metrics)

	p1, err := cached.FetchParcels(context.Background(), testQuery())
	require.NoError(t, err)
	p2, err := cached.FetchParcels(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.GeodataCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.GeodataCache.WithLabelValues("miss")), 0)
}

func TestCachedSource_DifferentKeysMiss(t *testing.T) {
	inner := &countingSource{}
	cached := NewCachedSource(inner, 10, observability.NewMetricsForTesting())

	q := testQuery()
	_, _ = cached.FetchParcels(context.Background(), q)

	wider := q
	wider.Area = domain.BuildCatchment([]domain.LocationPoint{{Latitude: 48.86, Longitude: 2.36}}, 20)
	_, _ = cached.FetchParcels(context.Background(), wider)

	moreTags := q
	moreTags.LandUse = []string{"farmland", "meadow"}
	_, _ = cached.FetchParcels(context.Background(), moreTags)

	assert.Equal(t, 3, inner.calls)
}

func TestCachedSource_ErrorsNotCached(t *testing.T) {
	inner := &countingSource{err: errors.New("boom")}
	cached := NewCachedSource(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.FetchParcels(context.Background(), testQuery())
	require.Error(t, err)

	inner.err = nil
	inner.parcels = []domain.LandParcel{{ID: "way/1"}}
	parcels, err := cached.FetchParcels(context.Background(), testQuery())
	require.NoError(t, err)
	assert.Len(t, parcels, 1)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSource_EmptyQueryBypassesCache(t *testing.T) {
	inner := &countingSource{}
	cached := NewCachedSource(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.FetchParcels(context.Background(), domain.ParcelQuery{})
	_, _ = cached.FetchParcels(context.Background(), domain.ParcelQuery{})

	assert.Equal(t, 2, inner.calls)
}
