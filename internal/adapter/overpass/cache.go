package overpass

import (
	"context"

	"github.com/couchcryptid/nitrogen-catchment/internal/cache"
	"github.com/couchcryptid/nitrogen-catchment/internal/domain"
	"github.com/couchcryptid/nitrogen-catchment/internal/observability"
)

// CachedSource wraps a ParcelSource with the process-wide response cache.
type CachedSource struct {
	inner   domain.ParcelSource
	cache   *cache.LRU[[]domain.LandParcel]
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a parcel source.
func NewCachedSource(inner domain.ParcelSource, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   cache.NewLRU[[]domain.LandParcel](maxEntries),
		metrics: metrics,
	}
}

// FetchParcels returns the cached parcels for an equivalent query, or
// queries the inner source and stores a successful response. Cached slices
// are shared and must not be modified by callers.
func (c *CachedSource) FetchParcels(ctx context.Context, q domain.ParcelQuery) ([]domain.LandParcel, error) {
	if q.Area.Empty() || len(q.LandUse) == 0 {
		return c.inner.FetchParcels(ctx, q)
	}
	key := q.CacheKey()
	if parcels, ok := c.cache.Get(key); ok {
		c.metrics.GeodataCache.WithLabelValues("hit").Inc()
		return parcels, nil
	}
	c.metrics.GeodataCache.WithLabelValues("miss").Inc()

	parcels, err := c.inner.FetchParcels(ctx, q)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, parcels)
	return parcels, nil
}
