package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/nitrogen-catchment/internal/domain"
	"github.com/couchcryptid/nitrogen-catchment/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const defaultPublishTimeout = 5 * time.Second

// CatalogLoader loads the configured datasets.
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) (domain.Catalog, error)
}

// ResultPublisher announces aggregations that reached the data state.
type ResultPublisher interface {
	Publish(ctx context.Context, result domain.AggregationResult) error
}

// Options configures request defaults and the country allow-list.
type Options struct {
	AllowedCountries domain.CountrySet
	DefaultRadiusKm  float64
	DefaultLandUse   []string
	PublishTimeout   time.Duration
}

// Aggregator answers index, point and aggregation requests. Each session
// has at most one aggregation in flight: starting another cancels the
// previous one, whose result is then discarded.
type Aggregator struct {
	loader    CatalogLoader
	parcels   domain.ParcelSource
	publisher ResultPublisher
	opts      Options
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	generation uint64
	cancel     context.CancelFunc // non-nil while an aggregation is in flight
	latest     *domain.AggregationResult
}

// New creates an Aggregator. publisher may be nil to disable publication.
func New(loader CatalogLoader, parcels domain.ParcelSource, publisher ResultPublisher, opts Options, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Aggregator {
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = defaultPublishTimeout
	}
	return &Aggregator{
		loader:    loader,
		parcels:   parcels,
		publisher: publisher,
		opts:      opts,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
		sessions:  make(map[string]*session),
	}
}

// CheckReadiness returns nil once a catalog with a primary dataset has been
// loaded, or an error describing why the service is not yet ready.
func (a *Aggregator) CheckReadiness(_ context.Context) error {
	if !a.ready.Load() {
		return errors.New("primary dataset has not been loaded yet")
	}
	return nil
}

func (a *Aggregator) markReady() {
	if !a.ready.Swap(true) {
		a.metrics.CatalogReady.Set(1)
		a.logger.Info("catalog ready")
	}
}

// Index returns the country → province index over every loaded dataset.
func (a *Aggregator) Index(ctx context.Context) (IndexResult, error) {
	catalog, err := a.loader.LoadCatalog(ctx)
	if err != nil {
		return IndexResult{}, err
	}
	a.markReady()

	keys := make([]string, 0, len(catalog.Datasets))
	for _, ds := range catalog.Datasets {
		keys = append(keys, ds.Key)
	}
	return IndexResult{
		Countries: domain.BuildIndex(catalog.Datasets, a.opts.AllowedCountries),
		Datasets:  keys,
		Warnings:  catalog.Warnings,
	}, nil
}

// Points returns the points of the selected dataset located in the region.
func (a *Aggregator) Points(ctx context.Context, q RegionQuery) (PointsResult, error) {
	region, err := a.normalizeRegion(q.Region)
	if err != nil {
		return PointsResult{}, err
	}
	catalog, err := a.loader.LoadCatalog(ctx)
	if err != nil {
		return PointsResult{}, err
	}
	a.markReady()

	ds, err := selectDataset(catalog, q.Dataset)
	if err != nil {
		return PointsResult{}, err
	}
	points := ds.FilterRegion(region)
	if points == nil {
		points = []domain.LocationPoint{}
	}
	return PointsResult{
		Region:        region,
		Dataset:       ds.Key,
		Points:        points,
		TotalQuantity: domain.TotalQuantity(points),
		Warnings:      catalog.Warnings,
	}, nil
}

// Aggregate runs one aggregation for req's session and waits for it to
// resolve. The returned error is non-nil only for invalid requests; every
// other outcome is reported through the result state. A result superseded by
// a newer request of the same session comes back cancelled and is not
// applied to the session.
func (a *Aggregator) Aggregate(ctx context.Context, req Request) (domain.AggregationResult, error) {
	req, err := a.normalizeRequest(req)
	if err != nil {
		return domain.AggregationResult{}, err
	}

	start := a.clock.Now()
	runCtx, generation, release := a.begin(ctx, req.Session)
	defer release()

	result := a.run(runCtx, req)
	applied := a.finish(req.Session, generation, &result)

	a.metrics.Aggregations.WithLabelValues(string(result.State)).Inc()
	a.metrics.AggregationDuration.Observe(a.clock.Since(start).Seconds())
	a.logger.Info("aggregation resolved",
		"session", result.Session,
		"id", result.ID,
		"state", result.State,
		"country", result.Region.Country,
		"province", result.Region.Province,
		"parcels", len(result.Parcels),
	)

	if applied && result.State == domain.StateData {
		a.metrics.ParcelsRetained.Observe(float64(len(result.Parcels)))
		a.publish(ctx, result)
	}
	return result, nil
}

// Latest returns the last applied result of the session, or a loading
// placeholder while an aggregation is in flight.
func (a *Aggregator) Latest(sessionKey string) (domain.AggregationResult, bool) {
	if sessionKey == "" {
		sessionKey = DefaultSession
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sessions[sessionKey]
	if !ok {
		return domain.AggregationResult{}, false
	}
	if s.cancel != nil {
		return domain.AggregationResult{Session: sessionKey, State: domain.StateLoading}, true
	}
	if s.latest == nil {
		return domain.AggregationResult{}, false
	}
	return *s.latest, true
}

// CancelAll cancels every in-flight aggregation.
func (a *Aggregator) CancelAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range a.sessions {
		if s.cancel != nil {
			s.cancel()
		}
	}
}

// begin registers a new aggregation for the session, cancelling the one in
// flight if any.
func (a *Aggregator) begin(ctx context.Context, key string) (context.Context, uint64, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sessions[key]
	if !ok {
		s = &session{}
		a.sessions[key] = s
	}
	if s.cancel != nil {
		s.cancel()
		a.logger.Debug("aggregation superseded", "session", key, "generation", s.generation)
	}
	s.generation++
	s.cancel = cancel
	return runCtx, s.generation, cancel
}

// finish applies result to the session if no newer aggregation began in the
// meantime. A stale result is turned into a cancelled one. Cancelled results
// never replace the session's latest result.
func (a *Aggregator) finish(key string, generation uint64, result *domain.AggregationResult) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.sessions[key]
	if s.generation != generation {
		*result = cancelled(*result)
		return false
	}
	s.cancel = nil
	if result.State == domain.StateCancelled {
		return false
	}
	applied := *result
	s.latest = &applied
	return true
}

func (a *Aggregator) run(ctx context.Context, req Request) domain.AggregationResult {
	result := domain.AggregationResult{
		ID:       uuid.NewString(),
		Session:  req.Session,
		Region:   req.Region,
		Dataset:  req.Dataset,
		RadiusKm: req.RadiusKm,
		LandUse:  req.LandUse,
	}

	catalog, err := a.loader.LoadCatalog(ctx)
	if err != nil {
		return a.fail(ctx, result, "load datasets", err)
	}
	a.markReady()
	result.Warnings = catalog.Warnings

	ds, err := selectDataset(catalog, req.Dataset)
	if err != nil {
		return a.fail(ctx, result, "select dataset", err)
	}
	result.Dataset = ds.Key

	points := ds.FilterRegion(req.Region)
	if points == nil {
		points = []domain.LocationPoint{}
	}
	total := domain.TotalQuantity(points)
	area := domain.BuildCatchment(points, req.RadiusKm)

	parcels, err := a.parcels.FetchParcels(ctx, domain.ParcelQuery{Area: area, LandUse: req.LandUse})
	if err != nil {
		return a.fail(ctx, result, "fetch land parcels", err)
	}
	if ctx.Err() != nil {
		return cancelled(result)
	}

	attribution := domain.Attribute(parcels, area, total)
	result.State = domain.StateData
	result.Points = points
	result.TotalQuantity = attribution.TotalQuantity
	result.TotalAreaSquareMeters = attribution.TotalAreaSquareMeters
	result.Parcels = attribution.Parcels
	result.ComputedAt = a.clock.Now().UTC()
	return result
}

// fail resolves an aborted aggregation: cancelled when the context ended,
// otherwise an error state carrying a readable message.
func (a *Aggregator) fail(ctx context.Context, result domain.AggregationResult, op string, err error) domain.AggregationResult {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return cancelled(result)
	}
	a.logger.Error("aggregation failed", "session", result.Session, "id", result.ID, "op", op, "error", err)
	result.State = domain.StateError
	result.Error = fmt.Sprintf("%s: %v", op, err)
	result.ComputedAt = a.clock.Now().UTC()
	return result
}

func cancelled(result domain.AggregationResult) domain.AggregationResult {
	return domain.AggregationResult{
		ID:       result.ID,
		Session:  result.Session,
		State:    domain.StateCancelled,
		Region:   result.Region,
		Dataset:  result.Dataset,
		RadiusKm: result.RadiusKm,
		LandUse:  result.LandUse,
	}
}

func (a *Aggregator) publish(ctx context.Context, result domain.AggregationResult) {
	if a.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.opts.PublishTimeout)
	defer cancel()

	if err := a.publisher.Publish(pubCtx, result); err != nil {
		a.metrics.ResultsPublished.WithLabelValues("error").Inc()
		a.logger.Warn("publish result failed", "session", result.Session, "id", result.ID, "error", err)
		return
	}
	a.metrics.ResultsPublished.WithLabelValues("success").Inc()
}
