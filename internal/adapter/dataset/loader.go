package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/nitrogen-catchment/internal/domain"
	"github.com/couchcryptid/nitrogen-catchment/internal/observability"
	"golang.org/x/sync/errgroup"
)

// Source names one dataset and where to fetch it.
type Source struct {
	Key     string
	URL     string
	Primary bool
}

// TextFetcher retrieves raw dataset text.
type TextFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Loader fetches and normalizes every configured dataset.
type Loader struct {
	fetcher  TextFetcher
	sources  []Source
	geocoder domain.Geocoder
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewLoader creates a loader. geocoder may be nil to disable province backfill.
func NewLoader(fetcher TextFetcher, sources []Source, geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		fetcher:  fetcher,
		sources:  sources,
		geocoder: geocoder,
		logger:   logger,
		metrics:  metrics,
	}
}

// Sources returns the configured dataset sources in load order.
func (l *Loader) Sources() []Source {
	return append([]Source(nil), l.sources...)
}

// LoadCatalog loads all sources concurrently. A primary dataset failure
// returns an error wrapping domain.ErrPrimaryDataset; auxiliary failures are
// reported as catalog warnings and the dataset is omitted.
func (l *Loader) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	results := make([]*domain.Dataset, len(l.sources))
	failures := make([]error, len(l.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range l.sources {
		g.Go(func() error {
			ds, err := l.Load(gctx, src)
			if err != nil {
				if src.Primary {
					return fmt.Errorf("%w: %w", domain.ErrPrimaryDataset, err)
				}
				failures[i] = err
				return nil
			}
			results[i] = &ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Catalog{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.Catalog{}, err
	}

	var catalog domain.Catalog
	for i, src := range l.sources {
		if failures[i] != nil {
			l.logger.Warn("auxiliary dataset unavailable", "dataset", src.Key, "error", failures[i])
			catalog.Warnings = append(catalog.Warnings, fmt.Sprintf("dataset %s unavailable: %v", src.Key, failures[i]))
			continue
		}
		if results[i] != nil {
			catalog.Datasets = append(catalog.Datasets, *results[i])
		}
	}
	return catalog, nil
}

// Load fetches, parses and normalizes one source. Rows that parse to nothing
// are dropped; points with an empty province are backfilled when a geocoder
// is configured.
func (l *Loader) Load(ctx context.Context, src Source) (domain.Dataset, error) {
	text, err := l.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		l.metrics.DatasetLoads.WithLabelValues(src.Key, "error").Inc()
		return domain.Dataset{}, &domain.DatasetError{Key: src.Key, URL: src.URL, Err: err}
	}
	rows, err := domain.ParseRecords(strings.NewReader(text))
	if err != nil {
		l.metrics.DatasetLoads.WithLabelValues(src.Key, "error").Inc()
		return domain.Dataset{}, &domain.DatasetError{Key: src.Key, URL: src.URL, Err: err}
	}

	ds := domain.Dataset{Key: src.Key, Primary: src.Primary, Points: make([]domain.LocationPoint, 0, len(rows))}
	var dropped int
	for _, row := range rows {
		p, ok := domain.NormalizeRow(row, src.Key)
		if !ok {
			dropped++
			continue
		}
		p = domain.BackfillProvince(ctx, p, l.geocoder, l.logger)
		ds.Points = append(ds.Points, p)
	}

	l.metrics.DatasetLoads.WithLabelValues(src.Key, "success").Inc()
	l.metrics.DatasetRows.WithLabelValues(src.Key, "kept").Add(float64(len(ds.Points)))
	l.metrics.DatasetRows.WithLabelValues(src.Key, "dropped").Add(float64(dropped))
	l.logger.Debug("dataset loaded", "dataset", src.Key, "points", len(ds.Points), "dropped", dropped)
	return ds, nil
}
