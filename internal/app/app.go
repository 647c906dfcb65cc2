// Package app wires adapters and the aggregator from configuration.
package app

import (
	"log/slog"

	"github.com/couchcryptid/nitrogen-catchment/internal/adapter/dataset"
	kafkaadapter "github.com/couchcryptid/nitrogen-catchment/internal/adapter/kafka"
	"github.com/couchcryptid/nitrogen-catchment/internal/adapter/mapbox"
	"github.com/couchcryptid/nitrogen-catchment/internal/adapter/overpass"
	"github.com/couchcryptid/nitrogen-catchment/internal/config"
	"github.com/couchcryptid/nitrogen-catchment/internal/domain"
	"github.com/couchcryptid/nitrogen-catchment/internal/observability"
	"github.com/couchcryptid/nitrogen-catchment/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

// App holds the wired aggregator and the resources to release on shutdown.
type App struct {
	Aggregator *pipeline.Aggregator

	publisher *kafkaadapter.Publisher
}

// New builds every adapter enabled by cfg.
func New(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) (*App, error) {
	var store dataset.ObjectStore
	if cfg.StorageEnabled() {
		minioStore, err := dataset.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
		if err != nil {
			return nil, err
		}
		store = minioStore
		logger.Info("object storage enabled", "endpoint", cfg.MinioEndpoint)
	}

	// Province backfill is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	fetcher := dataset.NewFetcher(cfg.DatasetFetchTimeout, cfg.DatasetCacheTTL, store, logger)
	loader := dataset.NewLoader(fetcher, Sources(cfg), geocoder, logger, metrics)

	geodata := overpass.NewClient(overpass.Options{
		Endpoints:   cfg.GeodataEndpoints,
		Timeout:     cfg.GeodataTimeout,
		MaxAttempts: cfg.GeodataMaxAttempts,
		BaseDelay:   cfg.GeodataBaseDelay,
		MaxDelay:    cfg.GeodataMaxDelay,
	}, clock, logger, metrics)
	parcels := overpass.NewCachedSource(geodata, cfg.GeodataCacheSize, metrics)

	a := &App{}
	var publisher pipeline.ResultPublisher
	if cfg.PublishingEnabled() {
		a.publisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = a.publisher
		logger.Info("result publishing enabled", "topic", cfg.KafkaResultsTopic)
	}

	a.Aggregator = pipeline.New(loader, parcels, publisher, pipeline.Options{
		AllowedCountries: domain.NewCountrySet(cfg.AllowedCountries...),
		DefaultRadiusKm:  cfg.DefaultRadiusKm,
		DefaultLandUse:   cfg.DefaultLandUse,
	}, clock, logger, metrics)
	return a, nil
}

// Sources lists the configured datasets, primary first.
func Sources(cfg *config.Config) []dataset.Source {
	sources := []dataset.Source{{Key: cfg.PrimaryDataset.Key, URL: cfg.PrimaryDataset.URL, Primary: true}}
	for _, aux := range cfg.AuxDatasets {
		sources = append(sources, dataset.Source{Key: aux.Key, URL: aux.URL})
	}
	return sources
}

// Close cancels in-flight aggregations and releases the publisher.
func (a *App) Close() error {
	a.Aggregator.CancelAll()
	if a.publisher == nil {
		return nil
	}
	return a.publisher.Close()
}
