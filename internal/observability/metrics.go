package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "catchment"

// Metrics holds the Prometheus counters, histograms, and gauges for the aggregation service.
type Metrics struct {
	// Dataset loading metrics.
	DatasetLoads *prometheus.CounterVec // labels: dataset, outcome={success,error}
	DatasetRows  *prometheus.CounterVec // labels: dataset, outcome={kept,dropped}
	CatalogReady prometheus.Gauge

	// Geodata service metrics.
	GeodataRequests *prometheus.CounterVec   // labels: endpoint, outcome={success,error,status}
	GeodataCache    *prometheus.CounterVec   // labels: result={hit,miss}
	GeodataDuration *prometheus.HistogramVec // labels: endpoint

	// Aggregation metrics.
	Aggregations        *prometheus.CounterVec // labels: state={data,error,cancelled}
	AggregationDuration prometheus.Histogram
	ParcelsRetained     prometheus.Histogram
	ResultsPublished    *prometheus.CounterVec // labels: outcome={success,error}

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Dataset fetch-and-parse attempts by dataset and outcome.",
		}, []string{"dataset", "outcome"}),
		DatasetRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_rows_total",
			Help:      "Dataset rows kept or dropped during normalization.",
		}, []string{"dataset", "outcome"}),
		CatalogReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_ready",
			Help:      "1 once the primary dataset has been loaded, 0 otherwise.",
		}),
		GeodataRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geodata_requests_total",
			Help:      "Geodata service requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		GeodataCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geodata_cache_total",
			Help:      "Geodata response cache lookups by result.",
		}, []string{"result"}),
		GeodataDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geodata_request_duration_seconds",
			Help:      "Geodata service request duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"endpoint"}),
		Aggregations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregations_total",
			Help:      "Completed aggregations by terminal state.",
		}, []string{"state"}),
		AggregationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of a complete aggregation request.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		ParcelsRetained: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parcels_retained",
			Help:      "Number of land parcels retained per aggregation.",
			Buckets:   []float64{0, 1, 10, 50, 100, 500, 1000, 5000, 10000},
		}),
		ResultsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_published_total",
			Help:      "Aggregation summaries published to Kafka by outcome.",
		}, []string{"outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when province backfill is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.DatasetLoads,
		m.DatasetRows,
		m.CatalogReady,
		m.GeodataRequests,
		m.GeodataCache,
		m.GeodataDuration,
		m.Aggregations,
		m.AggregationDuration,
		m.ParcelsRetained,
		m.ResultsPublished,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		DatasetLoads:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "dataset_loads_total"}, []string{"dataset", "outcome"}),
		DatasetRows:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "dataset_rows_total"}, []string{"dataset", "outcome"}),
		CatalogReady:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "catalog_ready"}),
		GeodataRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "geodata_requests_total"}, []string{"endpoint", "outcome"}),
		GeodataCache:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "geodata_cache_total"}, []string{"result"}),
		GeodataDuration:     prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "geodata_request_duration_seconds"}, []string{"endpoint"}),
		Aggregations:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "aggregations_total"}, []string{"state"}),
		AggregationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "aggregation_duration_seconds"}),
		ParcelsRetained:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "parcels_retained"}),
		ResultsPublished:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "results_published_total"}, []string{"outcome"}),
		GeocodeRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeCache:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "geocode_cache_total"}, []string{"result"}),
		GeocodeAPIDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "geocode_api_duration_seconds"}),
		GeocodeEnabled:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "geocode_enabled"}),
	}
}
