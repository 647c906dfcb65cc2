package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

const (
	defaultGeodataEndpoints = "https://overpass-api.de/api/interpreter," +
		"https://overpass.kumi.systems/api/interpreter," +
		"https://overpass.private.coffee/api/interpreter"

	maxGeodataAttempts = 5
)

// DatasetSource names one dataset location.
type DatasetSource struct {
	Key string
	URL string
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Dataset sources.
	PrimaryDataset      DatasetSource
	AuxDatasets         []DatasetSource
	DatasetFetchTimeout time.Duration
	DatasetCacheTTL     time.Duration
	AllowedCountries    []string

	// Geodata (Overpass) service.
	GeodataEndpoints   []string
	GeodataTimeout     time.Duration
	GeodataMaxAttempts int
	GeodataBaseDelay   time.Duration
	GeodataMaxDelay    time.Duration
	GeodataCacheSize   int

	// Aggregation defaults.
	DefaultRadiusKm float64
	DefaultLandUse  []string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// S3-compatible object storage for s3:// dataset URLs.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool

	// Result publication; empty brokers disables it.
	KafkaBrokers      []string
	KafkaResultsTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	primaryURL := strings.TrimSpace(os.Getenv("PRIMARY_DATASET_URL"))
	if primaryURL == "" {
		return nil, errors.New("PRIMARY_DATASET_URL is required")
	}
	aux, err := parseDatasetSources(os.Getenv("AUX_DATASET_URLS"))
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("DATASET_FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("DATASET_CACHE_TTL", "1h")
	if err != nil {
		return nil, err
	}
	geodataTimeout, err := parsePositiveDuration("GEODATA_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}
	baseDelay, err := parsePositiveDuration("GEODATA_BASE_DELAY", "500ms")
	if err != nil {
		return nil, err
	}
	maxDelay, err := parsePositiveDuration("GEODATA_MAX_DELAY", "8s")
	if err != nil {
		return nil, err
	}
	if maxDelay < baseDelay {
		return nil, errors.New("invalid GEODATA_MAX_DELAY: must not be below GEODATA_BASE_DELAY")
	}
	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	maxAttempts, err := strconv.Atoi(sharedcfg.EnvOrDefault("GEODATA_MAX_ATTEMPTS", "4"))
	if err != nil || maxAttempts < 1 || maxAttempts > maxGeodataAttempts {
		return nil, fmt.Errorf("invalid GEODATA_MAX_ATTEMPTS: must be between 1 and %d", maxGeodataAttempts)
	}
	geodataCacheSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("GEODATA_CACHE_SIZE", "256"))
	if err != nil || geodataCacheSize < 0 {
		return nil, errors.New("invalid GEODATA_CACHE_SIZE")
	}
	radius, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("DEFAULT_RADIUS_KM", "10"), 64)
	if err != nil || !(radius > 0) {
		return nil, errors.New("invalid DEFAULT_RADIUS_KM: must be a positive number")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		PrimaryDataset:      DatasetSource{Key: sharedcfg.EnvOrDefault("PRIMARY_DATASET_KEY", "primary"), URL: primaryURL},
		AuxDatasets:         aux,
		DatasetFetchTimeout: fetchTimeout,
		DatasetCacheTTL:     cacheTTL,
		AllowedCountries:    splitList(sharedcfg.EnvOrDefault("ALLOWED_COUNTRIES", "France,Greece,Italy,Spain")),

		GeodataEndpoints:   splitList(sharedcfg.EnvOrDefault("GEODATA_ENDPOINTS", defaultGeodataEndpoints)),
		GeodataTimeout:     geodataTimeout,
		GeodataMaxAttempts: maxAttempts,
		GeodataBaseDelay:   baseDelay,
		GeodataMaxDelay:    maxDelay,
		GeodataCacheSize:   geodataCacheSize,

		DefaultRadiusKm: radius,
		DefaultLandUse:  splitList(sharedcfg.EnvOrDefault("DEFAULT_LAND_USE", "farmland,orchard,vineyard,meadow")),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioUseSSL:    sharedcfg.EnvOrDefault("MINIO_USE_SSL", "true") == "true",

		KafkaResultsTopic: sharedcfg.EnvOrDefault("KAFKA_RESULTS_TOPIC", "catchment-aggregates"),
	}
	if brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	for _, src := range cfg.AuxDatasets {
		if src.Key == cfg.PrimaryDataset.Key {
			return nil, fmt.Errorf("invalid AUX_DATASET_URLS: key %q is the primary dataset key", src.Key)
		}
	}
	if len(cfg.AllowedCountries) == 0 {
		return nil, errors.New("ALLOWED_COUNTRIES must name at least one country")
	}
	if len(cfg.GeodataEndpoints) == 0 {
		return nil, errors.New("GEODATA_ENDPOINTS must list at least one endpoint")
	}
	if len(cfg.DefaultLandUse) == 0 {
		return nil, errors.New("DEFAULT_LAND_USE must list at least one land use")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaResultsTopic == "" {
		return nil, errors.New("KAFKA_RESULTS_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// PublishingEnabled reports whether aggregation results go to Kafka.
func (c *Config) PublishingEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// StorageEnabled reports whether s3:// dataset URLs can be resolved.
func (c *Config) StorageEnabled() bool {
	return c.MinioEndpoint != ""
}

// parseDatasetSources parses "key=url,key=url". Keys must be unique.
func parseDatasetSources(raw string) ([]DatasetSource, error) {
	var out []DatasetSource
	seen := make(map[string]bool)
	for _, item := range splitList(raw) {
		key, url, ok := strings.Cut(item, "=")
		key, url = strings.TrimSpace(key), strings.TrimSpace(url)
		if !ok || key == "" || url == "" {
			return nil, fmt.Errorf("invalid AUX_DATASET_URLS entry %q: want key=url", item)
		}
		if seen[key] {
			return nil, fmt.Errorf("invalid AUX_DATASET_URLS: duplicate key %q", key)
		}
		seen[key] = true
		out = append(out, DatasetSource{Key: key, URL: url})
	}
	return out, nil
}

func parsePositiveDuration(name, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
