package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPrimaryURL  = "https://data.example.org/uwwtp.csv"
	testMapboxToken = "pk.test-token"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PRIMARY_DATASET_URL", testPrimaryURL)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, DatasetSource{Key: "primary", URL: testPrimaryURL}, cfg.PrimaryDataset)
	assert.Empty(t, cfg.AuxDatasets)
	assert.Equal(t, 30*time.Second, cfg.DatasetFetchTimeout)
	assert.Equal(t, time.Hour, cfg.DatasetCacheTTL)
	assert.Equal(t, []string{"France", "Greece", "Italy", "Spain"}, cfg.AllowedCountries)

	assert.Len(t, cfg.GeodataEndpoints, 3)
	assert.Equal(t, 60*time.Second, cfg.GeodataTimeout)
	assert.Equal(t, 4, cfg.GeodataMaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.GeodataBaseDelay)
	assert.Equal(t, 8*time.Second, cfg.GeodataMaxDelay)
	assert.Equal(t, 256, cfg.GeodataCacheSize)

	assert.InDelta(t, 10.0, cfg.DefaultRadiusKm, 1e-9)
	assert.Equal(t, []string{"farmland", "orchard", "vineyard", "meadow"}, cfg.DefaultLandUse)

	assert.False(t, cfg.MapboxEnabled)
	assert.Empty(t, cfg.MapboxToken)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)

	assert.False(t, cfg.StorageEnabled())
	assert.True(t, cfg.MinioUseSSL)
	assert.False(t, cfg.PublishingEnabled())
	assert.Equal(t, "catchment-aggregates", cfg.KafkaResultsTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("PRIMARY_DATASET_URL", "s3://datasets/uwwtp.csv")
	t.Setenv("PRIMARY_DATASET_KEY", "uwwtp")
	t.Setenv("AUX_DATASET_URLS", "digesters=https://data.example.org/biogas.csv, farms=file:///srv/farms.csv")
	t.Setenv("DATASET_FETCH_TIMEOUT", "5s")
	t.Setenv("DATASET_CACHE_TTL", "10m")
	t.Setenv("ALLOWED_COUNTRIES", "Greece, Cyprus")
	t.Setenv("GEODATA_ENDPOINTS", "http://overpass.local/api/interpreter")
	t.Setenv("GEODATA_TIMEOUT", "15s")
	t.Setenv("GEODATA_MAX_ATTEMPTS", "5")
	t.Setenv("GEODATA_BASE_DELAY", "100ms")
	t.Setenv("GEODATA_MAX_DELAY", "1s")
	t.Setenv("GEODATA_CACHE_SIZE", "0")
	t.Setenv("DEFAULT_RADIUS_KM", "2.5")
	t.Setenv("DEFAULT_LAND_USE", "vineyard")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")
	t.Setenv("MINIO_ENDPOINT", "minio:9000")
	t.Setenv("MINIO_ACCESS_KEY", "access")
	t.Setenv("MINIO_SECRET_KEY", "secret")
	t.Setenv("MINIO_USE_SSL", "false")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_RESULTS_TOPIC", "custom-results")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DatasetSource{Key: "uwwtp", URL: "s3://datasets/uwwtp.csv"}, cfg.PrimaryDataset)
	assert.Equal(t, []DatasetSource{
		{Key: "digesters", URL: "https://data.example.org/biogas.csv"},
		{Key: "farms", URL: "file:///srv/farms.csv"},
	}, cfg.AuxDatasets)
	assert.Equal(t, 5*time.Second, cfg.DatasetFetchTimeout)
	assert.Equal(t, 10*time.Minute, cfg.DatasetCacheTTL)
	assert.Equal(t, []string{"Greece", "Cyprus"}, cfg.AllowedCountries)
	assert.Equal(t, []string{"http://overpass.local/api/interpreter"}, cfg.GeodataEndpoints)
	assert.Equal(t, 15*time.Second, cfg.GeodataTimeout)
	assert.Equal(t, 5, cfg.GeodataMaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.GeodataBaseDelay)
	assert.Equal(t, time.Second, cfg.GeodataMaxDelay)
	assert.Zero(t, cfg.GeodataCacheSize)
	assert.InDelta(t, 2.5, cfg.DefaultRadiusKm, 1e-9)
	assert.Equal(t, []string{"vineyard"}, cfg.DefaultLandUse)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
	assert.True(t, cfg.StorageEnabled())
	assert.Equal(t, "minio:9000", cfg.MinioEndpoint)
	assert.False(t, cfg.MinioUseSSL)
	assert.True(t, cfg.PublishingEnabled())
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-results", cfg.KafkaResultsTopic)
}

func TestLoad_MissingPrimaryDataset(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRIMARY_DATASET_URL")
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"shutdown timeout", "SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"negative shutdown timeout", "SHUTDOWN_TIMEOUT", "-1s"},
		{"aux entry without key", "AUX_DATASET_URLS", "https://data.example.org/a.csv"},
		{"aux duplicate key", "AUX_DATASET_URLS", "a=http://x/1.csv,a=http://x/2.csv"},
		{"aux shadows primary", "AUX_DATASET_URLS", "primary=http://x/1.csv"},
		{"fetch timeout", "DATASET_FETCH_TIMEOUT", "soon"},
		{"cache ttl", "DATASET_CACHE_TTL", "0s"},
		{"geodata timeout", "GEODATA_TIMEOUT", "-5s"},
		{"zero attempts", "GEODATA_MAX_ATTEMPTS", "0"},
		{"too many attempts", "GEODATA_MAX_ATTEMPTS", "6"},
		{"attempts not a number", "GEODATA_MAX_ATTEMPTS", "four"},
		{"max delay below base", "GEODATA_MAX_DELAY", "100ms"},
		{"negative cache size", "GEODATA_CACHE_SIZE", "-1"},
		{"zero radius", "DEFAULT_RADIUS_KM", "0"},
		{"radius not a number", "DEFAULT_RADIUS_KM", "ten"},
		{"mapbox timeout", "MAPBOX_TIMEOUT", "bad"},
		{"empty allow-list", "ALLOWED_COUNTRIES", " , "},
		{"empty endpoints", "GEODATA_ENDPOINTS", ","},
		{"empty land use", "DEFAULT_LAND_USE", ","},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("PRIMARY_DATASET_URL", testPrimaryURL)
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.key)
		})
	}
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("PRIMARY_DATASET_URL", testPrimaryURL)
	t.Setenv("MAPBOX_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_MapboxTokenImpliesEnabled(t *testing.T) {
	t.Setenv("PRIMARY_DATASET_URL", testPrimaryURL)
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.MapboxEnabled)
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("PRIMARY_DATASET_URL", testPrimaryURL)
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}
