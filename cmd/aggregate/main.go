// Command aggregate runs one catchment aggregation against the configured
// datasets and writes the result as JSON, with parcels as GeoJSON.
//
// Usage:
//
//	PRIMARY_DATASET_URL=file://data/uwwtp.csv go run ./cmd/aggregate \
//	  -country Greece -province Attica \
//	  -radius 15 -land-use farmland,orchard \
//	  -out attica.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/couchcryptid/nitrogen-catchment/internal/app"
	"github.com/couchcryptid/nitrogen-catchment/internal/config"
	"github.com/couchcryptid/nitrogen-catchment/internal/domain"
	"github.com/couchcryptid/nitrogen-catchment/internal/observability"
	"github.com/couchcryptid/nitrogen-catchment/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/twpayne/go-geom/encoding/geojson"
)

type output struct {
	domain.AggregationResult
	Parcels *geojson.FeatureCollection `json:"parcels,omitempty"`
}

func main() {
	country := flag.String("country", "", "country name or ISO code (required)")
	province := flag.String("province", "", "province name (required)")
	datasetKey := flag.String("dataset", "", "dataset key (default: primary dataset)")
	radius := flag.Float64("radius", 0, "catchment radius in km (default: DEFAULT_RADIUS_KM)")
	landUse := flag.String("land-use", "", "comma-separated land uses (default: DEFAULT_LAND_USE)")
	out := flag.String("out", "", "output file (default: stdout)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	if err := run(*country, *province, *datasetKey, *radius, *landUse, *out); err != nil {
		fmt.Fprintln(os.Stderr, "aggregate:", err)
		os.Exit(1)
	}
}

func run(country, province, datasetKey string, radius float64, landUse, out string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg)

	a, err := app.New(cfg, clockwork.NewRealClock(), logger, observability.NewMetrics())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	req := pipeline.Request{
		Session:  "cli",
		Region:   domain.Region{Country: country, Province: province},
		Dataset:  datasetKey,
		RadiusKm: radius,
	}
	if landUse != "" {
		req.LandUse = strings.Split(landUse, ",")
	}

	result, err := a.Aggregator.Aggregate(ctx, req)
	if err != nil {
		return err
	}
	for _, warning := range result.Warnings {
		logger.Warn("dataset warning", "warning", warning)
	}

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := write(w, result); err != nil {
		return err
	}

	switch result.State {
	case domain.StateData:
		logger.Info("aggregation complete", "points", len(result.Points), "parcels", len(result.Parcels),
			"total_quantity", result.TotalQuantity, "total_area_m2", result.TotalAreaSquareMeters)
		return nil
	case domain.StateCancelled:
		return errors.New("aggregation cancelled")
	default:
		return errors.New(result.Error)
	}
}

func write(w io.Writer, result domain.AggregationResult) error {
	o := output{AggregationResult: result}
	if result.State == domain.StateData {
		o.Parcels = domain.ParcelFeatures(result.Parcels)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(o); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
