package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/nitrogen-catchment/internal/domain"
	"github.com/couchcryptid/nitrogen-catchment/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Service is the aggregation API served over HTTP.
type Service interface {
	Index(ctx context.Context) (pipeline.IndexResult, error)
	Points(ctx context.Context, q pipeline.RegionQuery) (pipeline.PointsResult, error)
	Aggregate(ctx context.Context, req pipeline.Request) (domain.AggregationResult, error)
	Latest(session string) (domain.AggregationResult, bool)
}

// Server exposes the aggregation API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	service    Service
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the /api/v1 routes and /healthz,
// /readyz, and /metrics.
func NewServer(addr string, service Service, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 5 * time.Minute, // aggregations wait on geodata retries
			IdleTimeout:  60 * time.Second,
		},
		service: service,
		logger:  logger,
	}

	mux.HandleFunc("GET /api/v1/index", s.handleIndex)
	mux.HandleFunc("GET /api/v1/points", s.handlePoints)
	mux.HandleFunc("POST /api/v1/aggregations", s.handleAggregate)
	mux.HandleFunc("GET /api/v1/sessions/{session}/result", s.handleLatest)

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
