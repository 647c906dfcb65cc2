package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/couchcryptid/nitrogen-catchment/internal/domain"
	"github.com/couchcryptid/nitrogen-catchment/internal/pipeline"
	"github.com/twpayne/go-geom/encoding/geojson"
)

const maxRequestBytes = 1 << 20

// aggregationResponse replaces the parcel list with its GeoJSON rendering.
type aggregationResponse struct {
	domain.AggregationResult
	Parcels *geojson.FeatureCollection `json:"parcels,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	idx, err := s.service.Index(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idx)
}

func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	points, err := s.service.Points(r.Context(), pipeline.RegionQuery{
		Region:  domain.Region{Country: q.Get("country"), Province: q.Get("province")},
		Dataset: q.Get("dataset"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: decode body: %w", domain.ErrInvalidRequest, err))
		return
	}

	result, err := s.service.Aggregate(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, statusFor(result.State), render(result))
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	result, ok := s.service.Latest(r.PathValue("session"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no aggregation for session"})
		return
	}
	writeJSON(w, statusFor(result.State), render(result))
}

func render(result domain.AggregationResult) aggregationResponse {
	resp := aggregationResponse{AggregationResult: result}
	if result.State == domain.StateData {
		resp.Parcels = domain.ParcelFeatures(result.Parcels)
	}
	return resp
}

// statusFor maps a result state to a response code. Error states are
// reported as upstream failures since they come from dataset or geodata
// services.
func statusFor(state domain.AggregationState) int {
	switch state {
	case domain.StateData:
		return http.StatusOK
	case domain.StateLoading:
		return http.StatusAccepted
	case domain.StateCancelled:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrPrimaryDataset):
		status = http.StatusServiceUnavailable
	case r.Context().Err() != nil:
		return
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
