package domain

import "time"

// AggregationState is the lifecycle state of an aggregation. Loading is the
// only non-terminal state.
type AggregationState string

const (
	StateLoading   AggregationState = "loading"
	StateData      AggregationState = "data"
	StateError     AggregationState = "error"
	StateCancelled AggregationState = "cancelled"
)

// Terminal reports whether s is a final state.
func (s AggregationState) Terminal() bool {
	return s == StateData || s == StateError || s == StateCancelled
}

// AggregationResult is what one aggregation resolves to. Error is set only in
// StateError; the totals and parcels only in StateData.
type AggregationResult struct {
	ID                    string           `json:"id"`
	Session               string           `json:"session"`
	State                 AggregationState `json:"state"`
	Error                 string           `json:"error,omitempty"`
	Region                Region           `json:"region"`
	Dataset               string           `json:"dataset"`
	RadiusKm              float64          `json:"radius_km"`
	LandUse               []string         `json:"land_use"`
	Points                []LocationPoint  `json:"points"`
	TotalQuantity         float64          `json:"total_quantity"`
	TotalAreaSquareMeters float64          `json:"total_area_m2"`
	Parcels               []LandParcel     `json:"-"`
	Warnings              []string         `json:"warnings,omitempty"`
	ComputedAt            time.Time        `json:"computed_at"`
}
