package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/nitrogen-catchment/internal/config"
	"github.com/couchcryptid/nitrogen-catchment/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	result := domain.AggregationResult{
		ID:       "0b6f3c1e-9d7a-4e52-8f61-2c4d5e6f7a8b",
		Session:  "s1",
		State:    domain.StateData,
		Region:   domain.Region{Country: "Greece", Province: "Attica"},
		Dataset:  "uwwtp",
		RadiusKm: 10,
		LandUse:  []string{"farmland"},
		Points: []domain.LocationPoint{
			{Name: "Psyttalia", Latitude: 37.9436, Longitude: 23.5897, Quantity: 1000},
		},
		TotalQuantity: 1000,
		Parcels: []domain.LandParcel{{
			ID:               "way/1",
			LandUse:          "farmland",
			Geometry:         geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{{23.58, 37.94}, {23.60, 37.94}, {23.60, 37.95}, {23.58, 37.94}}}),
			AreaSquareMeters: 1200,
			FertilizerShare:  1000,
		}},
		TotalAreaSquareMeters: 1200,
		ComputedAt:            now,
	}

	msg, err := serializeToMessage(result)
	require.NoError(t, err)

	assert.Equal(t, []byte("s1"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "state", msg.Headers[0].Key)
	assert.Equal(t, []byte("data"), msg.Headers[0].Value)
	assert.Equal(t, "computed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var got summary
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, result.ID, got.ID)
	assert.Equal(t, 1, got.PointCount)
	assert.Equal(t, []parcelShare{{ID: "way/1", LandUse: "farmland", AreaSquareMeters: 1200, FertilizerShare: 1000}}, got.Parcels)
	assert.NotContains(t, string(msg.Value), "coordinates", "geometry is not published")
}

func TestSerializeToMessage_NoParcels(t *testing.T) {
	msg, err := serializeToMessage(domain.AggregationResult{Session: "s2", State: domain.StateData})
	require.NoError(t, err)
	assert.Contains(t, string(msg.Value), `"parcels":[]`)
}

func TestNewPublisher(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaResultsTopic: "catchment-aggregates"}
	p := NewPublisher(cfg, nil)
	t.Cleanup(func() { _ = p.Close() })

	assert.Equal(t, "catchment-aggregates", p.writer.Topic)
	assert.Equal(t, "localhost:9092", p.writer.Addr.String())
}
