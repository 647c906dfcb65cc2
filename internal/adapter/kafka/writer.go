package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/nitrogen-catchment/internal/config"
	"github.com/couchcryptid/nitrogen-catchment/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces aggregation summaries to a Kafka topic.
// It implements pipeline.ResultPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured results topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaResultsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish writes one aggregation summary keyed by session, so results of a
// session stay ordered within a partition.
func (p *Publisher) Publish(ctx context.Context, result domain.AggregationResult) error {
	msg, err := serializeToMessage(result)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish aggregation %s: %w", result.ID, err)
	}
	p.logger.Debug("aggregation published", "session", result.Session, "id", result.ID, "topic", p.writer.Topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// summary is the published form of a result. Parcel geometry is left out.
type summary struct {
	ID                    string                  `json:"id"`
	Session               string                  `json:"session"`
	State                 domain.AggregationState `json:"state"`
	Region                domain.Region           `json:"region"`
	Dataset               string                  `json:"dataset"`
	RadiusKm              float64                 `json:"radius_km"`
	LandUse               []string                `json:"land_use"`
	PointCount            int                     `json:"point_count"`
	TotalQuantity         float64                 `json:"total_quantity"`
	TotalAreaSquareMeters float64                 `json:"total_area_m2"`
	Parcels               []parcelShare           `json:"parcels"`
	Warnings              []string                `json:"warnings,omitempty"`
	ComputedAt            time.Time               `json:"computed_at"`
}

type parcelShare struct {
	ID               string  `json:"id"`
	LandUse          string  `json:"land_use"`
	AreaSquareMeters float64 `json:"area_m2"`
	FertilizerShare  float64 `json:"fertilizer_share"`
}

func newSummary(r domain.AggregationResult) summary {
	parcels := make([]parcelShare, 0, len(r.Parcels))
	for _, p := range r.Parcels {
		parcels = append(parcels, parcelShare{
			ID:               p.ID,
			LandUse:          p.LandUse,
			AreaSquareMeters: p.AreaSquareMeters,
			FertilizerShare:  p.FertilizerShare,
		})
	}
	return summary{
		ID:                    r.ID,
		Session:               r.Session,
		State:                 r.State,
		Region:                r.Region,
		Dataset:               r.Dataset,
		RadiusKm:              r.RadiusKm,
		LandUse:               r.LandUse,
		PointCount:            len(r.Points),
		TotalQuantity:         r.TotalQuantity,
		TotalAreaSquareMeters: r.TotalAreaSquareMeters,
		Parcels:               parcels,
		Warnings:              r.Warnings,
		ComputedAt:            r.ComputedAt,
	}
}

// serializeToMessage marshals an aggregation summary into a Kafka message.
func serializeToMessage(result domain.AggregationResult) (kafkago.Message, error) {
	data, err := json.Marshal(newSummary(result))
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize aggregation: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(result.Session),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "state", Value: []byte(result.State)},
			{Key: "computed_at", Value: []byte(result.ComputedAt.Format(time.RFC3339))},
		},
	}, nil
}
