package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/soil-temp-model/internal/config"
	"github.com/couchcryptid/soil-temp-model/internal/model"
)

// ModelPublished announces that a station's artifact was replaced in storage.
type ModelPublished struct {
	StationID     string    `json:"station_id"`
	ArtifactID    string    `json:"artifact_id"`
	FormatVersion int       `json:"format_version"`
	LagDepth      int       `json:"lag_depth"`
	TrainedAt     time.Time `json:"trained_at"`
}

// Notifier publishes ModelPublished events.
// It implements pipeline.Notifier.
type Notifier struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured model topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaModelTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Notifier{writer: w, logger: logger}
}

// Notify publishes one event keyed by station, so a station's events stay ordered.
func (n *Notifier) Notify(ctx context.Context, a *model.Artifact) error {
	msg, err := serializeToMessage(a)
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish model event: %w", err)
	}
	n.logger.Debug("model event published", "station", a.StationID, "artifact_id", a.ID)
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals an artifact's ModelPublished event into a Kafka message.
func serializeToMessage(a *model.Artifact) (kafkago.Message, error) {
	data, err := json.Marshal(ModelPublished{
		StationID:     a.StationID,
		ArtifactID:    a.ID,
		FormatVersion: a.FormatVersion,
		LagDepth:      a.LagDepth,
		TrainedAt:     a.TrainedAt,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize model event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(a.StationID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "artifact_id", Value: []byte(a.ID)},
			{Key: "trained_at", Value: []byte(a.TrainedAt.Format(time.RFC3339))},
		},
	}, nil
}
