// Package kafka carries model-published notifications between trainers and
// serving instances.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/soil-temp-model/internal/config"
)

// Evictor drops a station's cached artifact.
type Evictor interface {
	Evict(stationID string)
}

// Listener consumes ModelPublished events and evicts the announced stations
// so the next prediction reloads the new artifact. Every serving instance
// needs its own consumer group to see every event.
type Listener struct {
	reader  *kafkago.Reader
	evictor Evictor
	logger  *slog.Logger
}

// NewListener creates a consumer of the configured model topic starting at
// the latest offset.
func NewListener(cfg *config.Config, evictor Evictor, logger *slog.Logger) *Listener {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaModelTopic,
		GroupID:     cfg.KafkaGroupID,
		StartOffset: kafkago.LastOffset,
		MinBytes:    1,
		MaxBytes:    1 << 20,
	})
	return &Listener{reader: r, evictor: evictor, logger: logger}
}

// Run consumes until ctx is cancelled. Read failures are retried with
// exponential backoff.
func (l *Listener) Run(ctx context.Context) error {
	l.logger.Info("model listener started")
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		msg, err := l.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				l.logger.Info("model listener stopping", "reason", ctx.Err())
				return nil
			}
			l.logger.Error("read model event failed", "error", err, "backoff", backoff)
			if !retry.SleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = retry.NextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = 200 * time.Millisecond
		l.handle(msg)
	}
}

func (l *Listener) handle(msg kafkago.Message) {
	event, err := decodeMessage(msg)
	if err != nil {
		l.logger.Warn("skipping model event", "error", err,
			"partition", msg.Partition, "offset", msg.Offset)
		return
	}
	l.evictor.Evict(event.StationID)
	l.logger.Info("model event received",
		"station", event.StationID,
		"artifact_id", event.ArtifactID,
		"trained_at", event.TrainedAt,
	)
}

func (l *Listener) Close() error {
	return l.reader.Close()
}

func decodeMessage(msg kafkago.Message) (ModelPublished, error) {
	var event ModelPublished
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return ModelPublished{}, fmt.Errorf("decode model event: %w", err)
	}
	if event.StationID == "" {
		event.StationID = string(msg.Key)
	}
	if event.StationID == "" {
		return ModelPublished{}, errors.New("model event has no station")
	}
	return event, nil
}
