// Package inference serves predictions from per-station artifacts.
package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/soil-temp-model/internal/domain"
	"github.com/couchcryptid/soil-temp-model/internal/model"
	"github.com/couchcryptid/soil-temp-model/internal/observability"
)

// ArtifactLoader reads the persisted artifact of one station.
type ArtifactLoader interface {
	Load(ctx context.Context, stationID string) (*model.Artifact, error)
}

// Service answers predictions for any station with a saved artifact. Loaded
// artifacts are kept in an LRU of bounded size; each station is loaded at
// most once at a time, and concurrent callers share the in-flight load.
type Service struct {
	loader  ArtifactLoader
	cache   *lruCache[string, *model.Artifact]
	loads   singleflight.Group
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// NewService creates a Service holding up to cacheSize artifacts.
func NewService(loader ArtifactLoader, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		loader:  loader,
		cache:   newLRUCache[string, *model.Artifact](cacheSize),
		logger:  logger,
		metrics: metrics,
	}
}

// Artifact returns the station's artifact, loading it if it is not cached.
// The caller's context bounds the wait; the shared load itself is not
// cancelled when one waiter gives up.
func (s *Service) Artifact(ctx context.Context, stationID string) (*model.Artifact, error) {
	if a, ok := s.cache.get(stationID); ok {
		s.metrics.ArtifactCache.WithLabelValues("hit").Inc()
		return a, nil
	}
	s.metrics.ArtifactCache.WithLabelValues("miss").Inc()

	loadCtx := context.WithoutCancel(ctx)
	ch := s.loads.DoChan(stationID, func() (any, error) {
		// A load that finished between our cache miss and this call already filled the cache.
		if a, ok := s.cache.get(stationID); ok {
			return a, nil
		}
		return s.load(loadCtx, stationID)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load artifact for station %q: %w", stationID, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Artifact), nil
	}
}

func (s *Service) load(ctx context.Context, stationID string) (*model.Artifact, error) {
	start := time.Now()
	gen := s.cache.generation(stationID)
	a, err := s.loader.Load(ctx, stationID)
	if err != nil {
		s.metrics.ArtifactLoads.WithLabelValues(loadOutcome(err)).Inc()
		s.logger.Warn("artifact load failed", "station", stationID, "error", err)
		return nil, err
	}

	s.metrics.ArtifactLoads.WithLabelValues("success").Inc()
	evicted, ok, stored := s.cache.putAt(stationID, a, gen)
	if !stored {
		// Evicted while loading; serve this caller but let the next one reload.
		s.logger.Info("artifact superseded during load", "station", stationID, "artifact_id", a.ID)
		return a, nil
	}
	if ok {
		s.logger.Info("artifact evicted", "station", evicted)
	}
	s.metrics.ArtifactsCached.Set(float64(s.cache.len()))
	s.logger.Info("artifact loaded",
		"station", stationID,
		"artifact_id", a.ID,
		"trained_at", a.TrainedAt,
		"duration", time.Since(start),
	)
	return a, nil
}

// Predict returns the prediction for one record.
func (s *Service) Predict(ctx context.Context, stationID string, record map[string]float64) (float64, error) {
	start := time.Now()
	defer func() {
		s.metrics.PredictionDuration.WithLabelValues("one").Observe(time.Since(start).Seconds())
	}()

	a, err := s.Artifact(ctx, stationID)
	if err != nil {
		s.metrics.Predictions.WithLabelValues("one", predictOutcome(err)).Inc()
		return 0, err
	}
	y, err := a.PredictOne(record)
	if err != nil {
		s.metrics.Predictions.WithLabelValues("one", predictOutcome(err)).Inc()
		return 0, err
	}
	s.metrics.Predictions.WithLabelValues("one", "success").Inc()
	return y, nil
}

// PredictBatch returns one prediction per record, element for element equal
// to calling Predict on each.
func (s *Service) PredictBatch(ctx context.Context, stationID string, records []map[string]float64) ([]float64, error) {
	start := time.Now()
	defer func() {
		s.metrics.PredictionDuration.WithLabelValues("batch").Observe(time.Since(start).Seconds())
	}()

	a, err := s.Artifact(ctx, stationID)
	if err != nil {
		s.metrics.Predictions.WithLabelValues("batch", predictOutcome(err)).Inc()
		return nil, err
	}
	ys, err := a.PredictBatch(records)
	if err != nil {
		s.metrics.Predictions.WithLabelValues("batch", predictOutcome(err)).Inc()
		return nil, err
	}
	s.metrics.Predictions.WithLabelValues("batch", "success").Inc()
	return ys, nil
}

// Preload loads the given stations and then marks the service ready. It
// stops at the first failure and leaves the service not ready.
func (s *Service) Preload(ctx context.Context, stationIDs ...string) error {
	for _, id := range stationIDs {
		if _, err := s.Artifact(ctx, id); err != nil {
			return fmt.Errorf("preload station %q: %w", id, err)
		}
	}
	s.ready.Store(true)
	return nil
}

// Evict drops a station's artifact so the next request reloads it from storage.
func (s *Service) Evict(stationID string) {
	if s.cache.delete(stationID) {
		s.metrics.ArtifactsCached.Set(float64(s.cache.len()))
		s.logger.Info("artifact evicted", "station", stationID)
	}
	s.loads.Forget(stationID)
}

// CheckReadiness returns nil once Preload has completed.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("artifacts have not been preloaded yet")
	}
	return nil
}

func loadOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrIncompatibleArtifact):
		return "incompatible"
	default:
		return "error"
	}
}

func predictOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
