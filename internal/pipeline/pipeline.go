// Package pipeline runs the per-station build, train, save and notify cycle.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/soil-temp-model/internal/dataset"
	"github.com/couchcryptid/soil-temp-model/internal/domain"
	"github.com/couchcryptid/soil-temp-model/internal/model"
	"github.com/couchcryptid/soil-temp-model/internal/observability"
)

// DatasetBuilder assembles the supervised dataset of one station.
type DatasetBuilder interface {
	Build(ctx context.Context, stationID string, lagDepth int) (*dataset.Dataset, error)
}

// ModelTrainer fits an artifact to a dataset.
type ModelTrainer interface {
	Train(ds *dataset.Dataset) (*model.Artifact, error)
}

// ArtifactStore persists fitted artifacts.
type ArtifactStore interface {
	Save(ctx context.Context, a *model.Artifact) error
}

// Notifier announces a newly saved artifact to serving instances.
type Notifier interface {
	Notify(ctx context.Context, a *model.Artifact) error
}

// Job names one station to train. A zero LagDepth uses the pipeline default.
type Job struct {
	StationID string `yaml:"station"`
	LagDepth  int    `yaml:"lag_depth"`
}

// Result is the outcome of one job.
type Result struct {
	Job      Job
	Artifact *model.Artifact
	Examples []domain.TrainingExample
	Duration time.Duration
	Err      error
}

// Options tune a Pipeline.
type Options struct {
	LagDepth     int
	Parallelism  int
	SaveAttempts int
	RetryBackoff time.Duration
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		LagDepth:     dataset.DefaultLagDepth,
		Parallelism:  4,
		SaveAttempts: 3,
		RetryBackoff: 200 * time.Millisecond,
	}
}

// Pipeline trains stations independently; one station's failure never
// affects another's.
type Pipeline struct {
	builder  DatasetBuilder
	trainer  ModelTrainer
	store    ArtifactStore
	notifier Notifier
	opts     Options
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Pipeline. Pass a nil notifier to skip notifications.
func New(b DatasetBuilder, t ModelTrainer, s ArtifactStore, n Notifier, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	def := DefaultOptions()
	if opts.LagDepth == 0 {
		opts.LagDepth = def.LagDepth
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = def.Parallelism
	}
	if opts.SaveAttempts < 1 {
		opts.SaveAttempts = def.SaveAttempts
	}
	return &Pipeline{
		builder:  b,
		trainer:  t,
		store:    s,
		notifier: n,
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run trains every job, at most Parallelism at a time, and returns one
// Result per job in job order. The returned error is non-nil only when ctx
// ends before all jobs ran.
func (p *Pipeline) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	p.logger.Info("pipeline started", "stations", len(jobs), "parallelism", p.opts.Parallelism)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	results := make([]Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Parallelism)
	for i, job := range jobs {
		if job.LagDepth == 0 {
			job.LagDepth = p.opts.LagDepth
		}
		g.Go(func() error {
			results[i] = p.runOne(gctx, job)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	p.logger.Info("pipeline finished", "stations", len(jobs), "failed", failed)

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("pipeline interrupted: %w", err)
	}
	return results, nil
}

func (p *Pipeline) runOne(ctx context.Context, job Job) Result {
	start := time.Now()
	res := Result{Job: job}
	logger := p.logger.With("station", job.StationID, "lag_depth", job.LagDepth)

	res.Artifact, res.Examples, res.Err = p.train(ctx, job)
	res.Duration = time.Since(start)

	outcome := Outcome(res.Err)
	p.metrics.TrainingRuns.WithLabelValues(outcome).Inc()
	p.metrics.TrainingDuration.Observe(res.Duration.Seconds())
	if res.Err != nil {
		logger.Error("station training failed", "outcome", outcome, "error", res.Err)
		return res
	}

	logger.Info("station trained",
		"artifact_id", res.Artifact.ID,
		"train_rows", res.Artifact.TrainRows,
		"test_rows", res.Artifact.TestRows,
		"duration", res.Duration,
	)
	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, res.Artifact); err != nil {
			logger.Warn("model notification failed", "artifact_id", res.Artifact.ID, "error", err)
		}
	}
	return res
}

func (p *Pipeline) train(ctx context.Context, job Job) (*model.Artifact, []domain.TrainingExample, error) {
	ds, err := p.builder.Build(ctx, job.StationID, job.LagDepth)
	if err != nil {
		return nil, nil, fmt.Errorf("build dataset: %w", err)
	}
	p.metrics.DatasetRows.Observe(float64(len(ds.Examples)))

	a, err := p.trainer.Train(ds)
	if err != nil {
		return nil, nil, fmt.Errorf("train: %w", err)
	}
	if err := p.save(ctx, a); err != nil {
		return nil, nil, err
	}
	return a, ds.Examples, nil
}

// save retries storage failures with exponential backoff.
func (p *Pipeline) save(ctx context.Context, a *model.Artifact) error {
	backoff := p.opts.RetryBackoff
	maxBackoff := 5 * time.Second

	var err error
	for attempt := 1; attempt <= p.opts.SaveAttempts; attempt++ {
		if err = p.store.Save(ctx, a); err == nil {
			return nil
		}
		if ctx.Err() != nil || !errors.Is(err, domain.ErrStorage) || attempt == p.opts.SaveAttempts {
			break
		}
		p.logger.Warn("save artifact failed, retrying",
			"station", a.StationID, "attempt", attempt, "backoff", backoff, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			break
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
	return fmt.Errorf("save artifact: %w", err)
}

// Outcome classifies a job error into a metrics label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrAmbiguousStation):
		return "ambiguous_station"
	case errors.Is(err, domain.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, domain.ErrTraining):
		return "training_error"
	case errors.Is(err, domain.ErrStorage):
		return "storage_error"
	default:
		return "error"
	}
}
