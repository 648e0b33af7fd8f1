// Command train builds each station's dataset, fits its soil temperature
// model and saves the artifact under ARTIFACT_DIR.
//
// Usage:
//
//	go run ./cmd/train -station St.Louis -station Peoria
//	go run ./cmd/train -jobs jobs.yaml
//	go run ./cmd/train -all
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/soil-temp-model/internal/adapter"
	"github.com/couchcryptid/soil-temp-model/internal/adapter/filestore"
	kafkaadapter "github.com/couchcryptid/soil-temp-model/internal/adapter/kafka"
	"github.com/couchcryptid/soil-temp-model/internal/config"
	"github.com/couchcryptid/soil-temp-model/internal/dataset"
	"github.com/couchcryptid/soil-temp-model/internal/model"
	"github.com/couchcryptid/soil-temp-model/internal/observability"
	"github.com/couchcryptid/soil-temp-model/internal/pipeline"
)

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	_ = godotenv.Load() // optional .env

	var stations stringList
	flag.Var(&stations, "station", "station to train (repeatable)")
	jobsFile := flag.String("jobs", "", "YAML file listing stations and lag depths")
	all := flag.Bool("all", false, "train every station in the station table")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, stations, *jobsFile, *all); err != nil {
		logger.Error("training failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, stations []string, jobsFile string, all bool) error {
	src, closeSource, err := adapter.OpenSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource() //nolint:errcheck // read-only source

	jobs, err := collectJobs(ctx, src, stations, jobsFile, all)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetricsWith(reg)
	defer pushMetrics(cfg, reg, logger)

	builder := dataset.NewBuilder(dataset.NewResolver(src), src, cfg.MinExamples, logger)
	opts := model.TrainOptions{TestFraction: cfg.TestFraction, Seed: cfg.RandomSeed}
	trainer := model.NewTrainer(opts, clockwork.NewRealClock(), logger)
	store := filestore.New(cfg.ArtifactDir, logger)

	var notifier pipeline.Notifier
	if cfg.KafkaEnabled {
		n := kafkaadapter.NewNotifier(cfg, logger)
		defer n.Close()
		notifier = n
	}

	p := pipeline.New(builder, trainer, store, notifier, pipeline.Options{
		LagDepth:    cfg.LagDepth,
		Parallelism: cfg.Parallelism,
	}, logger, metrics)

	results, err := p.Run(ctx, jobs)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		logScore(logger, r, opts)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d stations failed", failed, len(results))
	}
	return nil
}

// collectJobs merges -jobs, -station and -all into one job list, first
// occurrence of a station winning.
func collectJobs(ctx context.Context, src dataset.StationSource, stations []string, jobsFile string, all bool) ([]pipeline.Job, error) {
	var jobs []pipeline.Job
	if jobsFile != "" {
		f, err := os.Open(jobsFile)
		if err != nil {
			return nil, fmt.Errorf("open jobs file: %w", err)
		}
		defer f.Close()
		fileJobs, err := parseJobs(f)
		if err != nil {
			return nil, fmt.Errorf("jobs file %s: %w", jobsFile, err)
		}
		jobs = append(jobs, fileJobs...)
	}
	for _, s := range stations {
		jobs = append(jobs, pipeline.Job{StationID: s})
	}
	if all {
		records, err := src.Stations(ctx)
		if err != nil {
			return nil, fmt.Errorf("list stations: %w", err)
		}
		for _, rec := range records {
			jobs = append(jobs, pipeline.Job{StationID: rec.ID})
		}
	}

	jobs = dedupeJobs(jobs)
	if len(jobs) == 0 {
		return nil, errors.New("no stations to train: pass -station, -jobs or -all")
	}
	return jobs, nil
}

// pushMetrics hands the run's metrics to the Pushgateway when one is
// configured. It runs on shutdown too, so it does not reuse the run context.
func pushMetrics(cfg *config.Config, reg prometheus.Gatherer, logger *slog.Logger) {
	if cfg.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := observability.Push(ctx, cfg.PushgatewayURL, observability.TrainJob, reg); err != nil {
		logger.Error("push training metrics failed", "error", err)
		return
	}
	logger.Info("training metrics pushed", "url", cfg.PushgatewayURL, "job", observability.TrainJob)
}

func logScore(logger *slog.Logger, r pipeline.Result, opts model.TrainOptions) {
	_, test := model.SplitExamples(r.Examples, opts.TestFraction, opts.Seed)
	score, err := model.Evaluate(r.Artifact, test)
	if err != nil {
		logger.Warn("evaluation failed", "station", r.Job.StationID, "error", err)
		return
	}
	logger.Info("held-out score",
		"station", r.Job.StationID,
		"artifact_id", r.Artifact.ID,
		"rows", score.Rows,
		"rmse", score.RMSE,
		"mae", score.MAE,
		"r2", score.R2,
	)
}
