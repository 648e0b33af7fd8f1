// Command validate checks saved artifacts against the current observation
// data: each artifact must decode, be internally consistent, match the
// feature schema its station's dataset now produces, and score on the
// held-out partition within the given bounds.
//
// Usage:
//
//	go run ./cmd/validate -station St.Louis -station Peoria -min-r2 0.5
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/soil-temp-model/internal/adapter"
	"github.com/couchcryptid/soil-temp-model/internal/adapter/filestore"
	"github.com/couchcryptid/soil-temp-model/internal/config"
	"github.com/couchcryptid/soil-temp-model/internal/dataset"
	"github.com/couchcryptid/soil-temp-model/internal/model"
)

// phase tracks pass/fail for one station's checks.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type stationList []string

func (s *stationList) String() string { return strings.Join(*s, ",") }

func (s *stationList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	_ = godotenv.Load() // optional .env

	var stations stationList
	flag.Var(&stations, "station", "station to validate (repeatable)")
	minR2 := flag.Float64("min-r2", 0, "minimum held-out R² (0 disables)")
	maxRMSE := flag.Float64("max-rmse", 0, "maximum held-out RMSE (0 disables)")
	flag.Parse()

	if len(stations) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}
	// Checks report on stdout; library logging stays quiet.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := context.Background()
	src, closeSource, err := adapter.OpenSource(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open source: %v\n", err)
		os.Exit(1)
	}
	defer closeSource() //nolint:errcheck // read-only source

	v := &validator{
		store:   filestore.New(cfg.ArtifactDir, logger),
		builder: dataset.NewBuilder(dataset.NewResolver(src), src, cfg.MinExamples, logger),
		minR2:   *minR2,
		maxRMSE: *maxRMSE,
		out:     os.Stdout,
	}
	if code := v.run(ctx, stations); code != 0 {
		os.Exit(code)
	}
}

// ArtifactLoader reads a station's saved artifact.
type ArtifactLoader interface {
	Load(ctx context.Context, stationID string) (*model.Artifact, error)
}

// DatasetBuilder rebuilds a station's dataset.
type DatasetBuilder interface {
	Build(ctx context.Context, stationID string, lagDepth int) (*dataset.Dataset, error)
}

type validator struct {
	store   ArtifactLoader
	builder DatasetBuilder
	minR2   float64
	maxRMSE float64
	out     io.Writer
}

func (v *validator) run(ctx context.Context, stations []string) int {
	fmt.Fprintln(v.out, "=== Soil Model Artifact Validation ===")
	fmt.Fprintln(v.out)

	phases := make([]*phase, 0, len(stations))
	for _, id := range stations {
		phases = append(phases, v.check(ctx, id))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(v.out, "  %-32s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(v.out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(v.out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(v.out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(v.out, "\nValidation FAILED.")
	return 1
}

func (v *validator) check(ctx context.Context, stationID string) *phase {
	p := &phase{name: stationID}

	a, err := v.store.Load(ctx, stationID)
	if err != nil {
		p.errorf("load artifact: %v", err)
		return p
	}
	if err := a.Validate(); err != nil {
		p.errorf("artifact: %v", err)
		return p
	}

	ds, err := v.builder.Build(ctx, stationID, a.LagDepth)
	if err != nil {
		p.errorf("rebuild dataset: %v", err)
		return p
	}
	if !slices.Equal(ds.Schema, a.Schema) {
		p.errorf("schema drift: artifact %v, dataset %v", a.Schema, ds.Schema)
		return p
	}
	if ds.Target != a.Target {
		p.errorf("target drift: artifact %q, dataset %q", a.Target, ds.Target)
	}

	train, test := model.SplitExamples(ds.Examples, a.TestFraction, a.Seed)
	if len(train) != a.TrainRows || len(test) != a.TestRows {
		p.errorf("split drift: artifact %d/%d rows, dataset %d/%d", a.TrainRows, a.TestRows, len(train), len(test))
	}

	score, err := model.Evaluate(a, test)
	if err != nil {
		p.errorf("evaluate: %v", err)
		return p
	}
	fmt.Fprintf(v.out, "%-24s rows=%d rmse=%.3f mae=%.3f r2=%.3f\n", stationID, score.Rows, score.RMSE, score.MAE, score.R2)
	if v.minR2 > 0 && score.R2 < v.minR2 {
		p.errorf("held-out R² %.3f below %.3f", score.R2, v.minR2)
	}
	if v.maxRMSE > 0 && score.RMSE > v.maxRMSE {
		p.errorf("held-out RMSE %.3f above %.3f", score.RMSE, v.maxRMSE)
	}
	return p
}
