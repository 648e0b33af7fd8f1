package model

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/soil-temp-model/internal/dataset"
	"github.com/couchcryptid/soil-temp-model/internal/domain"
)

// TrainOptions controls the split and the expansion.
type TrainOptions struct {
	TestFraction float64
	Seed         uint64
	Degree       int
}

// DefaultTrainOptions holds a 20% test split, seed 42 and degree 2.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{TestFraction: 0.2, Seed: 42, Degree: 2}
}

// Trainer fits a polynomial regression to a station's dataset.
type Trainer struct {
	opts   TrainOptions
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewTrainer creates a Trainer stamping artifacts with clock. A zero Degree
// falls back to 2 and a nil clock to real time.
func NewTrainer(opts TrainOptions, clock clockwork.Clock, logger *slog.Logger) *Trainer {
	if opts.Degree == 0 {
		opts.Degree = 2
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Trainer{opts: opts, clock: clock, logger: logger}
}

// Train expands the features, holds out the seeded test partition and fits
// OLS on the rest. The test partition is not scored here; callers recover it
// with SplitExamples and score it with Evaluate.
func (t *Trainer) Train(ds *dataset.Dataset) (*Artifact, error) {
	if t.opts.TestFraction < 0 || t.opts.TestFraction >= 1 {
		return nil, errors.New("test fraction must be in [0, 1)")
	}
	if len(ds.Examples) == 0 {
		return nil, fmt.Errorf("station %q: empty dataset: %w", ds.StationID, domain.ErrTraining)
	}

	poly := NewPolynomialFeatures(len(ds.Schema), t.opts.Degree)
	train, test := SplitExamples(ds.Examples, t.opts.TestFraction, t.opts.Seed)

	x := make([][]float64, len(train))
	y := make([]float64, len(train))
	for i, ex := range train {
		terms, err := poly.Transform(ex.Features)
		if err != nil {
			return nil, fmt.Errorf("station %q row %s: %w", ds.StationID, ex.Date.Format("2006-01-02"), err)
		}
		x[i] = terms
		y[i] = ex.Target
	}

	intercept, coef, err := fitOLS(x, y)
	if err != nil {
		return nil, fmt.Errorf("station %q: %w", ds.StationID, err)
	}

	a := &Artifact{
		FormatVersion: FormatVersion,
		ID:            uuid.NewString(),
		StationID:     ds.StationID,
		LagDepth:      ds.LagDepth,
		Seed:          t.opts.Seed,
		TestFraction:  t.opts.TestFraction,
		TrainedAt:     t.clock.Now().UTC(),
		Target:        ds.Target,
		Schema:        append([]string(nil), ds.Schema...),
		Poly:          poly,
		Intercept:     intercept,
		Coefficients:  coef,
		TrainRows:     len(train),
		TestRows:      len(test),
	}

	t.logger.Info("model trained",
		"station", ds.StationID,
		"artifact_id", a.ID,
		"terms", poly.OutputSize(),
		"train_rows", len(train),
		"test_rows", len(test),
	)
	return a, nil
}

// SplitExamples applies Split to a slice of examples, keeping input order
// within each partition.
func SplitExamples(examples []domain.TrainingExample, testFraction float64, seed uint64) (train, test []domain.TrainingExample) {
	trainIdx, testIdx := Split(len(examples), testFraction, seed)
	train = make([]domain.TrainingExample, len(trainIdx))
	for i, idx := range trainIdx {
		train[i] = examples[idx]
	}
	test = make([]domain.TrainingExample, len(testIdx))
	for i, idx := range testIdx {
		test[i] = examples[idx]
	}
	return train, test
}
