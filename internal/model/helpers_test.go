package model

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/soil-temp-model/internal/dataset"
	"github.com/couchcryptid/soil-temp-model/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var trainedAt = time.Date(2025, time.May, 4, 12, 0, 0, 0, time.UTC)

func newTestTrainer(opts TrainOptions) *Trainer {
	return NewTrainer(opts, clockwork.NewFakeClockAt(trainedAt), discardLogger())
}

// groundTruth is a degree-2 polynomial of the six default features, so a
// correct fit reproduces it to rounding error.
func groundTruth(x []float64) float64 {
	return 3 + 0.02*x[0] - 4*x[1] + 0.5*x[2]*x[3]/100 + 0.8*x[4] + 0.1*x[5] - 0.001*x[4]*x[4]
}

func syntheticDataset(n int, seed uint64) *dataset.Dataset {
	rng := rand.New(rand.NewPCG(seed, 7))
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

	examples := make([]domain.TrainingExample, n)
	for i := range examples {
		x := []float64{
			rng.Float64() * 360, // avg_wind_dir
			rng.Float64() * 2,   // precip
			rng.Float64() * 0.3, // pot_evapot
			20 + rng.Float64()*70,
			30 + rng.Float64()*50, // Tlag_1
			30 + rng.Float64()*50, // Tlag_2
		}
		examples[i] = domain.TrainingExample{
			Date:     start.AddDate(0, 0, i),
			Features: x,
			Target:   groundTruth(x),
		}
	}
	return &dataset.Dataset{
		StationID: "St.Louis",
		LagDepth:  2,
		Schema:    domain.FeatureSchema(2),
		Target:    domain.TargetColumn,
		Examples:  examples,
	}
}

func recordFor(schema []string, x []float64) map[string]float64 {
	rec := make(map[string]float64, len(schema))
	for i, name := range schema {
		rec[name] = x[i]
	}
	return rec
}
