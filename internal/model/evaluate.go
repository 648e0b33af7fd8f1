package model

import (
	"math"

	"github.com/couchcryptid/soil-temp-model/internal/domain"
)

// Score summarises predictions against held-out targets.
type Score struct {
	Rows int
	RMSE float64
	MAE  float64
	R2   float64
}

// Evaluate scores the artifact on examples whose features follow its schema.
func Evaluate(a *Artifact, examples []domain.TrainingExample) (Score, error) {
	s := Score{Rows: len(examples)}
	if len(examples) == 0 {
		return s, nil
	}

	var sse, sae, mean float64
	for _, ex := range examples {
		mean += ex.Target
	}
	mean /= float64(len(examples))

	var sst float64
	for _, ex := range examples {
		pred, err := a.predictVector(ex.Features)
		if err != nil {
			return Score{}, err
		}
		d := pred - ex.Target
		sse += d * d
		sae += math.Abs(d)
		sst += (ex.Target - mean) * (ex.Target - mean)
	}

	n := float64(len(examples))
	s.RMSE = math.Sqrt(sse / n)
	s.MAE = sae / n
	if sst > 0 {
		s.R2 = 1 - sse/sst
	}
	return s, nil
}
