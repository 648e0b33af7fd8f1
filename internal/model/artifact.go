package model

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/couchcryptid/soil-temp-model/internal/domain"
)

// FormatVersion identifies the artifact layout: the feature schema order, the
// polynomial term order and the coefficient order. Bump it on any change that
// would make an older artifact mispredict.
const FormatVersion = 1

// Artifact is a fitted polynomial regression for one station. It is immutable
// once built or loaded and safe for concurrent use.
type Artifact struct {
	FormatVersion int                `json:"format_version"`
	ID            string             `json:"id"`
	StationID     string             `json:"station_id"`
	LagDepth      int                `json:"lag_depth"`
	Seed          uint64             `json:"seed"`
	TestFraction  float64            `json:"test_fraction"`
	TrainedAt     time.Time          `json:"trained_at"`
	Target        string             `json:"target"`
	Schema        []string           `json:"feature_schema"`
	Poly          PolynomialFeatures `json:"polynomial"`
	Intercept     float64            `json:"intercept"`
	Coefficients  []float64          `json:"coefficients"`
	TrainRows     int                `json:"train_rows"`
	TestRows      int                `json:"test_rows"`
}

// PredictOne predicts the target for a record holding exactly the schema's
// feature names, in any order.
func (a *Artifact) PredictOne(record map[string]float64) (float64, error) {
	x, err := a.vector(record)
	if err != nil {
		return 0, err
	}
	return a.predictVector(x)
}

// PredictBatch predicts every record independently. It fails on the first
// record that does not match the schema and returns no partial results.
func (a *Artifact) PredictBatch(records []map[string]float64) ([]float64, error) {
	out := make([]float64, len(records))
	for i, rec := range records {
		v, err := a.PredictOne(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// vector orders a record's values by the schema, rejecting missing or extra names.
func (a *Artifact) vector(record map[string]float64) ([]float64, error) {
	var mismatch domain.SchemaMismatchError
	x := make([]float64, len(a.Schema))
	for i, name := range a.Schema {
		v, ok := record[name]
		if !ok {
			mismatch.Missing = append(mismatch.Missing, name)
			continue
		}
		x[i] = v
	}
	for name := range record {
		if !slices.Contains(a.Schema, name) {
			mismatch.Unexpected = append(mismatch.Unexpected, name)
		}
	}
	if len(mismatch.Missing) > 0 || len(mismatch.Unexpected) > 0 {
		sort.Strings(mismatch.Unexpected)
		return nil, &mismatch
	}
	return x, nil
}

func (a *Artifact) predictVector(x []float64) (float64, error) {
	terms, err := a.Poly.Transform(x)
	if err != nil {
		return 0, err
	}
	y := a.Intercept
	for k, t := range terms {
		y += a.Coefficients[k] * t
	}
	return y, nil
}

// Validate checks the version and that schema, expansion and coefficients agree.
// Failures wrap domain.ErrIncompatibleArtifact.
func (a *Artifact) Validate() error {
	if a.FormatVersion != FormatVersion {
		return fmt.Errorf("artifact format version %d, this build reads %d: %w",
			a.FormatVersion, FormatVersion, domain.ErrIncompatibleArtifact)
	}
	if a.StationID == "" {
		return fmt.Errorf("artifact has no station id: %w", domain.ErrIncompatibleArtifact)
	}
	if err := a.Poly.validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIncompatibleArtifact, err)
	}
	if len(a.Schema) != a.Poly.Inputs {
		return fmt.Errorf("feature schema has %d names, expansion expects %d: %w",
			len(a.Schema), a.Poly.Inputs, domain.ErrIncompatibleArtifact)
	}
	seen := make(map[string]bool, len(a.Schema))
	for _, name := range a.Schema {
		if name == "" || seen[name] {
			return fmt.Errorf("feature schema name %q empty or repeated: %w", name, domain.ErrIncompatibleArtifact)
		}
		seen[name] = true
	}
	if len(a.Coefficients) != a.Poly.OutputSize() {
		return fmt.Errorf("%d coefficients for %d terms: %w",
			len(a.Coefficients), a.Poly.OutputSize(), domain.ErrIncompatibleArtifact)
	}
	for _, c := range append([]float64{a.Intercept}, a.Coefficients...) {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("non-finite coefficient: %w", domain.ErrIncompatibleArtifact)
		}
	}
	return nil
}
