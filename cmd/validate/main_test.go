package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/soil-temp-model/internal/dataset"
	"github.com/couchcryptid/soil-temp-model/internal/domain"
	"github.com/couchcryptid/soil-temp-model/internal/model"
)

// --- mocks ---

type mockStore struct {
	artifacts map[string]*model.Artifact
}

func (m *mockStore) Load(_ context.Context, stationID string) (*model.Artifact, error) {
	a, ok := m.artifacts[stationID]
	if !ok {
		return nil, fmt.Errorf("station %q: %w", stationID, domain.ErrNotFound)
	}
	return a, nil
}

type mockBuilder struct {
	schema []string
}

// Build returns 20 rows following 2 + precip + 0.5·Tlag_1 exactly.
func (m *mockBuilder) Build(_ context.Context, stationID string, lagDepth int) (*dataset.Dataset, error) {
	examples := make([]domain.TrainingExample, 20)
	for i := range examples {
		x := []float64{float64(i%4) * 0.1, 30 + float64(i)}
		examples[i] = domain.TrainingExample{
			Date:     time.Date(2023, time.June, 1+i, 0, 0, 0, 0, time.UTC),
			Features: x,
			Target:   2 + x[0] + 0.5*x[1],
		}
	}
	return &dataset.Dataset{
		StationID: stationID,
		LagDepth:  lagDepth,
		Schema:    m.schema,
		Target:    domain.TargetColumn,
		Examples:  examples,
	}, nil
}

func linearArtifact(station string, intercept float64) *model.Artifact {
	return &model.Artifact{
		FormatVersion: model.FormatVersion,
		ID:            "a-" + station,
		StationID:     station,
		LagDepth:      1,
		Seed:          42,
		TestFraction:  0.2,
		Target:        domain.TargetColumn,
		Schema:        []string{"precip", "Tlag_1"},
		Poly:          model.NewPolynomialFeatures(2, 2),
		Intercept:     intercept,
		Coefficients:  []float64{1, 0.5, 0, 0, 0},
		TrainRows:     16,
		TestRows:      4,
	}
}

func newValidator(artifacts map[string]*model.Artifact, schema []string) (*validator, *bytes.Buffer) {
	var out bytes.Buffer
	return &validator{
		store:   &mockStore{artifacts: artifacts},
		builder: &mockBuilder{schema: schema},
		maxRMSE: 1,
		out:     &out,
	}, &out
}

// --- tests ---

func TestValidator_Passes(t *testing.T) {
	v, out := newValidator(map[string]*model.Artifact{"Peoria": linearArtifact("Peoria", 2)}, []string{"precip", "Tlag_1"})

	code := v.run(context.Background(), []string{"Peoria"})

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "All validations passed.")
	assert.Contains(t, out.String(), "rmse=0.000")
}

func TestValidator_Failures(t *testing.T) {
	tests := []struct {
		name      string
		artifacts map[string]*model.Artifact
		schema    []string
		want      string
	}{
		{"missing artifact", nil, []string{"precip", "Tlag_1"}, "load artifact"},
		{"schema drift", map[string]*model.Artifact{"Peoria": linearArtifact("Peoria", 2)}, []string{"precip", "Tlag_2"}, "schema drift"},
		{"rmse bound", map[string]*model.Artifact{"Peoria": linearArtifact("Peoria", 7)}, []string{"precip", "Tlag_1"}, "RMSE 5.000 above 1.000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, out := newValidator(tt.artifacts, tt.schema)
			code := v.run(context.Background(), []string{"Peoria"})
			require.Equal(t, 1, code)
			assert.Contains(t, out.String(), tt.want)
			assert.Contains(t, out.String(), "Validation FAILED.")
		})
	}
}

func TestValidator_SplitDrift(t *testing.T) {
	a := linearArtifact("Peoria", 2)
	a.TrainRows = 15
	v, out := newValidator(map[string]*model.Artifact{"Peoria": a}, []string{"precip", "Tlag_1"})

	require.Equal(t, 1, v.run(context.Background(), []string{"Peoria"}))
	assert.Contains(t, out.String(), "split drift")
}
