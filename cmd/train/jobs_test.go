package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/soil-temp-model/internal/domain"
	"github.com/couchcryptid/soil-temp-model/internal/pipeline"
)

type mockStations struct {
	rows []domain.StationRecord
}

func (m *mockStations) Stations(_ context.Context) ([]domain.StationRecord, error) {
	return m.rows, nil
}

func TestParseJobs(t *testing.T) {
	doc := `
lag_depth: 2
stations:
  - station: St.Louis
  - station: Peoria
    lag_depth: 3
`
	jobs, err := parseJobs(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []pipeline.Job{
		{StationID: "St.Louis", LagDepth: 2},
		{StationID: "Peoria", LagDepth: 3},
	}, jobs)
}

func TestParseJobs_Empty(t *testing.T) {
	jobs, err := parseJobs(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestParseJobs_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown field":    "stations:\n  - station: A\n    depth: 2\n",
		"missing station":  "stations:\n  - lag_depth: 2\n",
		"negative lag":     "stations:\n  - station: A\n    lag_depth: -1\n",
		"negative default": "lag_depth: -2\nstations: []\n",
		"not a list":       "stations: Peoria\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseJobs(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestCollectJobs_MergesAndDedupes(t *testing.T) {
	src := &mockStations{rows: []domain.StationRecord{{ID: "Peoria"}, {ID: "Urbana"}}}

	jobs, err := collectJobs(context.Background(), src, []string{"St.Louis", "Peoria"}, "", true)
	require.NoError(t, err)
	assert.Equal(t, []pipeline.Job{
		{StationID: "St.Louis"},
		{StationID: "Peoria"},
		{StationID: "Urbana"},
	}, jobs)
}

func TestCollectJobs_NothingToDo(t *testing.T) {
	_, err := collectJobs(context.Background(), &mockStations{}, nil, "", false)
	assert.ErrorContains(t, err, "no stations")
}

func TestCollectJobs_MissingFile(t *testing.T) {
	_, err := collectJobs(context.Background(), &mockStations{}, nil, "/nonexistent/jobs.yaml", false)
	assert.ErrorContains(t, err, "open jobs file")
}
