package main

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/soil-temp-model/internal/pipeline"
)

// jobFile is the -jobs document:
//
//	lag_depth: 2
//	stations:
//	  - station: St.Louis
//	  - station: Peoria
//	    lag_depth: 3
type jobFile struct {
	LagDepth int            `yaml:"lag_depth"`
	Stations []pipeline.Job `yaml:"stations"`
}

func parseJobs(r io.Reader) ([]pipeline.Job, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc jobFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode: %w", err)
	}
	if doc.LagDepth < 0 {
		return nil, fmt.Errorf("lag_depth %d must be positive", doc.LagDepth)
	}

	jobs := make([]pipeline.Job, 0, len(doc.Stations))
	for i, j := range doc.Stations {
		if j.StationID == "" {
			return nil, fmt.Errorf("stations[%d]: station is required", i)
		}
		if j.LagDepth < 0 {
			return nil, fmt.Errorf("stations[%d]: lag_depth %d must be positive", i, j.LagDepth)
		}
		if j.LagDepth == 0 {
			j.LagDepth = doc.LagDepth
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

func dedupeJobs(jobs []pipeline.Job) []pipeline.Job {
	seen := make(map[string]bool, len(jobs))
	out := jobs[:0]
	for _, j := range jobs {
		if seen[j.StationID] {
			continue
		}
		seen[j.StationID] = true
		out = append(out, j)
	}
	return out
}
