package dataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/couchcryptid/soil-temp-model/internal/domain"
)

// StationSource reads the station table.
type StationSource interface {
	Stations(ctx context.Context) ([]domain.StationRecord, error)
}

// Resolver maps a station ID to the counties it reports for.
type Resolver struct {
	source StationSource
}

// NewResolver creates a Resolver backed by the given station table.
func NewResolver(source StationSource) *Resolver {
	return &Resolver{source: source}
}

// Resolve returns the ordered region set of exactly one station. Zero matches
// wrap domain.ErrNotFound; several matches wrap domain.ErrAmbiguousStation.
func (r *Resolver) Resolve(ctx context.Context, stationID string) ([]domain.Region, error) {
	stations, err := r.source.Stations(ctx)
	if err != nil {
		return nil, fmt.Errorf("read stations: %w: %w", domain.ErrStorage, err)
	}

	var match *domain.StationRecord
	for i := range stations {
		if stations[i].ID != stationID {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("station %q: %w", stationID, domain.ErrAmbiguousStation)
		}
		match = &stations[i]
	}
	if match == nil {
		return nil, fmt.Errorf("station %q: %w", stationID, domain.ErrNotFound)
	}

	regions := ParseRegions(match.Location)
	if len(regions) == 0 {
		return nil, fmt.Errorf("station %q has no regions: %w", stationID, domain.ErrNotFound)
	}
	return regions, nil
}

// ParseRegions splits a comma-delimited county list, trimming whitespace and
// skipping empty fragments. Order is preserved and duplicates are dropped.
func ParseRegions(location string) []domain.Region {
	parts := strings.Split(location, ",")
	regions := make([]domain.Region, 0, len(parts))
	seen := make(map[domain.Region]bool, len(parts))
	for _, p := range parts {
		r := domain.Region(strings.TrimSpace(p))
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		regions = append(regions, r)
	}
	return regions
}
