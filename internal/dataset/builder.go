package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/soil-temp-model/internal/domain"
)

// DefaultLagDepth is the number of prior days of target values each row carries.
const DefaultLagDepth = 2

// DefaultMinExamples is the fewest rows a dataset may hold after cleaning and
// lagging. It leaves room for both a training and a test partition at the
// default 20% test fraction; the trainer separately requires enough training
// rows for the polynomial expansion.
const DefaultMinExamples = 10

// ObservationSource reads the soil and weather tables. Implementations may
// restrict the rows they return to the given regions; the builder filters
// again regardless.
type ObservationSource interface {
	SoilObservations(ctx context.Context, regions []domain.Region) ([]domain.SoilObservation, error)
	WeatherObservations(ctx context.Context, regions []domain.Region) ([]domain.WeatherObservation, error)
}

// Dataset is the cleaned, lagged training set of one station.
type Dataset struct {
	StationID string
	LagDepth  int
	Schema    []string
	Target    string
	Examples  []domain.TrainingExample
}

// Builder assembles a station's training set from the observation tables.
type Builder struct {
	resolver    *Resolver
	source      ObservationSource
	logger      *slog.Logger
	minExamples int
}

// NewBuilder creates a Builder. A minExamples below 1 falls back to
// DefaultMinExamples.
func NewBuilder(resolver *Resolver, source ObservationSource, minExamples int, logger *slog.Logger) *Builder {
	if minExamples < 1 {
		minExamples = DefaultMinExamples
	}
	return &Builder{
		resolver:    resolver,
		source:      source,
		logger:      logger,
		minExamples: minExamples,
	}
}

// Build resolves the station's counties, joins soil and weather on
// (date, county), resamples to daily frequency, deduplicates dates and adds
// lagDepth lag features.
func (b *Builder) Build(ctx context.Context, stationID string, lagDepth int) (*Dataset, error) {
	if lagDepth < 1 {
		return nil, errors.New("lag depth must be at least 1")
	}

	regions, err := b.resolver.Resolve(ctx, stationID)
	if err != nil {
		return nil, err
	}

	soil, err := b.source.SoilObservations(ctx, regions)
	if err != nil {
		return nil, fmt.Errorf("read soil observations: %w: %w", domain.ErrStorage, err)
	}
	weather, err := b.source.WeatherObservations(ctx, regions)
	if err != nil {
		return nil, fmt.Errorf("read weather observations: %w: %w", domain.ErrStorage, err)
	}

	soil = filterSoil(soil, regions)
	weather = filterWeather(weather, regions)
	merged := join(soil, weather)
	slots := dailySeries(merged)
	examples := lagExamples(slots, lagDepth)

	b.logger.Info("dataset built",
		"station", stationID,
		"regions", len(regions),
		"soil_rows", len(soil),
		"weather_rows", len(weather),
		"merged_rows", len(merged),
		"days", len(slots),
		"examples", len(examples),
	)

	if len(examples) < b.minExamples {
		return nil, fmt.Errorf("station %q: %d rows after cleaning, need %d: %w",
			stationID, len(examples), b.minExamples, domain.ErrInsufficientData)
	}

	return &Dataset{
		StationID: stationID,
		LagDepth:  lagDepth,
		Schema:    domain.FeatureSchema(lagDepth),
		Target:    domain.TargetColumn,
		Examples:  examples,
	}, nil
}
