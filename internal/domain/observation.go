package domain

import (
	"fmt"
	"strings"
	"time"
)

// Region is an administrative county name used as the join key between
// stations, soil observations and weather observations.
type Region string

// StationRecord is one row of the station table. Location holds the
// comma-delimited county list, e.g. "St.Clair, Monroe, Madison".
type StationRecord struct {
	ID       string
	Location string
}

// SoilObservation is one row of the soil table. Values is keyed by column
// name; a missing measurement is an absent key.
type SoilObservation struct {
	Date   time.Time
	Region Region
	Values map[string]float64
}

// WeatherObservation is one row of the weather table, shaped like SoilObservation.
type WeatherObservation struct {
	Date   time.Time
	Region Region
	Values map[string]float64
}

// MergedObservation is the inner join of a soil and a weather row sharing
// (Date, Region), after column selection.
type MergedObservation struct {
	Date   time.Time
	Region Region
	Values map[string]float64
}

// TrainingExample is one cleaned, lagged row ready for the trainer. Features
// follow the owning dataset's schema order.
type TrainingExample struct {
	Date     time.Time
	Features []float64
	Target   float64
}

// Day truncates t to UTC midnight, the granularity every observation is keyed on.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var dayLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	"1/2/2006",
}

// ParseDay accepts ISO dates, with or without a time part, and M/D/YYYY,
// and truncates the result to UTC midnight.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
