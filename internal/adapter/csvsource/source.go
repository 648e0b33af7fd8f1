// Package csvsource reads the station, soil and weather tables from CSV
// exports laid out as station.csv, soil_condition.csv and weather.csv.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/soil-temp-model/internal/domain"
)

// File names under the data directory.
const (
	StationFile = "station.csv"
	SoilFile    = "soil_condition.csv"
	WeatherFile = "weather.csv"
)

// Source implements dataset.StationSource and dataset.ObservationSource on a
// directory of CSV files. Files are re-read on every call.
type Source struct {
	dir    string
	logger *slog.Logger
}

// New creates a Source reading from dir.
func New(dir string, logger *slog.Logger) *Source {
	return &Source{dir: dir, logger: logger}
}

// Stations reads station.csv's station_name and location columns.
func (s *Source) Stations(ctx context.Context) ([]domain.StationRecord, error) {
	var out []domain.StationRecord
	err := s.scan(ctx, StationFile, func(col columns, rec []string, _ int) error {
		name, ok := col.get(rec, "station_name")
		if !ok {
			return errors.New("missing station_name column")
		}
		loc, _ := col.get(rec, "location")
		out = append(out, domain.StationRecord{ID: strings.TrimSpace(name), Location: loc})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SoilObservations reads soil_condition.csv rows whose county is in regions.
func (s *Source) SoilObservations(ctx context.Context, regions []domain.Region) ([]domain.SoilObservation, error) {
	var out []domain.SoilObservation
	err := s.observations(ctx, SoilFile, regions, func(date time.Time, region domain.Region, values map[string]float64) {
		out = append(out, domain.SoilObservation{Date: date, Region: region, Values: values})
	})
	return out, err
}

// WeatherObservations reads weather.csv rows whose county is in regions.
func (s *Source) WeatherObservations(ctx context.Context, regions []domain.Region) ([]domain.WeatherObservation, error) {
	var out []domain.WeatherObservation
	err := s.observations(ctx, WeatherFile, regions, func(date time.Time, region domain.Region, values map[string]float64) {
		out = append(out, domain.WeatherObservation{Date: date, Region: region, Values: values})
	})
	return out, err
}

func (s *Source) observations(ctx context.Context, file string, regions []domain.Region, emit func(time.Time, domain.Region, map[string]float64)) error {
	rows, skipped := 0, 0
	err := s.scan(ctx, file, func(col columns, rec []string, line int) error {
		county, ok := col.get(rec, domain.ColumnCounty)
		if !ok {
			return fmt.Errorf("missing %s column", domain.ColumnCounty)
		}
		region := domain.Region(strings.TrimSpace(county))
		if !slices.Contains(regions, region) {
			return nil
		}
		raw, _ := col.get(rec, domain.ColumnDate)
		date, err := domain.ParseDay(raw)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		values, dropped := col.numeric(rec)
		skipped += dropped
		emit(date, region, values)
		rows++
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("csv observations read", "file", file, "rows", rows, "non_numeric_cells", skipped)
	return nil
}

// scan streams a file's records to fn. Errors wrap domain.ErrStorage.
func (s *Source) scan(ctx context.Context, file string, fn func(col columns, rec []string, line int) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(s.dir, file)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w: %w", path, domain.ErrStorage, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header of %s: %w: %w", path, domain.ErrStorage, err)
	}
	col := newColumns(header)

	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w: %w", path, domain.ErrStorage, err)
		}
		if err := fn(col, rec, line); err != nil {
			return fmt.Errorf("parse %s: %w: %w", path, domain.ErrStorage, err)
		}
	}
}

// columns maps header names to record positions.
type columns struct {
	names []string
	index map[string]int
}

func newColumns(header []string) columns {
	c := columns{names: make([]string, len(header)), index: make(map[string]int, len(header))}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		c.names[i] = h
		c.index[h] = i
	}
	return c
}

func (c columns) get(rec []string, name string) (string, bool) {
	i, ok := c.index[name]
	if !ok || i >= len(rec) {
		return "", false
	}
	return rec[i], true
}

// numeric returns every numeric cell other than date and county. Blank and
// NaN cells are absent; other non-numeric cells are dropped and counted.
func (c columns) numeric(rec []string) (map[string]float64, int) {
	values := make(map[string]float64, len(rec))
	dropped := 0
	for i, cell := range rec {
		if i >= len(c.names) {
			break
		}
		name := c.names[i]
		if name == domain.ColumnDate || name == domain.ColumnCounty {
			continue
		}
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			dropped++
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		values[name] = v
	}
	return values, dropped
}
