// Package mysql reads the station, soil and weather tables from MySQL.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // registers the "mysql" driver

	"github.com/couchcryptid/soil-temp-model/internal/domain"
)

// Table names of the observation database.
const (
	StationsTable = "stations"
	SoilTable     = "soil"
	WeatherTable  = "weather"
)

// Source implements dataset.StationSource and dataset.ObservationSource on
// a MySQL database. Region filters are pushed into the query.
type Source struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Source, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w: %w", domain.ErrStorage, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w: %w", domain.ErrStorage, err)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	logger.Info("mysql connected")
	return New(db, logger), nil
}

// New wraps an existing connection pool.
func New(db *sql.DB, logger *slog.Logger) *Source {
	return &Source{db: db, logger: logger}
}

// Close releases the connection pool.
func (s *Source) Close() error {
	return s.db.Close()
}

// Stations reads station_name and location from the stations table.
func (s *Source) Stations(ctx context.Context) ([]domain.StationRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT station_name, location FROM "+StationsTable)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var out []domain.StationRecord
	for rows.Next() {
		var name string
		var location sql.NullString
		if err := rows.Scan(&name, &location); err != nil {
			return nil, fmt.Errorf("scan station: %w: %w", domain.ErrStorage, err)
		}
		out = append(out, domain.StationRecord{ID: strings.TrimSpace(name), Location: location.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read stations: %w: %w", domain.ErrStorage, err)
	}
	return out, nil
}

// SoilObservations reads soil rows for the given counties.
func (s *Source) SoilObservations(ctx context.Context, regions []domain.Region) ([]domain.SoilObservation, error) {
	var out []domain.SoilObservation
	err := s.observations(ctx, SoilTable, regions, func(date time.Time, region domain.Region, values map[string]float64) {
		out = append(out, domain.SoilObservation{Date: date, Region: region, Values: values})
	})
	return out, err
}

// WeatherObservations reads weather rows for the given counties.
func (s *Source) WeatherObservations(ctx context.Context, regions []domain.Region) ([]domain.WeatherObservation, error) {
	var out []domain.WeatherObservation
	err := s.observations(ctx, WeatherTable, regions, func(date time.Time, region domain.Region, values map[string]float64) {
		out = append(out, domain.WeatherObservation{Date: date, Region: region, Values: values})
	})
	return out, err
}

func (s *Source) observations(ctx context.Context, table string, regions []domain.Region, emit func(time.Time, domain.Region, map[string]float64)) error {
	if len(regions) == 0 {
		return nil
	}
	query, args := regionQuery(table, regions)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query %s: %w: %w", table, domain.ErrStorage, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("columns of %s: %w: %w", table, domain.ErrStorage, err)
	}
	dateIdx, countyIdx := indexOf(cols, domain.ColumnDate), indexOf(cols, domain.ColumnCounty)
	if dateIdx < 0 || countyIdx < 0 {
		return fmt.Errorf("table %s lacks %s or %s: %w", table, domain.ColumnDate, domain.ColumnCounty, domain.ErrStorage)
	}

	cells := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range cells {
		ptrs[i] = &cells[i]
	}

	n := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scan %s: %w: %w", table, domain.ErrStorage, err)
		}
		date, err := toDay(cells[dateIdx])
		if err != nil {
			return fmt.Errorf("%s row %d: %w: %w", table, n+1, domain.ErrStorage, err)
		}
		values := make(map[string]float64, len(cols))
		for i, name := range cols {
			if i == dateIdx || i == countyIdx {
				continue
			}
			if v, ok := toFloat(cells[i]); ok {
				values[name] = v
			}
		}
		emit(date, domain.Region(strings.TrimSpace(toString(cells[countyIdx]))), values)
		n++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read %s: %w: %w", table, domain.ErrStorage, err)
	}
	s.logger.Debug("mysql observations read", "table", table, "regions", len(regions), "rows", n)
	return nil
}

func regionQuery(table string, regions []domain.Region) (string, []any) {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(regions)), ", ")
	args := make([]any, len(regions))
	for i, r := range regions {
		args[i] = string(r)
	}
	return fmt.Sprintf("SELECT * FROM %s WHERE `county` IN (%s)", table, marks), args
}

func indexOf(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}

func toDay(v any) (time.Time, error) {
	if t, ok := v.(time.Time); ok {
		return domain.Day(t), nil
	}
	return domain.ParseDay(toString(v))
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// toFloat converts a driver value; NULL, NaN and text are absent.
func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int64:
		f = float64(x)
	case []byte, string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(toString(x)), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
