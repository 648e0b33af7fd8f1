// Package mockdata writes reproducible station, soil and weather CSV files
// for local runs and tests.
package mockdata

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/soil-temp-model/internal/adapter/csvsource"
	"github.com/couchcryptid/soil-temp-model/internal/domain"
)

// Station is one generated station and the counties it covers.
type Station struct {
	Name     string
	Counties []string
}

// Options control the generated tables.
type Options struct {
	Stations []Station
	Start    time.Time
	Days     int
	Seed     uint64
	// GapEvery > 0 omits every GapEvery-th day from the soil table.
	GapEvery int
}

// DefaultOptions returns three Illinois stations over one year.
func DefaultOptions() Options {
	return Options{
		Stations: []Station{
			{Name: "St.Louis", Counties: []string{"St.Clair", "Monroe", "Madison"}},
			{Name: "Peoria", Counties: []string{"Peoria"}},
			{Name: "Champaign", Counties: []string{"Champaign", "Piatt"}},
		},
		Start: time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
		Days:  365,
		Seed:  42,
	}
}

// Summary counts what Generate wrote.
type Summary struct {
	Stations    int
	SoilRows    int
	WeatherRows int
}

var (
	soilHeader    = []string{domain.ColumnDate, domain.ColumnCounty, "station", domain.TargetColumn, "avg_soil_temp_4in_bare", "year", "month", "day"}
	weatherHeader = []string{domain.ColumnDate, domain.ColumnCounty, "station", domain.ColumnWindDirection, domain.ColumnPrecipitation, domain.ColumnEvapotrans, domain.ColumnMinRelHumid, "avg_air_temp", "year", "month", "day"}
)

// Generate writes station.csv, soil_condition.csv and weather.csv into dir.
// Soil temperature follows a seasonal autoregressive process driven by the
// weather columns, so lagged features carry signal.
func Generate(dir string, opts Options) (Summary, error) {
	if opts.Days < 1 {
		return Summary{}, fmt.Errorf("days must be positive, got %d", opts.Days)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Summary{}, err
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x5eed))

	stations := [][]string{{"station_name", "location"}}
	soil := [][]string{soilHeader}
	weather := [][]string{weatherHeader}

	for _, st := range opts.Stations {
		stations = append(stations, []string{st.Name, strings.Join(st.Counties, ", ")})
		for _, county := range st.Counties {
			s, w := countySeries(rng, st.Name, county, opts)
			soil = append(soil, s...)
			weather = append(weather, w...)
		}
	}

	files := []struct {
		name string
		rows [][]string
	}{
		{csvsource.StationFile, stations},
		{csvsource.SoilFile, soil},
		{csvsource.WeatherFile, weather},
	}
	for _, f := range files {
		if err := writeCSV(filepath.Join(dir, f.name), f.rows); err != nil {
			return Summary{}, fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	return Summary{Stations: len(opts.Stations), SoilRows: len(soil) - 1, WeatherRows: len(weather) - 1}, nil
}

func countySeries(rng *rand.Rand, station, county string, opts Options) (soil, weather [][]string) {
	prev1, prev2 := 40.0, 40.0
	for d := range opts.Days {
		date := opts.Start.AddDate(0, 0, d)
		season := 20 * math.Sin(2*math.Pi*(float64(date.YearDay())-110)/365)

		wind := rng.Float64() * 360
		precip := rng.ExpFloat64() * 0.15
		evap := 0.02 + rng.Float64()*0.2
		hum := 30 + rng.Float64()*50
		air := 52 + season + rng.NormFloat64()*6

		target := 14 + 0.55*prev1 + 0.15*prev2 + 0.3*season + 6*precip - 0.03*hum + 20*evap + rng.NormFloat64()*1.5
		prev2, prev1 = prev1, target

		ymd := []string{strconv.Itoa(date.Year()), strconv.Itoa(int(date.Month())), strconv.Itoa(date.Day())}
		day := date.Format(time.DateOnly)
		weather = append(weather, append([]string{day, county, station,
			fmtFloat(wind), fmtFloat(precip), fmtFloat(evap), fmtFloat(hum), fmtFloat(air)}, ymd...))

		if opts.GapEvery > 0 && (d+1)%opts.GapEvery == 0 {
			continue
		}
		soil = append(soil, append([]string{day, county, station,
			fmtFloat(target), fmtFloat(target - 2 + rng.NormFloat64())}, ymd...))
	}
	return soil, weather
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
