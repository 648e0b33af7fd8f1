// Command genmock writes a reproducible synthetic data directory with
// station.csv, soil_condition.csv and weather.csv, shaped like the real
// exports, for local training runs.
//
// Usage:
//
//	go run ./cmd/genmock -out project_data -days 730 -seed 42
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/couchcryptid/soil-temp-model/internal/mockdata"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory")
	days := flag.Int("days", 365, "days of observations per county")
	seed := flag.Uint64("seed", 42, "random seed")
	start := flag.String("start", "2023-01-01", "first observation date")
	gapEvery := flag.Int("gap-every", 0, "omit every Nth day from the soil table (0 disables)")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	startDate, err := time.Parse(time.DateOnly, *start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}

	opts := mockdata.DefaultOptions()
	opts.Days = *days
	opts.Seed = *seed
	opts.Start = startDate
	opts.GapEvery = *gapEvery

	sum, err := mockdata.Generate(*out, opts)
	if err != nil {
		return err
	}
	log.Printf("wrote %s: %d stations, %d soil rows, %d weather rows",
		*out, sum.Stations, sum.SoilRows, sum.WeatherRows)
	for _, st := range opts.Stations {
		log.Printf("  %-10s %v", st.Name, st.Counties)
	}
	return nil
}
