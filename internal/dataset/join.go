package dataset

import (
	"slices"
	"time"

	"github.com/couchcryptid/soil-temp-model/internal/domain"
)

type joinKey struct {
	date   time.Time
	region domain.Region
}

// filterSoil keeps the soil rows whose region is in the station's set.
func filterSoil(rows []domain.SoilObservation, regions []domain.Region) []domain.SoilObservation {
	out := make([]domain.SoilObservation, 0, len(rows))
	for _, r := range rows {
		if slices.Contains(regions, r.Region) {
			out = append(out, r)
		}
	}
	return out
}

// filterWeather keeps the weather rows whose region is in the station's set.
func filterWeather(rows []domain.WeatherObservation, regions []domain.Region) []domain.WeatherObservation {
	out := make([]domain.WeatherObservation, 0, len(rows))
	for _, r := range rows {
		if slices.Contains(regions, r.Region) {
			out = append(out, r)
		}
	}
	return out
}

// join inner-joins soil and weather on (date, region). Rows without a partner
// on the other side are dropped. Output follows soil order, then weather order
// within one soil row. Soil columns other than the target and the excluded
// bookkeeping columns never reach the merged row.
func join(soil []domain.SoilObservation, weather []domain.WeatherObservation) []domain.MergedObservation {
	index := make(map[joinKey][]int, len(weather))
	for i, w := range weather {
		k := joinKey{date: domain.Day(w.Date), region: w.Region}
		index[k] = append(index[k], i)
	}

	var merged []domain.MergedObservation
	for _, s := range soil {
		k := joinKey{date: domain.Day(s.Date), region: s.Region}
		for _, wi := range index[k] {
			merged = append(merged, domain.MergedObservation{
				Date:   k.date,
				Region: k.region,
				Values: selectColumns(s.Values, weather[wi].Values),
			})
		}
	}
	return merged
}

// selectColumns builds a merged row from the target soil column and every
// weather column that is not excluded.
func selectColumns(soil, weather map[string]float64) map[string]float64 {
	values := make(map[string]float64, len(weather)+1)
	for name, v := range weather {
		if slices.Contains(domain.ExcludedColumns, name) {
			continue
		}
		values[name] = v
	}
	if v, ok := soil[domain.TargetColumn]; ok {
		values[domain.TargetColumn] = v
	}
	return values
}
