package dataset

import (
	"sort"
	"time"

	"github.com/couchcryptid/soil-temp-model/internal/domain"
)

// daySlot is one calendar day of a resampled series. A nil obs marks a day
// with no usable target: either no row at all or only rows missing it.
type daySlot struct {
	date time.Time
	obs  *domain.MergedObservation
}

// dailySeries resamples merged rows to a strict daily frequency between the
// first and last observed dates. Rows missing the target are discarded, and
// when several rows share a date the first one seen wins; the rest are
// dropped without aggregation.
func dailySeries(merged []domain.MergedObservation) []daySlot {
	if len(merged) == 0 {
		return nil
	}

	rows := make([]domain.MergedObservation, len(merged))
	copy(rows, merged)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	first := domain.Day(rows[0].Date)
	last := domain.Day(rows[len(rows)-1].Date)
	days := int(last.Sub(first).Hours()/24) + 1

	slots := make([]daySlot, days)
	for i := range slots {
		slots[i].date = first.AddDate(0, 0, i)
	}
	for i := range rows {
		if _, ok := rows[i].Values[domain.TargetColumn]; !ok {
			continue
		}
		idx := dayIndex(first, rows[i].Date)
		if slots[idx].obs != nil {
			continue
		}
		slots[idx].obs = &rows[i]
	}
	return slots
}

func dayIndex(first, t time.Time) int {
	return int(domain.Day(t).Sub(first).Hours() / 24)
}

// lagExamples appends lag features Tlag_1..Tlag_lagDepth to every day that
// has a target and emits the rows whose base features and lags are all
// present. A lag reaching a gap day or a day before the series start is
// missing, so the first lagDepth days and the lagDepth days after every gap
// are never emitted. A day missing a base feature is not emitted but still
// supplies its target as a lag for later days.
func lagExamples(slots []daySlot, lagDepth int) []domain.TrainingExample {
	width := len(domain.BaseFeatures) + lagDepth
	var examples []domain.TrainingExample

	for i, slot := range slots {
		if slot.obs == nil {
			continue
		}

		features := make([]float64, 0, width)
		complete := true
		for _, name := range domain.BaseFeatures {
			v, ok := slot.obs.Values[name]
			if !ok {
				complete = false
				break
			}
			features = append(features, v)
		}
		for lag := 1; complete && lag <= lagDepth; lag++ {
			if i-lag < 0 || slots[i-lag].obs == nil {
				complete = false
				break
			}
			features = append(features, slots[i-lag].obs.Values[domain.TargetColumn])
		}
		if !complete {
			continue
		}

		examples = append(examples, domain.TrainingExample{
			Date:     slot.date,
			Features: features,
			Target:   slot.obs.Values[domain.TargetColumn],
		})
	}
	return examples
}
