package domain

import "fmt"

// Column names shared by the soil and weather tables and the feature schema.
const (
	ColumnDate   = "date"
	ColumnCounty = "county"

	// TargetColumn is the soil temperature at 8 inches under sod, the only
	// soil column kept for modeling.
	TargetColumn = "avg_soil_temp_8in_sod"

	ColumnWindDirection = "avg_wind_dir"
	ColumnPrecipitation = "precip"
	ColumnEvapotrans    = "pot_evapot"
	ColumnMinRelHumid   = "min_rel_hum"
)

// BaseFeatures are the weather columns every model consumes, in schema order.
var BaseFeatures = []string{
	ColumnWindDirection,
	ColumnPrecipitation,
	ColumnEvapotrans,
	ColumnMinRelHumid,
}

// ExcludedColumns are dropped from every merged row in addition to the
// non-target soil columns.
var ExcludedColumns = []string{"station", "station_name", "year", "month", "day"}

// LagColumn names the feature holding the target observed lag days earlier.
func LagColumn(lag int) string {
	return fmt.Sprintf("Tlag_%d", lag)
}

// FeatureSchema returns the ordered feature names for a given lag depth.
func FeatureSchema(lagDepth int) []string {
	schema := make([]string, 0, len(BaseFeatures)+lagDepth)
	schema = append(schema, BaseFeatures...)
	for lag := 1; lag <= lagDepth; lag++ {
		schema = append(schema, LagColumn(lag))
	}
	return schema
}
