// Package domain models the soil and weather observations used to predict
// soil temperature at Illinois agricultural stations.
//
// # Data Source
//
// Three tables feed the model: stations, soil and weather. They are loaded
// from CSV exports (station.csv, soil_condition.csv, weather.csv) or from the
// MySQL database those files are bulk-loaded into.
//
// # Station regions
//
// A station reports for one or more counties, stored as a comma-delimited
// string in its location column:
//
//	"St.Clair, Monroe, Madison"  →  [St.Clair Monroe Madison]
//
// Soil and weather rows are keyed by (date, county), not by station, so a
// station's series is assembled by joining on the counties it covers.
//
// # Modeling columns
//
// The target is avg_soil_temp_8in_sod, the daily mean soil temperature 8
// inches under sod. Every other soil column is discarded. The base features
// are four weather columns:
//
//	avg_wind_dir  average wind direction (degrees)
//	precip        precipitation (inches)
//	pot_evapot    potential evapotranspiration (inches)
//	min_rel_hum   minimum relative humidity (percent)
//
// followed by lag features Tlag_1..Tlag_n, the target observed 1..n calendar
// days earlier. The default lag depth is 2.
//
// # Missing values
//
// Observation values are maps from column name to float64. A column that is
// empty or unparsable in the source is absent from the map; there is no NaN
// sentinel.
package domain
