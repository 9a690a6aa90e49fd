// Package domain contains the shared domain types for the water quality
// monitoring system: the canonical dataset schema and the closed label
// sets derived by the classification rules.
package domain

// Canonical column names produced by header normalization. Every stage
// after the normalizer addresses columns by these keys only.
const (
	ColStationCode   = "station_code"
	ColLocation      = "location"
	ColState         = "state"
	ColTemp          = "temp"
	ColDO            = "do_mg_l"
	ColPH            = "ph"
	ColConductivity  = "conductivity"
	ColBOD           = "bod_mg_l"
	ColNitrate       = "nitrate_mg_l"
	ColFecalColiform = "fecal_coliform"
	ColTotalColiform = "total_coliform"
	ColYear          = "year"
)

// Derived column names appended by the enrichment stages.
const (
	ColDate       = "date"
	ColPHStatus   = "ph_status"
	ColECLevel    = "ec_level"
	ColCompliance = "compliance_status"
	ColLat        = "lat"
	ColLon        = "lon"
)

// MeasurementColumns returns the eight numeric measurement columns in
// canonical order. Any subset may be absent from a given dataset; stages
// degrade per their contracts when a column is missing.
func MeasurementColumns() []string {
	return []string{
		ColTemp,
		ColDO,
		ColPH,
		ColConductivity,
		ColBOD,
		ColNitrate,
		ColFecalColiform,
		ColTotalColiform,
	}
}

// MonitoredColumns returns the parameters screened for anomalies in the
// exported artifact.
func MonitoredColumns() []string {
	return []string{
		ColPH,
		ColConductivity,
		ColBOD,
		ColDO,
		ColFecalColiform,
	}
}

// AnomalyColumn returns the derived flag column name for a parameter,
// e.g. "ph" -> "ph_anomaly".
func AnomalyColumn(param string) string {
	return param + "_anomaly"
}

// IsMeasurement reports whether name is one of the eight measurement
// columns.
func IsMeasurement(name string) bool {
	for _, c := range MeasurementColumns() {
		if c == name {
			return true
		}
	}
	return false
}
