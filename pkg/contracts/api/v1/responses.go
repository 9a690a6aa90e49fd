package api

import "time"

// Record is one enriched observation keyed by canonical column name.
// Missing numeric cells serialize as null.
type Record map[string]interface{}

// DatasetOverview describes the memoized snapshot currently being served.
type DatasetOverview struct {
	Fingerprint string    `json:"fingerprint"`
	SourceFile  string    `json:"source_file"`
	BuiltAt     time.Time `json:"built_at"`
	Rows        int       `json:"rows"`
	Columns     []string  `json:"columns"`
	YearMin     *int      `json:"year_min"`
	YearMax     *int      `json:"year_max"`
	RegionCount int       `json:"region_count"`
}

// ColumnQuality reports the cleaning outcome for one measurement column.
type ColumnQuality struct {
	Column        string   `json:"column"`
	MissingBefore int      `json:"missing_before"`
	Imputed       int      `json:"imputed"`
	Median        *float64 `json:"median"`
}

// BuildReport summarizes one pipeline run over the raw input.
type BuildReport struct {
	RawRows           int             `json:"raw_rows"`
	Rows              int             `json:"rows"`
	DuplicatesRemoved int             `json:"duplicates_removed"`
	Columns           []ColumnQuality `json:"columns"`
	UnresolvedRegions int             `json:"unresolved_regions"`
	Stages            []StageReport   `json:"stages"`
}

// StageReport records timing for one pipeline stage.
type StageReport struct {
	Name     string  `json:"name"`
	Duration float64 `json:"duration_seconds"`
}

// SummaryStats carries the dashboard KPI figures for the filtered subset.
// Averages are null when the subset is empty or the column is absent.
type SummaryStats struct {
	Records         int      `json:"records"`
	Stations        int      `json:"stations"`
	AvgPH           *float64 `json:"avg_ph"`
	AvgConductivity *float64 `json:"avg_conductivity"`
	AvgDO           *float64 `json:"avg_do"`
	NonCompliantPct *float64 `json:"non_compliant_pct"`
}

// PHTrendPoint is one year of the pH trend view.
type PHTrendPoint struct {
	Year  int     `json:"year"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// RegionValue is a per-region aggregate of one parameter.
type RegionValue struct {
	Region string  `json:"region"`
	Mean   float64 `json:"mean"`
	Count  int     `json:"count"`
}

// ComplianceBreakdown counts records per compliance verdict.
type ComplianceBreakdown struct {
	Compliant    int `json:"compliant"`
	NonCompliant int `json:"non_compliant"`
}

// CorrelationMatrix is the pairwise Pearson matrix over the measurement
// columns present in the dataset. Cells are null when undefined (zero
// variance or fewer than two paired observations).
type CorrelationMatrix struct {
	Columns []string     `json:"columns"`
	Values  [][]*float64 `json:"values"`
}

// MapPoint is a region centroid with the aggregated parameter value.
type MapPoint struct {
	Region string   `json:"region"`
	Lat    float64  `json:"lat"`
	Lon    float64  `json:"lon"`
	Value  *float64 `json:"value"`
	Count  int      `json:"count"`
}

// DistributionBucket holds the five-number summary of a numeric column
// within one label group.
type DistributionBucket struct {
	Label  string   `json:"label"`
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Min    *float64 `json:"min"`
	Q1     *float64 `json:"q1"`
	Median *float64 `json:"median"`
	Q3     *float64 `json:"q3"`
	Max    *float64 `json:"max"`
}

// AnomalyResult is the anomaly query response: every record of the
// requested subset augmented with a boolean "anomaly" field, plus the
// column statistics the flags were derived from. Mean and StdDev are
// null when the scores are undefined.
type AnomalyResult struct {
	Column    string   `json:"column"`
	Threshold float64  `json:"threshold"`
	Mean      *float64 `json:"mean"`
	StdDev    *float64 `json:"stddev"`
	Flagged   int      `json:"flagged"`
	Records   []Record `json:"records"`
}

// RegionInfo describes one entry of the region coordinate table.
type RegionInfo struct {
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	InDataset bool    `json:"in_dataset"`
}
