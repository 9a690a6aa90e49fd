// Package api contains API contract definitions for the water quality
// service. Version v1 represents the current stable API version.
package api

// FilterRequest selects the working subset of the enriched dataset.
// An empty Regions set is treated as all-pass, not all-exclude; the year
// bounds are inclusive and records without a usable year are excluded
// whenever an explicit bound is given.
type FilterRequest struct {
	Regions  []string `json:"regions,omitempty" query:"regions"`
	YearFrom *int     `json:"year_from,omitempty" query:"year_from"`
	YearTo   *int     `json:"year_to,omitempty" query:"year_to"`
}

// IsZero reports whether the request applies no predicate at all.
func (f FilterRequest) IsZero() bool {
	return len(f.Regions) == 0 && f.YearFrom == nil && f.YearTo == nil
}

// PageRequest bounds record-list responses.
type PageRequest struct {
	Limit  int `json:"limit,omitempty" query:"limit" validate:"omitempty,min=1,max=10000"`
	Offset int `json:"offset,omitempty" query:"offset" validate:"omitempty,min=0"`
}

// AnomalyRequest names one numeric column to screen and an optional
// threshold for the standardized score (default 3.0).
type AnomalyRequest struct {
	Column    string        `json:"column" query:"column" validate:"required,column"`
	Threshold float64       `json:"threshold,omitempty" query:"threshold" validate:"omitempty,gt=0"`
	Filter    FilterRequest `json:"filter,omitempty"`
}

// MapRequest selects the parameter aggregated per region for the map view.
type MapRequest struct {
	Parameter string        `json:"parameter" query:"parameter" validate:"required,column"`
	Filter    FilterRequest `json:"filter,omitempty"`
}

// DistributionRequest groups one numeric column by a derived label column.
type DistributionRequest struct {
	Value  string        `json:"value" query:"value" validate:"required,column"`
	By     string        `json:"by" query:"by" validate:"required,oneof=ph_status ec_level compliance_status"`
	Filter FilterRequest `json:"filter,omitempty"`
}
