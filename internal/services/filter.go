package services

import (
	"waterq/internal/dataset"
	"waterq/internal/geo"
	api "waterq/pkg/contracts/api/v1"
	"waterq/pkg/contracts/domain"
)

// applyFilter reduces the frame to the rows matching the request. An
// empty request returns the input frame untouched. Region names are
// matched case-insensitively after trimming; the year bounds are
// inclusive, and a record without a usable year is excluded as soon as
// either bound is set. A predicate over a column the frame lacks matches
// nothing rather than failing.
func applyFilter(f *dataset.Frame, req api.FilterRequest) *dataset.Frame {
	if req.IsZero() {
		return f
	}

	var regions map[string]struct{}
	if len(req.Regions) > 0 {
		regions = make(map[string]struct{}, len(req.Regions))
		for _, r := range req.Regions {
			regions[geo.CanonicalRegion(r)] = struct{}{}
		}
	}

	stateCol, _ := f.Column(domain.ColState)
	if stateCol != nil && stateCol.Kind() != dataset.KindText {
		stateCol = nil
	}
	yearCol, _ := f.Column(domain.ColYear)
	if yearCol != nil && yearCol.Kind() != dataset.KindNumber {
		yearCol = nil
	}
	byYear := req.YearFrom != nil || req.YearTo != nil

	mask := make([]bool, f.Rows())
	for i := 0; i < f.Rows(); i++ {
		if regions != nil {
			if stateCol == nil {
				continue
			}
			if _, ok := regions[geo.CanonicalRegion(stateCol.Text(i))]; !ok {
				continue
			}
		}
		if byYear {
			if yearCol == nil {
				continue
			}
			y, present := yearCol.Number(i)
			if !present {
				continue
			}
			year := int(y)
			if req.YearFrom != nil && year < *req.YearFrom {
				continue
			}
			if req.YearTo != nil && year > *req.YearTo {
				continue
			}
		}
		mask[i] = true
	}
	return f.Select(mask)
}
