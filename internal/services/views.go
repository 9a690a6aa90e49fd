package services

import (
	"context"
	"fmt"
	"sort"

	"waterq/internal/dataset"
	"waterq/internal/geo"
	"waterq/internal/quality"
	api "waterq/pkg/contracts/api/v1"
	"waterq/pkg/contracts/domain"
)

// Summary computes the headline figures for the filtered subset.
func (s *DatasetService) Summary(ctx context.Context, filter api.FilterRequest) (api.SummaryStats, error) {
	res, err := s.Snapshot(ctx)
	if err != nil {
		return api.SummaryStats{}, err
	}
	sub := applyFilter(res.Frame, filter)

	stats := api.SummaryStats{
		Records:         sub.Rows(),
		Stations:        distinctStations(sub),
		AvgPH:           columnMean(sub, domain.ColPH),
		AvgConductivity: columnMean(sub, domain.ColConductivity),
		AvgDO:           columnMean(sub, domain.ColDO),
	}

	if col, ok := sub.Column(domain.ColCompliance); ok && col.Kind() == dataset.KindText && sub.Rows() > 0 {
		bad := 0
		for i := 0; i < col.Len(); i++ {
			if col.Text(i) == string(domain.NonCompliant) {
				bad++
			}
		}
		pct := 100 * float64(bad) / float64(sub.Rows())
		stats.NonCompliantPct = &pct
	}
	return stats, nil
}

// TrendPH aggregates pH per year over the filtered subset, sorted by
// year. Years contributing no pH observations are omitted.
func (s *DatasetService) TrendPH(ctx context.Context, filter api.FilterRequest) ([]api.PHTrendPoint, error) {
	res, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	sub := applyFilter(res.Frame, filter)

	yearCol, err := numericColumn(sub, domain.ColYear)
	if err != nil {
		return nil, err
	}
	phCol, err := numericColumn(sub, domain.ColPH)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		m        quality.Moments
		min, max float64
	}
	buckets := make(map[int]*bucket)
	for i := 0; i < sub.Rows(); i++ {
		y, present := yearCol.Number(i)
		if !present {
			continue
		}
		v, present := phCol.Number(i)
		if !present {
			continue
		}
		year := int(y)
		b, ok := buckets[year]
		if !ok {
			b = &bucket{min: v, max: v}
			buckets[year] = b
		}
		if v < b.min {
			b.min = v
		}
		if v > b.max {
			b.max = v
		}
		b.m.Add(v)
	}

	points := make([]api.PHTrendPoint, 0, len(buckets))
	for year, b := range buckets {
		points = append(points, api.PHTrendPoint{
			Year:  year,
			Mean:  b.m.Mean(),
			Min:   b.min,
			Max:   b.max,
			Count: b.m.Count(),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Year < points[j].Year })
	return points, nil
}

// RegionMeans averages one numeric column per region over the filtered
// subset, sorted by mean descending. Regions contributing no observations
// are omitted.
func (s *DatasetService) RegionMeans(ctx context.Context, filter api.FilterRequest, column string) ([]api.RegionValue, error) {
	res, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	sub := applyFilter(res.Frame, filter)

	col, err := numericColumn(sub, column)
	if err != nil {
		return nil, err
	}
	stateCol, ok := sub.Column(domain.ColState)
	if !ok || stateCol.Kind() != dataset.KindText {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, domain.ColState)
	}

	byRegion := make(map[string]*quality.Moments)
	for i := 0; i < sub.Rows(); i++ {
		region := geo.CanonicalRegion(stateCol.Text(i))
		if region == "" {
			continue
		}
		v, present := col.Number(i)
		if !present {
			continue
		}
		m, ok := byRegion[region]
		if !ok {
			m = &quality.Moments{}
			byRegion[region] = m
		}
		m.Add(v)
	}

	values := make([]api.RegionValue, 0, len(byRegion))
	for region, m := range byRegion {
		values = append(values, api.RegionValue{
			Region: region,
			Mean:   m.Mean(),
			Count:  m.Count(),
		})
	}
	sort.Slice(values, func(i, j int) bool {
		if values[i].Mean != values[j].Mean {
			return values[i].Mean > values[j].Mean
		}
		return values[i].Region < values[j].Region
	})
	return values, nil
}

// Compliance counts records per verdict over the filtered subset.
func (s *DatasetService) Compliance(ctx context.Context, filter api.FilterRequest) (api.ComplianceBreakdown, error) {
	res, err := s.Snapshot(ctx)
	if err != nil {
		return api.ComplianceBreakdown{}, err
	}
	sub := applyFilter(res.Frame, filter)

	var out api.ComplianceBreakdown
	col, ok := sub.Column(domain.ColCompliance)
	if !ok || col.Kind() != dataset.KindText {
		return out, nil
	}
	for i := 0; i < col.Len(); i++ {
		switch col.Text(i) {
		case string(domain.Compliant):
			out.Compliant++
		case string(domain.NonCompliant):
			out.NonCompliant++
		}
	}
	return out, nil
}

// Correlation computes the pairwise Pearson matrix over the measurement
// columns present in the filtered subset. Undefined cells are null.
func (s *DatasetService) Correlation(ctx context.Context, filter api.FilterRequest) (api.CorrelationMatrix, error) {
	res, err := s.Snapshot(ctx)
	if err != nil {
		return api.CorrelationMatrix{}, err
	}
	sub := applyFilter(res.Frame, filter)

	var cols []*dataset.Column
	var names []string
	for _, name := range domain.MeasurementColumns() {
		col, ok := sub.Column(name)
		if !ok || col.Kind() != dataset.KindNumber {
			continue
		}
		cols = append(cols, col)
		names = append(names, name)
	}

	matrix := api.CorrelationMatrix{
		Columns: names,
		Values:  make([][]*float64, len(names)),
	}
	for i := range cols {
		matrix.Values[i] = make([]*float64, len(names))
	}
	for i := range cols {
		for j := i; j < len(cols); j++ {
			if r, ok := quality.Correlation(cols[i], cols[j]); ok {
				v := r
				matrix.Values[i][j] = &v
				if i != j {
					w := r
					matrix.Values[j][i] = &w
				}
			}
		}
	}
	return matrix, nil
}

// MapPoints aggregates one parameter per resolvable region of the
// filtered subset, placing each at its centroid. Value is null for a
// region whose rows all miss the parameter. Points are sorted by region.
func (s *DatasetService) MapPoints(ctx context.Context, req api.MapRequest) ([]api.MapPoint, error) {
	res, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	sub := applyFilter(res.Frame, req.Filter)

	col, err := numericColumn(sub, req.Parameter)
	if err != nil {
		return nil, err
	}
	stateCol, ok := sub.Column(domain.ColState)
	if !ok || stateCol.Kind() != dataset.KindText {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, domain.ColState)
	}

	type agg struct {
		m     quality.Moments
		count int
		point geo.Point
	}
	byRegion := make(map[string]*agg)
	for i := 0; i < sub.Rows(); i++ {
		raw := stateCol.Text(i)
		point, found := geo.Lookup(raw)
		if !found {
			continue
		}
		region := geo.CanonicalRegion(raw)
		a, ok := byRegion[region]
		if !ok {
			a = &agg{point: point}
			byRegion[region] = a
		}
		a.count++
		if v, present := col.Number(i); present {
			a.m.Add(v)
		}
	}

	points := make([]api.MapPoint, 0, len(byRegion))
	for region, a := range byRegion {
		p := api.MapPoint{
			Region: region,
			Lat:    a.point.Lat,
			Lon:    a.point.Lon,
			Count:  a.count,
		}
		if a.m.Count() > 0 {
			mean := a.m.Mean()
			p.Value = &mean
		}
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Region < points[j].Region })
	return points, nil
}

// Distribution summarizes one numeric column per group of a derived label
// column over the filtered subset. Buckets are sorted by label; a bucket
// whose rows all miss the value keeps Count but null statistics.
func (s *DatasetService) Distribution(ctx context.Context, req api.DistributionRequest) ([]api.DistributionBucket, error) {
	res, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	sub := applyFilter(res.Frame, req.Filter)

	col, err := numericColumn(sub, req.Value)
	if err != nil {
		return nil, err
	}
	byCol, ok := sub.Column(req.By)
	if !ok || byCol.Kind() != dataset.KindText {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLabel, req.By)
	}

	groups := make(map[string][]float64)
	counts := make(map[string]int)
	for i := 0; i < sub.Rows(); i++ {
		label := byCol.Text(i)
		counts[label]++
		if v, present := col.Number(i); present {
			groups[label] = append(groups[label], v)
		}
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	buckets := make([]api.DistributionBucket, 0, len(labels))
	for _, label := range labels {
		buckets = append(buckets, summarize(label, counts[label], groups[label]))
	}
	return buckets, nil
}

// summarize builds the five-number summary of one group.
func summarize(label string, count int, values []float64) api.DistributionBucket {
	b := api.DistributionBucket{Label: label, Count: count}
	if len(values) == 0 {
		return b
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var m quality.Moments
	for _, v := range sorted {
		m.Add(v)
	}
	mean := m.Mean()
	min := sorted[0]
	q1 := quality.Quantile(sorted, 0.25)
	median := quality.Quantile(sorted, 0.5)
	q3 := quality.Quantile(sorted, 0.75)
	max := sorted[len(sorted)-1]

	b.Mean, b.Min, b.Q1, b.Median, b.Q3, b.Max = &mean, &min, &q1, &median, &q3, &max
	return b
}

// Anomalies screens one numeric column of the filtered subset and returns
// every record of the subset with an extra boolean "anomaly" field for
// that column. Scores are computed over the subset itself, so a region
// filter changes what counts as extreme.
func (s *DatasetService) Anomalies(ctx context.Context, req api.AnomalyRequest) (api.AnomalyResult, error) {
	res, err := s.Snapshot(ctx)
	if err != nil {
		return api.AnomalyResult{}, err
	}
	sub := applyFilter(res.Frame, req.Filter)

	if _, err := numericColumn(sub, req.Column); err != nil {
		return api.AnomalyResult{}, err
	}
	det, err := s.detector.Detect(ctx, sub, req.Column, req.Threshold)
	if err != nil {
		return api.AnomalyResult{}, fmt.Errorf("detect anomalies: %w", err)
	}

	out := api.AnomalyResult{
		Column:    det.Column,
		Threshold: det.Threshold,
		Flagged:   det.Flagged,
		Records:   make([]api.Record, sub.Rows()),
	}
	if det.Defined {
		mean, stddev := det.Mean, det.StdDev
		out.Mean = &mean
		out.StdDev = &stddev
	}
	for i := 0; i < sub.Rows(); i++ {
		rec := api.Record(sub.Record(i))
		rec["anomaly"] = det.Flags[i]
		out.Records[i] = rec
	}
	return out, nil
}

// Regions lists the gazetteer with a per-region flag for presence in the
// current dataset.
func (s *DatasetService) Regions(ctx context.Context) ([]api.RegionInfo, error) {
	res, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	present := distinctRegions(res.Frame)

	names := geo.Regions()
	out := make([]api.RegionInfo, 0, len(names))
	for _, name := range names {
		p, _ := geo.Lookup(name)
		_, inData := present[name]
		out = append(out, api.RegionInfo{
			Name:      name,
			Lat:       p.Lat,
			Lon:       p.Lon,
			InDataset: inData,
		})
	}
	return out, nil
}

// distinctStations counts unique non-blank station codes.
func distinctStations(f *dataset.Frame) int {
	col, ok := f.Column(domain.ColStationCode)
	if !ok || col.Kind() != dataset.KindText {
		return 0
	}
	seen := make(map[string]struct{})
	for i := 0; i < col.Len(); i++ {
		if code := col.Text(i); code != "" {
			seen[code] = struct{}{}
		}
	}
	return len(seen)
}

// columnMean returns the mean of a numeric column's present cells, or nil
// when the column is absent or empty.
func columnMean(f *dataset.Frame, name string) *float64 {
	col, ok := f.Column(name)
	if !ok || col.Kind() != dataset.KindNumber {
		return nil
	}
	m := quality.ColumnMoments(col)
	if m.Count() == 0 {
		return nil
	}
	mean := m.Mean()
	return &mean
}
