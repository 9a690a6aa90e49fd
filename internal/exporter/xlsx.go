package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"waterq/internal/dataset"
	"waterq/internal/geo"
	"waterq/internal/pipeline"
	"waterq/internal/quality"
	"waterq/pkg/contracts/domain"
)

// Workbook generates the analyst summary workbook from a completed build.
type Workbook struct {
	logger *slog.Logger
}

// NewWorkbook creates a workbook exporter. A nil logger falls back to the
// default logger.
func NewWorkbook(logger *slog.Logger) *Workbook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workbook{logger: logger.With(slog.String("component", "workbook"))}
}

// Write renders the summary workbook to path: an overview sheet, the
// per-column cleaning outcome, compliance counts, per-region means of
// every measurement column and the stage timings.
func (w *Workbook) Write(path string, res *pipeline.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	book := excelize.NewFile()
	defer book.Close()

	if err := w.overviewSheet(book, res); err != nil {
		return err
	}
	if err := w.columnsSheet(book, res); err != nil {
		return err
	}
	if err := w.complianceSheet(book, res.Frame); err != nil {
		return err
	}
	if err := w.regionsSheet(book, res.Frame); err != nil {
		return err
	}
	if err := w.stagesSheet(book, res); err != nil {
		return err
	}

	// The default sheet remains as the first tab; every section above
	// created its own.
	if err := book.SetSheetName(book.GetSheetName(0), "Overview"); err != nil {
		return fmt.Errorf("rename overview sheet: %w", err)
	}

	if err := book.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	w.logger.Info("wrote summary workbook", slog.String("path", path))
	return nil
}

func (w *Workbook) overviewSheet(book *excelize.File, res *pipeline.Result) error {
	sheet := book.GetSheetName(0)
	rows := [][]interface{}{
		{"source_file", filepath.Base(res.SourceFile)},
		{"fingerprint", res.Fingerprint},
		{"built_at", res.BuiltAt.Format("2006-01-02 15:04:05 UTC")},
		{"raw_rows", res.Report.RawRows},
		{"rows", res.Report.Rows},
		{"duplicates_removed", res.Report.DuplicatesRemoved},
		{"unresolved_regions", res.Report.UnresolvedRegions},
	}
	return writeRows(book, sheet, rows)
}

func (w *Workbook) columnsSheet(book *excelize.File, res *pipeline.Result) error {
	if _, err := book.NewSheet("Column Quality"); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	rows := [][]interface{}{{"column", "missing_before", "imputed", "median"}}
	for _, q := range res.Report.Columns {
		var median interface{}
		if q.Median != nil {
			median = *q.Median
		}
		rows = append(rows, []interface{}{q.Column, q.MissingBefore, q.Imputed, median})
	}
	return writeRows(book, "Column Quality", rows)
}

func (w *Workbook) complianceSheet(book *excelize.File, f *dataset.Frame) error {
	if _, err := book.NewSheet("Compliance"); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	compliant, nonCompliant := 0, 0
	if col, ok := f.Column(domain.ColCompliance); ok && col.Kind() == dataset.KindText {
		for i := 0; i < col.Len(); i++ {
			switch col.Text(i) {
			case string(domain.Compliant):
				compliant++
			case string(domain.NonCompliant):
				nonCompliant++
			}
		}
	}
	rows := [][]interface{}{
		{"verdict", "records"},
		{string(domain.Compliant), compliant},
		{string(domain.NonCompliant), nonCompliant},
	}
	return writeRows(book, "Compliance", rows)
}

func (w *Workbook) regionsSheet(book *excelize.File, f *dataset.Frame) error {
	if _, err := book.NewSheet("Region Means"); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	stateCol, ok := f.Column(domain.ColState)
	if !ok || stateCol.Kind() != dataset.KindText {
		return writeRows(book, "Region Means", [][]interface{}{{"region"}})
	}

	var numeric []*dataset.Column
	header := []interface{}{"region", "records"}
	for _, name := range domain.MeasurementColumns() {
		if col, ok := f.Column(name); ok && col.Kind() == dataset.KindNumber {
			numeric = append(numeric, col)
			header = append(header, name)
		}
	}

	type regionAgg struct {
		rows    int
		moments []quality.Moments
	}
	byRegion := make(map[string]*regionAgg)
	for i := 0; i < f.Rows(); i++ {
		region := geo.CanonicalRegion(stateCol.Text(i))
		if region == "" {
			continue
		}
		agg, ok := byRegion[region]
		if !ok {
			agg = &regionAgg{moments: make([]quality.Moments, len(numeric))}
			byRegion[region] = agg
		}
		agg.rows++
		for ci, col := range numeric {
			if v, present := col.Number(i); present {
				agg.moments[ci].Add(v)
			}
		}
	}

	regions := make([]string, 0, len(byRegion))
	for region := range byRegion {
		regions = append(regions, region)
	}
	sort.Strings(regions)

	rows := [][]interface{}{header}
	for _, region := range regions {
		agg := byRegion[region]
		row := []interface{}{region, agg.rows}
		for ci := range numeric {
			if agg.moments[ci].Count() > 0 {
				row = append(row, agg.moments[ci].Mean())
			} else {
				row = append(row, nil)
			}
		}
		rows = append(rows, row)
	}
	return writeRows(book, "Region Means", rows)
}

func (w *Workbook) stagesSheet(book *excelize.File, res *pipeline.Result) error {
	if _, err := book.NewSheet("Stages"); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	rows := [][]interface{}{{"stage", "duration_seconds"}}
	for _, s := range res.Report.Stages {
		rows = append(rows, []interface{}{s.Name, s.Duration})
	}
	return writeRows(book, "Stages", rows)
}

// writeRows fills a sheet top to bottom starting at A1.
func writeRows(book *excelize.File, sheet string, rows [][]interface{}) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
		}
		if err := book.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
