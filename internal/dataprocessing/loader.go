package dataprocessing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"waterq/internal/dataset"
)

// Loader reads a raw monitoring table into an all-text frame. CSV and
// XLSX inputs are supported; typing is deferred to the coercion stage.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger falls back to the default
// logger.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger: logger.With(slog.String("component", "loader")),
	}
}

// Load reads the file at path, dispatching on its extension.
func (l *Loader) Load(ctx context.Context, path string) (*dataset.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()
	return l.LoadReader(ctx, path, file)
}

// LoadReader reads a raw table from r, dispatching on the extension of
// name. It lets callers that already hold the file bytes avoid a second
// read.
func (l *Loader) LoadReader(ctx context.Context, name string, r io.Reader) (*dataset.Frame, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return l.LoadCSV(ctx, r)
	case ".xlsx":
		return l.LoadXLSX(ctx, r)
	default:
		return nil, fmt.Errorf("unsupported input format %q", filepath.Ext(name))
	}
}

// LoadCSV reads a comma-separated table with a header row. Ragged rows
// are tolerated: short rows are padded with empty cells, long rows are
// truncated to the header width.
func (l *Loader) LoadCSV(ctx context.Context, r io.Reader) (*dataset.Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("input has no header row")
	}

	return l.assemble(ctx, rows)
}

// LoadXLSX reads the first sheet of a workbook as a table with a header
// row.
func (l *Loader) LoadXLSX(ctx context.Context, r io.Reader) (*dataset.Frame, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	sheet := book.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}

	return l.assemble(ctx, rows)
}

// assemble turns header+data rows into an all-text frame. Header cells
// are kept raw for the normalizer; empty or duplicate headers get
// positional fallbacks so no data is dropped.
func (l *Loader) assemble(ctx context.Context, rows [][]string) (*dataset.Frame, error) {
	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	names := make([]string, len(header))
	used := make(map[string]int, len(header))
	for i, h := range header {
		name := h
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n, dup := used[name]; dup {
			unique := fmt.Sprintf("%s_%d", name, n+1)
			l.logger.WarnContext(ctx, "duplicate header, renaming",
				slog.String("header", name),
				slog.String("renamed", unique))
			used[name] = n + 1
			name = unique
		}
		used[name] = 1
		names[i] = name
	}

	data := rows[1:]
	cells := make([][]string, len(names))
	for ci := range cells {
		column := make([]string, len(data))
		for ri, row := range data {
			if ci < len(row) {
				column[ri] = row[ci]
			}
		}
		cells[ci] = column
	}

	f := dataset.NewFrame()
	for i, name := range names {
		if err := f.AddColumn(dataset.NewTextColumn(name, cells[i])); err != nil {
			return nil, fmt.Errorf("assemble frame: %w", err)
		}
	}

	l.logger.InfoContext(ctx, "loaded raw table",
		slog.Int("rows", f.Rows()),
		slog.Int("columns", f.Width()))
	return f, nil
}
