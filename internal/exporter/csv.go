package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"waterq/internal/dataset"
)

// CSVWriter serializes enriched frames as CSV.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a CSV writer. A nil logger falls back to the
// default logger.
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV serialization.
type WriteOptions struct {
	BOMPrefix bool // add a UTF-8 BOM so Excel detects the encoding
}

// Write streams the frame to wr as one header row plus one row per
// record, returning the number of data rows written.
func (w *CSVWriter) Write(wr io.Writer, f *dataset.Frame, options WriteOptions) (int, error) {
	if options.BOMPrefix {
		if _, err := wr.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return 0, fmt.Errorf("write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(wr)
	names := f.Columns()
	if err := writer.Write(names); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	cols := make([]*dataset.Column, len(names))
	for ci, name := range names {
		cols[ci], _ = f.Column(name)
	}

	row := make([]string, len(cols))
	for i := 0; i < f.Rows(); i++ {
		for ci, col := range cols {
			row[ci] = col.CellString(i)
		}
		if err := writer.Write(row); err != nil {
			return i, fmt.Errorf("write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return f.Rows(), writer.Error()
}

// WriteFile writes the frame to path, creating parent directories as
// needed.
func (w *CSVWriter) WriteFile(path string, f *dataset.Frame, options WriteOptions) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create output file: %w", err)
	}

	rows, err := w.Write(file, f, options)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return rows, err
	}

	w.logger.Info("wrote dataset artifact",
		slog.String("path", path),
		slog.Int("rows", rows),
		slog.Int("columns", f.Width()))
	return rows, nil
}
