package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"waterq/internal/dataset"
	"waterq/pkg/contracts/domain"
)

// CoerceCell parses one raw cell under the sentinel policy: trim and
// upper-case, treat empty and the literal NAN token as missing, then
// attempt numeric conversion. Anything unparsable or non-finite is
// missing rather than an error.
func CoerceCell(raw string) (float64, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" || s == "NAN" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Coercer converts the year and measurement columns of an all-text frame
// into typed number columns.
type Coercer struct {
	logger *slog.Logger
}

// NewCoercer creates a coercer. A nil logger falls back to the default
// logger.
func NewCoercer(logger *slog.Logger) *Coercer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coercer{
		logger: logger.With(slog.String("component", "coercer")),
	}
}

// Apply coerces the year column (deriving the year-granularity date
// column alongside it) and each measurement column present in the schema.
// Cells that fail conversion become missing; the row is always kept.
func (c *Coercer) Apply(ctx context.Context, f *dataset.Frame) error {
	if err := c.coerceYear(ctx, f); err != nil {
		return err
	}

	for _, name := range domain.MeasurementColumns() {
		col, ok := f.Column(name)
		if !ok || col.Kind() != dataset.KindText {
			continue
		}
		converted, missing := c.toNumber(col)
		if err := f.ReplaceColumn(converted); err != nil {
			return err
		}
		if missing > 0 {
			c.logger.DebugContext(ctx, "coerced column with missing cells",
				slog.String("column", name),
				slog.Int("missing", missing))
		}
	}

	return nil
}

// coerceYear converts the year column and derives the date column at
// calendar-year granularity (January 1, serialized YYYY-MM-DD). Rows
// without a usable year keep an empty date.
func (c *Coercer) coerceYear(ctx context.Context, f *dataset.Frame) error {
	col, ok := f.Column(domain.ColYear)
	if !ok {
		c.logger.WarnContext(ctx, "year column absent, year filtering disabled")
		return nil
	}

	if col.Kind() == dataset.KindText {
		converted, _ := c.toNumber(col)
		if err := f.ReplaceColumn(converted); err != nil {
			return err
		}
		col = converted
	}

	dates := make([]string, col.Len())
	for i := 0; i < col.Len(); i++ {
		if v, ok := col.Number(i); ok {
			dates[i] = time.Date(int(v), time.January, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		}
	}
	return f.PutColumn(dataset.NewTextColumn(domain.ColDate, dates))
}

// toNumber converts a text column into a number column cell by cell,
// returning the new column and how many cells came out missing.
func (c *Coercer) toNumber(col *dataset.Column) (*dataset.Column, int) {
	n := col.Len()
	nums := make([]float64, n)
	valid := make([]bool, n)
	missing := 0
	for i := 0; i < n; i++ {
		v, ok := CoerceCell(col.Text(i))
		nums[i] = v
		valid[i] = ok
		if !ok {
			missing++
		}
	}
	return dataset.NewNumberColumn(col.Name(), nums, valid), missing
}
