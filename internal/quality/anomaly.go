package quality

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"waterq/internal/dataset"
	"waterq/pkg/contracts/domain"
)

// DefaultAnomalyThreshold is the standardized-score cutoff used when a
// query does not name one.
const DefaultAnomalyThreshold = 3.0

// Detection is the outcome of screening one numeric column. Flags align
// with the frame's row order.
type Detection struct {
	Column    string
	Threshold float64
	Mean      float64
	StdDev    float64
	Defined   bool
	Flags     []bool
	Flagged   int
}

// Detector flags statistically extreme values per numeric column.
type Detector struct {
	logger *slog.Logger
}

// NewDetector creates a detector. A nil logger falls back to the default
// logger.
func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		logger: logger.With(slog.String("component", "anomaly_detector")),
	}
}

// Detect screens the named column: mean and sample standard deviation are
// computed over its non-missing cells, and a record is flagged when the
// absolute standardized score strictly exceeds the threshold. Missing
// cells are never flagged. A constant column (zero standard deviation) or
// one with fewer than two values has no defined scores and flags nothing.
func (d *Detector) Detect(ctx context.Context, f *dataset.Frame, column string, threshold float64) (Detection, error) {
	if threshold <= 0 {
		threshold = DefaultAnomalyThreshold
	}

	col, ok := f.Column(column)
	if !ok {
		return Detection{}, fmt.Errorf("column %q not found", column)
	}
	if col.Kind() != dataset.KindNumber {
		return Detection{}, fmt.Errorf("column %q is not numeric", column)
	}

	det := Detection{
		Column:    column,
		Threshold: threshold,
		Flags:     make([]bool, f.Rows()),
	}

	m := ColumnMoments(col)
	det.Mean = m.Mean()
	det.StdDev = m.SampleStdDev()
	if m.Count() < 2 || det.StdDev == 0 {
		d.logger.DebugContext(ctx, "degenerate column, nothing flagged",
			slog.String("column", column),
			slog.Int("values", m.Count()))
		return det, nil
	}
	det.Defined = true

	for i := 0; i < col.Len(); i++ {
		v, present := col.Number(i)
		if !present {
			continue
		}
		if math.Abs((v-det.Mean)/det.StdDev) > threshold {
			det.Flags[i] = true
			det.Flagged++
		}
	}

	d.logger.DebugContext(ctx, "anomaly detection complete",
		slog.String("column", column),
		slog.Float64("threshold", threshold),
		slog.Int("flagged", det.Flagged))
	return det, nil
}

// Annotate appends one {param}_anomaly flag column per monitored
// parameter present in the schema, at the default threshold. Existing
// flag columns are replaced, keeping re-runs idempotent.
func (d *Detector) Annotate(ctx context.Context, f *dataset.Frame) error {
	for _, param := range domain.MonitoredColumns() {
		if _, ok := numberColumn(f, param); !ok {
			continue
		}
		det, err := d.Detect(ctx, f, param, DefaultAnomalyThreshold)
		if err != nil {
			return fmt.Errorf("annotate %s: %w", param, err)
		}
		if err := f.PutColumn(dataset.NewBoolColumn(domain.AnomalyColumn(param), det.Flags)); err != nil {
			return err
		}
	}
	return nil
}
