package dataprocessing

import (
	"context"
	"log/slog"

	"waterq/internal/dataset"
	"waterq/internal/quality"
	"waterq/pkg/contracts/domain"
)

// ImputeResult reports the outcome of imputation for one column.
type ImputeResult struct {
	Column        string
	MissingBefore int
	Imputed       int
	Median        float64
	HasMedian     bool
}

// Imputer fills missing measurement cells with the column median computed
// over all non-missing values of the full dataset. Median is used over
// mean because pollutant concentrations are heavily right-skewed.
type Imputer struct {
	logger *slog.Logger
}

// NewImputer creates an imputer. A nil logger falls back to the default
// logger.
func NewImputer(logger *slog.Logger) *Imputer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Imputer{
		logger: logger.With(slog.String("component", "imputer")),
	}
}

// Apply imputes every measurement column present in the schema and
// reports per-column counts. A column with no non-missing values has an
// undefined median and is left missing rather than filled with a
// fabricated value.
func (im *Imputer) Apply(ctx context.Context, f *dataset.Frame) []ImputeResult {
	results := make([]ImputeResult, 0, len(domain.MeasurementColumns()))

	for _, name := range domain.MeasurementColumns() {
		col, ok := f.Column(name)
		if !ok || col.Kind() != dataset.KindNumber {
			continue
		}

		res := ImputeResult{Column: name, MissingBefore: col.Missing()}
		median, defined := quality.Median(col.NonMissing())
		if !defined {
			im.logger.WarnContext(ctx, "column entirely missing, leaving unimputed",
				slog.String("column", name))
			results = append(results, res)
			continue
		}

		res.Median = median
		res.HasMedian = true
		if res.MissingBefore > 0 {
			for i := 0; i < col.Len(); i++ {
				if _, present := col.Number(i); !present {
					col.SetNumber(i, median)
					res.Imputed++
				}
			}
			im.logger.InfoContext(ctx, "imputed missing values",
				slog.String("column", name),
				slog.Int("imputed", res.Imputed),
				slog.Float64("median", median))
		}
		results = append(results, res)
	}

	return results
}
