package quality

import (
	"context"
	"log/slog"

	"waterq/internal/dataset"
	"waterq/pkg/contracts/domain"
)

// Threshold constants for the rule-based classifiers, per BIS/WHO surface
// water guidance.
const (
	PHNeutralMin = 6.5
	PHNeutralMax = 8.5

	ECLowMax  = 250.0
	ECHighMin = 750.0

	DOFloor              = 5.0
	BODCeiling           = 3.0
	FecalColiformCeiling = 500.0
)

// ClassifyPH labels one pH reading. The neutral band is inclusive on both
// ends; a missing reading is Unknown, never an error.
func ClassifyPH(v float64, present bool) domain.PHStatus {
	switch {
	case !present:
		return domain.PHUnknown
	case v < PHNeutralMin:
		return domain.PHAcidic
	case v <= PHNeutralMax:
		return domain.PHNeutral
	default:
		return domain.PHAlkaline
	}
}

// ClassifyEC labels one conductivity reading. The medium band is
// inclusive on both ends; a missing reading is Unknown.
func ClassifyEC(v float64, present bool) domain.ECLevel {
	switch {
	case !present:
		return domain.ECUnknown
	case v < ECLowMax:
		return domain.ECLow
	case v <= ECHighMin:
		return domain.ECMedium
	default:
		return domain.ECHigh
	}
}

// Classifier appends the derived label columns to an enriched frame.
type Classifier struct {
	logger *slog.Logger
}

// NewClassifier creates a classifier. A nil logger falls back to the
// default logger.
func NewClassifier(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		logger: logger.With(slog.String("component", "classifier")),
	}
}

// Apply derives ph_status, ec_level and compliance_status for every
// record. Label columns from a previous run are replaced, so re-applying
// the classifier is idempotent.
func (c *Classifier) Apply(ctx context.Context, f *dataset.Frame) error {
	rows := f.Rows()

	phCol, hasPH := numberColumn(f, domain.ColPH)
	phStatus := make([]string, rows)
	for i := 0; i < rows; i++ {
		if hasPH {
			phStatus[i] = string(ClassifyPH(phCol.Number(i)))
		} else {
			phStatus[i] = string(domain.PHUnknown)
		}
	}
	if err := f.PutColumn(dataset.NewTextColumn(domain.ColPHStatus, phStatus)); err != nil {
		return err
	}

	ecCol, hasEC := numberColumn(f, domain.ColConductivity)
	ecLevel := make([]string, rows)
	for i := 0; i < rows; i++ {
		if hasEC {
			ecLevel[i] = string(ClassifyEC(ecCol.Number(i)))
		} else {
			ecLevel[i] = string(domain.ECUnknown)
		}
	}
	if err := f.PutColumn(dataset.NewTextColumn(domain.ColECLevel, ecLevel)); err != nil {
		return err
	}

	if err := c.applyCompliance(f); err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "derived classification labels",
		slog.Int("rows", rows),
		slog.Bool("ph_present", hasPH),
		slog.Bool("conductivity_present", hasEC))
	return nil
}

// numberColumn fetches a column only when it exists with numeric cells.
func numberColumn(f *dataset.Frame, name string) (*dataset.Column, bool) {
	col, ok := f.Column(name)
	if !ok || col.Kind() != dataset.KindNumber {
		return nil, false
	}
	return col, true
}
