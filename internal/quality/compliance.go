package quality

import (
	"waterq/internal/dataset"
	"waterq/pkg/contracts/domain"
)

// complianceCheck is one regulatory rule bound to a column that exists in
// the frame's schema.
type complianceCheck struct {
	violation domain.Violation
	col       *dataset.Column
	fails     func(v float64) bool
}

// complianceChecks binds the four regulatory rules to the columns present
// in the schema. A rule whose column is absent is excluded entirely, so a
// partial schema can never fire it.
func complianceChecks(f *dataset.Frame) []complianceCheck {
	checks := make([]complianceCheck, 0, 4)

	if col, ok := numberColumn(f, domain.ColPH); ok {
		checks = append(checks, complianceCheck{
			violation: domain.ViolationPHRange,
			col:       col,
			fails:     func(v float64) bool { return v < PHNeutralMin || v > PHNeutralMax },
		})
	}
	if col, ok := numberColumn(f, domain.ColDO); ok {
		checks = append(checks, complianceCheck{
			violation: domain.ViolationLowDO,
			col:       col,
			fails:     func(v float64) bool { return v < DOFloor },
		})
	}
	if col, ok := numberColumn(f, domain.ColBOD); ok {
		checks = append(checks, complianceCheck{
			violation: domain.ViolationHighBOD,
			col:       col,
			fails:     func(v float64) bool { return v > BODCeiling },
		})
	}
	if col, ok := numberColumn(f, domain.ColFecalColiform); ok {
		checks = append(checks, complianceCheck{
			violation: domain.ViolationFecalColiform,
			col:       col,
			fails:     func(v float64) bool { return v > FecalColiformCeiling },
		})
	}

	return checks
}

// EvaluateCompliance judges row i against every check whose column exists.
// A missing cell never fires its check. The violations slice is nil for a
// compliant record.
func EvaluateCompliance(f *dataset.Frame, i int) (domain.ComplianceStatus, []domain.Violation) {
	return evaluate(complianceChecks(f), i)
}

func evaluate(checks []complianceCheck, i int) (domain.ComplianceStatus, []domain.Violation) {
	var violations []domain.Violation
	for _, ck := range checks {
		if v, ok := ck.col.Number(i); ok && ck.fails(v) {
			violations = append(violations, ck.violation)
		}
	}
	if len(violations) > 0 {
		return domain.NonCompliant, violations
	}
	return domain.Compliant, nil
}

// applyCompliance derives the compliance_status column. The check list is
// bound once per frame, so per-row work is a handful of comparisons.
func (c *Classifier) applyCompliance(f *dataset.Frame) error {
	checks := complianceChecks(f)
	status := make([]string, f.Rows())
	for i := range status {
		verdict, _ := evaluate(checks, i)
		status[i] = string(verdict)
	}
	return f.PutColumn(dataset.NewTextColumn(domain.ColCompliance, status))
}
