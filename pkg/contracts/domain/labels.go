package domain

// PHStatus classifies a pH reading against the neutral band.
type PHStatus string

const (
	PHAcidic   PHStatus = "Acidic"
	PHNeutral  PHStatus = "Neutral"
	PHAlkaline PHStatus = "Alkaline"
	PHUnknown  PHStatus = "Unknown"
)

// IsValid checks if the status is one of the defined labels
func (s PHStatus) IsValid() bool {
	switch s {
	case PHAcidic, PHNeutral, PHAlkaline, PHUnknown:
		return true
	}
	return false
}

// ECLevel classifies an electrical conductivity reading.
type ECLevel string

const (
	ECLow     ECLevel = "Low"
	ECMedium  ECLevel = "Medium"
	ECHigh    ECLevel = "High"
	ECUnknown ECLevel = "Unknown"
)

// IsValid checks if the level is one of the defined labels
func (l ECLevel) IsValid() bool {
	switch l {
	case ECLow, ECMedium, ECHigh, ECUnknown:
		return true
	}
	return false
}

// ComplianceStatus is the verdict of the regulatory checks.
type ComplianceStatus string

const (
	Compliant    ComplianceStatus = "Compliant"
	NonCompliant ComplianceStatus = "Non-Compliant"
)

// IsValid checks if the status is one of the defined labels
func (s ComplianceStatus) IsValid() bool {
	return s == Compliant || s == NonCompliant
}

// Violation names a single failed regulatory check.
type Violation string

const (
	ViolationPHRange       Violation = "ph_out_of_range"
	ViolationLowDO         Violation = "low_dissolved_oxygen"
	ViolationHighBOD       Violation = "high_bod"
	ViolationFecalColiform Violation = "high_fecal_coliform"
)
