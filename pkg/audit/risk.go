package audit

// RiskLevel is the discrete compliance risk classification.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Classification thresholds, inclusive at the lower bound of each band.
const (
	lowRiskMinScore    = 7.5
	mediumRiskMinScore = 4.0
)

// ClassifyRisk maps an overall score to a risk level. A critical failure
// forces high regardless of the aggregate score: certain failures, like a
// missing statutory safety certificate, are disqualifying on their own.
func ClassifyRisk(overallScore float64, criticalFailure bool) RiskLevel {
	if criticalFailure {
		return RiskHigh
	}
	switch {
	case overallScore >= lowRiskMinScore:
		return RiskLow
	case overallScore >= mediumRiskMinScore:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Recommendation returns the action hint reported alongside the level.
func (r RiskLevel) Recommendation(criticalFailure bool) string {
	if criticalFailure {
		return "resolve critical compliance failures immediately"
	}
	switch r {
	case RiskLow:
		return "maintain current practices, re-audit at next renewal"
	case RiskMedium:
		return "address flagged categories within the remediation window"
	default:
		return "schedule a full compliance review"
	}
}

// Valid reports whether r is one of the defined levels, used when reading
// persisted results back from storage.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}
