package analyzer

import "stocklens/indicator"

// Risk grades.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// AssessRisk grades risk from the latest indicator row. Annualized
// volatility above 30 or an RSI outside [20, 80] reads as high; the overall
// grade is high when at least two sub-risks are high and low when none are.
func AssessRisk(row indicator.Row) RiskAssessment {
	assessment := RiskAssessment{
		OverallRisk:    RiskMedium,
		VolatilityRisk: RiskMedium,
		RSIRisk:        RiskMedium,
	}

	if !indicator.IsNA(row.Volatility) {
		switch {
		case row.Volatility > 30:
			assessment.VolatilityRisk = RiskHigh
		case row.Volatility < 15:
			assessment.VolatilityRisk = RiskLow
		}
	}

	if !indicator.IsNA(row.RSI) {
		switch {
		case row.RSI > 80 || row.RSI < 20:
			assessment.RSIRisk = RiskHigh
		case row.RSI > 70 || row.RSI < 30:
			assessment.RSIRisk = RiskMedium
		default:
			assessment.RSIRisk = RiskLow
		}
	}

	highCount := 0
	for _, grade := range []string{assessment.VolatilityRisk, assessment.RSIRisk} {
		if grade == RiskHigh {
			highCount++
		}
	}
	switch {
	case highCount >= 2:
		assessment.OverallRisk = RiskHigh
	case highCount == 0:
		assessment.OverallRisk = RiskLow
	}
	return assessment
}
