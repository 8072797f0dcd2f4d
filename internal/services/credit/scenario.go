package credit

import (
	"tax-credit-engine/internal/models"
)

// Point deltas applied by Simulate.
const (
	ImpactLowUtilization      = 20
	ImpactModerateUtilization = 10
	ImpactHighUtilization     = -30
	ImpactPerNewAccount       = -15
	ImpactPerMissedPayment    = -25
)

// maxLeverCount is the smallest count whose penalty spans the whole score
// range even after the best utilization bonus. Larger counts are saturated to
// it so the product cannot overflow.
const maxLeverCount = (models.MaxCreditScore-models.MinCreditScore+ImpactLowUtilization)/-ImpactPerNewAccount + 1

// Simulate projects a score from three independent levers without
// re-deriving the structural factors. The breakdown is always ordered
// utilization, new credit, missed payments.
func Simulate(baselineScore int, inputs models.ScenarioInputs) (models.ScenarioResult, error) {
	if baselineScore < models.MinCreditScore || baselineScore > models.MaxCreditScore {
		return models.ScenarioResult{}, models.NewValidationError("baseline_score",
			"must be within [%d,%d], got %d", models.MinCreditScore, models.MaxCreditScore, baselineScore)
	}
	if err := validatePercent("credit_utilization_pct", inputs.CreditUtilizationPct); err != nil {
		return models.ScenarioResult{}, err
	}
	if inputs.NewAccountsOpened < 0 {
		return models.ScenarioResult{}, models.NewValidationError("new_accounts_opened", "cannot be negative")
	}
	if inputs.MissedPaymentsLast6Months < 0 {
		return models.ScenarioResult{}, models.NewValidationError("missed_payments_last_6_months", "cannot be negative")
	}

	impacts := []models.FactorImpact{
		{Factor: models.FactorCreditUtilization, Delta: utilizationImpact(inputs.CreditUtilizationPct)},
		{Factor: models.FactorNewCredit, Delta: saturateCount(inputs.NewAccountsOpened) * ImpactPerNewAccount},
		{Factor: models.FactorMissedPayments, Delta: saturateCount(inputs.MissedPaymentsLast6Months) * ImpactPerMissedPayment},
	}

	total := 0
	for _, impact := range impacts {
		total += impact.Delta
	}

	projected := clampScore(baselineScore + total)

	return models.ScenarioResult{
		BaselineScore:   baselineScore,
		ProjectedScore:  projected,
		ProjectedGrade:  models.GradeFor(projected),
		TotalImpact:     total,
		PerFactorImpact: impacts,
	}, nil
}

// utilizationImpact maps utilization % to its tier: <30, 30–<50, 50–70, >70.
func utilizationImpact(pct float64) int {
	switch {
	case pct < 30:
		return ImpactLowUtilization
	case pct < 50:
		return ImpactModerateUtilization
	case pct <= 70:
		return 0
	default:
		return ImpactHighUtilization
	}
}

func saturateCount(n int) int {
	if n > maxLeverCount {
		return maxLeverCount
	}
	return n
}
