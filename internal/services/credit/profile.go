package credit

import (
	"math"

	"tax-credit-engine/internal/models"
)

// Standing factor weights.
const (
	WeightPaymentHistory    = 0.35
	WeightCreditUtilization = 0.30
	WeightCreditAge         = 0.15
	WeightCreditMix         = 0.10
	WeightNewCredit         = 0.10
)

// Normalization limits for raw profile values.
const (
	matureCreditAgeYears = 10.0
	fullMixAccountTypes  = 4.0
	maxRecentInquiries   = 5.0
)

// StandardFactors maps raw behaviour to the five standing factors:
//   - payment history: on-time payment % / 100
//   - utilization: (100 − utilization %) / 100
//   - credit age: years / 10, capped at 1
//   - credit mix: distinct account types / 4, capped at 1
//   - new credit: 1 − hard inquiries / 5, floored at 0
func StandardFactors(p models.CreditProfile) ([]models.CreditFactor, error) {
	if err := validatePercent("on_time_payment_pct", p.OnTimePaymentPct); err != nil {
		return nil, err
	}
	if err := validatePercent("credit_utilization_pct", p.CreditUtilizationPct); err != nil {
		return nil, err
	}
	if math.IsNaN(p.CreditAgeYears) || p.CreditAgeYears < 0 {
		return nil, models.NewValidationError("credit_age_years", "cannot be negative")
	}
	if p.AccountTypes < 0 {
		return nil, models.NewValidationError("account_types", "cannot be negative")
	}
	if p.RecentInquiries < 0 {
		return nil, models.NewValidationError("recent_inquiries", "cannot be negative")
	}

	return []models.CreditFactor{
		{Name: models.FactorPaymentHistory, Weight: WeightPaymentHistory, NormalizedValue: p.OnTimePaymentPct / 100},
		{Name: models.FactorCreditUtilization, Weight: WeightCreditUtilization, NormalizedValue: math.Max(0, (100-p.CreditUtilizationPct)/100)},
		{Name: models.FactorCreditAge, Weight: WeightCreditAge, NormalizedValue: math.Min(1, p.CreditAgeYears/matureCreditAgeYears)},
		{Name: models.FactorCreditMix, Weight: WeightCreditMix, NormalizedValue: math.Min(1, float64(p.AccountTypes)/fullMixAccountTypes)},
		{Name: models.FactorNewCredit, Weight: WeightNewCredit, NormalizedValue: math.Max(0, 1-float64(p.RecentInquiries)/maxRecentInquiries)},
	}, nil
}

// EstimateFromProfile normalizes a raw profile and scores it.
func EstimateFromProfile(p models.CreditProfile) (models.CreditScoreResult, error) {
	factors, err := StandardFactors(p)
	if err != nil {
		return models.CreditScoreResult{}, err
	}
	return EstimateScore(factors)
}

func validatePercent(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return models.NewValidationError(field, "must be within [0,100], got %v", v)
	}
	return nil
}
