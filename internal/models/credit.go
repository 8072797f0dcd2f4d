// Package models defines the data structures for the tax and credit engine.
package models

import (
	"time"
)

// Credit score bounds.
const (
	MinCreditScore = 300
	MaxCreditScore = 900
)

// Standing credit factor names.
const (
	FactorPaymentHistory    = "payment_history"
	FactorCreditUtilization = "credit_utilization"
	FactorCreditAge         = "credit_age"
	FactorCreditMix         = "credit_mix"
	FactorNewCredit         = "new_credit"
	FactorMissedPayments    = "missed_payments"
)

// CreditFactor is one weighted input to the score model.
type CreditFactor struct {
	Name            string  `json:"name,omitempty"`
	Weight          float64 `json:"weight"`
	NormalizedValue float64 `json:"normalized_value"`
}

// CreditGrade is the qualitative band of a score.
type CreditGrade string

const (
	GradePoor      CreditGrade = "Poor"
	GradeFair      CreditGrade = "Fair"
	GradeGood      CreditGrade = "Good"
	GradeExcellent CreditGrade = "Excellent"
)

// GradeFor maps a score to its grade using the fixed cut-points.
func GradeFor(score int) CreditGrade {
	switch {
	case score >= 750:
		return GradeExcellent
	case score >= 650:
		return GradeGood
	case score >= 550:
		return GradeFair
	default:
		return GradePoor
	}
}

// FactorContribution is the number of points a factor added above the 300 floor.
type FactorContribution struct {
	Name   string  `json:"name,omitempty"`
	Weight float64 `json:"weight"`
	Points float64 `json:"points"`
}

// CreditScoreResult is the output of the score model.
type CreditScoreResult struct {
	Score         int                  `json:"score"`
	Grade         CreditGrade          `json:"grade"`
	Contributions []FactorContribution `json:"contributions,omitempty"`
}

// CreditProfile is raw borrower behaviour, before normalization.
type CreditProfile struct {
	OnTimePaymentPct     float64 `json:"on_time_payment_pct"`
	CreditUtilizationPct float64 `json:"credit_utilization_pct"`
	CreditAgeYears       float64 `json:"credit_age_years"`
	AccountTypes         int     `json:"account_types"`
	RecentInquiries      int     `json:"recent_inquiries"`
}

// ScenarioInputs are the behavioural levers of a what-if projection.
type ScenarioInputs struct {
	CreditUtilizationPct      float64 `json:"credit_utilization_pct"`
	NewAccountsOpened         int     `json:"new_accounts_opened"`
	MissedPaymentsLast6Months int     `json:"missed_payments_last_6_months"`
}

// FactorImpact is the point delta attributed to one lever.
type FactorImpact struct {
	Factor string `json:"factor"`
	Delta  int    `json:"delta"`
}

// ScenarioResult is the projected score after applying scenario levers.
type ScenarioResult struct {
	BaselineScore   int            `json:"baseline_score"`
	ProjectedScore  int            `json:"projected_score"`
	ProjectedGrade  CreditGrade    `json:"projected_grade"`
	TotalImpact     int            `json:"total_impact"`
	PerFactorImpact []FactorImpact `json:"per_factor_impact"`
}

// ScoreSnapshot is a persisted credit score estimate.
type ScoreSnapshot struct {
	ID        string      `json:"id" db:"id"`
	UserRef   string      `json:"user_ref" db:"user_ref"`
	Score     int         `json:"score" db:"score"`
	Grade     CreditGrade `json:"grade" db:"grade"`
	Source    string      `json:"source" db:"source"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}
