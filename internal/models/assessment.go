// Package models defines the data structures for the tax and credit engine.
package models

import (
	"time"
)

// TaxProfile is one taxpayer submitted for a regime assessment.
type TaxProfile struct {
	TaxpayerID  string             `json:"taxpayer_id"`
	Email       string             `json:"email,omitempty"`
	Name        string             `json:"name,omitempty"`
	GrossIncome float64            `json:"gross_income"`
	Deductions  DeductionBreakdown `json:"deductions,omitempty"`
	BatchID     string             `json:"batch_id,omitempty"`
}

// Assessment is the stored outcome of comparing both regimes for a profile.
type Assessment struct {
	ID             string    `json:"id" db:"id"`
	BatchID        string    `json:"batch_id" db:"batch_id"`
	TaxpayerID     string    `json:"taxpayer_id" db:"taxpayer_id"`
	Email          string    `json:"email,omitempty" db:"email"`
	GrossIncome    float64   `json:"gross_income" db:"gross_income"`
	DeductionTotal float64   `json:"deduction_total" db:"deduction_total"`
	OldTotal       float64   `json:"old_total" db:"old_total"`
	NewTotal       float64   `json:"new_total" db:"new_total"`
	Recommended    Regime    `json:"recommended" db:"recommended"`
	Savings        float64   `json:"savings" db:"savings"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// NewAssessment flattens a comparison into a storable Assessment.
func NewAssessment(profile *TaxProfile, cmp RegimeComparison) *Assessment {
	return &Assessment{
		BatchID:        profile.BatchID,
		TaxpayerID:     profile.TaxpayerID,
		Email:          profile.Email,
		GrossIncome:    profile.GrossIncome,
		DeductionTotal: cmp.Old.DeductionTotal,
		OldTotal:       cmp.Old.Total,
		NewTotal:       cmp.New.Total,
		Recommended:    cmp.Recommended,
		Savings:        cmp.Savings,
	}
}

// BatchAssessmentSummary provides summary statistics for an assessed batch.
type BatchAssessmentSummary struct {
	BatchID               string  `json:"batch_id"`
	TotalProfiles         int     `json:"total_profiles"`
	Assessed              int     `json:"assessed"`
	Failed                int     `json:"failed"`
	RecommendOld          int     `json:"recommend_old"`
	RecommendNew          int     `json:"recommend_new"`
	TotalSavings          float64 `json:"total_savings"`
	AvgSavings            float64 `json:"avg_savings"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
}

// BulkInsertResult contains the results of a bulk insert operation.
type BulkInsertResult struct {
	InsertedCount int      `json:"inserted_count"`
	FailedCount   int      `json:"failed_count"`
	Errors        []string `json:"errors,omitempty"`
}
