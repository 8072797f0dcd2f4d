package models_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tax-credit-engine/internal/models"
)

func TestParseRegime(t *testing.T) {
	tests := []struct {
		input    string
		expected models.Regime
		valid    bool
	}{
		{"old", models.RegimeOld, true},
		{"OLD", models.RegimeOld, true},
		{" new ", models.RegimeNew, true},
		{"New", models.RegimeNew, true},
		{"flat", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			regime, err := models.ParseRegime(tt.input)
			if !tt.valid {
				require.Error(t, err)
				assert.True(t, models.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, regime)
		})
	}
}

func TestNormalizeDeductionSection(t *testing.T) {
	tests := []struct {
		input    string
		expected models.DeductionSection
	}{
		{"80C", models.Section80C},
		{"80c", models.Section80C},
		{"Section 80C", models.Section80C},
		{"sec_80d", models.Section80D},
		{"80CCD(1B)", models.SectionNPS},
		{"nps", models.SectionNPS},
		{"24", models.Section24b},
		{"home_loan_interest", models.Section24b},
		{"HRA", models.SectionHRA},
		{"donations", models.Section80G},
		{"education_loan", models.Section80E},
		{"80Z", models.DeductionSection("80Z")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, models.NormalizeDeductionSection(tt.input))
		})
	}
}

func TestDeductionSections(t *testing.T) {
	sections := models.DeductionSections()
	assert.Len(t, sections, 7)
	for _, s := range sections {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, models.DeductionSection("80Z").IsValid())
}

func TestDefaultDeductionRules(t *testing.T) {
	rules := models.DefaultDeductionRules()

	assert.Equal(t, 150000.0, rules.SectionCap(models.Section80C))
	assert.Equal(t, 25000.0, rules.SectionCap(models.Section80D))
	assert.Equal(t, 50000.0, rules.SectionCap(models.SectionNPS))
	assert.Equal(t, 200000.0, rules.SectionCap(models.Section24b))
	assert.True(t, math.IsInf(rules.SectionCap(models.SectionHRA), 1))
	assert.True(t, math.IsInf(rules.SectionCap(models.DeductionSection("other")), 1))

	assert.Equal(t, 0, rules.GroupOf(models.SectionNPS))
	assert.Equal(t, -1, rules.GroupOf(models.Section24b))
}

func TestGradeFor(t *testing.T) {
	tests := []struct {
		score    int
		expected models.CreditGrade
	}{
		{900, models.GradeExcellent},
		{750, models.GradeExcellent},
		{749, models.GradeGood},
		{650, models.GradeGood},
		{649, models.GradeFair},
		{550, models.GradeFair},
		{549, models.GradePoor},
		{300, models.GradePoor},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, models.GradeFor(tt.score), "score %d", tt.score)
	}
}

func TestValidationError(t *testing.T) {
	err := models.NewValidationError("gross_income", "cannot be negative, got %v", -1)

	assert.Equal(t, "validation error: gross_income: cannot be negative, got -1", err.Error())
	assert.True(t, errors.Is(err, models.ErrValidation))

	wrapped := fmt.Errorf("taxpayer T1: %w", err)
	assert.True(t, models.IsValidationError(wrapped))

	var ve *models.ValidationError
	require.True(t, errors.As(wrapped, &ve))
	assert.Equal(t, "gross_income", ve.Field)

	assert.False(t, models.IsValidationError(errors.New("boom")))
	assert.Equal(t, "validation error: bad", models.NewValidationError("", "bad").Error())
}

func TestValidateTaxProfile(t *testing.T) {
	valid := func() *models.TaxProfile {
		return &models.TaxProfile{
			TaxpayerID:  "T1",
			Email:       "t1@example.com",
			GrossIncome: 1200000,
			Deductions:  models.DeductionBreakdown{models.Section80C: 150000},
		}
	}

	assert.NoError(t, models.ValidateTaxProfile(valid()))

	tests := []struct {
		name   string
		mutate func(p *models.TaxProfile)
		want   error
	}{
		{"empty id", func(p *models.TaxProfile) { p.TaxpayerID = "  " }, models.ErrEmptyTaxpayerID},
		{"bad email", func(p *models.TaxProfile) { p.Email = "nope" }, models.ErrInvalidEmail},
		{"negative income", func(p *models.TaxProfile) { p.GrossIncome = -1 }, models.ErrNegativeIncome},
		{"unknown section", func(p *models.TaxProfile) { p.Deductions["80Z"] = 1 }, nil},
		{"negative deduction", func(p *models.TaxProfile) { p.Deductions[models.Section80D] = -5 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)
			err := models.ValidateTaxProfile(p)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestNewAssessment(t *testing.T) {
	profile := &models.TaxProfile{
		TaxpayerID:  "T1",
		Email:       "t1@example.com",
		GrossIncome: 1200000,
		BatchID:     "b1",
	}
	cmp := models.RegimeComparison{
		Old:         models.TaxResult{Regime: models.RegimeOld, DeductionTotal: 150000, Total: 145860},
		New:         models.TaxResult{Regime: models.RegimeNew, Total: 102960},
		Recommended: models.RegimeNew,
		Savings:     42900,
	}

	a := models.NewAssessment(profile, cmp)

	assert.Equal(t, "b1", a.BatchID)
	assert.Equal(t, "T1", a.TaxpayerID)
	assert.Equal(t, 150000.0, a.DeductionTotal)
	assert.Equal(t, 145860.0, a.OldTotal)
	assert.Equal(t, 102960.0, a.NewTotal)
	assert.Equal(t, models.RegimeNew, a.Recommended)
	assert.Equal(t, 42900.0, a.Savings)
}
