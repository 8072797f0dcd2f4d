package tax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tax-credit-engine/internal/models"
)

func TestPlanDeductions(t *testing.T) {
	plan, err := Default().PlanDeductions(1200000, models.DeductionBreakdown{models.Section80C: 100000})
	require.NoError(t, err)

	assert.Equal(t, 100000.0, plan.Current.Total)
	assert.Equal(t, map[models.DeductionSection]float64{
		models.Section80C: 50000,
		models.Section80D: 25000,
		models.SectionNPS: 50000,
		models.Section24b: 200000,
	}, plan.Headroom)

	assert.Equal(t, 163020.0, plan.Comparison.Old.Total)
	assert.Equal(t, 102960.0, plan.Comparison.New.Total)

	// Maxed out: 150,000 group + 200,000 home loan leaves 850,000 taxable.
	assert.Equal(t, 77220.0, plan.PotentialSaving)
	assert.Equal(t, 267500.0, plan.BreakEvenDeduction)
}

func TestPlanDeductions_GroupAlreadyFull(t *testing.T) {
	plan, err := Default().PlanDeductions(900000, models.DeductionBreakdown{
		models.Section80C: 150000,
		models.Section24b: 200000,
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, plan.Headroom[models.Section80C])
	assert.Equal(t, 0.0, plan.Headroom[models.Section80D], "group cap leaves no room for 80D")
	assert.Equal(t, 0.0, plan.Headroom[models.SectionNPS])
	assert.Equal(t, 0.0, plan.Headroom[models.Section24b])
	assert.Equal(t, 0.0, plan.PotentialSaving)
}

func TestPlanDeductions_BreakEvenIsTight(t *testing.T) {
	gross := 1500000.0
	plan, err := Default().PlanDeductions(gross, nil)
	require.NoError(t, err)

	at, err := Calculate(gross, models.RegimeOld, plan.BreakEvenDeduction)
	require.NoError(t, err)
	assert.LessOrEqual(t, at.Total, plan.Comparison.New.Total)

	require.Positive(t, plan.BreakEvenDeduction)
	below, err := Calculate(gross, models.RegimeOld, plan.BreakEvenDeduction-1)
	require.NoError(t, err)
	assert.Greater(t, below.Total, plan.Comparison.New.Total)
}

func TestPlanDeductions_Invalid(t *testing.T) {
	_, err := Default().PlanDeductions(-1, nil)
	assert.ErrorIs(t, err, models.ErrValidation)
}
