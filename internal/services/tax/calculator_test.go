package tax

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tax-credit-engine/internal/models"
)

func TestCalculate_ZeroIncome(t *testing.T) {
	for _, regime := range models.ValidRegimes() {
		t.Run(string(regime), func(t *testing.T) {
			result, err := Calculate(0, regime, 0)
			require.NoError(t, err)

			assert.Equal(t, 0.0, result.Total)
			assert.Equal(t, 0.0, result.EffectiveRate, "effective rate is 0 when gross income is 0")
		})
	}
}

func TestCalculate_NewRegimeZeroBand(t *testing.T) {
	result, err := CalculateTax(300000, models.RegimeNew, models.DeductionBreakdown{})
	require.NoError(t, err)

	assert.Equal(t, 300000.0, result.TaxableIncome)
	assert.Equal(t, 0.0, result.Total)
}

func TestCalculateTax_OldRegimeWith80C(t *testing.T) {
	result, err := CalculateTax(1200000, models.RegimeOld, models.DeductionBreakdown{models.Section80C: 150000})
	require.NoError(t, err)

	assert.Equal(t, 150000.0, result.DeductionTotal)
	assert.Equal(t, 1050000.0, result.TaxableIncome)
	assert.Equal(t, 127500.0, result.BaseTax)
	assert.Equal(t, 12750.0, result.Surcharge, "10% surcharge above 1,000,000")
	assert.Equal(t, 5610.0, result.Cess)
	assert.Equal(t, 145860.0, result.Total)
	assert.InDelta(t, 0.12155, result.EffectiveRate, 1e-12)
}

func TestCalculate_KnownValues(t *testing.T) {
	tests := []struct {
		name      string
		gross     float64
		regime    models.Regime
		deduction float64
		baseTax   float64
		surcharge float64
		cess      float64
		total     float64
	}{
		{"old 500k", 500000, models.RegimeOld, 0, 12500, 0, 500, 13000},
		{"old just at exemption", 250000, models.RegimeOld, 0, 0, 0, 0, 0},
		{"old deduction larger than income", 200000, models.RegimeOld, 500000, 0, 0, 0, 0},
		{"new 1M at surcharge threshold", 1000000, models.RegimeNew, 0, 60000, 0, 2400, 62400},
		{"new 1.2M ignores deductions", 1200000, models.RegimeNew, 150000, 90000, 9000, 3960, 102960},
		{"old 6M 15% band", 6000000, models.RegimeOld, 0, 1612500, 241875, 74175, 1928550},
		{"new 2M", 2000000, models.RegimeNew, 0, 300000, 30000, 13200, 343200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Calculate(tt.gross, tt.regime, tt.deduction)
			require.NoError(t, err)

			assert.Equal(t, tt.baseTax, result.BaseTax, "base tax")
			assert.Equal(t, tt.surcharge, result.Surcharge, "surcharge")
			assert.Equal(t, tt.cess, result.Cess, "cess")
			assert.Equal(t, tt.total, result.Total, "total")
		})
	}
}

func TestCalculate_NewRegimeReportsNoDeduction(t *testing.T) {
	result, err := Calculate(800000, models.RegimeNew, 200000)
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.DeductionTotal)
	assert.Equal(t, 800000.0, result.TaxableIncome)
}

func TestCalculate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		gross     float64
		regime    models.Regime
		deduction float64
	}{
		{"negative income", -1, models.RegimeOld, 0},
		{"NaN income", math.NaN(), models.RegimeNew, 0},
		{"infinite income", math.Inf(1), models.RegimeNew, 0},
		{"unknown regime", 100000, models.Regime("flat"), 0},
		{"empty regime", 100000, models.Regime(""), 0},
		{"negative deduction", 100000, models.RegimeOld, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Calculate(tt.gross, tt.regime, tt.deduction)
			require.Error(t, err)
			assert.True(t, models.IsValidationError(err))
			assert.Equal(t, models.TaxResult{}, result, "no partial result on failure")
		})
	}
}

func TestCalculate_TotalIsSumOfComponents(t *testing.T) {
	for _, regime := range models.ValidRegimes() {
		for income := 0.0; income <= 12000000; income += 137777.77 {
			result, err := Calculate(income, regime, 0)
			require.NoError(t, err)

			sum := decimal.NewFromFloat(result.BaseTax).
				Add(decimal.NewFromFloat(result.Surcharge)).
				Add(decimal.NewFromFloat(result.Cess))
			assert.Equal(t, sum.InexactFloat64(), result.Total)
			assert.GreaterOrEqual(t, result.BaseTax, 0.0)
			assert.GreaterOrEqual(t, result.Surcharge, 0.0)
			assert.GreaterOrEqual(t, result.Cess, 0.0)
		}
	}
}

func TestCalculate_CessIsFourPercent(t *testing.T) {
	for _, regime := range models.ValidRegimes() {
		for income := 0.0; income <= 60000000; income += 777777.77 {
			result, err := Calculate(income, regime, 0)
			require.NoError(t, err)

			expected := decimal.NewFromFloat(result.BaseTax).
				Add(decimal.NewFromFloat(result.Surcharge)).
				Mul(decimal.NewFromFloat(0.04)).
				Round(2).
				InexactFloat64()
			assert.Equal(t, expected, result.Cess, "income %.2f", income)
		}
	}
}

func TestCalculate_MonotonicInIncome(t *testing.T) {
	for _, regime := range models.ValidRegimes() {
		t.Run(string(regime), func(t *testing.T) {
			previous := -1.0
			for income := 0.0; income <= 3000000; income += 12500 {
				result, err := Calculate(income, regime, 50000)
				require.NoError(t, err)

				assert.GreaterOrEqual(t, result.Total, previous, "total decreased at income %.0f", income)
				previous = result.Total
			}
		})
	}
}

func TestCalculate_ContinuousAtSlabBoundaries(t *testing.T) {
	for _, regime := range models.ValidRegimes() {
		slabs := SlabsFor(regime)
		for i := 1; i < len(slabs); i++ {
			boundary := slabs[i].LowerBound

			below, err := Calculate(boundary-1, regime, 0)
			require.NoError(t, err)
			at, err := Calculate(boundary, regime, 0)
			require.NoError(t, err)

			// One more rupee below the boundary is taxed at the lower slab's rate.
			assert.InDelta(t, slabs[i-1].Rate/100, at.BaseTax-below.BaseTax, 0.011,
				"%s regime jumps at %.0f", regime, boundary)
		}
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	first, err := CalculateTax(1875000, models.RegimeOld, models.DeductionBreakdown{models.Section80C: 90000, models.SectionHRA: 120000})
	require.NoError(t, err)
	second, err := CalculateTax(1875000, models.RegimeOld, models.DeductionBreakdown{models.Section80C: 90000, models.SectionHRA: 120000})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSurchargeRate_Ladder(t *testing.T) {
	tests := []struct {
		taxable float64
		rate    float64
	}{
		{1000000, 0},
		{1000000.01, 10},
		{5000000, 10},
		{5000001, 15},
		{10000001, 25},
		{50000000, 25},
		{50000001, 37},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.rate, surchargeRate(decimal.NewFromFloat(tt.taxable)), "taxable %.2f", tt.taxable)
	}
}
