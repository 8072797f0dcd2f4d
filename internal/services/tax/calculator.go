package tax

import (
	"math"

	"github.com/shopspring/decimal"

	"tax-credit-engine/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Calculate computes the tax owed under regime on grossIncome, after
// subtracting deductionTotal. The deduction is ignored under the new regime.
//
// Base tax, surcharge and cess are each rounded once, half-up, to two decimals;
// cess is levied on the rounded base tax plus surcharge, and the total is the
// sum of the three rounded components.
func Calculate(grossIncome float64, regime models.Regime, deductionTotal float64) (models.TaxResult, error) {
	if err := validateAmount("gross_income", grossIncome); err != nil {
		return models.TaxResult{}, err
	}
	if !regime.IsValid() {
		return models.TaxResult{}, models.NewValidationError("regime", "unknown regime %q", regime)
	}
	if err := validateAmount("deduction_total", deductionTotal); err != nil {
		return models.TaxResult{}, err
	}

	gross := decimal.NewFromFloat(grossIncome)

	deductions := decimal.Zero
	if regime == models.RegimeOld {
		deductions = decimal.NewFromFloat(deductionTotal)
	}

	taxable := gross.Sub(deductions)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}

	baseTax := slabTax(taxable, SlabsFor(regime)).Round(2)
	surcharge := percentOf(baseTax, surchargeRate(taxable)).Round(2)
	cess := percentOf(baseTax.Add(surcharge), CessRate).Round(2)
	total := baseTax.Add(surcharge).Add(cess)

	effectiveRate := decimal.Zero
	if gross.IsPositive() {
		effectiveRate = total.Div(gross)
	}

	return models.TaxResult{
		Regime:         regime,
		GrossIncome:    gross.InexactFloat64(),
		DeductionTotal: deductions.Round(2).InexactFloat64(),
		TaxableIncome:  taxable.Round(2).InexactFloat64(),
		BaseTax:        baseTax.InexactFloat64(),
		Surcharge:      surcharge.InexactFloat64(),
		Cess:           cess.InexactFloat64(),
		Total:          total.InexactFloat64(),
		EffectiveRate:  effectiveRate.InexactFloat64(),
	}, nil
}

// slabTax sums rate × overlap of [0, taxable] with each slab.
func slabTax(taxable decimal.Decimal, slabs []models.TaxSlab) decimal.Decimal {
	tax := decimal.Zero
	for _, s := range slabs {
		lower := decimal.NewFromFloat(s.LowerBound)
		if taxable.LessThanOrEqual(lower) {
			break
		}

		upper := taxable
		if !s.Unbounded() {
			upper = decimal.Min(taxable, decimal.NewFromFloat(s.UpperBound))
		}

		tax = tax.Add(percentOf(upper.Sub(lower), s.Rate))
	}
	return tax
}

// surchargeRate returns the rate of the highest band whose threshold taxable exceeds.
func surchargeRate(taxable decimal.Decimal) float64 {
	rate := 0.0
	for _, band := range surchargeLadder {
		if taxable.GreaterThan(decimal.NewFromFloat(band.Threshold)) {
			rate = band.Rate
		}
	}
	return rate
}

func percentOf(amount decimal.Decimal, rate float64) decimal.Decimal {
	return amount.Mul(decimal.NewFromFloat(rate)).Div(hundred)
}

// validateAmount rejects negative, NaN and infinite monetary inputs.
func validateAmount(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return models.NewValidationError(field, "must be a finite number")
	}
	if v < 0 {
		return models.NewValidationError(field, "cannot be negative (got %.2f)", v)
	}
	return nil
}
