package tax

import (
	"math"

	"github.com/shopspring/decimal"

	"tax-credit-engine/internal/models"
)

// Aggregator turns a DeductionBreakdown into the deduction total consumed by
// Calculate, enforcing per-section and combined-group caps.
type Aggregator struct {
	rules models.DeductionRules
}

// NewAggregator creates an aggregator for the given rules.
func NewAggregator(rules models.DeductionRules) *Aggregator {
	return &Aggregator{rules: rules}
}

// Rules returns the rules the aggregator enforces.
func (a *Aggregator) Rules() models.DeductionRules {
	return a.rules
}

// Aggregate caps every section, then caps each combined group. Excess over a
// group cap is dropped, never redistributed; sections are filled in the fixed
// order of models.DeductionSections. Under the new regime the total is always 0.
func (a *Aggregator) Aggregate(regime models.Regime, breakdown models.DeductionBreakdown) (models.DeductionSummary, error) {
	if !regime.IsValid() {
		return models.DeductionSummary{}, models.NewValidationError("regime", "unknown regime %q", regime)
	}
	if err := validateBreakdown(breakdown); err != nil {
		return models.DeductionSummary{}, err
	}

	summary := models.DeductionSummary{
		Regime:  regime,
		Claimed: make(map[models.DeductionSection]float64),
	}
	if regime == models.RegimeNew {
		return summary, nil
	}

	remaining := make([]decimal.Decimal, len(a.rules.Groups))
	excess := make([]decimal.Decimal, len(a.rules.Groups))
	for i, g := range a.rules.Groups {
		if !math.IsInf(g.Cap, 1) {
			remaining[i] = decimal.NewFromFloat(g.Cap)
		}
	}

	total := decimal.Zero
	for _, section := range models.DeductionSections() {
		amount, ok := breakdown[section]
		if !ok {
			continue
		}

		claimed := capAt(decimal.NewFromFloat(amount), a.rules.SectionCap(section))

		if g := a.rules.GroupOf(section); g >= 0 && !math.IsInf(a.rules.Groups[g].Cap, 1) {
			allowed := decimal.Min(claimed, remaining[g])
			excess[g] = excess[g].Add(claimed.Sub(allowed))
			remaining[g] = remaining[g].Sub(allowed)
			claimed = allowed
		}

		summary.Claimed[section] = claimed.Round(2).InexactFloat64()
		total = total.Add(claimed)
	}

	for i, g := range a.rules.Groups {
		if excess[i].IsPositive() {
			if summary.GroupExcess == nil {
				summary.GroupExcess = make(map[string]float64)
			}
			summary.GroupExcess[g.Name] = excess[i].Round(2).InexactFloat64()
		}
	}

	summary.Total = total.Round(2).InexactFloat64()
	return summary, nil
}

func capAt(amount decimal.Decimal, limit float64) decimal.Decimal {
	if math.IsInf(limit, 1) {
		return amount
	}
	return decimal.Min(amount, decimal.NewFromFloat(limit))
}

func validateBreakdown(breakdown models.DeductionBreakdown) error {
	for section, amount := range breakdown {
		if !section.IsValid() {
			return models.NewValidationError("deductions", "unknown section %q", section)
		}
		if err := validateAmount("deductions."+string(section), amount); err != nil {
			return err
		}
	}
	return nil
}
