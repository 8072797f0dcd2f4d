package tax

import (
	"math"

	"github.com/shopspring/decimal"

	"tax-credit-engine/internal/models"
)

// PlanDeductions reports, for the old regime, how much more can be claimed in
// each capped section, what claiming all of it would save, and the deduction
// total at which the old regime stops being costlier than the new one.
func (e *Engine) PlanDeductions(grossIncome float64, deductions models.DeductionBreakdown) (models.DeductionPlan, error) {
	cmp, err := e.CompareRegimes(grossIncome, deductions)
	if err != nil {
		return models.DeductionPlan{}, err
	}

	current, err := e.aggregator.Aggregate(models.RegimeOld, deductions)
	if err != nil {
		return models.DeductionPlan{}, err
	}

	rules := e.aggregator.Rules()
	headroom := e.headroom(current)

	maxed := make(models.DeductionBreakdown, len(deductions))
	for section, amount := range deductions {
		maxed[section] = amount
	}
	for _, section := range models.DeductionSections() {
		if limit := rules.SectionCap(section); !math.IsInf(limit, 1) {
			maxed[section] = limit
		}
	}
	maxedSummary, err := e.aggregator.Aggregate(models.RegimeOld, maxed)
	if err != nil {
		return models.DeductionPlan{}, err
	}

	best, err := Calculate(grossIncome, models.RegimeOld, maxedSummary.Total)
	if err != nil {
		return models.DeductionPlan{}, err
	}

	breakEven, err := breakEvenDeduction(grossIncome, cmp.New.Total)
	if err != nil {
		return models.DeductionPlan{}, err
	}

	saving := decimal.NewFromFloat(cmp.Old.Total).Sub(decimal.NewFromFloat(best.Total))
	if saving.IsNegative() {
		saving = decimal.Zero
	}

	return models.DeductionPlan{
		Current:            current,
		Headroom:           headroom,
		PotentialSaving:    saving.InexactFloat64(),
		BreakEvenDeduction: breakEven,
		Comparison:         cmp,
	}, nil
}

// headroom returns the unused cap of every finitely capped section, limited
// by what is left in its combined group.
func (e *Engine) headroom(current models.DeductionSummary) map[models.DeductionSection]float64 {
	rules := e.aggregator.Rules()

	groupLeft := make([]decimal.Decimal, len(rules.Groups))
	for i, g := range rules.Groups {
		if math.IsInf(g.Cap, 1) {
			continue
		}
		used := decimal.Zero
		for _, s := range g.Sections {
			used = used.Add(decimal.NewFromFloat(current.Claimed[s]))
		}
		groupLeft[i] = decimal.Max(decimal.NewFromFloat(g.Cap).Sub(used), decimal.Zero)
	}

	headroom := make(map[models.DeductionSection]float64)
	for _, section := range models.DeductionSections() {
		limit := rules.SectionCap(section)
		if math.IsInf(limit, 1) {
			continue
		}

		room := decimal.Max(decimal.NewFromFloat(limit).Sub(decimal.NewFromFloat(current.Claimed[section])), decimal.Zero)
		if g := rules.GroupOf(section); g >= 0 && !math.IsInf(rules.Groups[g].Cap, 1) {
			room = decimal.Min(room, groupLeft[g])
		}
		headroom[section] = room.Round(2).InexactFloat64()
	}
	return headroom
}

// breakEvenDeduction binary-searches the smallest whole-rupee deduction d with
// oldTax(d) <= target. Old-regime tax is non-increasing in d and reaches 0 at
// d = grossIncome, so a solution always exists.
func breakEvenDeduction(grossIncome, target float64) (float64, error) {
	lo, hi := 0.0, math.Ceil(grossIncome)
	for lo < hi {
		mid := math.Floor((lo + hi) / 2)
		res, err := Calculate(grossIncome, models.RegimeOld, mid)
		if err != nil {
			return 0, err
		}
		if res.Total <= target {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo, nil
}
