package tax

import (
	"github.com/shopspring/decimal"

	"tax-credit-engine/internal/models"
)

// Engine wires the deduction aggregator to the calculator and comparator.
type Engine struct {
	aggregator *Aggregator
}

// NewEngine creates an engine enforcing the given deduction rules.
func NewEngine(rules models.DeductionRules) *Engine {
	return &Engine{aggregator: NewAggregator(rules)}
}

var defaultEngine = NewEngine(models.DefaultDeductionRules())

// Default returns an engine using models.DefaultDeductionRules.
func Default() *Engine {
	return defaultEngine
}

// Aggregator returns the engine's deduction aggregator.
func (e *Engine) Aggregator() *Aggregator {
	return e.aggregator
}

// CalculateTax aggregates deductions and computes the tax for one regime.
func (e *Engine) CalculateTax(grossIncome float64, regime models.Regime, deductions models.DeductionBreakdown) (models.TaxResult, error) {
	summary, err := e.aggregator.Aggregate(regime, deductions)
	if err != nil {
		return models.TaxResult{}, err
	}
	return Calculate(grossIncome, regime, summary.Total)
}

// CompareRegimes computes both regimes on identical input and recommends the
// cheaper one. An exact tie recommends the new regime.
func (e *Engine) CompareRegimes(grossIncome float64, deductions models.DeductionBreakdown) (models.RegimeComparison, error) {
	oldResult, err := e.CalculateTax(grossIncome, models.RegimeOld, deductions)
	if err != nil {
		return models.RegimeComparison{}, err
	}

	newResult, err := e.CalculateTax(grossIncome, models.RegimeNew, deductions)
	if err != nil {
		return models.RegimeComparison{}, err
	}

	return Recommend(oldResult, newResult), nil
}

// Recommend compares two already-computed results.
func Recommend(oldResult, newResult models.TaxResult) models.RegimeComparison {
	oldTotal := decimal.NewFromFloat(oldResult.Total)
	newTotal := decimal.NewFromFloat(newResult.Total)

	recommended := models.RegimeNew
	if oldTotal.LessThan(newTotal) {
		recommended = models.RegimeOld
	}

	return models.RegimeComparison{
		Old:         oldResult,
		New:         newResult,
		Recommended: recommended,
		Savings:     oldTotal.Sub(newTotal).Abs().InexactFloat64(),
	}
}

// CalculateTax runs Default().CalculateTax.
func CalculateTax(grossIncome float64, regime models.Regime, deductions models.DeductionBreakdown) (models.TaxResult, error) {
	return defaultEngine.CalculateTax(grossIncome, regime, deductions)
}

// CompareRegimes runs Default().CompareRegimes.
func CompareRegimes(grossIncome float64, deductions models.DeductionBreakdown) (models.RegimeComparison, error) {
	return defaultEngine.CompareRegimes(grossIncome, deductions)
}
