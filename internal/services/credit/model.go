// Package credit implements the weighted CIBIL-style score model and the
// what-if scenario simulator. Both are pure functions of their inputs.
package credit

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"tax-credit-engine/internal/models"
)

// FactorCount is the number of weighted factors the model expects.
const FactorCount = 5

// weightTolerance bounds how far the weights may drift from summing to 1.
const weightTolerance = 1e-6

var (
	scoreSpan  = decimal.NewFromInt(models.MaxCreditScore - models.MinCreditScore)
	scoreFloor = decimal.NewFromInt(models.MinCreditScore)
)

// EstimateScore combines five pre-normalized, weighted factors into a score:
// round(Σ weight·value × 600 + 300), clamped to [300, 900].
func EstimateScore(factors []models.CreditFactor) (models.CreditScoreResult, error) {
	if err := validateFactors(factors); err != nil {
		return models.CreditScoreResult{}, err
	}

	weighted := decimal.Zero
	contributions := make([]models.FactorContribution, 0, len(factors))
	for _, f := range factors {
		part := decimal.NewFromFloat(f.Weight).Mul(decimal.NewFromFloat(f.NormalizedValue))
		weighted = weighted.Add(part)
		contributions = append(contributions, models.FactorContribution{
			Name:   f.Name,
			Weight: f.Weight,
			Points: part.Mul(scoreSpan).Round(2).InexactFloat64(),
		})
	}

	score := clampScore(int(weighted.Mul(scoreSpan).Add(scoreFloor).Round(0).IntPart()))

	return models.CreditScoreResult{
		Score:         score,
		Grade:         models.GradeFor(score),
		Contributions: contributions,
	}, nil
}

func validateFactors(factors []models.CreditFactor) error {
	if len(factors) != FactorCount {
		return models.NewValidationError("factors", "expected %d factors, got %d", FactorCount, len(factors))
	}

	sum := 0.0
	for i, f := range factors {
		if math.IsNaN(f.Weight) || f.Weight < 0 {
			return models.NewValidationError(factorField(i, f), "weight must be a non-negative number")
		}
		if math.IsNaN(f.NormalizedValue) || f.NormalizedValue < 0 || f.NormalizedValue > 1 {
			return models.NewValidationError(factorField(i, f), "normalized value %v outside [0,1]", f.NormalizedValue)
		}
		sum += f.Weight
	}

	if math.Abs(sum-1) > weightTolerance {
		return models.NewValidationError("factors", "weights sum to %v, want 1", sum)
	}
	return nil
}

func factorField(i int, f models.CreditFactor) string {
	if f.Name != "" {
		return "factors." + f.Name
	}
	return "factors[" + strconv.Itoa(i) + "]"
}

func clampScore(score int) int {
	if score < models.MinCreditScore {
		return models.MinCreditScore
	}
	if score > models.MaxCreditScore {
		return models.MaxCreditScore
	}
	return score
}
