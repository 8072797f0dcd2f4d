package api

import (
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tax-credit-engine/internal/models"
	"tax-credit-engine/internal/services/tax"
)

type taxRequest struct {
	GrossIncome float64            `json:"gross_income"`
	Regime      string             `json:"regime,omitempty"`
	Deductions  map[string]float64 `json:"deductions,omitempty"`
}

// breakdown maps free-form section names onto canonical sections. Each raw
// amount is checked before aliases of the same section are summed; unknown
// names pass through and fail validation in the engine.
func (req taxRequest) breakdown() (models.DeductionBreakdown, error) {
	out := make(models.DeductionBreakdown, len(req.Deductions))
	for raw, amount := range req.Deductions {
		if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
			return nil, models.NewValidationError("deductions."+raw, "must be a non-negative amount, got %v", amount)
		}
		out[models.NormalizeDeductionSection(raw)] += amount
	}
	return out, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report, status := s.health.Check(r.Context())
	writeJSON(w, status, Response{
		Success: status == http.StatusOK,
		Message: "Tax & Credit Engine API is running",
		Data:    report,
	})
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req taxRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	regime, err := models.ParseRegime(req.Regime)
	if err != nil {
		writeFailure(w, err)
		return
	}

	deductions, err := req.breakdown()
	if err != nil {
		writeFailure(w, err)
		return
	}

	result, err := s.deps.Engine.CalculateTax(req.GrossIncome, regime, deductions)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeData(w, result)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req taxRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	deductions, err := req.breakdown()
	if err != nil {
		writeFailure(w, err)
		return
	}

	var cmp models.RegimeComparison
	if s.deps.Comparer != nil {
		cmp, err = s.deps.Comparer.Compare(r.Context(), req.GrossIncome, deductions)
	} else {
		cmp, err = s.deps.Engine.CompareRegimes(req.GrossIncome, deductions)
	}
	if err != nil {
		writeFailure(w, err)
		return
	}
	s.metrics.observeRecommendation(cmp.Recommended)
	writeData(w, cmp)
}

func (s *Server) handleDeductions(w http.ResponseWriter, r *http.Request) {
	var req taxRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	deductions, err := req.breakdown()
	if err != nil {
		writeFailure(w, err)
		return
	}

	regime := models.RegimeOld
	if req.Regime != "" {
		parsed, err := models.ParseRegime(req.Regime)
		if err != nil {
			writeFailure(w, err)
			return
		}
		regime = parsed
	}

	summary, err := s.deps.Engine.Aggregator().Aggregate(regime, deductions)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeData(w, summary)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req taxRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	deductions, err := req.breakdown()
	if err != nil {
		writeFailure(w, err)
		return
	}

	plan, err := s.deps.Engine.PlanDeductions(req.GrossIncome, deductions)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeData(w, plan)
}

type slabsResponse struct {
	Regime    models.Regime          `json:"regime"`
	Slabs     []models.TaxSlab       `json:"slabs"`
	Surcharge []models.SurchargeBand `json:"surcharge"`
	CessRate  float64                `json:"cess_rate"`
}

func (s *Server) handleSlabs(w http.ResponseWriter, r *http.Request) {
	regime, err := models.ParseRegime(chi.URLParam(r, "regime"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeData(w, slabsResponse{
		Regime:    regime,
		Slabs:     tax.SlabsFor(regime),
		Surcharge: tax.SurchargeLadder(),
		CessRate:  tax.CessRate,
	})
}
