package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tax-credit-engine/internal/models"
	"tax-credit-engine/internal/services/credit"
	"tax-credit-engine/internal/utils"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type scoreRequest struct {
	Factors []models.CreditFactor `json:"factors"`
	UserRef string                `json:"user_ref,omitempty"`
}

type profileScoreRequest struct {
	models.CreditProfile
	UserRef string `json:"user_ref,omitempty"`
}

type simulateRequest struct {
	BaselineScore int `json:"baseline_score"`
	models.ScenarioInputs
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := credit.EstimateScore(req.Factors)
	if err != nil {
		writeFailure(w, err)
		return
	}
	s.recordScore(r, req.UserRef, "factors", result)
	writeData(w, result)
}

func (s *Server) handleScoreProfile(w http.ResponseWriter, r *http.Request) {
	var req profileScoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := credit.EstimateFromProfile(req.CreditProfile)
	if err != nil {
		writeFailure(w, err)
		return
	}
	s.recordScore(r, req.UserRef, "profile", result)
	writeData(w, result)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := credit.Simulate(req.BaselineScore, req.ScenarioInputs)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeData(w, result)
}

func (s *Server) handleScoreHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scores == nil {
		writeError(w, http.StatusServiceUnavailable, "score history requires a database")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > maxHistoryLimit {
			n = maxHistoryLimit
		}
		limit = n
	}

	snapshots, err := s.deps.Scores.ListByUser(r.Context(), chi.URLParam(r, "userRef"), limit)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if snapshots == nil {
		snapshots = []*models.ScoreSnapshot{}
	}
	writeData(w, snapshots)
}

// recordScore counts the grade and stores a snapshot when the caller names a
// user. A storage failure is logged and does not fail the request.
func (s *Server) recordScore(r *http.Request, userRef, source string, result models.CreditScoreResult) {
	s.metrics.observeGrade(result.Grade)

	userRef = strings.TrimSpace(userRef)
	if userRef == "" || s.deps.Scores == nil {
		return
	}

	snapshot := &models.ScoreSnapshot{
		UserRef: userRef,
		Score:   result.Score,
		Grade:   result.Grade,
		Source:  source,
	}
	if err := s.deps.Scores.Insert(r.Context(), snapshot); err != nil {
		utils.GetLogger().Warn("Failed to record score snapshot",
			zap.String("user_ref", userRef),
			zap.Error(err),
		)
	}
}
