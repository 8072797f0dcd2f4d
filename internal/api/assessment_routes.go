package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tax-credit-engine/internal/models"
	"tax-credit-engine/internal/services/assessor"
	"tax-credit-engine/internal/utils"
)

const maxUploadBytes = 10 << 20

type uploadResponse struct {
	Summary    models.BatchAssessmentSummary `json:"summary"`
	Errors     []string                      `json:"errors,omitempty"`
	EmailsSent int                           `json:"emails_sent"`
}

// handleUpload assesses a CSV posted as the raw request body. It is the
// local counterpart of the S3-triggered lambda.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.deps.Assessor == nil {
		writeError(w, http.StatusServiceUnavailable, "batch assessment is not configured")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	batchID := strings.TrimSpace(r.URL.Query().Get("batch_id"))
	if batchID == "" {
		batchID = uuid.New().String()
	}

	profiles, parseErrs := utils.NewCSVParser().ParseProfiles(string(body), batchID)
	if len(profiles) == 0 {
		msg := "no valid profiles in upload"
		if len(parseErrs) > 0 {
			msg = parseErrs[0].Error()
		}
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	result, err := s.deps.Assessor.AssessBatch(r.Context(), batchID, profiles)
	if err != nil {
		writeFailure(w, err)
		return
	}

	errs := make([]string, 0, len(parseErrs)+len(result.Errors))
	for _, e := range parseErrs {
		errs = append(errs, e.Error())
	}
	errs = append(errs, result.Errors...)

	summary := result.Summary
	summary.TotalProfiles += len(parseErrs)
	summary.Failed += len(parseErrs)

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Batch assessed",
		Data: uploadResponse{
			Summary:    summary,
			Errors:     errs,
			EmailsSent: result.EmailsSent,
		},
	})
}

type batchResponse struct {
	Summary     models.BatchAssessmentSummary `json:"summary"`
	Assessments []*models.Assessment          `json:"assessments"`
}

func (s *Server) handleGetAssessments(w http.ResponseWriter, r *http.Request) {
	if s.deps.Assessments == nil {
		writeError(w, http.StatusServiceUnavailable, "assessment lookup requires a database")
		return
	}

	batchID := chi.URLParam(r, "batchID")
	assessments, err := s.deps.Assessments.GetByBatch(r.Context(), batchID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if len(assessments) == 0 {
		writeError(w, http.StatusNotFound, "no assessments for batch "+batchID)
		return
	}

	writeData(w, batchResponse{
		Summary:     assessor.Summarize(batchID, len(assessments), assessments),
		Assessments: assessments,
	})
}
