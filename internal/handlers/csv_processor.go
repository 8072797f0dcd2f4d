package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"tax-credit-engine/internal/models"
	"tax-credit-engine/internal/services/assessor"
	s3service "tax-credit-engine/internal/services/s3"
	"tax-credit-engine/internal/utils"
)

// maxReportedErrors caps the error list returned to the caller.
const maxReportedErrors = 10

// ObjectStore downloads and archives uploaded files. s3service.Service satisfies it.
type ObjectStore interface {
	DownloadFile(ctx context.Context, key string) ([]byte, error)
	ArchiveFile(ctx context.Context, key string) (string, error)
}

// BatchAssessor assesses parsed profiles. assessor.Service satisfies it.
type BatchAssessor interface {
	AssessBatch(ctx context.Context, batchID string, profiles []*models.TaxProfile) (*assessor.BatchResult, error)
}

// CSVProcessorHandler handles S3 events for uploaded taxpayer CSVs.
type CSVProcessorHandler struct {
	store    ObjectStore
	assessor BatchAssessor
}

// NewCSVProcessorHandler creates a new CSV processor handler.
func NewCSVProcessorHandler(store ObjectStore, batchAssessor BatchAssessor) *CSVProcessorHandler {
	return &CSVProcessorHandler{store: store, assessor: batchAssessor}
}

// CSVProcessResult is the result of processing a CSV file.
type CSVProcessResult struct {
	Message    string                         `json:"message"`
	BatchID    string                         `json:"batch_id"`
	Assessed   int                            `json:"assessed"`
	Failed     int                            `json:"failed"`
	EmailsSent int                            `json:"emails_sent"`
	Summary    *models.BatchAssessmentSummary `json:"summary,omitempty"`
	Errors     []string                       `json:"errors,omitempty"`
}

// Handle processes S3 events for uploaded CSV files: download, parse, assess,
// then archive the source object.
func (h *CSVProcessorHandler) Handle(ctx context.Context, s3Event events.S3Event) (CSVProcessResult, error) {
	logger := utils.GetLogger()

	if len(s3Event.Records) == 0 {
		return CSVProcessResult{Message: "No records to process"}, nil
	}

	record := s3Event.Records[0]
	key, err := url.QueryUnescape(record.S3.Object.Key)
	if err != nil {
		return CSVProcessResult{}, fmt.Errorf("failed to decode S3 key: %w", err)
	}

	logger.Info("Processing CSV file",
		utils.String("bucket", record.S3.Bucket.Name),
		utils.String("key", key))

	data, err := h.store.DownloadFile(ctx, key)
	if err != nil {
		return CSVProcessResult{}, fmt.Errorf("failed to download CSV: %w", err)
	}

	batchID := s3service.BatchIDFromKey(key)
	if batchID == "" {
		batchID = generateBatchID(key)
	}

	profiles, parseErrors := utils.NewCSVParser().ParseProfiles(string(data), batchID)
	errs := errorStrings(parseErrors)

	if len(profiles) == 0 {
		return CSVProcessResult{
			Message: "No valid taxpayer profiles found in CSV",
			BatchID: batchID,
			Failed:  len(parseErrors),
			Errors:  limitErrors(errs),
		}, nil
	}

	logger.Info("Parsed CSV",
		utils.String("batchID", batchID),
		utils.Int("validProfiles", len(profiles)),
		utils.Int("parseErrors", len(parseErrors)))

	result, err := h.assessor.AssessBatch(ctx, batchID, profiles)
	if err != nil {
		logger.Error("Failed to assess batch", utils.Error(err))
		return CSVProcessResult{}, fmt.Errorf("failed to assess batch: %w", err)
	}

	if _, err := h.store.ArchiveFile(ctx, key); err != nil {
		logger.Warn("Failed to archive file", utils.Error(err))
	}

	summary := result.Summary
	return CSVProcessResult{
		Message:    "CSV processed successfully",
		BatchID:    batchID,
		Assessed:   summary.Assessed,
		Failed:     summary.Failed + len(parseErrors),
		EmailsSent: result.EmailsSent,
		Summary:    &summary,
		Errors:     limitErrors(append(errs, result.Errors...)),
	}, nil
}

func errorStrings(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}

func limitErrors(errs []string) []string {
	if len(errs) > maxReportedErrors {
		return errs[:maxReportedErrors]
	}
	return errs
}

// generateBatchID derives a batch ID for uploads outside the uploads/<batch>/ layout.
func generateBatchID(key string) string {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	hash := sha256.Sum256([]byte(key + timestamp))
	return hex.EncodeToString(hash[:])[:16]
}
