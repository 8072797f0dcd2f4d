// Package assessor runs regime comparisons over a batch of uploaded taxpayer
// profiles, stores the outcomes and emails each taxpayer their recommendation.
package assessor

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tax-credit-engine/internal/models"
	"tax-credit-engine/internal/services/ses"
	"tax-credit-engine/internal/utils"
)

// DefaultConcurrency bounds how many profiles are compared at once.
const DefaultConcurrency = 8

// Comparer computes a regime comparison. cache.Comparisons satisfies it.
type Comparer interface {
	Compare(ctx context.Context, grossIncome float64, deductions models.DeductionBreakdown) (models.RegimeComparison, error)
}

// Store persists assessments. database.AssessmentRepository satisfies it.
type Store interface {
	BulkInsert(ctx context.Context, assessments []*models.Assessment) (*models.BulkInsertResult, error)
}

// Notifier emails recommendations. ses.Service satisfies it.
type Notifier interface {
	SendBatchRecommendations(ctx context.Context, notifications []ses.RecommendationParams) ([]ses.SendEmailResult, []error)
}

// Service assesses batches of taxpayer profiles.
type Service struct {
	comparer     Comparer
	store        Store
	notifier     Notifier
	dashboardURL string
	concurrency  int
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier enables recommendation emails.
func WithNotifier(n Notifier, dashboardURL string) Option {
	return func(s *Service) {
		s.notifier = n
		s.dashboardURL = dashboardURL
	}
}

// WithConcurrency overrides DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService creates an assessor. store may be nil to skip persistence.
func NewService(comparer Comparer, store Store, opts ...Option) *Service {
	s := &Service{
		comparer:    comparer,
		store:       store,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BatchResult is the outcome of AssessBatch.
type BatchResult struct {
	Summary     models.BatchAssessmentSummary `json:"summary"`
	Assessments []*models.Assessment          `json:"assessments"`
	Errors      []string                      `json:"errors,omitempty"`
	EmailsSent  int                           `json:"emails_sent"`
}

// AssessBatch compares both regimes for every profile. A profile that fails
// validation is counted as failed and does not stop the batch; a context
// cancellation or storage failure does.
func (s *Service) AssessBatch(ctx context.Context, batchID string, profiles []*models.TaxProfile) (*BatchResult, error) {
	logger := utils.GetLogger()
	start := time.Now()

	logger.Info("Starting batch assessment",
		zap.String("batch_id", batchID),
		zap.Int("profiles", len(profiles)),
	)

	assessments := make([]*models.Assessment, len(profiles))
	profileErrs := make([]error, len(profiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, p := range profiles {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cmp, err := s.comparer.Compare(gctx, p.GrossIncome, p.Deductions)
			if err != nil {
				if models.IsValidationError(err) {
					profileErrs[i] = fmt.Errorf("taxpayer %s: %w", p.TaxpayerID, err)
					return nil
				}
				return fmt.Errorf("taxpayer %s: %w", p.TaxpayerID, err)
			}
			a := models.NewAssessment(p, cmp)
			a.BatchID = batchID
			assessments[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch %s aborted: %w", batchID, err)
	}

	result := &BatchResult{Assessments: make([]*models.Assessment, 0, len(profiles))}
	names := make(map[string]string, len(profiles))
	for i, a := range assessments {
		if a == nil {
			result.Errors = append(result.Errors, profileErrs[i].Error())
			continue
		}
		names[a.TaxpayerID] = profiles[i].Name
		result.Assessments = append(result.Assessments, a)
	}

	result.Summary = Summarize(batchID, len(profiles), result.Assessments)

	if s.store != nil && len(result.Assessments) > 0 {
		inserted, err := s.store.BulkInsert(ctx, result.Assessments)
		if err != nil {
			return nil, fmt.Errorf("failed to store assessments: %w", err)
		}
		result.Errors = append(result.Errors, inserted.Errors...)
	}

	if s.notifier != nil {
		result.EmailsSent = s.notify(ctx, result.Assessments, names)
	}

	result.Summary.ProcessingTimeSeconds = time.Since(start).Seconds()

	logger.Info("Batch assessment complete",
		zap.String("batch_id", batchID),
		zap.Int("assessed", result.Summary.Assessed),
		zap.Int("failed", result.Summary.Failed),
		zap.Float64("total_savings", result.Summary.TotalSavings),
		zap.Duration("processing_time", time.Since(start)),
	)

	return result, nil
}

func (s *Service) notify(ctx context.Context, assessments []*models.Assessment, names map[string]string) int {
	notifications := make([]ses.RecommendationParams, 0, len(assessments))
	for _, a := range assessments {
		if a.Email == "" {
			continue
		}
		notifications = append(notifications, ses.BuildRecommendationParams(a, names[a.TaxpayerID], s.dashboardURL))
	}
	if len(notifications) == 0 {
		return 0
	}

	sent, errs := s.notifier.SendBatchRecommendations(ctx, notifications)
	for _, err := range errs {
		utils.GetLogger().Warn("Recommendation email failed", zap.Error(err))
	}
	return len(sent)
}

// Summarize aggregates a batch's assessments.
func Summarize(batchID string, totalProfiles int, assessments []*models.Assessment) models.BatchAssessmentSummary {
	summary := models.BatchAssessmentSummary{
		BatchID:       batchID,
		TotalProfiles: totalProfiles,
		Assessed:      len(assessments),
		Failed:        totalProfiles - len(assessments),
	}

	total := decimal.Zero
	for _, a := range assessments {
		if a.Recommended == models.RegimeOld {
			summary.RecommendOld++
		} else {
			summary.RecommendNew++
		}
		total = total.Add(decimal.NewFromFloat(a.Savings))
	}

	summary.TotalSavings = total.Round(2).InexactFloat64()
	if len(assessments) > 0 {
		summary.AvgSavings = total.Div(decimal.NewFromInt(int64(len(assessments)))).Round(2).InexactFloat64()
	}
	return summary
}
