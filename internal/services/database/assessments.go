package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"tax-credit-engine/internal/models"
)

// AssessmentRepository handles assessment database operations.
type AssessmentRepository struct {
	db *DB
}

// NewAssessmentRepository creates a new assessment repository.
func NewAssessmentRepository(db *DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

const upsertAssessment = `
	INSERT INTO assessments (id, batch_id, taxpayer_id, email, gross_income, deduction_total,
		old_total, new_total, recommended, savings, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (batch_id, taxpayer_id) DO UPDATE SET
		email = EXCLUDED.email,
		gross_income = EXCLUDED.gross_income,
		deduction_total = EXCLUDED.deduction_total,
		old_total = EXCLUDED.old_total,
		new_total = EXCLUDED.new_total,
		recommended = EXCLUDED.recommended,
		savings = EXCLUDED.savings`

// prepareAssessment assigns an ID and timestamp if missing.
func prepareAssessment(a *models.Assessment, now time.Time) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
}

func assessmentArgs(a *models.Assessment) []interface{} {
	return []interface{}{
		a.ID, a.BatchID, a.TaxpayerID, a.Email, a.GrossIncome, a.DeductionTotal,
		a.OldTotal, a.NewTotal, string(a.Recommended), a.Savings, a.CreatedAt,
	}
}

// Create inserts or replaces one assessment.
func (r *AssessmentRepository) Create(ctx context.Context, a *models.Assessment) error {
	prepareAssessment(a, time.Now().UTC())
	if _, err := r.db.ExecContext(ctx, upsertAssessment, assessmentArgs(a)...); err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	return nil
}

// BulkInsert stores a batch of assessments in one transaction. Each row runs
// under its own savepoint so a bad row does not abort the rest.
func (r *AssessmentRepository) BulkInsert(ctx context.Context, assessments []*models.Assessment) (*models.BulkInsertResult, error) {
	result := &models.BulkInsertResult{Errors: []string{}}
	now := time.Now().UTC()

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, a := range assessments {
			prepareAssessment(a, now)

			sp, err := tx.Begin(ctx)
			if err != nil {
				return err
			}
			if _, err := sp.Exec(ctx, upsertAssessment, assessmentArgs(a)...); err != nil {
				_ = sp.Rollback(ctx)
				result.FailedCount++
				result.Errors = append(result.Errors, fmt.Sprintf("taxpayer %s: %v", a.TaxpayerID, err))
				continue
			}
			if err := sp.Commit(ctx); err != nil {
				return err
			}
			result.InsertedCount++
		}
		return nil
	})

	if err != nil {
		return result, fmt.Errorf("bulk insert failed: %w", err)
	}

	return result, nil
}

// GetByBatch lists every assessment of a batch, largest savings first.
func (r *AssessmentRepository) GetByBatch(ctx context.Context, batchID string) ([]*models.Assessment, error) {
	query := `
		SELECT id, batch_id, taxpayer_id, email, gross_income, deduction_total,
			old_total, new_total, recommended, savings, created_at
		FROM assessments
		WHERE batch_id = $1
		ORDER BY savings DESC, taxpayer_id`

	rows, err := r.db.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer rows.Close()

	var results []*models.Assessment
	for rows.Next() {
		var a models.Assessment
		var recommended string

		err := rows.Scan(
			&a.ID, &a.BatchID, &a.TaxpayerID, &a.Email, &a.GrossIncome, &a.DeductionTotal,
			&a.OldTotal, &a.NewTotal, &recommended, &a.Savings, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}

		a.Recommended = models.Regime(recommended)
		results = append(results, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read assessments: %w", err)
	}

	return results, nil
}

// DeleteBatch removes every assessment of a batch and returns how many were removed.
func (r *AssessmentRepository) DeleteBatch(ctx context.Context, batchID string) (int64, error) {
	n, err := r.db.ExecContext(ctx, "DELETE FROM assessments WHERE batch_id = $1", batchID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete batch: %w", err)
	}
	return n, nil
}
