package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tax-credit-engine/internal/models"
)

// ScoreRepository handles credit score snapshot operations.
type ScoreRepository struct {
	db *DB
}

// NewScoreRepository creates a new score repository.
func NewScoreRepository(db *DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Insert stores a snapshot, assigning its ID and timestamp.
func (r *ScoreRepository) Insert(ctx context.Context, s *models.ScoreSnapshot) error {
	if s.Score < models.MinCreditScore || s.Score > models.MaxCreditScore {
		return models.ErrInvalidCreditScore
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO score_snapshots (id, user_ref, score, grade, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.UserRef, s.Score, string(s.Grade), s.Source, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert score snapshot: %w", err)
	}
	return nil
}

// ListByUser returns the most recent snapshots of a user, newest first.
func (r *ScoreRepository) ListByUser(ctx context.Context, userRef string, limit int) ([]*models.ScoreSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_ref, score, grade, source, created_at
		FROM score_snapshots
		WHERE user_ref = $1
		ORDER BY created_at DESC
		LIMIT $2`, userRef, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query score snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.ScoreSnapshot
	for rows.Next() {
		var s models.ScoreSnapshot
		var grade string
		if err := rows.Scan(&s.ID, &s.UserRef, &s.Score, &grade, &s.Source, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan score snapshot: %w", err)
		}
		s.Grade = models.CreditGrade(grade)
		snapshots = append(snapshots, &s)
	}

	return snapshots, rows.Err()
}
