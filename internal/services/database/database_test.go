package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tax-credit-engine/internal/models"
)

// testDB connects to DATABASE_URL, skipping the test when it is unset.
func testDB(t *testing.T) *DB {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := NewFromURL(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestPrepareAssessment(t *testing.T) {
	now := time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC)

	a := &models.Assessment{TaxpayerID: "TP001"}
	prepareAssessment(a, now)
	_, err := uuid.Parse(a.ID)
	assert.NoError(t, err)
	assert.Equal(t, now, a.CreatedAt)

	kept := &models.Assessment{ID: "fixed", CreatedAt: now.Add(-time.Hour)}
	prepareAssessment(kept, now)
	assert.Equal(t, "fixed", kept.ID)
	assert.Equal(t, now.Add(-time.Hour), kept.CreatedAt)
}

func TestScoreRepository_RejectsOutOfRangeScore(t *testing.T) {
	repo := NewScoreRepository(&DB{})

	err := repo.Insert(context.Background(), &models.ScoreSnapshot{UserRef: "u1", Score: 950})
	assert.ErrorIs(t, err, models.ErrInvalidCreditScore)
}

func TestAssessmentRepository_BulkInsertAndGetByBatch(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	batchID := "test-" + uuid.NewString()
	t.Cleanup(func() { _, _ = db.Assessments().DeleteBatch(ctx, batchID) })

	assessments := []*models.Assessment{
		{BatchID: batchID, TaxpayerID: "TP001", GrossIncome: 1200000, OldTotal: 145860, NewTotal: 102960, Recommended: models.RegimeNew, Savings: 42900},
		{BatchID: batchID, TaxpayerID: "TP002", GrossIncome: 1000000, OldTotal: 10400, NewTotal: 62400, Recommended: models.RegimeOld, Savings: 52000},
	}

	result, err := db.Assessments().BulkInsert(ctx, assessments)
	require.NoError(t, err)
	assert.Equal(t, 2, result.InsertedCount)
	assert.Equal(t, 0, result.FailedCount)

	stored, err := db.Assessments().GetByBatch(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "TP002", stored[0].TaxpayerID, "ordered by savings")
	assert.Equal(t, models.RegimeOld, stored[0].Recommended)
	assert.Equal(t, 42900.0, stored[1].Savings)
}

func TestScoreRepository_InsertAndList(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	userRef := "user-" + uuid.NewString()

	for _, score := range []int{700, 745} {
		snap := &models.ScoreSnapshot{UserRef: userRef, Score: score, Grade: models.GradeFor(score), Source: "test"}
		require.NoError(t, db.Scores().Insert(ctx, snap))
		time.Sleep(10 * time.Millisecond)
	}

	snapshots, err := db.Scores().ListByUser(ctx, userRef, 10)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, 745, snapshots[0].Score)
	assert.Equal(t, models.GradeGood, snapshots[0].Grade)
}
