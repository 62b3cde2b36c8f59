package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/linguaflow/progress-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupReviewTestRepository creates a review repository with a mock database
func setupReviewTestRepository(t *testing.T) (*reviewRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewReviewRepository(db, zap.NewNop())

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func reviewTestColumns() []string {
	return []string{"id", "user_id", "word", "definition", "example_sentence", "language",
		"ease_factor", "repetitions", "interval_days", "due_at", "status",
		"last_quality", "created_at", "last_reviewed_at"}
}

func reviewTestRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(reviewTestColumns()).
		AddRow(7, 1, "merci", "thank you", "Merci beaucoup.", "french",
			2.5, 2, 6, now, "review", 5, now, now)
}

func TestReviewRepository_GetNextDue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedNil   bool
		expectedError bool
	}{
		{
			name: "returns most overdue record",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM vocabulary_reviews`).
					WithArgs(1, now, "bonjour", "bonjour").
					WillReturnRows(reviewTestRow(now))
			},
		},
		{
			name: "nothing due returns nil without error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM vocabulary_reviews`).
					WithArgs(1, now, "bonjour", "bonjour").
					WillReturnRows(sqlmock.NewRows(reviewTestColumns()))
			},
			expectedNil: true,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM vocabulary_reviews`).
					WithArgs(1, now, "bonjour", "bonjour").
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupReviewTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			rec, err := repo.GetNextDue(context.Background(), 1, now, "bonjour")

			if tt.expectedError {
				assert.Error(t, err)
			} else if tt.expectedNil {
				require.NoError(t, err)
				assert.Nil(t, rec)
			} else {
				require.NoError(t, err)
				require.NotNil(t, rec)
				assert.Equal(t, 7, rec.ID)
				assert.Equal(t, "merci", rec.Word)
				assert.Equal(t, 6, rec.IntervalDays)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReviewRepository_GetNextDue_ServesOverdueMastered(t *testing.T) {
	repo, mock, cleanup := setupReviewTestRepository(t)
	defer cleanup()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	overdue := now.AddDate(0, 0, -3)
	rows := sqlmock.NewRows(reviewTestColumns()).
		AddRow(9, 1, "bonjour", "hello", "Bonjour tout le monde.", "french",
			3.0, 6, 147, overdue, "mastered", 5, overdue, overdue)

	// The WHERE clause filters on due date only, never on status, so
	// mastered records whose interval elapsed come back into rotation.
	mock.ExpectQuery(`WHERE user_id = \? AND due_at <= \?\s+AND \(\? = ''`).
		WithArgs(1, now, "", "").
		WillReturnRows(rows)

	rec, err := repo.GetNextDue(context.Background(), 1, now, "")

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "bonjour", rec.Word)
	assert.Equal(t, models.ReviewStatusMastered, rec.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_GetByUserAndWord_NotFound(t *testing.T) {
	repo, mock, cleanup := setupReviewTestRepository(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM vocabulary_reviews`).
		WithArgs(1, "merci").
		WillReturnRows(sqlmock.NewRows(reviewTestColumns()))

	rec, err := repo.GetByUserAndWord(context.Background(), 1, "merci")

	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Create(t *testing.T) {
	repo, mock, cleanup := setupReviewTestRepository(t)
	defer cleanup()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := &models.ReviewRecord{
		UserID:          1,
		Word:            "bonjour",
		Definition:      "hello",
		ExampleSentence: "Bonjour !",
		Language:        "french",
		EaseFactor:      2.5,
		DueAt:           now,
		Status:          models.ReviewStatusNew,
		CreatedAt:       now,
	}

	mock.ExpectExec(`INSERT INTO vocabulary_reviews`).
		WithArgs(1, "bonjour", "hello", "Bonjour !", "french",
			2.5, 0, 0, now, models.ReviewStatusNew, 0, now).
		WillReturnResult(sqlmock.NewResult(42, 1))

	err := repo.Create(context.Background(), rec)

	require.NoError(t, err)
	assert.Equal(t, 42, rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_UpdateScheduled(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("applies mutation and persists scheduling fields", func(t *testing.T) {
		repo, mock, cleanup := setupReviewTestRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM vocabulary_reviews`).
			WithArgs(7, 1).
			WillReturnRows(reviewTestRow(now))
		mock.ExpectExec(`UPDATE vocabulary_reviews`).
			WithArgs(2.6, 3, 16, now.AddDate(0, 0, 16), models.ReviewStatusReview, 5, now, 7).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.UpdateScheduled(context.Background(), 7, 1, func(rec *models.ReviewRecord) error {
			rec.EaseFactor = 2.6
			rec.Repetitions = 3
			rec.IntervalDays = 16
			rec.DueAt = now.AddDate(0, 0, 16)
			rec.Status = models.ReviewStatusReview
			rec.LastQuality = 5
			reviewed := now
			rec.LastReviewedAt = &reviewed
			return nil
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing record wraps ErrNoRows and rolls back", func(t *testing.T) {
		repo, mock, cleanup := setupReviewTestRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM vocabulary_reviews`).
			WithArgs(7, 1).
			WillReturnRows(sqlmock.NewRows(reviewTestColumns()))
		mock.ExpectRollback()

		err := repo.UpdateScheduled(context.Background(), 7, 1, func(rec *models.ReviewRecord) error {
			t.Fatal("apply must not run for a missing record")
			return nil
		})

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("apply error aborts the update", func(t *testing.T) {
		repo, mock, cleanup := setupReviewTestRepository(t)
		defer cleanup()

		applyErr := errors.New("rejected")

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM vocabulary_reviews`).
			WithArgs(7, 1).
			WillReturnRows(reviewTestRow(now))
		mock.ExpectRollback()

		err := repo.UpdateScheduled(context.Background(), 7, 1, func(rec *models.ReviewRecord) error {
			return applyErr
		})

		assert.ErrorIs(t, err, applyErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReviewRepository_Stats(t *testing.T) {
	repo, mock, cleanup := setupReviewTestRepository(t)
	defer cleanup()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"due", "learning", "mastered", "total"}).
		AddRow(3, 7, 5, 12)

	// The due count is date-only so overdue mastered records are included.
	mock.ExpectQuery(`COALESCE\(SUM\(due_at <= \?\), 0\)`).
		WithArgs(now, 1).
		WillReturnRows(rows)

	stats, err := repo.Stats(context.Background(), 1, now)

	require.NoError(t, err)
	assert.Equal(t, &models.ReviewStats{Due: 3, Learning: 7, Mastered: 5, Total: 12}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}
