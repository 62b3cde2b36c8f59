package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/linguaflow/progress-service/internal/models"
	"go.uber.org/zap"
)

const reviewColumns = `id, user_id, word, definition, example_sentence, language,
		       ease_factor, repetitions, interval_days, due_at, status,
		       last_quality, created_at, last_reviewed_at`

// reviewRepository implements services.ReviewRepository
type reviewRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *sql.DB, logger *zap.Logger) *reviewRepository {
	return &reviewRepository{
		db:     db,
		logger: logger,
	}
}

func scanReview(row *sql.Row) (*models.ReviewRecord, error) {
	rec := &models.ReviewRecord{}
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Word,
		&rec.Definition,
		&rec.ExampleSentence,
		&rec.Language,
		&rec.EaseFactor,
		&rec.Repetitions,
		&rec.IntervalDays,
		&rec.DueAt,
		&rec.Status,
		&rec.LastQuality,
		&rec.CreatedAt,
		&rec.LastReviewedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetNextDue retrieves the most overdue review for the user, oldest due date
// first, ties broken by fewest repetitions then id. Mastered records stay in
// rotation: once their interval elapses they come up for review again.
// Returns (nil, nil) when nothing is due.
func (r *reviewRepository) GetNextDue(ctx context.Context, userID int, now time.Time, excludeWord string) (*models.ReviewRecord, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM vocabulary_reviews
		WHERE user_id = ? AND due_at <= ?
		  AND (? = '' OR word != ?)
		ORDER BY due_at, repetitions, id
		LIMIT 1
	`

	rec, err := scanReview(r.db.QueryRowContext(ctx, query, userID, now, excludeWord, excludeWord))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get next due review", zap.Error(err), zap.Int("user_id", userID))
		return nil, fmt.Errorf("failed to get next due review: %w", err)
	}

	return rec, nil
}

// GetByUserAndWord retrieves the review record for a user x word pair,
// (nil, nil) when the word was never presented to the user
func (r *reviewRepository) GetByUserAndWord(ctx context.Context, userID int, word string) (*models.ReviewRecord, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM vocabulary_reviews
		WHERE user_id = ? AND word = ?
	`

	rec, err := scanReview(r.db.QueryRowContext(ctx, query, userID, word))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get review by word", zap.Error(err), zap.Int("user_id", userID))
		return nil, fmt.Errorf("failed to get review by word: %w", err)
	}

	return rec, nil
}

// Create inserts a new review record and sets its ID
func (r *reviewRepository) Create(ctx context.Context, rec *models.ReviewRecord) error {
	query := `
		INSERT INTO vocabulary_reviews
			(user_id, word, definition, example_sentence, language,
			 ease_factor, repetitions, interval_days, due_at, status,
			 last_quality, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		rec.UserID, rec.Word, rec.Definition, rec.ExampleSentence, rec.Language,
		rec.EaseFactor, rec.Repetitions, rec.IntervalDays, rec.DueAt, rec.Status,
		rec.LastQuality, rec.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create review record", zap.Error(err), zap.Int("user_id", rec.UserID))
		return fmt.Errorf("failed to create review record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	rec.ID = int(id)
	return nil
}

// UpdateScheduled loads the record owned by the user under a row lock,
// applies the mutation and persists the scheduling fields in one
// transaction. A missing or foreign record yields an error wrapping
// sql.ErrNoRows; an error from apply aborts the update and is returned
// unchanged.
func (r *reviewRepository) UpdateScheduled(ctx context.Context, id, userID int, apply func(*models.ReviewRecord) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT ` + reviewColumns + `
		FROM vocabulary_reviews
		WHERE id = ? AND user_id = ?
		FOR UPDATE
	`

	rec := &models.ReviewRecord{}
	err = tx.QueryRowContext(ctx, query, id, userID).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Word,
		&rec.Definition,
		&rec.ExampleSentence,
		&rec.Language,
		&rec.EaseFactor,
		&rec.Repetitions,
		&rec.IntervalDays,
		&rec.DueAt,
		&rec.Status,
		&rec.LastQuality,
		&rec.CreatedAt,
		&rec.LastReviewedAt,
	)
	if err == sql.ErrNoRows {
		return fmt.Errorf("review record %d not found: %w", id, sql.ErrNoRows)
	}
	if err != nil {
		r.logger.Error("failed to lock review record", zap.Error(err), zap.Int("review_id", id))
		return fmt.Errorf("failed to lock review record: %w", err)
	}

	if err := apply(rec); err != nil {
		return err
	}

	update := `
		UPDATE vocabulary_reviews
		SET ease_factor = ?, repetitions = ?, interval_days = ?, due_at = ?,
		    status = ?, last_quality = ?, last_reviewed_at = ?
		WHERE id = ?
	`

	if _, err := tx.ExecContext(ctx, update,
		rec.EaseFactor, rec.Repetitions, rec.IntervalDays, rec.DueAt,
		rec.Status, rec.LastQuality, rec.LastReviewedAt, rec.ID,
	); err != nil {
		r.logger.Error("failed to update review record", zap.Error(err), zap.Int("review_id", id))
		return fmt.Errorf("failed to update review record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Stats counts due, still-learning and mastered records for the user. The
// learning bucket deliberately diverges from the per-record status column:
// every record that is not mastered (status new, learning or review) counts
// as learning, so total is always learning + mastered. The due bucket is
// purely date-based and includes mastered records whose interval has elapsed.
func (r *reviewRepository) Stats(ctx context.Context, userID int, now time.Time) (*models.ReviewStats, error) {
	query := `
		SELECT
			COALESCE(SUM(due_at <= ?), 0),
			COALESCE(SUM(status != 'mastered'), 0),
			COALESCE(SUM(status = 'mastered'), 0),
			COUNT(*)
		FROM vocabulary_reviews
		WHERE user_id = ?
	`

	stats := &models.ReviewStats{}
	err := r.db.QueryRowContext(ctx, query, now, userID).Scan(
		&stats.Due,
		&stats.Learning,
		&stats.Mastered,
		&stats.Total,
	)
	if err != nil {
		r.logger.Error("failed to get review stats", zap.Error(err), zap.Int("user_id", userID))
		return nil, fmt.Errorf("failed to get review stats: %w", err)
	}

	return stats, nil
}
