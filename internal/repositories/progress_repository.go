package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/linguaflow/progress-service/internal/models"
	"go.uber.org/zap"
)

// progressRepository implements services.ProgressRepository
type progressRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *sql.DB, logger *zap.Logger) *progressRepository {
	return &progressRepository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves a user's progress row for one module, (nil, nil) when the
// user has no attempts in the module
func (r *progressRepository) Get(ctx context.Context, userID int, module models.Module) (*models.ModuleProgress, error) {
	query := `
		SELECT module, score, total_attempts, correct_attempts, last_activity
		FROM user_progress
		WHERE user_id = ? AND module = ?
	`

	mp := &models.ModuleProgress{}
	err := r.db.QueryRowContext(ctx, query, userID, module).Scan(
		&mp.Module,
		&mp.Score,
		&mp.TotalAttempts,
		&mp.CorrectAttempts,
		&mp.LastActivity,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get module progress", zap.Error(err), zap.Int("user_id", userID))
		return nil, fmt.Errorf("failed to get module progress: %w", err)
	}

	return mp, nil
}

// GetAll retrieves the progress rows the user has, keyed by module
func (r *progressRepository) GetAll(ctx context.Context, userID int) (map[models.Module]*models.ModuleProgress, error) {
	query := `
		SELECT module, score, total_attempts, correct_attempts, last_activity
		FROM user_progress
		WHERE user_id = ?
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("failed to get user progress", zap.Error(err), zap.Int("user_id", userID))
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}
	defer rows.Close()

	progress := make(map[models.Module]*models.ModuleProgress)
	for rows.Next() {
		mp := &models.ModuleProgress{}
		if err := rows.Scan(&mp.Module, &mp.Score, &mp.TotalAttempts, &mp.CorrectAttempts, &mp.LastActivity); err != nil {
			return nil, fmt.Errorf("failed to scan module progress: %w", err)
		}
		progress[mp.Module] = mp
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user progress: %w", err)
	}

	return progress, nil
}

// RecordBinary counts a right-or-wrong attempt. The counters increment and
// the score recomputes as the correct percentage inside a single upsert, so
// concurrent attempts never lose updates.
func (r *progressRepository) RecordBinary(ctx context.Context, userID int, module models.Module, correct bool, now time.Time) error {
	score := 0.0
	correctInc := 0
	if correct {
		score = 100.0
		correctInc = 1
	}

	query := `
		INSERT INTO user_progress (user_id, module, score, total_attempts, correct_attempts, last_activity)
		VALUES (?, ?, ?, 1, ?, ?)
		ON DUPLICATE KEY UPDATE
			total_attempts = total_attempts + 1,
			correct_attempts = correct_attempts + VALUES(correct_attempts),
			score = 100 * correct_attempts / total_attempts,
			last_activity = VALUES(last_activity)
	`

	return r.record(ctx, userID, module, now, query, userID, module, score, correctInc, now)
}

// RecordScored counts a graded attempt and folds the score into the running
// average. The average is recomputed from the pre-increment counter inside
// the upsert, so concurrent attempts never lose updates.
func (r *progressRepository) RecordScored(ctx context.Context, userID int, module models.Module, score float64, now time.Time) error {
	query := `
		INSERT INTO user_progress (user_id, module, score, total_attempts, correct_attempts, last_activity)
		VALUES (?, ?, ?, 1, 0, ?)
		ON DUPLICATE KEY UPDATE
			score = (score * total_attempts + VALUES(score)) / (total_attempts + 1),
			total_attempts = total_attempts + 1,
			last_activity = VALUES(last_activity)
	`

	return r.record(ctx, userID, module, now, query, userID, module, score, now)
}

// record runs the progress upsert and the attempt log insert in one
// transaction
func (r *progressRepository) record(ctx context.Context, userID int, module models.Module, now time.Time, upsert string, args ...interface{}) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, upsert, args...); err != nil {
		r.logger.Error("failed to upsert module progress", zap.Error(err),
			zap.Int("user_id", userID), zap.String("module", string(module)))
		return fmt.Errorf("failed to upsert module progress: %w", err)
	}

	logQuery := `INSERT INTO attempt_log (user_id, module, attempted_at) VALUES (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, logQuery, userID, module, now); err != nil {
		r.logger.Error("failed to log attempt", zap.Error(err), zap.Int("user_id", userID))
		return fmt.Errorf("failed to log attempt: %w", err)
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DailyActivity aggregates attempt counts per day per module over the
// trailing window of days
func (r *progressRepository) DailyActivity(ctx context.Context, userID, days int) ([]models.ActivityPoint, error) {
	query := `
		SELECT DATE_FORMAT(attempted_at, '%Y-%m-%d'), module, COUNT(*)
		FROM attempt_log
		WHERE user_id = ? AND attempted_at >= DATE_SUB(CURDATE(), INTERVAL ? DAY)
		GROUP BY 1, module
		ORDER BY 1, module
	`

	rows, err := r.db.QueryContext(ctx, query, userID, days-1)
	if err != nil {
		r.logger.Error("failed to get daily activity", zap.Error(err), zap.Int("user_id", userID))
		return nil, fmt.Errorf("failed to get daily activity: %w", err)
	}
	defer rows.Close()

	var points []models.ActivityPoint
	for rows.Next() {
		var point models.ActivityPoint
		if err := rows.Scan(&point.Day, &point.Module, &point.Attempts); err != nil {
			return nil, fmt.Errorf("failed to scan activity point: %w", err)
		}
		points = append(points, point)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily activity: %w", err)
	}

	return points, nil
}
