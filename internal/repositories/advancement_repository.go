package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/linguaflow/progress-service/internal/models"
	"go.uber.org/zap"
)

// advancementRepository implements services.AdvancementRepository
type advancementRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAdvancementRepository creates a new advancement repository
func NewAdvancementRepository(db *sql.DB, logger *zap.Logger) *advancementRepository {
	return &advancementRepository{
		db:     db,
		logger: logger,
	}
}

// Advance records the completed level and moves the user to newLevel in one
// transaction. The user's stored level is locked and compared against
// entry.Level, so two concurrent advancements cannot both apply.
func (r *advancementRepository) Advance(ctx context.Context, entry *models.LevelHistoryEntry, newLevel models.Level, xpEarned int, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var currentLevel models.Level
	err = tx.QueryRowContext(ctx,
		`SELECT current_level FROM users WHERE id = ? FOR UPDATE`,
		entry.UserID,
	).Scan(&currentLevel)
	if err == sql.ErrNoRows {
		return fmt.Errorf("user %d not found: %w", entry.UserID, sql.ErrNoRows)
	}
	if err != nil {
		r.logger.Error("failed to lock user row", zap.Error(err), zap.Int("user_id", entry.UserID))
		return fmt.Errorf("failed to lock user row: %w", err)
	}
	if currentLevel != entry.Level {
		return fmt.Errorf("user %d is at level %s, expected %s", entry.UserID, currentLevel, entry.Level)
	}

	historyQuery := `
		INSERT INTO level_history
			(id, user_id, level,
			 vocabulary_score, grammar_score, writing_score, phonetics_score,
			 conversation_messages,
			 vocabulary_attempts, grammar_attempts, writing_attempts, phonetics_attempts,
			 started_at, completed_at, days_at_level, weighted_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, historyQuery,
		entry.ID, entry.UserID, entry.Level,
		entry.VocabularyScore, entry.GrammarScore, entry.WritingScore, entry.PhoneticsScore,
		entry.ConversationMessages,
		entry.VocabularyAttempts, entry.GrammarAttempts, entry.WritingAttempts, entry.PhoneticsAttempts,
		entry.StartedAt, entry.CompletedAt, entry.DaysAtLevel, entry.WeightedScore,
	); err != nil {
		r.logger.Error("failed to insert level history", zap.Error(err), zap.Int("user_id", entry.UserID))
		return fmt.Errorf("failed to insert level history: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE user_progress SET score = NULL, total_attempts = 0, correct_attempts = 0 WHERE user_id = ?`,
		entry.UserID,
	); err != nil {
		r.logger.Error("failed to reset module progress", zap.Error(err), zap.Int("user_id", entry.UserID))
		return fmt.Errorf("failed to reset module progress: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE conversation_engagement SET total_messages = 0 WHERE user_id = ?`,
		entry.UserID,
	); err != nil {
		r.logger.Error("failed to reset conversation engagement", zap.Error(err), zap.Int("user_id", entry.UserID))
		return fmt.Errorf("failed to reset conversation engagement: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET current_level = ?, level_started_at = ?, total_xp = total_xp + ? WHERE id = ?`,
		newLevel, now, xpEarned, entry.UserID,
	); err != nil {
		r.logger.Error("failed to update user level", zap.Error(err), zap.Int("user_id", entry.UserID))
		return fmt.Errorf("failed to update user level: %w", err)
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
