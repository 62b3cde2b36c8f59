package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linguaflow/progress-service/internal/models"
	"go.uber.org/zap"
)

// historyRepository implements services.HistoryRepository
type historyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new level history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) *historyRepository {
	return &historyRepository{
		db:     db,
		logger: logger,
	}
}

// ListByUser retrieves the user's completed-level entries, oldest first
func (r *historyRepository) ListByUser(ctx context.Context, userID int) ([]models.LevelHistoryEntry, error) {
	query := `
		SELECT id, user_id, level,
		       vocabulary_score, grammar_score, writing_score, phonetics_score,
		       conversation_messages,
		       vocabulary_attempts, grammar_attempts, writing_attempts, phonetics_attempts,
		       started_at, completed_at, days_at_level, weighted_score
		FROM level_history
		WHERE user_id = ?
		ORDER BY completed_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("failed to list level history", zap.Error(err), zap.Int("user_id", userID))
		return nil, fmt.Errorf("failed to list level history: %w", err)
	}
	defer rows.Close()

	var entries []models.LevelHistoryEntry
	for rows.Next() {
		var entry models.LevelHistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Level,
			&entry.VocabularyScore,
			&entry.GrammarScore,
			&entry.WritingScore,
			&entry.PhoneticsScore,
			&entry.ConversationMessages,
			&entry.VocabularyAttempts,
			&entry.GrammarAttempts,
			&entry.WritingAttempts,
			&entry.PhoneticsAttempts,
			&entry.StartedAt,
			&entry.CompletedAt,
			&entry.DaysAtLevel,
			&entry.WeightedScore,
		); err != nil {
			return nil, fmt.Errorf("failed to scan level history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate level history: %w", err)
	}

	return entries, nil
}
