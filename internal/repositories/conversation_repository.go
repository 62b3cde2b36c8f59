package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// conversationRepository implements services.ConversationRepository
type conversationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewConversationRepository creates a new conversation engagement repository
func NewConversationRepository(db *sql.DB, logger *zap.Logger) *conversationRepository {
	return &conversationRepository{
		db:     db,
		logger: logger,
	}
}

// TotalMessages returns the user's message count at the current level, zero
// when no row exists
func (r *conversationRepository) TotalMessages(ctx context.Context, userID int) (int, error) {
	query := `SELECT total_messages FROM conversation_engagement WHERE user_id = ?`

	var total int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&total)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		r.logger.Error("failed to get conversation engagement", zap.Error(err), zap.Int("user_id", userID))
		return 0, fmt.Errorf("failed to get conversation engagement: %w", err)
	}

	return total, nil
}

// Increment adds one to the user's message count, creating the row on first
// message
func (r *conversationRepository) Increment(ctx context.Context, userID int) error {
	query := `
		INSERT INTO conversation_engagement (user_id, total_messages)
		VALUES (?, 1)
		ON DUPLICATE KEY UPDATE total_messages = total_messages + 1
	`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		r.logger.Error("failed to increment conversation messages", zap.Error(err), zap.Int("user_id", userID))
		return fmt.Errorf("failed to increment conversation messages: %w", err)
	}

	return nil
}
