package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linguaflow/progress-service/internal/models"
	"go.uber.org/zap"
)

// userRepository implements services.UserRepository
type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a user by ID, (nil, nil) when the user does not exist
func (r *userRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `
		SELECT id, username, target_language, current_level, level_started_at,
		       placement_test_completed, total_xp, COALESCE(last_word, '')
		FROM users
		WHERE id = ?
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.TargetLanguage,
		&user.CurrentLevel,
		&user.LevelStartedAt,
		&user.PlacementTestCompleted,
		&user.TotalXP,
		&user.LastWord,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get user by id", zap.Error(err), zap.Int("user_id", id))
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// SetLastWord stores the flashcard word last served to the user
func (r *userRepository) SetLastWord(ctx context.Context, userID int, word string) error {
	query := `UPDATE users SET last_word = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, word, userID); err != nil {
		r.logger.Error("failed to set last word", zap.Error(err), zap.Int("user_id", userID))
		return fmt.Errorf("failed to set last word: %w", err)
	}

	return nil
}
