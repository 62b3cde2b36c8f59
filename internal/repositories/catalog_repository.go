package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linguaflow/progress-service/internal/models"
	"go.uber.org/zap"
)

// catalogRepository implements services.CatalogRepository
type catalogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCatalogRepository creates a new vocabulary catalogue repository
func NewCatalogRepository(db *sql.DB, logger *zap.Logger) *catalogRepository {
	return &catalogRepository{
		db:     db,
		logger: logger,
	}
}

// GetByWord retrieves a catalogue item by word and language, (nil, nil) when
// no such item exists
func (r *catalogRepository) GetByWord(ctx context.Context, word, language string) (*models.VocabularyItem, error) {
	query := `
		SELECT id, word, definition, example_sentence, language, difficulty_level
		FROM vocabulary_items
		WHERE word = ? AND language = ?
		LIMIT 1
	`

	item := &models.VocabularyItem{}
	err := r.db.QueryRowContext(ctx, query, word, language).Scan(
		&item.ID,
		&item.Word,
		&item.Definition,
		&item.ExampleSentence,
		&item.Language,
		&item.DifficultyLevel,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get vocabulary item", zap.Error(err), zap.String("word", word))
		return nil, fmt.Errorf("failed to get vocabulary item: %w", err)
	}

	return item, nil
}

// GetUnseen retrieves one catalogue item the user has no review record for,
// items at the user's level first, then by id for a stable order.
// Returns (nil, nil) when the user has seen the whole catalogue.
func (r *catalogRepository) GetUnseen(ctx context.Context, userID int, level models.Level, language, excludeWord string) (*models.VocabularyItem, error) {
	query := `
		SELECT v.id, v.word, v.definition, v.example_sentence, v.language, v.difficulty_level
		FROM vocabulary_items v
		LEFT JOIN vocabulary_reviews r ON r.word = v.word AND r.user_id = ?
		WHERE r.id IS NULL
		  AND v.language = ?
		  AND (? = '' OR v.word != ?)
		ORDER BY (v.difficulty_level = ?) DESC, v.id
		LIMIT 1
	`

	item := &models.VocabularyItem{}
	err := r.db.QueryRowContext(ctx, query, userID, language, excludeWord, excludeWord, level).Scan(
		&item.ID,
		&item.Word,
		&item.Definition,
		&item.ExampleSentence,
		&item.Language,
		&item.DifficultyLevel,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get unseen vocabulary item", zap.Error(err), zap.Int("user_id", userID))
		return nil, fmt.Errorf("failed to get unseen vocabulary item: %w", err)
	}

	return item, nil
}

// GetDistractors retrieves up to limit definitions of other words in the
// same language, in random order
func (r *catalogRepository) GetDistractors(ctx context.Context, word, language string, limit int) ([]string, error) {
	query := `
		SELECT definition
		FROM vocabulary_items
		WHERE word != ? AND language = ?
		ORDER BY RAND()
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, word, language, limit)
	if err != nil {
		r.logger.Error("failed to get distractors", zap.Error(err), zap.String("word", word))
		return nil, fmt.Errorf("failed to get distractors: %w", err)
	}
	defer rows.Close()

	var definitions []string
	for rows.Next() {
		var definition string
		if err := rows.Scan(&definition); err != nil {
			return nil, fmt.Errorf("failed to scan distractor: %w", err)
		}
		definitions = append(definitions, definition)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate distractors: %w", err)
	}

	return definitions, nil
}
