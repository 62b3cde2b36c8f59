package repositories

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/linguaflow/progress-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupCatalogTestRepository creates a catalogue repository with a mock database
func setupCatalogTestRepository(t *testing.T) (*catalogRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewCatalogRepository(db, zap.NewNop())

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func catalogColumns() []string {
	return []string{"id", "word", "definition", "example_sentence", "language", "difficulty_level"}
}

func TestCatalogRepository_GetByWord(t *testing.T) {
	repo, mock, cleanup := setupCatalogTestRepository(t)
	defer cleanup()

	rows := sqlmock.NewRows(catalogColumns()).
		AddRow(1, "bonjour", "hello", "Bonjour !", "french", "A1")

	mock.ExpectQuery(`SELECT (.+) FROM vocabulary_items`).
		WithArgs("bonjour", "french").
		WillReturnRows(rows)

	item, err := repo.GetByWord(context.Background(), "bonjour", "french")

	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "bonjour", item.Word)
	assert.Equal(t, models.LevelA1, item.DifficultyLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_GetByWord_NotFound(t *testing.T) {
	repo, mock, cleanup := setupCatalogTestRepository(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM vocabulary_items`).
		WithArgs("unknown", "french").
		WillReturnRows(sqlmock.NewRows(catalogColumns()))

	item, err := repo.GetByWord(context.Background(), "unknown", "french")

	require.NoError(t, err)
	assert.Nil(t, item)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_GetUnseen(t *testing.T) {
	repo, mock, cleanup := setupCatalogTestRepository(t)
	defer cleanup()

	rows := sqlmock.NewRows(catalogColumns()).
		AddRow(2, "merci", "thank you", "Merci beaucoup.", "french", "A2")

	mock.ExpectQuery(`SELECT (.+) FROM vocabulary_items`).
		WithArgs(1, "french", "bonjour", "bonjour", models.LevelA2).
		WillReturnRows(rows)

	item, err := repo.GetUnseen(context.Background(), 1, models.LevelA2, "french", "bonjour")

	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "merci", item.Word)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_GetUnseen_CatalogueExhausted(t *testing.T) {
	repo, mock, cleanup := setupCatalogTestRepository(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM vocabulary_items`).
		WithArgs(1, "french", "", "", models.LevelA2).
		WillReturnRows(sqlmock.NewRows(catalogColumns()))

	item, err := repo.GetUnseen(context.Background(), 1, models.LevelA2, "french", "")

	require.NoError(t, err)
	assert.Nil(t, item)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_GetDistractors(t *testing.T) {
	repo, mock, cleanup := setupCatalogTestRepository(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"definition"}).
		AddRow("goodbye").
		AddRow("please").
		AddRow("sorry")

	mock.ExpectQuery(`SELECT definition FROM vocabulary_items`).
		WithArgs("bonjour", "french", 3).
		WillReturnRows(rows)

	definitions, err := repo.GetDistractors(context.Background(), "bonjour", "french", 3)

	require.NoError(t, err)
	assert.Equal(t, []string{"goodbye", "please", "sorry"}, definitions)
	assert.NoError(t, mock.ExpectationsWereMet())
}
