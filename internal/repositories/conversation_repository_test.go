package repositories

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupConversationTestRepository creates a conversation repository with a mock database
func setupConversationTestRepository(t *testing.T) (*conversationRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewConversationRepository(db, zap.NewNop())

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func TestConversationRepository_TotalMessages(t *testing.T) {
	repo, mock, cleanup := setupConversationTestRepository(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT total_messages FROM conversation_engagement`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"total_messages"}).AddRow(17))

	total, err := repo.TotalMessages(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, 17, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepository_TotalMessages_NoRowIsZero(t *testing.T) {
	repo, mock, cleanup := setupConversationTestRepository(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT total_messages FROM conversation_engagement`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"total_messages"}))

	total, err := repo.TotalMessages(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepository_Increment(t *testing.T) {
	repo, mock, cleanup := setupConversationTestRepository(t)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO conversation_engagement`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Increment(context.Background(), 1)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
