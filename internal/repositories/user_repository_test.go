package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/linguaflow/progress-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupUserTestRepository creates a user repository with a mock database
func setupUserTestRepository(t *testing.T) (*userRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewUserRepository(db, zap.NewNop())

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func userColumns() []string {
	return []string{"id", "username", "target_language", "current_level", "level_started_at",
		"placement_test_completed", "total_xp", "last_word"}
}

func TestUserRepository_GetByID(t *testing.T) {
	startedAt := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedUser  *models.User
		expectedError bool
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(userColumns()).
					AddRow(1, "learner", "french", "A2", startedAt, true, 300, "bonjour")
				mock.ExpectQuery(`SELECT (.+) FROM users`).
					WithArgs(1).
					WillReturnRows(rows)
			},
			expectedUser: &models.User{
				ID:                     1,
				Username:               "learner",
				TargetLanguage:         "french",
				CurrentLevel:           models.LevelA2,
				LevelStartedAt:         startedAt,
				PlacementTestCompleted: true,
				TotalXP:                300,
				LastWord:               "bonjour",
			},
		},
		{
			name: "user not found returns nil without error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM users`).
					WithArgs(1).
					WillReturnRows(sqlmock.NewRows(userColumns()))
			},
			expectedUser: nil,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM users`).
					WithArgs(1).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			user, err := repo.GetByID(context.Background(), 1)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedUser, user)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_SetLastWord(t *testing.T) {
	repo, mock, cleanup := setupUserTestRepository(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE users SET last_word`).
		WithArgs("merci", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetLastWord(context.Background(), 1, "merci")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
