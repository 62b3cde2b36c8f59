package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/linguaflow/progress-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockProgressRepository is a mock implementation of ProgressRepository
type mockProgressRepository struct {
	rows        map[models.Module]*models.ModuleProgress
	activity    []models.ActivityPoint
	err         error
	binaryCalls int
	scoredCalls int
	lastModule  models.Module
	lastCorrect bool
	lastScore   float64
}

func (m *mockProgressRepository) Get(ctx context.Context, userID int, module models.Module) (*models.ModuleProgress, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows[module], nil
}

func (m *mockProgressRepository) GetAll(ctx context.Context, userID int) (map[models.Module]*models.ModuleProgress, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

func (m *mockProgressRepository) RecordBinary(ctx context.Context, userID int, module models.Module, correct bool, now time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.binaryCalls++
	m.lastModule = module
	m.lastCorrect = correct
	return nil
}

func (m *mockProgressRepository) RecordScored(ctx context.Context, userID int, module models.Module, score float64, now time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.scoredCalls++
	m.lastModule = module
	m.lastScore = score
	return nil
}

func (m *mockProgressRepository) DailyActivity(ctx context.Context, userID, days int) ([]models.ActivityPoint, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.activity, nil
}

// mockConversationRepository is a mock implementation of ConversationRepository
type mockConversationRepository struct {
	total      int
	err        error
	increments int
}

func (m *mockConversationRepository) TotalMessages(ctx context.Context, userID int) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.total, nil
}

func (m *mockConversationRepository) Increment(ctx context.Context, userID int) error {
	if m.err != nil {
		return m.err
	}
	m.increments++
	return nil
}

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func setupProgressService(progress *mockProgressRepository, conversation *mockConversationRepository) *progressService {
	svc := NewProgressService(progress, conversation, testPolicy(), zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestProgressService_Record(t *testing.T) {
	tests := []struct {
		name          string
		module        models.Module
		outcome       models.AttemptOutcome
		expectedError error
		binaryCalls   int
		scoredCalls   int
	}{
		{
			name:        "binary module with correct flag",
			module:      models.ModuleVocabulary,
			outcome:     models.AttemptOutcome{Correct: boolPtr(true)},
			binaryCalls: 1,
		},
		{
			name:        "grammar incorrect attempt",
			module:      models.ModuleGrammar,
			outcome:     models.AttemptOutcome{Correct: boolPtr(false)},
			binaryCalls: 1,
		},
		{
			name:        "scored module with score",
			module:      models.ModuleWriting,
			outcome:     models.AttemptOutcome{Score: floatPtr(87.5)},
			scoredCalls: 1,
		},
		{
			name:        "phonetics boundary score",
			module:      models.ModulePhonetics,
			outcome:     models.AttemptOutcome{Score: floatPtr(100)},
			scoredCalls: 1,
		},
		{
			name:          "unknown module",
			module:        models.Module("listening"),
			outcome:       models.AttemptOutcome{Correct: boolPtr(true)},
			expectedError: ErrUnknownModule,
		},
		{
			name:          "binary module missing correct flag",
			module:        models.ModuleVocabulary,
			outcome:       models.AttemptOutcome{Score: floatPtr(90)},
			expectedError: ErrMissingOutcome,
		},
		{
			name:          "scored module missing score",
			module:        models.ModuleWriting,
			outcome:       models.AttemptOutcome{Correct: boolPtr(true)},
			expectedError: ErrMissingOutcome,
		},
		{
			name:          "score above range",
			module:        models.ModuleWriting,
			outcome:       models.AttemptOutcome{Score: floatPtr(100.5)},
			expectedError: ErrInvalidScore,
		},
		{
			name:          "negative score",
			module:        models.ModulePhonetics,
			outcome:       models.AttemptOutcome{Score: floatPtr(-1)},
			expectedError: ErrInvalidScore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			progress := &mockProgressRepository{}
			svc := setupProgressService(progress, &mockConversationRepository{})

			err := svc.Record(context.Background(), 1, tt.module, tt.outcome)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.binaryCalls, progress.binaryCalls)
			assert.Equal(t, tt.scoredCalls, progress.scoredCalls)
		})
	}
}

func TestProgressService_Record_RepositoryError(t *testing.T) {
	progress := &mockProgressRepository{err: errors.New("database error")}
	svc := setupProgressService(progress, &mockConversationRepository{})

	err := svc.Record(context.Background(), 1, models.ModuleVocabulary, models.AttemptOutcome{Correct: boolPtr(true)})

	assert.Error(t, err)
}

func TestProgressService_RecordConversationMessage(t *testing.T) {
	conversation := &mockConversationRepository{}
	svc := setupProgressService(&mockProgressRepository{}, conversation)

	require.NoError(t, svc.RecordConversationMessage(context.Background(), 1))

	assert.Equal(t, 1, conversation.increments)
}

func TestProgressService_Eligibility(t *testing.T) {
	progress := &mockProgressRepository{
		rows: map[models.Module]*models.ModuleProgress{
			models.ModuleVocabulary: {Module: models.ModuleVocabulary, Score: floatPtr(90), TotalAttempts: 15},
			models.ModuleGrammar:    {Module: models.ModuleGrammar, Score: floatPtr(84.9), TotalAttempts: 12},
			models.ModuleWriting:    {Module: models.ModuleWriting, Score: floatPtr(88), TotalAttempts: 9},
		},
	}
	svc := setupProgressService(progress, &mockConversationRepository{})

	modules, err := svc.Eligibility(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, modules, 4)

	byModule := make(map[models.Module]models.ModuleProgress, len(modules))
	for _, mp := range modules {
		byModule[mp.Module] = mp
	}

	assert.True(t, byModule[models.ModuleVocabulary].MeetsThreshold)
	assert.True(t, byModule[models.ModuleVocabulary].MeetsMinimumAttempts)
	assert.Empty(t, byModule[models.ModuleVocabulary].Reason)

	// 84.9 sits just under the 85 threshold
	assert.False(t, byModule[models.ModuleGrammar].MeetsThreshold)
	assert.True(t, byModule[models.ModuleGrammar].MeetsMinimumAttempts)
	assert.Equal(t, "Score too low (84.9%)", byModule[models.ModuleGrammar].Reason)

	// Score is there but attempts are short
	assert.True(t, byModule[models.ModuleWriting].MeetsThreshold)
	assert.False(t, byModule[models.ModuleWriting].MeetsMinimumAttempts)
	assert.Equal(t, "Not enough attempts (9/10)", byModule[models.ModuleWriting].Reason)

	// Never attempted: present with nil score and both flags false
	phonetics := byModule[models.ModulePhonetics]
	assert.Nil(t, phonetics.Score)
	assert.False(t, phonetics.MeetsThreshold)
	assert.False(t, phonetics.MeetsMinimumAttempts)
	assert.Equal(t, "No activity yet", phonetics.Reason)
}

func TestProgressService_Engagement(t *testing.T) {
	tests := []struct {
		name           string
		total          int
		meetsThreshold bool
	}{
		{"below threshold", 19, false},
		{"at threshold", 20, true},
		{"above threshold", 45, true},
		{"no messages", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := setupProgressService(&mockProgressRepository{}, &mockConversationRepository{total: tt.total})

			engagement, err := svc.Engagement(context.Background(), 1)

			require.NoError(t, err)
			assert.Equal(t, tt.total, engagement.TotalMessages)
			assert.Equal(t, tt.meetsThreshold, engagement.MeetsThreshold)
		})
	}
}
