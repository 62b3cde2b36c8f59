package services

import (
	"context"
	"fmt"
	"time"

	"github.com/linguaflow/progress-service/internal/config"
	"github.com/linguaflow/progress-service/internal/models"
	"go.uber.org/zap"
)

// ProgressRepository is the interface that wraps methods for user_progress table data access
type ProgressRepository interface {
	// Get retrieves a user's progress row for one module.
	//
	// Returns (nil, nil) when the user has no attempts in the module.
	Get(ctx context.Context, userID int, module models.Module) (*models.ModuleProgress, error)
	// GetAll retrieves the progress rows the user has, keyed by module.
	// Modules with no attempts are absent from the map.
	GetAll(ctx context.Context, userID int) (map[models.Module]*models.ModuleProgress, error)
	// RecordBinary counts a right-or-wrong attempt and recomputes the module
	// score as the percentage of correct attempts, atomically
	RecordBinary(ctx context.Context, userID int, module models.Module, correct bool, now time.Time) error
	// RecordScored counts a graded attempt and folds the new score into the
	// module's running average, atomically
	RecordScored(ctx context.Context, userID int, module models.Module, score float64, now time.Time) error
	// DailyActivity aggregates attempt counts per day per module over the
	// trailing window of days, most recent day last
	DailyActivity(ctx context.Context, userID, days int) ([]models.ActivityPoint, error)
}

// ConversationRepository is the interface that wraps methods for conversation_engagement table data access
type ConversationRepository interface {
	// TotalMessages returns the user's message count at the current level,
	// zero when no row exists
	TotalMessages(ctx context.Context, userID int) (int, error)
	// Increment adds one to the user's message count, creating the row on
	// first message
	Increment(ctx context.Context, userID int) error
}

// progressService tracks per-module practice results and conversation
// engagement against the advancement thresholds
type progressService struct {
	progressRepo     ProgressRepository
	conversationRepo ConversationRepository
	policy           config.PolicyConfig
	logger           *zap.Logger
	now              func() time.Time
}

// NewProgressService creates a new progress service
func NewProgressService(
	progressRepo ProgressRepository,
	conversationRepo ConversationRepository,
	policy config.PolicyConfig,
	logger *zap.Logger,
) *progressService {
	return &progressService{
		progressRepo:     progressRepo,
		conversationRepo: conversationRepo,
		policy:           policy,
		logger:           logger,
		now:              time.Now,
	}
}

// Record counts one practice attempt for the module. Vocabulary and grammar
// take a correct flag; writing and phonetics take a 0-100 score folded into
// a running average.
func (s *progressService) Record(ctx context.Context, userID int, module models.Module, outcome models.AttemptOutcome) error {
	if !module.Valid() {
		return ErrUnknownModule
	}

	now := s.now()
	if module.Binary() {
		if outcome.Correct == nil {
			return ErrMissingOutcome
		}
		if err := s.progressRepo.RecordBinary(ctx, userID, module, *outcome.Correct, now); err != nil {
			s.logger.Error("failed to record attempt",
				zap.String("module", string(module)), zap.Error(err))
			return fmt.Errorf("failed to record attempt: %w", err)
		}
		return nil
	}

	if outcome.Score == nil {
		return ErrMissingOutcome
	}
	if *outcome.Score < 0 || *outcome.Score > 100 {
		return ErrInvalidScore
	}
	if err := s.progressRepo.RecordScored(ctx, userID, module, *outcome.Score, now); err != nil {
		s.logger.Error("failed to record attempt",
			zap.String("module", string(module)), zap.Error(err))
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// RecordConversationMessage counts one conversation message toward the
// engagement threshold
func (s *progressService) RecordConversationMessage(ctx context.Context, userID int) error {
	if err := s.conversationRepo.Increment(ctx, userID); err != nil {
		s.logger.Error("failed to record conversation message", zap.Error(err))
		return fmt.Errorf("failed to record conversation message: %w", err)
	}
	return nil
}

// Eligibility returns all four scored modules with their threshold flags.
// Modules without attempts appear with a nil score, zero counters and a
// "No activity yet" blocking reason.
func (s *progressService) Eligibility(ctx context.Context, userID int) ([]models.ModuleProgress, error) {
	rows, err := s.progressRepo.GetAll(ctx, userID)
	if err != nil {
		s.logger.Error("failed to get module progress", zap.Error(err))
		return nil, fmt.Errorf("failed to get module progress: %w", err)
	}

	modules := make([]models.ModuleProgress, 0, len(models.ScoredModules))
	for _, module := range models.ScoredModules {
		mp := rows[module]
		if mp == nil {
			mp = &models.ModuleProgress{Module: module}
		}
		mp.MeetsThreshold = mp.Score != nil && *mp.Score >= s.policy.ScoreThreshold
		mp.MeetsMinimumAttempts = mp.TotalAttempts >= s.policy.MinimumAttempts
		mp.Reason = s.blockingReason(mp)
		modules = append(modules, *mp)
	}
	return modules, nil
}

// blockingReason explains what keeps a module from gating advancement, with
// the score gate reported before the attempt gate. Empty when both are met.
func (s *progressService) blockingReason(mp *models.ModuleProgress) string {
	switch {
	case mp.TotalAttempts == 0 && mp.Score == nil:
		return "No activity yet"
	case !mp.MeetsThreshold:
		score := 0.0
		if mp.Score != nil {
			score = *mp.Score
		}
		return fmt.Sprintf("Score too low (%.1f%%)", score)
	case !mp.MeetsMinimumAttempts:
		return fmt.Sprintf("Not enough attempts (%d/%d)", mp.TotalAttempts, s.policy.MinimumAttempts)
	default:
		return ""
	}
}

// Engagement returns the user's conversation message count with its
// threshold flag
func (s *progressService) Engagement(ctx context.Context, userID int) (*models.ConversationEngagement, error) {
	total, err := s.conversationRepo.TotalMessages(ctx, userID)
	if err != nil {
		s.logger.Error("failed to get conversation engagement", zap.Error(err))
		return nil, fmt.Errorf("failed to get conversation engagement: %w", err)
	}
	return &models.ConversationEngagement{
		TotalMessages:  total,
		MeetsThreshold: total >= s.policy.ConversationMinimum,
	}, nil
}
