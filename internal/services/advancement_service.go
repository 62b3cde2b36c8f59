package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/linguaflow/progress-service/internal/config"
	"github.com/linguaflow/progress-service/internal/models"
	"go.uber.org/zap"
)

// EligibilityReader reads advancement gate inputs; implemented by the
// progress service
type EligibilityReader interface {
	Eligibility(ctx context.Context, userID int) ([]models.ModuleProgress, error)
	Engagement(ctx context.Context, userID int) (*models.ConversationEngagement, error)
}

// HistoryRepository is the interface that wraps methods for level_history table data access
type HistoryRepository interface {
	// ListByUser retrieves the user's completed-level entries, oldest first
	ListByUser(ctx context.Context, userID int) ([]models.LevelHistoryEntry, error)
}

// AdvancementRepository is the interface that wraps the level transition
type AdvancementRepository interface {
	// Advance records the completed level and moves the user to newLevel in
	// a single transaction: the history entry is inserted, module scores
	// and counters are reset, the conversation counter is reset, and the
	// user's level, level start and XP are updated.
	//
	// The user's stored level is locked and compared against entry.Level;
	// a mismatch (concurrent advancement) yields an error.
	Advance(ctx context.Context, entry *models.LevelHistoryEntry, newLevel models.Level, xpEarned int, now time.Time) error
}

// moduleWeights is the contribution of each module to the weighted level
// score, renormalized over the modules that have a score
var moduleWeights = map[models.Module]float64{
	models.ModuleVocabulary: 0.30,
	models.ModuleGrammar:    0.30,
	models.ModuleWriting:    0.20,
	models.ModulePhonetics:  0.20,
}

// xpRewards is the XP granted for completing each level
var xpRewards = map[models.Level]int{
	models.LevelA1: 100,
	models.LevelA2: 200,
	models.LevelB1: 300,
	models.LevelB2: 400,
	models.LevelC1: 500,
	models.LevelC2: 1000,
}

// advancementService evaluates the level-up gate and performs the transition
type advancementService struct {
	userRepo        UserRepository
	progress        EligibilityReader
	historyRepo     HistoryRepository
	advancementRepo AdvancementRepository
	policy          config.PolicyConfig
	logger          *zap.Logger
	now             func() time.Time
}

// NewAdvancementService creates a new advancement service
func NewAdvancementService(
	userRepo UserRepository,
	progress EligibilityReader,
	historyRepo HistoryRepository,
	advancementRepo AdvancementRepository,
	policy config.PolicyConfig,
	logger *zap.Logger,
) *advancementService {
	return &advancementService{
		userRepo:        userRepo,
		progress:        progress,
		historyRepo:     historyRepo,
		advancementRepo: advancementRepo,
		policy:          policy,
		logger:          logger,
		now:             time.Now,
	}
}

// Summary assembles the user's full progress picture: per-module state,
// conversation engagement, the advancement verdict with its blocking reason,
// and display aggregates.
func (s *advancementService) Summary(ctx context.Context, userID int) (*models.ProgressSummary, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to get user", zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	modules, err := s.progress.Eligibility(ctx, userID)
	if err != nil {
		return nil, err
	}
	engagement, err := s.progress.Engagement(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &models.ProgressSummary{
		CurrentLevel:           user.CurrentLevel,
		Modules:                modules,
		ConversationEngagement: *engagement,
		WeightedScore:          weightedScore(modules),
		OverallProgress:        overallProgress(modules, engagement),
		DaysAtLevel:            daysSince(user.LevelStartedAt, s.now()),
		TotalXP:                user.TotalXP,
	}

	if next, ok := user.CurrentLevel.Next(); ok {
		summary.NextLevel = &next
	}
	summary.CanAdvance, summary.AdvancementReason = s.verdict(user.CurrentLevel, modules, engagement)

	return summary, nil
}

// Advance moves the user to the next level when every gate is satisfied.
//
// An unsatisfied gate is not an error: the result carries Advanced false and
// the blocking reason. The transition itself records the completed level in
// history, grants XP and resets module and conversation counters.
func (s *advancementService) Advance(ctx context.Context, userID int) (*models.AdvancementResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to get user", zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	modules, err := s.progress.Eligibility(ctx, userID)
	if err != nil {
		return nil, err
	}
	engagement, err := s.progress.Engagement(ctx, userID)
	if err != nil {
		return nil, err
	}

	scores := make(map[models.Module]*float64, len(modules))
	for i := range modules {
		scores[modules[i].Module] = modules[i].Score
	}

	result := &models.AdvancementResult{
		OldLevel:     user.CurrentLevel,
		NewLevel:     user.CurrentLevel,
		ModuleScores: scores,
	}

	canAdvance, reason := s.verdict(user.CurrentLevel, modules, engagement)
	if !canAdvance {
		result.Reason = reason
		return result, nil
	}

	next, _ := user.CurrentLevel.Next()
	now := s.now()
	entry := s.buildHistoryEntry(user, modules, engagement, now)

	xp := xpRewards[user.CurrentLevel]
	if err := s.advancementRepo.Advance(ctx, entry, next, xp, now); err != nil {
		s.logger.Error("failed to advance level",
			zap.Int("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to advance level: %w", err)
	}

	s.logger.Info("user advanced",
		zap.Int("user_id", userID),
		zap.String("from", string(user.CurrentLevel)),
		zap.String("to", string(next)))

	result.Advanced = true
	result.NewLevel = next
	result.XPEarned = xp
	result.CelebrationMessage = fmt.Sprintf("Congratulations! You've advanced from %s to %s!",
		user.CurrentLevel, next)
	return result, nil
}

// History returns the user's level progression, oldest first
func (s *advancementService) History(ctx context.Context, userID int) ([]models.LevelHistoryEntry, error) {
	entries, err := s.historyRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to get level history", zap.Error(err))
		return nil, fmt.Errorf("failed to get level history: %w", err)
	}
	return entries, nil
}

// verdict evaluates the full advancement gate. The reason names the furthest
// gate from its threshold so the user always sees their biggest gap.
func (s *advancementService) verdict(level models.Level, modules []models.ModuleProgress, engagement *models.ConversationEngagement) (bool, string) {
	if level.IsTerminal() {
		return false, fmt.Sprintf("Already at maximum level (%s)", level)
	}

	type deficit struct {
		ratio  float64
		reason string
	}
	var worst *deficit
	consider := func(ratio float64, reason string) {
		if ratio <= 0 {
			return
		}
		if worst == nil || ratio > worst.ratio {
			worst = &deficit{ratio: ratio, reason: reason}
		}
	}

	for _, mp := range modules {
		if !mp.MeetsMinimumAttempts {
			ratio := float64(s.policy.MinimumAttempts-mp.TotalAttempts) / float64(s.policy.MinimumAttempts)
			consider(ratio, fmt.Sprintf("Need %d more %s attempts (%d/%d)",
				s.policy.MinimumAttempts-mp.TotalAttempts, mp.Module, mp.TotalAttempts, s.policy.MinimumAttempts))
		}
		if !mp.MeetsThreshold {
			score := 0.0
			if mp.Score != nil {
				score = *mp.Score
			}
			ratio := (s.policy.ScoreThreshold - score) / s.policy.ScoreThreshold
			consider(ratio, fmt.Sprintf("%s score %.1f%% is below the required %.0f%%",
				mp.Module, score, s.policy.ScoreThreshold))
		}
	}

	if !engagement.MeetsThreshold {
		ratio := float64(s.policy.ConversationMinimum-engagement.TotalMessages) / float64(s.policy.ConversationMinimum)
		consider(ratio, fmt.Sprintf("Need %d more conversation messages (%d/%d)",
			s.policy.ConversationMinimum-engagement.TotalMessages, engagement.TotalMessages, s.policy.ConversationMinimum))
	}

	if worst != nil {
		return false, worst.reason
	}
	return true, ""
}

// buildHistoryEntry snapshots the completed level before the reset
func (s *advancementService) buildHistoryEntry(user *models.User, modules []models.ModuleProgress, engagement *models.ConversationEngagement, now time.Time) *models.LevelHistoryEntry {
	entry := &models.LevelHistoryEntry{
		ID:                   uuid.New().String(),
		UserID:               user.ID,
		Level:                user.CurrentLevel,
		ConversationMessages: engagement.TotalMessages,
		StartedAt:            user.LevelStartedAt,
		CompletedAt:          now,
		DaysAtLevel:          daysSince(user.LevelStartedAt, now),
		WeightedScore:        weightedScore(modules),
	}
	for _, mp := range modules {
		switch mp.Module {
		case models.ModuleVocabulary:
			entry.VocabularyScore = mp.Score
			entry.VocabularyAttempts = mp.TotalAttempts
		case models.ModuleGrammar:
			entry.GrammarScore = mp.Score
			entry.GrammarAttempts = mp.TotalAttempts
		case models.ModuleWriting:
			entry.WritingScore = mp.Score
			entry.WritingAttempts = mp.TotalAttempts
		case models.ModulePhonetics:
			entry.PhoneticsScore = mp.Score
			entry.PhoneticsAttempts = mp.TotalAttempts
		}
	}
	return entry
}

// weightedScore combines the module scores with their weights, renormalized
// over the modules that have a score. Zero when nothing is scored yet.
func weightedScore(modules []models.ModuleProgress) float64 {
	var sum, weightSum float64
	for _, mp := range modules {
		if mp.Score == nil {
			continue
		}
		w := moduleWeights[mp.Module]
		sum += *mp.Score * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return sum / weightSum
}

// overallProgress is the share of satisfied gates (four modules plus
// conversation) as a percentage, for display only
func overallProgress(modules []models.ModuleProgress, engagement *models.ConversationEngagement) float64 {
	ready := 0
	for _, mp := range modules {
		if mp.MeetsThreshold && mp.MeetsMinimumAttempts {
			ready++
		}
	}
	if engagement.MeetsThreshold {
		ready++
	}
	return float64(ready) / float64(len(models.ScoredModules)+1) * 100
}

func daysSince(start, now time.Time) int {
	days := int(now.Sub(start).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
