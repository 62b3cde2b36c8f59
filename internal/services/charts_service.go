package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/linguaflow/progress-service/internal/models"
	"go.uber.org/zap"
)

const (
	defaultActivityDays = 30
	maxActivityDays     = 365
)

// ErrInvalidDays indicates an activity window outside 1-365
var ErrInvalidDays = errors.New("days must be between 1 and 365")

// chartsService shapes progress data into chart-ready series
type chartsService struct {
	progressRepo ProgressRepository
	historyRepo  HistoryRepository
	logger       *zap.Logger
}

// NewChartsService creates a new charts service
func NewChartsService(progressRepo ProgressRepository, historyRepo HistoryRepository, logger *zap.Logger) *chartsService {
	return &chartsService{
		progressRepo: progressRepo,
		historyRepo:  historyRepo,
		logger:       logger,
	}
}

// Activity returns per-day per-module attempt counts over the trailing
// window. Zero days selects the default window of 30.
func (s *chartsService) Activity(ctx context.Context, userID, days int) ([]models.ActivityPoint, error) {
	if days == 0 {
		days = defaultActivityDays
	}
	if days < 1 || days > maxActivityDays {
		return nil, ErrInvalidDays
	}

	points, err := s.progressRepo.DailyActivity(ctx, userID, days)
	if err != nil {
		s.logger.Error("failed to get daily activity", zap.Error(err))
		return nil, fmt.Errorf("failed to get daily activity: %w", err)
	}
	if points == nil {
		points = []models.ActivityPoint{}
	}
	return points, nil
}

// ModuleScores returns the current score and attempt count per module, a nil
// score marking modules without attempts
func (s *chartsService) ModuleScores(ctx context.Context, userID int) ([]models.ModuleScorePoint, error) {
	rows, err := s.progressRepo.GetAll(ctx, userID)
	if err != nil {
		s.logger.Error("failed to get module progress", zap.Error(err))
		return nil, fmt.Errorf("failed to get module progress: %w", err)
	}

	points := make([]models.ModuleScorePoint, 0, len(models.ScoredModules))
	for _, module := range models.ScoredModules {
		point := models.ModuleScorePoint{Module: module}
		if mp := rows[module]; mp != nil {
			point.Score = mp.Score
			point.Attempts = mp.TotalAttempts
		}
		points = append(points, point)
	}
	return points, nil
}

// LevelProgression returns one point per completed level, oldest first
func (s *chartsService) LevelProgression(ctx context.Context, userID int) ([]models.LevelProgressionPoint, error) {
	entries, err := s.historyRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to get level history", zap.Error(err))
		return nil, fmt.Errorf("failed to get level history: %w", err)
	}

	points := make([]models.LevelProgressionPoint, 0, len(entries))
	for _, entry := range entries {
		points = append(points, models.LevelProgressionPoint{
			Level:         entry.Level,
			CompletedAt:   entry.CompletedAt,
			DaysAtLevel:   entry.DaysAtLevel,
			WeightedScore: entry.WeightedScore,
		})
	}
	return points, nil
}
