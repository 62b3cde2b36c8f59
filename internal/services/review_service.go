package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/linguaflow/progress-service/internal/config"
	"github.com/linguaflow/progress-service/internal/models"
	"go.uber.org/zap"
)

// UserRepository is the interface that wraps methods for users table data access
type UserRepository interface {
	// GetByID retrieves a user by ID.
	//
	// Returns (nil, nil) when the user does not exist.
	// If some error occurs during data retrieval, the error will be returned.
	GetByID(ctx context.Context, id int) (*models.User, error)
	// SetLastWord stores the word of the flashcard last served to the user,
	// consumed by the no-repeat selection rule.
	SetLastWord(ctx context.Context, userID int, word string) error
}

// ReviewRepository is the interface that wraps methods for vocabulary_reviews table data access
type ReviewRepository interface {
	// GetNextDue retrieves the most overdue review record for a user at the
	// given instant, oldest due date first, ties broken by lowest repetition
	// count then id.
	//
	// "excludeWord" is skipped when non-empty. Returns (nil, nil) when
	// nothing is due.
	GetNextDue(ctx context.Context, userID int, now time.Time, excludeWord string) (*models.ReviewRecord, error)
	// GetByUserAndWord retrieves the review record for a user x word pair.
	//
	// Returns (nil, nil) when the word was never presented to the user.
	GetByUserAndWord(ctx context.Context, userID int, word string) (*models.ReviewRecord, error)
	// Create inserts a new review record and sets its ID
	Create(ctx context.Context, rec *models.ReviewRecord) error
	// UpdateScheduled loads the record owned by the user inside a
	// transaction holding a row lock, applies the mutation, and persists the
	// scheduling fields.
	//
	// A record that does not exist or belongs to another user yields an
	// error wrapping sql.ErrNoRows; an error from apply aborts the update
	// and is returned unchanged.
	UpdateScheduled(ctx context.Context, id, userID int, apply func(*models.ReviewRecord) error) error
	// Stats counts due, learning and mastered records for the user at the
	// given instant
	Stats(ctx context.Context, userID int, now time.Time) (*models.ReviewStats, error)
}

// CatalogRepository is the interface that wraps methods for vocabulary_items table data access
type CatalogRepository interface {
	// GetByWord retrieves a catalogue item by word and language.
	//
	// Returns (nil, nil) when no such item exists.
	GetByWord(ctx context.Context, word, language string) (*models.VocabularyItem, error)
	// GetUnseen retrieves one catalogue item the user has no review record
	// for, preferring items at the given difficulty level.
	//
	// "excludeWord" is skipped when non-empty. Returns (nil, nil) when the
	// user has seen the whole catalogue.
	GetUnseen(ctx context.Context, userID int, level models.Level, language, excludeWord string) (*models.VocabularyItem, error)
	// GetDistractors retrieves up to limit definitions of other words in the
	// same language, for multiple-choice options
	GetDistractors(ctx context.Context, word, language string, limit int) ([]string, error)
}

// ProgressRecorder records practice attempts; implemented by the progress service
type ProgressRecorder interface {
	Record(ctx context.Context, userID int, module models.Module, outcome models.AttemptOutcome) error
}

// reviewService selects flashcards and applies answer outcomes to their
// spaced-repetition schedule
type reviewService struct {
	userRepo    UserRepository
	reviewRepo  ReviewRepository
	catalogRepo CatalogRepository
	progress    ProgressRecorder
	srs         srsScheduler
	logger      *zap.Logger
	now         func() time.Time
}

// NewReviewService creates a new review service
func NewReviewService(
	userRepo UserRepository,
	reviewRepo ReviewRepository,
	catalogRepo CatalogRepository,
	progress ProgressRecorder,
	policy config.PolicyConfig,
	logger *zap.Logger,
) *reviewService {
	return &reviewService{
		userRepo:    userRepo,
		reviewRepo:  reviewRepo,
		catalogRepo: catalogRepo,
		progress:    progress,
		srs:         srsScheduler{policy: policy},
		logger:      logger,
		now:         time.Now,
	}
}

// NextCard picks the next flashcard for the user: the most overdue review
// first, otherwise an unseen catalogue word near the user's level.
//
// The card served immediately before is excluded from the draw so two
// consecutive calls never present the same word, unless it is the only
// candidate left (fewer than two distinct cards for the user).
func (s *reviewService) NextCard(ctx context.Context, userID int) (*models.ReviewCard, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to get user", zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	now := s.now()
	card, err := s.pickCard(ctx, user, now)
	if err != nil {
		return nil, err
	}

	options, correctIndex, err := s.buildOptions(ctx, card.Word, card.Definition, user.TargetLanguage)
	if err != nil {
		s.logger.Error("failed to build options", zap.Error(err))
		return nil, err
	}
	card.Options = options
	card.CorrectOptionIndex = correctIndex

	if err := s.userRepo.SetLastWord(ctx, userID, card.Word); err != nil {
		s.logger.Error("failed to store last served word", zap.Error(err))
		return nil, fmt.Errorf("failed to store last served word: %w", err)
	}

	return card, nil
}

// pickCard walks the selection order: due excluding the last word, unseen
// excluding the last word, then the same two draws without the exclusion
// (degenerate single-candidate case).
func (s *reviewService) pickCard(ctx context.Context, user *models.User, now time.Time) (*models.ReviewCard, error) {
	excludes := []string{user.LastWord}
	if user.LastWord != "" {
		excludes = append(excludes, "")
	}

	for _, exclude := range excludes {
		rec, err := s.reviewRepo.GetNextDue(ctx, user.ID, now, exclude)
		if err != nil {
			s.logger.Error("failed to get due review", zap.Error(err))
			return nil, fmt.Errorf("failed to get due review: %w", err)
		}
		if rec != nil {
			reviewID := rec.ID
			return &models.ReviewCard{
				Word:            rec.Word,
				Definition:      rec.Definition,
				ExampleSentence: rec.ExampleSentence,
				IsReview:        true,
				ReviewID:        &reviewID,
			}, nil
		}

		item, err := s.catalogRepo.GetUnseen(ctx, user.ID, user.CurrentLevel, user.TargetLanguage, exclude)
		if err != nil {
			s.logger.Error("failed to get unseen word", zap.Error(err))
			return nil, fmt.Errorf("failed to get unseen word: %w", err)
		}
		if item != nil {
			return &models.ReviewCard{
				Word:            item.Word,
				Definition:      item.Definition,
				ExampleSentence: item.ExampleSentence,
				IsReview:        false,
			}, nil
		}
	}

	return nil, ErrNoCardAvailable
}

// buildOptions assembles the multiple-choice definitions: the correct one
// plus up to three distractors drawn from the catalogue, shuffled
func (s *reviewService) buildOptions(ctx context.Context, word, definition, language string) ([]string, int, error) {
	distractors, err := s.catalogRepo.GetDistractors(ctx, word, language, 3)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get distractors: %w", err)
	}

	options := append(distractors, definition)
	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	for i, option := range options {
		if option == definition {
			return options, i, nil
		}
	}
	return options, len(options) - 1, nil
}

// RecordAnswer applies an answer to the word's review schedule and records a
// vocabulary module attempt.
//
// With a review ID the existing record is rescheduled; the ID must belong to
// the user and match the word. Without one, the word's record is created on
// first exposure (or reused) and then scheduled. Quality is perfect (5) for a
// correct answer, incorrect (2) otherwise.
func (s *reviewService) RecordAnswer(ctx context.Context, userID int, word string, isCorrect bool, reviewID *int) error {
	quality := QualityIncorrect
	if isCorrect {
		quality = QualityPerfect
	}

	now := s.now()
	id := 0
	if reviewID != nil {
		id = *reviewID
	} else {
		rec, err := s.ensureRecord(ctx, userID, word, now)
		if err != nil {
			return err
		}
		id = rec.ID
	}

	err := s.reviewRepo.UpdateScheduled(ctx, id, userID, func(rec *models.ReviewRecord) error {
		if rec.Word != word {
			return ErrReviewMismatch
		}
		return s.srs.schedule(rec, quality, now)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrReviewNotFound
		}
		if errors.Is(err, ErrReviewMismatch) || errors.Is(err, ErrInvalidQuality) {
			return err
		}
		s.logger.Error("failed to reschedule review", zap.Error(err))
		return fmt.Errorf("failed to reschedule review: %w", err)
	}

	correct := isCorrect
	if err := s.progress.Record(ctx, userID, models.ModuleVocabulary, models.AttemptOutcome{Correct: &correct}); err != nil {
		s.logger.Error("failed to record vocabulary attempt", zap.Error(err))
		return fmt.Errorf("failed to record vocabulary attempt: %w", err)
	}

	return nil
}

// ensureRecord returns the user's review record for the word, creating the
// first-exposure record from the catalogue when none exists
func (s *reviewService) ensureRecord(ctx context.Context, userID int, word string, now time.Time) (*models.ReviewRecord, error) {
	rec, err := s.reviewRepo.GetByUserAndWord(ctx, userID, word)
	if err != nil {
		s.logger.Error("failed to get review record", zap.Error(err))
		return nil, fmt.Errorf("failed to get review record: %w", err)
	}
	if rec != nil {
		return rec, nil
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	item, err := s.catalogRepo.GetByWord(ctx, word, user.TargetLanguage)
	if err != nil {
		s.logger.Error("failed to look up word", zap.Error(err))
		return nil, fmt.Errorf("failed to look up word: %w", err)
	}
	if item == nil {
		return nil, ErrWordNotFound
	}

	rec = newReviewRecord(userID, item, now)
	if err := s.reviewRepo.Create(ctx, rec); err != nil {
		s.logger.Error("failed to create review record", zap.Error(err))
		return nil, fmt.Errorf("failed to create review record: %w", err)
	}
	return rec, nil
}

// Stats returns the point-in-time review queue counts for the user
func (s *reviewService) Stats(ctx context.Context, userID int) (*models.ReviewStats, error) {
	stats, err := s.reviewRepo.Stats(ctx, userID, s.now())
	if err != nil {
		s.logger.Error("failed to get review stats", zap.Error(err))
		return nil, fmt.Errorf("failed to get review stats: %w", err)
	}
	return stats, nil
}
