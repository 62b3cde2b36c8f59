package services

import (
	"math"
	"time"

	"github.com/linguaflow/progress-service/internal/config"
	"github.com/linguaflow/progress-service/internal/models"
)

// Quality ratings on the SM-2 0-5 scale. The answer path only produces
// incorrect (2) and perfect (5); hesitant (4) is reserved for finer-grained
// client input.
const (
	QualityIncorrect = 2
	QualityHesitant  = 4
	QualityPerfect   = 5
)

// initialEaseFactor is the SM-2 starting ease factor for a fresh card
const initialEaseFactor = 2.5

// srsScheduler computes the next review state of a flashcard from a recall
// quality rating (SM-2 family)
type srsScheduler struct {
	policy config.PolicyConfig
}

// newReviewRecord builds the baseline record for a word's first exposure:
// immediately due, nothing learned yet.
func newReviewRecord(userID int, item *models.VocabularyItem, now time.Time) *models.ReviewRecord {
	return &models.ReviewRecord{
		UserID:          userID,
		Word:            item.Word,
		Definition:      item.Definition,
		ExampleSentence: item.ExampleSentence,
		Language:        item.Language,
		EaseFactor:      initialEaseFactor,
		Repetitions:     0,
		IntervalDays:    0,
		DueAt:           now,
		Status:          models.ReviewStatusNew,
		CreatedAt:       now,
	}
}

// schedule applies one review outcome to the record.
//
// A failing quality (< 3) resets the repetition streak and brings the card
// back tomorrow; a passing quality grows the interval 1 -> 6 -> round(prev*EF).
// The ease factor follows the SM-2 update formula and never drops below the
// configured floor. A quality outside 0-5 is a caller bug and is rejected.
func (s srsScheduler) schedule(rec *models.ReviewRecord, quality int, now time.Time) error {
	if quality < 0 || quality > 5 {
		return ErrInvalidQuality
	}

	if quality < 3 {
		rec.Repetitions = 0
		rec.IntervalDays = 1
		rec.EaseFactor = s.floorEase(rec.EaseFactor - 0.2)
		rec.Status = models.ReviewStatusLearning
	} else {
		rec.Repetitions++
		q := float64(quality)
		rec.EaseFactor = s.floorEase(rec.EaseFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02)))

		switch rec.Repetitions {
		case 1:
			rec.IntervalDays = 1
		case 2:
			rec.IntervalDays = 6
		default:
			rec.IntervalDays = int(math.Round(float64(rec.IntervalDays) * rec.EaseFactor))
		}

		if s.mastered(rec) {
			rec.Status = models.ReviewStatusMastered
		} else {
			rec.Status = models.ReviewStatusReview
		}
	}

	rec.LastQuality = quality
	rec.DueAt = now.AddDate(0, 0, rec.IntervalDays)
	reviewedAt := now
	rec.LastReviewedAt = &reviewedAt

	return nil
}

// floorEase clamps the ease factor at the configured floor, rounded to two
// decimals as stored
func (s srsScheduler) floorEase(ef float64) float64 {
	if ef < s.policy.EaseFactorFloor {
		ef = s.policy.EaseFactorFloor
	}
	return math.Round(ef*100) / 100
}

// mastered reports whether the card has crossed every mastery threshold
func (s srsScheduler) mastered(rec *models.ReviewRecord) bool {
	return rec.Repetitions >= s.policy.MasteryRepetitions &&
		rec.EaseFactor >= s.policy.MasteryEaseFactor &&
		rec.IntervalDays >= s.policy.MasteryIntervalDays
}
