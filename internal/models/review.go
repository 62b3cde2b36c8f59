package models

import "time"

// ReviewStatus classifies where a flashcard sits in its review trajectory
type ReviewStatus string

const (
	ReviewStatusNew      ReviewStatus = "new"
	ReviewStatusLearning ReviewStatus = "learning"
	ReviewStatusReview   ReviewStatus = "review"
	ReviewStatusMastered ReviewStatus = "mastered"
)

// VocabularyItem is a catalogue entry owned by the content-generation pipeline.
// Items are immutable once generated; the review engine only references them.
type VocabularyItem struct {
	ID              int    `json:"id"`
	Word            string `json:"word"`
	Definition      string `json:"definition"`
	ExampleSentence string `json:"exampleSentence"`
	Language        string `json:"language"`
	DifficultyLevel Level  `json:"difficultyLevel"`
}

// ReviewRecord holds the SM-2 scheduling state for one user x word pair.
// Records are created on first exposure and never deleted.
type ReviewRecord struct {
	ID              int          `json:"id"`
	UserID          int          `json:"userId"`
	Word            string       `json:"word"`
	Definition      string       `json:"definition"`
	ExampleSentence string       `json:"exampleSentence"`
	Language        string       `json:"language"`
	EaseFactor      float64      `json:"easeFactor"`
	Repetitions     int          `json:"repetitions"`
	IntervalDays    int          `json:"intervalDays"`
	DueAt           time.Time    `json:"dueAt"`
	Status          ReviewStatus `json:"status"`
	LastQuality     int          `json:"lastQuality"`
	CreatedAt       time.Time    `json:"createdAt"`
	LastReviewedAt  *time.Time   `json:"lastReviewedAt,omitempty"`
}

// ReviewCard is the next flashcard to present to a user
type ReviewCard struct {
	Word               string   `json:"word"`
	Definition         string   `json:"definition"`
	ExampleSentence    string   `json:"exampleSentence"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	IsReview           bool     `json:"isReview"`
	ReviewID           *int     `json:"reviewId,omitempty"`
}

// ReviewStats is the point-in-time review queue projection
type ReviewStats struct {
	Due      int `json:"due"`
	Learning int `json:"learning"`
	Mastered int `json:"mastered"`
	Total    int `json:"total"`
}
