package models

import "time"

// User represents a learner tracked by the progress service
type User struct {
	ID                     int       `json:"id"`
	Username               string    `json:"username"`
	TargetLanguage         string    `json:"targetLanguage"`
	CurrentLevel           Level     `json:"currentLevel"`
	LevelStartedAt         time.Time `json:"levelStartedAt"`
	PlacementTestCompleted bool      `json:"placementTestCompleted"`
	TotalXP                int       `json:"totalXp"`
	LastWord               string    `json:"-"` // last flashcard word served, used by the no-repeat rule
}
