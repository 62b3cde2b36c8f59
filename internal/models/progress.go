package models

import "time"

// ModuleProgress is the per-module counter aggregate for one user.
// Score is nil until the first attempt is recorded. Reason explains why the
// module still blocks advancement and is empty once both gates are met.
type ModuleProgress struct {
	Module               Module     `json:"module"`
	Score                *float64   `json:"score"`
	TotalAttempts        int        `json:"totalAttempts"`
	CorrectAttempts      int        `json:"correctAttempts"`
	LastActivity         *time.Time `json:"lastActivity,omitempty"`
	MeetsThreshold       bool       `json:"meetsThreshold"`
	MeetsMinimumAttempts bool       `json:"meetsMinimumAttempts"`
	Reason               string     `json:"reason,omitempty"`
}

// ConversationEngagement counts user messages in the conversation module
type ConversationEngagement struct {
	TotalMessages  int  `json:"totalMessages"`
	MeetsThreshold bool `json:"meetsThreshold"`
}

// AttemptOutcome is a recorded practice attempt. Binary modules set Correct,
// scored modules set Score (0-100).
type AttemptOutcome struct {
	Correct *bool    `json:"correct,omitempty"`
	Score   *float64 `json:"score,omitempty"`
}

// ProgressSummary is the full advancement dashboard for a user
type ProgressSummary struct {
	CurrentLevel           Level                  `json:"currentLevel"`
	NextLevel              *Level                 `json:"nextLevel,omitempty"`
	CanAdvance             bool                   `json:"canAdvance"`
	AdvancementReason      string                 `json:"advancementReason,omitempty"`
	OverallProgress        float64                `json:"overallProgress"`
	WeightedScore          float64                `json:"weightedScore"`
	Modules                []ModuleProgress       `json:"modules"`
	ConversationEngagement ConversationEngagement `json:"conversationEngagement"`
	DaysAtLevel            int                    `json:"daysAtLevel"`
	TotalXP                int                    `json:"totalXp"`
}
