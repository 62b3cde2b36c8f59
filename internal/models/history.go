package models

import "time"

// LevelHistoryEntry is the append-only archive of one completed level.
// Score fields are nil for modules that saw no attempts during the level.
type LevelHistoryEntry struct {
	ID                   string    `json:"id"`
	UserID               int       `json:"userId"`
	Level                Level     `json:"level"`
	VocabularyScore      *float64  `json:"vocabularyScore"`
	GrammarScore         *float64  `json:"grammarScore"`
	WritingScore         *float64  `json:"writingScore"`
	PhoneticsScore       *float64  `json:"phoneticsScore"`
	ConversationMessages int       `json:"conversationMessages"`
	VocabularyAttempts   int       `json:"vocabularyAttempts"`
	GrammarAttempts      int       `json:"grammarAttempts"`
	WritingAttempts      int       `json:"writingAttempts"`
	PhoneticsAttempts    int       `json:"phoneticsAttempts"`
	StartedAt            time.Time `json:"startedAt"`
	CompletedAt          time.Time `json:"completedAt"`
	DaysAtLevel          int       `json:"daysAtLevel"`
	WeightedScore        float64   `json:"weightedScore"`
}

// AdvancementResult reports the outcome of an advancement request.
// Advanced false carries the limiting reason and is a normal result, not an error.
type AdvancementResult struct {
	Advanced           bool                `json:"advanced"`
	Reason             string              `json:"reason,omitempty"`
	OldLevel           Level               `json:"oldLevel,omitempty"`
	NewLevel           Level               `json:"newLevel,omitempty"`
	XPEarned           int                 `json:"xpEarned,omitempty"`
	ModuleScores       map[Module]*float64 `json:"moduleScores,omitempty"`
	CelebrationMessage string              `json:"celebrationMessage,omitempty"`
}
