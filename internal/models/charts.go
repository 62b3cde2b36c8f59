package models

import "time"

// ActivityPoint is one day of recorded attempts for one module
type ActivityPoint struct {
	Day      string `json:"day"` // YYYY-MM-DD
	Module   Module `json:"module"`
	Attempts int    `json:"attempts"`
}

// ModuleScorePoint feeds the module-score bar chart
type ModuleScorePoint struct {
	Module   Module   `json:"module"`
	Score    *float64 `json:"score"`
	Attempts int      `json:"attempts"`
}

// LevelProgressionPoint feeds the level-progression line chart
type LevelProgressionPoint struct {
	Level         Level     `json:"level"`
	CompletedAt   time.Time `json:"completedAt"`
	DaysAtLevel   int       `json:"daysAtLevel"`
	WeightedScore float64   `json:"weightedScore"`
}
