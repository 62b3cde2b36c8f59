package models

// Level is a CEFR proficiency level
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// levelOrder defines the CEFR progression from lowest to highest
var levelOrder = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// Valid reports whether l is a known CEFR level
func (l Level) Valid() bool {
	for _, level := range levelOrder {
		if l == level {
			return true
		}
	}
	return false
}

// Next returns the next CEFR level in the progression.
// The second return value is false when l is the terminal level (C2) or unknown.
func (l Level) Next() (Level, bool) {
	for i, level := range levelOrder {
		if l == level && i < len(levelOrder)-1 {
			return levelOrder[i+1], true
		}
	}
	return "", false
}

// IsTerminal reports whether l is the highest CEFR level
func (l Level) IsTerminal() bool {
	return l == LevelC2
}
