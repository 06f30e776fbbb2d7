package entities

// Level is the preparation level a topic belongs to.
type Level string

const (
	LevelBasic    Level = "basic"
	LevelAdvanced Level = "advanced"
)

// Valid reports whether the level is one of the known values.
func (l Level) Valid() bool {
	return l == LevelBasic || l == LevelAdvanced
}

// SortRank orders basic before advanced; unknown levels go last.
func (l Level) SortRank() int {
	switch l {
	case LevelBasic:
		return 0
	case LevelAdvanced:
		return 1
	default:
		return 99
	}
}

// Topic represents a named, leveled grouping of interview questions.
// (title, level) is unique; only active topics are visible to selection.
type Topic struct {
	ID            int64
	Title         string
	Level         Level
	Active        bool
	QuestionCount int // computed by ListTopics, not a stored column
}
