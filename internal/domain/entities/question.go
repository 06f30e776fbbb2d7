package entities

import (
	"errors"
	"strings"
)

// QuestionType distinguishes the two answer-grading modes.
type QuestionType string

const (
	QuestionMCQ  QuestionType = "mcq"
	QuestionOpen QuestionType = "open"
)

var (
	ErrEmptyQuestionText = errors.New("question text is empty")
	ErrInvalidQuestion   = errors.New("invalid question payload")
	ErrTooFewOptions     = errors.New("mcq question needs at least two options")
	ErrEmptyOption       = errors.New("mcq option is empty")
	ErrBadCorrectIndex   = errors.New("correct index out of range")
	ErrEmptyIdealAnswer  = errors.New("open question needs an ideal answer")
	ErrUnknownQuestion   = errors.New("unknown question type")
	ErrUnknownLevel      = errors.New("unknown level")
)

// Question is a tagged variant: mcq questions carry Options and CorrectIndex,
// open questions carry IdealAnswer. Exactly one payload is populated per type.
type Question struct {
	ID           int64
	TopicID      int64
	Type         QuestionType
	Text         string
	Options      []string // mcq only
	CorrectIndex int      // mcq only, 0-based
	IdealAnswer  string   // open only
	Difficulty   Level    // defaults to the owning topic's level
}

// NormalizeText collapses whitespace into single spaces on a single line.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Validate enforces the per-type payload invariant.
func (q *Question) Validate() error {
	if NormalizeText(q.Text) == "" {
		return ErrEmptyQuestionText
	}
	if !q.Difficulty.Valid() {
		return ErrUnknownLevel
	}

	switch q.Type {
	case QuestionMCQ:
		if q.IdealAnswer != "" {
			return ErrInvalidQuestion
		}
		if len(q.Options) < 2 {
			return ErrTooFewOptions
		}
		for _, opt := range q.Options {
			if NormalizeText(opt) == "" {
				return ErrEmptyOption
			}
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return ErrBadCorrectIndex
		}
		return nil

	case QuestionOpen:
		if len(q.Options) != 0 {
			return ErrInvalidQuestion
		}
		if NormalizeText(q.IdealAnswer) == "" {
			return ErrEmptyIdealAnswer
		}
		return nil

	default:
		return ErrUnknownQuestion
	}
}
