package entities

import (
	"errors"
	"testing"
)

func validMCQ() *Question {
	return &Question{
		TopicID:      1,
		Type:         QuestionMCQ,
		Text:         "What does len return for a nil slice?",
		Options:      []string{"0", "panics", "undefined"},
		CorrectIndex: 0,
		Difficulty:   LevelBasic,
	}
}

func validOpen() *Question {
	return &Question{
		TopicID:     1,
		Type:        QuestionOpen,
		Text:        "Explain how a map grows.",
		IdealAnswer: "Buckets double and entries are evacuated incrementally.",
		Difficulty:  LevelAdvanced,
	}
}

func TestQuestionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(q *Question)
		base    func() *Question
		wantErr error
	}{
		{"valid mcq", func(*Question) {}, validMCQ, nil},
		{"valid open", func(*Question) {}, validOpen, nil},
		{"empty text", func(q *Question) { q.Text = "  \n " }, validMCQ, ErrEmptyQuestionText},
		{"bad difficulty", func(q *Question) { q.Difficulty = "expert" }, validMCQ, ErrUnknownLevel},
		{"one option", func(q *Question) { q.Options = []string{"only"} }, validMCQ, ErrTooFewOptions},
		{"blank option", func(q *Question) { q.Options[1] = "   " }, validMCQ, ErrEmptyOption},
		{"index negative", func(q *Question) { q.CorrectIndex = -1 }, validMCQ, ErrBadCorrectIndex},
		{"index past end", func(q *Question) { q.CorrectIndex = 3 }, validMCQ, ErrBadCorrectIndex},
		{"mcq with ideal answer", func(q *Question) { q.IdealAnswer = "stray" }, validMCQ, ErrInvalidQuestion},
		{"open with options", func(q *Question) { q.Options = []string{"a", "b"} }, validOpen, ErrInvalidQuestion},
		{"open without ideal answer", func(q *Question) { q.IdealAnswer = "" }, validOpen, ErrEmptyIdealAnswer},
		{"unknown type", func(q *Question) { q.Type = "essay" }, validMCQ, ErrUnknownQuestion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.base()
			tt.mutate(q)
			err := q.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"  padded  ", "padded"},
		{"line\nbreaks\r\neverywhere", "line breaks everywhere"},
		{"many   inner\tspaces", "many inner spaces"},
		{" \n\t ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeText(tt.in); got != tt.want {
			t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLevelValid(t *testing.T) {
	if !LevelBasic.Valid() || !LevelAdvanced.Valid() {
		t.Error("known levels must be valid")
	}
	if Level("expert").Valid() {
		t.Error("unknown level must be invalid")
	}
	if Level("").Valid() {
		t.Error("empty level must be invalid")
	}
}

func TestAnswerUngraded(t *testing.T) {
	if !NewUngradedAnswer(1, 2, "text").Ungraded() {
		t.Error("ungraded answer must report Ungraded")
	}
	if NewGradedAnswer(1, 2, "text", 3, "weak").Ungraded() {
		t.Error("graded answer must not report Ungraded")
	}
	if NewChoiceAnswer(1, 2, 0, false).Ungraded() {
		t.Error("choice answer must not report Ungraded")
	}
}
