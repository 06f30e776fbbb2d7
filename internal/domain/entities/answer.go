package entities

import "time"

// Answer is an append-only record of one scored (or ungraded) turn.
// Exactly one of ChosenIndex and UserText is set, matching the question type.
// The correctness signal is one of:
//   - IsCorrect set (mcq),
//   - IsCorrect nil with AIScore+AIComment set (AI-graded open answer),
//   - IsCorrect and AIScore both nil (grading failed, explicitly ungraded).
type Answer struct {
	ID          int64
	SessionID   int64
	QuestionID  int64
	UserText    *string
	ChosenIndex *int
	IsCorrect   *bool
	AIScore     *int
	AIComment   *string
	AnsweredAt  time.Time
}

// NewChoiceAnswer builds an answer record for an mcq turn.
func NewChoiceAnswer(sessionID, questionID int64, chosenIndex int, isCorrect bool) *Answer {
	return &Answer{
		SessionID:   sessionID,
		QuestionID:  questionID,
		ChosenIndex: &chosenIndex,
		IsCorrect:   &isCorrect,
		AnsweredAt:  time.Now(),
	}
}

// NewGradedAnswer builds an answer record for an open turn the grader scored.
func NewGradedAnswer(sessionID, questionID int64, userText string, score int, comment string) *Answer {
	return &Answer{
		SessionID:  sessionID,
		QuestionID: questionID,
		UserText:   &userText,
		AIScore:    &score,
		AIComment:  &comment,
		AnsweredAt: time.Now(),
	}
}

// NewUngradedAnswer builds an answer record for an open turn the grader
// failed to score. Distinguishable in storage from a confirmed-wrong grade.
func NewUngradedAnswer(sessionID, questionID int64, userText string) *Answer {
	return &Answer{
		SessionID:  sessionID,
		QuestionID: questionID,
		UserText:   &userText,
		AnsweredAt: time.Now(),
	}
}

// Ungraded reports whether the turn carries no correctness signal at all.
func (a *Answer) Ungraded() bool {
	return a.IsCorrect == nil && a.AIScore == nil
}
