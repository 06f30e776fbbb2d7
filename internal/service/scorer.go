package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/domain/entities"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/grader"
)

// Score thresholds for AI-graded open answers.
const (
	// ScorePassThreshold is the minimum AI score that counts toward the
	// running correct total.
	ScorePassThreshold = 4
	// DefaultGraderTimeout bounds a single grading call.
	DefaultGraderTimeout = 30 * time.Second
)

// ChoiceVerdict is the outcome of scoring an mcq turn.
type ChoiceVerdict struct {
	Correct       bool
	CorrectOption string
}

// OpenVerdict is the outcome of scoring an open turn. Graded is false when the
// grading call failed; the answer is then persisted as explicitly ungraded and
// the session continues.
type OpenVerdict struct {
	Graded  bool
	Score   int
	Comment string
}

// Counts reports whether the turn adds to the running correct total.
func (v OpenVerdict) Counts() bool {
	return v.Graded && v.Score >= ScorePassThreshold
}

// Scorer applies the scoring rule for a question type and persists exactly
// one answer row per accepted turn.
type Scorer struct {
	sessions SessionRepository
	grader   grader.Grader
	timeout  time.Duration
	logger   *zap.Logger
}

// NewScorer creates a new Scorer. A non-positive timeout falls back to the default.
func NewScorer(sessions SessionRepository, g grader.Grader, timeout time.Duration, logger *zap.Logger) *Scorer {
	if timeout <= 0 {
		timeout = DefaultGraderTimeout
	}
	return &Scorer{
		sessions: sessions,
		grader:   g,
		timeout:  timeout,
		logger:   logger,
	}
}

// ScoreChoice checks an mcq answer by exact index match and appends the answer
// row. The chosen index must already be validated against the option list.
func (s *Scorer) ScoreChoice(ctx context.Context, session *entities.Session, q *entities.Question, chosenIndex int) (ChoiceVerdict, error) {
	if q.Type != entities.QuestionMCQ {
		return ChoiceVerdict{}, fmt.Errorf("score choice: question %d is not mcq", q.ID)
	}
	if chosenIndex < 0 || chosenIndex >= len(q.Options) {
		return ChoiceVerdict{}, fmt.Errorf("score choice: index %d out of range", chosenIndex)
	}

	correct := chosenIndex == q.CorrectIndex

	answer := entities.NewChoiceAnswer(session.ID, q.ID, chosenIndex, correct)
	if err := s.sessions.LogAnswer(ctx, answer); err != nil {
		return ChoiceVerdict{}, err
	}

	return ChoiceVerdict{
		Correct:       correct,
		CorrectOption: q.Options[q.CorrectIndex],
	}, nil
}

// ScoreOpen delegates an open answer to the AI grader under a bounded timeout
// and appends the answer row. A grading failure of any kind (error, timeout,
// malformed reply) persists the answer as ungraded and returns a non-graded
// verdict with a nil error; only persistence failures propagate.
func (s *Scorer) ScoreOpen(ctx context.Context, session *entities.Session, q *entities.Question, topicLabel, userText string) (OpenVerdict, error) {
	if q.Type != entities.QuestionOpen {
		return OpenVerdict{}, fmt.Errorf("score open: question %d is not open", q.ID)
	}

	gradeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.grader.Score(gradeCtx, grader.GradeRequest{
		Topic:           topicLabel,
		Question:        q.Text,
		ReferenceAnswer: q.IdealAnswer,
		UserAnswer:      userText,
	})
	if err != nil {
		s.logger.Warn("grading failed, persisting ungraded answer",
			zap.Int64("session_id", session.ID),
			zap.Int64("question_id", q.ID),
			zap.Error(err),
		)
		answer := entities.NewUngradedAnswer(session.ID, q.ID, userText)
		if err := s.sessions.LogAnswer(ctx, answer); err != nil {
			return OpenVerdict{}, err
		}
		return OpenVerdict{}, nil
	}

	answer := entities.NewGradedAnswer(session.ID, q.ID, userText, result.Score, result.Comment)
	if err := s.sessions.LogAnswer(ctx, answer); err != nil {
		return OpenVerdict{}, err
	}

	return OpenVerdict{
		Graded:  true,
		Score:   result.Score,
		Comment: result.Comment,
	}, nil
}
