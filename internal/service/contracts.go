package service

import (
	"context"

	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/domain/entities"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/repository"
)

// ContentRepository is the read surface of the topic/question inventory the
// quiz flow depends on. Writes belong to the admin commands.
type ContentRepository interface {
	ListLevels(ctx context.Context) ([]entities.Level, error)
	ListTopics(ctx context.Context, level entities.Level) ([]*entities.Topic, error)
	CountQuestions(ctx context.Context, topicID int64) (int, error)
	PickQuestions(ctx context.Context, topicID int64, limit int, randomize bool) ([]*entities.Question, error)
}

// SessionRepository persists sessions and their append-only answers.
type SessionRepository interface {
	CreateSession(ctx context.Context, s *entities.Session) error
	UpdateProgress(ctx context.Context, sessionID int64, idx, correctCount int) error
	FinishSession(ctx context.Context, sessionID int64) error
	LogAnswer(ctx context.Context, a *entities.Answer) error
	AnswersByTopicStats(ctx context.Context, sessionID int64) ([]repository.TopicMissStat, error)
}
