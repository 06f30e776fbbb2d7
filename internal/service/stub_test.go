package service

import (
	"context"
	"fmt"

	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/domain/entities"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/repository"
)

// fakeContent is an in-memory ContentRepository.
type fakeContent struct {
	levels    []entities.Level
	topics    []*entities.Topic
	questions map[int64][]*entities.Question

	listTopicsErr error
}

func (f *fakeContent) ListLevels(context.Context) ([]entities.Level, error) {
	return f.levels, nil
}

func (f *fakeContent) ListTopics(_ context.Context, level entities.Level) ([]*entities.Topic, error) {
	if f.listTopicsErr != nil {
		return nil, f.listTopicsErr
	}
	if level == "" {
		return f.topics, nil
	}
	var out []*entities.Topic
	for _, t := range f.topics {
		if t.Level == level {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeContent) CountQuestions(_ context.Context, topicID int64) (int, error) {
	return len(f.questions[topicID]), nil
}

func (f *fakeContent) PickQuestions(_ context.Context, topicID int64, limit int, _ bool) ([]*entities.Question, error) {
	pool := f.questions[topicID]
	if limit > len(pool) {
		limit = len(pool)
	}
	return pool[:limit], nil
}

// fakeSessions is an in-memory SessionRepository that records every write.
type fakeSessions struct {
	nextID   int64
	sessions map[int64]*entities.Session
	answers  []*entities.Answer
	stats    []repository.TopicMissStat

	createErr   error
	updateErr   error
	logErr      error
	finishErr   error
	statsErr    error
	finishedIDs []int64
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[int64]*entities.Session)}
}

func (f *fakeSessions) CreateSession(_ context.Context, s *entities.Session) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	s.ID = f.nextID
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeSessions) UpdateProgress(_ context.Context, sessionID int64, idx, correctCount int) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	s, ok := f.sessions[sessionID]
	if !ok {
		return repository.ErrSessionNotFound
	}
	s.Idx = idx
	s.CorrectCount = correctCount
	return nil
}

func (f *fakeSessions) FinishSession(_ context.Context, sessionID int64) error {
	if f.finishErr != nil {
		return f.finishErr
	}
	if _, ok := f.sessions[sessionID]; !ok {
		return repository.ErrSessionNotFound
	}
	f.finishedIDs = append(f.finishedIDs, sessionID)
	return nil
}

func (f *fakeSessions) LogAnswer(_ context.Context, a *entities.Answer) error {
	if f.logErr != nil {
		return f.logErr
	}
	cp := *a
	f.answers = append(f.answers, &cp)
	return nil
}

func (f *fakeSessions) AnswersByTopicStats(context.Context, int64) ([]repository.TopicMissStat, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

func mcqQuestion(id, topicID int64, correct int) *entities.Question {
	return &entities.Question{
		ID:           id,
		TopicID:      topicID,
		Type:         entities.QuestionMCQ,
		Text:         fmt.Sprintf("question %d", id),
		Options:      []string{"first", "second", "third"},
		CorrectIndex: correct,
	}
}

func openQuestion(id, topicID int64) *entities.Question {
	return &entities.Question{
		ID:          id,
		TopicID:     topicID,
		Type:        entities.QuestionOpen,
		Text:        fmt.Sprintf("question %d", id),
		IdealAnswer: "reference answer",
	}
}
